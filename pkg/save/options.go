package save

import (
	"io"
	"os"

	"github.com/agentstation/leadrecon/pkg/constants"
)

// Options is the configuration for save.
type Options struct {
	path   string
	writer io.Writer
	perm   os.FileMode
}

// Path returns the path for the save options.
func (s *Options) Path() string {
	return s.path
}

// Writer returns the writer for the save options.
func (s *Options) Writer() io.Writer {
	return s.writer
}

// Perm returns the file mode used for filesystem saves.
func (s *Options) Perm() os.FileMode {
	return s.perm
}

// Defaults returns the default save options.
func Defaults() *Options {
	return &Options{
		path:   "",
		writer: nil,
		perm:   constants.FilePermissions,
	}
}

// Apply applies the given options to the save options.
func (s *Options) Apply(opts ...Option) Options {
	for _, opt := range opts {
		opt(s)
	}
	return *s
}

// Option is a function that configures save options.
type Option func(*Options)

// WithPath for filesystem saves.
func WithPath(path string) Option {
	return func(s *Options) {
		s.path = path
	}
}

// WithWriter for custom outputs. A writer takes precedence over a path.
func WithWriter(w io.Writer) Option {
	return func(s *Options) {
		s.writer = w
	}
}

// WithPerm sets the mode of files created by filesystem saves.
func WithPerm(perm os.FileMode) Option {
	return func(s *Options) {
		s.perm = perm
	}
}
