// Package save writes reconciliation outputs. Filesystem saves go through a
// temporary file in the destination directory and are renamed into place,
// so a failed save never leaves a partial file behind.
package save

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/leadrecon/pkg/constants"
	"github.com/agentstation/leadrecon/pkg/errors"
	"github.com/agentstation/leadrecon/pkg/leads"
)

// Leads writes the deduplicated lead list as an indented {"leads": [...]}
// document, the same shape the input loader reads.
func Leads(list []leads.Lead, opts ...Option) error {
	if list == nil {
		list = []leads.Lead{}
	}
	doc := leads.Document{Leads: list}

	return write(func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", constants.JSONIndent)
		return enc.Encode(doc)
	}, opts...)
}

// Text writes s verbatim.
func Text(s string, opts ...Option) error {
	return write(func(w io.Writer) error {
		_, err := io.Copy(w, strings.NewReader(s))
		return err
	}, opts...)
}

func write(encode func(io.Writer) error, opts ...Option) error {
	options := Defaults().Apply(opts...)

	if w := options.Writer(); w != nil {
		if err := encode(w); err != nil {
			return errors.WrapIO("write", options.Path(), err)
		}
		return nil
	}

	if options.Path() == "" {
		return errors.NewValidationError("path", "", "either a path or a writer is required")
	}
	return atomicWrite(options.Path(), options.Perm(), encode)
}

// atomicWrite encodes into a temp file next to path and renames it over path.
func atomicWrite(path string, perm os.FileMode, encode func(io.Writer) error) error {
	tempFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	tempPath := tempFile.Name()

	if err := encode(tempFile); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return errors.WrapIO("write", path, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("close", path, err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("chmod", path, err)
	}

	// Atomically move temp file to final location
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("rename", path, err)
	}
	return nil
}
