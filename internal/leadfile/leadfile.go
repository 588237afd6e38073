// Package leadfile reads lead collections from disk.
//
// A lead file is a JSON or YAML document holding a "leads" list. A bare
// top-level JSON array of lead objects is accepted as well. The format is
// chosen by file extension; unknown extensions are read as JSON.
package leadfile

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/leadrecon/pkg/errors"
	"github.com/agentstation/leadrecon/pkg/leads"
)

// Format identifies an input encoding.
type Format string

const (
	// FormatJSON is the default input encoding.
	FormatJSON Format = "json"
	// FormatYAML is selected by a .yaml or .yml extension.
	FormatYAML Format = "yaml"
)

// DetectFormat picks the decoder for path.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Check verifies that path names a readable regular file.
func Check(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.NewNotFoundError("input", path)
		}
		return errors.WrapIO("stat", path, err)
	}
	if info.IsDir() {
		return errors.NewValidationError("input", path, "is a directory")
	}
	return nil
}

// Load reads and decodes the lead file at path.
func Load(path string) ([]leads.Lead, error) {
	if err := Check(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	format := DetectFormat(path)
	list, err := Decode(data, format)
	if err != nil {
		return nil, errors.NewParseError(string(format), path, err.Error(), err)
	}
	return list, nil
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) ([]leads.Lead, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(data)
	default:
		return decodeJSON(data)
	}
}

func decodeJSON(data []byte) ([]leads.Lead, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, stderrors.New("empty document")
	}

	if trimmed[0] == '[' {
		var list []leads.Lead
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var doc struct {
		Leads *[]leads.Lead `json:"leads"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	if doc.Leads == nil {
		return nil, stderrors.New(`missing "leads" list`)
	}
	return *doc.Leads, nil
}

func decodeYAML(data []byte) ([]leads.Lead, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, stderrors.New("empty document")
	}

	var doc struct {
		Leads *[]leads.Lead `yaml:"leads"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Leads == nil {
		return nil, stderrors.New(`missing "leads" list`)
	}
	return *doc.Leads, nil
}
