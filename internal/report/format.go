package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"pairhunter/pkg/model"
)

// Format is a report serialization
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat resolves a format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "msgpack", "mpk":
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("unknown report format %q (json, yaml, msgpack)", s)
}

// FormatFromPath picks the format from a file extension, defaulting to JSON
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatJSON
	}
	return f
}

// Ext returns the file extension for the format, without the dot
func (f Format) Ext() string {
	return string(f)
}

// ContentType returns the MIME type used when serving the format
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatMsgpack:
		return "application/msgpack"
	default:
		return "application/json"
	}
}

// Encode writes r to w in format f
func Encode(w io.Writer, r *model.ScreenReport, f Format) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(r)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
}

// Decode reads a report in format f
func Decode(rd io.Reader, f Format) (*model.ScreenReport, error) {
	var r model.ScreenReport
	var err error
	switch f {
	case FormatYAML:
		err = yaml.NewDecoder(rd).Decode(&r)
	case FormatMsgpack:
		err = msgpack.NewDecoder(rd).Decode(&r)
	default:
		err = json.NewDecoder(rd).Decode(&r)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s report: %w", f, err)
	}
	return &r, nil
}

// WriteFile writes r to path in the format implied by its extension.
// The file is replaced atomically so readers never see a partial report.
func WriteFile(path string, r *model.ScreenReport) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, r, FormatFromPath(path)); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadFile loads a report written by WriteFile
func ReadFile(path string) (*model.ScreenReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, FormatFromPath(path))
}
