package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sandeepkv93/habitd/internal/migrate"
	"github.com/sandeepkv93/habitd/internal/model"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("codec: unsupported format %q", s)
	}
}

// FormatForPath picks the format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func Encode(w io.Writer, c model.Collection, format Format) error {
	doc := FromCollection(c)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("codec: encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("codec: encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("codec: unsupported format %q", format)
	}
}

// Decode reads a document of either version. Legacy documents are upgraded
// with up.
func Decode(r io.Reader, format Format, up *migrate.Upgrader) (model.Collection, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return model.Collection{}, fmt.Errorf("codec: read: %w", err)
	}
	unmarshal := json.Unmarshal
	if format == FormatYAML {
		unmarshal = yaml.Unmarshal
	}

	var header struct {
		Version int `json:"version" yaml:"version"`
	}
	if err := unmarshal(raw, &header); err != nil {
		return model.Collection{}, &model.DecodeError{Source: "document", Err: err}
	}

	switch {
	case header.Version == 0:
		var legacy migrate.LegacyDocument
		if err := unmarshal(raw, &legacy); err != nil {
			return model.Collection{}, &model.DecodeError{Source: "document", Err: err}
		}
		if up == nil {
			up = migrate.NewUpgrader()
		}
		return up.UpgradeDocument(legacy)
	case header.Version > CurrentVersion:
		return model.Collection{}, &model.DecodeError{Source: "document", Field: "version", Err: fmt.Errorf("unsupported version %d", header.Version)}
	}

	var doc Document
	if err := unmarshal(raw, &doc); err != nil {
		return model.Collection{}, &model.DecodeError{Source: "document", Err: err}
	}
	return doc.ToCollection()
}
