// Package output provides adapters for writing application output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// Format selects how a resolution result is rendered.
type Format string

// Supported output formats.
const (
	// FormatText writes only the version on a single line.
	FormatText Format = "text"

	// FormatJSON writes the full result as indented JSON.
	FormatJSON Format = "json"

	// FormatYAML writes the full result as YAML.
	FormatYAML Format = "yaml"

	// FormatProperties writes key=value lines in Java properties style.
	FormatProperties Format = "properties"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatProperties}

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q (supported: text, json, yaml, properties)", s)
}

// Writer writes the resolution result to the configured output destination.
type Writer struct {
	out    io.Writer
	format Format
}

// NewWriterWithOutput creates a new Writer with the given output destination,
// os.Stdout in production.
func NewWriterWithOutput(out io.Writer, format Format) *Writer {
	return &Writer{out: out, format: format}
}

// Write renders out in the writer's format.
func (w *Writer) Write(out *domain.ResolutionOutput) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case FormatProperties:
		return w.writeProperties(out)
	default:
		_, err := fmt.Fprintln(w.out, out.Version)
		return err
	}
}

func (w *Writer) writeProperties(out *domain.ResolutionOutput) error {
	lines := []string{"version=" + valueEscaper.Replace(out.Version)}
	lines = append(lines, sortedLines(out.Properties)...)
	lines = append(lines, sortedLines(out.GitProperties)...)
	_, err := fmt.Fprintln(w.out, strings.Join(lines, "\n"))
	return err
}

func sortedLines(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, keyEscaper.Replace(key)+"="+valueEscaper.Replace(values[key]))
	}
	return lines
}

// Separators only need escaping in keys.
var (
	valueEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	keyEscaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`, "\t", `\t`, "=", `\=`, ":", `\:`, " ", `\ `)
)
