package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/itchyny/gojq"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatYAML outputs as YAML (default for terminal)
	FormatYAML OutputFormat = "yaml"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatRaw outputs strings and bytes verbatim, anything else as YAML
	FormatRaw OutputFormat = "raw"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatYAML, FormatJSON, FormatRaw:
		return f, nil
	case "":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// OutputOptions configures output behavior
type OutputOptions struct {
	// Format is the output format (yaml, json, raw)
	Format OutputFormat

	// Query is an optional jq expression applied before formatting
	Query string

	// File is the output file path (empty for stdout)
	File string

	// Indent is the indentation for JSON output
	Indent string

	// Writer is an optional custom writer (overrides File)
	Writer io.Writer
}

// Output writes the result to the configured destination
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout

	if opts.Writer != nil {
		w = opts.Writer
	} else if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if opts.Query != "" {
		values, err := ApplyQuery(result, opts.Query)
		if err != nil {
			return err
		}
		for _, v := range values {
			if err := write(w, v, opts); err != nil {
				return err
			}
		}
		return nil
	}
	return write(w, result, opts)
}

func write(w io.Writer, result any, opts OutputOptions) error {
	switch opts.Format {
	case FormatJSON:
		return outputJSON(w, result, opts.Indent)
	case FormatYAML, "":
		return outputYAML(w, result)
	case FormatRaw:
		return outputRaw(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// ApplyQuery runs a jq expression over result and returns every value it
// emits. result is first brought into JSON shape through its json tags.
func ApplyQuery(result any, query string) ([]any, error) {
	q, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", query, err)
	}
	input, err := toJSONValue(result)
	if err != nil {
		return nil, err
	}

	var out []any
	iter := q.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("query %q: %w", query, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func toJSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query input: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode query input: %w", err)
	}
	return out, nil
}

func outputJSON(w io.Writer, result any, indent string) error {
	enc := json.NewEncoder(w)
	if indent == "" {
		indent = "  "
	}
	enc.SetIndent("", indent)
	return enc.Encode(result)
}

func outputYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func outputRaw(w io.Writer, result any) error {
	switch v := result.(type) {
	case []byte:
		_, err := w.Write(v)
		return err
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	default:
		return outputYAML(w, result)
	}
}
