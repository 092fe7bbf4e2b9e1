package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haivivi/bipbuf/pkg/buffer"
)

func sampleStats() buffer.Stats {
	return buffer.Stats{
		Capacity: 8,
		PageSize: 8,
		Used:     4,
		Free:     4,
		State:    buffer.StateTwoBlocks,
		BlockA:   buffer.Region{Index: 4, Size: 3},
		BlockB:   buffer.Region{Index: 0, Size: 1},
	}
}

func TestOutput_Formats(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   []string
	}{
		{FormatYAML, []string{"capacity: 8", "state: two"}},
		{FormatJSON, []string{`"capacity": 8`, `"state": "two"`}},
		{FormatRaw, []string{"capacity: 8"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Output(sampleStats(), OutputOptions{Format: tt.format, Writer: &buf}); err != nil {
				t.Fatalf("Output() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output %q missing %q", buf.String(), w)
				}
			}
		})
	}
}

func TestOutput_RawString(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("hello", OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hello\n" {
		t.Errorf("raw output = %q", buf.String())
	}
}

func TestOutput_Query(t *testing.T) {
	var buf bytes.Buffer
	err := Output(sampleStats(), OutputOptions{
		Format: FormatJSON,
		Query:  ".block_a.index, .state",
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if got := buf.String(); got != "4\n\"two\"\n" {
		t.Errorf("query output = %q", got)
	}
}

func TestApplyQuery_Errors(t *testing.T) {
	if _, err := ApplyQuery(sampleStats(), ".["); err == nil {
		t.Error("parse error expected")
	}
	if _, err := ApplyQuery(sampleStats(), `error("boom")`); err == nil {
		t.Error("runtime error expected")
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"yaml", "json", "raw"} {
		if f, err := ParseOutputFormat(s); err != nil || string(f) != s {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", s, f, err)
		}
	}
	if f, _ := ParseOutputFormat(""); f != FormatYAML {
		t.Errorf("empty format = %q, want yaml", f)
	}
	if _, err := ParseOutputFormat("table"); err == nil {
		t.Error("table should be rejected")
	}
}

func TestOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := Output(sampleStats(), OutputOptions{Format: FormatJSON, File: path, Query: ".used"}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "4\n" {
		t.Errorf("file content = %q, want 4", data)
	}
}
