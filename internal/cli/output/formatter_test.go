package output

import (
	"bytes"
	"strings"
	"testing"
)

type item struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func (i item) String() string { return i.Value }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"table", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	if _, ok := NewFormatter("unknown").(*TextFormatter); !ok {
		t.Error("expected TextFormatter for unknown format")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, item{Key: "k", Value: "v"}); err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "{\n  \"key\": \"k\",\n  \"value\": \"v\"\n}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLFormatter{}).Format(&buf, item{Key: "k", Value: "v"}); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if buf.String() != "key: k\nvalue: v\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestTextFormatter_Format(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"string", "raw", "raw\n"},
		{"trailing newline kept single", "raw\n", "raw\n"},
		{"stringer", item{Key: "k", Value: "v"}, "v\n"},
		{"slice", []string{"a", "b"}, "a\nb\n"},
		{"empty", "", ""},
		{"other", 42, "42\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&TextFormatter{}).Format(&buf, tt.data); err != nil {
				t.Fatalf("Format: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestTextFormatter_Multiline(t *testing.T) {
	var buf bytes.Buffer
	(&TextFormatter{}).Format(&buf, "line1\nline2")
	if strings.Count(buf.String(), "\n") != 2 {
		t.Errorf("got %q", buf.String())
	}
}
