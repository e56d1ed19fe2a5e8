package debug

import (
	"testing"

	"flowbook/common"
)

func TestTreeWriter_Line(t *testing.T) {
	tw := NewTreeWriter()
	if tw.String() != "" {
		t.Error("expected empty string from new TreeWriter")
	}

	tw.Line(0, "page %d", 3)
	tw.Line(1, "row")
	tw.Line(2, "%s at (%g, %g)", "img", 28.0, 42.5)

	want := "page 3\n  row\n    img at (28, 42.5)\n"
	if got := tw.String(); got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		value string
		want  string
	}{
		{"empty", 0, "", "source: \n"},
		{"plain", 1, "/photos/a.jpg", "  source: \"/photos/a.jpg\"\n"},
		{"quotes", 0, `say "hi"`, "source: \"say \\\"hi\\\"\"\n"},
		{"control", 2, "a\tb\nc", "    source: \"a\\tb\\nc\"\n"},
		{"backslash", 0, `c:\photos`, "source: \"c:\\\\photos\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.TextBlock(tt.depth, "source", tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("TextBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_Field(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		value any
		want  string
	}{
		{"float", 0, 28.5, "v: 28.5\n"},
		{"whole float", 1, 200.0, "  v: 200\n"},
		{"int", 0, 42, "v: 42\n"},
		{"bool", 2, true, "    v: true\n"},
		{"string", 0, "a b", "v: \"a b\"\n"},
		{"empty string", 0, "", "v: \n"},
		{"stringer", 0, common.OrderingModeSmartFine, "v: smartFine\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Field(tt.depth, "v", tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("Field() = %q, want %q", got, tt.want)
			}
		})
	}
}
