package main

import (
	"errors"
	"testing"
)

func TestEditorTemplate_RoundTrip(t *testing.T) {
	tmpl := editorTemplate{
		Comment:     []string{"write below"},
		Header:      "--- reflection ---",
		Text:        "first line\nsecond line",
		ExtraHeader: "--- thought ---",
		Extra:       "deadline",
	}
	text, extra, err := tmpl.parse(tmpl.render())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if text != "first line\nsecond line" || extra != "deadline" {
		t.Fatalf("text = %q extra = %q", text, extra)
	}
}

func TestEditorTemplate_Parse(t *testing.T) {
	tmpl := editorTemplate{Header: "--- text ---", ExtraHeader: "--- note ---"}
	tests := []struct {
		name      string
		edited    string
		wantText  string
		wantExtra string
	}{
		{"both sections", "// hi\n--- text ---\nbody\n--- note ---\nnote\n", "body", "note"},
		{"sections swapped", "--- note ---\nnote\n--- text ---\nbody\n", "body", "note"},
		{"extra header removed", "--- text ---\nbody\nmore\n", "body\nmore", ""},
		{"text header removed", "body\n--- note ---\nnote", "body", "note"},
		{"no headers", "just words\r\n", "just words", ""},
		{"comments dropped", "  // indented comment\nkeep\n", "keep", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, extra, err := tmpl.parse(tt.edited)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if text != tt.wantText || extra != tt.wantExtra {
				t.Fatalf("text = %q extra = %q, want %q %q", text, extra, tt.wantText, tt.wantExtra)
			}
		})
	}
}

func TestEditorTemplate_EmptyText(t *testing.T) {
	tmpl := editorTemplate{Header: "--- message ---"}
	if _, _, err := tmpl.parse("// only comments\n--- message ---\n   \n"); !errors.Is(err, ErrEmptyEdit) {
		t.Fatalf("err = %v, want ErrEmptyEdit", err)
	}
}

func TestEditorTemplate_SingleSectionIgnoresExtra(t *testing.T) {
	tmpl := editorTemplate{Header: "--- reply ---"}
	text, extra, err := tmpl.parse("--- reply ---\nthanks\n--- note ---\nstill reply")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if text != "thanks\n--- note ---\nstill reply" || extra != "" {
		t.Fatalf("text = %q extra = %q", text, extra)
	}
}

func TestEditorCommand_Precedence(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "vi -n")

	argv, err := editorCommand("code --wait")
	if err != nil || len(argv) != 2 || argv[0] != "code" || argv[1] != "--wait" {
		t.Fatalf("configured editor = %v, %v", argv, err)
	}
	argv, err = editorCommand("")
	if err != nil || len(argv) != 2 || argv[0] != "vi" {
		t.Fatalf("$EDITOR = %v, %v", argv, err)
	}
}
