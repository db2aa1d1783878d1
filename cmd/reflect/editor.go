package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrEmptyEdit is returned when the edited primary section is empty.
var ErrEmptyEdit = errors.New("edited text is empty")

// editorTemplate describes a file handed to the user's editor. Lines
// starting with "//" are instructions and are dropped when reading back.
type editorTemplate struct {
	Comment []string

	// Header marks the main text section.
	Header string
	Text   string

	// Extra is an optional second section; ExtraHeader empty disables it.
	ExtraHeader string
	Extra       string
}

func (t editorTemplate) render() string {
	var b strings.Builder
	for _, c := range t.Comment {
		b.WriteString("// " + c + "\n")
	}
	b.WriteString("\n" + t.Header + "\n" + t.Text + "\n")
	if t.ExtraHeader != "" {
		b.WriteString(t.ExtraHeader + "\n" + t.Extra + "\n")
	}
	return b.String()
}

// parse splits edited text back into its two sections. A removed header
// makes everything outside the other section count as main text.
func (t editorTemplate) parse(edited string) (text string, extra string, err error) {
	rawLines := strings.Split(edited, "\n")
	lines := make([]string, 0, len(rawLines))
	for _, ln := range rawLines {
		ln = strings.TrimRight(ln, "\r")
		if strings.HasPrefix(strings.TrimSpace(ln), "//") {
			continue
		}
		lines = append(lines, ln)
	}

	textIndex := -1
	extraIndex := -1
	for idx, line := range lines {
		if line == t.Header && textIndex == -1 {
			textIndex = idx
		}
		if t.ExtraHeader != "" && line == t.ExtraHeader && extraIndex == -1 {
			extraIndex = idx
		}
	}

	switch {
	case textIndex != -1 && extraIndex != -1 && textIndex < extraIndex:
		text = strings.Join(lines[textIndex+1:extraIndex], "\n")
		extra = strings.Join(lines[extraIndex+1:], "\n")

	case textIndex != -1 && extraIndex != -1:
		extra = strings.Join(lines[extraIndex+1:textIndex], "\n")
		text = strings.Join(lines[textIndex+1:], "\n")

	case textIndex != -1:
		text = strings.Join(lines[textIndex+1:], "\n")

	case extraIndex != -1:
		text = strings.Join(lines[:extraIndex], "\n")
		extra = strings.Join(lines[extraIndex+1:], "\n")

	default:
		text = strings.Join(lines, "\n")
	}

	text = strings.TrimSpace(text)
	extra = strings.TrimSpace(extra)
	if text == "" {
		return "", "", ErrEmptyEdit
	}
	return text, extra, nil
}

// editorCommand picks the editor: the configured one, then $VISUAL and
// $EDITOR, then the first of nano/vim/vi on PATH.
func editorCommand(configured string) ([]string, error) {
	for _, candidate := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if fields := strings.Fields(candidate); len(fields) > 0 {
			return fields, nil
		}
	}
	for _, e := range []string{"nano", "vim", "vi"} {
		if p, err := exec.LookPath(e); err == nil {
			return []string{p}, nil
		}
	}
	return nil, fmt.Errorf("no editor found: set editor in config or $EDITOR")
}

// openEditor writes the template to a temp file, runs the editor on it and
// returns the parsed sections.
func openEditor(configured string, t editorTemplate) (text string, extra string, err error) {
	argv, err := editorCommand(configured)
	if err != nil {
		return "", "", err
	}

	file, err := os.CreateTemp("", "reflect-*.txt")
	if err != nil {
		return "", "", err
	}
	path := file.Name()
	defer func() {
		_ = os.Remove(path)
	}()

	if _, err := file.WriteString(t.render()); err != nil {
		_ = file.Close()
		return "", "", err
	}
	if err := file.Close(); err != nil {
		return "", "", err
	}

	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", "", fmt.Errorf("run editor: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return t.parse(string(data))
}
