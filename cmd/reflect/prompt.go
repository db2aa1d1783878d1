package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

// promptLine asks a question and returns the trimmed answer.
func promptLine(reader *bufio.Reader, w io.Writer, question string) (string, error) {
	fmt.Fprintf(w, "%s ", question)
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptYesNo asks a yes/no question and returns the user's choice.
func promptYesNo(reader *bufio.Reader, w io.Writer, question string) (bool, error) {
	for {
		s, err := promptLine(reader, w, question+" [y/n]:")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(s) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(w, "Please answer yes or no.")
		}
	}
}

// promptChoice asks the user to select one of the provided choices and returns the selected value.
// An empty answer returns def when def is one of the choices.
func promptChoice(reader *bufio.Reader, w io.Writer, question string, choices []string, def string) (string, error) {
	if len(choices) == 0 {
		return "", errors.New("no choices provided")
	}
	allowed := make(map[string]struct{}, len(choices))
	for _, c := range choices {
		allowed[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	if _, ok := allowed[def]; !ok {
		def = ""
	}

	for {
		q := fmt.Sprintf("%s (%s):", question, strings.Join(choices, "/"))
		if def != "" {
			q = fmt.Sprintf("%s (%s) [%s]:", question, strings.Join(choices, "/"), def)
		}
		line, err := promptLine(reader, w, q)
		if err != nil {
			return "", err
		}
		s := strings.ToLower(line)
		if s == "" && def != "" {
			return def, nil
		}
		if _, ok := allowed[s]; ok {
			return s, nil
		}
		fmt.Fprintf(w, "Please choose one of: %s\n", strings.Join(choices, ", "))
	}
}

// promptLabels asks for a comma-separated list of labels from vocab. An
// empty answer returns no labels; unknown labels are re-asked.
func promptLabels(reader *bufio.Reader, w io.Writer, question string, vocab core.Vocabulary) ([]string, error) {
	for {
		line, err := promptLine(reader, w, fmt.Sprintf("%s (%s, comma separated, blank to skip):", question, strings.Join(vocab.IDs, ", ")))
		if err != nil {
			return nil, err
		}
		labels, err := vocab.ValidateAll(strings.Split(line, ","))
		if err == nil {
			return labels, nil
		}
		fmt.Fprintln(w, err)
	}
}
