package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacksakers/ProjectReflect/internal/checkin"
	"github.com/jacksakers/ProjectReflect/internal/core"
)

func newSessionCmd(a *app) *cobra.Command {
	var (
		useEditor bool
		guided    bool
		suggest   int
	)
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"s"},
		Short:   "Run a guided reflection session",
		Long: `A session asks what is on your mind and where you feel it, suggests a
meditation that fits, walks through it and then records your reflection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			var triage core.TriageAnswers
			var err error
			if triage.ThoughtCategories, err = promptLabels(a.in, w, "What is on your mind?", core.ThoughtCategories); err != nil {
				return fmt.Errorf("session: %w", err)
			}
			if triage.Thought, err = promptLine(a.in, w, "Describe the thought in a few words (optional):"); err != nil {
				return fmt.Errorf("session: %w", err)
			}
			if triage.BodyLocations, err = promptLabels(a.in, w, "Where do you feel it?", core.BodyLocations); err != nil {
				return fmt.Errorf("session: %w", err)
			}

			list, err := core.Meditations()
			if err != nil {
				return fmt.Errorf("session: %w", err)
			}
			suggestions := core.SuggestMeditations(list, triage, suggest)
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Suggested meditations:")
			ids := make([]string, 0, len(suggestions)+1)
			for _, s := range suggestions {
				fmt.Fprintf(w, "  %-20s %2d min  %s\n", s.ID, s.DurationMinutes, s.Description)
				ids = append(ids, s.ID)
			}
			ids = append(ids, "skip")
			def := "skip"
			if len(suggestions) > 0 {
				def = suggestions[0].ID
			}
			choice, err := promptChoice(a.in, w, "Which meditation?", ids, def)
			if err != nil {
				return fmt.Errorf("session: %w", err)
			}

			in := checkin.ReflectionInput{Triage: triage}
			if choice != "skip" {
				m, _, err := core.FindMeditation(choice)
				if err != nil {
					return fmt.Errorf("session: %w", err)
				}
				if err := runMeditation(ctx, w, m, guided); err != nil {
					return fmt.Errorf("session: %w", err)
				}
				in.MeditationID = m.ID
			}

			if in.Mood, err = promptChoice(a.in, w, "How do you feel now?", core.ReflectionMoods.IDs, ""); err != nil {
				return fmt.Errorf("session: %w", err)
			}

			if useEditor {
				t := editorTemplate{
					Comment: []string{
						"Reflect: write your reflection under the reflection header.",
						"The thought section is what you brought into this session.",
					},
					Header:      "--- reflection ---",
					ExtraHeader: "--- thought ---",
					Extra:       triage.Thought,
				}
				text, thought, err := openEditor(a.cfg.Editor, t)
				if err != nil {
					return fmt.Errorf("session: edit: %w", err)
				}
				in.Text = text
				in.Triage.Thought = thought
			} else if in.Text, err = promptLine(a.in, w, "Your reflection:"); err != nil {
				return fmt.Errorf("session: %w", err)
			}

			svc, err := a.open(ctx)
			if err != nil {
				return fmt.Errorf("session: %w", err)
			}
			defer svc.close()

			res, err := svc.checkin.Reflection(ctx, a.cfg.User, in)
			return reportCheckin(w, res, err)
		},
	}
	cmd.Flags().BoolVarP(&useEditor, "edit", "e", false, "write the reflection in your editor")
	cmd.Flags().BoolVar(&guided, "guided", false, "pause for each meditation step")
	cmd.Flags().IntVar(&suggest, "suggest", 3, "number of meditations to suggest")
	return cmd
}

// runMeditation prints the steps of m. With guided set it waits out each
// step, stopping early when ctx is cancelled.
func runMeditation(ctx context.Context, w io.Writer, m core.Meditation, guided bool) error {
	fmt.Fprintf(w, "\n%s (%d min)\n%s\n", m.Name, m.DurationMinutes, strings.Repeat("=", len(m.Name)))
	if m.Description != "" {
		fmt.Fprintln(w, m.Description)
	}
	for i, step := range m.Steps {
		fmt.Fprintf(w, "\n%d. %s\n   %s\n", i+1, step.Title, step.Text)
		if !guided || step.Duration() <= 0 {
			continue
		}
		timer := time.NewTimer(step.Duration())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	fmt.Fprintln(w)
	return nil
}
