package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacksakers/ProjectReflect/internal/checkin"
)

func newThoughtCmd(a *app) *cobra.Command {
	var in checkin.QuickThoughtInput
	cmd := &cobra.Command{
		Use:     "thought [text]",
		Aliases: []string{"t"},
		Short:   "Capture a quick thought",
		Example: `  reflect thought "coffee with Sam" --mood grateful --category moment`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Text = strings.TrimSpace(strings.Join(args, " "))
			if in.Text == "" {
				text, err := promptLine(a.in, cmd.OutOrStdout(), "What's on your mind?")
				if err != nil {
					return fmt.Errorf("thought: %w", err)
				}
				in.Text = text
			}
			if in.Text == "" {
				return fmt.Errorf("thought: text is empty")
			}

			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("thought: %w", err)
			}
			defer svc.close()

			res, err := svc.checkin.QuickThought(cmd.Context(), a.cfg.User, in)
			return reportCheckin(cmd.OutOrStdout(), res, err)
		},
	}
	cmd.Flags().StringVarP(&in.Mood, "mood", "m", "", "mood (happy, calm, grateful, anxious, tired, frustrated)")
	cmd.Flags().StringVarP(&in.Category, "category", "c", "", "category (work, relationship, self, gratitude, moment)")
	return cmd
}

// reportCheckin prints a saved check-in and the growth it caused. An entry
// saved without its points is reported before the error is returned.
func reportCheckin(w io.Writer, res checkin.Result, err error) error {
	if res.Entry.ID == "" {
		return err
	}
	fmt.Fprintf(w, "Saved as %s\n", res.Entry.ID)
	if err != nil {
		fmt.Fprintln(w, "Your entry is safe, but your plant could not be watered this time.")
		return err
	}

	out := res.Garden
	if out.Completed != nil {
		fmt.Fprintf(w, "🌸 Your %s bloomed with %d points!\n", out.Completed.PlantType, out.Completed.FinalPoints)
		fmt.Fprintf(w, "A new seed was planted: %s (0/%d)\n", out.Plant.PlantID, out.Plant.MaxPoints)
	} else {
		fmt.Fprintf(w, "+%d points: %s %d/%d\n", res.Points, out.Plant.PlantID, out.Plant.CurrentPoints, out.Plant.MaxPoints)
	}
	if out.Degraded {
		fmt.Fprintln(w, "(plant catalog unavailable, defaults were used)")
	}
	return nil
}
