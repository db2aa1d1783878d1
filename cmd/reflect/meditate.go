package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

func newMeditateCmd(a *app) *cobra.Command {
	var guided bool
	cmd := &cobra.Command{
		Use:   "meditate [id]",
		Short: "List meditations or walk through one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				list, err := core.Meditations()
				if err != nil {
					return fmt.Errorf("meditate: %w", err)
				}
				for _, m := range list {
					fmt.Fprintf(w, "%-20s %2d min  %s\n", m.ID, m.DurationMinutes, m.Name)
				}
				return nil
			}

			m, found, err := core.FindMeditation(args[0])
			if err != nil {
				return fmt.Errorf("meditate: %w", err)
			}
			if !found {
				a.logger.Warn("meditate: unknown meditation, using default", "meditation", args[0], "default", m.ID)
			}
			return runMeditation(cmd.Context(), w, m, guided)
		},
	}
	cmd.Flags().BoolVar(&guided, "guided", false, "pause for each step")
	return cmd
}
