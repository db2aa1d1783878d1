package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

func newJournalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "journal",
		Aliases: []string{"j"},
		Short:   "Read and manage journal entries",
	}
	cmd.AddCommand(
		newJournalListCmd(a),
		newJournalShowCmd(a),
		newJournalSearchCmd(a),
		newJournalDeleteCmd(a),
		newJournalTodayCmd(a),
	)
	return cmd
}

func newJournalListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries and delivered time capsules, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("journal list: %w", err)
			}
			defer svc.close()

			items, err := svc.checkin.Feed(cmd.Context(), a.cfg.User, limit)
			if err != nil {
				return fmt.Errorf("journal list: %w", err)
			}
			w := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(w, "No entries yet.")
				return nil
			}
			printFeed(w, items)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of items to show")
	return cmd
}

// printFeed prints one row per feed item.
func printFeed(w io.Writer, items []core.FeedItem) {
	fmt.Fprintf(w, "%-36s %-16s %-16s %-12s %s\n", "ID", "KIND", "WHEN", "MOOD", "OVERVIEW")
	for _, it := range items {
		switch {
		case it.Entry != nil:
			e := it.Entry
			fmt.Fprintf(w, "%-36s %-16s %-16s %-12s %s\n", e.ID, e.Type, formatShort(it.At), labels(e.Moods), overview(e.Text, 60))
		case it.Capsule != nil:
			c := it.Capsule
			fmt.Fprintf(w, "%-36s %-16s %-16s %-12s %s\n", c.ID, "time_capsule", formatShort(it.At), labels(c.Moods), overview(c.Text, 60))
		}
	}
}

func newJournalShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("journal show: %w", err)
			}
			defer svc.close()

			e, err := svc.store.GetEntry(cmd.Context(), a.cfg.User, args[0])
			if err != nil {
				return fmt.Errorf("journal show: %w", err)
			}
			printEntry(cmd.OutOrStdout(), e, time.Now())
			return nil
		},
	}
}

func printEntry(w io.Writer, e core.Entry, now time.Time) {
	fmt.Fprintf(w, "%s  %s\n", e.ID, e.Type)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "TEXT")
	fmt.Fprintln(w, e.Text)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "META")
	fmt.Fprintf(w, "Created:    %s (%s)\n", formatShort(e.CreatedAt), formatRelative(e.CreatedAt, now))
	fmt.Fprintf(w, "Mood:       %s\n", labels(e.Moods))
	fmt.Fprintf(w, "Categories: %s\n", labels(e.Categories))
	if len(e.Tags) > 0 {
		fmt.Fprintf(w, "Tags:       %s\n", labels(e.Tags))
	}
	if e.PhotoURL != "" {
		fmt.Fprintf(w, "Photo:      %s\n", e.PhotoURL)
	}
	if m := e.Meditation; m != nil {
		fmt.Fprintf(w, "Meditation: %s (%d min)\n", m.Name, m.DurationMinutes)
	}
	if t := e.Triage; t != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "BEFORE THE SESSION")
		fmt.Fprintf(w, "On my mind: %s\n", labels(t.ThoughtCategories))
		if t.Thought != "" {
			fmt.Fprintf(w, "Thought:    %s\n", t.Thought)
		}
		fmt.Fprintf(w, "Felt in:    %s\n", labels(t.BodyLocations))
	}
}

func newJournalSearchCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find entries containing text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("journal search: %w", err)
			}
			defer svc.close()

			entries, err := svc.store.SearchEntries(cmd.Context(), a.cfg.User, args[0], limit)
			if err != nil {
				return fmt.Errorf("journal search: %w", err)
			}
			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(w, "No matching entries.")
				return nil
			}
			items := core.MergeFeed(entries, nil, time.Now())
			printFeed(w, items)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results")
	return cmd
}

func newJournalDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("journal delete: %w", err)
			}
			defer svc.close()

			w := cmd.OutOrStdout()
			e, err := svc.store.GetEntry(cmd.Context(), a.cfg.User, args[0])
			if err != nil {
				return fmt.Errorf("journal delete: %w", err)
			}
			if !yes {
				ok, err := promptYesNo(a.in, w, fmt.Sprintf("Delete %q?", overview(e.Text, 40)))
				if err != nil {
					return fmt.Errorf("journal delete: %w", err)
				}
				if !ok {
					return nil
				}
			}
			if err := svc.store.DeleteEntry(cmd.Context(), a.cfg.User, e.ID); err != nil {
				return fmt.Errorf("journal delete: %w", err)
			}
			fmt.Fprintf(w, "Deleted %s\n", e.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newJournalTodayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show what you wrote on this day in the past",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("journal today: %w", err)
			}
			defer svc.close()

			memories, err := svc.checkin.OnThisDay(cmd.Context(), a.cfg.User)
			if err != nil {
				return fmt.Errorf("journal today: %w", err)
			}
			w := cmd.OutOrStdout()
			if len(memories) == 0 {
				fmt.Fprintln(w, "Nothing from this day yet. Come back tomorrow.")
				return nil
			}
			for i, m := range memories {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintln(w, m.Period.Label)
				printFeed(w, m.Items)
			}
			return nil
		},
	}
}
