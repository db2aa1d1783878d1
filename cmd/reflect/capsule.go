package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

func newCapsuleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "capsule",
		Aliases: []string{"c"},
		Short:   "Write to your future self",
	}
	cmd.AddCommand(
		newCapsuleSealCmd(a),
		newCapsuleListCmd(a),
		newCapsuleOpenCmd(a),
		newCapsuleReplyCmd(a),
		newCapsuleDeleteCmd(a),
	)
	return cmd
}

// parseOpenDate resolves --on (YYYY-MM-DD, local midnight) or --days.
func parseOpenDate(on string, days int, now time.Time) (time.Time, error) {
	switch {
	case on != "" && days > 0:
		return time.Time{}, fmt.Errorf("--on and --days are mutually exclusive")
	case on != "":
		t, err := time.ParseInLocation(core.DateLayout, on, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("open date %q: want YYYY-MM-DD", on)
		}
		return t, nil
	case days > 0:
		return now.AddDate(0, 0, days), nil
	default:
		return time.Time{}, fmt.Errorf("an open date is required: use --on YYYY-MM-DD or --days N")
	}
}

func newCapsuleSealCmd(a *app) *cobra.Command {
	var (
		on       string
		days     int
		reply    bool
		mood     string
		category string
	)
	cmd := &cobra.Command{
		Use:   "seal [text]",
		Short: "Seal a time capsule until a future date",
		Example: `  reflect capsule seal --days 30 "Did the move feel right?"
  reflect capsule seal --on 2027-01-01 --reply`,
		RunE: func(cmd *cobra.Command, args []string) error {
			openDate, err := parseOpenDate(on, days, time.Now())
			if err != nil {
				return fmt.Errorf("capsule seal: %w", err)
			}

			c := core.Capsule{AuthorID: a.cfg.User, OpenDate: openDate, IncludeReply: reply}
			if mood != "" {
				m, err := core.QuickThoughtMoods.Validate(mood)
				if err != nil {
					return fmt.Errorf("capsule seal: %w", err)
				}
				c.Moods = []string{m}
			}
			if category != "" {
				cat, err := core.EntryCategories.Validate(category)
				if err != nil {
					return fmt.Errorf("capsule seal: %w", err)
				}
				c.Categories = []string{cat}
			}

			c.Text = strings.TrimSpace(strings.Join(args, " "))
			if c.Text == "" {
				text, _, err := openEditor(a.cfg.Editor, editorTemplate{
					Comment: []string{
						"Reflect time capsule: write to yourself under the message header.",
						"It stays sealed until " + openDate.Format(core.DateLayout) + ".",
					},
					Header: "--- message ---",
				})
				if err != nil {
					return fmt.Errorf("capsule seal: edit: %w", err)
				}
				c.Text = text
			}

			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("capsule seal: %w", err)
			}
			defer svc.close()

			saved, err := svc.store.CreateCapsule(cmd.Context(), c)
			if err != nil {
				return fmt.Errorf("capsule seal: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sealed %s until %s\n", saved.ID, saved.OpenDate.Local().Format(core.DateLayout))
			return nil
		},
	}
	cmd.Flags().StringVar(&on, "on", "", "open date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&days, "days", 0, "open after this many days")
	cmd.Flags().BoolVar(&reply, "reply", false, "ask your future self for a reply")
	cmd.Flags().StringVarP(&mood, "mood", "m", "", "mood while writing")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category")
	return cmd
}

func newCapsuleListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sealed and delivered capsules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("capsule list: %w", err)
			}
			defer svc.close()

			capsules, err := svc.store.ListCapsules(cmd.Context(), a.cfg.User)
			if err != nil {
				return fmt.Errorf("capsule list: %w", err)
			}
			w := cmd.OutOrStdout()
			if len(capsules) == 0 {
				fmt.Fprintln(w, "No time capsules yet.")
				return nil
			}

			now := time.Now()
			sealed, delivered := core.SplitCapsules(capsules, now)
			if len(sealed) > 0 {
				fmt.Fprintln(w, "SEALED")
				for _, c := range sealed {
					fmt.Fprintf(w, "%-36s opens %s (%s)\n", c.ID, c.OpenDate.Local().Format(core.DateLayout), formatRelative(c.OpenDate, now))
				}
			}
			if len(delivered) > 0 {
				if len(sealed) > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintln(w, "DELIVERED")
				for _, c := range delivered {
					state := "ready to open"
					if c.Status == core.CapsuleOpened {
						state = "opened"
						if c.ReplyText != "" {
							state = "replied"
						}
					}
					fmt.Fprintf(w, "%-36s %-14s %s\n", c.ID, state, overview(c.Text, 50))
				}
			}
			return nil
		},
	}
}

func printCapsule(w io.Writer, c core.Capsule) {
	fmt.Fprintf(w, "Written %s, for %s\n", formatShort(c.CreatedAt), c.OpenDate.Local().Format(core.DateLayout))
	if c.OpenedPrematurely {
		fmt.Fprintln(w, "(opened early)")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, c.Text)
	if c.ReplyText != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "YOUR REPLY")
		fmt.Fprintln(w, c.ReplyText)
	} else if c.IncludeReply {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Your past self asked for a reply: reflect capsule reply %s\n", c.ID)
	}
}

func newCapsuleOpenCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Open a capsule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("capsule open: %w", err)
			}
			defer svc.close()

			w := cmd.OutOrStdout()
			c, err := svc.store.GetCapsule(cmd.Context(), a.cfg.User, args[0])
			if err != nil {
				return fmt.Errorf("capsule open: %w", err)
			}
			if !yes && !core.CapsuleDelivered(c, time.Now()) {
				q := fmt.Sprintf("This capsule is meant for %s. Open it early?", c.OpenDate.Local().Format(core.DateLayout))
				ok, err := promptYesNo(a.in, w, q)
				if err != nil {
					return fmt.Errorf("capsule open: %w", err)
				}
				if !ok {
					return nil
				}
			}

			c, err = svc.store.OpenCapsule(cmd.Context(), a.cfg.User, c.ID)
			if err != nil {
				return fmt.Errorf("capsule open: %w", err)
			}
			printCapsule(w, c)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "open early without asking")
	return cmd
}

func newCapsuleReplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reply <id> [text]",
		Short: "Reply to a delivered capsule",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("capsule reply: %w", err)
			}
			defer svc.close()

			c, err := svc.store.GetCapsule(cmd.Context(), a.cfg.User, args[0])
			if err != nil {
				return fmt.Errorf("capsule reply: %w", err)
			}
			if !core.CapsuleDelivered(c, time.Now()) {
				return fmt.Errorf("capsule reply: %w", core.ErrCapsuleSealed)
			}

			reply := strings.TrimSpace(strings.Join(args[1:], " "))
			if reply == "" {
				comment := []string{"Reflect: reply to your past self under the reply header.", ""}
				for _, ln := range strings.Split(c.Text, "\n") {
					comment = append(comment, "> "+ln)
				}
				reply, _, err = openEditor(a.cfg.Editor, editorTemplate{
					Comment: comment,
					Header:  "--- reply ---",
					Text:    c.ReplyText,
				})
				if err != nil {
					return fmt.Errorf("capsule reply: edit: %w", err)
				}
			}

			if _, err := svc.store.ReplyCapsule(cmd.Context(), a.cfg.User, c.ID, reply); err != nil {
				return fmt.Errorf("capsule reply: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reply saved to %s\n", c.ID)
			return nil
		},
	}
}

func newCapsuleDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a capsule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("capsule delete: %w", err)
			}
			defer svc.close()

			w := cmd.OutOrStdout()
			if !yes {
				ok, err := promptYesNo(a.in, w, "Delete capsule "+args[0]+"?")
				if err != nil {
					return fmt.Errorf("capsule delete: %w", err)
				}
				if !ok {
					return nil
				}
			}
			if err := svc.store.DeleteCapsule(cmd.Context(), a.cfg.User, args[0]); err != nil {
				return fmt.Errorf("capsule delete: %w", err)
			}
			fmt.Fprintf(w, "Deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
