package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jacksakers/ProjectReflect/internal/core"
	"github.com/jacksakers/ProjectReflect/internal/garden"
	"github.com/jacksakers/ProjectReflect/internal/storage"
)

func newGardenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "garden",
		Aliases: []string{"g"},
		Short:   "See your plant and the garden of past blooms",
	}
	cmd.AddCommand(
		newGardenStatusCmd(a),
		newGardenHistoryCmd(a),
		newGardenWatchCmd(a),
		newGardenImageCmd(a),
	)
	return cmd
}

// plantName is the catalog name of a plant, or its id when the plant type
// could not be read.
func plantName(st garden.Status) string {
	if st.PlantTypeKnown && st.PlantType.Name != "" {
		return st.PlantType.Name
	}
	return st.Plant.PlantID
}

func printStatus(w io.Writer, st garden.Status, img garden.Image) {
	if !st.Exists {
		fmt.Fprintln(w, "No plant yet. Write a thought to plant your first seed.")
		return
	}
	fmt.Fprintf(w, "%s %s\n", st.Stage.Placeholder(), plantName(st))
	fmt.Fprintf(w, "Stage:    %s\n", st.Stage.Name())
	fmt.Fprintf(w, "Progress: %s %d%% (%d/%d points)\n", progressBar(st.Progress, 20), st.Progress, st.Plant.CurrentPoints, st.Plant.MaxPoints)
	if st.Stage != core.TerminalStage {
		fmt.Fprintf(w, "Next stage in %d points\n", st.PointsToNext)
	}
	if img.URL != "" {
		fmt.Fprintf(w, "Image:    %s\n", img.URL)
	}
}

func newGardenStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the plant you are growing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.open(ctx)
			if err != nil {
				return fmt.Errorf("garden status: %w", err)
			}
			defer svc.close()

			if _, err := svc.engine.Initialize(ctx, a.cfg.User); err != nil {
				return fmt.Errorf("garden status: %w", err)
			}
			st, err := svc.engine.Status(ctx, a.cfg.User)
			if err != nil {
				return fmt.Errorf("garden status: %w", err)
			}
			resolver, err := a.imageResolver()
			if err != nil {
				return fmt.Errorf("garden status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), st, resolver.Resolve(ctx, st.PlantType, st.Plant.PlantID, st.Stage))
			return nil
		},
	}
}

func newGardenHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the plants that have bloomed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("garden history: %w", err)
			}
			defer svc.close()

			plants, err := svc.engine.Garden(cmd.Context(), a.cfg.User)
			if err != nil {
				return fmt.Errorf("garden history: %w", err)
			}
			w := cmd.OutOrStdout()
			if len(plants) == 0 {
				fmt.Fprintln(w, "Your garden is empty. Keep writing and your first plant will bloom.")
				return nil
			}
			fmt.Fprintf(w, "%-20s %-18s %-8s %s\n", "PLANT", "BLOOMED", "POINTS", "GROWN OVER")
			for _, p := range plants {
				days := int(p.CompletedAt.Sub(p.StartedAt).Hours() / 24)
				fmt.Fprintf(w, "%-20s %-18s %-8s %dd\n", p.PlantType, formatShort(p.CompletedAt), fmt.Sprintf("%d/%d", p.FinalPoints, p.MaxPoints), days)
			}
			fmt.Fprintf(w, "\n%d plant(s) bloomed\n", len(plants))
			return nil
		},
	}
}

func newGardenWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow your plant as it grows",
		Long:  "Watch prints the plant whenever it changes, including check-ins written from another terminal. Press Ctrl-C to stop.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := a.open(ctx)
			if err != nil {
				return fmt.Errorf("garden watch: %w", err)
			}
			defer svc.close()

			watcher, err := storage.NewWatcher(svc.store, svc.dbPath, a.logger)
			if err != nil {
				return fmt.Errorf("garden watch: %w", err)
			}
			return watchPlant(ctx, cmd.OutOrStdout(), watcher, svc.engine, a.cfg.User)
		},
	}
}

// watchPlant prints every snapshot from sub until ctx is done.
func watchPlant(ctx context.Context, w io.Writer, sub garden.Subscriber, engine *garden.Engine, userID string) error {
	ch, err := sub.Subscribe(ctx, userID)
	if err != nil {
		return fmt.Errorf("garden watch: %w", err)
	}
	for snap := range ch {
		st, err := engine.Describe(ctx, snap.Plant, snap.Exists)
		if err != nil {
			return fmt.Errorf("garden watch: %w", err)
		}
		fmt.Fprintf(w, "[%s] ", snap.At.Local().Format("15:04:05"))
		if !st.Exists {
			fmt.Fprintln(w, "no plant yet")
			continue
		}
		fmt.Fprintf(w, "%s %s %s %d/%d\n", st.Stage.Placeholder(), plantName(st), progressBar(st.Progress, 20), snap.Plant.CurrentPoints, snap.Plant.MaxPoints)
	}
	return nil
}

func newGardenImageCmd(a *app) *cobra.Command {
	var stageName string
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Resolve the image of your plant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.open(ctx)
			if err != nil {
				return fmt.Errorf("garden image: %w", err)
			}
			defer svc.close()

			st, err := svc.engine.Status(ctx, a.cfg.User)
			if err != nil {
				return fmt.Errorf("garden image: %w", err)
			}
			stage := st.Stage
			if stageName != "" {
				if stage, err = parseStage(stageName); err != nil {
					return fmt.Errorf("garden image: %w", err)
				}
			}

			resolver, err := a.imageResolver()
			if err != nil {
				return fmt.Errorf("garden image: %w", err)
			}
			img := resolver.Resolve(ctx, st.PlantType, st.Plant.PlantID, stage)
			w := cmd.OutOrStdout()
			if img.Fallback {
				fmt.Fprintf(w, "%s (no image for %q)\n", img.Placeholder, img.Key)
				return nil
			}
			fmt.Fprintln(w, img.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&stageName, "stage", "", "stage to resolve instead of the current one")
	return cmd
}

// parseStage matches a stage by name, case-insensitively.
func parseStage(name string) (core.Stage, error) {
	names := make([]string, 0, core.StageCount())
	for i := 0; i < core.StageCount(); i++ {
		s := core.Stage(i)
		if strings.EqualFold(s.Name(), name) {
			return s, nil
		}
		names = append(names, strings.ToLower(s.Name()))
	}
	return 0, fmt.Errorf("unknown stage %q (choose one of %s)", name, strings.Join(names, ", "))
}
