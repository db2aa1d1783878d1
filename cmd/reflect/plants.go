package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacksakers/ProjectReflect/internal/catalog"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the plants that can be grown",
	}
	cmd.AddCommand(
		newCatalogListCmd(a),
		newCatalogShowCmd(a),
		newCatalogImportCmd(a),
		newCatalogExportCmd(a),
	)
	return cmd
}

func newCatalogListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List plant types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("catalog list: %w", err)
			}
			defer svc.close()

			types, err := svc.store.PlantTypes(cmd.Context())
			if err != nil {
				return fmt.Errorf("catalog list: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-16s %-18s %-7s %-10s %-10s %s\n", "ID", "NAME", "POINTS", "RARITY", "DIFFICULTY", "ACTIVE")
			for _, pt := range types {
				active := "yes"
				if !pt.IsActive {
					active = "no"
				}
				fmt.Fprintf(w, "%-16s %-18s %-7d %-10s %-10s %s\n", pt.ID, pt.Name, pt.PointsToBloom, pt.Rarity, pt.Difficulty, active)
			}
			return nil
		},
	}
}

func newCatalogShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id or name>",
		Short: "Show one plant type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("catalog show: %w", err)
			}
			defer svc.close()

			types, err := svc.store.PlantTypes(cmd.Context())
			if err != nil {
				return fmt.Errorf("catalog show: %w", err)
			}
			query := strings.Join(args, " ")
			pt, suggestions, ok := catalog.Find(types, query)
			if !ok {
				if len(suggestions) > 0 {
					return fmt.Errorf("catalog show: no plant %q (did you mean %s?)", query, strings.Join(suggestions, " or "))
				}
				return fmt.Errorf("catalog show: no plant %q", query)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%s)\n", pt.Name, pt.ID)
			if pt.Description != "" {
				fmt.Fprintln(w, pt.Description)
			}
			fmt.Fprintf(w, "Points to bloom: %d\n", pt.PointsToBloom)
			if pt.Rarity != "" {
				fmt.Fprintf(w, "Rarity:          %s\n", pt.Rarity)
			}
			if pt.Difficulty != "" {
				fmt.Fprintf(w, "Difficulty:      %s\n", pt.Difficulty)
			}
			fmt.Fprintf(w, "Active:          %t\n", pt.IsActive)
			return nil
		},
	}
}

func newCatalogImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.toml>",
		Short: "Add or replace plant types from a TOML catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := catalog.Load(args[0])
			if err != nil {
				return fmt.Errorf("catalog import: %w", err)
			}

			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("catalog import: %w", err)
			}
			defer svc.close()

			if err := svc.store.UpsertPlantTypes(cmd.Context(), types); err != nil {
				return fmt.Errorf("catalog import: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d plant type(s)\n", len(types))
			return nil
		},
	}
}

func newCatalogExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.toml>",
		Short: "Write the catalog to a TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("catalog export: %w", err)
			}
			defer svc.close()

			types, err := svc.store.PlantTypes(cmd.Context())
			if err != nil {
				return fmt.Errorf("catalog export: %w", err)
			}
			if err := catalog.Save(args[0], types); err != nil {
				return fmt.Errorf("catalog export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d plant type(s) to %s\n", len(types), args[0])
			return nil
		},
	}
}
