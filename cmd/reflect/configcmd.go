package main

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/jacksakers/ProjectReflect/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the config file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg := a.cfg
				if cfg.Assets.SigningKey != "" {
					cfg.Assets.SigningKey = "********"
				}
				data, err := toml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("config show: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			},
		},
		&cobra.Command{
			Use:         "init",
			Short:       "Write the current configuration to the config file",
			Args:        cobra.NoArgs,
			Annotations: map[string]string{annotationCreatesConfig: "true"},
			RunE: func(cmd *cobra.Command, _ []string) error {
				path := a.cfgFile
				if path == "" {
					p, err := config.ConfigPath()
					if err != nil {
						return fmt.Errorf("config init: %w", err)
					}
					path = p
				}
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config init: %s already exists", path)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("config init: %w", err)
				}
				if err := config.Save(path, a.cfg); err != nil {
					return fmt.Errorf("config init: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				return nil
			},
		},
	)
	return cmd
}
