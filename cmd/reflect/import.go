package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacksakers/ProjectReflect/internal/storage"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <entries|capsules> <file>",
		Short: "Import exported journal documents (one JSON document per line)",
		Long: `Import reads exported documents, one JSON object per line. Both the old
single-mood layout and the current list layout are accepted. Documents
already present are skipped, so an import can be re-run safely.
Use "-" to read from stdin.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"entries", "capsules"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, path := args[0], args[1]
			if kind != "entries" && kind != "capsules" {
				return fmt.Errorf("import: unknown kind %q (want entries or capsules)", kind)
			}

			var r io.Reader = cmd.InOrStdin()
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("import: %w", err)
				}
				defer f.Close()
				r = f
			}

			svc, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			defer svc.close()

			var res storage.ImportResult
			if kind == "entries" {
				res, err = svc.store.ImportEntries(cmd.Context(), r, a.cfg.User)
			} else {
				res, err = svc.store.ImportCapsules(cmd.Context(), r, a.cfg.User)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d %s, skipped %d already present\n", res.Imported, kind, res.Skipped)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			return nil
		},
	}
}
