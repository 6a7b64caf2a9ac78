package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newBackupCmd(app *App) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write all portfolios and their history to a JSONL file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			path := strings.TrimSpace(to)
			if path == "" {
				path = filepath.Join(s.Dir, "backups", fmt.Sprintf("folio_%s.jsonl", app.now().UTC().Format("20060102_150405")))
			}
			st, err := s.WriteBackup(cmd.Context(), path)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   map[string]any{"path": path, "portfolios": st.Portfolios, "events": st.Events},
				"_hints": []string{"folio restore " + path},
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Backup file (default: <dir>/backups/folio_<timestamp>.jsonl)")
	return cmd
}

func newRestoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Load a backup; stored portfolios with the same login are replaced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := s.RestoreBackup(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": st})
		},
	}
}
