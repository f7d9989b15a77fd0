package main

import (
	"github.com/spf13/cobra"

	sqlitestore "sgc-analytics/internal/store/sqlite"
)

func archiveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage the SQLite sample archive read by --archive and cmd/replay",
	}
	cmd.AddCommand(archiveImportCmd(a))
	return cmd
}

type importReport struct {
	Path     string `json:"path"`
	Imported int    `json:"imported"`
	LastTime *int64 `json:"lastTime"`
}

func archiveImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Archive the --input feed; times already archived are kept",
		RunE: func(cmd *cobra.Command, _ []string) error {
			samples, err := a.feed(cmd)
			if err != nil {
				return err
			}

			path := a.archive
			if path == "" {
				path = a.cfg.SQLitePath
			}
			arch, err := sqlitestore.Open(path)
			if err != nil {
				return err
			}
			defer arch.Close()

			ctx := cmd.Context()
			if err := arch.SaveSamples(ctx, samples); err != nil {
				return err
			}
			rep := importReport{Path: path, Imported: len(samples)}
			if last, ok, err := arch.LastTime(ctx); err != nil {
				return err
			} else if ok {
				rep.LastTime = &last
			}
			a.log.Info("samples archived", "path", path, "count", len(samples))
			return writeJSON(cmd.OutOrStdout(), rep)
		},
	}
}
