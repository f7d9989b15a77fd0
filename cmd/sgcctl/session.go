package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sgc-analytics/internal/logger"
	"sgc-analytics/internal/model"
	"sgc-analytics/internal/session"
	"sgc-analytics/internal/store"
)

// withSessions runs fn against the configured store and closes it after.
func (a *app) withSessions(cmd *cobra.Command, fn func(ctx context.Context, st *session.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sessions, err := store.Open(ctx, a.cfg, nil)
	if err != nil {
		return err
	}
	err = fn(ctx, sessions.Store())
	if cerr := sessions.Close(); err == nil {
		err = cerr
	}
	return err
}

func sessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Save, list, load and delete chart sessions",
	}
	cmd.AddCommand(sessionSaveCmd(a), sessionListCmd(a), sessionLoadCmd(a), sessionDeleteCmd(a))
	return cmd
}

func sessionSaveCmd(a *app) *cobra.Command {
	var (
		vf         viewFlags
		name       string
		stable     bool
		comparison bool
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the chart settings and viewport under a name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vs, err := vf.state(cmd)
			if err != nil {
				return err
			}
			v := session.View{
				Settings:       a.chart.Settings,
				Viewport:       vs,
				StableMode:     stable,
				ComparisonMode: comparison,
			}
			return a.withSessions(cmd, func(ctx context.Context, st *session.Store) error {
				s, err := st.Save(logger.WithSessionID(ctx, logger.GenerateSessionID(name, time.Now())), name, v)
				if err != nil {
					return err
				}
				a.log.Info("session saved", "id", s.ID, "name", s.Name, "backend", a.cfg.SessionBackend)
				return writeJSON(cmd.OutOrStdout(), s)
			})
		},
	}
	vf.bind(cmd)
	cmd.Flags().StringVar(&name, "name", "", "session name")
	cmd.Flags().BoolVar(&stable, "stable", false, "save in stable mode")
	cmd.Flags().BoolVar(&comparison, "comparison", false, "save in comparison mode")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func sessionListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSessions(cmd, func(ctx context.Context, st *session.Store) error {
				metas, err := st.List(ctx)
				if err != nil {
					return err
				}
				if metas == nil {
					metas = []model.SessionMeta{}
				}
				return writeJSON(cmd.OutOrStdout(), metas)
			})
		},
	}
}

func sessionLoadCmd(a *app) *cobra.Command {
	var renderFrame bool
	cmd := &cobra.Command{
		Use:   "load ID",
		Short: "Print a saved session, or render the input under it with --render",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSessions(cmd, func(ctx context.Context, st *session.Store) error {
				s, err := st.Load(ctx, args[0])
				if err != nil {
					return err
				}
				if !renderFrame {
					return writeJSON(cmd.OutOrStdout(), s)
				}

				v := s.Apply()
				samples, err := a.samples(cmd)
				if err != nil {
					return err
				}
				a.chart.Settings = v.Settings
				f, err := a.frame(samples, v.Viewport)
				if err != nil {
					return fmt.Errorf("render session %s: %w", s.ID, err)
				}
				return writeJSON(cmd.OutOrStdout(), f)
			})
		},
	}
	cmd.Flags().BoolVar(&renderFrame, "render", false, "render the input samples with the session's settings and viewport")
	return cmd
}

func sessionDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSessions(cmd, func(ctx context.Context, st *session.Store) error {
				if err := st.Delete(ctx, args[0]); err != nil {
					return err
				}
				a.log.Info("session deleted", "id", args[0])
				return nil
			})
		},
	}
}
