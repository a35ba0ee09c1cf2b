package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"focustrack/internal/bootstrap"
	"focustrack/internal/modules/session/domain"
	"focustrack/internal/modules/session/dto"
	"focustrack/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "focustrack",
		Short:         "Concentration session tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data", ".", "data directory")

	root.AddCommand(newStartCmd(&dataDir))
	root.AddCommand(newPauseCmd(&dataDir))
	root.AddCommand(newResumeCmd(&dataDir))
	root.AddCommand(newFinishLaterCmd(&dataDir))
	root.AddCommand(newCompleteCmd(&dataDir))
	root.AddCommand(newStatusCmd(&dataDir))
	root.AddCommand(newListCmd(&dataDir))
	root.AddCommand(newWatchCmd(&dataDir))
	root.AddCommand(newQueueCmd(&dataDir))
	return root
}

func loadApp(ctx context.Context, dataDir string) (*bootstrap.App, error) {
	cfg, err := config.New(dataDir)
	if err != nil {
		return nil, err
	}
	app, err := bootstrap.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func printSession(cmd *cobra.Command, out dto.SessionOutput) {
	state := "paused"
	if out.Running {
		state = "running"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s (%s)\n", out.Clock, state, out.Title, out.SessionID)
}

func newStartCmd(dataDir *string) *cobra.Command {
	var description, kind, eventID, methodID, albumID string

	cmd := &cobra.Command{
		Use:   "start <title>",
		Short: "Start a concentration session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.SessionCLI.Start(ctx, args[0], description, kind, eventID, methodID, albumID)
			if err != nil {
				return err
			}
			printSession(cmd, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "session description")
	cmd.Flags().StringVar(&kind, "kind", string(domain.KindRapid), "session kind: rapid|scheduled")
	cmd.Flags().StringVar(&eventID, "event", "", "calendar event id (scheduled sessions)")
	cmd.Flags().StringVar(&methodID, "method", "", "method id")
	cmd.Flags().StringVar(&albumID, "album", "", "album id")
	return cmd
}

func newPauseCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the active session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRestoredSession(cmd, dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Pause(ctx)
				if err != nil {
					return err
				}
				printSession(cmd, out)
				return nil
			})
		},
	}
}

func newResumeCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume the active session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRestoredSession(cmd, dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Resume(ctx)
				if err != nil {
					return err
				}
				printSession(cmd, out)
				return nil
			})
		},
	}
}

func newFinishLaterCmd(dataDir *string) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "finish-later",
		Short: "Park the session to continue another day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRestoredSession(cmd, dataDir, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.SessionCLI.FinishLater(ctx, notes); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "session parked, progress saved")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "session notes")
	return cmd
}

func newCompleteCmd(dataDir *string) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Complete the active session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRestoredSession(cmd, dataDir, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.SessionCLI.Complete(ctx, notes); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "session completed")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "session notes")
	return cmd
}

func newStatusCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active session and sync state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			restored, err := app.SessionCLI.Restore(ctx)
			if err != nil {
				return err
			}
			if !restored.Restored {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active session")
			} else {
				printSession(cmd, restored.Session)
			}

			status, err := app.Queue.Status(ctx)
			if err != nil {
				return err
			}
			net := "online"
			if !app.Monitor.Online() {
				net = "offline"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s, %d queued, %d dropped\n", net, status.Pending, status.Dropped)
			return nil
		},
	}
}

func newListCmd(dataDir *string) *cobra.Command {
	var estado, from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List session history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			fromAt, err := parseDay(from)
			if err != nil {
				return err
			}
			toAt, err := parseDay(to)
			if err != nil {
				return err
			}
			rows, err := app.SessionCLI.List(ctx, estado, fromAt, toAt)
			if err != nil {
				return err
			}
			for _, row := range rows {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s  %-8s  %s\n",
					row.StartedAt.Format("2006-01-02 15:04"),
					row.Elapsed.Round(time.Second),
					row.Estado,
					row.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&estado, "estado", "", "filter: pendiente|completada")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	return cmd
}

func newWatchCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Full-screen session timer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			restored, err := app.SessionCLI.Restore(ctx)
			if err != nil {
				return err
			}
			if restored.Restored && restored.Prompt {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "resuming %q at %s\n",
					restored.Session.Title, restored.Session.Clock)
			}
			return bootstrap.RunTimer(app)
		},
	}
}

func newQueueCmd(dataDir *string) *cobra.Command {
	queue := &cobra.Command{Use: "queue", Short: "Offline queue commands"}

	queue.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show pending offline actions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			actions, err := app.Queue.Pending(ctx)
			if err != nil {
				return err
			}
			if len(actions) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
				return nil
			}
			for _, a := range actions {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %-13s  session=%s retries=%d/%d\n",
					a.CreatedAt.Format(time.RFC3339), a.Kind, a.SessionID, a.RetryCount, a.MaxRetries)
			}
			return nil
		},
	})

	queue.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Replay pending offline actions now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			if err := app.Queue.Drain(ctx); err != nil {
				return err
			}
			status, err := app.Queue.Status(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d still pending, %d dropped\n", status.Pending, status.Dropped)
			return nil
		},
	})
	return queue
}

// withRestoredSession rehydrates the persisted session before running an
// operation: every invocation is a fresh process, unlike a long-lived tab.
func withRestoredSession(cmd *cobra.Command, dataDir *string, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := context.Background()
	app, err := loadApp(ctx, *dataDir)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	if _, err := app.SessionCLI.Restore(ctx); err != nil {
		return err
	}
	return fn(ctx, app)
}

func parseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	at, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return at, nil
}
