package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/prayerkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/config"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// newAppFn builds the App for a command; tests replace it.
var newAppFn = func(ctx context.Context) (*App, error) {
	return NewApp(ctx, config.LoadConfig())
}

// Run starts the interactive session and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	var statusFn func() string
	if isTerminal(int(os.Stdin.Fd())) {
		buildinfo.PrintBuildData(a.out)
		fmt.Fprintln(a.out, "prayerkeeper (type 'help' for commands)")
		statusFn = func() string { return a.promptStatus(ctx) }
		_ = a.Today(ctx)
	} else {
		a.backup.TriggerInBackground(ctx)
	}

	runREPL(ctx, a, statusFn, bufio.NewScanner(a.reader))
}

// withApp opens the App for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *App) error) error {
	ctx := cmd.Context()
	a, err := newAppFn(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	a.out = cmd.OutOrStdout()
	return fn(ctx, a)
}

// NewRootCommand builds the command tree. Without a subcommand the
// interactive session starts.
//
// The persistent flags mirror the ones config.LoadConfig reads from the
// raw command line; they are declared here so cobra accepts them.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "prayerkeeper",
		Short:         "Track daily prayers and back them up to the cloud",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				a.Run(ctx)
				return nil
			})
		},
	}
	root.FParseErrWhitelist.UnknownFlags = true

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "path to JSON config file")
	pf.StringP("data-dir", "d", "", "data directory")
	pf.StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	pf.StringP("backend", "b", "", "backup backend (http or s3)")
	pf.IntP("timeout", "t", 0, "sync timeout in seconds")

	root.AddCommand(newSyncCommand(), newStatusCommand(), newStatsCommand(), newRestoreCommand())
	return root
}

func newSyncCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Back up to the cloud; without --force only when enough changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				trigger := models.TriggerAutomatic
				if force {
					trigger = models.TriggerForced
				}
				return a.runBackup(ctx, trigger)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "back up regardless of the number of changes")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sign-in and backup state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return a.Status(ctx)
			})
		},
	}
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "stats [week|month]",
		Short:     "Show prayer statistics",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(models.RangeWeek), string(models.RangeMonth)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return a.Stats(ctx, args)
			})
		},
	}
}

func newRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore records from the cloud backup; backup values win",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				if !a.isSignedIn(ctx) {
					return fmt.Errorf("sign in first")
				}
				return a.restore(ctx)
			})
		},
	}
}
