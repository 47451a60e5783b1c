package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchOpts struct {
	noReload bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the default sink's volume on every change",
	Long: `Print the default sink's volume and mute state once at startup and again
on every change, until interrupted.

Each line is written and flushed as it happens, so the output can be piped
into a status bar:

  volwatch watch --format waybar

The config file is watched while running. Output format, notification,
sound and relay settings are applied without a restart.

Exit status is 1 when the server cannot be reached or the connection is
lost, 0 on SIGINT or SIGTERM.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchOpts.noReload, "no-reload", false,
		"Do not watch the config file for changes")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, err := newOutputWriter(os.Stdout, cfg)
	if err != nil {
		return err
	}

	s := newSession(cfg, sessionOptions{Primary: writer, Writer: writer, Extras: true}, logger)
	defer func() {
		if err := s.Close(); err != nil {
			logger.Debug("error during shutdown", "error", err)
		}
	}()

	return exitStatus(s.run(ctx, !watchOpts.noReload))
}
