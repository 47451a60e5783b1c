package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/volwatch/internal/tui"
	"github.com/jmylchreest/volwatch/internal/watcher"
)

var tuiOpts struct {
	clipboard string
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show a live volume meter",
	Long: `Show the default sink's volume as a live meter with recent changes.

Notification, sound, relay and metrics sinks from the config file stay
active while the TUI runs.

Key bindings:
  c           Copy the current reading to the clipboard
  ?           Show help
  q, esc      Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().StringVar(&tuiOpts.clipboard, "clipboard", "",
		"Clipboard command (default: wl-copy, xclip or xsel)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Log lines would tear the alternate screen.
	if !globalOpts.verbose {
		setupLogger(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status, err := tui.Run(ctx, tui.RunOptions{
		Clipboard: tuiOpts.clipboard,
		Start: func(ctx context.Context, sink watcher.Sink) (int, error) {
			s := newSession(cfg, sessionOptions{Primary: sink, Extras: true}, logger)
			defer func() {
				if err := s.Close(); err != nil {
					logger.Debug("error during shutdown", "error", err)
				}
			}()
			return s.run(ctx, true)
		},
	})
	return exitStatus(status, err)
}
