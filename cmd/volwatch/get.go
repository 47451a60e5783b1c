package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/volwatch/internal/volume"
	"github.com/jmylchreest/volwatch/internal/watcher"
)

var getOpts struct {
	timeout time.Duration
}

// errTimeout is returned when no reading arrives before --timeout.
var errTimeout = errors.New("timed out waiting for the default sink")

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current volume once and exit",
	Long: `Print the default sink's current volume and mute state once and exit.

The output format follows --format and the config file:

  volwatch get
  volwatch get --format json
  volwatch get --template '{{.Percent}}%'`,
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().DurationVar(&getOpts.timeout, "timeout", 5*time.Second,
		"Give up if no reading arrives within this duration")
}

func runGet(cmd *cobra.Command, args []string) error {
	writer, err := newOutputWriter(os.Stdout, cfg)
	if err != nil {
		return err
	}
	return exitStatus(readOnce(writer, getOpts.timeout))
}

// readOnce runs the watcher in Once mode. It reports errTimeout when the
// deadline passes before a reading.
func readOnce(sink watcher.Sink, timeout time.Duration) (int, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var got bool
	primary := watcher.SinkFunc(func(u volume.Update) error {
		got = true
		return sink.Emit(u)
	})

	s := newSession(cfg, sessionOptions{Primary: primary, Once: true}, logger)
	status, err := s.run(ctx, false)
	if status == 0 && !got && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s", errTimeout, timeout)
		logger.Error("no reading", "error", err)
		return 1, err
	}
	return status, err
}
