// Package main provides the CLI entrypoint for volwatch.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/volwatch/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		server     string
		format     string
		template   string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "volwatch",
	Short: "Report the default PulseAudio sink's volume as it changes",
	Long: `volwatch connects to a PulseAudio (or PipeWire-Pulse) server and prints
the volume and mute state of the default output sink, then one line for
every change until interrupted.

The default sink is followed when it changes. Optional sinks can show an
on-screen display, play a feedback sound, forward updates over a websocket
and export Prometheus metrics; see the config file.

Running volwatch without a subcommand is the same as "volwatch watch".`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger(os.Stderr)

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return applyFlags(cmd, cfg)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd, args)
	},
}

// exitError carries a non-zero exit status out of a command. The cause has
// already been logged.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// exitStatus converts a watcher result into a command error.
func exitStatus(status int, err error) error {
	if status == 0 {
		return nil
	}
	return &exitError{code: status, err: err}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/volwatch/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.server, "server", "s", "",
		"PulseAudio server string (default: $PULSE_SERVER or the runtime socket)")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.format, "format", "f", "",
		"Output format: plain, json, waybar, yaml, template")
	rootCmd.PersistentFlags().StringVar(&globalOpts.template, "template", "",
		"Go template for --format template")
}

// applyFlags overrides config values with explicitly set flags.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("server") {
		c.Server.Address = globalOpts.server
	}
	if flags.Changed("template") {
		c.Output.Template = globalOpts.template
		if !flags.Changed("format") {
			c.Output.Format = "template"
		}
	}
	if flags.Changed("format") {
		c.Output.Format = globalOpts.format
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// setupLogger configures the global slog logger.
func setupLogger(w io.Writer) {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(w, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}
