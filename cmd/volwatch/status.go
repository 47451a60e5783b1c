package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/volwatch/internal/adapter/output"
)

var statusOpts struct {
	timeout time.Duration
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output the current volume once in Waybar's custom module JSON format.

For a polling module:

  "custom/volume": {
    "exec": "volwatch status",
    "interval": 5,
    "return-type": "json",
    "on-click": "volwatch tui"
  }

For live updates use "volwatch watch --format waybar" without an interval.

The output includes:
  - text: Volume percentage, or "muted"
  - alt/class: Level (muted, low, medium, high), or "error"
  - tooltip: Sink name and state
  - percentage: Volume for Waybar's format-icons

Errors are reported as an "error" class status so the bar keeps working.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().DurationVar(&statusOpts.timeout, "timeout", 5*time.Second,
		"Give up if no reading arrives within this duration")
}

func runStatus(cmd *cobra.Command, args []string) error {
	writer := output.NewWriter(os.Stdout, output.NewWaybarFormatter())
	if _, err := readOnce(writer, statusOpts.timeout); err != nil {
		return output.WriteStatus(os.Stdout, output.ErrorStatus(err))
	}
	return nil
}
