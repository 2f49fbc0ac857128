package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/conveyor/internal/cli"
	"github.com/aretw0/conveyor/internal/logging"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <pipeline.yaml>",
	Short: "Run a pipeline of actions to completion",
	Long:  `Loads a YAML pipeline definition and executes its steps strictly in order on a fresh conveyor, waiting for the last action to settle.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		statusAddr, _ := cmd.Flags().GetString("status-addr")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		env := &cli.Env{Out: os.Stdout, Logger: logging.New(level)}
		opts := cli.RunOptions{StatusAddr: statusAddr, Timeout: timeout}

		if err := cli.RunPipeline(args[0], env, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("status-addr", "", "Serve /healthz, /status and /metrics on this address during the run")
	runCmd.Flags().Duration("timeout", 30*time.Second, "Abort the run after this duration (0 = no bound)")
}
