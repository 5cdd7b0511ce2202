package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/gridplan/app"
	"github.com/kilianp07/gridplan/config"
)

var outFormat string

var solveCmd = &cobra.Command{
	Use:   "solve <scenario-file>",
	Short: "Solve a dispatch scenario and print the plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&outFormat, "format", "f", "table", "output format: table, json or csv")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	if _, statErr := os.Stat(cfgPath); statErr == nil || cmd.Flags().Changed("config") {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	return svc.Solve(ctx, args[0], outFormat, os.Stdout)
}
