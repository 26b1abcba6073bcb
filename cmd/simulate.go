package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ftl/radarview/scope"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "display synthetic tracks and ADC frames",
	Long:  "display synthetic tracks and ADC frames. The simulation can be switched off on the telnet console to wait for live data.",
	Run:   runWithCtx(runSimulate),
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	addPipelineFlags(simulateCmd)
}

func runSimulate(ctx context.Context, s scope.Scope, cmd *cobra.Command, args []string) {
	runPipeline(ctx, s, true, nil)
}
