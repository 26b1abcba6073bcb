package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/ftl/radarview/rx"
	"github.com/ftl/radarview/scope"
)

var wsFlags = struct {
	url string
}{}

var wsCmd = &cobra.Command{
	Use:   "ws",
	Short: "display the tracks and ADC frames received from a websocket feed",
	Run:   runWithCtx(runWebsocket),
}

func init() {
	rootCmd.AddCommand(wsCmd)
	addPipelineFlags(wsCmd)

	wsCmd.Flags().StringVar(&wsFlags.url, "url", envString("RADARVIEW_WS_URL", "ws://localhost:8080/radar"), "the URL of the websocket feed")
}

func runWebsocket(ctx context.Context, s scope.Scope, cmd *cobra.Command, args []string) {
	runPipeline(ctx, s, false, func(ctx context.Context, handler rx.PayloadHandler) error {
		feed, err := rx.DialFeed(ctx, wsFlags.url, handler)
		if err != nil {
			return err
		}
		log.Printf("connected to %s", feed.URL())
		return feed.Run(ctx)
	})
}
