package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/guiyumin/transmote/internal/config"
	"github.com/guiyumin/transmote/internal/engine"
	"github.com/guiyumin/transmote/internal/transmission"
)

var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "List configured endpoints and probe their daemons",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		bold := color.New(color.Bold)
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		for _, ep := range cfg.Endpoints {
			scheme := "http"
			if ep.HTTPS {
				scheme = "https"
			}
			bold.Printf("%s", ep.Name)
			fmt.Printf("  %s://%s:%d", scheme, ep.Host, ep.Port)
			if ep.Name == config.DefaultEndpointName {
				fmt.Printf("  (default)")
			}
			fmt.Println()

			client := transmission.New(transmission.Config{
				Host:     ep.Host,
				Port:     ep.Port,
				Username: ep.Username,
				Password: ep.Password,
				HTTPS:    ep.HTTPS,
			})
			eng := engine.New(ep.Name, client)

			torrents, err := eng.List(ctx)
			if err != nil {
				red.Printf("  unreachable: %v\n", err)
				continue
			}
			green.Printf("  ok")
			fmt.Printf("  %d torrent(s)\n", len(torrents))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(endpointsCmd)
}
