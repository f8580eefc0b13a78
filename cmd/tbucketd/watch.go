package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relaygate/tbucket/internal/app"
	"github.com/relaygate/tbucket/internal/live"
)

func newWatchCommand(a *app.App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "stream Success/Failure/Drained events from a running tbucketd serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(a, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:9090", "host:port of a running tbucketd serve")
	return cmd
}

func runWatch(a *app.App, addr string) error {
	client, err := live.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	a.Logger().Info("watch: connected", zap.String("addr", addr))

	return client.Watch(a.Context(), func(ev live.WatchEvent) error {
		switch ev.Kind {
		case "success":
			color.Green("[success] %s", ev.Payload)
		case "failure":
			color.Red("[failure] %s", ev.Payload)
		case "drained":
			color.Yellow("[drained] %s", ev.Payload)
		default:
			fmt.Printf("[%s] %s\n", ev.Kind, ev.Payload)
		}
		return nil
	})
}
