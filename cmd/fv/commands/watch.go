package commands

import (
	"context"
	"os"
	"os/signal"

	"filevault/pkg/store"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [name]",
	Short: "Print a record (or the whole store) every time it changes",
	Long: `Subscribe to changes in the store directory. With a name, the record is
re-read and printed after every change; without one, all records are printed
as a JSON array. Stops on Ctrl-C or when a read fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := records()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		if len(args) == 1 {
			stream, err := c.Monitor(ctx, args[0])
			if err != nil {
				return err
			}
			return drain(ctx, cmd, stream)
		}
		stream, err := c.MonitorAll(ctx)
		if err != nil {
			return err
		}
		return drain(ctx, cmd, stream)
	},
}

// drain 打印流上的每个值，直到流结束
func drain[V any](ctx context.Context, cmd *cobra.Command, stream *store.Stream[V]) error {
	defer stream.Cancel()
	for v := range stream.C() {
		if err := printJSON(cmd, v); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return stream.Err()
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
