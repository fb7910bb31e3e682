package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"rfr/internal/chunk"
	"rfr/internal/chunk/file"
)

// newTailCmd returns the "tail" command: watch a recording directory being
// written by a live producer and print each chunk as it completes.
func newTailCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail <recording-dir>",
		Short: "Follow a recording directory as new chunks are written",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			watcher, err := file.NewWatcher(dir, logger)
			if err != nil {
				return fmt.Errorf("open watcher: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			err = watcher.Run(ctx, func(c chunk.Chunk) {
				var records int
				for _, sc := range c.SeqChunks {
					records += len(sc.Records)
				}
				cmd.Printf("chunk path=%s sequences=%d records=%d\n",
					c.Header.Interval.Path(), len(c.SeqChunks), records)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	return cmd
}
