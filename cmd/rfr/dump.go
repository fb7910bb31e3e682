package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"rfr/internal/chunk/file"
)

// newDumpCmd returns the "dump" command: decode every chunk file in a
// recording directory and print each record's sequence, timestamp, and
// discriminant tag.
func newDumpCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <recording-dir>",
		Short: "Print every record in a recording directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			reader, err := file.OpenRecording(dir)
			if err != nil {
				return fmt.Errorf("open recording: %w", err)
			}
			chunks, err := reader.All()
			if err != nil {
				return fmt.Errorf("read chunks: %w", err)
			}
			for _, c := range chunks {
				for _, sc := range c.SeqChunks {
					for _, r := range sc.Records {
						cmd.Printf("seq=%d ts=%d tag=%d\n", sc.Header.SeqID, r.Meta.Timestamp, r.Data.Tag)
					}
				}
			}
			for _, p := range reader.Partial {
				logger.Warn("partial chunk", "path", p.Path, "error", p.Err)
			}
			return nil
		},
	}
	return cmd
}
