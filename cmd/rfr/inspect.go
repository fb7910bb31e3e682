package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"rfr/internal/chunk/file"
)

// newInspectCmd returns the "inspect" command: open a recording directory,
// decode every chunk file, and print a summary — total chunks, partial
// chunks, records, and the distinct callsites observed.
func newInspectCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <recording-dir>",
		Short: "Summarize a recording directory",
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

			var records, objects int
			for _, c := range chunks {
				for _, sc := range c.SeqChunks {
					records += len(sc.Records)
					objects += len(sc.Objects)
				}
			}

			cmd.Printf("recording:    %s\n", dir)
			cmd.Printf("created:      %s\n", reader.Meta.CreatedTime.Time())
			cmd.Printf("chunks:       %d\n", len(chunks))
			cmd.Printf("partial:      %d\n", len(reader.Partial))
			cmd.Printf("records:      %d\n", records)
			cmd.Printf("objects:      %d\n", objects)
			cmd.Printf("callsites:    %d\n", reader.Callsites.Len())

			for _, p := range reader.Partial {
				logger.Warn("partial chunk", "path", p.Path, "error", p.Err)
			}
			return nil
		},
	}
	return cmd
}
