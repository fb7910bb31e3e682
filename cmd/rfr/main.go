// Command rfr inspects and tails RFR recording directories.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"rfr/internal/logging"
)

var version = "dev"

func main() {
	level := new(slog.LevelVar)
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelDebug)
	logger := slog.New(filterHandler)

	rootCmd := &cobra.Command{
		Use:   "rfr",
		Short: "Inspect and tail RFR recording directories",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return err
			}
			return level.UnmarshalText([]byte(s))
		},
	}

	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}

	rootCmd.AddCommand(
		newInspectCmd(logger),
		newTailCmd(logger),
		newDumpCmd(logger),
		versionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
