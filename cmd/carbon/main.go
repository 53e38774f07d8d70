// Command carbon converts JSON documents into carbon archives and
// inspects existing archives.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "carbon",
	Short: "Columnar binary archives for JSON documents",
	Long: `carbon converts JSON documents into read-optimized, self-describing
binary archives and provides tooling to inspect, query and convert
archives back to JSON.`,
	SilenceUsage: true,
}

// buildLogger creates the logger handed into the library. Quiet by
// default; --verbose enables debug output.
func buildLogger() (*zap.SugaredLogger, error) {
	if !verbose {
		return zap.NewNop().Sugar(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Sugar(), nil
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(convertCmd, inspectCmd, toJSONCmd, stringsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
