// Command vaultctl is a smoke-test and demo harness for the facade: it
// drives registration, record put/get/delete, and nonce purging against
// a data directory on disk, the way an integration test would, without
// needing the out-of-scope wire transport or client library attached.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultkv/server/pkg/facade"
	"github.com/vaultkv/server/pkg/log"
)

var (
	// Version information (set via ldflags during build).
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "vaultctl",
	Short:   "vaultctl drives a vaultkv data directory directly, for demos and smoke tests",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("vaultctl version %s\ncommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("data-dir", "./vaultkv-data", "Data directory the facade opens")
	rootCmd.PersistentFlags().String("config", "", "YAML file overlaying facade tuning knobs (nonceTTL, requestFreshnessWindow, purgeSampleDenominator)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(unregisterCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearNoncesCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func dataDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("data-dir")
	return dir
}

// facadeConfig assembles the facade.Config a subcommand should open with:
// --data-dir, overlaid by --config's YAML file, if given.
func facadeConfig(cmd *cobra.Command) (facade.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	return loadFacadeConfig(configPath, dataDir(cmd))
}
