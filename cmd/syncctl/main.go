// Command syncctl is a thin demonstration harness over the synchronization
// control core: it exposes the control plane's operations (bind/unbind
// server and root, pending-work queries, the stop signal, and the
// children-state aggregator) as cobra subcommands, the way the teacher's
// own CLI binary wraps its manager package.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/syncctl/internal/config"
	"github.com/cuemby/syncctl/internal/control"
	"github.com/cuemby/syncctl/internal/synclog"
)

var (
	// Version is set via ldflags during build.
	Version = "dev"
)

var cfgPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "syncctl",
	Short:   "syncctl - control plane for a bidirectional file synchronization agent",
	Long:    `syncctl drives the synchronization control core: binding local folders to remote servers, registering synced roots, and inspecting pending work.`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to syncctl config file (defaults to the standard per-user location)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "output logs in JSON format")
	rootCmd.PersistentFlags().String("config-folder", "", "override the control core's database/config folder")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(bindServerCmd)
	rootCmd.AddCommand(unbindServerCmd)
	rootCmd.AddCommand(bindRootCmd)
	rootCmd.AddCommand(unbindRootCmd)
	rootCmd.AddCommand(listPendingCmd)
	rootCmd.AddCommand(childrenCmd)
	rootCmd.AddCommand(stopCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	synclog.Init(synclog.Config{
		Level:      synclog.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// loadConfig resolves the effective Config for this invocation: the
// --config file if given, otherwise Default, with --config-folder
// overriding either.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return config.Config{}, err
	}

	if folder, _ := cmd.Flags().GetString("config-folder"); folder != "" {
		cfg.ConfigFolder = folder
	}
	return cfg, nil
}

// newController opens a Controller against the resolved config. syncctl
// itself only drives the control plane; it does not serve /metrics.
func newController(cmd *cobra.Command) (*control.Controller, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return control.New(control.Config{
		ConfigFolder: cfg.ConfigFolder,
		DebugLogSQL:  cfg.DebugLogSQL,
	})
}
