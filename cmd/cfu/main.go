package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/config"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/debug"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/telemetry"
)

var (
	spaceFlag       string
	environmentFlag string
	configPath      string
	jsonOutput      bool
	verboseFlag     bool // Enable verbose/debug output
	quietFlag       bool // Suppress non-essential output

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

const (
	GroupContent = "content"
	GroupSetup   = "setup"
)

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupContent, Title: "Working With Content:"},
		&cobra.Group{ID: GroupSetup, Title: "Setup & Configuration:"},
	)

	rootCmd.PersistentFlags().StringVar(&spaceFlag, "space", "", "Space name or id from config.yaml (default: $CFU_SPACE or the only configured space)")
	rootCmd.PersistentFlags().StringVarP(&environmentFlag, "environment", "e", "", "Environment id (default: master)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $CFU_CONFIG_DIR/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

var rootCmd = &cobra.Command{
	Use:   "cfu",
	Short: "cfu - Contentful utility suite",
	Long:  `Utilities for moving content between Contentful environments: resolve everything an entry links to, export it, and search entries.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("cfu version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initConfig()
		setupSignalContext()
		applyVerbosityFlags()
		applyViperOverrides(cmd)

		if err := telemetry.Init(rootCtx, "cfu", Version); err != nil {
			WarnError("%v", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)

		if rootCancel != nil {
			rootCancel()
		}
	},
}

func initConfig() {
	path := configPath
	if path == "" {
		path = os.Getenv("CFU_CONFIG")
	}
	if err := config.InitializeWithFile(path); err != nil {
		if path == "" {
			path = filepath.Join(config.ConfigDir(), "config.yaml")
		}
		FatalErrorWithHint(err.Error(), "Fix the YAML in "+path)
	}
}

func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func getRootContext() context.Context {
	if rootCtx == nil {
		return context.Background()
	}
	return rootCtx
}

// applyVerbosityFlags propagates --verbose and --quiet flags to the debug
// package so all subsequent log output respects the user's preference.
func applyVerbosityFlags() {
	debug.SetVerbose(verboseFlag)
	debug.SetQuiet(quietFlag)
}

// applyViperOverrides lets flags win over config.yaml and CFU_* variables,
// and fills unset flags from config.
func applyViperOverrides(cmd *cobra.Command) {
	if cmd.Flags().Changed("json") {
		config.Set("json", jsonOutput)
	} else {
		jsonOutput = config.GetBool("json")
	}
	if cmd.Flags().Changed("space") {
		config.Set("space", spaceFlag)
	}
	if cmd.Flags().Changed("environment") {
		config.Set("environment", environmentFlag)
	} else {
		environmentFlag = config.GetString("environment")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
