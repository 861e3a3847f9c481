// Package main is the entry point for the cwpdf terminal shell. It wires
// flags and the optional YAML config file into the app, then hands the
// terminal to the UI until the user quits.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cwpdf/internal/app"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cwpdf",
	Short: "Convert ConnectWise JSON exports to PDF files",
	Long: `cwpdf is a terminal shell around a bundled Python conversion script. Point
it at a ConnectWise JSON export and an output folder; it finds a Python
interpreter with reportlab installed, runs the conversion, and streams the
script's output live into a log pane.

The input and output can be typed, passed as flags, or dropped onto the
window in terminals that paste file paths on drag-and-drop.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.DefaultConfig()

		cfgPath, _ := cmd.Flags().GetString("config")
		explicit := cfgPath != ""
		if !explicit {
			cfgPath = app.DefaultConfigPath()
		}
		if err := cfg.LoadFile(cfgPath, explicit); err != nil {
			return err
		}

		// Flags win over the config file.
		if v, _ := cmd.Flags().GetString("input"); v != "" {
			cfg.Input = v
		}
		if v, _ := cmd.Flags().GetString("output"); v != "" {
			cfg.OutputDir = v
		}
		if v, _ := cmd.Flags().GetStringSlice("interpreter"); len(v) > 0 {
			cfg.Interpreters = v
		}
		if v, _ := cmd.Flags().GetString("log"); v != "" {
			cfg.LogPath = v
		}
		if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
			cfg.DataDir = v
		}
		if v, _ := cmd.Flags().GetString("theme"); v != "" {
			cfg.UI.StyleVariant = v
		}
		if v, _ := cmd.Flags().GetBool("ascii"); v {
			cfg.ASCIIOnly = true
		}
		if v, _ := cmd.Flags().GetBool("debug"); v {
			cfg.Debug = true
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Run(context.Background())
	},
}

func init() {
	rootCmd.Flags().String("config", "", "config file (default: ~/.config/cwpdf/config.yaml)")
	rootCmd.Flags().String("input", "", "pre-fill the input export JSON path")
	rootCmd.Flags().String("output", "", "pre-fill the output folder")
	rootCmd.Flags().StringSlice("interpreter", nil, "interpreter candidates to probe, in order")
	rootCmd.Flags().String("log", "", "write JSON telemetry to this file")
	rootCmd.Flags().String("data-dir", "", "state directory (default: ~/.local/share/cwpdf)")
	rootCmd.Flags().String("theme", "", "ui theme: midnight, paper or retro")
	rootCmd.Flags().Bool("ascii", false, "draw panels with ASCII borders only")
	rootCmd.Flags().Bool("debug", false, "verbose ui diagnostics on stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cwpdf:", err)
		os.Exit(1)
	}
}
