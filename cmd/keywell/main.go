// Command keywell generates split-keyboard cases from a TOML
// configuration: STL meshes for the two halves and the bottom plate,
// plus the switch-matrix wiring derived from the same key layout.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/keywell/keywell"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "keywell",
		Short:         "parametric split-keyboard generator",
		Version:       keywell.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				keywell.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file (defaults to the built-in reference config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")

	root.AddCommand(generateCmd(), wiringCmd(), infoCmd(), defaultsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "keywell:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configured TOML file over the defaults, so a
// config file only needs to name what it changes.
func loadConfig() (keywell.Config, error) {
	cfg := keywell.DefaultConfig()
	if configPath == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", configPath, err)
	}
	return cfg, cfg.Validate()
}

// defaultsCmd prints the built-in reference config, the canonical
// starting point for a custom one.
func defaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "print the reference configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := toml.Marshal(keywell.DefaultConfig())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
