package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/pkg/adapters/process"
)

var validateCmd = &cobra.Command{
	Use:   "validate [manifest]",
	Short: "Check a manifest for consistency",
	Long:  `Loads an agents manifest, validates every graph entry, and optionally checks a run config for shape errors.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Manifest is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "Run config to validate alongside the manifest (JSON inline or path)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	manifestPath, err := resolveManifestPath(args)
	if err != nil {
		return err
	}

	// LoadManifest checks every entry against the graph schema.
	manifest, err := process.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	if len(manifest.Names()) == 0 {
		return fmt.Errorf("manifest %s declares no graphs", manifestPath)
	}
	for _, name := range manifest.Names() {
		cfg, err := manifest.Resolve(name)
		if err != nil {
			return err
		}
		if cfg.Command == "" {
			return fmt.Errorf("graph %q has an empty command", name)
		}
	}

	if raw, _ := cmd.Flags().GetString("config"); raw != "" {
		if _, err := config.LoadRunConfig(raw); err != nil {
			return err
		}
	}

	return nil
}
