package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/pkg/adapters/process"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [manifest]",
	Short: "List the graphs a manifest declares",
	Long:  `Reads an agents manifest and prints each graph with its launch command and description.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		manifestPath, err := resolveManifestPath(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		manifest, err := process.LoadManifest(manifestPath)
		if err != nil {
			fmt.Printf("Error loading manifest: %v\n", err)
			os.Exit(1)
		}

		names := manifest.Names()
		if len(names) == 0 {
			fmt.Println("Manifest declares no graphs.")
			return
		}

		fmt.Printf("Graphs in %s:\n", manifestPath)
		for _, name := range names {
			cfg, err := manifest.Resolve(name)
			if err != nil {
				continue
			}
			line := cfg.Command
			if len(cfg.Args) > 0 {
				line += " " + strings.Join(cfg.Args, " ")
			}
			fmt.Printf("- %s: %s\n", name, line)
			if cfg.Description != "" {
				fmt.Printf("    %s\n", cfg.Description)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
