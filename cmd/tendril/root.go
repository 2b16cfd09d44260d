package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/pkg/adapters/process"
)

var rootCmd = &cobra.Command{
	Use:   "tendril",
	Short: "Tendril runs externally-authored agent graphs from the terminal",
	Long: `Tendril is a thin wrapper around external agent-graph executors.
It sends graphs your messages, folds their native update streams into one
canonical event schema, and walks you through the human-approval interrupts
they raise mid-run.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("workspace", "", "Workspace root holding the .tendril data dir (env "+config.EnvWorkspaceRoot+")")
}

// workspaceRoot resolves the effective workspace root for one invocation.
func workspaceRoot(cmd *cobra.Command) string {
	flagValue, _ := cmd.Flags().GetString("workspace")
	return config.WorkspaceRoot(flagValue)
}

// resolveManifestPath picks the manifest path from the first positional arg
// or TENDRIL_AGENT_SPEC, stripping any ":graph" suffix.
func resolveManifestPath(args []string) (string, error) {
	spec := ""
	if len(args) > 0 {
		spec = args[0]
	}
	spec = config.AgentSpec(spec)
	if spec == "" {
		return "", fmt.Errorf("no manifest: pass a path or set %s", config.EnvAgentSpec)
	}
	path, _ := process.ParseSpec(spec)
	return path, nil
}
