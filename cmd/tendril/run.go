package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/aretw0/tendril/pkg/adapters/process"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [agent-spec]",
	Short: "Run a graph with a prompt, or chat with it",
	Long: `Runs a single turn against a graph (-m, -f, or -p) or, without a prompt,
starts an interactive conversation.

The agent spec is a manifest path ("agents.yaml"), a "path:graph" pair
selecting a named graph inside a manifest, or a bare executable launched as
an NDJSON graph process. Without an argument the spec falls back to
TENDRIL_AGENT_SPEC.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.RunOptions{}
		if len(args) > 0 {
			opts.Spec = args[0]
		}
		opts.Graph, _ = cmd.Flags().GetString("graph")
		opts.Message, _ = cmd.Flags().GetString("message")
		opts.File, _ = cmd.Flags().GetString("file")
		opts.Prompt, _ = cmd.Flags().GetString("prompt")
		opts.Config, _ = cmd.Flags().GetString("config")
		opts.Workspace, _ = cmd.Flags().GetString("workspace")
		opts.Interactive, _ = cmd.Flags().GetBool("interactive")
		opts.Async, _ = cmd.Flags().GetBool("async")
		opts.StreamMode, _ = cmd.Flags().GetString("stream-mode")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Verbose, _ = cmd.Flags().GetBool("verbose")

		// Rich rendering defaults to on when stdout is a terminal; an
		// explicit flag wins either way.
		if cmd.Flags().Changed("rich") {
			opts.Rich, _ = cmd.Flags().GetBool("rich")
		} else {
			opts.Rich = !opts.JSON && tui.IsTerminal(os.Stdout)
		}

		if err := cli.Execute(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("graph", "g", "", "Graph name within the manifest (default \""+process.DefaultGraph+"\")")
	runCmd.Flags().StringP("message", "m", "", "Run one turn with this prompt, then exit")
	runCmd.Flags().StringP("file", "f", "", "Run one turn with the prompt read from this file")
	runCmd.Flags().StringP("prompt", "p", "", "Run one turn with a named prompt from the workspace library")
	runCmd.Flags().StringP("config", "c", "", "Run config as inline JSON or a file path (env "+config.EnvConfig+")")
	runCmd.Flags().Bool("interactive", true, "Answer interrupts with the decision menu")
	runCmd.Flags().Bool("async", false, "Consume the run as an event channel")
	runCmd.Flags().String("stream-mode", "", "Executor stream mode: updates or values (env "+config.EnvStreamMode+")")
	runCmd.Flags().Bool("json", false, "Emit NDJSON events on stdout instead of rendered text")
	runCmd.Flags().Bool("rich", true, "Render AI text as markdown (default: stdout is a terminal)")
	runCmd.Flags().BoolP("verbose", "v", false, "Tag streaming events with node names and enable debug logging")
}
