package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/internal/prompts"
)

const starterManifest = `graphs:
  echo:
    command: python3
    args: ["echo_graph.py"]
    description: Echoes the last user message back. Replace with your own agent.
`

const starterGraph = `#!/usr/bin/env python3
"""Minimal tendril graph: one request line on stdin, NDJSON chunks on stdout."""
import json
import sys


def main():
    line = sys.stdin.readline()
    if not line.strip():
        return
    req = json.loads(line)

    if req.get("op") == "resume":
        decisions = req.get("input", {}).get("resume", [])
        reply = "resumed with %d decision(s)" % len(decisions)
    else:
        messages = req.get("input", {}).get("messages", [])
        text = messages[-1].get("content", "") if messages else ""
        reply = "You said: " + text

    chunk = {"agent": {"messages": [{"role": "ai", "content": reply}]}}
    print(json.dumps(chunk), flush=True)


if __name__ == "__main__":
    main()
`

const starterPrompt = `Hello from tendril! Edit this prompt or add your own under .tendril/prompts.`

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Scaffold a starter workspace",
	Long: `Creates an agents.yaml with a demo echo graph, the script it points at,
and a seed prompt in the .tendril prompt library. Existing files are left
untouched.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := workspaceRoot(cmd)
		if len(args) > 0 {
			root = args[0]
		}
		if root == "" {
			root = "."
		}

		if err := runInit(cmd, root); err != nil {
			fmt.Printf("Error scaffolding workspace: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}

	files := []struct {
		name    string
		content string
		mode    os.FileMode
	}{
		{"agents.yaml", starterManifest, 0644},
		{"echo_graph.py", starterGraph, 0755},
	}
	for _, f := range files {
		path := filepath.Join(root, f.name)
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Skipping %s (already exists)\n", f.name)
			continue
		}
		if err := os.WriteFile(path, []byte(f.content), f.mode); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", f.name)
	}

	meta := prompts.Meta{
		Graph:       "echo",
		Description: "Starter prompt for the demo echo graph.",
	}
	if err := prompts.Write(cmd.Context(), config.PromptsDir(root), "hello", meta, starterPrompt); err != nil {
		return err
	}
	fmt.Printf("Seeded prompt 'hello' in %s\n", config.PromptsDir(root))

	fmt.Println()
	fmt.Println("Try it:")
	fmt.Println(`  tendril run -g echo -m "hi there"`)
	fmt.Println("  tendril run -g echo -p hello")
	return nil
}
