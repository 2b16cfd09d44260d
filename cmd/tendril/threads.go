package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/adapters/file"
	"github.com/aretw0/tendril/internal/config"
)

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "Manage persistent threads",
	Long:  `List, inspect, and remove thread records stored in .tendril/threads.`,
}

var threadsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all known threads",
	Run: func(cmd *cobra.Command, args []string) {
		store := threadStore(cmd)
		ids, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing threads: %v\n", err)
			os.Exit(1)
		}

		if len(ids) == 0 {
			fmt.Println("No threads found.")
			return
		}

		fmt.Println("Threads:")
		for _, id := range ids {
			fmt.Println("- " + id)
		}
	},
}

var threadsInspectCmd = &cobra.Command{
	Use:   "inspect <thread-id>",
	Short: "Inspect the record of a thread",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		threadID := args[0]
		store := threadStore(cmd)

		rec, err := store.Load(cmd.Context(), threadID)
		if err != nil {
			fmt.Printf("Error loading thread '%s': %v\n", threadID, err)
			os.Exit(1)
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling record: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))
	},
}

var threadsRmCmd = &cobra.Command{
	Use:   "rm <thread-id>...",
	Short: "Remove one or more threads",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := threadStore(cmd)
		hasError := false

		for _, threadID := range args {
			if err := store.Delete(cmd.Context(), threadID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", threadID, err)
				hasError = true
			} else {
				fmt.Printf("Removed thread '%s'\n", threadID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

// TODO: Add support for --all flag in rm command

func init() {
	rootCmd.AddCommand(threadsCmd)
	threadsCmd.AddCommand(threadsLsCmd)
	threadsCmd.AddCommand(threadsInspectCmd)
	threadsCmd.AddCommand(threadsRmCmd)
}

func threadStore(cmd *cobra.Command) *file.Store {
	return file.New(config.ThreadsDir(workspaceRoot(cmd)))
}
