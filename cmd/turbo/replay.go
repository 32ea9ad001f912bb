package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/edisonylee/turbocommerce-sub001/internal/presentation/tui"
	"github.com/edisonylee/turbocommerce-sub001/pkg/replay"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay [request-id]",
	Short: "Re-render a recorded response offline",
	Long: `Replays a recording from the configured store (or a JSON file with --file)
using the recorded fetch results and emission order, and verifies that the
output matches the recording byte for byte.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := loadApp(cmd)
		defer app.Close()

		if list, _ := cmd.Flags().GetBool("list"); list {
			store, err := app.RecordingStore(cmd.Context())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error opening recording store: %v\n", err)
				os.Exit(1)
			}
			ids, err := store.List(cmd.Context())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error listing recordings: %v\n", err)
				os.Exit(1)
			}
			if len(ids) == 0 {
				fmt.Println("No recordings found.")
				return
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return
		}

		path, _ := cmd.Flags().GetString("file")
		if path == "" && len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Error: a request id or --file is required")
			os.Exit(1)
		}
		var id string
		if len(args) > 0 {
			id = args[0]
		}

		rec, err := app.LoadRecording(cmd.Context(), id, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading recording: %v\n", err)
			os.Exit(1)
		}

		res, err := app.Replay(cmd.Context(), rec, os.Stdout)
		if timeline, _ := cmd.Flags().GetBool("timeline"); timeline && res != nil {
			tui.NewPrinter(os.Stderr, tui.IsTerminal(os.Stderr)).Timeline(res)
		}
		switch {
		case errors.Is(err, replay.ErrReplayMismatch):
			fmt.Fprintf(os.Stderr, "Replay diverged: %v\n", err)
			os.Exit(2)
		case err != nil:
			fmt.Fprintf(os.Stderr, "Replay failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringP("file", "f", "", "Read the recording from a JSON file")
	replayCmd.Flags().BoolP("list", "l", false, "List recorded request ids")
	replayCmd.Flags().BoolP("timeline", "t", false, "Print the replayed timeline to stderr")
}
