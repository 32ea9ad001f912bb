package main

import (
	"fmt"
	"os"

	"github.com/edisonylee/turbocommerce-sub001/internal/presentation/tui"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/spf13/cobra"
)

// describeCmd represents the describe command
var describeCmd = &cobra.Command{
	Use:   "describe <workload>",
	Short: "Show the streaming layout of a workload",
	Long:  `Builds a workload and prints its sections, their policies and a Mermaid diagram of the stream.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := loadApp(cmd)
		defer app.Close()

		rc := domain.NewRequestContext("GET", "/pages/"+args[0])

		if mermaidOnly, _ := cmd.Flags().GetBool("mermaid"); mermaidOnly {
			out, err := app.Graph(cmd.Context(), args[0], rc, nil)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(out)
			return
		}

		doc, err := app.Describe(cmd.Context(), args[0], rc)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		out, err := tui.NewRenderer(tui.IsTerminal(os.Stdout))(doc)
		if err != nil {
			out = doc
		}
		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("mermaid", false, "Print only the Mermaid diagram")
}
