package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and every workload shell",
	Long:  `Loads turbo.yaml, builds every catalogued workload and reports shells whose slots and sections disagree.`,
	Run: func(cmd *cobra.Command, args []string) {
		app := loadApp(cmd)
		defer app.Close()

		problems := app.Validate(cmd.Context())
		if len(problems) > 0 {
			for _, name := range app.Catalog.Names() {
				if err, ok := problems[name]; ok {
					fmt.Printf("✗ %s: %v\n", name, err)
				}
			}
			fmt.Printf("Validation failed: %d of %d workloads invalid\n", len(problems), len(app.Catalog))
			os.Exit(1)
		}
		fmt.Printf("All %d workloads are valid! ✅\n", len(app.Catalog))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
