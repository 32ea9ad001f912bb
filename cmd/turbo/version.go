package main

import (
	"fmt"
	"strings"

	turbo "github.com/edisonylee/turbocommerce-sub001"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of turbo",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("turbo version %s\n", strings.TrimSpace(turbo.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
