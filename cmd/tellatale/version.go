package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tellatale"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tellatale",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tellatale version %s\n", strings.TrimSpace(tellatale.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
