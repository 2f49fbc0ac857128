package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/conveyor"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of conveyor",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("conveyor version %s\n", strings.TrimSpace(conveyor.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
