package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of find-my-books",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("find-my-books %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
