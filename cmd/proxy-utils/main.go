package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "proxy-utils",
	Short: "Mining proxy utilities",
	Long:  "Various utilities for the mining proxy including config validation and difficulty inspection",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
