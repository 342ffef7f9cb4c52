package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigmapool/mining-proxy/types"
	"github.com/sigmapool/mining-proxy/utils"
)

var difficultyCmd = &cobra.Command{
	Use:   "difficulty [config file]",
	Short: "Print the configured pool difficulty in decimal and hex",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configPath := ""
		if len(args) > 0 {
			configPath = args[0]
		}

		cfg := &types.Config{}
		err := utils.ReadConfig(cfg, configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not read config: %v\n", err)
			os.Exit(1)
		}

		diff, err := utils.PoolDifficulty(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

		fmt.Printf("pool difficulty: %v (0x%x)\n", diff.String(), diff)
	},
}

func init() {
	rootCmd.AddCommand(difficultyCmd)
}
