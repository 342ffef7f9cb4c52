package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigmapool/mining-proxy/types"
	"github.com/sigmapool/mining-proxy/utils"
)

var checkConfigCmd = &cobra.Command{
	Use:   "checkconfig [config file]",
	Short: "Validate a proxy config file",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configPath := ""
		if len(args) > 0 {
			configPath = args[0]
		}

		cfg := &types.Config{}
		err := utils.ReadConfig(cfg, configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config invalid: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("config ok (node: %v, pool: %v)\n", cfg.Node.Url, cfg.Pool.Url)
	},
}

func init() {
	rootCmd.AddCommand(checkConfigCmd)
}
