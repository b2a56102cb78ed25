package main

import (
	"fmt"
	"os"

	"github.com/rpggio/crowdfund/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg        config.Config
	backendURL string
	token      string
)

var rootCmd = &cobra.Command{
	Use:   "crowdfund",
	Short: "Client for the crowdfund backend",
	Long: `crowdfund talks to a running crowdfund server over JSON-RPC.

Connection settings default to the CROWDFUND_CLIENT_* environment variables
and the file named by CROWDFUND_CONFIG_PATH.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("backend") {
			backendURL = cfg.Client.BackendURL
		}
		if !cmd.Flags().Changed("token") {
			token = cfg.Client.Token
		}
		return nil
	},
}

func main() {
	loaded, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded

	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "backend base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token")
	rootCmd.AddCommand(featuredCmd, whoamiCmd, profilesCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
