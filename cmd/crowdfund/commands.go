package main

import (
	"fmt"

	"github.com/rpggio/crowdfund/internal/transport"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the principal the backend sees",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, _ := newClients(newLogger())
		principal, err := backend.GetOwnID(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), principal)
		return nil
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Profile lookups",
}

var profilesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search profiles by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, _ := newClients(newLogger())
		profiles, err := backend.SearchProfiles(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, p := range profiles {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.DisplayName())
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <principal>",
	Short: "Issue a bearer token signed with the configured auth secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		authority, err := transport.NewTokenAuthority(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		signed, err := authority.Issue(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	profilesCmd.AddCommand(profilesSearchCmd)
}
