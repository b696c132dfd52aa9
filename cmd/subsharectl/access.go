package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/subshare/subshare/internal/api"
	"gitlab.com/subshare/subshare/internal/repository"
)

// defaultTokenTTL is how long an issued bearer token stays valid.
const defaultTokenTTL = 24 * time.Hour

func newAdminCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage web admin accounts",
	}

	withAdmins := func(run func(cmd *cobra.Command, admins *repository.AdminRepository, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			pool, _, closeDB, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()
			return run(cmd, repository.NewAdminRepository(pool), args)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "grant <user-id>",
			Short: "Give an account admin rights",
			Args:  cobra.ExactArgs(1),
			RunE: withAdmins(func(cmd *cobra.Command, admins *repository.AdminRepository, args []string) error {
				if err := admins.Grant(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "granted admin to %s\n", args[0])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "revoke <user-id>",
			Short: "Remove admin rights from an account",
			Args:  cobra.ExactArgs(1),
			RunE: withAdmins(func(cmd *cobra.Command, admins *repository.AdminRepository, args []string) error {
				if err := admins.Revoke(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked admin from %s\n", args[0])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List admin accounts",
			Args:  cobra.NoArgs,
			RunE: withAdmins(func(cmd *cobra.Command, admins *repository.AdminRepository, _ []string) error {
				ids, err := admins.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}),
		},
	)
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		secret string
		email  string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for testing the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or SESSION_SECRET is required")
			}
			token, err := api.NewSessionManager(secret, nil, nil).IssueToken(args[0], email, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("SESSION_SECRET"), "HS256 signing secret")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", defaultTokenTTL, "token lifetime")
	return cmd
}
