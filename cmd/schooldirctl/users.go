package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/schooldir/internal/accounts"
	"github.com/dropDatabas3/schooldir/internal/domain/repository"
)

func newUsersCmd(opts *rootOptions) *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "List, ban and unban users",
	}

	var filter repository.ListProfilesFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List user profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			items, err := e.accounts.ListUsers(cmd.Context(), filter)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tADMIN\tACTIVE")
			for _, p := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\n", p.UserID, p.Email, p.Name, p.IsAdmin, p.IsActive)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&filter.Search, "search", "", "filter by email or name")
	list.Flags().IntVar(&filter.Limit, "limit", 50, "page size (max 200)")
	list.Flags().IntVar(&filter.Offset, "offset", 0, "page offset")

	users.AddCommand(list, newSetActiveCmd(opts, "ban", false), newSetActiveCmd(opts, "unban", true))
	return users
}

func newSetActiveCmd(opts *rootOptions, use string, active bool) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   use,
		Short: use + " a user by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.accounts.SetActiveByEmail(cmd.Context(), accounts.ActorCLI, email, active)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: active=%t\n", p.Email, p.IsActive)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	return cmd
}
