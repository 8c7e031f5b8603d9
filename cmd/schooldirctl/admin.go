package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/schooldir/internal/accounts"
)

func newAdminCmd(opts *rootOptions) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	var in accounts.NewUser
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator (identity + profile)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Email == "" || in.Password == "" {
				return errors.New("--email and --password are required")
			}
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			in.IsAdmin = true
			p, err := e.accounts.CreateUser(cmd.Context(), accounts.ActorCLI, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", p.Email, p.UserID)
			return nil
		},
	}
	create.Flags().StringVar(&in.Email, "email", "", "admin email")
	create.Flags().StringVar(&in.Name, "name", "", "display name (defaults to the email local part)")
	create.Flags().StringVar(&in.Password, "password", "", "initial password")

	admin.AddCommand(create)
	return admin
}
