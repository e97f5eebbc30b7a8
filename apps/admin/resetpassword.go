package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (cli *commandLine) newResetPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password. The password is prompted next",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			usr, err := cli.usrSvc.GetByEmail(ctx, email)
			if err != nil {
				return err
			}
			pwd, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			if _, err = cli.usrSvc.SetPassword(ctx, usr, pwd); err != nil {
				return errors.Wrap(err, "setting password")
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "password of %s updated\n", usr.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "The user's email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
