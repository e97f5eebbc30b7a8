package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/user"
)

func (cli *commandLine) newAddUserCmd() *cobra.Command {
	var nu user.NewUser

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create an account, or update the role & password of an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			nu.Password, nu.PasswordConfirm = pwd, pwd

			usr, created, err := cli.addUser(cmd.Context(), nu)
			if err != nil {
				return err
			}
			action := "updated"
			if created {
				action = "created"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s) %s\n", usr.Role, usr.Email, usr.ID, action)
			return nil
		},
	}

	cmd.Flags().StringVar(&nu.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&nu.Email, "email", "", "Email address (login)")
	cmd.Flags().StringVar(&nu.Role, "role", user.RoleStudent, "One of: student, coordinator, supervisor, board, external")
	cmd.Flags().StringVar(&nu.EnrollmentNo, "enrollment", "", "Enrollment number (students)")
	cmd.Flags().StringVar(&nu.Department, "department", "", "Department")
	cmd.Flags().StringVar(&nu.FacultyID, "faculty-id", "", "Faculty ID (staff)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// addUser creates the account, or updates the role, details & password of the one owning the email.
func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) (usr user.User, created bool, err error) {
	nu.Clean()
	usr, err = cli.usrSvc.GetByEmail(ctx, nu.Email)
	if err != nil {
		if !core.IsNotFound(err) {
			return user.User{}, false, errors.Wrap(err, "finding user by email")
		}
		if err = nu.Validate(cli.validate, cli.usrSvc); err != nil {
			return user.User{}, false, err
		}
		usr, err = cli.usrSvc.Create(ctx, nu)
		return usr, err == nil, errors.Wrap(err, "creating user")
	}

	if !user.IsValidRole(nu.Role) {
		return user.User{}, false, errors.Errorf("invalid role %q", nu.Role)
	}
	usr.Role = nu.Role
	if nu.Name != "" {
		usr.Name = nu.Name
	}
	if nu.EnrollmentNo != "" {
		usr.EnrollmentNo = nu.EnrollmentNo
	}
	if nu.Department != "" {
		usr.Department = nu.Department
	}
	if nu.FacultyID != "" {
		usr.FacultyID = nu.FacultyID
	}
	usr.IsActive = true
	usr, err = cli.usrSvc.SetPassword(ctx, usr, nu.Password)
	return usr, false, errors.Wrap(err, "updating user")
}
