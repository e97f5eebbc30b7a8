package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/user"
)

// seedFile is the YAML document read by `fypadmin seed`:
//
//	users:
//	  - name: Ali Raza
//	    email: ali@example.com
//	    role: student
//	    enrollment_no: FA20-BSE-001
//	    password: s3cr3t-P4ss
type seedFile struct {
	Users []user.NewUser `yaml:"users"`
}

func (cli *commandLine) newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the accounts listed in a YAML file. Existing emails are skipped",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return errors.Wrap(err, "opening seed file")
			}
			//goland:noinspection GoUnhandledErrorResult
			defer f.Close()

			created, skipped, err := cli.seed(cmd.Context(), f)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d created, %d skipped\n", created, skipped)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file listing the accounts")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (cli *commandLine) seed(ctx context.Context, r io.Reader) (created, skipped int, err error) {
	var data seedFile
	if err = yaml.NewDecoder(r).Decode(&data); err != nil {
		return 0, 0, errors.Wrap(err, "decoding seed file")
	}

	for i, nu := range data.Users {
		nu.PasswordConfirm = nu.Password
		if err = nu.Validate(cli.validate, cli.usrSvc); err != nil {
			if fields, ok := core.ValidationFields(err); ok && len(fields) == 1 && fields[0].Field == "email" {
				cli.logger.Info(fmt.Sprintf("seed: %s already exists, skipped", nu.Email))
				skipped++
				continue
			}
			return created, skipped, errors.Wrapf(err, "users[%d] (%s)", i, nu.Email)
		}
		if _, err = cli.usrSvc.Create(ctx, nu); err != nil {
			return created, skipped, errors.Wrapf(err, "creating users[%d] (%s)", i, nu.Email)
		}
		created++
	}
	return created, skipped, nil
}
