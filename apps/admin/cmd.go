package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/project"
	"github.com/trezcool/fyp/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	isTerminalFunc   = func(w io.Writer) bool { // mockable
		f, ok := w.(*os.File)
		return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	}

	errHelp        = errors.New("help provided")
	errEmptyPwd    = errors.New("password cannot be empty")
	errPwdMismatch = errors.New("passwords do not match")
	errNoSQL       = errors.New("migrations are only available for the postgres & sqlite engines")
)

type commandLine struct {
	conf     *core.Config
	db       *sqlx.DB // nil for the bolt engine
	validate *validator.Validate
	usrSvc   user.Service
	prjSvc   project.Service
	logger   core.Logger
}

// newRootCmd creates the top-level "fypadmin" command and registers its subcommands.
func (cli *commandLine) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fypadmin",
		Short:         "FYP Portal administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.AddCommand(
		cli.newAddUserCmd(),
		cli.newResetPasswordCmd(),
		cli.newSeedCmd(),
		cli.newMigrateCmd(),
		cli.newReportCmd(),
	)
	return root
}

func (cli *commandLine) run(args []string, out io.Writer) error {
	if args == nil {
		args = []string{} // cobra falls back to os.Args on nil
	}
	root := cli.newRootCmd()
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	return root.Execute()
}

// promptPassword reads a password (twice) from the terminal without echoing it.
func promptPassword(cmd *cobra.Command) (string, error) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprint(out, "Password: ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errEmptyPwd
	}

	_, _ = fmt.Fprint(out, "Password (again): ")
	confirm, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if string(confirm) != string(pwd) {
		return "", errPwdMismatch
	}
	return string(pwd), nil
}
