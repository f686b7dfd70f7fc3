package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"idiomlint/internal/project"
	"idiomlint/internal/rules"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a .idiomlint.toml listing every rule with its defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if st, err := os.Stat(dir); err != nil {
		return usageError(err)
	} else if !st.IsDir() {
		return usageError(fmt.Errorf("%q is not a directory", dir))
	}
	force, _ := cmd.Flags().GetBool("force")

	path, err := project.WriteTemplate(dir, rules.Builtin(), force)
	if err != nil {
		if errors.Is(err, project.ErrExists) {
			return usageError(fmt.Errorf("%w (use --force to overwrite)", err))
		}
		return &exitError{code: exitFailed, err: err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
