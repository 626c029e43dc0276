package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/streamy/internal/config"
)

func newValidateCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate PATH",
		Short: "Parse and structurally validate a test case document without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateCmd(cmd, args[0])
		},
	}

	return cmd
}

func validateCmd(cmd *cobra.Command, path string) error {
	tc, err := config.ParseConfig(path)
	if err != nil {
		return withExitCode(exitInputError, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d step(s))\n", tc.Name, len(tc.Steps))
	return nil
}
