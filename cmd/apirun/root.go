package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "apirun",
		Short:         "Executes YAML-defined API test cases and reports structured results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug-level logging")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newValidateCmd(flags))

	return cmd
}
