package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/engine"
	"github.com/alexisbeaulieu97/streamy/internal/logger"
	"github.com/alexisbeaulieu97/streamy/internal/model"
	"github.com/alexisbeaulieu97/streamy/internal/report"
)

type runOptions struct {
	casesPath      string
	outputPath     string
	profileName    string
	captureOutput  bool
}

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a test case and emit its JSON report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTestCaseCmd(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.casesPath, "cases", "", "Path to the test case YAML document")
	cmd.MarkFlagRequired("cases") //nolint:errcheck
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write the JSON report to this path instead of stdout")
	cmd.Flags().StringVar(&opts.profileName, "profile", "", "Active profile name to layer into the variable environment")
	cmd.Flags().BoolVar(&opts.captureOutput, "capture-output", false, "Attach captured log output to the report")

	return cmd
}

func runTestCaseCmd(cmd *cobra.Command, root *rootFlags, opts runOptions) error {
	tc, err := config.ParseConfig(opts.casesPath)
	if err != nil {
		return withExitCode(exitInputError, err)
	}

	level := "info"
	if root.verbose {
		level = "debug"
	}

	var captured bytes.Buffer
	var writer io.Writer = cmd.ErrOrStderr()
	if opts.captureOutput {
		writer = io.MultiWriter(cmd.ErrOrStderr(), &captured)
	}

	log, err := logger.New(logger.Options{Level: level, Writer: writer, Component: "apirun"})
	if err != nil {
		return withExitCode(exitInternalError, err)
	}

	log.Info(fmt.Sprintf("starting test case %q", tc.Name))

	steps := engine.RunTestCaseWithOptions(context.Background(), *tc, log, engine.Options{ProfileName: opts.profileName})
	result := report.Collect(*tc, steps)
	if opts.captureOutput {
		result.CapturedOutput = captured.String()
	}

	log.Info(fmt.Sprintf("test case %q finished with status %q", tc.Name, result.Status))

	if err := writeReport(cmd, result, opts.outputPath); err != nil {
		return withExitCode(exitInternalError, err)
	}

	if result.Status != model.CaseStatusPassed {
		return withExitCode(exitCaseFailed, fmt.Errorf("test case %q finished with status %q", tc.Name, result.Status))
	}

	return nil
}

func writeReport(cmd *cobra.Command, result model.TestCaseResult, outputPath string) error {
	if outputPath != "" {
		return report.Save(result, outputPath)
	}

	data, err := report.ToJSON(result)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
