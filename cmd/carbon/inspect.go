package main

import (
	"github.com/spf13/cobra"

	"github.com/jaksonlabs/carbon/archive"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive.carbon>",
	Short: "Dump an archive's layout, string table and record tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := buildLogger()
		if err != nil {
			return err
		}

		a, err := archive.Open(args[0], archive.WithLogger(logger))
		if err != nil {
			return err
		}
		defer a.Close()

		q, err := a.Query()
		if err != nil {
			return err
		}
		defer q.Close()

		return a.Dump(cmd.OutOrStdout(), q)
	},
}
