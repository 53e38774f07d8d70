package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaksonlabs/carbon/archive"
)

var toJSONCmd = &cobra.Command{
	Use:   "to-json <archive.carbon>",
	Short: "Render an archive back to JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := archive.Open(args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		q, err := a.Query()
		if err != nil {
			return err
		}
		defer q.Close()

		rendered, err := archive.ToJSON(q)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(rendered))

		return nil
	},
}
