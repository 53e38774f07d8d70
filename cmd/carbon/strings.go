package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaksonlabs/carbon/archive"
)

var (
	stringsContains string
	stringsLimit    int64
)

var stringsCmd = &cobra.Command{
	Use:   "strings <archive.carbon>",
	Short: "List or search the archive's string table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := archive.Open(args[0], archive.WithMmap())
		if err != nil {
			return err
		}
		defer a.Close()

		q, err := a.Query()
		if err != nil {
			return err
		}
		defer q.Close()

		if stringsContains != "" {
			ids, err := q.FindIDs(archive.PredContains(stringsContains), nil, stringsLimit)
			if err != nil {
				return err
			}
			for _, id := range ids {
				s, err := q.FetchString(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", id, s)
			}

			return nil
		}

		it := q.ScanStrids()
		defer it.Close()
		for {
			chunk, err := it.Next()
			if err != nil {
				return err
			}
			if chunk == nil {
				return nil
			}
			decoded, err := q.FetchStrings(chunk)
			if err != nil {
				return err
			}
			for i, info := range chunk {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", info.ID, decoded[i])
			}
		}
	},
}

func init() {
	stringsCmd.Flags().StringVar(&stringsContains, "contains", "", "only print strings containing the given substring")
	stringsCmd.Flags().Int64Var(&stringsLimit, "limit", -1, "stop after this many matches (-1 for all)")
}
