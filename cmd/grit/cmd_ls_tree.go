package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLsTreeCmd() *cobra.Command {
	var nameOnly bool
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls-tree [--name-only] [-r] <tree>",
		Short: "List the entries of a tree object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHashArg(args[0])
			if err != nil {
				return fmt.Errorf("ls-tree: %w", err)
			}
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if recursive {
				entries, err := r.FlattenTree(h)
				if err != nil {
					return fmt.Errorf("ls-tree: %w", err)
				}
				return printFlatEntries(out, r.Store, entries, nameOnly)
			}

			tr, err := r.Store.ReadTree(h)
			if err != nil {
				return fmt.Errorf("ls-tree: %w", err)
			}
			return printTreeEntries(out, r.Store, tr.Entries, nameOnly)
		},
	}

	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "list only entry names")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recurse into subtrees")
	return cmd
}
