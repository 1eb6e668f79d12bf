package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCatFileCmd() *cobra.Command {
	var pretty bool
	var showType bool
	var showSize bool

	cmd := &cobra.Command{
		Use:   "cat-file (-p | -t | -s) <object>",
		Short: "Show the content, type or size of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHashArg(args[0])
			if err != nil {
				return fmt.Errorf("cat-file: %w", err)
			}
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case showType, showSize:
				objType, size, err := r.Store.ReadHeader(h)
				if err != nil {
					return fmt.Errorf("cat-file: %w", err)
				}
				if showType {
					fmt.Fprintln(out, objType)
				} else {
					fmt.Fprintln(out, size)
				}
				return nil
			default:
				if err := printObject(out, r.Store, h); err != nil {
					return fmt.Errorf("cat-file: %w", err)
				}
				return nil
			}
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print the object content")
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "show the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "show the object size")
	cmd.MarkFlagsOneRequired("pretty", "type", "size")
	cmd.MarkFlagsMutuallyExclusive("pretty", "type", "size")
	return cmd
}
