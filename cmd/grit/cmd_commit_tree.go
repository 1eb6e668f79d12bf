package main

import (
	"fmt"

	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitTreeCmd() *cobra.Command {
	var message string
	var parents []string
	var sign bool
	var signingKey string

	cmd := &cobra.Command{
		Use:   "commit-tree <tree> -m <message> [-p <parent>]...",
		Short: "Create a commit object for a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := parseHashArg(args[0])
			if err != nil {
				return fmt.Errorf("commit-tree: tree: %w", err)
			}

			opts := repo.CommitOptions{}
			for _, p := range parents {
				h, err := parseHashArg(p)
				if err != nil {
					return fmt.Errorf("commit-tree: parent: %w", err)
				}
				opts.Parents = append(opts.Parents, h)
			}
			if sign || signingKey != "" {
				signer, _, err := newSSHCommitSigner(signingKey)
				if err != nil {
					return fmt.Errorf("commit-tree: %w", err)
				}
				opts.Signer = signer
			}

			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			h, err := r.CommitTree(tree, message, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent commit (repeatable)")
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&signingKey, "signing-key", "", "SSH private key path (default: ~/.ssh/id_ed25519, id_ecdsa or id_rsa)")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
