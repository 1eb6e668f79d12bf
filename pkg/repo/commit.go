package repo

import (
	"fmt"

	"github.com/odvcencio/grit/pkg/object"
	"go.uber.org/zap"
)

// CommitSigner signs canonical commit payload bytes and returns an armored
// signature to be stored in the commit's gpgsig header.
type CommitSigner func(payload []byte) (string, error)

// CommitOptions controls CommitTree.
type CommitOptions struct {
	Parents []object.Hash
	Signer  CommitSigner
}

// CommitTree creates a commit object for an existing tree.
//
//  1. Check that tree names a stored tree object
//  2. Build author and committer lines from the configured identity and the
//     current time
//  3. Sign the payload when a signer is given
//  4. Write the commit to the store and return its hash
//
// Parents are recorded as given; their existence is not checked. Nothing is
// written when the tree check fails.
func (r *Repo) CommitTree(tree object.Hash, message string, opts CommitOptions) (object.Hash, error) {
	objType, _, err := r.Store.ReadHeader(tree)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit-tree: %w", err)
	}
	if objType != object.TypeTree {
		return object.ZeroHash, fmt.Errorf("commit-tree: %w", &object.KindError{Hash: tree, Want: object.TypeTree, Got: objType})
	}

	ident := object.Signature{
		Name:  r.Config.User.Name,
		Email: r.Config.User.Email,
		When:  r.now(),
	}
	commitObj := &object.CommitObj{
		TreeHash:  tree,
		Parents:   opts.Parents,
		Author:    ident,
		Committer: ident,
		Message:   message + "\n",
	}
	if opts.Signer != nil {
		signature, err := opts.Signer(object.CommitSigningPayload(commitObj))
		if err != nil {
			return object.ZeroHash, fmt.Errorf("commit-tree: sign commit: %w", err)
		}
		commitObj.Signature = signature
	}

	h, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit-tree: write commit: %w", err)
	}
	r.logger.Debug("wrote commit",
		zap.Stringer("hash", h),
		zap.Stringer("tree", tree),
		zap.Int("parents", len(opts.Parents)),
		zap.Bool("signed", opts.Signer != nil),
	)
	return h, nil
}
