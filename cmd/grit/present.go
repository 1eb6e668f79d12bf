package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

// printObject writes the pretty form of an object: raw bytes for a blob,
// one line per entry for a tree. Any other kind fails as unsupported.
func printObject(out io.Writer, store *object.Store, h object.Hash) (retErr error) {
	rd, err := store.Open(h)
	if err != nil {
		return err
	}
	defer func() {
		if err := rd.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	switch rd.Type {
	case object.TypeBlob:
		return copyBlob(out, rd)
	case object.TypeTree:
		data, err := io.ReadAll(rd)
		if err != nil {
			return err
		}
		tr, err := object.UnmarshalTree(data)
		if err != nil {
			return fmt.Errorf("object %s: %w", h, err)
		}
		return printTreeEntries(out, store, tr.Entries, false)
	default:
		return fmt.Errorf("pretty-print %s object %s: %w: %w", rd.Type, h, errors.ErrUnsupported, object.ErrWrongKind)
	}
}

// copyBlob streams a blob payload to out and checks the byte count against
// the size declared in the object header.
func copyBlob(out io.Writer, rd *object.ObjectReader) error {
	n, err := io.Copy(out, rd)
	if err != nil {
		return err
	}
	if n != rd.Size {
		return fmt.Errorf("blob size mismatch: wrote %d bytes, header declares %d", n, rd.Size)
	}
	return nil
}

// printTreeEntries writes either bare names or lines of the form
//
//	<6-digit mode> <type> <hash>\t<name>
//
// where type is read from the referenced object.
func printTreeEntries(out io.Writer, store *object.Store, entries []object.TreeEntry, nameOnly bool) error {
	for _, e := range entries {
		if err := printTreeLine(out, store, e.Name, e, nameOnly); err != nil {
			return err
		}
	}
	return nil
}

func printFlatEntries(out io.Writer, store *object.Store, entries []repo.TreeFileEntry, nameOnly bool) error {
	for _, fe := range entries {
		if err := printTreeLine(out, store, fe.Path, fe.Entry, nameOnly); err != nil {
			return err
		}
	}
	return nil
}

func printTreeLine(out io.Writer, store *object.Store, name string, e object.TreeEntry, nameOnly bool) error {
	if nameOnly {
		_, err := fmt.Fprintln(out, name)
		return err
	}
	objType, _, err := store.ReadHeader(e.Hash)
	if err != nil {
		return fmt.Errorf("tree entry %q: %w", name, err)
	}
	_, err = fmt.Fprintf(out, "%s %s %s\t%s\n", padMode(e.Mode), objType, e.Hash, name)
	return err
}

func padMode(mode string) string {
	if len(mode) >= 6 {
		return mode
	}
	return strings.Repeat("0", 6-len(mode)) + mode
}
