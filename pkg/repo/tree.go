package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/odvcencio/grit/pkg/object"
	"go.uber.org/zap"
)

// ErrUnsupportedFileType is returned when a tree build meets a file that
// cannot be recorded in a tree: a device, socket or named pipe.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// WriteTree stores the directory dir as a tree object, recursing into
// subdirectories, and returns the root tree's hash.
//
// Regular files are stored as blobs with mode 100755 when the owner execute
// bit is set and 100644 otherwise. Symbolic links are not followed: the blob
// holds the link target, as git records it. Directories named in the ignore
// set are skipped at every level; files with those names are kept. Any
// unreadable entry aborts the build with an error matching object.ErrIO;
// subtrees already written stay in the store.
func (r *Repo) WriteTree(dir string) (object.Hash, error) {
	ic := NewIgnoreChecker(r.Config.Ignore.Names)
	return r.writeTreeDir(dir, ic)
}

// writeTreeDir builds a TreeObj for one directory level and writes it to
// the store. The level's entries are released once its tree is written.
func (r *Repo) writeTreeDir(dir string, ic *IgnoreChecker) (object.Hash, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("write tree %q: %w", dir, object.WrapIO(err))
	}

	entries := make([]object.TreeEntry, 0, len(dirents))
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() && ic.IsIgnored(name) {
			continue
		}
		entry, err := r.treeEntry(filepath.Join(dir, name), de, ic)
		if err != nil {
			return object.ZeroHash, err
		}
		entries = append(entries, entry)
	}

	h, err := r.Store.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		return object.ZeroHash, fmt.Errorf("write tree %q: %w", dir, err)
	}
	r.logger.Debug("wrote tree",
		zap.String("dir", dir),
		zap.Int("entries", len(entries)),
		zap.Stringer("hash", h),
	)
	return h, nil
}

func (r *Repo) treeEntry(p string, de fs.DirEntry, ic *IgnoreChecker) (object.TreeEntry, error) {
	info, err := de.Info()
	if err != nil {
		return object.TreeEntry{}, fmt.Errorf("write tree: stat %q: %w", p, object.WrapIO(err))
	}
	mode, ok := modeFromFileInfo(info)
	if !ok {
		return object.TreeEntry{}, fmt.Errorf("write tree: %q: %w %s", p, ErrUnsupportedFileType, info.Mode().Type())
	}

	if mode == object.TreeModeDir {
		h, err := r.writeTreeDir(p, ic)
		if err != nil {
			return object.TreeEntry{}, err
		}
		return object.TreeEntry{Mode: mode, Name: de.Name(), Hash: h}, nil
	}

	var data []byte
	if mode == object.TreeModeSymlink {
		target, err := os.Readlink(p)
		if err != nil {
			return object.TreeEntry{}, fmt.Errorf("write tree: readlink %q: %w", p, object.WrapIO(err))
		}
		data = []byte(target)
	} else {
		data, err = os.ReadFile(p)
		if err != nil {
			return object.TreeEntry{}, fmt.Errorf("write tree: read %q: %w", p, object.WrapIO(err))
		}
	}

	h, err := r.Store.WriteBlob(&object.Blob{Data: data})
	if err != nil {
		return object.TreeEntry{}, fmt.Errorf("write tree: %q: %w", p, err)
	}
	return object.TreeEntry{Mode: mode, Name: de.Name(), Hash: h}, nil
}

// TreeFileEntry is a non-tree entry in a flattened tree.
type TreeFileEntry struct {
	Path  string // forward-slash path from the root tree
	Entry object.TreeEntry
}

// FlattenTree walks a tree object recursively, returning all blob entries
// with their full paths, in tree order.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	return r.flattenTreeRec(h, "")
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string) ([]TreeFileEntry, error) {
	treeObj, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: %w", err)
	}

	var result []TreeFileEntry
	for _, entry := range treeObj.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.IsDir() {
			sub, err := r.flattenTreeRec(entry.Hash, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
			continue
		}
		result = append(result, TreeFileEntry{Path: fullPath, Entry: entry})
	}
	return result, nil
}
