package repo

import (
	"io/fs"

	"github.com/odvcencio/grit/pkg/object"
)

// modeFromFileInfo maps lstat information to a tree entry mode. ok is false
// for file types a tree cannot hold (devices, sockets, pipes).
func modeFromFileInfo(info fs.FileInfo) (mode string, ok bool) {
	m := info.Mode()
	switch {
	case m&fs.ModeSymlink != 0:
		return object.TreeModeSymlink, true
	case m.IsDir():
		return object.TreeModeDir, true
	case !m.IsRegular():
		return "", false
	case m.Perm()&0o100 != 0:
		return object.TreeModeExecutable, true
	default:
		return object.TreeModeFile, true
	}
}
