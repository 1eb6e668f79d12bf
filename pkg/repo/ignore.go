package repo

// defaultIgnoredNames are directories skipped at every level of a tree
// build: the repository's own metadata plus common build and editor
// artifact directories.
var defaultIgnoredNames = []string{GitDirName, "target", ".idea"}

// IgnoreChecker determines if a directory should be left out of a tree.
// Matching is by exact entry name; there is no pattern language. Callers
// consult it for directories only.
type IgnoreChecker struct {
	names map[string]struct{}
}

// NewIgnoreChecker creates an IgnoreChecker for the default names plus
// extra.
func NewIgnoreChecker(extra []string) *IgnoreChecker {
	ic := &IgnoreChecker{names: make(map[string]struct{}, len(defaultIgnoredNames)+len(extra))}
	for _, name := range defaultIgnoredNames {
		ic.names[name] = struct{}{}
	}
	for _, name := range extra {
		ic.names[name] = struct{}{}
	}
	return ic
}

// IsIgnored reports whether a directory with the given name is skipped.
func (ic *IgnoreChecker) IsIgnored(name string) bool {
	_, ok := ic.names[name]
	return ok
}
