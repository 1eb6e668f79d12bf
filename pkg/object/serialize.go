package object

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// CompareTreeEntries orders entries the way git does: names compare
// byte-wise, and where one name is a prefix of the other the next byte
// decides, with a directory name treated as if it ended in '/'. Hence "a"
// sorts before "ab" before "b", while a directory "a" sorts after a file
// "a.txt".
func CompareTreeEntries(a, b TreeEntry) int {
	n := min(len(a.Name), len(b.Name))
	if c := strings.Compare(a.Name[:n], b.Name[:n]); c != 0 {
		return c
	}
	return cmp.Compare(nameTerminator(a, n), nameTerminator(b, n))
}

func nameTerminator(e TreeEntry, n int) byte {
	if n < len(e.Name) {
		return e.Name[n]
	}
	if e.IsDir() {
		return '/'
	}
	return 0
}

// SortTreeEntries sorts entries in place into git tree order.
func SortTreeEntries(entries []TreeEntry) {
	slices.SortFunc(entries, CompareTreeEntries)
}

// MarshalTree serializes a TreeObj into git's binary tree format. Entries
// are sorted into git order first; the input slice is not modified. Each
// record is
//
//	<mode> <name>\0<20-byte raw hash>
//
// with no separator between records.
func MarshalTree(tr *TreeObj) ([]byte, error) {
	sorted := slices.Clone(tr.Entries)
	SortTreeEntries(sorted)

	var buf bytes.Buffer
	for i, e := range sorted {
		if err := validateTreeEntry(e); err != nil {
			return nil, fmt.Errorf("marshal tree: %w", err)
		}
		if i > 0 && sorted[i-1].Name == e.Name {
			return nil, fmt.Errorf("marshal tree: duplicate entry %q", e.Name)
		}
		buf.WriteString(e.Mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.Hash[:])
	}
	return buf.Bytes(), nil
}

func validateTreeEntry(e TreeEntry) error {
	if !isTreeMode(e.Mode) {
		return fmt.Errorf("entry %q: unknown mode %q", e.Name, e.Mode)
	}
	if e.Name == "" {
		return fmt.Errorf("entry with empty name")
	}
	if strings.ContainsAny(e.Name, "\x00/") {
		return fmt.Errorf("entry %q: name contains NUL or '/'", e.Name)
	}
	return nil
}

func isTreeMode(mode string) bool {
	switch mode {
	case TreeModeFile, TreeModeExecutable, TreeModeSymlink, TreeModeDir:
		return true
	}
	return false
}

// UnmarshalTree parses git's binary tree format. Entries are returned in
// stored order.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("%w: unmarshal tree: entry without mode separator", ErrCorruptObject)
		}
		mode := string(data[:sp])
		if !isTreeMode(mode) {
			return nil, fmt.Errorf("%w: unmarshal tree: unknown mode %q", ErrCorruptObject, mode)
		}
		data = data[sp+1:]

		nul := bytes.IndexByte(data, 0)
		if nul < 0 {
			return nil, fmt.Errorf("%w: unmarshal tree: entry name not terminated", ErrCorruptObject)
		}
		name := string(data[:nul])
		data = data[nul+1:]

		if len(data) < HashSize {
			return nil, fmt.Errorf("%w: unmarshal tree: entry %q: short hash", ErrCorruptObject, name)
		}
		var h Hash
		copy(h[:], data[:HashSize])
		data = data[HashSize:]

		tr.Entries = append(tr.Entries, TreeEntry{Mode: mode, Name: name, Hash: h})
	}
	return tr, nil
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// String renders the signature as "Name <email> <unix-seconds> <+HHMM>".
func (s Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When.Unix(), s.When.Format("-0700"))
}

// ParseSignature parses the author/committer line value written by
// Signature.String.
func ParseSignature(line string) (Signature, error) {
	open := strings.LastIndexByte(line, '<')
	closing := strings.LastIndexByte(line, '>')
	if open < 0 || closing < open {
		return Signature{}, fmt.Errorf("signature %q: missing <email>", line)
	}
	sig := Signature{
		Name:  strings.TrimSuffix(line[:open], " "),
		Email: line[open+1 : closing],
	}

	secs, tz, ok := strings.Cut(strings.TrimSpace(line[closing+1:]), " ")
	if !ok {
		return Signature{}, fmt.Errorf("signature %q: missing timezone", line)
	}
	unix, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("signature %q: bad timestamp %q", line, secs)
	}
	loc, err := parseTimezone(tz)
	if err != nil {
		return Signature{}, fmt.Errorf("signature %q: %w", line, err)
	}
	sig.When = time.Unix(unix, 0).In(loc)
	return sig, nil
}

func parseTimezone(tz string) (*time.Location, error) {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return nil, fmt.Errorf("bad timezone %q", tz)
	}
	hours, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return nil, fmt.Errorf("bad timezone %q", tz)
	}
	minutes, err := strconv.Atoi(tz[3:5])
	if err != nil {
		return nil, fmt.Errorf("bad timezone %q", tz)
	}
	offset := hours*3600 + minutes*60
	if tz[0] == '-' {
		offset = -offset
	}
	return time.FixedZone("", offset), nil
}

// MarshalCommit serializes a CommitObj in git's commit format:
//
//	tree H
//	parent H          (zero or more)
//	author A
//	committer C
//	gpgsig S          (optional, continuation lines indented by one space)
//
//	message
//
// The message is written verbatim.
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	if sig := strings.TrimRight(c.Signature, "\n"); sig != "" {
		buf.WriteString("gpgsig ")
		buf.WriteString(strings.ReplaceAll(sig, "\n", "\n "))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// CommitSigningPayload returns the bytes a commit signature covers: the
// commit exactly as MarshalCommit writes it, minus the gpgsig header.
// Verifiers rebuild it by dropping gpgsig and its continuation lines.
func CommitSigningPayload(c *CommitObj) []byte {
	if c == nil {
		return nil
	}
	unsigned := *c
	unsigned.Signature = ""
	return MarshalCommit(&unsigned)
}

// UnmarshalCommit parses a CommitObj from git's commit format. Headers this
// package does not model (encoding, mergetag, ...) are skipped.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("%w: unmarshal commit: missing header/message separator", ErrCorruptObject)
	}
	header := string(data[:idx])
	c := &CommitObj{Message: string(data[idx+2:])}

	var sig []string
	inSig := false
	for _, line := range strings.Split(header, "\n") {
		if strings.HasPrefix(line, " ") {
			if inSig {
				sig = append(sig, line[1:])
			}
			continue
		}
		inSig = false

		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: unmarshal commit: malformed header line %q", ErrCorruptObject, line)
		}
		var err error
		switch key {
		case "tree":
			c.TreeHash, err = ParseHash(val)
		case "parent":
			var p Hash
			p, err = ParseHash(val)
			c.Parents = append(c.Parents, p)
		case "author":
			c.Author, err = ParseSignature(val)
		case "committer":
			c.Committer, err = ParseSignature(val)
		case "gpgsig":
			sig = append(sig, val)
			inSig = true
		}
		if err != nil {
			return nil, fmt.Errorf("%w: unmarshal commit: %s: %v", ErrCorruptObject, key, err)
		}
	}
	if len(sig) > 0 {
		c.Signature = strings.Join(sig, "\n") + "\n"
	}
	if c.TreeHash.IsZero() {
		return nil, fmt.Errorf("%w: unmarshal commit: missing tree", ErrCorruptObject)
	}
	return c, nil
}
