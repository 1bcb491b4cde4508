package pytree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned by ParseKeyPath for malformed paths.
var ErrInvalidPath = errors.New("invalid key path")

// EntryKind identifies how a path step accesses its child.
type EntryKind int

// Path step kinds.
const (
	KeyEntry   EntryKind = iota // Dict key
	IndexEntry                  // List index
	FieldEntry                  // Record field
)

// PathEntry is one access step from a parent to a child.
type PathEntry struct {
	Kind  EntryKind
	Key   string // Dict key or Record field
	Index int    // List index
}

// Key returns a Dict key step.
func Key(k string) PathEntry { return PathEntry{Kind: KeyEntry, Key: k} }

// Index returns a List index step.
func Index(i int) PathEntry { return PathEntry{Kind: IndexEntry, Index: i} }

// Field returns a Record field step.
func Field(f string) PathEntry { return PathEntry{Kind: FieldEntry, Key: f} }

// KeyPath is the sequence of steps from the root to a node.
type KeyPath []PathEntry

// String renders the canonical path: keys and fields joined with ".",
// indices as "[i]". The root path renders as "".
//
//	a
//	b.c
//	layers[0].weight
func (p KeyPath) String() string {
	var sb strings.Builder
	for i, e := range p {
		if e.Kind == IndexEntry {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(e.Index))
			sb.WriteByte(']')
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(e.Key)
	}
	return sb.String()
}

// ParseKeyPath parses the canonical form produced by KeyPath.String.
// Named steps come back as KeyEntry; the text form does not distinguish
// Dict keys from Record fields.
func ParseKeyPath(s string) (KeyPath, error) {
	var path KeyPath
	for i := 0; i < len(s); {
		switch {
		case s[i] == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: %q: unclosed '[' at %d", ErrInvalidPath, s, i)
			}
			idx, err := strconv.Atoi(s[i+1 : i+end])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("%w: %q: bad index %q", ErrInvalidPath, s, s[i+1:i+end])
			}
			path = append(path, Index(idx))
			i += end + 1
		case s[i] == '.' && len(path) > 0:
			i++
			if i == len(s) || s[i] == '.' || s[i] == '[' {
				return nil, fmt.Errorf("%w: %q: empty key at %d", ErrInvalidPath, s, i)
			}
		case s[i] == '.' || s[i] == ']':
			return nil, fmt.Errorf("%w: %q: unexpected %q at %d", ErrInvalidPath, s, s[i], i)
		default:
			if len(path) > 0 && s[i-1] != '.' {
				return nil, fmt.Errorf("%w: %q: missing '.' before %d", ErrInvalidPath, s, i)
			}
			end := strings.IndexAny(s[i:], ".[]")
			if end < 0 {
				end = len(s) - i
			}
			path = append(path, Key(s[i:i+end]))
			i += end
		}
	}
	return path, nil
}

// child extends p by one step without aliasing p's backing array.
func (p KeyPath) child(e PathEntry) KeyPath {
	return append(p[:len(p):len(p)], e)
}
