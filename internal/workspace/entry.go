package workspace

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Kind classifies a directory entry. Dir sorts before File.
type Kind uint8

const (
	Dir Kind = iota
	File
)

func (k Kind) String() string {
	switch k {
	case Dir:
		return "Dir"
	case File:
		return "File"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if k > File {
		return nil, fmt.Errorf("unknown entry kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Dir":
		*k = Dir
	case "File":
		*k = File
	default:
		return fmt.Errorf("unknown entry kind %q", b)
	}
	return nil
}

// Entry is one child of a listed directory.
type Entry struct {
	Kind     Kind       `json:"kind"`
	Name     string     `json:"name"`
	Size     *int64     `json:"size,omitempty"`
	Modified *time.Time `json:"modified,omitempty"`
}

// Compare orders directories before files, then names ascending.
func Compare(a, b Entry) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

// Equal reports whether a and b name the same kind of entry. Size and
// modification time are ignored.
func Equal(a, b Entry) bool {
	return a.Kind == b.Kind && a.Name == b.Name
}

// SortEntries sorts entries in place by Compare.
func SortEntries(entries []Entry) {
	slices.SortFunc(entries, Compare)
}

// Directory is the result of a listing. Parent is nil when the workspace
// root itself was listed.
type Directory struct {
	Parent  *string `json:"parent"`
	Entries []Entry `json:"entries"`
}
