package internal

import (
	"fmt"
	"strconv"
	"strings"
)

// FragmentID identifies a fragment as "<source>#<ordinal>".
type FragmentID string

func NewFragmentID(source string, ordinal int) FragmentID {
	return FragmentID(source + "#" + strconv.Itoa(ordinal))
}

func (id FragmentID) String() string {
	return string(id)
}

// Split returns the source and ordinal encoded in the id.
func (id FragmentID) Split() (string, int, error) {
	s := string(id)
	i := strings.LastIndexByte(s, '#')
	if i < 0 {
		return "", 0, fmt.Errorf("%w: fragment id %q has no ordinal", ErrInvalidArgument, s)
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("%w: fragment id %q has no ordinal", ErrInvalidArgument, s)
	}
	return s[:i], n, nil
}

// Fragment is a bounded span of source text. Values are never mutated
// after the chunker produces them.
type Fragment struct {
	ID      FragmentID `json:"id"`
	Source  string     `json:"source"`
	Ordinal int        `json:"ordinal"`
	Offset  int        `json:"offset"`
	Content string     `json:"content"`
}
