// Package labels defines the closed set of sign labels shared by collection,
// classification and sentence assembly.
package labels

import (
	"fmt"
	"sort"
)

// Codes for results that do not correspond to a trained label.
const (
	NoHands = -1
	Unknown = -2
)

// Names used for the non-label codes on the wire.
const (
	NoHandsName = "No Hands"
	UnknownName = "Unknown"
)

// Label is one entry of the label set.
type Label struct {
	Code int    `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
	// Key is the collection trigger key. Empty means the label cannot be
	// recorded from the keyboard.
	Key string `json:"key,omitempty" yaml:"key"`
}

// Set is an immutable code to label mapping.
type Set struct {
	byCode map[int]Label
	codes  []int
}

// NewSet builds a Set and rejects duplicate codes, duplicate keys, negative
// codes and empty names.
func NewSet(list []Label) (*Set, error) {
	s := &Set{byCode: make(map[int]Label, len(list))}
	keys := make(map[string]int)

	for _, l := range list {
		if l.Code < 0 {
			return nil, fmt.Errorf("labels: code %d must be >= 0", l.Code)
		}
		if l.Name == "" {
			return nil, fmt.Errorf("labels: code %d has no name", l.Code)
		}
		if _, dup := s.byCode[l.Code]; dup {
			return nil, fmt.Errorf("labels: duplicate code %d", l.Code)
		}
		if l.Key != "" {
			if other, dup := keys[l.Key]; dup {
				return nil, fmt.Errorf("labels: key %q bound to codes %d and %d", l.Key, other, l.Code)
			}
			keys[l.Key] = l.Code
		}
		s.byCode[l.Code] = l
		s.codes = append(s.codes, l.Code)
	}

	sort.Ints(s.codes)
	return s, nil
}

// Default returns the ten-sign vocabulary the bundled model was trained on.
func Default() []Label {
	return []Label{
		{Code: 0, Name: "A", Key: "a"},
		{Code: 1, Name: "B", Key: "b"},
		{Code: 2, Name: "C", Key: "c"},
		{Code: 3, Name: "No-Op", Key: "n"},
		{Code: 4, Name: "Hello", Key: "h"},
		{Code: 5, Name: "My", Key: "m"},
		{Code: 6, Name: "Name", Key: "e"},
		{Code: 7, Name: "T", Key: "t"},
		{Code: 8, Name: "E", Key: "p"},
		{Code: 9, Name: "O", Key: "o"},
	}
}

// MustDefault returns the default set. It panics only if Default is broken.
func MustDefault() *Set {
	s, err := NewSet(Default())
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the label for code.
func (s *Set) Lookup(code int) (Label, bool) {
	l, ok := s.byCode[code]
	return l, ok
}

// Name returns the display string for any result code, including the
// NoHands and Unknown sentinels.
func (s *Set) Name(code int) string {
	if code == NoHands {
		return NoHandsName
	}
	if l, ok := s.byCode[code]; ok {
		return l.Name
	}
	return UnknownName
}

// Contains reports whether code is a trained label.
func (s *Set) Contains(code int) bool {
	_, ok := s.byCode[code]
	return ok
}

// Len returns the number of labels.
func (s *Set) Len() int {
	return len(s.codes)
}

// All returns the labels ordered by code.
func (s *Set) All() []Label {
	out := make([]Label, 0, len(s.codes))
	for _, c := range s.codes {
		out = append(out, s.byCode[c])
	}
	return out
}
