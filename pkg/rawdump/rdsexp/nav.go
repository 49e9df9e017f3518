package rdsexp

import (
	"fmt"
	"strconv"
)

// FindAll returns the sub-lists of s whose head is key.
func FindAll(s *List, key string) []*List {
	var out []*List
	for _, it := range s.Items {
		if l, ok := it.(*List); ok && l.Head() == key {
			out = append(out, l)
		}
	}
	return out
}

// Find returns the first sub-list of s whose head is key.
func Find(s *List, key string) (*List, bool) {
	for _, it := range s.Items {
		if l, ok := it.(*List); ok && l.Head() == key {
			return l, true
		}
	}
	return nil, false
}

// GetString returns the atom at index (0 is the head), quoted or not.
func GetString(s *List, index int) (string, error) {
	if index < 0 || index >= len(s.Items) {
		return "", fmt.Errorf("line %d: (%s): missing argument %d", s.Line, s.Head(), index)
	}
	switch a := s.Items[index].(type) {
	case Symbol:
		return string(a), nil
	case String:
		return string(a), nil
	}
	return "", fmt.Errorf("line %d: (%s): argument %d is a list", s.Line, s.Head(), index)
}

// GetInt returns the atom at index parsed as an integer.
func GetInt(s *List, index int) (int, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("line %d: (%s): failed to parse int %q: %w", s.Line, s.Head(), str, err)
	}
	return v, nil
}

// HasSymbol reports whether a bare symbol equal to sym follows the head.
// Quoted strings never match.
func HasSymbol(s *List, sym string) bool {
	for _, it := range s.Items[1:] {
		if a, ok := it.(Symbol); ok && string(a) == sym {
			return true
		}
	}
	return false
}
