package models

import "encoding/json"

// IDSet is an ordered set of identity or post IDs. Insertion order is kept and
// removal happens in place, so a bookmark list reads back in the order it was built.
type IDSet []string

// Contains reports whether id is a member.
func (s IDSet) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends id when absent.
func (s IDSet) Add(id string) IDSet {
	if s.Contains(id) {
		return s
	}
	return append(s, id)
}

// Remove drops every occurrence of id.
func (s IDSet) Remove(id string) IDSet {
	out := make(IDSet, 0, len(s))
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Toggle flips membership of id and reports whether it is a member afterwards.
func (s IDSet) Toggle(id string) (IDSet, bool) {
	if s.Contains(id) {
		return s.Remove(id), false
	}
	return s.Add(id), true
}

// Slice returns a copy of the members, never nil.
func (s IDSet) Slice() []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// MarshalJSON renders a nil set as an empty array.
func (s IDSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}
