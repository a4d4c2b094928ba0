package closure

import mapset "github.com/deckarep/golang-set/v2"

// idSet is a set of identifiers that remembers insertion order.
type idSet struct {
	members mapset.Set[string]
	order   []string
}

func newIDSet() *idSet {
	return &idSet{members: mapset.NewThreadUnsafeSet[string]()}
}

// Add inserts id and reports whether it was new.
func (s *idSet) Add(id string) bool {
	if !s.members.Add(id) {
		return false
	}
	s.order = append(s.order, id)
	return true
}

// Slice returns the members in insertion order. The result is never nil.
func (s *idSet) Slice() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
