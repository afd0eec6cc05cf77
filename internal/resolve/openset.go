package resolve

import "github.com/google/uuid"

// OpenSet tracks the playlist ids currently being expanded along one path.
// Enter copies before adding, so sibling branches never observe each other's
// state: the same sub-playlist may appear in two branches of one tree as long
// as neither is an ancestor of the other.
type OpenSet map[uuid.UUID]struct{}

func (s OpenSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Enter returns (set ∪ {id}, true) as a fresh copy, or (s, false) if id is
// already open on this path.
func (s OpenSet) Enter(id uuid.UUID) (OpenSet, bool) {
	if s.Contains(id) {
		return s, false
	}
	next := make(OpenSet, len(s)+1)
	for k := range s {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}
	return next, true
}
