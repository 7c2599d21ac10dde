package build

import "sort"

// ChangeSet accumulates filesystem paths reported while a rebuild is
// pending. Duplicate reports for the same path coalesce into one entry.
type ChangeSet struct {
	paths map[string]struct{}
}

func NewChangeSet() *ChangeSet {
	return &ChangeSet{paths: map[string]struct{}{}}
}

func (cs *ChangeSet) Add(path string) {
	cs.paths[path] = struct{}{}
}

// Merge absorbs another set, leaving other unchanged.
func (cs *ChangeSet) Merge(other *ChangeSet) {
	if other == nil {
		return
	}
	for p := range other.paths {
		cs.paths[p] = struct{}{}
	}
}

func (cs *ChangeSet) Len() int { return len(cs.paths) }

// Paths returns the coalesced paths in sorted order.
func (cs *ChangeSet) Paths() []string {
	out := make([]string, 0, len(cs.paths))
	for p := range cs.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
