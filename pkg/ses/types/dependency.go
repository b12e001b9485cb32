package types

// DependencyMap is SES's auxiliary per-peer record: for each peer k != self,
// either no entry (the "empty" case in spec.md §3) or a vector timestamp
// that k must causally dominate before it accepts further messages from
// self. Absence is a proper sentinel-free "nothing recorded yet"; it must
// never be confused with a present-but-zero vector.
type DependencyMap map[int]VectorTimestamp

// NewDependencyMap returns an empty dependency map.
func NewDependencyMap() DependencyMap {
	return make(DependencyMap)
}

// Copy returns a deep value-copy of d.
func (d DependencyMap) Copy() DependencyMap {
	cp := make(DependencyMap, len(d))
	for k, v := range d {
		cp[k] = v.Copy()
	}
	return cp
}

// MergeInto merges vt into d[peer], treating an absent entry as identity
// (spec.md §4.1 on_send step 3: "merge(D[k], VC_after) treating empty as
// identity").
func (d DependencyMap) MergeInto(peer int, vt VectorTimestamp) {
	if existing, ok := d[peer]; ok {
		d[peer] = existing.Merge(vt)
	} else {
		d[peer] = vt.Copy()
	}
}

// Clear removes any entry for peer, restoring the absent/empty state.
func (d DependencyMap) Clear(peer int) {
	delete(d, peer)
}
