package model

import "slices"

// DependencyKind tags a [Dependency].
type DependencyKind int

const (
	// KindExtension is a prerequisite extension, identified by Name.
	KindExtension DependencyKind = iota
	// KindPromoted marks an entry as promoted to core: the item is part of
	// the version and has no separate prerequisites.
	KindPromoted
)

// Dependency is one element of a dependency map entry.
type Dependency struct {
	Kind DependencyKind
	Name string // Extension name, empty for KindPromoted
}

// PromotedMarker is the single element of an entry for a version the item
// was promoted into.
var PromotedMarker = Dependency{Kind: KindPromoted}

// DependencyMap maps a version name to the prerequisites in effect on that
// version. A present key with an empty list is a pure version requirement:
// the version alone suffices. Iterate with [DependencyMap.Keys] to get the
// canonical version order.
type DependencyMap map[string][]Dependency

// Ensure creates an empty entry for version if none exists.
func (m DependencyMap) Ensure(version string) {
	if _, ok := m[version]; !ok {
		m[version] = []Dependency{}
	}
}

// Has reports whether version has an explicit entry.
func (m DependencyMap) Has(version string) bool {
	_, ok := m[version]
	return ok
}

// Append adds extension dependencies to version's entry, creating it when
// absent. Names already present are skipped so first-seen order is kept.
// Appending to a promoted entry is a no-op.
func (m DependencyMap) Append(version string, names ...string) {
	entry, ok := m[version]
	if !ok {
		entry = []Dependency{}
	}
	if isPromoted(entry) {
		return
	}
	for _, name := range names {
		d := Dependency{Kind: KindExtension, Name: name}
		if !slices.Contains(entry, d) {
			entry = append(entry, d)
		}
	}
	m[version] = entry
}

// SetPromoted replaces version's entry with [PromotedMarker].
func (m DependencyMap) SetPromoted(version string) {
	m[version] = []Dependency{PromotedMarker}
}

// IsPromoted reports whether version's entry is the promotion marker.
func (m DependencyMap) IsPromoted(version string) bool {
	return isPromoted(m[version])
}

func isPromoted(entry []Dependency) bool {
	return len(entry) == 1 && entry[0].Kind == KindPromoted
}

// Names returns the extension names of version's entry, in order.
func (m DependencyMap) Names(version string) []string {
	var names []string
	for _, d := range m[version] {
		if d.Kind == KindExtension {
			names = append(names, d.Name)
		}
	}
	return names
}

// Keys returns the versions present in m, ordered by versions.
// Keys not in versions are omitted.
func (m DependencyMap) Keys(versions []Version) []string {
	var keys []string
	for _, v := range versions {
		if _, ok := m[v.Name]; ok {
			keys = append(keys, v.Name)
		}
	}
	return keys
}

// MaxLen returns the length of the longest entry.
func (m DependencyMap) MaxLen() int {
	n := 0
	for _, entry := range m {
		n = max(n, len(entry))
	}
	return n
}

// Clone returns a deep copy of m.
func (m DependencyMap) Clone() DependencyMap {
	if m == nil {
		return nil
	}
	out := make(DependencyMap, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// Equal reports whether m and o have the same keys and identical entries.
func (m DependencyMap) Equal(o DependencyMap) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		ov, ok := o[k]
		if !ok || !slices.Equal(v, ov) {
			return false
		}
	}
	return true
}
