package resolve

import (
	"slices"

	"github.com/matzehuels/extwrangler/pkg/diag"
	"github.com/matzehuels/extwrangler/pkg/model"
)

// Finalize normalizes item.Deps in place.
//
// Gap fill: a non-empty entry is copied forward into versions without an
// entry of their own, up to the next explicit entry. Explicit empty entries
// are boundaries and are never overwritten.
//
// Promotion overlay: when item was promoted into a version, that version and
// every later one are replaced by [model.PromotedMarker].
//
// Finalize is idempotent.
func Finalize(item *model.Item, idx *model.Index) {
	if item.Deps == nil {
		item.Deps = model.DependencyMap{}
	}
	fillGaps(item.Deps, idx.Versions())
	if pv, ok := idx.PromotionVersion(item.Name); ok {
		for _, v := range idx.VersionsFrom(pv) {
			item.Deps.SetPromoted(v.Name)
		}
	}
}

func fillGaps(m model.DependencyMap, versions []model.Version) {
	var carry []model.Dependency
	for _, v := range versions {
		entry, ok := m[v.Name]
		if ok {
			carry = nil
			if len(entry) > 0 && !m.IsPromoted(v.Name) {
				carry = entry
			}
			continue
		}
		if carry != nil {
			m[v.Name] = slices.Clone(carry)
		}
	}
}

// Verify checks a finalized map against the registry metadata and reports
// every mismatch as an inconsistency. It never changes the map.
//
// The checks are: the promotion version carries the marker, no entry mixes
// the marker with extensions, and from the first extension-bearing entry
// onward every version has an entry.
func Verify(item *model.Item, idx *model.Index, rep diag.Reporter) int {
	if rep == nil {
		rep = diag.Discard
	}
	n := 0
	warn := func(ref, msg string) {
		n++
		rep.Report(diag.Warning{Kind: diag.Inconsistent, Item: item.Name, Ref: ref, Message: msg})
	}

	if pv, ok := idx.PromotionVersion(item.Name); ok && !item.Deps.IsPromoted(pv) {
		warn(pv, "promotion version lacks promoted marker")
	}

	started := false
	for _, v := range idx.Versions() {
		entry, ok := item.Deps[v.Name]
		if !ok {
			if started {
				warn(v.Name, "gap in dependency map")
			}
			continue
		}
		if len(entry) > 1 && slices.Contains(entry, model.PromotedMarker) {
			warn(v.Name, "promoted marker mixed with dependencies")
		}
		if len(item.Deps.Names(v.Name)) > 0 {
			started = true
		}
	}
	return n
}
