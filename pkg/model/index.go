package model

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/extwrangler/pkg/diag"
	"github.com/matzehuels/extwrangler/pkg/errors"
)

// Alias is an item that resolves to a different canonical item.
type Alias struct {
	Name        string // The aliased (superseded) item
	Target      string // Canonical item at the end of the alias chain
	TargetIndex int    // Output index of Target
}

// Index owns the canonical version sequence and the name to item table.
// It is built once per run and is read-only afterwards, so it can be shared
// by concurrent resolvers.
type Index struct {
	versions   []Version
	versionPos map[string]int

	items  []*Item
	byName map[string]*Item

	aliasOf    map[string]string // alias -> direct target
	promotedTo map[string]string // item -> version

	canonical []*Item
	outIdx    map[string]int
	aliases   []Alias
}

// NewIndex builds an index over versions and items.
//
// Versions are ordered by their dotted number; ties keep input order.
// Items keep registry order, which also fixes the output index of every
// canonical item. Alias targets and promotion targets that do not exist are
// reported as dangling and ignored. Alias edges that would close a cycle are
// dropped the same way.
func NewIndex(versions []Version, items []*Item, rep diag.Reporter) (*Index, error) {
	if rep == nil {
		rep = diag.Discard
	}
	if len(versions) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRegistry, "registry defines no core versions")
	}

	sorted, err := sortVersions(versions)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		versions:   sorted,
		versionPos: make(map[string]int, len(sorted)),
		items:      items,
		byName:     make(map[string]*Item, len(items)),
		aliasOf:    make(map[string]string),
		promotedTo: make(map[string]string),
		outIdx:     make(map[string]int),
	}
	for i, v := range sorted {
		if _, dup := idx.versionPos[v.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidRegistry, "duplicate version %s", v.Name)
		}
		idx.versionPos[v.Name] = i
	}
	for _, it := range items {
		if _, dup := idx.byName[it.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidRegistry, "duplicate extension %s", it.Name)
		}
		if _, clash := idx.versionPos[it.Name]; clash {
			return nil, errors.New(errors.ErrCodeInvalidRegistry, "extension %s shadows a version name", it.Name)
		}
		idx.byName[it.Name] = it
	}

	idx.linkAliases(rep)

	for _, it := range items {
		if _, ok := idx.aliasOf[it.Name]; ok {
			continue
		}
		idx.outIdx[it.Name] = len(idx.canonical)
		idx.canonical = append(idx.canonical, it)
	}
	for _, it := range items {
		if _, ok := idx.aliasOf[it.Name]; !ok {
			continue
		}
		target, _ := idx.Resolve(it.Name)
		idx.aliases = append(idx.aliases, Alias{
			Name:        it.Name,
			Target:      target,
			TargetIndex: idx.outIdx[target],
		})
	}
	return idx, nil
}

func sortVersions(versions []Version) ([]Version, error) {
	type keyed struct {
		v   Version
		num *semver.Version
	}
	ks := make([]keyed, len(versions))
	for i, v := range versions {
		if v.Number == "" {
			v.Number = NumberFromName(v.Name)
		}
		num, err := semver.NewVersion(v.Number)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRegistry, err, "version %s has invalid number %q", v.Name, v.Number)
		}
		ks[i] = keyed{v: v, num: num}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		return ks[i].num.LessThan(ks[j].num)
	})
	out := make([]Version, len(ks))
	for i, k := range ks {
		out[i] = k.v
	}
	return out, nil
}

func (idx *Index) linkAliases(rep diag.Reporter) {
	for _, it := range idx.items {
		ref := it.promotionTarget()
		if ref == "" {
			continue
		}
		if _, ok := idx.versionPos[ref]; ok {
			idx.promotedTo[it.Name] = ref
			continue
		}
		if _, ok := idx.byName[ref]; !ok {
			rep.Report(diag.Warning{
				Kind:    diag.Dangling,
				Item:    it.Name,
				Ref:     ref,
				Message: "promotion target not found",
			})
			continue
		}
		if idx.reaches(ref, it.Name) {
			rep.Report(diag.Warning{
				Kind:    diag.Dangling,
				Item:    it.Name,
				Ref:     ref,
				Message: "alias cycle",
			})
			continue
		}
		idx.aliasOf[it.Name] = ref
	}
}

// reaches reports whether following alias edges from name ends at target.
func (idx *Index) reaches(name, target string) bool {
	for cur := name; ; {
		if cur == target {
			return true
		}
		next, ok := idx.aliasOf[cur]
		if !ok {
			return false
		}
		cur = next
	}
}

// =============================================================================
// Versions
// =============================================================================

// Versions returns the canonical version sequence. Callers must not modify it.
func (idx *Index) Versions() []Version { return idx.versions }

// Base returns the first version of the sequence.
func (idx *Index) Base() Version { return idx.versions[0] }

// Last returns the last version of the sequence.
func (idx *Index) Last() Version { return idx.versions[len(idx.versions)-1] }

// HasVersion reports whether name is a known version.
func (idx *Index) HasVersion(name string) bool {
	_, ok := idx.versionPos[name]
	return ok
}

// VersionIndex returns the position of name in the canonical sequence.
func (idx *Index) VersionIndex(name string) (int, bool) {
	i, ok := idx.versionPos[name]
	return i, ok
}

// Version looks up a version by name.
func (idx *Index) Version(name string) (Version, bool) {
	i, ok := idx.versionPos[name]
	if !ok {
		return Version{}, false
	}
	return idx.versions[i], true
}

// VersionsFrom returns the suffix of the sequence starting at name, or nil
// if name is unknown.
func (idx *Index) VersionsFrom(name string) []Version {
	i, ok := idx.versionPos[name]
	if !ok {
		return nil
	}
	return idx.versions[i:]
}

// =============================================================================
// Items
// =============================================================================

// Item looks up an item by its literal name, without following aliases.
func (idx *Index) Item(name string) (*Item, bool) {
	it, ok := idx.byName[name]
	return it, ok
}

// Items returns every item in registry order, aliases included.
func (idx *Index) Items() []*Item { return idx.items }

// Canonical returns the non-aliased items in output index order.
func (idx *Index) Canonical() []*Item { return idx.canonical }

// Aliases returns the alias items in registry order.
func (idx *Index) Aliases() []Alias { return idx.aliases }

// IsAlias reports whether name is an alias of another item.
func (idx *Index) IsAlias(name string) bool {
	_, ok := idx.aliasOf[name]
	return ok
}

// Resolve follows alias edges from name to the canonical item. It returns
// false when name is not a known item.
func (idx *Index) Resolve(name string) (string, bool) {
	if _, ok := idx.byName[name]; !ok {
		return "", false
	}
	cur := name
	for {
		next, ok := idx.aliasOf[cur]
		if !ok {
			return cur, true
		}
		cur = next
	}
}

// OutputIndex returns the stable output index of name, following aliases.
func (idx *Index) OutputIndex(name string) (int, bool) {
	canon, ok := idx.Resolve(name)
	if !ok {
		return 0, false
	}
	i, ok := idx.outIdx[canon]
	return i, ok
}

// PromotionVersion returns the version name was promoted into, if any.
func (idx *Index) PromotionVersion(name string) (string, bool) {
	v, ok := idx.promotedTo[name]
	return v, ok
}

// Promoted returns the items promoted into version, in registry order.
func (idx *Index) Promoted(version string) []*Item {
	var out []*Item
	for _, it := range idx.items {
		if v, ok := idx.promotedTo[it.Name]; ok && v == version {
			out = append(out, it)
		}
	}
	return out
}

// ItemsOfType returns the canonical items whose Type is typ.
func (idx *Index) ItemsOfType(typ string) []*Item {
	var out []*Item
	for _, it := range idx.canonical {
		if it.Type == typ {
			out = append(out, it)
		}
	}
	return out
}
