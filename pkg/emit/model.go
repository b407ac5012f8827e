package emit

import (
	"github.com/matzehuels/extwrangler/pkg/diag"
	"github.com/matzehuels/extwrangler/pkg/model"
	"github.com/matzehuels/extwrangler/pkg/registry"
)

// Model is the serializable form of a resolved registry.
type Model struct {
	// RegistryHash is the upper-case SHA-256 of the registry bytes.
	RegistryHash string        `json:"registry_hash" yaml:"registry_hash"`
	Versions     []Version     `json:"versions" yaml:"versions"`
	Extensions   []Extension   `json:"extensions" yaml:"extensions"`
	Aliases      []Alias       `json:"aliases" yaml:"aliases"`
	FeatureChain []QueryStruct `json:"feature_chain,omitempty" yaml:"feature_chain,omitempty"`

	// Warnings are the reported diagnostics of the run that built the
	// model. They travel with cached models so every run shows them.
	Warnings []diag.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Version is one core version.
type Version struct {
	Name   string `json:"name" yaml:"name"`
	Number string `json:"number" yaml:"number"`
	Macro  string `json:"macro" yaml:"macro"`
	// Promoted lists the extensions that became core in this version.
	Promoted []string `json:"promoted,omitempty" yaml:"promoted,omitempty"`
}

// Extension is a canonical extension. Index is its output index.
type Extension struct {
	Index          int          `json:"index" yaml:"index"`
	Name           string       `json:"name" yaml:"name"`
	Type           string       `json:"type" yaml:"type"`
	Depends        string       `json:"depends,omitempty" yaml:"depends,omitempty"`
	PromotedTo     string       `json:"promoted_to,omitempty" yaml:"promoted_to,omitempty"`
	DeprecatedBy   string       `json:"deprecated_by,omitempty" yaml:"deprecated_by,omitempty"`
	NoQueryStruct  bool         `json:"no_query_struct,omitempty" yaml:"no_query_struct,omitempty"`
	FeatureStruct  *QueryStruct `json:"feature_struct,omitempty" yaml:"feature_struct,omitempty"`
	PropertyStruct *QueryStruct `json:"property_struct,omitempty" yaml:"property_struct,omitempty"`
	Deps           []Entry      `json:"deps" yaml:"deps"`
}

// Entry is the finalized dependency entry of one version.
type Entry struct {
	Version  string   `json:"version" yaml:"version"`
	Promoted bool     `json:"promoted,omitempty" yaml:"promoted,omitempty"`
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// Alias maps a superseded extension name to its canonical extension.
type Alias struct {
	Name        string `json:"name" yaml:"name"`
	Target      string `json:"target" yaml:"target"`
	TargetIndex int    `json:"target_index" yaml:"target_index"`
}

// QueryStruct is a feature or property struct and its owner.
type QueryStruct struct {
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty"`
	Name  string `json:"name" yaml:"name"`
	SType string `json:"stype" yaml:"stype"`
}

// Build snapshots idx. Every canonical item must already be finalized.
// qs may be nil when query structs are not generated.
func Build(idx *model.Index, qs *registry.QueryStructs, registryHash string) *Model {
	m := &Model{RegistryHash: registryHash}

	for _, v := range idx.Versions() {
		ver := Version{Name: v.Name, Number: v.Number, Macro: v.Macro()}
		if ver.Number == "" {
			ver.Number = model.NumberFromName(v.Name)
		}
		for _, it := range idx.Promoted(v.Name) {
			ver.Promoted = append(ver.Promoted, it.Name)
		}
		m.Versions = append(m.Versions, ver)
	}

	for i, it := range idx.Canonical() {
		ext := Extension{
			Index:         i,
			Name:          it.Name,
			Type:          it.Type,
			Depends:       it.Depends,
			PromotedTo:    it.PromotedTo,
			DeprecatedBy:  it.DeprecatedBy,
			NoQueryStruct: it.NoQueryStruct,
		}
		if qs != nil {
			ext.FeatureStruct = owned(qs.Features, it.Name)
			ext.PropertyStruct = owned(qs.Properties, it.Name)
		}
		for _, key := range it.Deps.Keys(idx.Versions()) {
			e := Entry{Version: key}
			if it.Deps.IsPromoted(key) {
				e.Promoted = true
			} else {
				e.Requires = it.Deps.Names(key)
			}
			ext.Deps = append(ext.Deps, e)
		}
		m.Extensions = append(m.Extensions, ext)
	}

	for _, a := range idx.Aliases() {
		m.Aliases = append(m.Aliases, Alias{Name: a.Name, Target: a.Target, TargetIndex: a.TargetIndex})
	}

	if qs != nil {
		owners := make(map[string]string, len(qs.Features))
		for owner, s := range qs.Features {
			owners[s.Name] = owner
		}
		for _, s := range qs.Chain {
			if s.Name == registry.FeaturesBase {
				continue
			}
			m.FeatureChain = append(m.FeatureChain, QueryStruct{Owner: owners[s.Name], Name: s.Name, SType: s.SType})
		}
	}
	return m
}

func owned(group map[string]registry.Struct, owner string) *QueryStruct {
	s, ok := group[owner]
	if !ok || s.SType == "" {
		return nil
	}
	return &QueryStruct{Owner: owner, Name: s.Name, SType: s.SType}
}

// Extension looks up an extension by name, following aliases.
func (m *Model) Extension(name string) (*Extension, bool) {
	for _, a := range m.Aliases {
		if a.Name == name {
			name = a.Target
			break
		}
	}
	for i := range m.Extensions {
		if m.Extensions[i].Name == name {
			return &m.Extensions[i], true
		}
	}
	return nil, false
}

// VersionIndex returns the position of a version name.
func (m *Model) VersionIndex(name string) (int, bool) {
	for i, v := range m.Versions {
		if v.Name == name {
			return i, true
		}
	}
	return 0, false
}

// EntryAt returns the entry in effect for ext on version: the entry of the
// latest version not after it. It returns false when ext is not available
// on version.
func (m *Model) EntryAt(ext *Extension, version string) (Entry, bool) {
	target, ok := m.VersionIndex(version)
	if !ok {
		return Entry{}, false
	}
	var best Entry
	found := false
	for _, e := range ext.Deps {
		i, ok := m.VersionIndex(e.Version)
		if ok && i <= target {
			best, found = e, true
		}
	}
	return best, found
}

// MaxDeps returns the widest dependency list of any entry.
func (m *Model) MaxDeps() int {
	n := 0
	for _, ext := range m.Extensions {
		for _, e := range ext.Deps {
			n = max(n, len(e.Requires))
		}
	}
	return n
}
