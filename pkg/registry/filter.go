package registry

import "slices"

// Removal records a registry record left out of the model.
type Removal struct {
	Name   string
	Reason string
}

// Removal reasons.
const (
	ReasonDisabled    = "disabled"
	ReasonExcludedAPI = "only supported by excluded APIs"
	ReasonZeroVersion = "zero spec version"
	ReasonInternal    = "internal API block"
)

// FilterUnsupported drops versions and extensions that do not belong in the
// generated tables and returns what was removed, versions first.
//
// A version is dropped when it is an internal API block or every API it
// belongs to is excluded. An extension is dropped when it is disabled, when
// every API that supports it is excluded, or when its spec version is 0.
func (r *Registry) FilterUnsupported(excludeAPIs []string) []Removal {
	var removed []Removal

	versions := r.Versions[:0]
	for _, v := range r.Versions {
		switch {
		case v.APIType == "internal":
			removed = append(removed, Removal{Name: v.Name, Reason: ReasonInternal})
		case onlyExcluded(v.API, excludeAPIs):
			removed = append(removed, Removal{Name: v.Name, Reason: ReasonExcludedAPI})
		default:
			versions = append(versions, v)
		}
	}
	r.Versions = versions

	exts := r.Extensions[:0]
	for _, x := range r.Extensions {
		switch {
		case slices.Contains(x.Supported, "disabled"):
			removed = append(removed, Removal{Name: x.Name, Reason: ReasonDisabled})
		case onlyExcluded(x.Supported, excludeAPIs):
			removed = append(removed, Removal{Name: x.Name, Reason: ReasonExcludedAPI})
		case x.SpecVersion == "0":
			removed = append(removed, Removal{Name: x.Name, Reason: ReasonZeroVersion})
		default:
			exts = append(exts, x)
		}
	}
	r.Extensions = exts
	return removed
}

// onlyExcluded reports whether apis is non-empty and entirely excluded.
func onlyExcluded(apis, exclude []string) bool {
	if len(apis) == 0 || len(exclude) == 0 {
		return false
	}
	for _, a := range apis {
		if !slices.Contains(exclude, a) {
			return false
		}
	}
	return true
}
