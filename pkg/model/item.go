package model

// Item types used by the registry.
const (
	TypeDevice   = "device"
	TypeInstance = "instance"
)

// Item is one extension.
type Item struct {
	Name         string
	Type         string // TypeDevice or TypeInstance
	PromotedTo   string // Extension or version name, empty if never promoted
	ObsoletedBy  string // Extension name, empty if not obsoleted
	DeprecatedBy string // Extension name, informational only
	Depends      string // Raw dependency expression, empty if none

	// NoQueryStruct is set when the extension exposes no feature or
	// property struct that can be chained into a device query.
	NoQueryStruct bool

	// Deps is filled by the resolver and normalized by the finalizer.
	Deps DependencyMap
}

// HasDepends reports whether the item carries a dependency expression.
func (it *Item) HasDepends() bool {
	return it.Depends != ""
}

// promotionTarget returns the reference used for alias/promotion handling:
// promotedto, falling back to obsoletedby.
func (it *Item) promotionTarget() string {
	if it.PromotedTo != "" {
		return it.PromotedTo
	}
	return it.ObsoletedBy
}
