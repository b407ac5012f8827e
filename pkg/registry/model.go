package registry

import (
	"strings"

	"github.com/matzehuels/extwrangler/pkg/model"
)

// ModelVersions maps the registry versions onto model versions.
func (r *Registry) ModelVersions() []model.Version {
	out := make([]model.Version, 0, len(r.Versions))
	for _, v := range r.Versions {
		out = append(out, model.Version{
			Name:   v.Name,
			Number: v.Number,
			API:    strings.Join(v.API, ","),
		})
	}
	return out
}

// ModelItems maps the registry extensions onto model items, in registry
// order. When qs is non-nil, items owning neither a feature nor a property
// struct are flagged with NoQueryStruct.
func (r *Registry) ModelItems(qs *QueryStructs) []*model.Item {
	out := make([]*model.Item, 0, len(r.Extensions))
	for _, x := range r.Extensions {
		it := &model.Item{
			Name:         x.Name,
			Type:         x.Type,
			PromotedTo:   x.PromotedTo,
			ObsoletedBy:  x.ObsoletedBy,
			DeprecatedBy: x.DeprecatedBy,
			Depends:      strings.TrimSpace(x.Depends),
		}
		if qs != nil {
			it.NoQueryStruct = !qs.HasQueryStruct(x.Name)
		}
		out = append(out, it)
	}
	return out
}
