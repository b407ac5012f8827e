package registry

import (
	"fmt"
	"strings"

	"github.com/matzehuels/extwrangler/pkg/model"
)

// Structs extended by feature and property query structs.
const (
	FeaturesBase   = "VkPhysicalDeviceFeatures2"
	PropertiesBase = "VkPhysicalDeviceProperties2"

	featuresBaseSType = "VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_FEATURES_2"
)

// QueryStructs groups the feature and property structs by owner, which is
// either an extension name or a core version name.
type QueryStructs struct {
	Features   map[string]Struct
	Properties map[string]Struct

	// Chain lists the feature structs of every owner in registry order,
	// ending with the VkPhysicalDeviceFeatures2 root.
	Chain []Struct

	// Missing lists structs whose sType value could not be found.
	Missing []string
}

// FeatureStructs returns the structs extending VkPhysicalDeviceFeatures2.
func (r *Registry) FeatureStructs() []Struct { return r.extending(FeaturesBase) }

// PropertyStructs returns the structs extending VkPhysicalDeviceProperties2.
func (r *Registry) PropertyStructs() []Struct { return r.extending(PropertiesBase) }

func (r *Registry) extending(base string) []Struct {
	var out []Struct
	for _, s := range r.Structs {
		for _, e := range s.Extends {
			if e == base {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// CoreStructName returns the aggregate struct of a core version, e.g.
// VkPhysicalDeviceVulkan12Features for VK_VERSION_1_2 and kind "Features".
func CoreStructName(v model.Version, kind string) string {
	num := v.Number
	if num == "" {
		num = model.NumberFromName(v.Name)
	}
	return fmt.Sprintf("VkPhysicalDeviceVulkan%s%s", strings.ReplaceAll(num, ".", ""), kind)
}

// GroupQueryStructs assigns feature and property structs to the given
// versions and extensions. A version owns its VkPhysicalDeviceVulkanXY
// aggregate; an extension owns the first struct it requires whose name
// contains the kind ("Features" or "Properties"). Each struct has at most
// one owner.
func (r *Registry) GroupQueryStructs(versions []model.Version, exts []Extension) QueryStructs {
	qs := QueryStructs{
		Features:   make(map[string]Struct),
		Properties: make(map[string]Struct),
	}

	features := indexStructs(r.FeatureStructs())
	properties := indexStructs(r.PropertyStructs())

	for _, kind := range []struct {
		name  string
		pool  map[string]Struct
		group map[string]Struct
	}{
		{"Features", features, qs.Features},
		{"Properties", properties, qs.Properties},
	} {
		for _, v := range versions {
			name := CoreStructName(v, kind.name)
			if s, ok := kind.pool[name]; ok {
				kind.group[v.Name] = s
				delete(kind.pool, name)
			}
		}
		for _, x := range exts {
			for _, t := range x.RequiredTypes {
				if !strings.Contains(t, kind.name) {
					continue
				}
				if s, ok := kind.pool[t]; ok {
					kind.group[x.Name] = s
					delete(kind.pool, t)
					break
				}
			}
		}
	}

	owned := make(map[string]bool, len(qs.Features))
	for _, s := range qs.Features {
		owned[s.Name] = true
	}
	for _, s := range r.FeatureStructs() {
		if !owned[s.Name] {
			continue
		}
		if s.SType == "" {
			qs.Missing = append(qs.Missing, s.Name)
			continue
		}
		qs.Chain = append(qs.Chain, s)
	}
	qs.Chain = append(qs.Chain, Struct{Name: FeaturesBase, SType: featuresBaseSType})
	return qs
}

// HasQueryStruct reports whether owner has a feature or property struct.
func (qs QueryStructs) HasQueryStruct(owner string) bool {
	_, f := qs.Features[owner]
	_, p := qs.Properties[owner]
	return f || p
}

func indexStructs(ss []Struct) map[string]Struct {
	m := make(map[string]Struct, len(ss))
	for _, s := range ss {
		m[s.Name] = s
	}
	return m
}
