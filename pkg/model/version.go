package model

import "strings"

// Version is one released revision of the API, e.g. VK_VERSION_1_2.
type Version struct {
	Name   string // Registry name, e.g. "VK_VERSION_1_2"
	Number string // Dotted number, e.g. "1.2"
	API    string // API track, e.g. "vulkan"
}

// Macro returns the C macro that evaluates to the packed version number,
// e.g. VK_VERSION_1_2 becomes VK_API_VERSION_1_2.
func (v Version) Macro() string {
	return MacroName(v.Name)
}

// MacroName inserts "_API" before "_VERSION" in name. Names without a
// "_VERSION" part are returned unchanged.
func MacroName(name string) string {
	i := strings.Index(name, "_VERSION")
	if i < 0 {
		return name
	}
	return name[:i] + "_API" + name[i:]
}

// NumberFromName derives "1.2" from names shaped like VK_VERSION_1_2.
// It returns "" when the name has no version suffix.
func NumberFromName(name string) string {
	i := strings.Index(name, "_VERSION_")
	if i < 0 {
		return ""
	}
	return strings.ReplaceAll(name[i+len("_VERSION_"):], "_", ".")
}
