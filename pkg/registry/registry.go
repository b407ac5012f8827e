package registry

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/extwrangler/pkg/errors"
)

// FileName is the registry file name inside an SDK.
const FileName = "vk.xml"

// searchPaths are tried in order below the SDK directory.
var searchPaths = []string{
	"share/vulkan/registry/vk.xml",
	"registry/vk.xml",
	"vk.xml",
}

// Registry is the typed view of vk.xml.
type Registry struct {
	Versions   []Feature
	Extensions []Extension
	Structs    []Struct

	// Hash is the upper-case hex SHA-256 of the raw registry bytes.
	Hash string
}

// Feature is a core version block.
type Feature struct {
	Name    string
	Number  string
	API     []string
	APIType string
}

// Extension is one <extension> element.
type Extension struct {
	Name         string
	Number       string
	Type         string
	Supported    []string
	Depends      string
	PromotedTo   string
	ObsoletedBy  string
	DeprecatedBy string

	// SpecVersion is the value of the NAME_SPEC_VERSION enum, or empty if
	// the extension does not define one.
	SpecVersion string

	// RequiredTypes lists the type names pulled in by <require> blocks.
	RequiredTypes []string
}

// Struct is a struct type that extends another struct through pNext.
type Struct struct {
	Name    string
	Extends []string
	// SType is the VkStructureType value of the sType member.
	SType string
}

// Locate finds vk.xml below an SDK directory. It accepts the registry file
// itself as well.
func Locate(specDir string) (string, error) {
	if info, err := os.Stat(specDir); err == nil && !info.IsDir() {
		return specDir, nil
	}
	for _, rel := range searchPaths {
		p := filepath.Join(specDir, filepath.FromSlash(rel))
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeFileNotFound,
		"%s not found below %s (tried %s)", FileName, specDir, strings.Join(searchPaths, ", "))
}

// Load reads and decodes the registry at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read registry")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read registry")
	}
	return Decode(data)
}

// Decode parses registry bytes.
func Decode(data []byte) (*Registry, error) {
	var raw xmlRegistry
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRegistry, err, "decode registry")
	}

	sum := sha256.Sum256(data)
	reg := &Registry{Hash: strings.ToUpper(hex.EncodeToString(sum[:]))}

	for _, f := range raw.Features {
		reg.Versions = append(reg.Versions, Feature{
			Name:    f.Name,
			Number:  f.Number,
			API:     splitList(f.API),
			APIType: f.APIType,
		})
	}
	for _, x := range raw.Extensions {
		reg.Extensions = append(reg.Extensions, convertExtension(x))
	}
	for _, t := range raw.Types {
		if s, ok := convertStruct(t); ok {
			reg.Structs = append(reg.Structs, s)
		}
	}
	return reg, nil
}

func convertExtension(x xmlExtension) Extension {
	ext := Extension{
		Name:         x.Name,
		Number:       x.Number,
		Type:         x.Type,
		Supported:    splitList(x.Supported),
		Depends:      x.Depends,
		PromotedTo:   x.PromotedTo,
		ObsoletedBy:  x.ObsoletedBy,
		DeprecatedBy: x.DeprecatedBy,
	}
	if ext.ObsoletedBy == "" {
		ext.ObsoletedBy = x.ObsoletedBy2
	}
	specEnum := strings.ToUpper(x.Name) + "_SPEC_VERSION"
	for _, req := range x.Requires {
		for _, e := range req.Enums {
			if e.Name == specEnum && ext.SpecVersion == "" {
				ext.SpecVersion = e.Value
			}
		}
		for _, t := range req.Types {
			ext.RequiredTypes = append(ext.RequiredTypes, t.Name)
		}
	}
	return ext
}

// convertStruct keeps non-alias struct types that extend something and
// carry an sType value.
func convertStruct(t xmlType) (Struct, bool) {
	if t.Category != "struct" || t.Alias != "" || t.StructExtends == "" {
		return Struct{}, false
	}
	s := Struct{Name: t.Name, Extends: splitList(t.StructExtends)}
	for _, m := range t.Members {
		if m.Type == "VkStructureType" && m.Values != "" {
			s.SType = m.Values
			break
		}
	}
	return s, true
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
