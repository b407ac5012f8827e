package emit

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/extwrangler/pkg/errors"
	"github.com/matzehuels/extwrangler/pkg/model"
)

// HeaderOptions control header generation.
type HeaderOptions struct {
	// GuardPrefix is prepended to the registry hash to form the include guard.
	GuardPrefix string
	// FeatureStructs adds the query struct tables and QueriedDeviceFeatures.
	FeatureStructs bool
	// Generator names the tool in the leading comment. Defaults to "extwrangler".
	Generator string
}

// Names of the sentinel constants in the generated header.
const (
	invalidIdx  = "invalidExtensionIdx"
	promotedIdx = "promotedToCoreIdx"
)

// WriteHeader renders the C++ lookup header for m and writes it to w.
// The header is rendered completely before anything is written.
func WriteHeader(w io.Writer, m *Model, opts HeaderOptions) error {
	var buf bytes.Buffer
	hw := &headerWriter{buf: &buf, m: m, opts: opts}
	if err := hw.write(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteHeaderFile renders the header and writes it to path through a
// temporary file in the same directory, so path is either fully replaced or
// left untouched.
func WriteHeaderFile(path string, m *Model, opts HeaderOptions) error {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, m, opts); err != nil {
		return err
	}
	return WriteFileAtomic(path, buf.Bytes())
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it over path. Missing parent directories are created.
func WriteFileAtomic(path string, data []byte) error {
	return WriteFilesAtomic([]File{{Path: path, Data: data}})
}

// File is one output of [WriteFilesAtomic].
type File struct {
	Path string
	Data []byte
}

// WriteFilesAtomic stages every file in a temporary file next to its target
// and renames them only once all of them are staged. A failure while
// staging leaves every target untouched.
func WriteFilesAtomic(files []File) error {
	staged := make([]string, 0, len(files))
	defer func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}()

	for _, f := range files {
		tmp, err := stageFile(f)
		if err != nil {
			return err
		}
		staged = append(staged, tmp)
	}
	for i, f := range files {
		if err := os.Rename(staged[i], f.Path); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "rename to %s", f.Path)
		}
	}
	return nil
}

func stageFile(f File) (string, error) {
	if info, err := os.Stat(f.Path); err == nil && info.IsDir() {
		return "", errors.New(errors.ErrCodeInvalidPath, "%s is a directory", f.Path)
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "create output dir")
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "create temp file")
	}

	if _, err := tmp.Write(f.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(errors.ErrCodeInternal, err, "close %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(errors.ErrCodeInternal, err, "chmod %s", tmp.Name())
	}
	return tmp.Name(), nil
}

type headerWriter struct {
	buf  *bytes.Buffer
	m    *Model
	opts HeaderOptions
}

func (hw *headerWriter) p(format string, args ...any) {
	fmt.Fprintf(hw.buf, format, args...)
	hw.buf.WriteByte('\n')
}

func (hw *headerWriter) write() error {
	if len(hw.m.Versions) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "model has no versions")
	}
	guard := hw.opts.GuardPrefix + hw.m.RegistryHash

	generator := hw.opts.Generator
	if generator == "" {
		generator = "extwrangler"
	}
	hw.p("// Code generated by %s from vk.xml. DO NOT EDIT.", generator)
	hw.p("#ifndef %s", guard)
	hw.p("#define %s", guard)
	hw.p("#include <cstdint>\n#include <array>\n#include <string_view>")
	hw.p("#include <unordered_map>\n#include <vector>\n#include <limits>")
	hw.p("#include <vulkan/vulkan_core.h>\n")

	hw.p("constexpr static size_t %s = std::numeric_limits<size_t>::max();", invalidIdx)
	hw.p("constexpr static size_t %s = std::numeric_limits<size_t>::max() - 1;\n", promotedIdx)

	hw.writeNameTables()
	hw.writeLookupMap()
	hw.writeTypeTable(model.TypeDevice)
	hw.writeTypeTable(model.TypeInstance)
	hw.writeVersionTable()
	if err := hw.writeDependencyTable(); err != nil {
		return err
	}
	hw.writeVersionedExtensions()
	if hw.opts.FeatureStructs {
		hw.writeQueryStructTables()
		hw.writeQueriedDeviceFeatures()
	}

	hw.p("#endif // %s", guard)
	return nil
}

func (hw *headerWriter) writeNameTables() {
	hw.p("constexpr static std::array<const char*, %d> masterExtensionNameTable", len(hw.m.Extensions))
	hw.p("{")
	for _, ext := range hw.m.Extensions {
		hw.p("    %q,", ext.Name)
	}
	hw.p("};\n")

	hw.p("constexpr static std::array<const char*, %d> aliasedExtensionNameTable", len(hw.m.Aliases))
	hw.p("{")
	for _, a := range hw.m.Aliases {
		hw.p("    %q,", a.Name)
	}
	hw.p("};\n")
}

func (hw *headerWriter) writeLookupMap() {
	hw.p("static const std::unordered_map<std::string_view, size_t> extensionIndexLookupMap")
	hw.p("{")
	for _, ext := range hw.m.Extensions {
		hw.p("    { masterExtensionNameTable[%d], %d }, // %s", ext.Index, ext.Index, ext.Name)
	}
	for i, a := range hw.m.Aliases {
		hw.p("    { aliasedExtensionNameTable[%d], %d }, // Alias %s -> Current %s", i, a.TargetIndex, a.Name, a.Target)
	}
	hw.p("};\n")
}

func (hw *headerWriter) writeTypeTable(typ string) {
	var indices []int
	for _, ext := range hw.m.Extensions {
		if ext.Type == typ {
			indices = append(indices, ext.Index)
		}
	}
	hw.p("// Table of %s extension indices", typ)
	hw.p("static const std::array<size_t, %d> %sExtensionTable", len(indices), typ)
	hw.p("{")
	for _, i := range indices {
		hw.p("    %d,", i)
	}
	hw.p("};\n")
}

func (hw *headerWriter) writeVersionTable() {
	hw.p("constexpr static std::array<uint32_t, %d> versionTable", len(hw.m.Versions))
	hw.p("{")
	for _, v := range hw.m.Versions {
		hw.p("    %s, // %s", v.Macro, v.Name)
	}
	hw.p("};\n")
}

type depRow struct {
	ext   *Extension
	entry Entry
}

func (hw *headerWriter) writeDependencyTable() error {
	width := max(hw.m.MaxDeps(), 1)

	partitions := make([][]depRow, len(hw.m.Versions))
	for i := range hw.m.Extensions {
		ext := &hw.m.Extensions[i]
		for _, e := range ext.Deps {
			vi, ok := hw.m.VersionIndex(e.Version)
			if !ok {
				return errors.New(errors.ErrCodeInvalidInput, "extension %s has entry for unknown version %s", ext.Name, e.Version)
			}
			partitions[vi] = append(partitions[vi], depRow{ext: ext, entry: e})
		}
	}
	total := 0
	for _, part := range partitions {
		total += len(part)
	}

	hw.p("struct ExtensionDependencyEntry")
	hw.p("{")
	hw.p("    size_t extension;")
	hw.p("    std::array<size_t, %d> dependencies;", width)
	hw.p("};\n")

	hw.p("// Extension dependency table, partitioned by version. See versionedExtensionStartIndices")
	hw.p("// for where each version's entries begin.")
	hw.p("constexpr static std::array<ExtensionDependencyEntry, %d> extensionDependencyTable", total)
	hw.p("{")
	for vi, part := range partitions {
		hw.p("    // Start of extensions for version: %s", hw.m.Versions[vi].Name)
		for _, row := range part {
			slots, names, err := hw.depSlots(row.entry, width)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "dependency row of %s", row.ext.Name)
			}
			hw.p("    // Extension: %s", row.ext.Name)
			hw.p("    // Dependencies: %s", names)
			hw.p("    ExtensionDependencyEntry{ %d, { %s } },", row.ext.Index, strings.Join(slots, ", "))
		}
	}
	hw.p("};\n")

	hw.p("// Table of indices to where each version's entries begin in the dependency table above")
	hw.p("constexpr static std::array<size_t, %d> versionedExtensionStartIndices", len(partitions)+1)
	hw.p("{")
	offset := 0
	for vi, part := range partitions {
		hw.p("    %d, // %s", offset, hw.m.Versions[vi].Name)
		offset += len(part)
	}
	hw.p("    %d, // end", offset)
	hw.p("};\n")
	return nil
}

func (hw *headerWriter) depSlots(e Entry, width int) ([]string, string, error) {
	slots := make([]string, 0, width)
	desc := "None"
	switch {
	case e.Promoted:
		slots = append(slots, promotedIdx)
		desc = "promoted to core"
	case len(e.Requires) > 0:
		for _, name := range e.Requires {
			ext, ok := hw.m.Extension(name)
			if !ok {
				return nil, "", errors.New(errors.ErrCodeInternal, "unknown dependency %s", name)
			}
			slots = append(slots, fmt.Sprint(ext.Index))
		}
		desc = strings.Join(e.Requires, ", ")
	}
	for len(slots) < width {
		slots = append(slots, invalidIdx)
	}
	return slots, desc, nil
}

func (hw *headerWriter) writeVersionedExtensions() {
	hw.p("// Extensions made core by a version, keyed by version number macro")
	hw.p("static const std::unordered_map<uint32_t, std::vector<size_t>> versionedExtensionsMap")
	hw.p("{")
	for _, v := range hw.m.Versions {
		var indices []string
		for _, name := range v.Promoted {
			if ext, ok := hw.m.Extension(name); ok {
				indices = append(indices, fmt.Sprint(ext.Index))
			}
		}
		if len(indices) == 0 {
			continue
		}
		hw.p("    // Version: %s", v.Name)
		hw.p("    { %s, { %s } },", v.Macro, strings.Join(indices, ", "))
	}
	hw.p("};\n")
}

func (hw *headerWriter) writeQueryStructTables() {
	n := len(hw.m.Extensions)
	for _, table := range []struct {
		name string
		get  func(Extension) *QueryStruct
	}{
		{"extensionFeatureStructTypes", func(e Extension) *QueryStruct { return e.FeatureStruct }},
		{"extensionPropertyStructTypes", func(e Extension) *QueryStruct { return e.PropertyStruct }},
	} {
		hw.p("constexpr static std::array<VkStructureType, %d> %s", n, table.name)
		hw.p("{")
		for _, ext := range hw.m.Extensions {
			stype := "VK_STRUCTURE_TYPE_MAX_ENUM"
			if qs := table.get(ext); qs != nil {
				stype = qs.SType
			}
			hw.p("    %s, // %s", stype, ext.Name)
		}
		hw.p("};\n")
	}

	hw.p("constexpr static std::array<bool, %d> extensionHasQueryStruct", n)
	hw.p("{")
	for _, ext := range hw.m.Extensions {
		hw.p("    %t, // %s", !ext.NoQueryStruct, ext.Name)
	}
	hw.p("};\n")
}

// memberName turns VkPhysicalDeviceFoo into physicalDeviceFoo.
func memberName(structName string) string {
	name := strings.TrimPrefix(structName, "Vk")
	if name == "" {
		return structName
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// writeQueriedDeviceFeatures emits the pNext chain with the tail declared
// first, so every pointer refers to an already declared member.
func (hw *headerWriter) writeQueriedDeviceFeatures() {
	chain := hw.m.FeatureChain

	hw.p("// Generated QueriedDeviceFeatures struct")
	hw.p("struct QueriedDeviceFeatures")
	hw.p("{")
	next := "nullptr"
	for i := len(chain) - 1; i >= 0; i-- {
		s := chain[i]
		member := memberName(s.Name)
		hw.p("    %s %s", s.Name, member)
		hw.p("    {")
		hw.p("        %s,", s.SType)
		hw.p("        %s", next)
		hw.p("    };")
		next = "&" + member
	}
	hw.p("    VkPhysicalDeviceFeatures2 physicalDeviceFeatures2")
	hw.p("    {")
	hw.p("        VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_FEATURES_2,")
	hw.p("        %s,", next)
	hw.p("        VkPhysicalDeviceFeatures{}")
	hw.p("    };")
	hw.p("};\n")
}
