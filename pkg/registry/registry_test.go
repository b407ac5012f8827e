package registry

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/extwrangler/pkg/errors"
	"github.com/matzehuels/extwrangler/pkg/model"
)

const fixture = "testdata/vk.xml"

func loadFixture(t *testing.T) *Registry {
	t.Helper()
	reg, err := Load(fixture)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return reg
}

func TestDecode(t *testing.T) {
	reg := loadFixture(t)

	if len(reg.Versions) != 6 {
		t.Errorf("versions = %d, want 6", len(reg.Versions))
	}
	if len(reg.Extensions) != 11 {
		t.Errorf("extensions = %d, want 11", len(reg.Extensions))
	}
	if len(reg.Structs) != 6 {
		t.Errorf("structs = %d, want 6 (alias excluded)", len(reg.Structs))
	}
	if len(reg.Hash) != 64 {
		t.Errorf("hash = %q", reg.Hash)
	}

	swapchain := reg.Extensions[1]
	if swapchain.Name != "VK_KHR_swapchain" || swapchain.SpecVersion != "70" || swapchain.Depends != "VK_KHR_surface" {
		t.Errorf("swapchain = %+v", swapchain)
	}
	if !slices.Equal(swapchain.Supported, []string{"vulkan", "vulkansc"}) {
		t.Errorf("supported = %v", swapchain.Supported)
	}
	multiview := reg.Extensions[3]
	if multiview.PromotedTo != "VK_VERSION_1_1" || len(multiview.RequiredTypes) != 2 {
		t.Errorf("multiview = %+v", multiview)
	}
	if reg.Versions[1].APIType != "internal" {
		t.Errorf("versions[1] = %+v", reg.Versions[1])
	}
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte("<registry><feature"))
	if !errors.Is(err, errors.ErrCodeInvalidRegistry) {
		t.Errorf("err = %v, want INVALID_REGISTRY", err)
	}
}

func TestDecodeHashIsStable(t *testing.T) {
	data, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := Decode(data)
	b, _ := Decode(data)
	if a.Hash != b.Hash {
		t.Error("hash differs for identical input")
	}
	c, _ := Decode(append(data, '\n'))
	if a.Hash == c.Hash {
		t.Error("hash ignores input changes")
	}
}

func TestFilterUnsupported(t *testing.T) {
	reg := loadFixture(t)
	removed := reg.FilterUnsupported([]string{"vulkansc"})

	want := []Removal{
		{Name: "VK_BASE_VERSION_1_0", Reason: ReasonInternal},
		{Name: "VKSC_VERSION_1_0", Reason: ReasonExcludedAPI},
		{Name: "VK_NV_unused", Reason: ReasonDisabled},
		{Name: "VK_EXT_sc_only", Reason: ReasonExcludedAPI},
		{Name: "VK_EXT_zeroed", Reason: ReasonZeroVersion},
	}
	if !slices.Equal(removed, want) {
		t.Errorf("removed = %v\nwant %v", removed, want)
	}
	if len(reg.Versions) != 4 || len(reg.Extensions) != 8 {
		t.Errorf("left %d versions, %d extensions", len(reg.Versions), len(reg.Extensions))
	}
}

func TestFilterUnsupportedNoExclusions(t *testing.T) {
	reg := loadFixture(t)
	removed := reg.FilterUnsupported(nil)
	// internal blocks, disabled and zero-version extensions still go
	if len(removed) != 3 {
		t.Errorf("removed = %v", removed)
	}
}

func TestGroupQueryStructs(t *testing.T) {
	reg := loadFixture(t)
	reg.FilterUnsupported([]string{"vulkansc"})
	qs := reg.GroupQueryStructs(reg.ModelVersions(), reg.Extensions)

	features := map[string]string{
		"VK_VERSION_1_1":           "VkPhysicalDeviceVulkan11Features",
		"VK_KHR_multiview":         "VkPhysicalDeviceMultiviewFeatures",
		"VK_KHR_dynamic_rendering": "VkPhysicalDeviceDynamicRenderingFeatures",
	}
	if len(qs.Features) != len(features) {
		t.Errorf("features = %v", qs.Features)
	}
	for owner, name := range features {
		if qs.Features[owner].Name != name {
			t.Errorf("feature struct of %s = %q, want %q", owner, qs.Features[owner].Name, name)
		}
	}
	if qs.Properties["VK_KHR_push_descriptor"].Name != "VkPhysicalDevicePushDescriptorPropertiesKHR" {
		t.Errorf("properties = %v", qs.Properties)
	}
	if qs.Properties["VK_VERSION_1_1"].SType != "VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_VULKAN_1_1_PROPERTIES" {
		t.Errorf("core properties = %+v", qs.Properties["VK_VERSION_1_1"])
	}

	var chain []string
	for _, s := range qs.Chain {
		chain = append(chain, s.Name)
	}
	wantChain := []string{
		"VkPhysicalDeviceVulkan11Features",
		"VkPhysicalDeviceMultiviewFeatures",
		"VkPhysicalDeviceDynamicRenderingFeatures",
		FeaturesBase,
	}
	if !slices.Equal(chain, wantChain) {
		t.Errorf("chain = %v, want %v", chain, wantChain)
	}
	if !qs.HasQueryStruct("VK_KHR_push_descriptor") || qs.HasQueryStruct("VK_KHR_swapchain") {
		t.Error("HasQueryStruct wrong")
	}
}

func TestModelItems(t *testing.T) {
	reg := loadFixture(t)
	reg.FilterUnsupported([]string{"vulkansc"})
	qs := reg.GroupQueryStructs(reg.ModelVersions(), reg.Extensions)
	items := reg.ModelItems(&qs)

	if len(items) != 8 {
		t.Fatalf("items = %d", len(items))
	}
	noQuery := map[string]bool{}
	for _, it := range items {
		noQuery[it.Name] = it.NoQueryStruct
	}
	for _, name := range []string{"VK_KHR_multiview", "VK_KHR_dynamic_rendering", "VK_KHR_push_descriptor"} {
		if noQuery[name] {
			t.Errorf("%s flagged NoQueryStruct", name)
		}
	}
	if !noQuery["VK_KHR_swapchain"] {
		t.Error("VK_KHR_swapchain should be NoQueryStruct")
	}

	versions := reg.ModelVersions()
	if versions[0].Name != "VK_VERSION_1_0" || versions[0].API != "vulkan,vulkansc" {
		t.Errorf("versions[0] = %+v", versions[0])
	}
}

func TestCoreStructName(t *testing.T) {
	v := model.Version{Name: "VK_VERSION_1_3"}
	if got := CoreStructName(v, "Features"); got != "VkPhysicalDeviceVulkan13Features" {
		t.Errorf("got %s", got)
	}
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "share", "vulkan", "registry")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(nested, FileName)
	if err := os.WriteFile(path, []byte("<registry/>"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Locate(dir)
	if err != nil || got != path {
		t.Errorf("Locate(sdk) = %q, %v", got, err)
	}
	got, err = Locate(path)
	if err != nil || got != path {
		t.Errorf("Locate(file) = %q, %v", got, err)
	}
	if _, err := Locate(t.TempDir()); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Locate(empty) err = %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v", err)
	}
}
