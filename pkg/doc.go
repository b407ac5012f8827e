// Package pkg provides the libraries behind extwrangler, a dependency
// resolver for the Vulkan registry.
//
// # Overview
//
// Every extension in vk.xml carries a depends expression such as
// "VK_KHR_get_physical_device_properties2,VK_VERSION_1_1". extwrangler
// resolves these expressions into one dependency list per core version and
// generates a C++ lookup header from the result. The data flow:
//
//	vk.xml
//	   ↓
//	[registry] (decode, filter unsupported APIs, group query structs)
//	   ↓
//	[model] (version sequence, alias chains, output indices)
//	   ↓
//	[depexpr] + [resolve] (parse expressions, resolve per version)
//	   ↓
//	[emit] (snapshot model, C++ header, JSON/YAML)
//
// [pipeline] runs these stages with caching and observability and is shared
// by the CLI and the HTTP view.
//
// # Quick Start
//
//	reg, _ := registry.Load("vk.xml")
//	reg.FilterUnsupported([]string{"vulkansc"})
//	versions := reg.ModelVersions()
//	qs := reg.GroupQueryStructs(versions, reg.Extensions)
//	idx, _ := model.NewIndex(versions, reg.ModelItems(&qs), diag.Discard)
//
//	run := resolve.NewRun(idx, logger)
//	if err := run.ResolveAll(ctx); err != nil {
//	    return err
//	}
//	m := emit.Build(idx, &qs, reg.Hash)
//	err := emit.WriteHeaderFile("GeneratedExtensionHeader.hpp", m, emit.HeaderOptions{})
//
// # Supporting Packages
//
// [cache] - Model and graph cache with file, Redis and null backends.
//
// [config] - TOML configuration (extwrangler.toml).
//
// [diag] - Non-fatal warnings collected during a run.
//
// [errors] - Coded errors shared by all packages.
//
// [observability] - Hooks for pipeline, cache and HTTP events.
//
// [render/nodelink] - Graphviz rendering of the dependency graph of one version.
//
// [buildinfo] - Version information injected at build time.
package pkg
