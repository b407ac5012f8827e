// Package registry reads the Vulkan API registry (vk.xml) into typed records.
//
// The XML is decoded once into [Registry]; nothing downstream looks at raw
// attributes again. [Registry.FilterUnsupported] drops extensions the
// generator must not expose, and [Registry.Model] maps what is left onto
// the [model] types the resolver works on.
//
// Only the parts of the schema the generator needs are decoded: core
// version blocks (<feature>), extensions with their dependency, promotion
// and obsolescence attributes, the spec version enum, required types, and
// struct types that extend the physical device feature and property
// queries.
package registry
