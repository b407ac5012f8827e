// Package depexpr parses registry dependency expressions into an AST.
//
// # Overview
//
// The Vulkan registry encodes the prerequisites of an extension in its
// depends attribute as a boolean expression over core version tags and
// extension names:
//
//	VK_KHR_get_physical_device_properties2+VK_KHR_storage_buffer_storage_class,VK_VERSION_1_1
//
// "+" is AND and binds tighter than "," (OR). Parentheses group a
// sub-disjunction. Whitespace is insignificant.
//
// # Grammar
//
//	expr   := term { "," term }
//	term   := factor { "+" factor }
//	factor := VERSION | ITEM | "(" expr ")"
//
// An identifier matching the [Grammar] version pattern becomes a
// [*VersionNode]; anything else becomes an [*ItemNode].
//
// # Normalization
//
// [NewAnd] and [NewOr] collapse singleton groups, so the tree never holds an
// And or Or with a single child. A lone extension name parses to a bare
// [*ItemNode], not an Or of an And of one item.
//
// # Errors
//
// Malformed input yields a [*SyntaxError] carrying the byte offset. There is
// no recovery: the expression either parses completely or not at all.
package depexpr
