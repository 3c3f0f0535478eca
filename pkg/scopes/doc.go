// Package scopes implements dot-delimited permission scopes with trailing
// wildcards.
//
// A scope such as "metafields.write.products" is granted by itself, by
// "metafields.write.*", by "metafields.*" and by the global wildcard "*".
//
//	granted := scopes.ParseScopes("metafields.read.* metafields.write.products")
//	scopes.HasScope(granted, "metafields.write.products") // true
//	scopes.HasScope(granted, "metafields.delete.orders")  // false
package scopes
