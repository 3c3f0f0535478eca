// Package cache provides a generic, thread-safe LRU cache.
//
// When the cache reaches its capacity the least recently used entry is
// evicted. GetOrCreate memoizes an expensive, possibly failing constructor
// (for example compiling a user supplied regular expression) so that each key
// is built once while it stays resident; failed constructions are not cached.
//
//	patterns := cache.NewLRUCache[string, *regexp.Regexp](256)
//	re, err := patterns.GetOrCreate(expr, func() (*regexp.Regexp, error) {
//	    return regexp.Compile(expr)
//	})
//
// All methods are O(1) and safe for concurrent use.
package cache
