// Package cache provides the injected query cache used by the HTTP layer.
// Keys are composites of a logical query name and its parameters, so a
// mutation can invalidate exactly the queries it affects. Implementations
// must be safe for concurrent use.
package cache

import "strings"

// InvalidationSubject is the NATS subject mutation hooks publish evicted keys
// on. Caches in every process subscribe to it.
const InvalidationSubject = "cache.invalidate"

// Cache is the minimal read/write interface for response caching. Get loads
// the value at key into dest, which must be a non-nil pointer to the type the
// value was stored as, and reports whether dest was populated. Serializing
// implementations round-trip values through JSON, so only exported fields
// survive.
type Cache interface {
	Get(key string, dest any) bool
	Set(key string, v any)
}

// Key builds the composite cache key for a logical query and its parameters.
func Key(queryName string, params ...string) string {
	if len(params) == 0 {
		return queryName
	}
	return queryName + ":" + strings.Join(params, ":")
}

// Nop is a Cache that stores nothing. Useful in tests.
type Nop struct{}

func (Nop) Get(string, any) bool { return false }
func (Nop) Set(string, any)      {}
