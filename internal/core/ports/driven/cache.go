package driven

// Cache is a keyed store whose entries expire a fixed time after Set.
// Expiry is lazy: Get on an expired entry removes it and reports absent.
type Cache[V any] interface {
	// Set stores value under key, restarting its expiry.
	Set(key string, value V)

	// Get returns the value under key if present and fresh.
	Get(key string) (V, bool)

	// Invalidate removes key. Removing a missing key is a no-op.
	Invalidate(key string)

	// Clear removes every entry.
	Clear()
}
