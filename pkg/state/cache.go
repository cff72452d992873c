package state

import "sync"

// poisonableCache is a mutex-guarded string-keyed cache that self-heals if
// a prior critical section panicked while holding the lock (§4.E: "If a
// cache is observed in a poisoned state... the next access replaces it
// with a fresh empty one and proceeds; the poisoning is never surfaced").
//
// Go's sync.Mutex has no poisoning concept of its own -- a panic while
// holding one still unlocks it via defer, it just leaves the protected data
// in whatever partial state the panicking critical section left behind.
// This type reproduces the source ecosystem's poisoning contract
// explicitly: poisoned is set before a panic is allowed to continue
// unwinding, and cleared (by discarding the map) the next time the lock is
// taken, so a corrupted map can never be observed by a later caller.
type poisonableCache struct {
	mu       sync.Mutex
	m        map[string]any
	poisoned bool
}

func newPoisonableCache() poisonableCache {
	return poisonableCache{m: make(map[string]any)}
}

// withLock runs fn with the cache's map, healing it first if the previous
// holder left it poisoned. A panic inside fn poisons the cache for the
// *next* caller and then continues unwinding normally for this one --
// callers of eval still see the panic; only the cache's own state heals.
func (c *poisonableCache) withLock(fn func(m map[string]any)) {
	c.mu.Lock()
	defer func() {
		if r := recover(); r != nil {
			c.poisoned = true
			c.mu.Unlock()
			panic(r)
		}
		c.mu.Unlock()
	}()
	if c.poisoned {
		c.m = make(map[string]any)
		c.poisoned = false
	}
	fn(c.m)
}

func (c *poisonableCache) clear() {
	c.withLock(func(m map[string]any) {
		for k := range m {
			delete(m, k)
		}
	})
}

// CRC returns a cached CRC32 for key, and whether it was present.
func (s *State) CRC(key string) (uint32, bool) {
	var (
		val uint32
		ok  bool
	)
	s.crc.withLock(func(m map[string]any) {
		v, present := m[key]
		if !present {
			return
		}
		val, ok = v.(uint32), true
	})
	return val, ok
}

// SetCRC populates the CRC cache for key. Used both by callers preloading
// via SetCRCCache and by the checksum predicate populating on a cache miss
// -- §5: CRC cache writes are idempotent, so concurrent writers racing to
// insert the same value are both correct.
func (s *State) SetCRC(key string, crc uint32) {
	s.crc.withLock(func(m map[string]any) {
		m[key] = crc
	})
}

// SetCRCCache replaces the CRC cache wholesale with caller-preloaded
// entries (state_set_crc_cache). A nil or empty map clears it.
func (s *State) SetCRCCache(entries map[string]uint32) {
	s.crc.withLock(func(m map[string]any) {
		for k := range m {
			delete(m, k)
		}
		for k, v := range entries {
			m[toLower(k)] = v
		}
	})
}

// ClearCRCCache discards every cached CRC32, independent of the condition
// cache's lock (§4.E: "two independent locks").
func (s *State) ClearCRCCache() { s.crc.clear() }

// ConditionCache returns the cached boolean result for fingerprint, if any.
func (s *State) ConditionCache(fingerprint string) (bool, bool) {
	var (
		val bool
		ok  bool
	)
	s.cond.withLock(func(m map[string]any) {
		v, present := m[fingerprint]
		if !present {
			return
		}
		val, ok = v.(bool), true
	})
	return val, ok
}

// SetConditionCache stores result for fingerprint. §5: "first writer wins"
// is an acceptable policy for concurrent writers since purity guarantees
// they'd compute the same result; this implementation simply always writes
// -- the last writer's value equals every other concurrent writer's value.
func (s *State) SetConditionCache(fingerprint string, result bool) {
	s.cond.withLock(func(m map[string]any) {
		m[fingerprint] = result
	})
}

// ClearConditionCache discards every cached predicate result. §4.E: this is
// never called implicitly after an override mutator runs; callers that want
// previous results discarded must call it themselves.
func (s *State) ClearConditionCache() { s.cond.clear() }
