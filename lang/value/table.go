package value

const tableMaxLoad = 0.75

type tableEntry struct {
	key   *String // nil means empty or tombstone
	value Value
}

// Table is an open-addressed, linear-probing, string-keyed hash table. It
// backs the globals table, every class's method table, every instance's
// field table, and (via FindString) the string interner. Deletions leave a
// tombstone behind: an entry whose key is nil but whose value is True,
// distinguishing it from a truly empty bucket (key nil, value nil) so that
// probing continues past it when looking up a later-inserted key.
type Table struct {
	count   int // live entries plus tombstones
	entries []tableEntry
}

// Count reports the number of live (non-tombstone) entries. It is O(n).
func (t *Table) Count() int {
	n := 0
	for _, e := range t.entries {
		if e.key != nil {
			n++
		}
	}
	return n
}

// Get looks up key, returning its value and true if present.
func (t *Table) Get(key *String) (Value, bool) {
	if len(t.entries) == 0 {
		return nil, false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return nil, false
	}
	return e.value, true
}

// Set binds key to v, growing the table if needed, and reports whether the
// key is new (it was not previously present, counting tombstones as not
// present).
func (t *Table) Set(key *String, v Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow(growCapacity(len(t.entries)))
	}

	e := t.findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew && e.value == nil {
		// only a truly empty slot (not a tombstone) grows the live count
		t.count++
	}
	e.key = key
	e.value = v
	return isNew
}

// Delete removes key, if present, leaving a tombstone so later probes that
// hashed past this bucket still find their target.
func (t *Table) Delete(key *String) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = True // tombstone marker
	return true
}

// AddAll copies every live entry of t into dst, used to implement
// single-inheritance method table copying (OP_INHERIT).
func (t *Table) AddAll(dst *Table) {
	for _, e := range t.entries {
		if e.key != nil {
			dst.Set(e.key, e.value)
		}
	}
}

// FindString looks up a string by raw content and precomputed hash rather
// than by an already-interned *String, since the whole point of calling it
// is to find out whether such a *String already exists before allocating
// one. It is used exclusively by the string interner.
func (t *Table) FindString(chars string, hash uint32) *String {
	if len(t.entries) == 0 {
		return nil
	}

	mask := uint32(len(t.entries) - 1)
	index := hash & mask
	for {
		e := &t.entries[index]
		if e.key == nil {
			// stop at a truly empty slot; a tombstone (value == True) must be
			// probed past since later-inserted strings may have landed beyond it
			if e.value == nil {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		index = (index + 1) & mask
	}
}

// Keys returns every live key, in unspecified order. Used for debug output
// and for GC root/trace enumeration of tables.
func (t *Table) Keys() []*String {
	keys := make([]*String, 0, t.Count())
	for _, e := range t.entries {
		if e.key != nil {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Each calls fn for every live entry. Iteration order is unspecified.
func (t *Table) Each(fn func(key *String, v Value)) {
	for _, e := range t.entries {
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}

func (t *Table) findEntry(entries []tableEntry, key *String) *tableEntry {
	mask := uint32(len(entries) - 1)
	index := key.Hash & mask
	var tombstone *tableEntry

	for {
		e := &entries[index]
		if e.key == nil {
			if e.value == nil {
				// truly empty: return the first tombstone seen, if any, so the
				// caller's insert reuses it instead of growing the probe chain
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) & mask
	}
}

func (t *Table) grow(newCap int) {
	newEntries := make([]tableEntry, newCap)

	// live-entry count only: tombstones are dropped by a rehash, since every
	// entry is reinserted via findEntry against the fresh, tombstone-free
	// array.
	t.count = 0
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		dst := t.findEntry(newEntries, e.key)
		dst.key = e.key
		dst.value = e.value
		t.count++
	}
	t.entries = newEntries
}

func growCapacity(cap int) int {
	if cap < 8 {
		return 8
	}
	return cap * 2
}
