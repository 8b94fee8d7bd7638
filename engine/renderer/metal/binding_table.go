package metal

/**
 * @brief One entry of a binding table.
 */
type binding[T any] struct {
	value T
	bound bool
	/** @brief Set when the value changed since the last MarkClean. */
	dirty bool
}

/**
 * @brief The resources attached at each index of one index space of one stage.
 */
type bindingTable[T any] struct {
	entries []binding[T]
	equal   func(a, b T) bool
}

func newBindingTable[T any](equal func(a, b T) bool) bindingTable[T] {
	return bindingTable[T]{equal: equal}
}

// ensure grows the table to hold at least n entries.
func (t *bindingTable[T]) ensure(n int) {
	if n > len(t.entries) {
		t.entries = append(t.entries, make([]binding[T], n-len(t.entries))...)
	}
}

// bind stores v at index and reports whether anything changed.
func (t *bindingTable[T]) bind(index uint32, v T) bool {
	t.ensure(int(index) + 1)
	e := &t.entries[index]
	if e.bound && t.equal(e.value, v) {
		return false
	}
	*e = binding[T]{value: v, bound: true, dirty: true}
	return true
}

func (t *bindingTable[T]) get(index uint32) (T, bool) {
	if int(index) >= len(t.entries) || !t.entries[index].bound {
		var zero T
		return zero, false
	}
	return t.entries[index].value, true
}

// dirty returns the changed values in index order.
func (t *bindingTable[T]) dirty() []T {
	var out []T
	for _, e := range t.entries {
		if e.dirty {
			out = append(out, e.value)
		}
	}
	return out
}

func (t *bindingTable[T]) isDirty() bool {
	for _, e := range t.entries {
		if e.dirty {
			return true
		}
	}
	return false
}

func (t *bindingTable[T]) markClean() {
	for i := range t.entries {
		t.entries[i].dirty = false
	}
}

// markDirty flags every bound entry, so it is encoded again.
func (t *bindingTable[T]) markDirty() {
	for i := range t.entries {
		t.entries[i].dirty = t.entries[i].bound
	}
}

// reset unbinds everything, keeping the storage.
func (t *bindingTable[T]) reset() {
	clear(t.entries)
}

func (t *bindingTable[T]) len() int { return len(t.entries) }
