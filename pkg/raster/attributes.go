package raster

// Attributes is an insertion-ordered string map. Files store text chunks in
// order and the codec writes them back in the same order. A nil *Attributes
// reads as empty.
type Attributes struct {
	keys   []string
	values map[string]string
}

// NewAttributes returns an empty map.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (a *Attributes) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.values[key]
	return v, ok
}

// Set deletes key and appends it with value, so a rewritten key moves to the end.
func (a *Attributes) Set(key, value string) {
	a.Delete(key)
	a.keys = append(a.keys, key)
	a.values[key] = value
}

// Delete removes key if present.
func (a *Attributes) Delete(key string) {
	if _, ok := a.values[key]; !ok {
		return
	}
	delete(a.values, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.keys...)
}

// Len returns the number of entries.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Clone returns an independent copy. A nil map clones to an empty one.
func (a *Attributes) Clone() *Attributes {
	c := NewAttributes()
	if a == nil {
		return c
	}
	for _, k := range a.keys {
		c.keys = append(c.keys, k)
		c.values[k] = a.values[k]
	}
	return c
}
