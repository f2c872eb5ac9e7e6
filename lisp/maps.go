// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
)

// mapKey is the comparable form of a hashable LVal.
type mapKey struct {
	typ LType
	str string
	num float64
}

func toMapKey(v *LVal) (mapKey, bool) {
	switch v.Type {
	case LNil:
		return mapKey{typ: LNil}, true
	case LBool:
		if v.Bool {
			return mapKey{typ: LBool, num: 1}, true
		}
		return mapKey{typ: LBool}, true
	case LNumber:
		return mapKey{typ: LNumber, num: v.Num}, true
	case LString, LSymbol, LKeyword:
		return mapKey{typ: v.Type, str: v.Str}, true
	}
	return mapKey{}, false
}

type mapEntry struct {
	key *LVal
	val *LVal
}

// MapData is a hash map which remembers the order keys were first inserted.
// Keys may be nil, booleans, numbers, strings, symbols, or keywords.
type MapData struct {
	entries []mapEntry
	index   map[mapKey]int
}

// NewMap returns an empty map with room for size entries.
func NewMap(size int) *MapData {
	return &MapData{
		entries: make([]mapEntry, 0, size),
		index:   make(map[mapKey]int, size),
	}
}

// Len returns the number of entries in m.
func (m *MapData) Len() int {
	return len(m.entries)
}

// Get returns the value associated with key.
func (m *MapData) Get(key *LVal) (*LVal, bool) {
	k, ok := toMapKey(key)
	if !ok {
		return nil, false
	}
	i, ok := m.index[k]
	if !ok {
		return nil, false
	}
	return m.entries[i].val, true
}

// Set associates val with key.  An existing key keeps its position.  Set
// returns an error if key is not hashable.
func (m *MapData) Set(key *LVal, val *LVal) error {
	k, ok := toMapKey(key)
	if !ok {
		return fmt.Errorf("unhashable map key type: %s", GetType(key))
	}
	if i, ok := m.index[k]; ok {
		m.entries[i].val = val
		return nil
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, mapEntry{key: key, val: val})
	return nil
}

// Delete removes key from m and reports whether it was present.
func (m *MapData) Delete(key *LVal) bool {
	k, ok := toMapKey(key)
	if !ok {
		return false
	}
	i, ok := m.index[k]
	if !ok {
		return false
	}
	delete(m.index, k)
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	for j := i; j < len(m.entries); j++ {
		k, _ := toMapKey(m.entries[j].key)
		m.index[k] = j
	}
	return true
}

// Keys returns the keys of m in insertion order.
func (m *MapData) Keys() []*LVal {
	keys := make([]*LVal, len(m.entries))
	for i := range m.entries {
		keys[i] = m.entries[i].key
	}
	return keys
}

// Each calls fn with every entry in insertion order until fn returns false.
func (m *MapData) Each(fn func(key, val *LVal) bool) {
	for _, e := range m.entries {
		if !fn(e.key, e.val) {
			return
		}
	}
}

// Copy returns a shallow copy of m.
func (m *MapData) Copy() *MapData {
	cp := NewMap(len(m.entries))
	for _, e := range m.entries {
		_ = cp.Set(e.key, e.val)
	}
	return cp
}

// Equal reports whether m and other contain equal values for the same keys.
func (m *MapData) Equal(other *MapData) bool {
	if m.Len() != other.Len() {
		return false
	}
	for _, e := range m.entries {
		v, ok := other.Get(e.key)
		if !ok || !Equal(e.val, v) {
			return false
		}
	}
	return true
}

// lookupField finds a string or keyword key with the given name.  Keyword
// keys are preferred.
func (m *MapData) lookupField(name string) (*LVal, bool) {
	if v, ok := m.Get(Keyword(name)); ok {
		return v, true
	}
	return m.Get(String(name))
}
