// Copyright 2026 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rhmap is a Go implementation of an open-addressing hash map that
// uses linear probing and backward-shift deletion. See also:
// https://en.wikipedia.org/wiki/Linear_probing and Knuth, TAOCP Vol. 3,
// section 6.4, Algorithm R.
//
// # Layout
//
// A Map is a single flat slice of slots whose length is always a power of
// two, so hash(key)%N is computed as hash(key)&(N-1). Every slot is either
// empty or holds one key/value pair along with its probe distance: the
// number of steps between the key's home slot (hash(key)&(N-1)) and the
// slot the key actually occupies. There is no separate metadata array and
// no per-entry allocation.
//
// # Probing
//
// Put, Get and Delete walk the slots home, home+1, home+2, ... (wrapping at
// N) and stop at the first empty slot. This is correct because of the
// reachability invariant: for every key, all of the slots between its home
// slot and the slot holding it are occupied. A new key is placed in the
// first empty slot of its probe sequence.
//
// # Deletion
//
// Tombstones are not used. When a key is removed its slot becomes a gap,
// and the entries following the gap (up to the next empty slot) are
// examined in order. An entry at j whose home lies cyclically within
// (gap, j] must stay put, as moving it before its home would make it
// unreachable. Any other entry is moved back into the gap, its probe
// distance is reduced accordingly, and its old slot becomes the new gap.
// Equivalently, an entry moves iff the distance from its home to the gap is
// strictly less than its recorded probe distance.
//
// # Growth
//
// The map grows eagerly: as soon as an insertion makes 2*len >= N the slots
// are reallocated at twice the size and every entry is reinserted. The
// load factor is therefore always below 1/2 after an operation returns,
// which keeps clusters short and guarantees that probing terminates. The
// map never shrinks.
package rhmap

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	debug = false

	// minCapacity is the number of slots allocated for a map constructed
	// without a size hint, and the lower bound for any size hint.
	minCapacity = 8
)

// slot holds a key and value along with the probe distance of the key.
// The key, value and distance are only meaningful when occupied is true.
type slot[K comparable, V any] struct {
	key   K
	value V
	// The number of steps from the key's home slot to this slot.
	distance uintptr
	occupied bool
}

// Pair is a key and value, used to construct a Map with FromPairs.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is an unordered map from keys to values with Put, Get, Delete, and All
// operations. By default, a Map[K,V] uses the same hash function as Go's
// builtin map[K]V, though a different hash function can be specified using
// the WithHash option.
//
// A Map is NOT goroutine-safe.
type Map[K comparable, V any] struct {
	// The hash function for keys of type K. It is supplied at construction
	// and never changes for the lifetime of the map.
	hash func(key K) uint64
	// slots is always a power of 2 in length.
	slots []slot[K, V]
	// mask is len(slots)-1 and is used to quickly compute i%len(slots).
	mask uintptr
	// The number of occupied slots (i.e. the number of elements in the
	// map).
	used int
}

// New constructs a new Map sized to hold initialCapacity elements without
// growing. If initialCapacity is <= 0 the map starts out with minCapacity
// slots.
func New[K comparable, V any](initialCapacity int, options ...option[K, V]) *Map[K, V] {
	m := &Map[K, V]{
		hash: defaultHasher[K](),
	}

	for _, op := range options {
		op.apply(m)
	}

	capacity := uintptr(minCapacity)
	if initialCapacity > 0 {
		// targetCapacity is the smallest power of 2 that is >=
		// 2*initialCapacity.
		targetCapacity := uintptr(1) << bits.Len(uint(2*initialCapacity-1))
		if targetCapacity > capacity {
			capacity = targetCapacity
		}
	}
	m.slots = make([]slot[K, V], capacity)
	m.mask = capacity - 1

	m.checkInvariants()
	return m
}

// FromPairs constructs a new Map sized for len(pairs) and inserts every
// pair in order. If a key appears more than once the last value wins.
func FromPairs[K comparable, V any](pairs []Pair[K, V], options ...option[K, V]) *Map[K, V] {
	m := New[K, V](len(pairs), options...)
	for _, p := range pairs {
		m.Put(p.Key, p.Value)
	}
	return m
}

// Put inserts an entry into the map, overwriting an existing value if an
// entry with the same key already exists.
func (m *Map[K, V]) Put(key K, value V) {
	m.put(key, value)
}

// put implements Put and returns the index of the slot holding key once the
// operation completes.
func (m *Map[K, V]) put(key K, value V) uintptr {
	// put is find composed with uncheckedPut. We first walk the probe
	// sequence looking for the key, stopping at the first empty slot. If the
	// key is present we overwrite the value in place and are done. Otherwise
	// uncheckedPut places the entry in the first empty slot of the sequence.
	home := m.home(key)
	if debug {
		fmt.Printf("put(%v): home=%d capacity=%d\n", key, home, len(m.slots))
	}

	for i := uintptr(0); i <= m.mask; i++ {
		idx := (home + i) & m.mask
		s := &m.slots[idx]
		if !s.occupied {
			if debug {
				fmt.Printf("put(not-found): index=%d distance=%d\n", idx, i)
			}
			break
		}
		if key == s.key {
			if debug {
				fmt.Printf("put(updating): index=%d  key=%v\n", idx, key)
			}
			s.value = value
			m.checkInvariants()
			return idx
		}
	}

	idx := m.uncheckedPut(home, key, value)
	m.used++

	// Grow eagerly so that at least half of the slots are always empty. The
	// entry has moved, so it must be located again.
	if 2*m.used >= len(m.slots) {
		m.resize(2 * uintptr(len(m.slots)))
		var ok bool
		if idx, ok = m.find(key); !ok {
			panic(fmt.Sprintf("invariant failed: %v not found after resize\n%s", key, m.debugString()))
		}
	}
	m.checkInvariants()
	return idx
}

// Get retrieves the value from the map for the specified key, returning
// ok=false if the key is not present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	i, ok := m.find(key)
	if !ok {
		return value, false
	}
	return m.slots[i].value, true
}

// Has returns true if the key is present in the map.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.find(key)
	return ok
}

// Find returns an Iterator positioned at the entry for key, or m.End() if
// the key is not present.
func (m *Map[K, V]) Find(key K) Iterator[K, V] {
	i, ok := m.find(key)
	if !ok {
		return m.End()
	}
	return Iterator[K, V]{m: m, pos: int(i)}
}

// Ref returns a pointer to the value stored for key. If the key is not
// present, the zero value is inserted first. The returned pointer refers to
// the map's internal storage and is only valid until the next call that
// mutates the map.
func (m *Map[K, V]) Ref(key K) *V {
	if i, ok := m.find(key); ok {
		return &m.slots[i].value
	}

	var zero V
	i := m.put(key, zero)
	if s := &m.slots[i]; !s.occupied || s.key != key {
		panic(fmt.Sprintf("invariant failed: %v not found after insert\n%s", key, m.debugString()))
	}
	return &m.slots[i].value
}

// Delete deletes the entry corresponding to the specified key from the map,
// returning true if the key was present.
func (m *Map[K, V]) Delete(key K) bool {
	pos, ok := m.find(key)
	if !ok {
		if debug {
			fmt.Printf("delete(%v): not-found\n", key)
		}
		m.checkInvariants()
		return false
	}

	// Clear the slot so the GC can reclaim whatever the key and value
	// reference.
	m.slots[pos] = slot[K, V]{}
	m.used--
	if debug {
		fmt.Printf("delete(%v): index=%d used=%d\n", key, pos, m.used)
	}

	// Close the gap at pos. Walk the rest of the cluster and move back every
	// entry which is still reachable from its home when placed at pos. An
	// entry whose home lies in (pos, j] cannot move, but an entry further
	// along the cluster may still have its home before pos, so we keep
	// walking until the end of the cluster. The resulting layout differs
	// from stopping at the first unmovable entry only where stopping would
	// have left an entry unreachable.
	for j := (pos + 1) & m.mask; m.slots[j].occupied; j = (j + 1) & m.mask {
		s := &m.slots[j]
		home := m.home(s.key)
		distance := (pos - home) & m.mask
		if distance >= s.distance {
			if debug {
				fmt.Printf("delete(skipping): index=%d home=%d distance=%d\n", j, home, s.distance)
			}
			continue
		}
		if debug {
			fmt.Printf("delete(shifting): %d -> %d distance=%d->%d\n", j, pos, s.distance, distance)
		}
		m.slots[pos] = *s
		m.slots[pos].distance = distance
		*s = slot[K, V]{}
		pos = j
	}

	m.checkInvariants()
	return true
}

// Clear deletes all entries from the map resulting in an empty map. The
// capacity of the map is retained.
func (m *Map[K, V]) Clear() {
	clear(m.slots)
	m.used = 0
	m.checkInvariants()
}

// All calls yield sequentially for each key and value present in the map. If
// yield returns false, range stops the iteration. The order of iteration is
// the physical order of the slots and is not otherwise specified.
//
// The map must not be mutated during iteration: deletion moves entries
// backward, so a mutation can cause entries to be skipped or visited twice.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	// Snapshot the slots so that a resize during iteration doesn't cause an
	// out of bounds access.
	slots := m.slots
	for i := range slots {
		s := &slots[i]
		if !s.occupied {
			continue
		}
		if !yield(s.key, s.value) {
			return
		}
	}
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.used
}

// Empty returns true if the map contains no entries.
func (m *Map[K, V]) Empty() bool {
	return m.used == 0
}

// HashFunc returns the hash function used by the map.
func (m *Map[K, V]) HashFunc() func(key K) uint64 {
	return m.hash
}

// Bucket returns the index of the slot holding key, or -1 if the key is
// not present. It exposes the physical layout of the map and is intended
// for tests and diagnostics.
func (m *Map[K, V]) Bucket(key K) int {
	i, ok := m.find(key)
	if !ok {
		return -1
	}
	return int(i)
}

// capacity returns the number of slots in the map.
func (m *Map[K, V]) capacity() int {
	return len(m.slots)
}

// home returns the index of the home slot for key.
func (m *Map[K, V]) home(key K) uintptr {
	return uintptr(m.hash(key)) & m.mask
}

// find returns the index of the slot holding key.
func (m *Map[K, V]) find(key K) (uintptr, bool) {
	home := m.home(key)
	if debug {
		fmt.Printf("find(%v): home=%d\n", key, home)
	}

	for i := uintptr(0); i <= m.mask; i++ {
		idx := (home + i) & m.mask
		s := &m.slots[idx]
		if !s.occupied {
			return 0, false
		}
		if key == s.key {
			return idx, true
		}
	}
	return 0, false
}

// uncheckedPut inserts an entry known not to be in the map into the first
// empty slot of its probe sequence, returning the index of that slot. Used
// by put after it has failed to find an existing entry to overwrite, and
// by resize.
func (m *Map[K, V]) uncheckedPut(home uintptr, key K, value V) uintptr {
	for i := uintptr(0); i <= m.mask; i++ {
		idx := (home + i) & m.mask
		s := &m.slots[idx]
		if !s.occupied {
			*s = slot[K, V]{
				key:      key,
				value:    value,
				distance: i,
				occupied: true,
			}
			if debug {
				fmt.Printf("put(inserting): index=%d distance=%d used=%d\n", idx, i, m.used+1)
			}
			return idx
		}
	}

	// The load factor is kept below 1/2, so there is always an empty slot.
	panic(fmt.Sprintf("invariant failed: no empty slot for %v\n%s", key, m.debugString()))
}

// resize allocates newCapacity slots and uncheckedPuts each element of the
// map into them (we know that no insertion here will Put an already-present
// value), discarding the old slots.
func (m *Map[K, V]) resize(newCapacity uintptr) {
	oldSlots := m.slots
	m.slots = make([]slot[K, V], newCapacity)
	m.mask = newCapacity - 1

	if debug {
		fmt.Printf("resize: capacity=%d->%d  used=%d\n", len(oldSlots), newCapacity, m.used)
	}

	for i := range oldSlots {
		s := &oldSlots[i]
		if !s.occupied {
			continue
		}
		_ = m.uncheckedPut(m.home(s.key), s.key, s.value)
	}
}

func (m *Map[K, V]) checkInvariants() {
	if invariants {
		capacity := len(m.slots)
		if capacity < minCapacity || capacity&(capacity-1) != 0 {
			panic(fmt.Sprintf("invariant failed: capacity %d is not a power of 2 >= %d", capacity, minCapacity))
		}
		if uintptr(capacity-1) != m.mask {
			panic(fmt.Sprintf("invariant failed: mask %d does not match capacity %d", m.mask, capacity))
		}
		if 2*m.used >= capacity {
			panic(fmt.Sprintf("invariant failed: used=%d exceeds half of capacity=%d\n%s",
				m.used, capacity, m.debugString()))
		}

		// For every occupied slot, verify the recorded distance and that every
		// slot between the home slot and the entry is occupied by a different
		// key. Count the number of used slots.
		var used int
		for i := range m.slots {
			s := &m.slots[i]
			if !s.occupied {
				continue
			}
			used++

			home := m.home(s.key)
			if d := (uintptr(i) - home) & m.mask; d != s.distance {
				panic(fmt.Sprintf("invariant failed: slot(%d): %v has distance %d, but is %d from home %d\n%s",
					i, s.key, s.distance, d, home, m.debugString()))
			}
			for j := home; j != uintptr(i); j = (j + 1) & m.mask {
				p := &m.slots[j]
				if !p.occupied {
					panic(fmt.Sprintf("invariant failed: slot(%d): %v unreachable from home %d, slot(%d) is empty\n%s",
						i, s.key, home, j, m.debugString()))
				}
				if p.key == s.key {
					panic(fmt.Sprintf("invariant failed: slot(%d): %v duplicated at slot(%d)\n%s",
						i, s.key, j, m.debugString()))
				}
			}
		}

		if used != m.used {
			panic(fmt.Sprintf("invariant failed: found %d used slots, but used count is %d\n%s",
				used, m.used, m.debugString()))
		}
	}
}

func (m *Map[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d\n", len(m.slots), m.used)
	for i := range m.slots {
		s := &m.slots[i]
		if !s.occupied {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
			continue
		}
		fmt.Fprintf(&buf, "  %4d: %v [home=%d distance=%d]\n", i, s.key, m.home(s.key), s.distance)
	}
	return buf.String()
}
