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

package rhmap

// Iterator is a cursor over the occupied slots of a Map. It is positioned
// either at an occupied slot or at the end of the map. Iterators are
// comparable: two iterators are == iff they refer to the same map and the
// same slot, so reaching the end can be detected with it == m.End().
//
//	for it := m.Begin(); it != m.End(); it.Next() {
//	  fmt.Printf("%v: %v\n", it.Key(), it.Value())
//	}
//
// An Iterator does not modify the map. Mutating the map invalidates every
// outstanding Iterator.
type Iterator[K comparable, V any] struct {
	m   *Map[K, V]
	pos int
}

// Begin returns an Iterator positioned at the first occupied slot, or
// m.End() if the map is empty.
func (m *Map[K, V]) Begin() Iterator[K, V] {
	it := Iterator[K, V]{m: m}
	it.skipEmpty()
	return it
}

// End returns the Iterator positioned one past the last slot.
func (m *Map[K, V]) End() Iterator[K, V] {
	return Iterator[K, V]{m: m, pos: len(m.slots)}
}

// Next advances the iterator to the next occupied slot.
func (it *Iterator[K, V]) Next() {
	it.pos++
	it.skipEmpty()
}

// Valid returns false if the iterator is positioned at the end of the map.
func (it Iterator[K, V]) Valid() bool {
	return it.pos < len(it.m.slots)
}

// Key returns the key at the iterator's position. It must not be called on
// an iterator which is not Valid.
func (it Iterator[K, V]) Key() K {
	return it.m.slots[it.pos].key
}

// Value returns the value at the iterator's position. It must not be called
// on an iterator which is not Valid.
func (it Iterator[K, V]) Value() V {
	return it.m.slots[it.pos].value
}

func (it *Iterator[K, V]) skipEmpty() {
	for it.pos < len(it.m.slots) && !it.m.slots[it.pos].occupied {
		it.pos++
	}
}
