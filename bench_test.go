package rhmap

import (
	"fmt"
	"math/rand"
	"strconv"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
	"github.com/dolthub/swiss"
)

var benchLens = []int{16, 256, 4096, 1 << 16}

// sink keeps results live so the compiler cannot drop the lookups.
var sink int

func forEachLen(b *testing.B, fn func(b *testing.B, n int)) {
	for _, n := range benchLens {
		b.Run(fmt.Sprintf("len=%d", n), func(b *testing.B) {
			fn(b, n)
		})
	}
}

// int64Keys returns n distinct keys in [start, start+n) in random order.
func int64Keys(start, n int) []int64 {
	keys := make([]int64, n)
	for i, j := range rand.New(rand.NewSource(int64(start))).Perm(n) {
		keys[i] = int64(start + j)
	}
	return keys
}

func stringKeys(start, n int) []string {
	keys := make([]string, n)
	for i, k := range int64Keys(start, n) {
		keys[i] = "key-" + strconv.FormatInt(k, 10)
	}
	return keys
}

func BenchmarkGet(b *testing.B) {
	b.Run("t=int64", func(b *testing.B) {
		benchmarkGet(b, int64Keys)
	})
	b.Run("t=string", func(b *testing.B) {
		benchmarkGet(b, stringKeys)
	})
}

func benchmarkGet[K comparable](b *testing.B, gen func(start, n int) []K) {
	for _, c := range []struct {
		name   string
		lookup func(keys []K) []K
	}{
		{"hit", func(keys []K) []K { return keys }},
		{"miss", func(keys []K) []K { return gen(len(keys), len(keys)) }},
	} {
		b.Run(c.name, func(b *testing.B) {
			b.Run("impl=builtin", func(b *testing.B) {
				forEachLen(b, func(b *testing.B, n int) {
					keys := gen(0, n)
					lookups := c.lookup(keys)
					m := make(map[K]int, n)
					for i, k := range keys {
						m[k] = i
					}
					b.ResetTimer()
					for i := 0; i < b.N; i++ {
						sink += m[lookups[i%n]]
					}
				})
			})
			b.Run("impl=dolthubSwiss", func(b *testing.B) {
				forEachLen(b, func(b *testing.B, n int) {
					keys := gen(0, n)
					lookups := c.lookup(keys)
					m := swiss.NewMap[K, int](uint32(n))
					for i, k := range keys {
						m.Put(k, i)
					}
					b.ResetTimer()
					for i := 0; i < b.N; i++ {
						v, _ := m.Get(lookups[i%n])
						sink += v
					}
				})
			})
			b.Run("impl=rhmap", func(b *testing.B) {
				forEachLen(b, func(b *testing.B, n int) {
					keys := gen(0, n)
					lookups := c.lookup(keys)
					m := New[K, int](n)
					for i, k := range keys {
						m.Put(k, i)
					}
					cs := perfbench.Open(b)
					b.ResetTimer()
					cs.Reset()
					for i := 0; i < b.N; i++ {
						v, _ := m.Get(lookups[i%n])
						sink += v
					}
				})
			})
		})
	}
}

// BenchmarkChurn keeps n of 2n keys live, deleting the oldest key and
// inserting a new one on every iteration.
func BenchmarkChurn(b *testing.B) {
	b.Run("impl=builtin", func(b *testing.B) {
		forEachLen(b, func(b *testing.B, n int) {
			keys := int64Keys(0, 2*n)
			m := make(map[int64]int, n)
			for _, k := range keys[:n] {
				m[k] = 0
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				delete(m, keys[i%(2*n)])
				m[keys[(i+n)%(2*n)]] = i
			}
		})
	})
	b.Run("impl=dolthubSwiss", func(b *testing.B) {
		forEachLen(b, func(b *testing.B, n int) {
			keys := int64Keys(0, 2*n)
			m := swiss.NewMap[int64, int](uint32(n))
			for _, k := range keys[:n] {
				m.Put(k, 0)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				m.Delete(keys[i%(2*n)])
				m.Put(keys[(i+n)%(2*n)], i)
			}
		})
	})
	b.Run("impl=rhmap", func(b *testing.B) {
		forEachLen(b, func(b *testing.B, n int) {
			keys := int64Keys(0, 2*n)
			m := New[int64, int](n)
			for _, k := range keys[:n] {
				m.Put(k, 0)
			}
			cs := perfbench.Open(b)
			b.ResetTimer()
			cs.Reset()
			for i := 0; i < b.N; i++ {
				m.Delete(keys[i%(2*n)])
				m.Put(keys[(i+n)%(2*n)], i)
			}
		})
	})
}

// BenchmarkDeleteClustered measures backward-shift deletion on clusters of a
// fixed width. Every group of width consecutive keys shares one home slot
// and the groups are spaced far enough apart that clusters never merge.
// Deleting a key shifts the entries behind it in its cluster back by one
// slot, and putting it back appends it at the end of the cluster.
func BenchmarkDeleteClustered(b *testing.B) {
	for _, width := range []int64{1, 8, 64} {
		b.Run(fmt.Sprintf("width=%d", width), func(b *testing.B) {
			forEachLen(b, func(b *testing.B, n int) {
				if int64(n) < width {
					b.Skip("fewer keys than the cluster width")
				}
				m := New[int64, int](n, WithHash[int64, int](func(k int64) uint64 {
					return uint64(k/width) * uint64(2*width)
				}))
				for k := int64(0); k < int64(n); k++ {
					m.Put(k, 0)
				}
				groups := int64(n) / width
				cs := perfbench.Open(b)
				b.ResetTimer()
				cs.Reset()
				for i := 0; i < b.N; i++ {
					// Cycle through the groups, and within each group
					// through its members.
					k := (int64(i) % groups) * width
					k += int64(i) / groups % width
					m.Delete(k)
					m.Put(k, i)
				}
			})
		})
	}
}

// BenchmarkIterate measures one complete pass over a map of n entries.
func BenchmarkIterate(b *testing.B) {
	b.Run("impl=builtin", func(b *testing.B) {
		forEachLen(b, func(b *testing.B, n int) {
			m := make(map[int64]int, n)
			for i, k := range int64Keys(0, n) {
				m[k] = i
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for _, v := range m {
					sink += v
				}
			}
		})
	})
	b.Run("impl=dolthubSwiss", func(b *testing.B) {
		forEachLen(b, func(b *testing.B, n int) {
			m := swiss.NewMap[int64, int](uint32(n))
			for i, k := range int64Keys(0, n) {
				m.Put(k, i)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				m.Iter(func(_ int64, v int) bool {
					sink += v
					return false
				})
			}
		})
	})
	b.Run("impl=rhmap/cursor", func(b *testing.B) {
		forEachLen(b, func(b *testing.B, n int) {
			m := New[int64, int](n)
			for i, k := range int64Keys(0, n) {
				m.Put(k, i)
			}
			cs := perfbench.Open(b)
			b.ResetTimer()
			cs.Reset()
			for i := 0; i < b.N; i++ {
				for it := m.Begin(); it != m.End(); it.Next() {
					sink += it.Value()
				}
			}
		})
	})
	b.Run("impl=rhmap/all", func(b *testing.B) {
		forEachLen(b, func(b *testing.B, n int) {
			m := New[int64, int](n)
			for i, k := range int64Keys(0, n) {
				m.Put(k, i)
			}
			cs := perfbench.Open(b)
			b.ResetTimer()
			cs.Reset()
			for i := 0; i < b.N; i++ {
				m.All(func(_ int64, v int) bool {
					sink += v
					return true
				})
			}
		})
	})
}

// BenchmarkRef increments counters in place. With present=false the map is
// cleared every n iterations so that every Ref inserts.
func BenchmarkRef(b *testing.B) {
	for _, present := range []bool{true, false} {
		b.Run(fmt.Sprintf("present=%t", present), func(b *testing.B) {
			b.Run("impl=builtin", func(b *testing.B) {
				forEachLen(b, func(b *testing.B, n int) {
					keys := int64Keys(0, n)
					m := make(map[int64]int, n)
					for _, k := range keys {
						m[k] = 0
					}
					b.ResetTimer()
					for i := 0; i < b.N; i++ {
						if !present && i%n == 0 {
							clear(m)
						}
						m[keys[i%n]]++
					}
				})
			})
			b.Run("impl=rhmap", func(b *testing.B) {
				forEachLen(b, func(b *testing.B, n int) {
					keys := int64Keys(0, n)
					m := New[int64, int](n)
					for _, k := range keys {
						m.Put(k, 0)
					}
					cs := perfbench.Open(b)
					b.ResetTimer()
					cs.Reset()
					for i := 0; i < b.N; i++ {
						if !present && i%n == 0 {
							m.Clear()
						}
						*m.Ref(keys[i%n])++
					}
				})
			})
		})
	}
}

// BenchmarkFill builds a map of n entries from scratch, either growing from
// the minimum capacity or sized up front.
func BenchmarkFill(b *testing.B) {
	for _, presize := range []bool{false, true} {
		b.Run(fmt.Sprintf("presize=%t", presize), func(b *testing.B) {
			b.Run("impl=builtin", func(b *testing.B) {
				forEachLen(b, func(b *testing.B, n int) {
					keys := int64Keys(0, n)
					hint := 0
					if presize {
						hint = n
					}
					b.ResetTimer()
					for i := 0; i < b.N; i++ {
						m := make(map[int64]int, hint)
						for j, k := range keys {
							m[k] = j
						}
						sink += len(m)
					}
				})
			})
			b.Run("impl=rhmap", func(b *testing.B) {
				forEachLen(b, func(b *testing.B, n int) {
					keys := int64Keys(0, n)
					hint := 0
					if presize {
						hint = n
					}
					cs := perfbench.Open(b)
					b.ResetTimer()
					cs.Reset()
					for i := 0; i < b.N; i++ {
						m := New[int64, int](hint)
						for j, k := range keys {
							m.Put(k, j)
						}
						sink += m.Len()
					}
				})
			})
		})
	}
}
