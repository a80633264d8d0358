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

package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cockroachdb/rhmap"
	"github.com/gammazero/deque"
)

// payload is the value stored for every key. It is deliberately larger than
// a word so that moving entries has a cost.
type payload struct {
	d [3]float64
}

// table is the subset of map operations exercised by the workloads.
type table interface {
	Put(key int, value payload)
	Delete(key int) bool
	Len() int
}

// builtinTable adapts Go's builtin map to table.
type builtinTable map[int]payload

func (t builtinTable) Put(key int, value payload) {
	t[key] = value
}

func (t builtinTable) Delete(key int) bool {
	_, ok := t[key]
	delete(t, key)
	return ok
}

func (t builtinTable) Len() int {
	return len(t)
}

var _ table = builtinTable(nil)
var _ table = (*rhmap.Map[int, payload])(nil)

type stressResult struct {
	// responses holds the result of every Delete in the first pass.
	responses []bool
	// total is the duration of the first pass.
	total time.Duration
	// max is the slowest single operation of the second pass.
	max time.Duration
}

func (r stressResult) mean(iterations int) time.Duration {
	return r.total / time.Duration(iterations)
}

// runStress seeds t with random keys, then repeatedly draws a key and
// deletes it, putting it back if it was absent. The first pass is timed as
// a whole and records every Delete result. The second pass times each
// operation individually.
func runStress(t table, cfg config) stressResult {
	rng := rand.New(rand.NewSource(cfg.Seed))
	draw := func() int {
		return rng.Intn(cfg.Elements + 1)
	}

	for i := 0; i < cfg.Elements; i++ {
		t.Put(draw(), payload{})
	}

	r := stressResult{responses: make([]bool, 0, cfg.Iterations)}
	start := time.Now()
	for i := 0; i < cfg.Iterations; i++ {
		k := draw()
		ok := t.Delete(k)
		r.responses = append(r.responses, ok)
		if !ok {
			t.Put(k, payload{})
		}
	}
	r.total = time.Since(start)

	for i := 0; i < cfg.Iterations; i++ {
		k := draw()
		start := time.Now()
		if !t.Delete(k) {
			t.Put(k, payload{})
		}
		if d := time.Since(start); d > r.max {
			r.max = d
		}
	}
	return r
}

// runWindow inserts cfg.Iterations distinct keys, deleting the oldest live
// key whenever more than cfg.Window keys are live.
func runWindow(t table, cfg config) (time.Duration, error) {
	q := deque.New[int](cfg.Window)
	start := time.Now()
	for i := 0; i < cfg.Iterations; i++ {
		t.Put(i, payload{})
		q.PushBack(i)
		if q.Len() > cfg.Window {
			if k := q.PopFront(); !t.Delete(k) {
				return 0, fmt.Errorf("window key %d missing after %d operations", k, i)
			}
		}
	}
	elapsed := time.Since(start)

	if t.Len() != q.Len() {
		return 0, fmt.Errorf("window holds %d keys, expected %d", t.Len(), q.Len())
	}
	return elapsed, nil
}

// compareResponses returns an error describing the first Delete result which
// differs between the two stress runs.
func compareResponses(expected, actual []bool) error {
	if len(expected) != len(actual) {
		return fmt.Errorf("recorded %d responses, expected %d", len(actual), len(expected))
	}
	for i := range expected {
		if expected[i] != actual[i] {
			return fmt.Errorf("delete %d returned %t, expected %t", i, actual[i], expected[i])
		}
	}
	return nil
}
