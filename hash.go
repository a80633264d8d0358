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

import "github.com/dolthub/maphash"

// defaultHasher returns the hash function used by Go's builtin map[K]V,
// with a random seed chosen for each call.
func defaultHasher[K comparable]() func(key K) uint64 {
	return maphash.NewHasher[K]().Hash
}
