// Package shuffle produces seed-reproducible orderings.
//
// The construction is pinned so the same seed yields the same order on every
// machine and across restarts: the seed is hashed with BLAKE2b-256, the first
// eight digest bytes (big-endian) seed a SplitMix64 generator, and that stream
// drives a Fisher–Yates shuffle from the last index down to 1 with
// j = next() mod (i+1).
package shuffle

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

type splitMix64 struct {
	state uint64
}

func newSplitMix64(seed string) *splitMix64 {
	digest := blake2b.Sum256([]byte(seed))
	return &splitMix64{state: binary.BigEndian.Uint64(digest[:8])}
}

func (g *splitMix64) next() uint64 {
	g.state += 0x9E3779B97F4A7C15
	z := g.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Permutation returns the seed-determined ordering of n items as source indices:
// element k of the result is the index of the item placed at position k.
func Permutation(n int, seed string) []int {
	if n <= 0 {
		return []int{}
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	rng := newSplitMix64(seed)
	for i := n - 1; i > 0; i-- {
		j := int(rng.next() % uint64(i+1))
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// Shuffle returns a new slice holding items in the seed-determined order.
// The input slice is not modified.
func Shuffle[T any](items []T, seed string) []T {
	out := make([]T, len(items))
	for k, src := range Permutation(len(items), seed) {
		out[k] = items[src]
	}
	return out
}
