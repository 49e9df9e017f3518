// Package bitvec provides a fixed-size bit vector indexed by a typed integer.
//
// The verifier keeps one claim set per resource category (nodes, tile-kind
// wires, pips, sites). Indexing each set with its own id type keeps a pip id
// from ever being used to test a node claim.
package bitvec

import "math/bits"

// BitVec is a fixed-length set of bits addressed by I.
type BitVec[I ~int] struct {
	words []uint64
	n     int
}

// New returns a cleared vector of n bits.
func New[I ~int](n int) *BitVec[I] {
	if n < 0 {
		n = 0
	}
	return &BitVec[I]{words: make([]uint64, (n+63)/64), n: n}
}

// Len returns the number of addressable bits.
func (b *BitVec[I]) Len() int {
	return b.n
}

func (b *BitVec[I]) check(i I) {
	if int(i) < 0 || int(i) >= b.n {
		panic("bitvec: index out of range")
	}
}

// Get reports whether bit i is set.
func (b *BitVec[I]) Get(i I) bool {
	b.check(i)
	return b.words[int(i)/64]&(1<<(uint(i)%64)) != 0
}

// Set sets bit i to v.
func (b *BitVec[I]) Set(i I, v bool) {
	b.check(i)
	if v {
		b.words[int(i)/64] |= 1 << (uint(i) % 64)
	} else {
		b.words[int(i)/64] &^= 1 << (uint(i) % 64)
	}
}

// Claim sets bit i and returns its previous value.
func (b *BitVec[I]) Claim(i I) bool {
	was := b.Get(i)
	if !was {
		b.Set(i, true)
	}
	return was
}

// Count returns the number of set bits.
func (b *BitVec[I]) Count() int {
	total := 0
	for _, w := range b.words {
		total += bits.OnesCount64(w)
	}
	return total
}

// All reports whether every bit is set. An empty vector is full.
func (b *BitVec[I]) All() bool {
	return b.Count() == b.n
}

// Each calls fn for every index whose bit equals v, in ascending order.
func (b *BitVec[I]) Each(v bool, fn func(I)) {
	for i := 0; i < b.n; i++ {
		set := b.words[i/64]&(1<<(uint(i)%64)) != 0
		if set == v {
			fn(I(i))
		}
	}
}
