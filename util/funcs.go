package util

import (
	"cmp"

	"github.com/hashicorp/go-set/v3"
)

// ComparingHashable orders hashable values by their hash, for deterministic output.
func ComparingHashable[A set.Hasher[B], B set.Hash](a, b A) int {
	return cmp.Compare(a.Hash(), b.Hash())
}
