package util

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

type hashed string

func (h hashed) Hash() string { return string(h) }

func TestComparingHashable(t *testing.T) {
	values := []hashed{"c", "a", "b"}
	slices.SortFunc(values, ComparingHashable[hashed, string])
	assert.Equal(t, []hashed{"a", "b", "c"}, values)
}
