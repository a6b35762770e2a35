package negamax

import (
	"testing"

	"github.com/matryer/is"
)

func TestTTableEntry(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	tt.Reset(0)
	is.Equal(tt.sizePowerOf2, minTableSizePowerOf2)
	is.Equal(len(tt.table), 1<<minTableSizePowerOf2)

	tt.store(9409641586937047728, 5, 999997)
	score, ok := tt.lookup(9409641586937047728, 5)
	is.True(ok)
	is.Equal(score, int32(999997))

	// Same position, other depth: a different key.
	_, ok = tt.lookup(9409641586937047728, 7)
	is.True(!ok)

	// A different position landing in the same bucket is a collision.
	other := 9409641586937047728 ^ (tt.sizeMask + 1)
	_, ok = tt.lookup(other, 5)
	is.True(!ok)
	created, lookups, hits, collisions := tt.Stats()
	is.Equal(created, uint64(1))
	is.Equal(lookups, uint64(3))
	is.Equal(hits, uint64(1))
	is.Equal(collisions, uint64(1))

	tt.Clear()
	_, ok = tt.lookup(9409641586937047728, 5)
	is.True(!ok)
}

func TestTTableSizeIsClamped(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	tt.Reset(1)
	is.Equal(tt.sizePowerOf2, maxTableSizePowerOf2)
	is.Equal(tt.sizeMask, uint64(1<<maxTableSizePowerOf2-1))
}
