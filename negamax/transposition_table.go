package negamax

import (
	"math"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const entrySize = 16

const (
	minTableSizePowerOf2 = 16
	maxTableSizePowerOf2 = 20
)

// depthSalt spreads the same position searched to different depths over
// different buckets.
const depthSalt = 0x9e3779b97f4a7c15

// 16 bytes (entrySize)
type TableEntry struct {
	hash  uint64
	score int32
	depth uint8
	valid bool
}

// TranspositionTable caches exact negamax values keyed by position hash and
// remaining depth. It only ever holds proven results; see Solver.negamax.
// A table belongs to one solver and is not safe for concurrent use.
type TranspositionTable struct {
	table        []TableEntry
	sizePowerOf2 int
	sizeMask     uint64

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
	// "type 2" collisions: a different position (or depth) already owns the
	// bucket.
	t2collisions atomic.Uint64
}

func (t *TranspositionTable) index(zval uint64, depth int) uint64 {
	return (zval ^ uint64(depth)*depthSalt) & t.sizeMask
}

func (t *TranspositionTable) lookup(zval uint64, depth int) (int32, bool) {
	t.lookups.Add(1)
	e := t.table[t.index(zval, depth)]
	if !e.valid {
		return 0, false
	}
	if e.hash != zval || int(e.depth) != depth {
		t.t2collisions.Add(1)
		return 0, false
	}
	t.hits.Add(1)
	return e.score, true
}

func (t *TranspositionTable) store(zval uint64, depth int, score int32) {
	// just overwrite whatever is there.
	t.table[t.index(zval, depth)] = TableEntry{
		hash:  zval,
		score: score,
		depth: uint8(depth),
		valid: true,
	}
	t.created.Add(1)
}

// Reset sizes the table to roughly fractionOfMemory of system memory,
// clamped to between 2^16 and 2^20 entries, and empties it.
func (t *TranspositionTable) Reset(fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	// find biggest power of 2 lower than desired.
	pow := minTableSizePowerOf2
	if desiredNElems >= 1 {
		pow = int(math.Log2(desiredNElems))
	}
	pow = max(minTableSizePowerOf2, min(maxTableSizePowerOf2, pow))

	numElems := 1 << pow
	reset := false
	if t.table != nil && len(t.table) == numElems {
		reset = true
		clear(t.table)
	} else {
		t.table = make([]TableEntry, numElems)
	}
	t.sizePowerOf2 = pow
	t.sizeMask = uint64(numElems - 1)

	log.Debug().Int("num-elems", numElems).
		Float64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reset", reset).
		Msg("transposition-table-size")

	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
}

// Clear empties the table without resizing it.
func (t *TranspositionTable) Clear() {
	clear(t.table)
}

// Stats returns the created, lookups, hits and collision counters.
func (t *TranspositionTable) Stats() (created, lookups, hits, collisions uint64) {
	return t.created.Load(), t.lookups.Load(), t.hits.Load(), t.t2collisions.Load()
}
