package zobrist

import (
	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

// NumPlayers is fixed; the key table has one column per player.
const NumPlayers = 2

// generate a zobrist hash for a gravity-drop board position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	theirTurn uint64

	posTable [][NumPlayers]uint64
	numCells int
}

// Initialize draws fresh keys for a board with numCells cells.
func (z *Zobrist) Initialize(numCells int) {
	z.fill(numCells, func() uint64 { return frand.Uint64n(bignum) + 1 })
}

// InitializeWithSeed draws keys from a deterministic stream, so two tables
// built from the same seed are identical.
func (z *Zobrist) InitializeWithSeed(numCells int, seed [32]byte) {
	rng := frand.NewCustom(seed[:], 1024, 12)
	z.fill(numCells, func() uint64 { return rng.Uint64n(bignum) + 1 })
}

func (z *Zobrist) fill(numCells int, next func() uint64) {
	z.numCells = numCells
	z.posTable = make([][NumPlayers]uint64, numCells)
	for i := 0; i < numCells; i++ {
		for p := 0; p < NumPlayers; p++ {
			z.posTable[i][p] = next()
		}
	}
	z.theirTurn = next()
}

func (z *Zobrist) NumCells() int {
	return z.numCells
}

// Hash computes a key from scratch. squares holds the player index owning
// each cell, or a negative number for an empty cell. onTurn is the player
// to move.
func (z *Zobrist) Hash(squares []int8, onTurn int) uint64 {
	key := uint64(0)
	for i, owner := range squares {
		if owner < 0 {
			continue
		}
		key ^= z.posTable[i][owner]
	}
	if onTurn == 1 {
		key ^= z.theirTurn
	}
	return key
}

// AddPiece toggles a piece of player on cell and flips the side to move.
// Applying it twice with the same arguments restores the original key, so
// it serves both for playing and unplaying a move.
func (z *Zobrist) AddPiece(key uint64, cell, player int) uint64 {
	key ^= z.posTable[cell][player]
	key ^= z.theirTurn
	return key
}

// PieceKey is exported for tests and debugging.
func (z *Zobrist) PieceKey(cell, player int) uint64 {
	return z.posTable[cell][player]
}

func (z *Zobrist) TurnKey() uint64 {
	return z.theirTurn
}
