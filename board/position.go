package board

import (
	"errors"
	"math/bits"
)

// A Position is a Connect Four board stored as two bitboards.
//
// Each column is a lane of Height+1 bits; the extra bit on top of every lane
// is a guard that is never set in a legal position, so shifts used by the
// alignment code cannot spill from one column into the next. Bit order:
//
//	 6 13 20 27 34 41 48
//	 5 12 19 26 33 40 47
//	 4 11 18 25 32 39 46
//	 3 10 17 24 31 38 45
//	 2  9 16 23 30 37 44
//	 1  8 15 22 29 36 43
//	 0  7 14 21 28 35 42
//
// stones holds the cells of the player whose turn it is; mask holds every
// occupied cell.
type Position struct {
	stones uint64
	mask   uint64
	moves  int
}

const (
	Width     = 7
	Height    = 6
	BoardSize = Width * Height

	// MinScore and MaxScore bound the score of any position that is not an
	// immediate win or a forced loss on the next move.
	MinScore = -BoardSize/2 + 3
	MaxScore = (BoardSize+1)/2 - 3

	laneHeight = Height + 1
	laneMask   = uint64(1)<<laneHeight - 1
)

// The transposition table keeps 32 bits of every key and derives about 23
// more from the slot index; keys wider than 54 bits would not be recoverable.
const _ uint = 54 - Width*laneHeight

var (
	ErrInvalidColumn   = errors.New("column out of range")
	ErrColumnFull      = errors.New("column is full")
	ErrInvalidMove     = errors.New("move is not a single playable cell")
	ErrGameOver        = errors.New("game is already decided")
	ErrInvalidPosition = errors.New("bitboards do not describe a reachable position")
)

var (
	bottomMask = fillBottom()
	boardMask  = bottomMask * (1<<Height - 1)
)

func fillBottom() uint64 {
	var m uint64
	for col := 0; col < Width; col++ {
		m |= bottomMaskCol(col)
	}
	return m
}

func bottomMaskCol(col int) uint64 {
	return 1 << (col * laneHeight)
}

func topMaskCol(col int) uint64 {
	return 1 << (Height - 1) << (col * laneHeight)
}

// ColumnMask returns the playable cells of a column.
func ColumnMask(col int) uint64 {
	return (1<<Height - 1) << (col * laneHeight)
}

// New returns the empty board.
func New() Position {
	return Position{}
}

// FromBitboards builds a position from raw bitboards without checking them.
// Call Validate if the values come from an untrusted source.
func FromBitboards(stones, mask uint64, moves int) Position {
	return Position{stones: stones, mask: mask, moves: moves}
}

// FromKey rebuilds a position from the value returned by Key. Inside each
// lane the key is stones + (2^h - 1) where h is the column height, and
// stones < 2^h, so h is the bit length of lane+1 minus one.
func FromKey(key uint64, moves int) Position {
	var stones, mask uint64
	for col := 0; col < Width; col++ {
		shift := col * laneHeight
		lane := (key >> shift) & laneMask
		h := bits.Len64(lane+1) - 1
		colBits := uint64(1)<<h - 1
		mask |= colBits << shift
		stones |= (lane - colBits) << shift
	}
	return Position{stones: stones, mask: mask, moves: moves}
}

func (p *Position) Stones() uint64 { return p.stones }
func (p *Position) Mask() uint64   { return p.mask }
func (p *Position) Moves() int     { return p.moves }

// Key uniquely identifies the position. The sum never carries across lanes
// because each lane of mask is at most 2^Height - 1.
func (p *Position) Key() uint64 {
	return p.stones + p.mask
}

// MirrorKey is the key of the position reflected across the centre column.
func (p *Position) MirrorKey() uint64 {
	return mirror(p.stones) + mirror(p.mask)
}

func mirror(b uint64) uint64 {
	var r uint64
	for col := 0; col < Width; col++ {
		lane := (b >> (col * laneHeight)) & laneMask
		r |= lane << ((Width - 1 - col) * laneHeight)
	}
	return r
}

// Validate checks the invariants the search relies on: stones is a subset
// of mask, nothing is set outside the playable area, every column is filled
// from the bottom, the move count matches, and the player to move does not
// already own four in a row.
func (p *Position) Validate() error {
	if p.stones&^p.mask != 0 || p.mask&^boardMask != 0 {
		return ErrInvalidPosition
	}
	for col := 0; col < Width; col++ {
		lane := (p.mask >> (col * laneHeight)) & laneMask
		if lane&(lane+1) != 0 {
			return ErrInvalidPosition
		}
	}
	if bits.OnesCount64(p.mask) != p.moves {
		return ErrInvalidPosition
	}
	if alignment(p.stones) {
		return ErrInvalidPosition
	}
	return nil
}

// CanPlay reports whether col is on the board and not full.
func (p *Position) CanPlay(col int) bool {
	if col < 0 || col >= Width {
		return false
	}
	return p.mask&topMaskCol(col) == 0
}

// PlayCol drops a stone for the player to move into col.
func (p *Position) PlayCol(col int) error {
	if col < 0 || col >= Width {
		return ErrInvalidColumn
	}
	if p.mask&topMaskCol(col) != 0 {
		return ErrColumnFull
	}
	return p.PlayMove((p.mask + bottomMaskCol(col)) & ColumnMask(col))
}

// PlayMove plays the single cell given by move, which must be the lowest
// empty cell of its column.
func (p *Position) PlayMove(move uint64) error {
	if move == 0 || move&(move-1) != 0 || move&p.possible() == 0 {
		return ErrInvalidMove
	}
	if p.PriorPlayerHasWon() {
		return ErrGameOver
	}
	p.Play(move)
	return nil
}

// Play is PlayMove without any checks. move must be one of the cells of
// PossibleMoves and the game must not be decided.
func (p *Position) Play(move uint64) {
	p.stones ^= p.mask
	p.mask |= move
	p.moves++
}

// possible returns the lowest free cell of every column that is not full.
func (p *Position) possible() uint64 {
	return (p.mask + bottomMask) & boardMask
}

// PossibleMoves is the exported form of possible, one bit per playable
// column.
func (p *Position) PossibleMoves() uint64 {
	return p.possible()
}

// ColumnOf returns the column a single-bit move lands in.
func ColumnOf(move uint64) int {
	return bits.TrailingZeros64(move) / laneHeight
}
