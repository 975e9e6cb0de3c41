package board

import "math/bits"

// Shift distances for the four directions a line of four can run in.
const (
	strideVertical   = 1
	strideDiagonal1  = Height     // down-right
	strideHorizontal = Height + 1 // one lane over
	strideDiagonal2  = Height + 2 // up-right
)

// alignment reports whether pos contains four in a row.
func alignment(pos uint64) bool {
	// horizontal
	m := pos & (pos >> strideHorizontal)
	if m&(m>>(2*strideHorizontal)) != 0 {
		return true
	}
	// diagonal 1
	m = pos & (pos >> strideDiagonal1)
	if m&(m>>(2*strideDiagonal1)) != 0 {
		return true
	}
	// diagonal 2
	m = pos & (pos >> strideDiagonal2)
	if m&(m>>(2*strideDiagonal2)) != 0 {
		return true
	}
	// vertical
	m = pos & (pos >> strideVertical)
	return m&(m>>(2*strideVertical)) != 0
}

// alignedCells returns every cell that belongs to at least one four in a row
// of pos.
func alignedCells(pos uint64) uint64 {
	var r uint64
	for _, d := range [...]int{strideHorizontal, strideDiagonal1, strideDiagonal2, strideVertical} {
		m := pos & (pos >> d)
		starts := m & (m >> (2 * d))
		r |= starts | starts<<d | starts<<(2*d) | starts<<(3*d)
	}
	return r
}

// winningCells returns the empty cells that would complete a four in a row
// for pos. Cells need not be reachable yet.
func winningCells(pos, mask uint64) uint64 {
	// vertical
	r := (pos << 1) & (pos << 2) & (pos << 3)

	for _, d := range [...]int{strideHorizontal, strideDiagonal1, strideDiagonal2} {
		p := (pos << d) & (pos << (2 * d))
		r |= p & (pos << (3 * d))
		r |= p & (pos >> d)
		p = (pos >> d) & (pos >> (2 * d))
		r |= p & (pos << d)
		r |= p & (pos >> (3 * d))
	}
	return r & (boardMask ^ mask)
}

func (p *Position) winningPositions() uint64 {
	return winningCells(p.stones, p.mask)
}

func (p *Position) opponentWinningPositions() uint64 {
	return winningCells(p.stones^p.mask, p.mask)
}

// IsWinningMove reports whether the player to move wins by playing col.
// It is false for a column that is off the board or full.
func (p *Position) IsWinningMove(col int) bool {
	if !p.CanPlay(col) {
		return false
	}
	pos := p.stones | (p.mask+bottomMaskCol(col))&ColumnMask(col)
	return alignment(pos)
}

// CanWinNext reports whether the player to move has an immediate win.
func (p *Position) CanWinNext() bool {
	return p.winningPositions()&p.possible() != 0
}

// PossibleNonLosingMoves returns the playable cells that do not hand the
// opponent a win on their next move. It returns 0 when every move loses:
// the opponent has two immediate threats, or the only block sits under
// another of their winning cells.
func (p *Position) PossibleNonLosingMoves() uint64 {
	possible := p.possible()
	opp := p.opponentWinningPositions()
	forced := possible & opp
	if forced != 0 {
		if forced&(forced-1) != 0 {
			return 0
		}
		possible = forced
	}
	// never play directly below a cell the opponent wins with
	return possible &^ (opp >> 1)
}

// MoveScore counts the winning cells the player to move would own after
// playing move. It is a move ordering heuristic only.
func (p *Position) MoveScore(move uint64) int {
	return bits.OnesCount64(winningCells(p.stones|move, p.mask))
}

// PriorPlayerHasWon reports whether the player who made the last move has
// four in a row.
func (p *Position) PriorPlayerHasWon() bool {
	return alignment(p.stones ^ p.mask)
}

// PriorPlayerAlignments lists the cells of every four in a row owned by the
// player who made the last move. Cells are numbered row by row from the top
// left (row*Width + col) and returned in bitboard order, bottom to top
// within a column and column by column.
func (p *Position) PriorPlayerAlignments() []int {
	cells := alignedCells(p.stones ^ p.mask)
	out := make([]int, 0, bits.OnesCount64(cells))
	for cells != 0 {
		b := bits.TrailingZeros64(cells)
		cells &= cells - 1
		col, row := b/laneHeight, b%laneHeight
		out = append(out, (Height-1-row)*Width+col)
	}
	return out
}
