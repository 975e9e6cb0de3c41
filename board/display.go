package board

import (
	"fmt"
	"strings"
)

const (
	FirstPlayerMarker  = 'x'
	SecondPlayerMarker = 'o'
	EmptyMarker        = '.'
)

// firstPlayerStones returns the stones of whoever moved first, regardless of
// whose turn it is.
func (p *Position) firstPlayerStones() uint64 {
	if p.moves%2 == 0 {
		return p.stones
	}
	return p.stones ^ p.mask
}

// ToDisplayText renders the board top row first, with the first player as
// 'x' and the second as 'o'.
func (p *Position) ToDisplayText() string {
	var sb strings.Builder
	first := p.firstPlayerStones()
	sb.WriteString(" ")
	for col := 0; col < Width; col++ {
		fmt.Fprintf(&sb, " %d", col)
	}
	sb.WriteString("\n")
	for row := Height - 1; row >= 0; row-- {
		sb.WriteString("|")
		for col := 0; col < Width; col++ {
			cell := uint64(1) << (col*laneHeight + row)
			marker := EmptyMarker
			switch {
			case p.mask&cell == 0:
			case first&cell != 0:
				marker = FirstPlayerMarker
			default:
				marker = SecondPlayerMarker
			}
			sb.WriteByte(' ')
			sb.WriteByte(byte(marker))
		}
		sb.WriteString(" |\n")
	}
	onTurn := FirstPlayerMarker
	if p.moves%2 == 1 {
		onTurn = SecondPlayerMarker
	}
	fmt.Fprintf(&sb, "moves: %d, to move: %c, key: %#x", p.moves, onTurn, p.Key())
	return sb.String()
}

func (p Position) String() string {
	return fmt.Sprintf("<stones: %#x mask: %#x moves: %d>", p.stones, p.mask, p.moves)
}
