// Package testhelpers holds board fixtures and solved reference positions
// shared by the tests of several packages.
package testhelpers

import (
	"lukechampine.com/frand"

	"github.com/domino14/connect4/board"
)

/* Complex:
	. . x . . . .
	. o x o x x .
	. o o o x x .
	x o x x o x .
	x x o x o o .
	o x x o o x .
  o is the player to move; columns 0, 1, 4 and 6 win.
*/
func Complex() board.Position {
	return board.FromBitboards(0x1073228E01, 0xF9F3EFCF87, 29)
}

// ComplexMirror is Complex reflected across the centre column.
func ComplexMirror() board.Position {
	return board.FromBitboards(0x4E0A321C100, 0x1CFBF3E7CF80, 29)
}

// Vertical has the player to move three high in column 0.
func Vertical() board.Position {
	return board.FromBitboards(0x7, 0x387, 6)
}

// Horizontal has the player to move with an open three on the bottom row.
func Horizontal() board.Position {
	return board.FromBitboards(0x10204000, 0x3060C000, 6)
}

func Diagonal1() board.Position {
	return board.FromBitboards(0x20A28500, 0x30E3C781, 14)
}

func Diagonal2() board.Position {
	return board.FromBitboards(0x50A0A08000, 0x478F0E0C000, 14)
}

// Connect20 is a finished board where the last mover owns twenty cells that
// take part in a four in a row.
func Connect20() board.Position {
	return board.FromBitboards(0x58AA3008CAB6, 0x7DFBF1EFDFBF, 39)
}

// SolvedPosition is a move sequence with its exact score for the player to
// move.
type SolvedPosition struct {
	Moves string
	Score int
}

// EndgamePositions are checked against exhaustive minimax.
var EndgamePositions = []SolvedPosition{
	{"105252365140152155062062421416", 0},
	{"131450000422042515525112441204", -4},
	{"3065622152233346062235005415466", -3},
	{"501052240416116326114525606642", 4},
	{"46063340462023343321010144656210", 2},
	{"301405651436203612522103231062306", 0},
	{"3363500064254254604021413203134", 0},
	{"02555121502065663212101126566334", 2},
	{"060456045455505066423460641112", -1},
	{"143451552641321066152455641060", -1},
	{"303311330010223412500625266511", 2},
	{"24111110466013555055450024220343", -2},
	{"605206221504511045441201566124654", 2},
	{"052300253511316236661163505203", -3},
}

// MiddlegamePositions need a few thousand nodes each.
var MiddlegamePositions = []SolvedPosition{
	{"3050352356052214200460413", 0},
	{"23643241501134564402116002", -1},
	{"616050306521123316063450", 4},
	{"523321223516606036646133", 2},
	{"4142056630442640202602", 3},
	{"5345266154402212253043", 0},
}

// RandomPlayout plays up to n random moves from the empty board, never
// choosing a move that wins on the spot, and returns the position with the
// sequence that produced it. It stops early if every move would win.
func RandomPlayout(n int) (board.Position, string) {
	p := board.New()
	seq := make([]byte, 0, n)
	cols := make([]int, 0, board.Width)
	for len(seq) < n && p.Moves() < board.BoardSize {
		cols = cols[:0]
		for col := 0; col < board.Width; col++ {
			if p.CanPlay(col) && !p.IsWinningMove(col) {
				cols = append(cols, col)
			}
		}
		if len(cols) == 0 {
			break
		}
		col := cols[frand.Intn(len(cols))]
		if err := p.PlayCol(col); err != nil {
			panic(err)
		}
		seq = append(seq, byte('0'+col))
	}
	return p, string(seq)
}
