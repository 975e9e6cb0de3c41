package board_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domino14/connect4/board"
	"github.com/domino14/connect4/testhelpers"
)

func TestToDisplayText(t *testing.T) {
	p := testhelpers.Vertical()
	expected := "  0 1 2 3 4 5 6\n" +
		"| . . . . . . . |\n" +
		"| . . . . . . . |\n" +
		"| . . . . . . . |\n" +
		"| x o . . . . . |\n" +
		"| x o . . . . . |\n" +
		"| x o . . . . . |\n" +
		"moves: 6, to move: x, key: 0x38e"
	assert.Equal(t, expected, p.ToDisplayText())

	assert.NoError(t, p.PlayCol(3))
	assert.Contains(t, p.ToDisplayText(), "| x o . x . . . |\n")
	assert.Contains(t, p.ToDisplayText(), "to move: o")
}

func TestString(t *testing.T) {
	assert.Equal(t, "<stones: 0x7 mask: 0x387 moves: 6>", testhelpers.Vertical().String())
	assert.Equal(t, "<stones: 0x0 mask: 0x0 moves: 0>", board.New().String())
}
