package solver

import (
	"errors"

	"github.com/domino14/connect4/board"
)

var ErrSorterFull = errors.New("move sorter is full")

type sortEntry struct {
	move  uint64
	score int
}

// MoveSorter hands back moves best score first. Moves added with equal
// scores come back in reverse order of insertion. It holds at most one move
// per column.
type MoveSorter struct {
	size    int
	entries [board.Width]sortEntry
}

// Add inserts move, keeping entries ordered by ascending score.
func (m *MoveSorter) Add(move uint64, score int) error {
	if m.size == len(m.entries) {
		return ErrSorterFull
	}
	pos := m.size
	m.size++
	for ; pos > 0 && m.entries[pos-1].score > score; pos-- {
		m.entries[pos] = m.entries[pos-1]
	}
	m.entries[pos] = sortEntry{move: move, score: score}
	return nil
}

// Next removes and returns the best remaining move, or 0 once empty.
func (m *MoveSorter) Next() uint64 {
	if m.size == 0 {
		return 0
	}
	m.size--
	return m.entries[m.size].move
}

func (m *MoveSorter) Len() int { return m.size }

func (m *MoveSorter) Reset() { m.size = 0 }
