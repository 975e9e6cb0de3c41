package board

import "fmt"

// FromMoves plays a sequence of column digits ('0' through Width-1) from the
// empty board.
func FromMoves(seq string) (Position, error) {
	p := New()
	if err := p.PlaySequence(seq); err != nil {
		return Position{}, err
	}
	return p, nil
}

// PlaySequence plays every column digit in seq in order. On error the
// position holds the moves played before the bad one.
func (p *Position) PlaySequence(seq string) error {
	for i, r := range seq {
		if r < '0' || r >= '0'+Width {
			return fmt.Errorf("%w: %q at index %d", ErrInvalidColumn, r, i)
		}
		col := int(r - '0')
		if err := p.PlayCol(col); err != nil {
			return fmt.Errorf("column %d at index %d: %w", col, i, err)
		}
	}
	return nil
}
