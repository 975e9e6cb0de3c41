package solver

import (
	"context"

	"github.com/samber/lo"

	"github.com/domino14/connect4/board"
)

// ColumnScore is the outcome of dropping a stone into one column, from the
// point of view of the player making that move.
type ColumnScore struct {
	Column   int
	Playable bool
	Score    int
}

// Analyze scores every column of p. Unplayable columns are marked and left
// at 0.
func (s *Solver) Analyze(ctx context.Context, p board.Position) ([]ColumnScore, error) {
	if p.PriorPlayerHasWon() {
		return nil, board.ErrGameOver
	}
	out := make([]ColumnScore, board.Width)
	for col := range out {
		out[col].Column = col
		if !p.CanPlay(col) {
			continue
		}
		out[col].Playable = true
		if p.IsWinningMove(col) {
			out[col].Score = (board.BoardSize + 1 - p.Moves()) / 2
			continue
		}
		child := p
		if err := child.PlayCol(col); err != nil {
			return nil, err
		}
		v, err := s.Solve(ctx, child)
		if err != nil {
			return nil, err
		}
		out[col].Score = -v
	}
	return out, nil
}

// BestColumns returns the playable columns sharing the highest score, in
// column order.
func BestColumns(scores []ColumnScore) []int {
	playable := lo.Filter(scores, func(cs ColumnScore, _ int) bool {
		return cs.Playable
	})
	if len(playable) == 0 {
		return nil
	}
	best := lo.MaxBy(playable, func(a, b ColumnScore) bool {
		return a.Score > b.Score
	})
	return lo.FilterMap(playable, func(cs ColumnScore, _ int) (int, bool) {
		return cs.Column, cs.Score == best.Score
	})
}
