package solver

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/connect4/board"
)

// WarmUp solves root and every distinct position reachable from it within
// depth further moves, skipping lines where somebody has already won, so
// that the table holds their results. Positions are visited breadth first.
// It returns how many positions were solved.
func WarmUp(ctx context.Context, s *Solver, root board.Position, depth int) (int, error) {
	if root.PriorPlayerHasWon() {
		return 0, board.ErrGameOver
	}
	current := []board.Position{root}
	solved := 0
	for d := 0; d <= depth && len(current) > 0; d++ {
		tstart := time.Now()
		seen := make(map[uint64]struct{})
		var next []board.Position
		for _, p := range current {
			if err := ctx.Err(); err != nil {
				return solved, err
			}
			if _, err := s.Solve(ctx, p); err != nil {
				return solved, err
			}
			solved++
			if d == depth {
				continue
			}
			for col := 0; col < board.Width; col++ {
				if !p.CanPlay(col) || p.IsWinningMove(col) {
					continue
				}
				child := p
				if err := child.PlayCol(col); err != nil {
					return solved, err
				}
				if _, ok := seen[child.Key()]; ok {
					continue
				}
				seen[child.Key()] = struct{}{}
				next = append(next, child)
			}
		}
		log.Info().
			Int("depth", d).
			Int("positions", len(current)).
			Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
			Msg("warmup-depth-done")
		current = next
	}
	return solved, nil
}
