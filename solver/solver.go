// Package solver computes the exact game-theoretic score of a Connect Four
// position with a null-window negamax search over a shared transposition
// table.
package solver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/connect4/board"
)

// the search polls its context once per this many nodes
const ctxPollMask = 1<<12 - 1

var ErrInvalidWindow = errors.New("search window is empty")

type Solver struct {
	ttable      *TranspositionTable
	columnOrder [board.Width]int

	moveSorterOptim         bool
	iterativeDeepeningOptim bool
	transpositionTableOptim bool

	nodes atomic.Uint64
}

// NewSolver returns a solver that reads and writes tt. Every optimization is
// on. A nil tt allocates a fresh table.
func NewSolver(tt *TranspositionTable) *Solver {
	if tt == nil {
		tt = NewTranspositionTable()
	}
	s := &Solver{
		ttable:                  tt,
		moveSorterOptim:         true,
		iterativeDeepeningOptim: true,
		transpositionTableOptim: true,
	}
	// centre first, then alternating outwards: 3 2 4 1 5 0 6
	for i := range s.columnOrder {
		s.columnOrder[i] = board.Width/2 + (1-2*(i%2))*(i+1)/2
	}
	return s
}

// Solve returns the score of p for the player to move: positive when that
// player wins, (BoardSize+1-moves)/2 for a win on their next stone, one
// less for each later pair of moves; negative for a loss; 0 for a draw.
func (s *Solver) Solve(ctx context.Context, p board.Position) (int, error) {
	s.nodes.Store(0)
	if p.PriorPlayerHasWon() {
		return 0, board.ErrGameOver
	}
	if p.Moves() >= board.BoardSize {
		return 0, nil
	}
	if p.CanWinNext() {
		return (board.BoardSize + 1 - p.Moves()) / 2, nil
	}
	tstart := time.Now()

	min := -(board.BoardSize - p.Moves()) / 2
	max := (board.BoardSize + 1 - p.Moves()) / 2

	g := &errgroup.Group{}
	done := make(chan struct{})

	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	g.Go(func() error {
		defer close(done)
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.iterativeDeepeningOptim {
			v, err := s.negamax(ctx, &p, min, max)
			if err != nil {
				return err
			}
			min = v
			return nil
		}
		for min < max {
			if err := ctx.Err(); err != nil {
				return err
			}
			mid := min + (max-min)/2
			if mid <= 0 && min/2 < mid {
				mid = min / 2
			} else if mid >= 0 && max/2 > mid {
				mid = max / 2
			}
			// is the score above mid or not?
			r, err := s.negamax(ctx, &p, mid, mid+1)
			if err != nil {
				return err
			}
			if r <= mid {
				max = r
			} else {
				min = r
			}
		}
		return nil
	})

	err := g.Wait()
	log.Debug().
		Int("moves", p.Moves()).
		Int("score", min).
		Uint64("nodes", s.nodes.Load()).
		Uint64("ttable-created", s.ttable.created.Load()).
		Uint64("ttable-lookups", s.ttable.lookups.Load()).
		Uint64("ttable-hits", s.ttable.hits.Load()).
		Uint64("ttable-t2collisions", s.ttable.t2collisions.Load()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("solve-returning")
	if err != nil {
		return 0, err
	}
	return min, nil
}

// Search runs one negamax probe over the window [alpha, beta]. If the true
// score v lies inside the window the result is v; if v <= alpha the result
// is an upper bound no greater than alpha; if v >= beta it is a lower bound
// no smaller than beta.
func (s *Solver) Search(ctx context.Context, p board.Position, alpha, beta int) (int, error) {
	if alpha >= beta {
		return 0, fmt.Errorf("%w: [%d, %d]", ErrInvalidWindow, alpha, beta)
	}
	if p.PriorPlayerHasWon() {
		return 0, board.ErrGameOver
	}
	if p.CanWinNext() {
		return (board.BoardSize + 1 - p.Moves()) / 2, nil
	}
	return s.negamax(ctx, &p, alpha, beta)
}

// Evaluate is Solve extended to finished games: if the player who just
// moved has four in a row, the position scores as a loss for the player to
// move at the current depth.
func (s *Solver) Evaluate(ctx context.Context, p board.Position) (int, error) {
	if p.PriorPlayerHasWon() {
		return -(board.BoardSize + 2 - p.Moves()) / 2, nil
	}
	return s.Solve(ctx, p)
}

// Nodes is the number of positions visited by the last Solve.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// Reset clears the transposition table.
func (s *Solver) Reset() {
	s.ttable.Reset()
}

func (s *Solver) SetMoveSorterOptim(ms bool) {
	s.moveSorterOptim = ms
}

func (s *Solver) SetIterativeDeepening(id bool) {
	s.iterativeDeepeningOptim = id
}

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt
}

func (s *Solver) SetTranspositionTable(tt *TranspositionTable) {
	s.ttable = tt
}

func (s *Solver) TranspositionTable() *TranspositionTable {
	return s.ttable
}
