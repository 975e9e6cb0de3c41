package solver

import (
	"context"

	"github.com/domino14/connect4/board"
)

// negamax scores p, which must not offer the player to move an immediate
// win, within the window [α, β].
func (s *Solver) negamax(ctx context.Context, p *board.Position, α, β int) (int, error) {
	if s.nodes.Add(1)&ctxPollMask == 0 && ctx.Err() != nil {
		return 0, ctx.Err()
	}
	moves := p.Moves()
	next := p.PossibleNonLosingMoves()
	if next == 0 {
		// every move loses, or the board is full
		return -(board.BoardSize - moves) / 2, nil
	}
	if moves >= board.BoardSize-2 {
		// neither side can finish a line in the last two moves
		return 0, nil
	}

	// we cannot win next move, so the opponent cannot lose before their
	// second stone from now
	min := -(board.BoardSize - 2 - moves) / 2
	if α < min {
		α = min
		if α >= β {
			return α, nil
		}
	}
	max := (board.BoardSize - 1 - moves) / 2

	key := p.Key()
	if s.transpositionTableOptim {
		flag, v := s.ttable.Lookup(key)
		switch flag {
		case TTUpper:
			if v < max {
				max = v
			}
		case TTLower:
			if v > α {
				α = v
				if α >= β {
					return α, nil
				}
			}
		}
	}
	if β > max {
		β = max
		if α >= β {
			return β, nil
		}
	}

	if s.moveSorterOptim {
		var sorter MoveSorter
		// outermost columns first so that ties favour the centre
		for i := board.Width - 1; i >= 0; i-- {
			mv := next & board.ColumnMask(s.columnOrder[i])
			if mv == 0 {
				continue
			}
			if err := sorter.Add(mv, p.MoveScore(mv)); err != nil {
				return 0, err
			}
		}
		for mv := sorter.Next(); mv != 0; mv = sorter.Next() {
			score, err := s.searchChild(ctx, p, mv, α, β)
			if err != nil {
				return 0, err
			}
			if score >= β {
				s.storeLower(key, score)
				return score, nil
			}
			if score > α {
				α = score
			}
		}
	} else {
		for _, col := range s.columnOrder {
			mv := next & board.ColumnMask(col)
			if mv == 0 {
				continue
			}
			score, err := s.searchChild(ctx, p, mv, α, β)
			if err != nil {
				return 0, err
			}
			if score >= β {
				s.storeLower(key, score)
				return score, nil
			}
			if score > α {
				α = score
			}
		}
	}

	s.storeUpper(key, α)
	return α, nil
}

func (s *Solver) searchChild(ctx context.Context, p *board.Position, mv uint64, α, β int) (int, error) {
	// mv comes from PossibleNonLosingMoves and p has no winner yet
	child := *p
	child.Play(mv)
	v, err := s.negamax(ctx, &child, -β, -α)
	return -v, err
}

func (s *Solver) storeUpper(key uint64, v int) {
	if s.transpositionTableOptim {
		s.ttable.StoreUpper(key, v)
	}
}

func (s *Solver) storeLower(key uint64, v int) {
	if s.transpositionTableOptim {
		s.ttable.StoreLower(key, v)
	}
}
