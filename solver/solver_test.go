package solver

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/connect4/board"
	"github.com/domino14/connect4/testhelpers"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

var (
	sharedTableOnce sync.Once
	sharedTable     *TranspositionTable
)

// Any valid table content leaves results unchanged, so most tests share one
// table rather than allocating their own.
func newSolver() *Solver {
	sharedTableOnce.Do(func() {
		sharedTable = NewTranspositionTable()
	})
	return NewSolver(sharedTable)
}

func mustPosition(t *testing.T, seq string) board.Position {
	t.Helper()
	p, err := board.FromMoves(seq)
	if err != nil {
		t.Fatalf("%q: %v", seq, err)
	}
	return p
}

func TestSolveEndgame(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	for _, tc := range testhelpers.EndgamePositions {
		p := mustPosition(t, tc.Moves)
		v, err := s.Solve(context.Background(), p)
		is.NoErr(err)
		if v != tc.Score {
			t.Errorf("%s: got %d, want %d", tc.Moves, v, tc.Score)
		}
	}
}

func TestSolveMiddlegame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping middlegame solves in short mode")
	}
	is := is.New(t)
	s := newSolver()
	for _, tc := range testhelpers.MiddlegamePositions {
		p := mustPosition(t, tc.Moves)
		v, err := s.Solve(context.Background(), p)
		is.NoErr(err)
		if v != tc.Score {
			t.Errorf("%s: got %d, want %d", tc.Moves, v, tc.Score)
		}
	}
}

func TestSolveWithoutOptimizations(t *testing.T) {
	type setup struct {
		name   string
		mutate func(s *Solver)
	}
	setups := []setup{
		{"no-sorter", func(s *Solver) { s.SetMoveSorterOptim(false) }},
		{"full-window", func(s *Solver) { s.SetIterativeDeepening(false) }},
		{"no-ttable", func(s *Solver) { s.SetTranspositionTableOptim(false) }},
		{"plain", func(s *Solver) {
			s.SetMoveSorterOptim(false)
			s.SetIterativeDeepening(false)
			s.SetTranspositionTableOptim(false)
		}},
	}
	for _, st := range setups {
		t.Run(st.name, func(t *testing.T) {
			s := newSolver()
			st.mutate(s)
			for _, tc := range testhelpers.EndgamePositions {
				p := mustPosition(t, tc.Moves)
				v, err := s.Solve(context.Background(), p)
				if err != nil {
					t.Fatal(err)
				}
				if v != tc.Score {
					t.Errorf("%s: got %d, want %d", tc.Moves, v, tc.Score)
				}
			}
		})
	}
}

func TestSolveImmediateWin(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	v, err := s.Solve(context.Background(), testhelpers.Complex())
	is.NoErr(err)
	is.Equal(v, 7)
	// answered without searching
	is.Equal(s.Nodes(), uint64(0))
}

func TestSolveDoubleThreat(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	p := testhelpers.Horizontal()
	is.NoErr(p.PlayCol(0))
	v, err := s.Solve(context.Background(), p)
	is.NoErr(err)
	is.Equal(v, -17)
}

func TestSolveFinishedGame(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	p := testhelpers.Complex()
	is.NoErr(p.PlayCol(1))
	_, err := s.Solve(context.Background(), p)
	is.True(errors.Is(err, board.ErrGameOver))
}

func TestSolveCancelled(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := mustPosition(t, testhelpers.MiddlegamePositions[0].Moves)
	_, err := s.Solve(ctx, p)
	is.True(errors.Is(err, context.Canceled))
}

func TestSearchWindow(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	for _, tc := range testhelpers.EndgamePositions[:6] {
		p := mustPosition(t, tc.Moves)
		v := tc.Score

		exact, err := s.Search(context.Background(), p, v-1, v+1)
		is.NoErr(err)
		is.Equal(exact, v)

		// v is below the window: an upper bound between v and alpha
		low, err := s.Search(context.Background(), p, v+1, v+3)
		is.NoErr(err)
		is.True(low <= v+1)
		is.True(low >= v)

		// v is above the window: a lower bound between beta and v
		high, err := s.Search(context.Background(), p, v-3, v-1)
		is.NoErr(err)
		is.True(high >= v-1)
		is.True(high <= v)
	}

	_, err := s.Search(context.Background(), board.New(), 1, 1)
	is.True(errors.Is(err, ErrInvalidWindow))
}

func TestEvaluate(t *testing.T) {
	is := is.New(t)
	s := newSolver()

	p := testhelpers.Complex()
	is.NoErr(p.PlayCol(1))
	v, err := s.Evaluate(context.Background(), p)
	is.NoErr(err)
	is.Equal(v, -7)

	tc := testhelpers.EndgamePositions[1]
	v, err = s.Evaluate(context.Background(), mustPosition(t, tc.Moves))
	is.NoErr(err)
	is.Equal(v, tc.Score)
}

func TestAnalyze(t *testing.T) {
	is := is.New(t)
	s := newSolver()

	scores, err := s.Analyze(context.Background(), mustPosition(t, "4142056630442640202602"))
	is.NoErr(err)
	is.Equal(len(scores), board.Width)
	for col, want := range []int{-10, -10, -10, -10, -10, -10, 3} {
		is.True(scores[col].Playable)
		is.Equal(scores[col].Column, col)
		is.Equal(scores[col].Score, want)
	}
	is.Equal(BestColumns(scores), []int{6})

	scores, err = s.Analyze(context.Background(), testhelpers.Complex())
	is.NoErr(err)
	is.True(!scores[2].Playable)
	for col, want := range map[int]int{0: 7, 1: 7, 3: -6, 4: 7, 5: 6, 6: 7} {
		is.Equal(scores[col].Score, want)
	}
	is.Equal(BestColumns(scores), []int{0, 1, 4, 6})
}

func TestAnalyzeMatchesSolve(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	tc := testhelpers.MiddlegamePositions[1]
	p := mustPosition(t, tc.Moves)
	scores, err := s.Analyze(context.Background(), p)
	is.NoErr(err)

	best := BestColumns(scores)
	is.True(len(best) > 0)
	is.Equal(scores[best[0]].Score, tc.Score)
	is.Equal(best, []int{2})
}

func TestBestColumnsNothingPlayable(t *testing.T) {
	is := is.New(t)
	is.Equal(len(BestColumns([]ColumnScore{{Column: 0}, {Column: 1}})), 0)
}
