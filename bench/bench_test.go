package bench

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/domino14/connect4/board"
	"github.com/domino14/connect4/solver"
	"github.com/domino14/connect4/testhelpers"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func TestReadCases(t *testing.T) {
	in := `# endgames
105252365140152155062062421416 0

131450000422042515525112441204 -4
3342
`
	cases, err := ReadCases(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Case{
		{Moves: "105252365140152155062062421416", Expected: 0, HasExpected: true},
		{Moves: "131450000422042515525112441204", Expected: -4, HasExpected: true},
		{Moves: "3342"},
	}, cases)
}

func TestReadCasesErrors(t *testing.T) {
	for _, in := range []string{
		"3342 1 2",
		"3349 1",
		"3342 one",
		"0101010 4",
	} {
		_, err := ReadCases(strings.NewReader(in))
		assert.True(t, errors.Is(err, ErrBadCase), in)
	}
}

func TestRandomCases(t *testing.T) {
	cases, err := RandomCases(20, 12)
	require.NoError(t, err)
	require.Len(t, cases, 20)
	for _, c := range cases {
		assert.Len(t, c.Moves, 12)
		p, err := board.FromMoves(c.Moves)
		require.NoError(t, err)
		assert.False(t, p.PriorPlayerHasWon())
		assert.False(t, p.CanWinNext())
	}
}

func TestRandomCasesGivesUp(t *testing.T) {
	cases, err := randomCases(5, 12, 0)
	assert.True(t, errors.Is(err, ErrTooFewGames))
	assert.Empty(t, cases)

	cases, err = randomCases(3, 8, 3000)
	require.NoError(t, err)
	assert.Len(t, cases, 3)
}

// two shared tables keep the test from allocating one per worker per run
var (
	tablesOnce sync.Once
	tables     [2]*solver.TranspositionTable
)

func sharedSolvers() func() *solver.Solver {
	tablesOnce.Do(func() {
		for i := range tables {
			tables[i] = solver.NewTranspositionTable()
		}
	})
	var mu sync.Mutex
	n := 0
	return func() *solver.Solver {
		mu.Lock()
		defer mu.Unlock()
		s := solver.NewSolver(tables[n%len(tables)])
		n++
		return s
	}
}

func TestRunnerRun(t *testing.T) {
	var cases []Case
	for _, sp := range testhelpers.EndgamePositions {
		cases = append(cases, Case{Moves: sp.Moves, Expected: sp.Score, HasExpected: true})
	}
	var logbuf bytes.Buffer
	r := &Runner{Workers: 2, LogStream: &logbuf, NewSolver: sharedSolvers()}
	results, err := r.Run(context.Background(), cases)
	require.NoError(t, err)
	require.Len(t, results, len(cases))
	for i, res := range results {
		assert.Equal(t, cases[i].Moves, res.Moves)
		assert.Equal(t, cases[i].Expected, res.Score, res.Moves)
		assert.False(t, res.Mismatch)
	}

	var logged []Result
	require.NoError(t, yaml.Unmarshal(logbuf.Bytes(), &logged))
	assert.Len(t, logged, len(cases))

	summary := Summarize(results)
	assert.Equal(t, len(cases), summary.Cases)
	assert.Empty(t, summary.Mismatches)
	var out bytes.Buffer
	require.NoError(t, summary.Fprint(&out, 95))
	assert.Contains(t, out.String(), "mismatches: 0")
	assert.Contains(t, out.String(), "log10(nodes):")
}

func TestRunnerReportsMismatch(t *testing.T) {
	cases := []Case{{Moves: testhelpers.EndgamePositions[0].Moves, Expected: 5, HasExpected: true}}
	r := &Runner{Workers: 1, NewSolver: sharedSolvers()}
	results, err := r.Run(context.Background(), cases)
	require.NoError(t, err)
	assert.True(t, results[0].Mismatch)

	var out bytes.Buffer
	require.NoError(t, Summarize(results).Fprint(&out, 95))
	assert.Contains(t, out.String(), "got 0, want 5")
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Workers: 2, NewSolver: sharedSolvers()}
	_, err := r.Run(ctx, []Case{{Moves: testhelpers.MiddlegamePositions[0].Moves}})
	assert.True(t, errors.Is(err, context.Canceled))
}
