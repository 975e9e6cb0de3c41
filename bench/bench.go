// Package bench times the solver over batches of positions. Each worker owns
// a solver and a transposition table, so positions are solved independently
// and in parallel.
package bench

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/domino14/connect4/board"
	"github.com/domino14/connect4/solver"
)

var ErrBadCase = errors.New("malformed benchmark line")

// A Case is one position to solve. Expected is only meaningful when
// HasExpected is set.
type Case struct {
	Moves       string
	Expected    int
	HasExpected bool
}

// Result is one solved case. It is also the shape of each YAML log entry.
type Result struct {
	Moves    string  `yaml:"moves"`
	Expected *int    `yaml:"expected,omitempty"`
	Score    int     `yaml:"score"`
	Nodes    uint64  `yaml:"nodes"`
	Seconds  float64 `yaml:"seconds"`
	Worker   int     `yaml:"worker"`
	Mismatch bool    `yaml:"mismatch,omitempty"`
}

// ReadCases parses lines of the form "<moves> [score]", where moves are
// column digits from 0. Blank lines and lines starting with # are skipped.
func ReadCases(r io.Reader) ([]Case, error) {
	var cases []Case
	scanner := bufio.NewScanner(r)
	linenum := 0
	for scanner.Scan() {
		linenum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 2 {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrBadCase, linenum, len(fields))
		}
		c := Case{Moves: fields[0]}
		p, err := board.FromMoves(c.Moves)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadCase, linenum, err)
		}
		if p.PriorPlayerHasWon() {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadCase, linenum, board.ErrGameOver)
		}
		if len(fields) == 2 {
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrBadCase, linenum, err)
			}
			c.Expected = v
			c.HasExpected = true
		}
		cases = append(cases, c)
	}
	return cases, scanner.Err()
}

// maxAttemptsPerCase bounds the random games tried for each requested case.
const maxAttemptsPerCase = 1000

var ErrTooFewGames = errors.New("could not generate enough random games")

// RandomCases plays n random games of the given length. No game contains a
// win, and none is left where the player to move can win at once. Long
// games often run out of safe moves; if too many attempts fail the cases
// found so far are returned with ErrTooFewGames.
func RandomCases(n, plies int) ([]Case, error) {
	return randomCases(n, plies, n*maxAttemptsPerCase)
}

func randomCases(n, plies, maxAttempts int) ([]Case, error) {
	if plies > board.BoardSize {
		plies = board.BoardSize
	}
	cases := make([]Case, 0, n)
	for attempt := 0; len(cases) < n; attempt++ {
		if attempt >= maxAttempts {
			return cases, fmt.Errorf("%w: %d of %d with %d plies after %d attempts",
				ErrTooFewGames, len(cases), n, plies, attempt)
		}
		if seq, ok := randomGame(plies); ok {
			cases = append(cases, Case{Moves: seq})
		}
	}
	return cases, nil
}

func randomGame(plies int) (string, bool) {
	p := board.New()
	var sb strings.Builder
	for p.Moves() < plies {
		var cols []int
		for col := 0; col < board.Width; col++ {
			if p.CanPlay(col) && !p.IsWinningMove(col) {
				cols = append(cols, col)
			}
		}
		if len(cols) == 0 {
			return "", false
		}
		col := cols[frand.Intn(len(cols))]
		if err := p.PlayCol(col); err != nil {
			return "", false
		}
		sb.WriteByte(byte('0' + col))
	}
	return sb.String(), !p.CanWinNext()
}

type Runner struct {
	// Workers is the number of solvers run at once.
	Workers int
	// LogStream receives a YAML document per result when non-nil.
	LogStream io.Writer
	// NewSolver builds the solver for each worker. Defaults to a solver
	// with a fresh table.
	NewSolver func() *solver.Solver
}

// Run solves every case and returns results in case order.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]Result, error) {
	workers := max(r.Workers, 1)
	newSolver := r.NewSolver
	if newSolver == nil {
		newSolver = func() *solver.Solver { return solver.NewSolver(nil) }
	}

	results := make([]Result, len(cases))
	var next atomic.Int64
	logChan := make(chan []byte)
	writer := errgroup.Group{}
	if r.LogStream != nil {
		writer.Go(func() error {
			// keep draining after a failed write so workers never block
			var werr error
			for out := range logChan {
				if werr != nil {
					continue
				}
				if _, err := r.LogStream.Write(out); err != nil {
					werr = err
				}
			}
			return werr
		})
	}

	var solversMu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for t := 0; t < workers; t++ {
		t := t
		g.Go(func() error {
			solversMu.Lock()
			s := newSolver()
			solversMu.Unlock()
			for {
				i := int(next.Add(1)) - 1
				if i >= len(cases) {
					return nil
				}
				res, err := solveCase(ctx, s, cases[i], t)
				if err != nil {
					return fmt.Errorf("%s: %w", cases[i].Moves, err)
				}
				results[i] = res
				log.Debug().Str("moves", res.Moves).Int("score", res.Score).
					Uint64("nodes", res.Nodes).Int("worker", t).Msg("bench-case-solved")
				if r.LogStream != nil {
					out, err := yaml.Marshal([]Result{res})
					if err != nil {
						return err
					}
					select {
					case logChan <- out:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		})
	}
	err := g.Wait()
	close(logChan)
	if werr := writer.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func solveCase(ctx context.Context, s *solver.Solver, c Case, worker int) (Result, error) {
	p, err := board.FromMoves(c.Moves)
	if err != nil {
		return Result{}, err
	}
	tstart := time.Now()
	score, err := s.Solve(ctx, p)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Moves:   c.Moves,
		Score:   score,
		Nodes:   s.Nodes(),
		Seconds: time.Since(tstart).Seconds(),
		Worker:  worker,
	}
	if c.HasExpected {
		expected := c.Expected
		res.Expected = &expected
		res.Mismatch = score != expected
	}
	return res, nil
}
