package shell

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/connect4/board"
	"github.com/domino14/connect4/config"
	"github.com/domino14/connect4/solver"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

var (
	tableOnce sync.Once
	table     *solver.TranspositionTable
)

func newTestController() *ShellController {
	tableOnce.Do(func() {
		table = solver.NewTranspositionTable()
	})
	return &ShellController{
		out:      io.Discard,
		config:   config.DefaultConfig(),
		pos:      board.New(),
		seqKnown: true,
		solver:   solver.NewSolver(table),
	}
}

func run(t *testing.T, sc *ShellController, line string) (string, error) {
	t.Helper()
	cmd, err := extractFields(line)
	if err != nil {
		t.Fatalf("%q: %v", line, err)
	}
	resp, err := sc.dispatch(cmd)
	if err != nil {
		return "", err
	}
	return resp.message, nil
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"solve -maxtime 30",
			&shellcmd{"solve", nil, CmdOptions{"maxtime": {"30"}}},
			nil},
		{"ttable save",
			&shellcmd{"ttable", []string{"save"}, CmdOptions{}},
			nil},
		{"ttable save '/tmp/my book.c4tt' ",
			&shellcmd{"ttable", []string{"save", "/tmp/my book.c4tt"}, CmdOptions{}},
			nil},
		{"solve -disable-tt true -disable-id true",
			&shellcmd{"solve", nil, CmdOptions{"disable-tt": {"true"}, "disable-id": {"true"}}},
			nil},
		{"solve -maxtime",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func TestPlayAndUndo(t *testing.T) {
	is := is.New(t)
	sc := newTestController()

	out, err := run(t, sc, "play 33 42")
	is.NoErr(err)
	is.True(strings.Contains(out, "sequence: 3342"))
	is.Equal(sc.pos.Moves(), 4)

	_, err = run(t, sc, "play 0")
	is.NoErr(err)
	is.Equal(sc.seq, "33420")

	_, err = run(t, sc, "undo")
	is.NoErr(err)
	is.Equal(sc.seq, "3342")
	_, err = run(t, sc, "undo")
	is.NoErr(err)
	is.Equal(sc.pos, board.New())
	_, err = run(t, sc, "undo")
	is.True(errors.Is(err, errNothingToUndo))

	// a bad column leaves the board alone
	_, err = run(t, sc, "play 349")
	is.True(errors.Is(err, board.ErrInvalidColumn))
	is.Equal(sc.pos, board.New())
}

func TestUndoFromKey(t *testing.T) {
	is := is.New(t)
	sc := newTestController()
	_, err := run(t, sc, "play 3342")
	is.NoErr(err)
	_, err = run(t, sc, "fromkey 0x10A67125D88 29")
	is.NoErr(err)
	is.True(!sc.seqKnown)

	out, err := run(t, sc, "undo")
	is.NoErr(err)
	is.True(sc.seqKnown)
	is.True(strings.Contains(out, "sequence: 3342"))
}

func TestSolveCommand(t *testing.T) {
	is := is.New(t)
	sc := newTestController()
	_, err := run(t, sc, "play 105252365140152155062062421416")
	is.NoErr(err)

	out, err := run(t, sc, "solve")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "score: 0 (draw)"))

	out, err = run(t, sc, "solve -disable-tt true -disable-sorter true")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "score: 0 (draw)"))

	out, err = run(t, sc, "evaluate")
	is.NoErr(err)
	is.Equal(out, "score: 0 (draw)")

	_, err = run(t, sc, "solve -maxtime soon")
	is.True(err != nil)
}

func TestSolveOptionsDoNotPersist(t *testing.T) {
	is := is.New(t)
	sc := newTestController()
	_, err := run(t, sc, "play 105252365140152155062062421416")
	is.NoErr(err)
	_, err = run(t, sc, "ttable reset")
	is.NoErr(err)

	_, err = run(t, sc, "solve -disable-tt true -disable-sorter true")
	is.NoErr(err)
	is.Equal(sc.solver.TranspositionTable().Stats().Used, 0)

	out, err := run(t, sc, "warm -depth 2")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "solved "))
	is.True(sc.solver.TranspositionTable().Stats().Used > 0)
}

func TestAnalyzeCommand(t *testing.T) {
	is := is.New(t)
	sc := newTestController()
	_, err := run(t, sc, "play 4142056630442640202602")
	is.NoErr(err)
	out, err := run(t, sc, "analyze")
	is.NoErr(err)
	lines := strings.Split(out, "\n")
	is.Equal(len(lines), board.Width+1)
	is.Equal(strings.Fields(lines[7]), []string{"6", "3", "*"})
	is.Equal(strings.Fields(lines[1]), []string{"0", "-10"})
}

func TestKeyCommands(t *testing.T) {
	is := is.New(t)
	sc := newTestController()

	out, err := run(t, sc, "fromkey 0x10A67125D88 29")
	is.NoErr(err)
	is.True(!strings.Contains(out, "sequence:"))
	is.Equal(sc.pos.Stones(), uint64(0x1073228E01))

	out, err = run(t, sc, "key")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "key: 0x10a67125d88\n"))

	out, err = run(t, sc, "alignments")
	is.NoErr(err)
	is.Equal(out, "no four in a row")

	_, err = run(t, sc, "play 1")
	is.NoErr(err)
	out, err = run(t, sc, "alignments")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "cells: "))

	_, err = run(t, sc, "fromkey 0x7f 7")
	is.True(errors.Is(err, board.ErrInvalidPosition))
	_, err = run(t, sc, "fromkey 12")
	is.True(err != nil)

	_, err = run(t, sc, "new")
	is.NoErr(err)
	out, err = run(t, sc, "mirror")
	is.NoErr(err)
	blank := board.New()
	is.Equal(out, blank.ToDisplayText())
}

func TestTTableCommands(t *testing.T) {
	is := is.New(t)
	sc := newTestController()
	_, err := run(t, sc, "play 105252365140152155062062421416")
	is.NoErr(err)
	_, err = run(t, sc, "solve")
	is.NoErr(err)

	out, err := run(t, sc, "ttable stats")
	is.NoErr(err)
	is.True(strings.Contains(out, "used: "))

	path := filepath.Join(t.TempDir(), "book.c4tt.gz")
	_, err = run(t, sc, "ttable save "+path)
	is.NoErr(err)
	out, err = run(t, sc, "ttable load")
	is.NoErr(err)
	is.Equal(out, "loaded "+path)

	_, err = run(t, sc, "ttable flip")
	is.True(err != nil)
}

func TestHelpAndUnknown(t *testing.T) {
	is := is.New(t)
	sc := newTestController()
	out, err := run(t, sc, "help")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "Commands:"))
	out, err = run(t, sc, "help ttable")
	is.NoErr(err)
	is.True(strings.Contains(out, "ttable reset"))
	_, err = run(t, sc, "help nonsense")
	is.True(err != nil)

	_, err = run(t, sc, "castle")
	is.True(errors.Is(err, errUnknownCommand))
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	c := NewShellCompleter(newTestController())

	matches, n := c.Do([]rune("so"), 2)
	is.Equal(n, 2)
	is.Equal(matches, [][]rune{[]rune("lve")})

	line := []rune("ttable s")
	matches, n = c.Do(line, len(line))
	is.Equal(n, 1)
	is.Equal(matches, [][]rune{[]rune("ave"), []rune("tats")})

	line = []rune("solve -disable-tt ")
	matches, _ = c.Do(line, len(line))
	is.Equal(len(matches), 2)
}
