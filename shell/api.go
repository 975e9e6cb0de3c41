package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/connect4/board"
	"github.com/domino14/connect4/cache"
	"github.com/domino14/connect4/config"
	"github.com/domino14/connect4/solver"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func msg(message string) *Response {
	return &Response{message: message}
}

func loadTable(cfg *config.Config, path string) (*solver.TranspositionTable, error) {
	obj, err := cache.Load(cfg, path, func(cfg *config.Config, key string) (any, error) {
		return solver.LoadSnapshot(key)
	})
	if err != nil {
		return nil, err
	}
	return obj.(*solver.TranspositionTable), nil
}

func (sc *ShellController) boardText() string {
	var sb strings.Builder
	sb.WriteString(sc.pos.ToDisplayText())
	if sc.seqKnown {
		fmt.Fprintf(&sb, "\nsequence: %s", sc.seq)
	}
	if sc.pos.PriorPlayerHasWon() {
		sb.WriteString("\ngame over: the last move made four in a row")
	}
	return sb.String()
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	sc.pos = board.New()
	sc.seq = ""
	sc.seqKnown = true
	sc.history = nil
	return msg(sc.boardText()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: play <columns>, e.g. play 3342")
	}
	moves := strings.Join(cmd.args, "")
	next := sc.pos
	if err := next.PlaySequence(moves); err != nil {
		return nil, err
	}
	sc.pushState()
	sc.pos = next
	sc.seq += moves
	return msg(sc.boardText()), nil
}

func (sc *ShellController) pushState() {
	sc.history = append(sc.history, gameState{pos: sc.pos, seq: sc.seq, seqKnown: sc.seqKnown})
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if len(sc.history) == 0 {
		return nil, errNothingToUndo
	}
	last := len(sc.history) - 1
	st := sc.history[last]
	sc.pos, sc.seq, sc.seqKnown = st.pos, st.seq, st.seqKnown
	sc.history = sc.history[:last]
	return msg(sc.boardText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.boardText()), nil
}

// searchContext applies the -maxtime option, in seconds.
func searchContext(cmd *shellcmd) (context.Context, context.CancelFunc, error) {
	maxtime, err := cmd.options.IntDefault("maxtime", 0)
	if err != nil {
		return nil, nil, err
	}
	if maxtime <= 0 {
		ctx, cancel := context.WithCancel(context.Background())
		return ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(maxtime)*time.Second)
	return ctx, cancel, nil
}

// outcome describes a score from the point of view of the player to move.
func outcome(score int) string {
	switch {
	case score > 0:
		return "win"
	case score < 0:
		return "loss"
	default:
		return "draw"
	}
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	ctx, cancel, err := searchContext(cmd)
	if err != nil {
		return nil, err
	}
	defer cancel()
	// the -disable-* options apply to this solve only; the table is shared
	s := solver.NewSolver(sc.solver.TranspositionTable())
	s.SetMoveSorterOptim(!cmd.options.Bool("disable-sorter"))
	s.SetIterativeDeepening(!cmd.options.Bool("disable-id"))
	s.SetTranspositionTableOptim(!cmd.options.Bool("disable-tt"))

	tstart := time.Now()
	score, err := s.Solve(ctx, sc.pos)
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("score: %d (%s), nodes: %d, time: %.3fs",
		score, outcome(score), s.Nodes(), time.Since(tstart).Seconds())), nil
}

func (sc *ShellController) evaluate(cmd *shellcmd) (*Response, error) {
	ctx, cancel, err := searchContext(cmd)
	if err != nil {
		return nil, err
	}
	defer cancel()
	score, err := sc.solver.Evaluate(ctx, sc.pos)
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("score: %d (%s)", score, outcome(score))), nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	ctx, cancel, err := searchContext(cmd)
	if err != nil {
		return nil, err
	}
	defer cancel()
	scores, err := sc.solver.Analyze(ctx, sc.pos)
	if err != nil {
		return nil, err
	}
	best := solver.BestColumns(scores)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-8s%-8s%s\n", "column", "score", "")
	for _, cs := range scores {
		if !cs.Playable {
			fmt.Fprintf(&sb, "%-8d%-8s\n", cs.Column, "-")
			continue
		}
		marker := ""
		if lo.Contains(best, cs.Column) {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%-8d%-8d%s\n", cs.Column, cs.Score, marker)
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) key(cmd *shellcmd) (*Response, error) {
	return msg(fmt.Sprintf("key: %#x\nmirror: %#x\nmoves: %d",
		sc.pos.Key(), sc.pos.MirrorKey(), sc.pos.Moves())), nil
}

func (sc *ShellController) mirror(cmd *shellcmd) (*Response, error) {
	m := board.FromKey(sc.pos.MirrorKey(), sc.pos.Moves())
	return msg(m.ToDisplayText()), nil
}

func (sc *ShellController) fromKey(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return nil, errors.New("usage: fromkey <key> <moves>")
	}
	key, err := strconv.ParseUint(cmd.args[0], 0, 64)
	if err != nil {
		return nil, err
	}
	moves, err := strconv.Atoi(cmd.args[1])
	if err != nil {
		return nil, err
	}
	p := board.FromKey(key, moves)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sc.pushState()
	sc.pos = p
	sc.seq = ""
	sc.seqKnown = false
	return msg(sc.boardText()), nil
}

func (sc *ShellController) alignments(cmd *shellcmd) (*Response, error) {
	cells := sc.pos.PriorPlayerAlignments()
	if len(cells) == 0 {
		return msg("no four in a row"), nil
	}
	strs := lo.Map(cells, func(c int, _ int) string {
		return strconv.Itoa(c)
	})
	return msg("cells: " + strings.Join(strs, " ")), nil
}

func (sc *ShellController) ttable(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: ttable load|save|reset|stats [path]")
	}
	path := sc.snapshotPath
	if len(cmd.args) > 1 {
		path = cmd.args[1]
	}
	switch cmd.args[0] {
	case "load":
		if path == "" {
			return nil, errors.New("no snapshot path given or configured")
		}
		cache.Evict(path)
		tt, err := loadTable(sc.config, path)
		if err != nil {
			return nil, err
		}
		sc.solver.SetTranspositionTable(tt)
		sc.snapshotPath = path
		return msg("loaded " + path), nil
	case "save":
		if path == "" {
			return nil, errors.New("no snapshot path given or configured")
		}
		if err := sc.solver.TranspositionTable().SaveSnapshot(path); err != nil {
			return nil, err
		}
		sc.snapshotPath = path
		return msg("saved " + path), nil
	case "reset":
		sc.solver.Reset()
		return msg("transposition table cleared"), nil
	case "stats":
		out, err := yaml.Marshal(sc.solver.TranspositionTable().Stats())
		if err != nil {
			return nil, err
		}
		return msg(strings.TrimRight(string(out), "\n")), nil
	default:
		return nil, fmt.Errorf("unknown ttable subcommand %q", cmd.args[0])
	}
}

func (sc *ShellController) warm(cmd *shellcmd) (*Response, error) {
	depth, err := cmd.options.IntDefault("depth", sc.config.GetInt(config.ConfigWarmDepth))
	if err != nil {
		return nil, err
	}
	ctx, cancel, err := searchContext(cmd)
	if err != nil {
		return nil, err
	}
	defer cancel()
	n, err := solver.WarmUp(ctx, sc.solver, sc.pos, depth)
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("solved %d positions", n)), nil
}

func (sc *ShellController) setConfig(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 2 {
		return nil, errors.New("usage: setconfig <key> <value>")
	}
	key, value := cmd.args[0], cmd.args[1]
	sc.config.Set(key, value)
	if err := sc.config.Write(); err != nil {
		return nil, err
	}
	return msg("set " + key + " to " + value), nil
}
