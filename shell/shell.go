package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connect4/board"
	"github.com/domino14/connect4/config"
	"github.com/domino14/connect4/solver"
)

var (
	errNoData            = errors.New("no data in line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errUnknownCommand    = errors.New("unknown command; try `help`")
	errNothingToUndo     = errors.New("nothing to undo")
)

type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config

	execPath   string
	gitVersion string

	pos board.Position
	// seq holds the columns played from the empty board. It is unknown
	// (and empty) after fromkey.
	seq      string
	seqKnown bool
	history  []gameState

	solver       *solver.Solver
	snapshotPath string
}

// gameState is what undo restores.
type gameState struct {
	pos      board.Position
	seq      string
	seqKnown bool
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// NewShellController sets up the prompt and the solver. If a snapshot is
// configured it is loaded into the solver's table.
func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	sc := &ShellController{
		config:     cfg,
		execPath:   execPath,
		gitVersion: gitVersion,
		pos:        board.New(),
		seqKnown:   true,
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mc4>\033[0m ",
		HistoryFile:     "/tmp/c4readline.tmp",
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stdout()
	sc.solver = sc.initialSolver()
	return sc
}

func (sc *ShellController) initialSolver() *solver.Solver {
	path := sc.config.GetString(config.ConfigTTableSnapshot)
	if path == "" {
		return solver.NewSolver(nil)
	}
	tt, err := loadTable(sc.config, path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could-not-load-snapshot")
		return solver.NewSolver(nil)
	}
	sc.snapshotPath = path
	return solver.NewSolver(tt)
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for idx := 1; idx < len(fields); idx++ {
		f := fields[idx]
		if !strings.HasPrefix(f, "-") || len(f) == 1 {
			args = append(args, f)
			continue
		}
		if idx == len(fields)-1 {
			return nil, errWrongOptionSyntax
		}
		name := strings.TrimPrefix(f, "-")
		options[name] = append(options[name], fields[idx+1])
		idx++
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

// dispatch runs every command except exit.
func (sc *ShellController) dispatch(cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "play":
		return sc.play(cmd)
	case "undo":
		return sc.undo(cmd)
	case "show":
		return sc.show(cmd)
	case "solve":
		return sc.solve(cmd)
	case "evaluate":
		return sc.evaluate(cmd)
	case "analyze":
		return sc.analyze(cmd)
	case "key":
		return sc.key(cmd)
	case "mirror":
		return sc.mirror(cmd)
	case "fromkey":
		return sc.fromKey(cmd)
	case "alignments":
		return sc.alignments(cmd)
	case "ttable":
		return sc.ttable(cmd)
	case "warm":
		return sc.warm(cmd)
	case "setconfig":
		return sc.setConfig(cmd)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownCommand, strconv.Quote(cmd.cmd))
	}
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	if cmd.cmd == "exit" || cmd.cmd == "bye" {
		sig <- syscall.SIGINT
		return nil, errors.New("sending quit signal")
	}
	return sc.dispatch(cmd)
}

// Execute runs a single command line, as when arguments are passed on the
// command line instead of starting the prompt.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.standardModeSwitch(line, sig)
	if err != nil {
		sc.showError(err)
		return
	}
	if resp != nil {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		resp, err := sc.standardModeSwitch(line, sig)
		if err != nil {
			if cmd, _ := extractFields(line); cmd != nil && (cmd.cmd == "exit" || cmd.cmd == "bye") {
				break
			}
			sc.showError(err)
			continue
		}
		if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup saves the table back to its snapshot when autosave is on.
func (sc *ShellController) Cleanup() {
	if !sc.config.GetBool(config.ConfigTTableAutosave) || sc.snapshotPath == "" {
		return
	}
	if err := sc.solver.TranspositionTable().SaveSnapshot(sc.snapshotPath); err != nil {
		log.Err(err).Str("path", sc.snapshotPath).Msg("autosave-failed")
	}
}
