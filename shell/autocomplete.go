package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/domino14/connect4/config"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"solve": {
		Options: []string{"-maxtime", "-disable-sorter", "-disable-id", "-disable-tt"},
	},
	"evaluate": {
		Options: []string{"-maxtime"},
	},
	"analyze": {
		Options: []string{"-maxtime"},
	},
	"warm": {
		Options: []string{"-depth", "-maxtime"},
	},
	"ttable": {
		Args: []string{"load", "save", "reset", "stats"},
	},
	"help": {
		Args: []string{"scores", "solve", "analyze", "ttable", "warm", "fromkey"},
	},
	"setconfig": {
		Args: []string{
			config.ConfigDebug, config.ConfigDataPath, config.ConfigTTableSnapshot,
			config.ConfigTTableAutosave, config.ConfigBenchWorkers, config.ConfigWarmDepth,
		},
	},
}

var commandNames = []string{
	"help", "new", "play", "undo", "show", "solve", "evaluate", "analyze",
	"key", "mirror", "fromkey", "alignments", "ttable", "warm", "setconfig",
	"exit",
}

var boolValues = []string{"true", "false"}

// Do implements the readline.AutoCompleter interface.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		// unterminated quote and the like
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}
		switch strings.TrimPrefix(lastCompleteField, "-") {
		case "disable-sorter", "disable-id", "disable-tt":
			completions = boolValues
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	matches := lo.FilterMap(completions, func(completion string, _ int) ([]rune, bool) {
		if !strings.HasPrefix(completion, prefix) {
			return nil, false
		}
		// only the part still to be typed
		return []rune(completion[len(prefix):]), true
	})
	return matches, len(prefix)
}
