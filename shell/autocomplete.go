package shell

import (
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
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
	Options []string // Available options for this command (e.g., "-depth", "-threads")
	Args    []string // Possible argument values (for non-option arguments)
}

var commandMetadata = map[string]CommandMetadata{
	"best": {
		Options: []string{"-depth", "-time"},
	},
	"autoplay": {
		Options: []string{
			"-games", "-threads", "-depth1", "-depth2", "-evaluator1",
			"-evaluator2", "-time", "-random-plies", "-seeds", "-save-seeds",
			"-log", "-db",
		},
		Args: []string{"stop"},
	},
	"new": {
		Args: []string{"0", "1"},
	},
	"set": {
		Args: settingNames,
	},
	"setconfig": {
		Args: []string{
			"data-path", "cols", "rows", "first-player", "engine-player",
			"max-depth", "max-thinking-ms", "evaluator", "ttable",
			"ttable-mem-fraction", "shallow-solutions", "selfplay-db",
			"selfplay-threads",
		},
	},
	"help": {
		Args: []string{"best", "play", "set", "autoplay", "puzzles", "pos"},
	},
}

// Common command names for command completion
var commandNames = []string{
	"help", "new", "play", "undo", "best", "hint", "aiplay", "show", "pos",
	"set", "setconfig", "autoplay", "puzzles", "exit",
}

var boolValues = []string{"true", "false"}
var evaluatorNames = []string{"cube", "weighted"}

// Do implements the readline.AutoComplete interface
// It provides context-aware autocomplete based on what's been typed
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		// If we can't parse, fall back to simple space splitting
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

		if strings.HasPrefix(lastCompleteField, "-") {
			switch strings.TrimPrefix(lastCompleteField, "-") {
			case "evaluator1", "evaluator2":
				completions = evaluatorNames
			}
		}

		// Values for `set <option>`.
		settingValue := len(fields) == 3 || (len(fields) == 2 && endsWithSpace)
		if completions == nil && cmdName == "set" && settingValue {
			switch fields[1] {
			case "ttable", "shallow":
				completions = boolValues
			case "evaluator":
				completions = evaluatorNames
			case "engine":
				completions = []string{"0", "1"}
			}
		}
		if completions == nil && cmdName == "play" && c.sc != nil {
			completions = c.playableColumns()
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

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			// Return only the part that needs to be added
			suffix := completion[len(prefix):]
			matches = append(matches, []rune(suffix))
		}
	}

	return matches, len(prefix)
}

func (c *ShellCompleter) playableColumns() []string {
	moves := c.sc.engine.Game().GenerateMoves()
	cols := make([]string, len(moves))
	for i, m := range moves {
		cols[i] = strconv.Itoa(m)
	}
	return cols
}
