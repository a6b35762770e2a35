package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/domino14/quatro/config"
	"github.com/domino14/quatro/engine"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errEngineBusy        = errors.New("the engine is busy; wait or run `autoplay stop`")
	errQuit              = errors.New("sending quit signal")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

type ShellController struct {
	l       *readline.Instance
	out     io.Writer
	config  *config.Config
	version string

	engine  *engine.Engine
	printer *message.Printer

	// interactive is set while Loop runs; long commands then go to the
	// background instead of blocking the prompt.
	interactive bool

	mu             sync.Mutex
	busy           bool
	autoplayCancel context.CancelFunc
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// NewShellController creates the interactive shell. It panics if the
// terminal cannot be set up.
func NewShellController(cfg *config.Config, gitVersion string) *ShellController {
	sc, err := newController(cfg, os.Stderr)
	if err != nil {
		panic(err)
	}
	sc.version = gitVersion

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[33mquatro>\033[0m ",
		HistoryFile:     "/tmp/quatro_readline.tmp",
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
	sc.out = l.Stderr()
	return sc
}

func newController(cfg *config.Config, out io.Writer) (*ShellController, error) {
	e, err := engine.NewEngine(engine.SettingsFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	return &ShellController{
		out:     out,
		config:  cfg,
		engine:  e,
		printer: message.NewPrinter(language.English),
	}, nil
}

// extractFields splits a line into a command, its positional arguments and
// its -option value pairs.
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
	for i := 1; i < len(fields); i++ {
		f := fields[i]
		if !isOption(f) {
			args = append(args, f)
			continue
		}
		if i+1 >= len(fields) {
			return nil, errWrongOptionSyntax
		}
		options[f[1:]] = fields[i+1]
		i++
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

// isOption is true for -name, but not for a negative number.
func isOption(f string) bool {
	if len(f) < 2 || f[0] != '-' {
		return false
	}
	_, err := strconv.Atoi(f)
	return err != nil
}

func (sc *ShellController) acquire() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.busy {
		return errEngineBusy
	}
	sc.busy = true
	return nil
}

func (sc *ShellController) release() {
	sc.mu.Lock()
	sc.busy = false
	sc.mu.Unlock()
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "quit", "bye":
		sig <- syscall.SIGINT
		return nil, errQuit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "play", "p":
		return sc.play(cmd)
	case "undo", "u":
		return sc.undo(cmd)
	case "best", "hint":
		return sc.best(cmd)
	case "aiplay", "ai":
		return sc.aiplay(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "pos":
		return sc.pos(cmd)
	case "set":
		return sc.set(cmd)
	case "setconfig":
		return sc.setConfig(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "puzzles":
		return sc.puzzles(cmd)
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd.cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

// Execute runs a single command line, as given on the command line of the
// shell binary.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.standardModeSwitch(line, sig)
	if err != nil {
		if !errors.Is(err, errQuit) {
			sc.showError(err)
		}
		return
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	sc.interactive = true
	if sc.version != "" {
		sc.showMessage("quatro " + sc.version)
	}
	sc.showMessage(sc.engine.ToDisplayText())

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.standardModeSwitch(line, sig)
		if errors.Is(err, errQuit) {
			break
		} else if err != nil {
			sc.showError(err)
		} else if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup stops background work before the program exits.
func (sc *ShellController) Cleanup() {
	sc.mu.Lock()
	cancel := sc.autoplayCancel
	sc.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
