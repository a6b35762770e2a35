package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/domino14/quatro/engine"
	"github.com/domino14/quatro/game"
	"github.com/domino14/quatro/negamax"
	"github.com/domino14/quatro/puzzles"
)

type CmdOptions map[string]string

func (c CmdOptions) String(key string) string {
	return c[key]
}

func (c CmdOptions) Int(key string) (int, error) {
	v, ok := c[key]
	if !ok {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v)
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v, ok := c[key]
	if !ok {
		return defaultI, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("option -%s: %w", key, err)
	}
	return i, nil
}

func (c CmdOptions) Bool(key string) bool {
	return strings.ToLower(c[key]) == "true"
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.engine.ToDisplayText()), nil
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	if err := sc.acquire(); err != nil {
		return nil, err
	}
	defer sc.release()
	first := sc.engine.Settings().FirstPlayer
	if len(cmd.args) > 0 {
		var err error
		if first, err = strconv.Atoi(cmd.args[0]); err != nil {
			return nil, err
		}
	}
	if err := sc.engine.NewGame(first); err != nil {
		return nil, err
	}
	out := sc.engine.ToDisplayText()
	if sc.engine.EngineToMove() {
		out += "The engine moves first; use `aiplay`."
	}
	return msg(out), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: play <col> [col ...]")
	}
	if err := sc.acquire(); err != nil {
		return nil, err
	}
	defer sc.release()
	for _, a := range cmd.args {
		col, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		if err := sc.engine.PlayMove(col); err != nil {
			return nil, err
		}
	}
	return msg(sc.engine.ToDisplayText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	n := 1
	if len(cmd.args) > 0 {
		var err error
		if n, err = strconv.Atoi(cmd.args[0]); err != nil {
			return nil, err
		}
	}
	if err := sc.acquire(); err != nil {
		return nil, err
	}
	defer sc.release()
	for range n {
		if _, err := sc.engine.UndoLast(); err != nil {
			return nil, err
		}
	}
	return msg(sc.engine.ToDisplayText()), nil
}

func searchLimits(cmd *shellcmd) (int, time.Duration, error) {
	depth, err := cmd.options.IntDefault("depth", 0)
	if err != nil {
		return 0, 0, err
	}
	ms, err := cmd.options.IntDefault("time", 0)
	if err != nil {
		return 0, 0, err
	}
	return depth, time.Duration(ms) * time.Millisecond, nil
}

// best ranks the moves of whoever is on turn, without playing any.
func (sc *ShellController) best(cmd *shellcmd) (*Response, error) {
	if sc.engine.IsTerminal() {
		return nil, engine.ErrGameOver
	}
	depth, thinking, err := searchLimits(cmd)
	if err != nil {
		return nil, err
	}
	if err := sc.acquire(); err != nil {
		return nil, err
	}
	defer sc.release()
	res := <-sc.engine.BestMovesAsync(context.Background(), depth, thinking)
	if res.Err != nil {
		return nil, res.Err
	}
	return msg(sc.formatResult(res.Result)), nil
}

// aiplay has the engine play the side on turn.
func (sc *ShellController) aiplay(cmd *shellcmd) (*Response, error) {
	if sc.engine.IsTerminal() {
		return nil, engine.ErrGameOver
	}
	if err := sc.acquire(); err != nil {
		return nil, err
	}
	defer sc.release()
	if !sc.engine.EngineToMove() {
		if err := sc.engine.SetEnginePlayer(sc.engine.PlayerOnTurn()); err != nil {
			return nil, err
		}
	}
	res, err := sc.engine.PlayBestMove(context.Background())
	if err != nil {
		return nil, err
	}
	best, _ := res.Best()
	return msg(fmt.Sprintf("Engine plays %s\n%s", best.ShortDescription(), sc.engine.ToDisplayText())), nil
}

func (sc *ShellController) formatResult(res *negamax.Result) string {
	var sb strings.Builder
	sb.WriteString(sc.printer.Sprintf("Depth %d, %d nodes in %v", res.Depth, res.Nodes,
		res.Duration.Round(time.Millisecond)))
	switch {
	case res.ShortCircuited:
		sb.WriteString(" (decided early)")
	case res.TimedOut:
		sb.WriteString(" (timed out)")
	}
	sb.WriteString("\n")
	if len(res.Moves) == 0 {
		sb.WriteString("No moves: the game is over.")
		return sb.String()
	}
	for i, m := range res.Moves {
		fmt.Fprintf(&sb, "%3d: %s\n", i+1, m.ShortDescription())
	}
	if len(res.PV.Moves) > 0 {
		pv := make([]string, len(res.PV.Moves))
		for i, c := range res.PV.Moves {
			pv[i] = strconv.Itoa(c)
		}
		sb.WriteString("Best line: " + strings.Join(pv, " "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (sc *ShellController) pos(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.engine.Position()), nil
	}
	if err := sc.acquire(); err != nil {
		return nil, err
	}
	defer sc.release()
	if err := sc.engine.LoadPosition(cmd.args[0]); err != nil {
		return nil, err
	}
	return msg(sc.engine.ToDisplayText()), nil
}

var settingNames = []string{"engine", "depth", "time", "evaluator", "ttable", "shallow"}

func (sc *ShellController) showSetting(key string) (string, error) {
	st := sc.engine.Settings()
	solver := sc.engine.Solver()
	switch key {
	case "engine":
		return fmt.Sprintf("%d (%c)", st.EnginePlayer, game.PlayerSymbols[st.EnginePlayer]), nil
	case "depth":
		return strconv.Itoa(st.MaxDepth), nil
	case "time":
		return st.MaxThinking.String(), nil
	case "evaluator":
		return solver.Evaluator().Name(), nil
	case "ttable":
		return strconv.FormatBool(solver.TranspositionTableOptim()), nil
	case "shallow":
		return strconv.FormatBool(solver.ShallowSolutionOptim()), nil
	}
	return "", fmt.Errorf("no such option: %s", key)
}

func (sc *ShellController) settingsText() string {
	var sb strings.Builder
	sb.WriteString("Settings:\n")
	for _, key := range settingNames {
		val, _ := sc.showSetting(key)
		sb.WriteString("  " + key + ": " + val + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.settingsText()), nil
	}
	opt := cmd.args[0]
	if len(cmd.args) == 1 {
		val, err := sc.showSetting(opt)
		if err != nil {
			return nil, err
		}
		return msg(val), nil
	}
	if err := sc.acquire(); err != nil {
		return nil, err
	}
	defer sc.release()
	value := cmd.args[1]
	var err error
	switch opt {
	case "engine":
		var p int
		if p, err = strconv.Atoi(value); err == nil {
			err = sc.engine.SetEnginePlayer(p)
		}
	case "depth":
		var d int
		if d, err = strconv.Atoi(value); err == nil {
			err = sc.engine.SetMaxDepth(d)
		}
	case "time":
		var ms int
		if ms, err = strconv.Atoi(value); err == nil {
			sc.engine.SetMaxThinking(time.Duration(ms) * time.Millisecond)
		}
	case "evaluator":
		err = sc.engine.SetEvaluator(value)
	case "ttable":
		var b bool
		if b, err = strconv.ParseBool(value); err == nil {
			sc.engine.SetTranspositionTable(b)
		}
	case "shallow":
		var b bool
		if b, err = strconv.ParseBool(value); err == nil {
			sc.engine.SetShallowSolutions(b)
		}
	default:
		err = fmt.Errorf("no such option: %s", opt)
	}
	if err != nil {
		return nil, err
	}
	ret, _ := sc.showSetting(opt)
	return msg("set " + opt + " to " + ret), nil
}

func (sc *ShellController) setConfig(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 2 {
		return nil, errors.New("usage: setconfig <key> <value>")
	}
	key := cmd.args[0]
	value := cmd.args[1]
	sc.config.Set(key, value)
	if err := sc.config.Write(); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return msg(fmt.Sprintf("set config %s to %s and saved to file", key, value)), nil
}

func (sc *ShellController) puzzles(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: puzzles <file.yaml>")
	}
	ps, err := puzzles.Load(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if err := sc.acquire(); err != nil {
		return nil, err
	}
	defer sc.release()
	reports, err := puzzles.CheckAll(context.Background(), sc.engine.Game().Geometry(), ps)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	passed := 0
	for _, r := range reports {
		if r.Passed() {
			passed++
		}
		sb.WriteString(r.String() + "\n")
	}
	fmt.Fprintf(&sb, "Passed %d of %d", passed, len(reports))
	return msg(sb.String()), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return usage("standard")
	}
	return usageTopic(cmd.args[0])
}
