package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/quatro/config"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
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
		{"autoplay -log /path/to/log.txt",
			&shellcmd{"autoplay", nil, CmdOptions{"log": "/path/to/log.txt"}},
			nil},
		{"autoplay stop",
			&shellcmd{"autoplay", []string{"stop"}, CmdOptions{}},
			nil},
		{"play 3 3 4 -depth 6 ",
			&shellcmd{"play",
				[]string{"3", "3", "4"},
				CmdOptions{"depth": "6"}},
			nil,
		},
		{"set time -1",
			&shellcmd{"set", []string{"time", "-1"}, CmdOptions{}},
			nil},
		{`puzzles "my puzzles.yaml"`,
			&shellcmd{"puzzles", []string{"my puzzles.yaml"}, CmdOptions{}},
			nil},
		{"best -depth",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func newTestController(t *testing.T) (*ShellController, *bytes.Buffer, chan os.Signal) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigDataPath, t.TempDir())
	cfg.Set(config.ConfigMaxThinkingMs, 0)
	buf := &bytes.Buffer{}
	sc, err := newController(cfg, buf)
	if err != nil {
		t.Fatal(err)
	}
	return sc, buf, make(chan os.Signal, 1)
}

func TestPlayUndoAndPosition(t *testing.T) {
	is := is.New(t)
	sc, buf, sig := newTestController(t)

	sc.Execute(sig, "play 3 3 4")
	is.Equal(sc.engine.Position(), "0|334")
	is.True(strings.Contains(buf.String(), "position 0|334"))

	sc.Execute(sig, "undo")
	is.Equal(sc.engine.Position(), "0|33")
	sc.Execute(sig, "undo 2")
	is.Equal(sc.engine.Position(), "0|")

	buf.Reset()
	sc.Execute(sig, "undo")
	is.True(strings.HasPrefix(buf.String(), "Error: "))

	buf.Reset()
	sc.Execute(sig, "play 9")
	is.True(strings.HasPrefix(buf.String(), "Error: "))
	is.Equal(sc.engine.Position(), "0|")

	sc.Execute(sig, "pos 1|2242")
	buf.Reset()
	sc.Execute(sig, "pos")
	is.Equal(buf.String(), "1|2242\n")

	sc.Execute(sig, "new")
	is.Equal(sc.engine.Position(), "1|")
	sc.Execute(sig, "new 0")
	is.Equal(sc.engine.Position(), "0|")
}

func TestBestLeavesBoardAlone(t *testing.T) {
	is := is.New(t)
	sc, buf, sig := newTestController(t)

	sc.Execute(sig, "pos 0|0606061")
	buf.Reset()
	sc.Execute(sig, "best -depth 2")
	out := buf.String()
	is.True(strings.Contains(out, "  1: 6 (win in 1)"))
	is.True(strings.Contains(out, "(decided early)"))
	is.Equal(sc.engine.Position(), "0|0606061")
}

func TestAiplay(t *testing.T) {
	is := is.New(t)
	sc, buf, sig := newTestController(t)

	sc.Execute(sig, "set depth 2")
	sc.Execute(sig, "pos 0|060606")
	buf.Reset()
	// X is on turn; the engine switches sides to play it.
	sc.Execute(sig, "aiplay")
	is.True(strings.Contains(buf.String(), "Engine plays 0 (win in 1)"))
	is.True(sc.engine.IsMill())
	is.Equal(sc.engine.EnginePlayer(), 0)

	buf.Reset()
	sc.Execute(sig, "aiplay")
	is.True(strings.Contains(buf.String(), "Error: the game is over"))
}

func TestSet(t *testing.T) {
	is := is.New(t)
	sc, buf, sig := newTestController(t)

	sc.Execute(sig, "set depth 4")
	is.Equal(sc.engine.Settings().MaxDepth, 4)
	sc.Execute(sig, "set time 250")
	is.Equal(sc.engine.Settings().MaxThinking.Milliseconds(), int64(250))
	sc.Execute(sig, "set evaluator weighted")
	is.Equal(sc.engine.Solver().Evaluator().Name(), "weighted")
	sc.Execute(sig, "set ttable false")
	is.True(!sc.engine.Solver().TranspositionTableOptim())
	sc.Execute(sig, "set shallow false")
	is.True(!sc.engine.Solver().ShallowSolutionOptim())

	buf.Reset()
	sc.Execute(sig, "set")
	is.True(strings.Contains(buf.String(), "  depth: 4\n"))
	is.True(strings.Contains(buf.String(), "  evaluator: weighted\n"))

	buf.Reset()
	sc.Execute(sig, "set depth 0")
	is.True(strings.HasPrefix(buf.String(), "Error: "))
	is.Equal(sc.engine.Settings().MaxDepth, 4)

	buf.Reset()
	sc.Execute(sig, "set colour red")
	is.True(strings.HasPrefix(buf.String(), "Error: no such option"))

	// best searches a copy but with the options set above.
	is.True(!sc.engine.Settings().ShallowSolutions)
	sc.Execute(sig, "pos 0|0606061")
	buf.Reset()
	sc.Execute(sig, "best -depth 2")
	is.True(strings.Contains(buf.String(), "  1: 6 (win in 1)"))
	is.True(!strings.Contains(buf.String(), "(decided early)"))
}

func TestSetConfig(t *testing.T) {
	is := is.New(t)
	sc, _, sig := newTestController(t)

	sc.Execute(sig, "setconfig max-depth 9")
	is.Equal(sc.config.GetInt(config.ConfigMaxDepth), 9)
	_, err := os.Stat(filepath.Join(sc.config.GetString(config.ConfigDataPath), "config.yaml"))
	is.NoErr(err)
}

func TestPuzzlesCommand(t *testing.T) {
	is := is.New(t)
	sc, buf, sig := newTestController(t)

	path := filepath.Join(t.TempDir(), "p.yaml")
	err := os.WriteFile(path, []byte(`
puzzles:
  - name: easy
    position: "0|0606061"
    depth: 2
    expect_top: [6]
  - name: wrong
    position: "0|0606061"
    depth: 2
    expect_top: [0]
`), 0o644)
	is.NoErr(err)

	sc.Execute(sig, "puzzles "+path)
	out := buf.String()
	is.True(strings.Contains(out, "ok   easy"))
	is.True(strings.Contains(out, "FAIL wrong"))
	is.True(strings.Contains(out, "Passed 1 of 2"))
}

func TestAutoplayCommand(t *testing.T) {
	is := is.New(t)
	sc, buf, sig := newTestController(t)

	db := filepath.Join(t.TempDir(), "games.db")
	sc.Execute(sig, "autoplay -games 2 -threads 1 -depth1 2 -depth2 2 -time 0 -random-plies 1 -db "+db)
	is.True(strings.Contains(buf.String(), "Games: 2"))
	_, err := os.Stat(db)
	is.NoErr(err)

	buf.Reset()
	sc.Execute(sig, "autoplay stop")
	is.True(strings.Contains(buf.String(), "no autoplay to stop"))
}

func TestHelpAndExit(t *testing.T) {
	is := is.New(t)
	sc, buf, sig := newTestController(t)

	sc.Execute(sig, "help")
	is.True(strings.Contains(buf.String(), "Commands:"))
	buf.Reset()
	sc.Execute(sig, "help best")
	is.True(strings.Contains(buf.String(), "best [-depth n] [-time ms]"))
	buf.Reset()
	sc.Execute(sig, "help ../shell")
	is.True(strings.Contains(buf.String(), "There is no help text"))

	buf.Reset()
	sc.Execute(sig, "frobnicate")
	is.True(strings.Contains(buf.String(), `command "frobnicate" not found`))

	sc.Execute(sig, "exit")
	is.Equal(len(sig), 1)
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	sc, _, sig := newTestController(t)
	c := NewShellCompleter(sc)

	complete := func(line string) []string {
		matches, _ := c.Do([]rune(line), len(line))
		out := make([]string, len(matches))
		for i, m := range matches {
			out[i] = string(m)
		}
		return out
	}

	is.Equal(complete("autop"), []string{"lay"})
	is.Equal(complete("set ttable "), []string{"true", "false"})
	is.Equal(complete("autoplay -ga"), []string{"mes"})
	is.Equal(complete("autoplay -evaluator2 w"), []string{"eighted"})

	sc.Execute(sig, "pos 0|333333")
	is.Equal(complete("play "), []string{"4", "2", "5", "1", "6", "0"})
}
