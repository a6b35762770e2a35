package shell

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/quatro/automatic"
	"github.com/domino14/quatro/config"
)

const defaultAutoplayGames = 100

func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) > 0 {
		if cmd.args[0] != "stop" {
			return nil, errors.New("unrecognized argument to autoplay: " + cmd.args[0])
		}
		sc.mu.Lock()
		cancel := sc.autoplayCancel
		sc.mu.Unlock()
		if cancel == nil {
			return nil, errors.New("no autoplay to stop")
		}
		cancel()
		return msg("stopping after the games in progress"), nil
	}

	if err := sc.acquire(); err != nil {
		return nil, err
	}
	opts, err := sc.autoplayOptions(cmd.options)
	if err != nil {
		sc.release()
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	sc.mu.Lock()
	sc.autoplayCancel = cancel
	sc.mu.Unlock()

	run := func() (string, error) {
		defer func() {
			sc.mu.Lock()
			sc.autoplayCancel = nil
			sc.mu.Unlock()
			cancel()
			sc.release()
		}()
		if c, ok := opts.Store.(io.Closer); ok {
			defer c.Close()
		}
		summary, err := automatic.PlayGames(ctx, sc.engine.Game().Geometry(), opts)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		if err := summary.WriteText(&sb); err != nil {
			return "", err
		}
		return sb.String(), nil
	}

	if !sc.interactive {
		out, err := run()
		if err != nil {
			return nil, err
		}
		return msg(out), nil
	}
	go func() {
		out, err := run()
		if err != nil {
			sc.showError(err)
			return
		}
		sc.showMessage(out)
	}()
	return msg("autoplay started; `autoplay stop` to end it early"), nil
}

func (sc *ShellController) autoplayOptions(options CmdOptions) (automatic.AutoplayOptions, error) {
	st := sc.engine.Settings()
	opts := automatic.AutoplayOptions{TTableFraction: st.TTableMemFraction}
	var err error
	if opts.NumGames, err = options.IntDefault("games", defaultAutoplayGames); err != nil {
		return opts, err
	}
	if opts.Threads, err = options.IntDefault("threads", sc.config.GetInt(config.ConfigSelfPlayConcurrency)); err != nil {
		return opts, err
	}
	if opts.RandomPlies, err = options.IntDefault("random-plies", 2); err != nil {
		return opts, err
	}
	ms, err := options.IntDefault("time", int(st.MaxThinking/time.Millisecond))
	if err != nil {
		return opts, err
	}
	for i := range opts.Players {
		n := string(rune('1' + i))
		p := automatic.PlayerSettings{
			MaxThinking: time.Duration(ms) * time.Millisecond,
			Evaluator:   st.Evaluator,
			TTable:      st.TTable,
		}
		if p.MaxDepth, err = options.IntDefault("depth"+n, st.MaxDepth); err != nil {
			return opts, err
		}
		if ev := options.String("evaluator" + n); ev != "" {
			p.Evaluator = ev
		}
		opts.Players[i] = p
	}

	if f := options.String("seeds"); f != "" {
		if opts.Seeds, err = automatic.LoadSeeds(f); err != nil {
			return opts, err
		}
	}
	if f := options.String("save-seeds"); f != "" {
		if len(opts.Seeds) == 0 {
			opts.Seeds = automatic.GenerateSeeds(opts.NumGames)
		}
		if err = automatic.SaveSeeds(opts.Seeds, f); err != nil {
			return opts, err
		}
	}
	opts.LogFile = options.String("log")

	db := options.String("db")
	if db == "" {
		db = sc.config.GetString(config.ConfigSelfPlayDB)
		if db != "" && !filepath.IsAbs(db) {
			db = filepath.Join(sc.config.GetString(config.ConfigDataPath), db)
		}
	}
	if db != "" {
		store, err := automatic.OpenGameStore(context.Background(), db)
		if err != nil {
			return opts, err
		}
		opts.Store = store
		log.Info().Str("db", db).Msg("storing-selfplay-games")
	}
	return opts, nil
}
