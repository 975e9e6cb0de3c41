package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connect4/board"
	"github.com/domino14/connect4/config"
	"github.com/domino14/connect4/solver"
)

// c4warm fills a transposition table by solving every position near a root
// and writes it out as a snapshot for c4shell and c4bench to start from.
func main() {
	cfg := config.DefaultConfig()
	fs := cfg.Flags()
	out := fs.String("out", "", "snapshot to write; defaults to the ttable-snapshot setting")
	extend := fs.Bool("extend", false, "start from the existing snapshot at the output path")
	if err := cfg.LoadFlagSet(fs, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	level := zerolog.InfoLevel
	if cfg.GetBool(config.ConfigDebug) {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()

	path := *out
	if path == "" {
		path = cfg.GetString(config.ConfigTTableSnapshot)
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: c4warm --out <snapshot[.gz]> [--warm-depth n] [root moves]")
		os.Exit(2)
	}

	root := board.New()
	if len(cfg.Args()) > 0 {
		var err error
		root, err = board.FromMoves(cfg.Args()[0])
		if err != nil {
			log.Fatal().Err(err).Msg("bad-root-position")
		}
	}

	var tt *solver.TranspositionTable
	if *extend {
		var err error
		tt, err = solver.LoadSnapshot(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("could-not-load-snapshot")
		}
	}
	s := solver.NewSolver(tt)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	depth := cfg.GetInt(config.ConfigWarmDepth)
	tstart := time.Now()
	n, err := solver.WarmUp(ctx, s, root, depth)
	switch {
	case errors.Is(err, context.Canceled):
		// a partial table is still valid
		log.Warn().Int("solved", n).Msg("warmup-interrupted")
	case err != nil:
		log.Fatal().Err(err).Msg("warmup-failed")
	}
	st := s.TranspositionTable().Stats()
	log.Info().
		Int("solved", n).
		Int("depth", depth).
		Int("slots-used", st.Used).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("warmup-done")

	if err := s.TranspositionTable().SaveSnapshot(path); err != nil {
		log.Fatal().Err(err).Msg("could-not-save-snapshot")
	}
}
