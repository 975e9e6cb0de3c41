package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connect4/bench"
	"github.com/domino14/connect4/config"
	"github.com/domino14/connect4/solver"
)

func main() {
	cfg := config.DefaultConfig()
	fs := cfg.Flags()
	randomN := fs.Int("random", 0, "solve this many random positions instead of a test file")
	randomPlies := fs.Int("random-plies", 20, "moves played in each random position")
	logPath := fs.String("log", "", "write a YAML log of every result to this file")
	confidence := fs.Float64("confidence", 95, "confidence level for the report, in percent")
	snapshot := fs.String("seed-table", "", "load this snapshot into every worker's table first")
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

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	var cases []bench.Case
	switch {
	case *randomN > 0:
		var err error
		cases, err = bench.RandomCases(*randomN, *randomPlies)
		if err != nil {
			if len(cases) == 0 {
				log.Fatal().Err(err).Msg("could-not-generate-cases")
			}
			log.Warn().Err(err).Int("cases", len(cases)).Msg("fewer-random-cases")
		}
	case len(cfg.Args()) == 1:
		f, err := os.Open(cfg.Args()[0])
		if err != nil {
			log.Fatal().Err(err).Msg("could-not-open-test-file")
		}
		cases, err = bench.ReadCases(f)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("could-not-read-test-file")
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: c4bench [flags] <testfile>  or  c4bench --random N [flags]")
		fs.PrintDefaults()
		os.Exit(2)
	}

	r := &bench.Runner{Workers: cfg.GetInt(config.ConfigBenchWorkers)}
	if *snapshot != "" {
		r.NewSolver = func() *solver.Solver {
			tt, err := solver.LoadSnapshot(*snapshot)
			if err != nil {
				log.Fatal().Err(err).Str("path", *snapshot).Msg("could-not-load-snapshot")
			}
			return solver.NewSolver(tt)
		}
	}
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			log.Fatal().Err(err).Msg("could-not-create-log")
		}
		defer f.Close()
		r.LogStream = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Int("cases", len(cases)).Int("workers", r.Workers).Msg("bench-starting")
	tstart := time.Now()
	results, err := r.Run(ctx, cases)
	if err != nil {
		log.Error().Err(err).Msg("bench-failed")
		return
	}
	log.Info().Float64("time-elapsed-sec", time.Since(tstart).Seconds()).Msg("bench-done")

	summary := bench.Summarize(results)
	if err := summary.Fprint(os.Stdout, *confidence); err != nil {
		log.Error().Err(err).Msg("could-not-print-summary")
	}
}
