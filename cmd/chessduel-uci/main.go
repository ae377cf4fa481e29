// Command chessduel-uci runs one chessduel player as a UCI engine.
package main

import (
	"flag"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessduel/internal/engine"
	"github.com/hailam/chessduel/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	difficulty = flag.String("difficulty", "medium", "search preset: easy, medium or hard")
	logLevel   = flag.String("log-level", "warn", "log level for stderr")
)

func main() {
	flag.Parse()

	lvl, err := zerolog.ParseLevel(strings.ToLower(*logLevel))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	// stdout belongs to the protocol
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		logger.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	d, ok := engine.ParseDifficulty(strings.ToLower(*difficulty))
	if !ok {
		logger.Warn().Str("difficulty", *difficulty).Msg("unknown difficulty, using medium")
	}
	eng := engine.NewEngine(engine.DifficultySettings[d], logger)

	// Create and run UCI protocol handler
	protocol := uci.New(eng, os.Stdin, os.Stdout, logger)
	if err := protocol.Run(); err != nil {
		logger.Error().Err(err).Msg("reading commands")
	}
}
