// Command chessduel plays engine-versus-engine games and keeps a tally of
// the results.
package main

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"runtime/pprof"
	"slices"
	"strings"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessduel/internal/board"
	"github.com/hailam/chessduel/internal/coordinator"
	"github.com/hailam/chessduel/internal/engine"
	"github.com/hailam/chessduel/internal/game"
	"github.com/hailam/chessduel/internal/record"
	"github.com/hailam/chessduel/internal/render"
	"github.com/hailam/chessduel/internal/storage"
)

// noDB disables the results database.
const noDB = "none"

var (
	difficulty = flag.String("difficulty", "", "preset for both sides: easy, medium or hard (default: last used)")
	depth      = flag.Int("depth", 0, "search depth for both sides; overrides -difficulty")
	whiteDepth = flag.Int("white-depth", 0, "search depth for White; overrides -depth")
	blackDepth = flag.Int("black-depth", 0, "search depth for Black; overrides -depth")
	games      = flag.Int("games", 1, "number of games to play")
	parallel   = flag.Int("parallel", 1, "games played at the same time")
	maxPlies   = flag.Int("max-plies", 0, "declare a draw after this many plies (default: last used)")
	startFEN   = flag.String("fen", "", "start every game from this position")
	opening    = flag.String("opening", "", `SAN moves played before the engines take over, e.g. "e4 e5 Nf3"`)
	pgnPath    = flag.String("pgn", "", "append finished games to this PGN file")
	dbPath     = flag.String("db", "", `results database directory, "none" to disable (env CHESSDUEL_DB)`)
	quiet      = flag.Bool("quiet", false, "do not draw the board after each move")
	logLevel   = flag.String("log-level", "", "log level: trace, debug, info, warn, error (env CHESSDUEL_LOG_LEVEL)")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file (env CPUPROFILE)")
)

func main() {
	flag.Parse()

	logger := newLogger(envOr(*logLevel, "CHESSDUEL_LOG_LEVEL", "info"))
	if err := run(logger); err != nil {
		logger.Error().Err(err).Msg("chessduel failed")
		os.Exit(1)
	}
}

// envOr returns v, or the environment variable key when v is empty, or def.
func envOr(v, key, def string) string {
	if v != "" {
		return v
	}
	if env := os.Getenv(key); env != "" {
		return env
	}
	return def
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// match is the configuration shared by every game of a run.
type match struct {
	white, black engine.Config
	whiteName    string
	blackName    string
	maxPlies     int
	fen          string
	opening      []string
	log          zerolog.Logger

	store *storage.Storage // nil when disabled
	pgnMu sync.Mutex
	pgn   *os.File // nil when disabled
}

// matchup names the depth pairing; tallies are kept per matchup.
func (m *match) matchup() string {
	return fmt.Sprintf("d%d-vs-d%d", m.white.Depth, m.black.Depth)
}

func run(logger zerolog.Logger) error {
	// Start CPU profiling if requested (via flag or environment variable)
	if profilePath := envOr(*cpuprofile, "CPUPROFILE", ""); profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		logger.Info().Str("path", profilePath).Msg("cpu profiling enabled")
	}

	if *startFEN != "" {
		if _, err := board.ParseFEN(*startFEN); err != nil {
			return err
		}
	}

	m := &match{
		fen:       *startFEN,
		opening:   strings.Fields(*opening),
		whiteName: petname.Generate(2, "-"),
		blackName: petname.Generate(2, "-"),
		log:       logger,
	}

	prefs := storage.DefaultPreferences()
	if dir := envOr(*dbPath, "CHESSDUEL_DB", ""); dir != noDB {
		store, err := storage.Open(dir, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		m.store = store

		if prefs, err = store.LoadPreferences(); err != nil {
			return fmt.Errorf("load preferences: %w", err)
		}
	}

	if *difficulty != "" {
		prefs.Difficulty = *difficulty
	}
	d, ok := engine.ParseDifficulty(strings.ToLower(prefs.Difficulty))
	if !ok {
		return fmt.Errorf("unknown difficulty %q", prefs.Difficulty)
	}
	prefs.Difficulty = d.String()
	if *maxPlies > 0 {
		prefs.MaxPlies = *maxPlies
	}
	m.maxPlies = prefs.MaxPlies

	m.white = engine.DifficultySettings[d]
	m.black = engine.DifficultySettings[d]
	if *depth > 0 {
		m.white.Depth, m.black.Depth = *depth, *depth
	}
	if *whiteDepth > 0 {
		m.white.Depth = *whiteDepth
	}
	if *blackDepth > 0 {
		m.black.Depth = *blackDepth
	}

	if *pgnPath != "" {
		f, err := os.OpenFile(*pgnPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open pgn file: %w", err)
		}
		defer f.Close()
		m.pgn = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info().
		Str("white", m.whiteName).
		Str("black", m.blackName).
		Str("matchup", m.matchup()).
		Int("games", *games).
		Int("max_plies", m.maxPlies).
		Msg("match started")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*parallel, 1))
	for i := 0; i < *games; i++ {
		round := i + 1
		g.Go(func() error {
			return m.play(gctx, round)
		})
	}
	err := g.Wait()
	if err != nil && !game.IsCancelled(err) {
		return err
	}
	if err != nil {
		logger.Warn().Msg("match interrupted")
	}

	if m.store != nil {
		if err := m.store.SavePreferences(prefs); err != nil {
			logger.Warn().Err(err).Msg("save preferences")
		}
		return m.printTally(os.Stdout)
	}
	return nil
}

// play runs one game to its end and records it.
func (m *match) play(ctx context.Context, round int) error {
	log := m.log.With().Int("round", round).Logger()

	white := coordinator.New(engine.NewEngine(m.white, log), log)
	black := coordinator.New(engine.NewEngine(m.black, log), log)

	var g *game.Game
	opts := game.Options{
		MaxPlies: m.maxPlies,
		Black:    black,
		Logger:   log,
	}
	if !*quiet && *parallel <= 1 {
		opts.OnMove = func(board.Move) {
			if err := render.Render(os.Stdout, g.Position()); err != nil {
				log.Warn().Err(err).Msg("render")
			}
		}
	}

	if m.fen != "" {
		var err error
		if g, err = game.NewFromFEN(white, m.fen, opts); err != nil {
			return err
		}
	} else {
		g = game.New(white, opts)
	}
	if err := g.PlayLine(m.opening...); err != nil {
		return fmt.Errorf("opening: %w", err)
	}

	start := time.Now()
	res, err := g.Play(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	log.Info().
		Str("result", res.Score()).
		Str("outcome", res.Outcome.String()).
		Int("plies", g.Position().Ply()).
		Int("fallbacks", g.Fallbacks()).
		Int("material", engine.EvaluateMaterial(g.Position())).
		Dur("elapsed", elapsed).
		Msg(res.String())
	if initial, err := board.ParseFEN(g.StartFEN()); err == nil {
		log.Debug().Strs("moves", board.MovesToSAN(initial, g.Position().History())).Msg("game record")
	}

	if err := m.writePGN(g, round); err != nil {
		return err
	}
	if m.store != nil {
		err := m.store.RecordResult(storage.GameResult{
			Matchup:  m.matchup(),
			Winner:   res.Winner,
			Outcome:  res.Outcome.String(),
			Plies:    g.Position().Ply(),
			Duration: elapsed,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *match) writePGN(g *game.Game, round int) error {
	if m.pgn == nil {
		return nil
	}
	pgn, err := record.PGN(g, record.Tags{
		Event: "chessduel self-play",
		Date:  time.Now(),
		Round: round,
		White: fmt.Sprintf("%s (depth %d)", m.whiteName, m.white.Depth),
		Black: fmt.Sprintf("%s (depth %d)", m.blackName, m.black.Depth),
	})
	if err != nil {
		return fmt.Errorf("round %d: %w", round, err)
	}

	m.pgnMu.Lock()
	defer m.pgnMu.Unlock()
	if _, err := fmt.Fprintf(m.pgn, "%s\n\n", pgn); err != nil {
		return fmt.Errorf("write pgn: %w", err)
	}
	return nil
}

func (m *match) printTally(out *os.File) error {
	t, err := m.store.LoadTally(m.matchup())
	if err != nil {
		return fmt.Errorf("load tally: %w", err)
	}
	fmt.Fprintf(out, "%s: %d games, White %d, Black %d, draws %d (White scores %.1f%%, %.1f plies on average)\n",
		m.matchup(), t.GamesPlayed, t.WhiteWins, t.BlackWins, t.Draws, t.Score(), t.AveragePlies())
	for _, outcome := range slices.Sorted(maps.Keys(t.ByOutcome)) {
		fmt.Fprintf(out, "  %-22s %d\n", outcome, t.ByOutcome[outcome])
	}
	return nil
}
