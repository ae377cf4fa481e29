// Package game drives an engine-versus-engine game: it keeps the
// authoritative position and its legal moves, asks a coordinator for each
// move, and classifies the end of the game.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessduel/internal/board"
	"github.com/hailam/chessduel/internal/coordinator"
	"github.com/hailam/chessduel/internal/engine"
)

// ErrGameOver is returned when a move is offered after the game ended.
var ErrGameOver = errors.New("game is over")

// Outcome classifies how a game stands.
type Outcome int

const (
	Ongoing Outcome = iota
	Checkmate
	Stalemate
	ThreefoldRepetition
	FiftyMoveRule
	InsufficientMaterial
	PlyLimit
)

var outcomeNames = [...]string{
	Ongoing:              "ongoing",
	Checkmate:            "checkmate",
	Stalemate:            "stalemate",
	ThreefoldRepetition:  "threefold repetition",
	FiftyMoveRule:        "fifty-move rule",
	InsufficientMaterial: "insufficient material",
	PlyLimit:             "ply limit",
}

// String returns the outcome name.
func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// Result is the outcome of a game plus the winner, NoColor for draws.
type Result struct {
	Outcome Outcome
	Winner  board.Color
}

// Over reports whether the game has ended.
func (r Result) Over() bool {
	return r.Outcome != Ongoing
}

// Score returns the PGN result token: "1-0", "0-1", "1/2-1/2" or "*".
func (r Result) Score() string {
	switch {
	case !r.Over():
		return "*"
	case r.Winner == board.White:
		return "1-0"
	case r.Winner == board.Black:
		return "0-1"
	}
	return "1/2-1/2"
}

// String describes the result for display.
func (r Result) String() string {
	switch {
	case !r.Over():
		return "Game in progress"
	case r.Outcome == Checkmate:
		return fmt.Sprintf("%s wins by checkmate", r.Winner)
	}
	return "Draw - " + r.Outcome.String()
}

// Options configure a Game.
type Options struct {
	MaxPlies     int                      // Declare a draw after this many plies; 0 = no limit
	PollInterval time.Duration            // Tick period for Play; 0 = 5ms
	Black        *coordinator.Coordinator // Searches for Black; nil = same as White
	OnMove       func(board.Move)         // Called after each applied move
	Logger       zerolog.Logger
}

// Game is the driver model. It is used from a single goroutine; searches
// run on the coordinators' workers.
type Game struct {
	opts   Options
	log    zerolog.Logger
	coords [2]*coordinator.Coordinator

	startFEN string
	pos      *board.Position
	legal    []board.Move
	moveLog  []string
	result   Result
	handle   *coordinator.Handle

	fallbacks int
}

// New creates a game at the starting position with coord searching for
// White (and for Black unless opts.Black is set).
func New(coord *coordinator.Coordinator, opts Options) *Game {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Millisecond
	}
	g := &Game{
		opts: opts,
		log:  opts.Logger,
	}
	g.coords[board.White] = coord
	g.coords[board.Black] = coord
	if opts.Black != nil {
		g.coords[board.Black] = opts.Black
	}
	g.reset(board.NewGame())
	return g
}

// NewFromFEN creates a game starting at the given position.
func NewFromFEN(coord *coordinator.Coordinator, fen string, opts Options) (*Game, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	g := New(coord, opts)
	g.reset(pos)
	return g, nil
}

func (g *Game) reset(pos *board.Position) {
	g.startFEN = pos.ToFEN()
	g.pos = pos
	g.legal = g.pos.Refresh()
	g.moveLog = nil
	g.handle = nil
	g.fallbacks = 0
	g.classify()
}

// Position returns the authoritative position. Callers must treat it as
// read-only.
func (g *Game) Position() *board.Position {
	return g.pos
}

// StartFEN returns the position the game started from.
func (g *Game) StartFEN() string {
	return g.startFEN
}

// LegalMoves returns the cached legal moves for the side to move.
func (g *Game) LegalMoves() []board.Move {
	return g.legal
}

// MoveLog returns the moves played so far in long notation.
func (g *Game) MoveLog() []string {
	return append([]string(nil), g.moveLog...)
}

// Result returns the current result.
func (g *Game) Result() Result {
	return g.result
}

// Over reports whether the game has ended.
func (g *Game) Over() bool {
	return g.result.Over()
}

// Thinking reports whether a search is in flight for this game.
func (g *Game) Thinking() bool {
	return g.handle != nil
}

// Fallbacks returns how many moves were picked at random because a search
// returned none.
func (g *Game) Fallbacks() int {
	return g.fallbacks
}

// Tick performs one iteration of the game loop: it starts a search if none
// is running, polls it, and applies the result when ready. It reports
// whether a move was applied. Tick never blocks on the search.
func (g *Game) Tick() (bool, error) {
	if g.Over() {
		return false, nil
	}

	side := g.pos.SideToMove
	coord := g.coords[side]

	if g.handle == nil {
		h, err := coord.Start(g.pos, g.legal)
		if err != nil {
			return false, fmt.Errorf("start search for %s: %w", side, err)
		}
		g.handle = h
	}

	move, ok := coord.Poll(g.handle)
	if !ok {
		return false, nil
	}
	g.handle = nil

	if move.IsNull() {
		move = engine.RandomMove(g.legal)
		g.fallbacks++
		g.log.Warn().
			Str("side", side.String()).
			Str("move", move.String()).
			Msg("search returned no move, playing random fallback")
	}

	if err := g.advance(move); err != nil {
		return false, fmt.Errorf("apply engine move: %w", err)
	}

	g.log.Debug().
		Int("ply", g.pos.Ply()).
		Str("side", side.String()).
		Str("move", move.String()).
		Msg("move played")
	if g.Over() {
		g.log.Info().
			Str("result", g.result.Score()).
			Str("outcome", g.result.Outcome.String()).
			Int("plies", g.pos.Ply()).
			Msg("game over")
	}

	if g.opts.OnMove != nil {
		g.opts.OnMove(move)
	}
	return true, nil
}

// advance applies a move to the authoritative position and reclassifies.
func (g *Game) advance(m board.Move) error {
	if err := g.pos.Apply(m); err != nil {
		return err
	}
	g.moveLog = append(g.moveLog, m.String())
	g.legal = g.pos.Refresh()
	g.classify()
	return nil
}

// PlayLine plays moves given in SAN, such as an opening, before the engines
// take over. Any running search is cancelled. It stops at the first move
// that cannot be played; the moves before it stay on the board.
func (g *Game) PlayLine(sans ...string) error {
	g.cancelSearch()
	for _, s := range sans {
		if g.Over() {
			return fmt.Errorf("line move %s: %w", s, ErrGameOver)
		}
		m, err := board.ParseSAN(s, g.pos)
		if err != nil {
			return fmt.Errorf("line move %s: %w", s, err)
		}
		if err := g.advance(m); err != nil {
			return fmt.Errorf("line move %s: %w", s, err)
		}
	}
	return nil
}

// classify derives the result from the position after a refresh.
func (g *Game) classify() {
	p := g.pos
	switch {
	case p.Checkmate:
		g.result = Result{Outcome: Checkmate, Winner: p.SideToMove.Other()}
	case p.Stalemate:
		g.result = Result{Outcome: Stalemate, Winner: board.NoColor}
	case p.RepetitionCount() >= 3:
		g.result = Result{Outcome: ThreefoldRepetition, Winner: board.NoColor}
	case p.HalfMoveClock >= 100:
		g.result = Result{Outcome: FiftyMoveRule, Winner: board.NoColor}
	case p.IsInsufficientMaterial():
		g.result = Result{Outcome: InsufficientMaterial, Winner: board.NoColor}
	case g.opts.MaxPlies > 0 && p.Ply() >= g.opts.MaxPlies:
		g.result = Result{Outcome: PlyLimit, Winner: board.NoColor}
	default:
		g.result = Result{Outcome: Ongoing, Winner: board.NoColor}
	}
}

// cancelSearch abandons the in-flight search, if any.
func (g *Game) cancelSearch() {
	if g.handle == nil {
		return
	}
	g.coords[g.pos.SideToMove].Cancel(g.handle)
	g.handle = nil
}

// Undo cancels any running search and takes back the last move.
func (g *Game) Undo() error {
	g.cancelSearch()
	if err := g.pos.Reverse(); err != nil {
		return fmt.Errorf("undo: %w", err)
	}
	g.moveLog = g.moveLog[:len(g.moveLog)-1]
	g.legal = g.pos.Refresh()
	g.classify()
	return nil
}

// Reset cancels any running search and returns to the position the game
// started from.
func (g *Game) Reset() {
	g.cancelSearch()
	pos, err := board.ParseFEN(g.startFEN)
	if err != nil {
		// startFEN was produced by ToFEN from a valid position
		panic(err)
	}
	g.reset(pos)
}

// Play ticks the game until it ends or ctx is done. On cancellation the
// running search is abandoned and ctx's error is returned with the result
// so far.
func (g *Game) Play(ctx context.Context) (Result, error) {
	ticker := time.NewTicker(g.opts.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := g.Tick(); err != nil {
			g.cancelSearch()
			return g.result, err
		}
		if g.Over() {
			return g.result, nil
		}

		select {
		case <-ctx.Done():
			g.cancelSearch()
			return g.result, ctx.Err()
		case <-ticker.C:
		}
	}
}

// IsCancelled reports whether err came from a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
