package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/constraints"
	"lukechampine.com/frand"

	"github.com/hailam/chessduel/internal/board"
)

// Info contains information about a finished or interrupted search.
type Info struct {
	Move    board.Move
	Depth   int // Deepest completed iteration
	Score   int // Side to move's view, centipawns or mate score
	Nodes   uint64
	Elapsed time.Duration
}

// Config holds the tunable search parameters.
type Config struct {
	Depth              int  // Plies searched from the root
	IterativeDeepening bool // Search 1..Depth, best move of each iteration first
	Mobility           bool // Include the mobility term in the evaluation
}

// DefaultConfig returns the standard search configuration.
func DefaultConfig() Config {
	return DifficultySettings[Medium]
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 2 ply
	Medium                   // 3 ply
	Hard                     // 4 ply
)

// DifficultySettings maps difficulty to search configuration.
var DifficultySettings = map[Difficulty]Config{
	Easy:   {Depth: 2, IterativeDeepening: true, Mobility: true},
	Medium: {Depth: 3, IterativeDeepening: true, Mobility: true},
	Hard:   {Depth: 4, IterativeDeepening: true, Mobility: true},
}

// String returns the difficulty name.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return "difficulty(" + strconv.Itoa(int(d)) + ")"
}

// ParseDifficulty maps a name back to a Difficulty.
func ParseDifficulty(s string) (Difficulty, bool) {
	for d := Easy; d <= Hard; d++ {
		if d.String() == s {
			return d, true
		}
	}
	return Medium, false
}

// Engine is the chess AI engine. An Engine holds only configuration, so
// one value may serve several searches as long as each has its own Position.
type Engine struct {
	cfg Config
	log zerolog.Logger

	// Callbacks
	OnInfo func(Info)
}

// NewEngine creates a new chess engine. A depth below one is raised to one.
func NewEngine(cfg Config, logger zerolog.Logger) *Engine {
	if cfg.Depth < 1 {
		cfg.Depth = 1
	}
	return &Engine{cfg: cfg, log: logger}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetDifficulty replaces the configuration with a difficulty preset.
func (e *Engine) SetDifficulty(d Difficulty) {
	if cfg, ok := DifficultySettings[d]; ok {
		e.cfg = cfg
	}
}

// SetDepth changes the search depth, keeping the other settings.
func (e *Engine) SetDepth(depth int) {
	e.cfg.Depth = max(depth, 1)
}

// SetMobility toggles the mobility term of the evaluation.
func (e *Engine) SetMobility(on bool) {
	e.cfg.Mobility = on
}

// FindBestMove searches pos and returns the best of the given legal moves
// for the side to move. legal must be pos.LegalMoves() (or a subset of
// it); it is not modified. pos is used as scratch space and restored
// before return, so callers hand in a snapshot they own.
//
// NoMove is returned only when legal is empty, or when ctx is cancelled
// before the first iteration completes. After a cancellation the best move
// of the last completed iteration is returned.
func (e *Engine) FindBestMove(ctx context.Context, pos *board.Position, legal []board.Move) (board.Move, Info) {
	start := time.Now()
	info := Info{Move: board.NoMove}
	if len(legal) == 0 {
		return board.NoMove, info
	}

	s := newSearcher(ctx, pos, e.cfg.Mobility)

	minDepth := 1
	if !e.cfg.IterativeDeepening {
		minDepth = e.cfg.Depth
	}

	best := board.NoMove
	for depth := minDepth; depth <= e.cfg.Depth; depth++ {
		move, score, ok := s.searchRoot(legal, depth, best)
		if !ok {
			e.log.Debug().
				Int("depth", depth).
				Uint64("nodes", s.Nodes()).
				Msg("search interrupted")
			break
		}

		best = move
		info.Move = move
		info.Depth = depth
		info.Score = score
		info.Nodes = s.Nodes()
		info.Elapsed = time.Since(start)

		e.log.Debug().
			Int("depth", depth).
			Int("score", score).
			Uint64("nodes", info.Nodes).
			Str("move", move.String()).
			Msg("iteration complete")

		if e.OnInfo != nil {
			e.OnInfo(info)
		}

		// Early termination: found mate
		if abs(score) >= MateScore {
			break
		}
	}

	info.Nodes = s.Nodes()
	info.Elapsed = time.Since(start)
	return best, info
}

// RandomMove returns a uniformly random move from moves, or NoMove if
// there is none. The driver falls back on it when a search yields nothing.
func RandomMove(moves []board.Move) board.Move {
	if len(moves) == 0 {
		return board.NoMove
	}
	return moves[frand.Intn(len(moves))]
}

// Evaluate returns the static evaluation of a position with the engine's
// settings, from White's perspective.
func (e *Engine) Evaluate(pos *board.Position) int {
	return evaluate(pos, e.cfg.Mobility)
}

// IsMateScore reports whether score encodes a forced mate.
func IsMateScore(score int) bool {
	return abs(score) >= MateScore
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score >= MateScore {
		return "Mate"
	}
	if score <= -MateScore {
		return "Mated"
	}

	// Convert centipawns to pawns
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100

	cp := strconv.Itoa(centipawns)
	if centipawns < 10 {
		cp = "0" + cp
	}
	return sign + strconv.Itoa(pawns) + "." + cp
}

// abs returns the absolute value of a signed number.
func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
