// Package uci exposes the engine over the Universal Chess Interface so that
// a single chessduel player can be driven by an external GUI or match
// runner.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessduel/internal/board"
	"github.com/hailam/chessduel/internal/coordinator"
	"github.com/hailam/chessduel/internal/engine"
)

// maxDepth caps the depth accepted from "go depth" and "setoption".
const maxDepth = 10

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	coord    *coordinator.Coordinator
	position *board.Position
	depth    int // Default depth for "go" without a depth

	in  io.Reader
	out io.Writer
	log zerolog.Logger

	outMu sync.Mutex

	// Search state
	mu         sync.Mutex
	handle     *coordinator.Handle
	searchDone chan struct{}
	lastInfo   engine.Info
}

// New creates a new UCI protocol handler reading commands from in and
// writing responses to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer, logger zerolog.Logger) *UCI {
	u := &UCI{
		engine:   eng,
		position: board.NewPosition(),
		depth:    eng.Config().Depth,
		in:       in,
		out:      out,
		log:      logger,
	}
	u.coord = coordinator.New(eng, logger)
	eng.OnInfo = u.sendInfo
	return u
}

// Run processes commands until "quit" or the end of input. At end of input
// a running search is allowed to finish and report its move.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.send("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.send("%s", u.position.String())
			u.send("Fen: %s", u.position.ToFEN())
		case "perft":
			u.handlePerft(args)
		default:
			u.log.Debug().Str("cmd", cmd).Msg("unknown command")
		}
	}

	u.waitSearch()
	return scanner.Err()
}

// send writes one response line.
func (u *UCI) send(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.send("id name ChessDuel")
	u.send("id author ChessDuel Team")
	u.send("")
	u.send("option name Depth type spin default %d min 1 max %d", u.depth, maxDepth)
	u.send("option name Difficulty type combo default %s var %s var %s var %s",
		engine.Medium, engine.Easy, engine.Medium, engine.Hard)
	u.send("option name Mobility type check default %t", u.engine.Config().Mobility)
	u.send("uciok")
}

// handleNewGame resets the position for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.position = board.NewGame()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	u.handleStop()

	// Find "moves" keyword
	setupEnd, moveStart := len(args), len(args)
	for i, arg := range args {
		if arg == "moves" {
			setupEnd, moveStart = i, i+1
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:setupEnd], " "))
		if err != nil {
			u.send("info string Invalid FEN: %v", err)
			u.log.Warn().Err(err).Msg("invalid fen")
			return
		}
	default:
		return
	}

	// Moves are applied through the checked path so the history carries
	// the hashes needed for repetition detection.
	for _, moveStr := range args[moveStart:] {
		move, err := board.ParseMove(moveStr, pos)
		if err == nil {
			err = pos.Apply(move)
		}
		if err != nil {
			u.send("info string Invalid move: %s", moveStr)
			u.log.Warn().Err(err).Str("move", moveStr).Msg("invalid move in position command")
			return
		}
	}
	u.position = pos
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth int
}

// parseGoOptions parses "go" command arguments. Clock-based options are
// not supported and are ignored.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}

	return opts
}

// handleGo starts a search in the background and prints "bestmove" when it
// completes or is stopped.
func (u *UCI) handleGo(args []string) {
	u.handleStop()

	opts := parseGoOptions(args)
	depth := u.depth
	if opts.Depth > 0 {
		depth = min(opts.Depth, maxDepth)
	}
	u.engine.SetDepth(depth)

	u.mu.Lock()
	u.lastInfo = engine.Info{Move: board.NoMove}
	u.mu.Unlock()

	legal := u.position.LegalMoves()
	h, err := u.coord.Start(u.position, legal)
	if err != nil {
		u.log.Error().Err(err).Msg("start search")
		return
	}

	done := make(chan struct{})
	u.mu.Lock()
	u.handle = h
	u.searchDone = done
	u.mu.Unlock()

	go func() {
		defer close(done)

		move, ok := u.coord.Wait(context.Background(), h)
		if !ok {
			// Stopped: report the last completed iteration
			u.mu.Lock()
			move = u.lastInfo.Move
			u.mu.Unlock()
		}
		if move.IsNull() && len(legal) > 0 {
			move = legal[0]
			u.log.Warn().Str("move", move.String()).Msg("search returned no move, using fallback")
		}

		if move.IsNull() {
			// Only checkmate or stalemate leaves no move to send
			u.send("bestmove 0000")
			return
		}
		u.send("bestmove %s", move.String())
	}()
}

// waitSearch blocks until the background search goroutine has reported.
func (u *UCI) waitSearch() {
	u.mu.Lock()
	done := u.searchDone
	u.mu.Unlock()
	if done != nil {
		<-done
	}
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.Info) {
	u.mu.Lock()
	u.lastInfo = info
	u.mu.Unlock()

	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		scoreField(info),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Elapsed.Milliseconds()),
	}
	if info.Elapsed > 0 {
		nps := uint64(float64(info.Nodes) / info.Elapsed.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if !info.Move.IsNull() {
		parts = append(parts, "pv "+info.Move.String())
	}

	u.send("info %s", strings.Join(parts, " "))
}

// scoreField formats the score, converting mate scores to full moves.
func scoreField(info engine.Info) string {
	if !engine.IsMateScore(info.Score) {
		return fmt.Sprintf("score cp %d", info.Score)
	}
	margin := info.Score - engine.MateScore
	if info.Score < 0 {
		margin = -info.Score - engine.MateScore
	}
	plies := info.Depth - margin
	mateIn := (plies + 1) / 2
	if info.Score < 0 {
		mateIn = -mateIn
	}
	return fmt.Sprintf("score mate %d", mateIn)
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	u.mu.Lock()
	h := u.handle
	u.handle = nil
	u.mu.Unlock()

	if h != nil {
		u.coord.Cancel(h)
	}
	u.waitSearch()
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	// The engine configuration is read by the worker, so never change it
	// mid-search.
	u.handleStop()

	switch strings.ToLower(name) {
	case "depth":
		depth, err := strconv.Atoi(value)
		if err != nil || depth < 1 || depth > maxDepth {
			u.send("info string Invalid depth: %s", value)
			return
		}
		u.depth = depth
		u.engine.SetDepth(depth)
	case "difficulty":
		d, ok := engine.ParseDifficulty(strings.ToLower(value))
		if !ok {
			u.send("info string Unknown difficulty: %s", value)
			return
		}
		u.engine.SetDifficulty(d)
		u.depth = u.engine.Config().Depth
	case "mobility":
		u.engine.SetMobility(strings.ToLower(value) == "true")
	default:
		u.log.Debug().Str("name", name).Msg("unknown option")
	}
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := u.position.Perft(depth)
	elapsed := time.Since(start)

	u.send("Nodes: %d", nodes)
	u.send("Time: %v", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		u.send("NPS: %.0f", nps)
	}
}
