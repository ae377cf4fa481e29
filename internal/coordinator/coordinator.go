// Package coordinator runs engine searches off the caller's goroutine.
// The caller starts a search, polls for its result without blocking, and
// may cancel it; a cancelled search never delivers a move.
package coordinator

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessduel/internal/board"
	"github.com/hailam/chessduel/internal/engine"
)

// ErrSearchActive is returned by Start while another search is in progress.
var ErrSearchActive = errors.New("coordinator: search already active")

// Searcher picks a move for a position it owns for the call.
type Searcher interface {
	FindBestMove(ctx context.Context, pos *board.Position, legal []board.Move) (board.Move, engine.Info)
}

// result is what a worker hands back.
type result struct {
	move board.Move
	info engine.Info
}

// Handle identifies one search started by a Coordinator.
type Handle struct {
	gen    uint64
	result chan result // Buffered (cap 1), written once by the worker
	cancel context.CancelFunc

	// Guarded by the coordinator's mutex
	cancelled bool
	taken     bool
	info      engine.Info
}

// Gen returns the generation number of the search.
func (h *Handle) Gen() uint64 {
	return h.gen
}

// Coordinator owns at most one in-flight search.
type Coordinator struct {
	searcher Searcher
	log      zerolog.Logger

	mu     sync.Mutex
	gen    uint64
	active *Handle
}

// New creates a coordinator that runs searches with s.
func New(s Searcher, logger zerolog.Logger) *Coordinator {
	return &Coordinator{searcher: s, log: logger}
}

// Start launches a search on a snapshot of pos and legal, so the caller may
// keep mutating both. It returns ErrSearchActive if a search is already
// running and has been neither polled to completion nor cancelled.
func (c *Coordinator) Start(pos *board.Position, legal []board.Move) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return nil, ErrSearchActive
	}

	c.gen++
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		gen:    c.gen,
		result: make(chan result, 1),
		cancel: cancel,
	}
	c.active = h

	snap := pos.Copy()
	moves := slices.Clone(legal)
	side := snap.SideToMove

	c.log.Debug().
		Uint64("gen", h.gen).
		Str("side", side.String()).
		Int("legal", len(moves)).
		Msg("search started")

	go func() {
		start := time.Now()
		move, info := c.searcher.FindBestMove(ctx, snap, moves)
		c.log.Debug().
			Uint64("gen", h.gen).
			Str("move", move.String()).
			Dur("elapsed", time.Since(start)).
			Bool("cancelled", ctx.Err() != nil).
			Msg("search finished")
		h.result <- result{move: move, info: info} // Never blocks: cap 1, one send
	}()

	return h, nil
}

// Poll returns the search result if it is ready. It never blocks. The
// second value is false while the search is pending, after the result has
// already been taken, and always for a cancelled handle. The move may be
// NoMove if the search found none.
func (c *Coordinator) Poll(h *Handle) (board.Move, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h == nil || h.cancelled || h.taken {
		return board.NoMove, false
	}

	select {
	case r := <-h.result:
		c.finish(h, r)
		return r.move, true
	default:
		// Still thinking
		return board.NoMove, false
	}
}

// Wait blocks until the search delivers, ctx ends, or the handle is
// cancelled. Its result follows the same rules as Poll.
func (c *Coordinator) Wait(ctx context.Context, h *Handle) (board.Move, bool) {
	c.mu.Lock()
	done := h == nil || h.cancelled || h.taken
	c.mu.Unlock()
	if done {
		return board.NoMove, false
	}

	select {
	case r := <-h.result:
		c.mu.Lock()
		defer c.mu.Unlock()
		if h.cancelled || h.taken {
			return board.NoMove, false
		}
		c.finish(h, r)
		return r.move, true
	case <-ctx.Done():
		return board.NoMove, false
	}
}

// finish records a delivered result. Caller holds c.mu.
func (c *Coordinator) finish(h *Handle, r result) {
	h.taken = true
	h.info = r.info
	h.cancel()
	if c.active == h {
		c.active = nil
	}
	c.log.Debug().
		Uint64("gen", h.gen).
		Str("move", r.move.String()).
		Int("depth", r.info.Depth).
		Str("score", engine.ScoreToString(r.info.Score)).
		Int("cp", r.info.Score).
		Uint64("nodes", r.info.Nodes).
		Msg("search result taken")
}

// Cancel stops the search cooperatively and frees the coordinator for a new
// Start immediately. Whatever the worker still delivers is discarded. It
// is a no-op for a handle that is already finished or cancelled.
func (c *Coordinator) Cancel(h *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h == nil || h.cancelled || h.taken {
		return
	}
	h.cancelled = true
	h.cancel()
	if c.active == h {
		c.active = nil
	}
	c.log.Debug().Uint64("gen", h.gen).Msg("search cancelled")
}

// CancelActive cancels whatever search is in flight, if any.
func (c *Coordinator) CancelActive() {
	c.mu.Lock()
	h := c.active
	c.mu.Unlock()
	c.Cancel(h)
}

// Thinking reports whether a search is in flight.
func (c *Coordinator) Thinking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Info returns the search statistics of a handle whose result was taken.
func (c *Coordinator) Info(h *Handle) engine.Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return h.info
}
