package engine

import (
	"context"
	"slices"

	"github.com/hailam/chessduel/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Searcher performs one alpha-beta search over a position it owns for the
// duration of the call. It is not safe for concurrent use.
type Searcher struct {
	pos      *board.Position
	done     <-chan struct{}
	mobility bool
	nodes    uint64
	stopped  bool
}

// newSearcher prepares a searcher bound to ctx.
func newSearcher(ctx context.Context, pos *board.Position, mobility bool) *Searcher {
	return &Searcher{
		pos:      pos,
		done:     ctx.Done(),
		mobility: mobility,
	}
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// checkStop polls the context without blocking.
func (s *Searcher) checkStop() bool {
	if s.stopped {
		return true
	}
	select {
	case <-s.done:
		s.stopped = true
	default:
	}
	return s.stopped
}

// searchRoot searches every root move to the given depth and returns the
// best one. Ties keep the first move in search order. ok is false if the
// search was stopped before all root moves were scored.
func (s *Searcher) searchRoot(legal []board.Move, depth int, first board.Move) (best board.Move, bestScore int, ok bool) {
	moves := slices.Clone(legal)
	orderMoves(moves, first)

	alpha, beta := -Infinity, Infinity
	best, bestScore = board.NoMove, -Infinity

	for _, m := range moves {
		s.pos.MakeMove(m)
		score := -s.negamax(depth-1, -beta, -alpha)
		s.pos.UnmakeMove()

		if s.checkStop() {
			return best, bestScore, false
		}
		if score > bestScore {
			best, bestScore = m, score
		}
		if score > alpha {
			alpha = score
		}
	}
	return best, bestScore, true
}

// negamax returns the score of the position from the side to move's view.
// Mates score -(MateScore + depth) so that mates found with more depth left,
// i.e. sooner, are preferred by the winning side.
func (s *Searcher) negamax(depth, alpha, beta int) int {
	s.nodes++
	if s.checkStop() {
		return 0
	}

	if depth <= 0 {
		if !s.pos.HasLegalMoves() {
			return s.terminalScore(depth)
		}
		return sideRelative(s.pos, evaluate(s.pos, s.mobility))
	}

	moves := s.pos.LegalMoves()
	if len(moves) == 0 {
		return s.terminalScore(depth)
	}
	orderMoves(moves, board.NoMove)

	for _, m := range moves {
		s.pos.MakeMove(m)
		score := -s.negamax(depth-1, -beta, -alpha)
		s.pos.UnmakeMove()

		if s.stopped {
			return 0
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break // Beta cutoff
		}
	}
	return alpha
}

// terminalScore scores a position with no legal moves.
func (s *Searcher) terminalScore(depth int) int {
	if s.pos.InCheck() {
		return -(MateScore + depth)
	}
	return 0
}
