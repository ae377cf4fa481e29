package engine

import (
	"slices"

	"github.com/hailam/chessduel/internal/board"
)

// Move ordering priorities
const (
	PreviousBestScore = 10000000 // Best move of the last iteration goes first
	CaptureBase       = 1000000  // Any capture ahead of every quiet move
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
// Score = victimValue * 10 - attackerValue
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11}, // Pawn victim
	/* N */ {25, 24, 24, 23, 22, 21}, // Knight victim
	/* B */ {35, 34, 34, 33, 32, 31}, // Bishop victim
	/* R */ {45, 44, 44, 43, 42, 41}, // Rook victim
	/* Q */ {55, 54, 54, 53, 52, 51}, // Queen victim
	/* K */ {0, 0, 0, 0, 0, 0}, // King can't be captured
}

// scoreMove returns the ordering key of m; quiet moves score zero.
func scoreMove(m, first board.Move) int {
	if m == first {
		return PreviousBestScore
	}
	if m.IsCapture() {
		return CaptureBase + mvvLva[m.Captured.Type()][m.Piece.Type()]
	}
	return 0
}

// orderMoves sorts moves in place: first (if present), then captures by
// MVV-LVA, then quiet moves. The sort is stable, so equal keys keep
// generation order.
func orderMoves(moves []board.Move, first board.Move) {
	slices.SortStableFunc(moves, func(a, b board.Move) int {
		return scoreMove(b, first) - scoreMove(a, first)
	})
}
