// Package engine implements the chess AI search engine.
package engine

import (
	"github.com/hailam/chessduel/internal/board"
)

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

// Piece values array for quick lookup
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// Mobility weights per piece type, applied to the number of reachable squares
var mobilityWeight = [6]int{0, 4, 5, 2, 1, 0} // Pawn, Knight, Bishop, Rook, Queen, King

// Game phase contributions; 24 is the full opening material
var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

const maxPhase = 24

// Piece-Square Tables (PST) for positional evaluation.
// Laid out as printed from White's side: the first row is rank 8.
// A white piece on sq reads index sq^56, a black piece reads index sq.

// Pawn PST - encourages central control and advancement
var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

// Knight PST - encourages central positioning
var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

// Bishop PST - encourages central diagonals
var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

// Rook PST - encourages 7th rank and open files
var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

// Queen PST - slight central preference
var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

// King PST (middlegame) - encourages castling
var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

// King PST (endgame) - king should be active
var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

// All PSTs combined for easy lookup; the king is tapered separately
var psts = [...][64]int{
	pawnPST, knightPST, bishopPST, rookPST, queenPST,
}

// Step and ray tables for mobility, as (file, rank) deltas
var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	diagonals   = [4][2]int{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
	orthogonals = [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
)

// Evaluate returns the static evaluation of the position from White's
// perspective: material, piece-square tables and mobility.
// Evaluate(pos.Mirror()) == -Evaluate(pos).
func Evaluate(pos *board.Position) int {
	return evaluate(pos, true)
}

// evaluate is Evaluate with the mobility term optional.
func evaluate(pos *board.Position, mobility bool) int {
	squares := pos.Board()

	var score, kingMg, kingEg, phase int
	for i, pc := range squares {
		if pc == board.NoPiece {
			continue
		}
		sq := board.Square(i)
		pt := pc.Type()

		sign := 1
		pstSq := sq.Mirror()
		if pc.Color() == board.Black {
			sign = -1
			pstSq = sq
		}

		score += sign * pieceValues[pt]
		phase += phaseWeight[pt]

		if pt == board.King {
			kingMg += sign * kingMidgamePST[pstSq]
			kingEg += sign * kingEndgamePST[pstSq]
			continue
		}
		score += sign * psts[pt][pstSq]

		if mobility && mobilityWeight[pt] != 0 {
			score += sign * mobilityWeight[pt] * countMobility(&squares, sq, pc)
		}
	}

	// Tapered king placement
	phase = min(phase, maxPhase)
	score += (kingMg*phase + kingEg*(maxPhase-phase)) / maxPhase

	return score
}

// EvaluateMaterial returns only the material balance, White's perspective.
func EvaluateMaterial(pos *board.Position) int {
	var score int
	for _, pc := range pos.Board() {
		if pc == board.NoPiece {
			continue
		}
		if pc.Color() == board.White {
			score += pieceValues[pc.Type()]
		} else {
			score -= pieceValues[pc.Type()]
		}
	}
	return score
}

// countMobility counts the squares a knight or slider on sq could move to:
// empty squares and enemy-occupied squares, ignoring pins.
func countMobility(squares *[64]board.Piece, sq board.Square, pc board.Piece) int {
	count := 0
	reachable := func(to board.Square) bool {
		target := squares[to]
		if target == board.NoPiece {
			count++
			return true
		}
		if target.Color() != pc.Color() {
			count++
		}
		return false
	}

	switch pc.Type() {
	case board.Knight:
		for _, o := range knightSteps {
			if to, ok := sq.Offset(o[0], o[1]); ok {
				reachable(to)
			}
		}
		return count
	case board.Bishop:
		walkRays(sq, diagonals[:], reachable)
	case board.Rook:
		walkRays(sq, orthogonals[:], reachable)
	case board.Queen:
		walkRays(sq, diagonals[:], reachable)
		walkRays(sq, orthogonals[:], reachable)
	}
	return count
}

// walkRays follows each direction until visit returns false or the edge.
func walkRays(sq board.Square, dirs [][2]int, visit func(board.Square) bool) {
	for _, d := range dirs {
		cur := sq
		for {
			next, ok := cur.Offset(d[0], d[1])
			if !ok || !visit(next) {
				break
			}
			cur = next
		}
	}
}

// sideRelative converts a White-perspective score to the side to move.
func sideRelative(pos *board.Position, score int) int {
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}
