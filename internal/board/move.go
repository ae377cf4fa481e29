package board

import "fmt"

// MoveFlag marks the special-move cases a Move can carry.
type MoveFlag uint8

const (
	FlagEnPassant MoveFlag = 1 << iota
	FlagCastleKingSide
	FlagCastleQueenSide
	FlagDoublePush
	FlagNone MoveFlag = 0
)

// Move describes one ply. It records the moving and captured piece so that
// a move can be reversed without consulting the board, which makes it
// meaningful only against the position that generated it.
// Moves are comparable with ==.
type Move struct {
	From      Square
	To        Square
	Piece     Piece     // piece that moves
	Captured  Piece     // NoPiece for quiet moves
	Promotion PieceType // NoPieceType unless this is a promotion
	Flags     MoveFlag
}

// NoMove represents the absence of a move.
var NoMove = Move{
	From:      NoSquare,
	To:        NoSquare,
	Piece:     NoPiece,
	Captured:  NoPiece,
	Promotion: NoPieceType,
}

// IsNull reports whether m is NoMove.
func (m Move) IsNull() bool {
	return m == NoMove
}

// IsCapture returns true if this move removes an enemy piece.
func (m Move) IsCapture() bool {
	return m.Captured != NoPiece
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.Promotion != NoPieceType
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flags&FlagEnPassant != 0
}

// IsCastling returns true for either castling move.
func (m Move) IsCastling() bool {
	return m.Flags&(FlagCastleKingSide|FlagCastleQueenSide) != 0
}

// CaptureSquare returns where the captured piece stands. For en passant
// that is the square behind the destination, on the mover's origin rank.
func (m Move) CaptureSquare() Square {
	if m.IsEnPassant() {
		return NewSquare(m.To.File(), m.From.Rank())
	}
	return m.To
}

// String returns the long-form notation of the move: origin and
// destination squares, plus the promotion letter ("e2e4", "e7e8q").
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += string(m.Promotion.Char())
	}
	return s
}

// ParseMove resolves a long-form move string against the legal moves of pos.
// Underpromotions are accepted.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("invalid move string %q: %w", s, ErrIllegalMove)
	}
	for _, m := range pos.LegalMoves(WithUnderpromotions()) {
		if m.String() == s {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%s: %w", s, ErrIllegalMove)
}
