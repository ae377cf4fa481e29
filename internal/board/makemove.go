package board

import "fmt"

// castlingRookSquares returns the rook's origin and destination for a
// castling move.
func castlingRookSquares(m Move) (from, to Square) {
	rank := m.From.Rank()
	if m.Flags&FlagCastleKingSide != 0 {
		return NewSquare(7, rank), NewSquare(5, rank)
	}
	return NewSquare(0, rank), NewSquare(3, rank)
}

// MakeMove applies m and pushes an undo record. It performs no validation:
// m must come from LegalMoves (or PseudoLegalMoves) of this exact position.
// Use Apply for moves from outside the engine.
func (p *Position) MakeMove(m Move) {
	us := p.SideToMove

	p.history = append(p.history, UndoInfo{
		Move:           m,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
	})

	p.Hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	if m.Captured != NoPiece {
		p.removePiece(m.CaptureSquare())
	}
	p.removePiece(m.From)
	if m.IsPromotion() {
		p.putPiece(NewPiece(m.Promotion, us), m.To)
	} else {
		p.putPiece(m.Piece, m.To)
	}

	if m.IsCastling() {
		rookFrom, rookTo := castlingRookSquares(m)
		p.putPiece(p.removePiece(rookFrom), rookTo)
	}

	// King or rook leaving its home square, or a rook captured on it
	p.CastlingRights &^= castlingMask[m.From] | castlingMask[m.To]
	p.Hash ^= zobristCastling[p.CastlingRights]

	if m.Flags&FlagDoublePush != 0 {
		p.EnPassant = NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}

	if m.Piece.Type() == Pawn || m.Captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = us.Other()
	p.Hash ^= zobristSideToMove
}

// UnmakeMove pops the last history record and restores the position it
// describes. It panics with ErrEmptyHistory if there is nothing to undo;
// use Reverse for the checked variant.
func (p *Position) UnmakeMove() {
	n := len(p.history)
	if n == 0 {
		panic(ErrEmptyHistory)
	}
	u := p.history[n-1]
	p.history = p.history[:n-1]
	m := u.Move
	us := m.Piece.Color()

	if m.IsCastling() {
		rookFrom, rookTo := castlingRookSquares(m)
		p.putPiece(p.removePiece(rookTo), rookFrom)
	}
	p.removePiece(m.To)
	p.putPiece(m.Piece, m.From)
	if m.Captured != NoPiece {
		p.putPiece(m.Captured, m.CaptureSquare())
	}

	if us == Black {
		p.FullMoveNumber--
	}
	p.SideToMove = us
	p.CastlingRights = u.CastlingRights
	p.EnPassant = u.EnPassant
	p.HalfMoveClock = u.HalfMoveClock
	p.Hash = u.Hash
}

// Apply validates m against the legal moves of the position (underpromotions
// included) and applies it. A move that was not generated here returns an
// error wrapping ErrIllegalMove and leaves the position untouched.
func (p *Position) Apply(m Move) error {
	for _, legal := range p.LegalMoves(WithUnderpromotions()) {
		if legal == m {
			p.MakeMove(m)
			p.Checkmate = false
			p.Stalemate = false
			return nil
		}
	}
	return fmt.Errorf("apply %s for %s: %w", m, p.SideToMove, ErrIllegalMove)
}

// Reverse undoes the most recent move. With an empty history it returns
// ErrEmptyHistory and changes nothing.
func (p *Position) Reverse() error {
	if len(p.history) == 0 {
		return ErrEmptyHistory
	}
	p.UnmakeMove()
	p.Checkmate = false
	p.Stalemate = false
	return nil
}
