package board

// genOptions configures move generation.
type genOptions struct {
	underpromotions bool
}

// GenOption adjusts what the generator emits.
type GenOption func(*genOptions)

// WithUnderpromotions makes the generator emit knight, bishop and rook
// promotions next to the default queen promotion.
func WithUnderpromotions() GenOption {
	return func(o *genOptions) {
		o.underpromotions = true
	}
}

// LegalMoves generates all legal moves for the side to move. Each
// pseudo-legal move is made, the mover's king is tested, and the move is
// unmade again, so the position is unchanged when LegalMoves returns.
// The order is deterministic: by origin square, then per-piece rules.
func (p *Position) LegalMoves(opts ...GenOption) []Move {
	us := p.SideToMove
	them := us.Other()

	moves := p.PseudoLegalMoves(opts...)
	legal := moves[:0]
	for _, m := range moves {
		p.MakeMove(m)
		if !p.IsSquareAttacked(p.KingSquare[us], them) {
			legal = append(legal, m)
		}
		p.UnmakeMove()
	}
	return legal
}

// HasLegalMoves returns true if the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	us := p.SideToMove
	for _, m := range p.PseudoLegalMoves() {
		p.MakeMove(m)
		attacked := p.IsSquareAttacked(p.KingSquare[us], us.Other())
		p.UnmakeMove()
		if !attacked {
			return true
		}
	}
	return false
}

// PseudoLegalMoves generates every move that follows the per-piece movement
// rules for the side to move. Moves may leave the mover's king attacked;
// castling is only emitted when the king does not start in, pass through,
// or land in check.
func (p *Position) PseudoLegalMoves(opts ...GenOption) []Move {
	var o genOptions
	for _, opt := range opts {
		opt(&o)
	}

	us := p.SideToMove
	moves := make([]Move, 0, 64)
	for sq := A1; sq <= H8; sq++ {
		piece := p.squares[sq]
		if piece == NoPiece || piece.Color() != us {
			continue
		}
		switch pt := piece.Type(); pt {
		case Pawn:
			moves = p.genPawnMoves(moves, sq, piece, o)
		case Knight:
			moves = p.genStepMoves(moves, sq, piece, knightOffsets[:])
		case King:
			moves = p.genStepMoves(moves, sq, piece, kingOffsets[:])
			moves = p.genCastlingMoves(moves, sq, piece)
		default:
			moves = p.genSlideMoves(moves, sq, piece, slideDirs(pt))
		}
	}
	return moves
}

// genStepMoves adds the single-step moves of knights and kings.
func (p *Position) genStepMoves(moves []Move, from Square, piece Piece, offsets [][2]int) []Move {
	for _, o := range offsets {
		to, ok := from.Offset(o[0], o[1])
		if !ok {
			continue
		}
		target := p.squares[to]
		if target != NoPiece && target.Color() == piece.Color() {
			continue
		}
		moves = append(moves, Move{From: from, To: to, Piece: piece, Captured: target, Promotion: NoPieceType})
	}
	return moves
}

// genSlideMoves walks each ray until it leaves the board, hits an own piece,
// or captures.
func (p *Position) genSlideMoves(moves []Move, from Square, piece Piece, dirs [][2]int) []Move {
	for _, d := range dirs {
		cur := from
		for {
			to, ok := cur.Offset(d[0], d[1])
			if !ok {
				break
			}
			target := p.squares[to]
			if target != NoPiece && target.Color() == piece.Color() {
				break
			}
			moves = append(moves, Move{From: from, To: to, Piece: piece, Captured: target, Promotion: NoPieceType})
			if target != NoPiece {
				break
			}
			cur = to
		}
	}
	return moves
}

// genPawnMoves adds pushes, double pushes from the start rank, diagonal
// captures, en passant and promotions for one pawn.
func (p *Position) genPawnMoves(moves []Move, from Square, piece Piece, o genOptions) []Move {
	us := piece.Color()
	dir := us.Forward()

	if to, ok := from.Offset(0, dir); ok && p.squares[to] == NoPiece {
		moves = addPawnMove(moves, from, to, piece, NoPiece, o)
		if from.RelativeRank(us) == 1 {
			if to2, ok := from.Offset(0, 2*dir); ok && p.squares[to2] == NoPiece {
				moves = append(moves, Move{From: from, To: to2, Piece: piece, Captured: NoPiece, Promotion: NoPieceType, Flags: FlagDoublePush})
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		to, ok := from.Offset(df, dir)
		if !ok {
			continue
		}
		target := p.squares[to]
		if target != NoPiece {
			if target.Color() != us {
				moves = addPawnMove(moves, from, to, piece, target, o)
			}
			continue
		}
		if to == p.EnPassant {
			// The pawn being taken sits beside us, not on the target square
			victim := p.squares[NewSquare(to.File(), from.Rank())]
			if victim == NewPiece(Pawn, us.Other()) {
				moves = append(moves, Move{From: from, To: to, Piece: piece, Captured: victim, Promotion: NoPieceType, Flags: FlagEnPassant})
			}
		}
	}
	return moves
}

// addPawnMove adds a pawn move, expanding it into promotions on the last rank.
func addPawnMove(moves []Move, from, to Square, piece, captured Piece, o genOptions) []Move {
	m := Move{From: from, To: to, Piece: piece, Captured: captured, Promotion: NoPieceType}
	if to.RelativeRank(piece.Color()) != 7 {
		return append(moves, m)
	}
	m.Promotion = Queen
	moves = append(moves, m)
	if o.underpromotions {
		for _, pt := range [3]PieceType{Rook, Bishop, Knight} {
			m.Promotion = pt
			moves = append(moves, m)
		}
	}
	return moves
}

// genCastlingMoves adds castling moves for a king on its home square.
func (p *Position) genCastlingMoves(moves []Move, from Square, king Piece) []Move {
	us := king.Color()
	them := us.Other()
	back := from.RelativeRank(us)
	if back != 0 || from.File() != 4 || p.CastlingRights&(castleRight(us, true)|castleRight(us, false)) == 0 {
		return moves
	}
	if p.IsSquareAttacked(from, them) {
		return moves
	}

	rook := NewPiece(Rook, us)
	rank := from.Rank()
	safe := func(files ...int) bool {
		for _, f := range files {
			if p.IsSquareAttacked(NewSquare(f, rank), them) {
				return false
			}
		}
		return true
	}
	empty := func(files ...int) bool {
		for _, f := range files {
			if p.squares[NewSquare(f, rank)] != NoPiece {
				return false
			}
		}
		return true
	}

	if p.CastlingRights.CanCastle(us, true) && p.squares[NewSquare(7, rank)] == rook &&
		empty(5, 6) && safe(5, 6) {
		moves = append(moves, Move{From: from, To: NewSquare(6, rank), Piece: king, Captured: NoPiece, Promotion: NoPieceType, Flags: FlagCastleKingSide})
	}
	if p.CastlingRights.CanCastle(us, false) && p.squares[NewSquare(0, rank)] == rook &&
		empty(1, 2, 3) && safe(2, 3) {
		moves = append(moves, Move{From: from, To: NewSquare(2, rank), Piece: king, Captured: NoPiece, Promotion: NoPieceType, Flags: FlagCastleQueenSide})
	}
	return moves
}

// Perft counts the leaf nodes of the legal move tree to the given depth,
// underpromotions included.
func (p *Position) Perft(depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := p.LegalMoves(WithUnderpromotions())
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		p.MakeMove(m)
		nodes += p.Perft(depth - 1)
		p.UnmakeMove()
	}
	return nodes
}
