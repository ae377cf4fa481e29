package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// CanCastle returns true if the given side still holds the right to castle
// in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	return cr&castleRight(c, kingSide) != 0
}

// swapColors exchanges white's rights with black's.
func (cr CastlingRights) swapColors() CastlingRights {
	return (cr&3)<<2 | (cr>>2)&3
}

func castleRight(c Color, kingSide bool) CastlingRights {
	right := WhiteKingSideCastle
	if !kingSide {
		right = WhiteQueenSideCastle
	}
	if c == Black {
		right <<= 2
	}
	return right
}

// castlingMask lists the rights lost when a piece leaves or lands on a square.
var castlingMask = func() (m [64]CastlingRights) {
	m[E1] = WhiteKingSideCastle | WhiteQueenSideCastle
	m[H1] = WhiteKingSideCastle
	m[A1] = WhiteQueenSideCastle
	m[E8] = BlackKingSideCastle | BlackQueenSideCastle
	m[H8] = BlackKingSideCastle
	m[A8] = BlackQueenSideCastle
	return m
}()

// UndoInfo is one history record: the move and the state it overwrote.
type UndoInfo struct {
	Move           Move
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
}

// Position is the authoritative board state. It is mutated in place by
// MakeMove/UnmakeMove (and the checked Apply/Reverse) and must not be shared
// between goroutines; hand workers a Copy instead.
type Position struct {
	squares [64]Piece

	// Game state
	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Target square for en passant, NoSquare if none
	HalfMoveClock  int    // Plies since last pawn move or capture (50-move rule)
	FullMoveNumber int    // Full move counter, starts at 1

	// Zobrist hash, maintained incrementally
	Hash uint64

	// King positions (cached for check detection)
	KingSquare [2]Square

	// Terminal flags, recomputed by Refresh
	Checkmate bool
	Stalemate bool

	history []UndoInfo
}

// NewPosition creates the standard starting position: white to move, all
// castling rights held, no en passant target, empty history.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// NewGame returns the starting position with its terminal flags computed.
func NewGame() *Position {
	pos := NewPosition()
	pos.Refresh()
	return pos
}

// newEmptyPosition returns a position with no pieces on the board.
func newEmptyPosition() *Position {
	p := &Position{}
	p.Clear()
	return p
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
		KingSquare:     [2]Square{NoSquare, NoSquare},
	}
	for sq := range p.squares {
		p.squares[sq] = NoPiece
	}
}

// Copy returns an independent value snapshot, history included.
func (p *Position) Copy() *Position {
	newPos := *p
	newPos.history = append([]UndoInfo(nil), p.history...)
	return &newPos
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	if sq >= NoSquare {
		return NoPiece
	}
	return p.squares[sq]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.squares[sq] == NoPiece
}

// Board returns a copy of the 64 squares, indexed by Square.
func (p *Position) Board() [64]Piece {
	return p.squares
}

// LastMove returns the most recently applied move, or NoMove.
func (p *Position) LastMove() Move {
	if len(p.history) == 0 {
		return NoMove
	}
	return p.history[len(p.history)-1].Move
}

// History returns the applied moves in order.
func (p *Position) History() []Move {
	moves := make([]Move, len(p.history))
	for i, u := range p.history {
		moves[i] = u.Move
	}
	return moves
}

// Ply returns the number of moves in the history.
func (p *Position) Ply() int {
	return len(p.history)
}

// putPiece places a piece on an empty square and updates the hash.
func (p *Position) putPiece(piece Piece, sq Square) {
	p.squares[sq] = piece
	p.Hash ^= zobristPiece[piece.Color()][piece.Type()][sq]
	if piece.Type() == King {
		p.KingSquare[piece.Color()] = sq
	}
}

// removePiece clears a square and updates the hash.
func (p *Position) removePiece(sq Square) Piece {
	piece := p.squares[sq]
	if piece == NoPiece {
		return NoPiece
	}
	p.squares[sq] = NoPiece
	p.Hash ^= zobristPiece[piece.Color()][piece.Type()][sq]
	return piece
}

// Refresh regenerates the legal moves for the side to move and updates the
// Checkmate and Stalemate flags from them.
func (p *Position) Refresh() []Move {
	moves := p.LegalMoves()
	inCheck := p.InCheck()
	p.Checkmate = len(moves) == 0 && inCheck
	p.Stalemate = len(moves) == 0 && !inCheck
	return moves
}

// RepetitionCount returns how many times the current position has occurred,
// including now. Only plies since the last irreversible move are scanned.
func (p *Position) RepetitionCount() int {
	count := 1
	n := len(p.history)
	limit := p.HalfMoveClock
	for i := 2; i <= limit && i <= n; i += 2 {
		if p.history[n-i].Hash == p.Hash {
			count++
		}
	}
	return count
}

// IsInsufficientMaterial returns true if neither side can checkmate.
func (p *Position) IsInsufficientMaterial() bool {
	var minors [2]int
	for _, pc := range p.squares {
		switch pc.Type() {
		case Pawn, Rook, Queen:
			return false
		case Knight, Bishop:
			minors[pc.Color()]++
		}
	}
	// K vs K, K+minor vs K
	return minors[White]+minors[Black] <= 1
}

// Mirror returns the position with colors swapped and ranks flipped: every
// piece changes color and moves to its mirrored square, castling rights and
// the side to move are exchanged. History is not carried over.
func (p *Position) Mirror() *Position {
	m := newEmptyPosition()
	for sq, pc := range p.squares {
		if pc != NoPiece {
			m.putPiece(pc.Flip(), Square(sq).Mirror())
		}
	}
	m.SideToMove = p.SideToMove.Other()
	m.CastlingRights = p.CastlingRights.swapColors()
	if p.EnPassant != NoSquare {
		m.EnPassant = p.EnPassant.Mirror()
	}
	m.HalfMoveClock = p.HalfMoveClock
	m.FullMoveNumber = p.FullMoveNumber
	m.Hash = m.ComputeHash()
	return m
}

// Validate checks the structural invariants of the position.
func (p *Position) Validate() error {
	var kings [2]int
	for sq, pc := range p.squares {
		if pc.Type() == King {
			kings[pc.Color()]++
		}
		if pc.Type() == Pawn && (Square(sq).Rank() == 0 || Square(sq).Rank() == 7) {
			return fmt.Errorf("pawn on back rank %s", Square(sq))
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return fmt.Errorf("need exactly one king per side, got white=%d black=%d", kings[White], kings[Black])
	}
	if p.IsSquareAttacked(p.KingSquare[p.SideToMove.Other()], p.SideToMove) {
		return fmt.Errorf("side not to move is in check")
	}
	return p.validateEnPassant()
}

// validateEnPassant checks that the en passant target sits behind a pawn
// that has just made a double push.
func (p *Position) validateEnPassant() error {
	ep := p.EnPassant
	if ep == NoSquare {
		return nil
	}
	them := p.SideToMove.Other()
	if ep.RelativeRank(p.SideToMove) != 5 {
		return fmt.Errorf("en passant square %s on the wrong rank", ep)
	}
	// The pushed pawn stands one rank past the target, its origin one before
	dir := 1
	if them == Black {
		dir = -1
	}
	pawnSq, _ := ep.Offset(0, dir)
	originSq, _ := ep.Offset(0, -dir)
	if !p.IsEmpty(ep) || !p.IsEmpty(originSq) {
		return fmt.Errorf("en passant square %s is not behind a double push", ep)
	}
	if p.squares[pawnSq] != NewPiece(Pawn, them) {
		return fmt.Errorf("en passant square %s has no %s pawn in front", ep, them)
	}
	return nil
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.squares[NewSquare(file, rank)]
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash)
	return sb.String()
}
