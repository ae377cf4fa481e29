package board

import (
	"fmt"
	"strings"
)

// SAN converts a move to Standard Algebraic Notation. pos must be the
// position the move was generated from; it is left unchanged.
func (m Move) SAN(pos *Position) string {
	if m.IsNull() {
		return "-"
	}

	var sb strings.Builder

	switch {
	case m.Flags&FlagCastleKingSide != 0:
		sb.WriteString("O-O")
	case m.Flags&FlagCastleQueenSide != 0:
		sb.WriteString("O-O-O")
	default:
		pt := m.Piece.Type()
		if pt != Pawn {
			sb.WriteByte("PNBRQK"[pt])
			sb.WriteString(disambiguation(pos, m))
		}
		if m.IsCapture() {
			if pt == Pawn {
				// Pawn captures include the file of origin
				sb.WriteByte('a' + byte(m.From.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Promotion])
		}
	}

	// Check/checkmate marker
	pos.MakeMove(m)
	if pos.InCheck() {
		if pos.HasLegalMoves() {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	pos.UnmakeMove()

	return sb.String()
}

// disambiguation returns the origin file, rank or square needed to tell m
// apart from other moves of the same piece kind to the same square.
func disambiguation(pos *Position, m Move) string {
	var candidates []Square
	for _, other := range pos.LegalMoves() {
		if other.To == m.To && other.From != m.From && other.Piece == m.Piece {
			candidates = append(candidates, other.From)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range candidates {
		if sq.File() == m.From.File() {
			sameFile = true
		}
		if sq.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	if !sameFile {
		return string(rune('a' + m.From.File()))
	}
	if !sameRank {
		return string(rune('1' + m.From.Rank()))
	}
	return m.From.String()
}

// ParseSAN resolves a SAN string against the legal moves of pos.
func ParseSAN(s string, pos *Position) (Move, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "+#!?")

	legal := pos.LegalMoves(WithUnderpromotions())

	if s == "O-O" || s == "0-0" || s == "O-O-O" || s == "0-0-0" {
		flag := FlagCastleKingSide
		if len(s) == 5 {
			flag = FlagCastleQueenSide
		}
		for _, m := range legal {
			if m.Flags&flag != 0 {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("%s: %w", s, ErrIllegalMove)
	}

	promo := NoPieceType
	if idx := strings.IndexByte(s, '='); idx >= 0 && idx+1 < len(s) {
		promo = pieceTypeFromSAN(s[idx+1])
		s = s[:idx]
	}

	isCapture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		pt = pieceTypeFromSAN(s[0])
		if pt == NoPieceType {
			return NoMove, fmt.Errorf("%s: unknown piece: %w", s, ErrIllegalMove)
		}
		s = s[1:]
	}

	if len(s) < 2 {
		return NoMove, fmt.Errorf("%s: missing destination: %w", s, ErrIllegalMove)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}

	fileHint, rankHint := -1, -1
	for _, c := range s[:len(s)-2] {
		switch {
		case c >= 'a' && c <= 'h':
			fileHint = int(c - 'a')
		case c >= '1' && c <= '8':
			rankHint = int(c - '1')
		}
	}

	for _, m := range legal {
		if m.To != dest || m.Piece.Type() != pt || m.IsCastling() {
			continue
		}
		if fileHint >= 0 && m.From.File() != fileHint {
			continue
		}
		if rankHint >= 0 && m.From.Rank() != rankHint {
			continue
		}
		if isCapture != m.IsCapture() {
			continue
		}
		if m.IsPromotion() && m.Promotion != promo && !(promo == NoPieceType && m.Promotion == Queen) {
			continue
		}
		return m, nil
	}

	return NoMove, fmt.Errorf("%s: %w", s, ErrIllegalMove)
}

func pieceTypeFromSAN(c byte) PieceType {
	switch c {
	case 'N':
		return Knight
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'Q':
		return Queen
	case 'K':
		return King
	}
	return NoPieceType
}

// MovesToSAN converts a line of moves played from pos to SAN.
func MovesToSAN(pos *Position, moves []Move) []string {
	result := make([]string, len(moves))
	p := pos.Copy()

	for i, m := range moves {
		result[i] = m.SAN(p)
		p.MakeMove(m)
	}

	return result
}
