package board

// Step tables as (file, rank) deltas.
var (
	knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
	bishopDirs    = [4][2]int{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
	rookDirs      = [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	queenDirs     = [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
)

// slideDirs returns the ray directions of a sliding piece type.
func slideDirs(pt PieceType) [][2]int {
	switch pt {
	case Bishop:
		return bishopDirs[:]
	case Rook:
		return rookDirs[:]
	case Queen:
		return queenDirs[:]
	}
	return nil
}

// IsSquareAttacked reports whether any piece of color by attacks sq,
// regardless of whose turn it is or whether the attacker is pinned.
// Pawns attack diagonally forward even onto empty squares.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	if sq >= NoSquare {
		return false
	}

	// A pawn of color by attacks sq from one rank behind it
	for _, df := range [2]int{-1, 1} {
		if from, ok := sq.Offset(df, -by.Forward()); ok && p.squares[from] == NewPiece(Pawn, by) {
			return true
		}
	}

	knight := NewPiece(Knight, by)
	for _, o := range knightOffsets {
		if from, ok := sq.Offset(o[0], o[1]); ok && p.squares[from] == knight {
			return true
		}
	}

	king := NewPiece(King, by)
	for _, o := range kingOffsets {
		if from, ok := sq.Offset(o[0], o[1]); ok && p.squares[from] == king {
			return true
		}
	}

	queen := NewPiece(Queen, by)
	if p.rayHits(sq, bishopDirs[:], NewPiece(Bishop, by), queen) {
		return true
	}
	return p.rayHits(sq, rookDirs[:], NewPiece(Rook, by), queen)
}

// rayHits walks each direction from sq and reports whether the first
// occupied square holds one of the two given pieces.
func (p *Position) rayHits(sq Square, dirs [][2]int, a, b Piece) bool {
	for _, d := range dirs {
		cur := sq
		for {
			next, ok := cur.Offset(d[0], d[1])
			if !ok {
				break
			}
			pc := p.squares[next]
			if pc != NoPiece {
				if pc == a || pc == b {
					return true
				}
				break
			}
			cur = next
		}
	}
	return false
}

// InCheck returns true if the side to move has its king attacked.
func (p *Position) InCheck() bool {
	return p.IsSquareAttacked(p.KingSquare[p.SideToMove], p.SideToMove.Other())
}
