package board

import (
	"testing"
)

func TestCheckmate(t *testing.T) {
	// Test position: Back rank mate - already checkmate
	// White: Ka1, Ra8
	// Black: Kh8, pawns on g7 and h7 blocking escape
	// Black is already in checkmate (Black to move)
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	t.Log("Checkmate position:")
	t.Log(pos)

	moves := pos.Refresh()
	t.Log("InCheck:", pos.InCheck())
	t.Log("Black legal moves:", len(moves))

	if !pos.Checkmate {
		t.Error("Expected checkmate but got false")
	}
	if pos.Stalemate {
		t.Error("Checkmate must not also be stalemate")
	}
}

func TestNotCheckmate(t *testing.T) {
	// Test position: King CAN escape - not checkmate
	// Black king on h8 in double check; the h1 rook covers h7 but the
	// king can take the unprotected rook on g8
	pos, err := ParseFEN("6Rk/8/8/8/8/8/8/K6R b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	moves := pos.Refresh()
	t.Log("InCheck:", pos.InCheck())
	for _, m := range moves {
		t.Log("  Move:", m)
	}

	if pos.Checkmate {
		t.Error("Expected NOT checkmate but got true")
	}
	if len(moves) != 1 || moves[0].String() != "h8g8" {
		t.Errorf("Expected only h8g8, got %v", moves)
	}
}

func TestFoolsMate(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		m, err := ParseMove(s, pos)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", s, err)
		}
		if err := pos.Apply(m); err != nil {
			t.Fatalf("Apply(%s): %v", s, err)
		}
	}

	moves := pos.Refresh()
	if len(moves) != 0 {
		t.Errorf("Expected no legal moves, got %d", len(moves))
	}
	if !pos.Checkmate {
		t.Error("Expected white to be checkmated")
	}
	if pos.SideToMove != White {
		t.Errorf("Expected white to move, got %s", pos.SideToMove)
	}
}

func TestStalemate(t *testing.T) {
	// Black king on a8 boxed in by the queen on b6, not in check
	pos, err := ParseFEN("k7/8/1Q6/8/8/8/8/7K b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	moves := pos.Refresh()
	if len(moves) != 0 {
		t.Errorf("Expected no legal moves, got %v", moves)
	}
	if !pos.Stalemate {
		t.Error("Expected stalemate")
	}
	if pos.Checkmate {
		t.Error("Stalemate must not be checkmate")
	}
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want bool
	}{
		{"k7/8/8/8/8/8/8/7K w - - 0 1", true},
		{"k7/8/8/8/8/8/8/6NK w - - 0 1", true},
		{"k7/8/8/8/8/8/8/5BNK w - - 0 1", false},
		{"k7/8/8/8/8/8/P7/7K w - - 0 1", false},
		{"k7/8/8/8/8/8/8/6RK w - - 0 1", false},
	}

	for _, tc := range tests {
		pos, err := ParseFEN(tc.fen)
		if err != nil {
			t.Fatalf("ParseFEN(%s): %v", tc.fen, err)
		}
		if got := pos.IsInsufficientMaterial(); got != tc.want {
			t.Errorf("IsInsufficientMaterial(%s) = %v, want %v", tc.fen, got, tc.want)
		}
	}
}
