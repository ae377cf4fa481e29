package board

import (
	"errors"
	"testing"
)

func TestSAN(t *testing.T) {
	tests := []struct {
		fen  string
		move string
		want string
	}{
		{StartFEN, "e2e4", "e4"},
		{StartFEN, "g1f3", "Nf3"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", "O-O-O"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "h1h8", "Rxh8+"},
		{"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3", "e5f6", "exf6"},
		{"8/P6k/8/8/8/8/8/K7 w - - 0 1", "a7a8q", "a8=Q"},
		{"8/P6k/8/8/8/8/8/K7 w - - 0 1", "a7a8n", "a8=N"},
		// Two knights reach d2: the file tells them apart
		{"k7/8/8/8/8/8/8/1N2KN2 w - - 0 1", "b1d2", "Nbd2"},
		// Two rooks on the a-file: the rank tells them apart
		{"7k/8/8/R7/8/8/8/R3K3 w - - 0 1", "a1a3", "R1a3"},
		{"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "a1a8", "Ra8#"},
	}

	for _, tc := range tests {
		pos, err := ParseFEN(tc.fen)
		if err != nil {
			t.Fatalf("ParseFEN(%s): %v", tc.fen, err)
		}
		m, err := ParseMove(tc.move, pos)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", tc.move, err)
		}
		before := pos.ToFEN()
		if got := m.SAN(pos); got != tc.want {
			t.Errorf("%s in %s: SAN = %s, want %s", tc.move, tc.fen, got, tc.want)
		}
		if pos.ToFEN() != before {
			t.Errorf("SAN changed the position")
		}

		parsed, err := ParseSAN(tc.want, pos)
		if err != nil {
			t.Errorf("ParseSAN(%s): %v", tc.want, err)
		} else if parsed != m {
			t.Errorf("ParseSAN(%s) = %s, want %s", tc.want, parsed, m)
		}
	}
}

func TestParseSANRejectsIllegal(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"e5", "Nd4", "O-O", "Kxe2", "xx"} {
		if _, err := ParseSAN(s, pos); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("ParseSAN(%s) error = %v, want ErrIllegalMove", s, err)
		}
	}
}

func TestMovesToSAN(t *testing.T) {
	pos := NewPosition()
	var line []Move
	p := pos.Copy()
	for _, s := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"} {
		m, err := ParseMove(s, p)
		if err != nil {
			t.Fatal(err)
		}
		line = append(line, m)
		p.MakeMove(m)
	}

	got := MovesToSAN(pos, line)
	want := []string{"e4", "e5", "Nf3", "Nc6", "Bb5"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MovesToSAN[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if pos.Ply() != 0 {
		t.Errorf("MovesToSAN modified the starting position")
	}
}
