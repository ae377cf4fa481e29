package board

import (
	"sort"
	"strings"
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"lukechampine.com/frand"
)

func sortedStrings(moves []Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	sort.Strings(out)
	return out
}

func oracleStrings(b *dragontoothmg.Board) []string {
	moves := b.GenerateLegalMoves()
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	sort.Strings(out)
	return out
}

// TestCrossCheckRandomPlayouts compares the legal move sets with an
// independent bitboard generator along random games.
func TestCrossCheckRandomPlayouts(t *testing.T) {
	const (
		games    = 20
		maxPlies = 80
	)
	starts := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	}

	for _, fen := range starts {
		for g := 0; g < games; g++ {
			pos, err := ParseFEN(fen)
			if err != nil {
				t.Fatal(err)
			}
			oracle := dragontoothmg.ParseFen(fen)
			var line []string

			for ply := 0; ply < maxPlies; ply++ {
				ours := sortedStrings(pos.LegalMoves(WithUnderpromotions()))
				theirs := oracleStrings(&oracle)
				if strings.Join(ours, " ") != strings.Join(theirs, " ") {
					t.Fatalf("move sets differ after %v in %s\nours:   %v\noracle: %v",
						line, pos.ToFEN(), ours, theirs)
				}
				if len(ours) == 0 {
					break
				}

				pick := ours[frand.Intn(len(ours))]
				m, err := ParseMove(pick, pos)
				if err != nil {
					t.Fatal(err)
				}
				if err := pos.Apply(m); err != nil {
					t.Fatal(err)
				}
				for _, om := range oracle.GenerateLegalMoves() {
					if om.String() == pick {
						oracle.Apply(om)
						break
					}
				}
				line = append(line, pick)
			}
		}
	}
}
