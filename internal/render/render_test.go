package render

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/hailam/chessduel/internal/board"
)

func setNoColor(t *testing.T, v bool) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = v
	t.Cleanup(func() { color.NoColor = prev })
}

func TestRenderStartPosition(t *testing.T) {
	setNoColor(t, true)

	var buf bytes.Buffer
	if err := Render(&buf, board.NewPosition()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	t.Log("\n" + buf.String())

	want := []string{
		" 8  r  n  b  q  k  b  n  r ",
		" 7  p  p  p  p  p  p  p  p ",
		" 6                         ",
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
	if lines[7] != " 1  R  N  B  Q  K  B  N  R " {
		t.Errorf("rank 1 = %q", lines[7])
	}
	if lines[8] != "    a  b  c  d  e  f  g  h " {
		t.Errorf("file labels = %q", lines[8])
	}
	if lines[9] != "White to move" {
		t.Errorf("status = %q", lines[9])
	}
}

func TestRenderStatusAfterCheck(t *testing.T) {
	setNoColor(t, true)

	pos, err := board.ParseFEN("4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	m, err := board.ParseMove("h1h8", pos)
	if err != nil {
		t.Fatal(err)
	}
	if err := pos.Apply(m); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, pos); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Black to move (check), last move Rh8+") {
		t.Errorf("unexpected status:\n%s", buf.String())
	}
}

func TestRenderHighlightsLastMove(t *testing.T) {
	setNoColor(t, false)

	pos := board.NewPosition()
	m, err := board.ParseMove("e2e4", pos)
	if err != nil {
		t.Fatal(err)
	}
	if err := pos.Apply(m); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, pos); err != nil {
		t.Fatal(err)
	}
	highlight := "\x1b[" + strconv.Itoa(int(DefaultTheme.Highlight)) + "m"
	if got := strings.Count(buf.String(), highlight); got != 1 {
		// e2 is empty (background only); e4 carries the pawn
		t.Errorf("found %d empty highlighted squares, want 1", got)
	}
	if !strings.Contains(buf.String(), ";"+strconv.Itoa(int(DefaultTheme.Highlight))+";") {
		t.Error("occupied highlighted square not found")
	}
}
