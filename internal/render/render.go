// Package render draws positions for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/hailam/chessduel/internal/board"
)

// Theme holds the colors used to draw a board.
type Theme struct {
	SquareLight color.Attribute
	SquareDark  color.Attribute
	Highlight   color.Attribute // Squares of the last move
	White       color.Attribute
	Black       color.Attribute
	Rank        color.Attribute // Rank and file labels
}

// DefaultTheme works on both light and dark terminals.
var DefaultTheme = Theme{
	SquareLight: color.BgHiBlack,
	SquareDark:  color.BgBlack,
	Highlight:   color.BgGreen,
	White:       color.FgHiWhite,
	Black:       color.FgHiRed,
	Rank:        color.FgCyan,
}

// Render draws pos with the default theme.
func Render(w io.Writer, pos *board.Position) error {
	return DefaultTheme.Render(w, pos)
}

// Render draws pos from White's side, highlighting the last move, followed
// by a status line.
func (t Theme) Render(w io.Writer, pos *board.Position) error {
	last := pos.LastMove()
	label := color.New(t.Rank)

	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteString(label.Sprintf(" %d ", rank+1))
		for file := 0; file < 8; file++ {
			sq := board.NewSquare(file, rank)
			sb.WriteString(t.square(sq, pos.PieceAt(sq), last))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   ")
	for file := 0; file < 8; file++ {
		sb.WriteString(label.Sprintf(" %c ", 'a'+file))
	}
	sb.WriteByte('\n')
	sb.WriteString(status(pos, last))
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())
	return err
}

// square draws one square three columns wide.
func (t Theme) square(sq board.Square, p board.Piece, last board.Move) string {
	bg := t.SquareLight
	if (sq.File()+sq.Rank())%2 == 0 {
		bg = t.SquareDark
	}
	if !last.IsNull() && (sq == last.From || sq == last.To) {
		bg = t.Highlight
	}

	if p == board.NoPiece {
		return color.New(bg).Sprint("   ")
	}
	fg := t.White
	if p.Color() == board.Black {
		fg = t.Black
	}
	return color.New(fg, bg, color.Bold).Sprintf(" %s ", p)
}

func status(pos *board.Position, last board.Move) string {
	s := fmt.Sprintf("%s to move", pos.SideToMove)
	if pos.InCheck() {
		s += " (check)"
	}
	if !last.IsNull() {
		prev := pos.Copy()
		prev.UnmakeMove()
		s += fmt.Sprintf(", last move %s", last.SAN(prev))
	}
	return s
}
