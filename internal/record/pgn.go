// Package record renders finished games as PGN.
package record

import (
	"fmt"
	"strconv"
	"time"

	"github.com/notnil/chess"

	"github.com/hailam/chessduel/internal/board"
	"github.com/hailam/chessduel/internal/game"
)

// Tags are the PGN header values. Empty fields get the PGN "?" placeholder.
type Tags struct {
	Event string
	Site  string
	Date  time.Time
	Round int
	White string
	Black string
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

// tagPairs builds the seven-tag roster plus FEN tags for a non-standard start.
func (t Tags) tagPairs(startFEN, result string) []*chess.TagPair {
	date := "????.??.??"
	if !t.Date.IsZero() {
		date = t.Date.Format("2006.01.02")
	}
	round := "?"
	if t.Round > 0 {
		round = strconv.Itoa(t.Round)
	}

	pairs := []*chess.TagPair{
		{Key: "Event", Value: orUnknown(t.Event)},
		{Key: "Site", Value: orUnknown(t.Site)},
		{Key: "Date", Value: date},
		{Key: "Round", Value: round},
		{Key: "White", Value: orUnknown(t.White)},
		{Key: "Black", Value: orUnknown(t.Black)},
		{Key: "Result", Value: result},
	}
	if startFEN != board.StartFEN {
		pairs = append(pairs,
			&chess.TagPair{Key: "SetUp", Value: "1"},
			&chess.TagPair{Key: "FEN", Value: startFEN},
		)
	}
	return pairs
}

// drawMethods maps draw outcomes to the method recorded in the PGN game.
var drawMethods = map[game.Outcome]chess.Method{
	game.ThreefoldRepetition: chess.ThreefoldRepetition,
	game.FiftyMoveRule:       chess.FiftyMoveRule,
}

// PGN replays the moves of g through an independent rules implementation
// and returns the game in PGN with SAN movetext.
func PGN(g *game.Game, tags Tags) (string, error) {
	return Encode(g.StartFEN(), g.MoveLog(), g.Result(), tags)
}

// Encode is PGN for a start position, long-notation moves and a result.
// A move the replay rejects is reported with its ply number.
func Encode(startFEN string, moves []string, res game.Result, tags Tags) (string, error) {
	opts := []func(*chess.Game){chess.TagPairs(tags.tagPairs(startFEN, res.Score()))}
	if startFEN != board.StartFEN {
		fen, err := chess.FEN(startFEN)
		if err != nil {
			return "", fmt.Errorf("pgn start position: %w", err)
		}
		opts = append(opts, fen)
	}
	cg := chess.NewGame(opts...)

	uci := chess.UCINotation{}
	for i, s := range moves {
		m, err := uci.Decode(cg.Position(), s)
		if err != nil {
			return "", fmt.Errorf("pgn ply %d (%s): %w", i+1, s, err)
		}
		if err := cg.Move(m); err != nil {
			return "", fmt.Errorf("pgn ply %d (%s): %w", i+1, s, err)
		}
	}

	// Checkmate and stalemate are detected by the replay itself; other
	// draws are claimed, falling back to an agreed draw for adjudications.
	if res.Over() && cg.Outcome() == chess.NoOutcome && res.Winner == board.NoColor {
		method, ok := drawMethods[res.Outcome]
		if !ok || cg.Draw(method) != nil {
			if err := cg.Draw(chess.DrawOffer); err != nil {
				return "", fmt.Errorf("pgn result: %w", err)
			}
		}
	}

	return cg.String(), nil
}
