package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessduel/internal/board"
	"github.com/hailam/chessduel/internal/coordinator"
	"github.com/hailam/chessduel/internal/engine"
)

// scripted plays a fixed list of long-notation moves, then NoMove.
type scripted struct {
	moves []string
}

func (s *scripted) FindBestMove(_ context.Context, pos *board.Position, _ []board.Move) (board.Move, engine.Info) {
	ply := pos.Ply()
	if ply >= len(s.moves) {
		return board.NoMove, engine.Info{}
	}
	m, err := board.ParseMove(s.moves[ply], pos)
	if err != nil {
		return board.NoMove, engine.Info{}
	}
	return m, engine.Info{Move: m, Depth: 1}
}

// blocking never answers until cancelled.
type blocking struct{}

func (blocking) FindBestMove(ctx context.Context, _ *board.Position, _ []board.Move) (board.Move, engine.Info) {
	<-ctx.Done()
	return board.NoMove, engine.Info{}
}

func newScripted(moves ...string) *coordinator.Coordinator {
	return coordinator.New(&scripted{moves: moves}, zerolog.Nop())
}

func playOut(t *testing.T, g *Game) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	res, err := g.Play(ctx)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	return res
}

func TestFoolsMateOutcome(t *testing.T) {
	var seen []board.Move
	g := New(newScripted("f2f3", "e7e5", "g2g4", "d8h4"), Options{
		PollInterval: time.Millisecond,
		OnMove:       func(m board.Move) { seen = append(seen, m) },
	})

	res := playOut(t, g)
	if res.Outcome != Checkmate || res.Winner != board.Black {
		t.Fatalf("result = %+v, want black checkmate", res)
	}
	if res.Score() != "0-1" || res.String() != "Black wins by checkmate" {
		t.Errorf("Score/String = %s / %s", res.Score(), res.String())
	}
	want := []string{"f2f3", "e7e5", "g2g4", "d8h4"}
	log := g.MoveLog()
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("MoveLog[%d] = %s, want %s", i, log[i], want[i])
		}
	}
	if len(seen) != 4 {
		t.Errorf("OnMove called %d times, want 4", len(seen))
	}
	if len(g.LegalMoves()) != 0 {
		t.Errorf("legal moves after mate: %v", g.LegalMoves())
	}

	// Nothing happens once the game is over
	if moved, err := g.Tick(); moved || err != nil {
		t.Errorf("Tick after game over = %v, %v", moved, err)
	}
}

func TestThreefoldRepetition(t *testing.T) {
	g := New(newScripted(
		"g1f3", "g8f6", "f3g1", "f6g8",
		"g1f3", "g8f6", "f3g1", "f6g8",
		"e2e4",
	), Options{PollInterval: time.Millisecond})

	res := playOut(t, g)
	if res.Outcome != ThreefoldRepetition {
		t.Fatalf("outcome = %s, want threefold repetition", res.Outcome)
	}
	if g.Position().Ply() != 8 {
		t.Errorf("game ended at ply %d, want 8", g.Position().Ply())
	}
	if res.Score() != "1/2-1/2" {
		t.Errorf("Score = %s", res.Score())
	}
}

func TestRandomFallback(t *testing.T) {
	// The script runs out after one move, so the rest are random
	g := New(newScripted("e2e4"), Options{PollInterval: time.Millisecond, MaxPlies: 6})

	res := playOut(t, g)
	if !res.Over() {
		t.Fatal("game did not end")
	}
	if g.Fallbacks() == 0 {
		t.Error("expected random fallback moves")
	}
	if g.MoveLog()[0] != "e2e4" {
		t.Errorf("first move = %s", g.MoveLog()[0])
	}
}

func TestEngineGameReachesTerminalOutcome(t *testing.T) {
	eng := engine.NewEngine(engine.Config{Depth: 1}, zerolog.Nop())
	coord := coordinator.New(eng, zerolog.Nop())
	g := New(coord, Options{PollInterval: time.Millisecond, MaxPlies: 40})

	res := playOut(t, g)
	if !res.Over() {
		t.Fatal("game did not reach a terminal outcome")
	}
	if g.Fallbacks() != 0 {
		t.Errorf("engine needed %d random fallbacks", g.Fallbacks())
	}
	if len(g.MoveLog()) != g.Position().Ply() {
		t.Errorf("move log has %d entries for %d plies", len(g.MoveLog()), g.Position().Ply())
	}
	t.Logf("%s after %d plies", res, g.Position().Ply())
}

func TestMateInOneFromFEN(t *testing.T) {
	eng := engine.NewEngine(engine.Config{Depth: 2}, zerolog.Nop())
	coord := coordinator.New(eng, zerolog.Nop())
	g, err := NewFromFEN(coord, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", Options{PollInterval: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	res := playOut(t, g)
	if res.Outcome != Checkmate || res.Winner != board.White {
		t.Errorf("result = %s, want white checkmate", res)
	}
}

func TestUndoCancelsSearch(t *testing.T) {
	g := New(newScripted("e2e4", "e7e5"), Options{})
	for g.Position().Ply() < 2 {
		if _, err := g.Tick(); err != nil {
			t.Fatal(err)
		}
	}

	// Swap in a search that never answers, start it, then undo
	g.coords[board.White] = coordinator.New(blocking{}, zerolog.Nop())
	if _, err := g.Tick(); err != nil {
		t.Fatal(err)
	}
	if !g.Thinking() {
		t.Fatal("expected a search in flight")
	}

	if err := g.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if g.Thinking() {
		t.Error("Undo left the search running")
	}
	if g.Position().Ply() != 1 || len(g.MoveLog()) != 1 {
		t.Errorf("after undo: ply %d, log %v", g.Position().Ply(), g.MoveLog())
	}
	if g.Position().SideToMove != board.Black {
		t.Errorf("side to move = %s, want Black", g.Position().SideToMove)
	}
}

func TestUndoEmptyHistory(t *testing.T) {
	g := New(newScripted(), Options{})
	if err := g.Undo(); !errors.Is(err, board.ErrEmptyHistory) {
		t.Errorf("Undo error = %v, want ErrEmptyHistory", err)
	}
}

func TestReset(t *testing.T) {
	g := New(newScripted("e2e4", "e7e5"), Options{})
	for g.Position().Ply() < 2 {
		if _, err := g.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	g.Reset()
	if g.Position().ToFEN() != board.StartFEN {
		t.Errorf("after Reset: %s", g.Position().ToFEN())
	}
	if len(g.MoveLog()) != 0 || g.Over() || len(g.LegalMoves()) != 20 {
		t.Error("Reset did not restore the initial game state")
	}
}

func TestPlayHonorsContext(t *testing.T) {
	coord := coordinator.New(blocking{}, zerolog.Nop())
	g := New(coord, Options{PollInterval: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := g.Play(ctx)
	if !IsCancelled(err) {
		t.Errorf("Play error = %v, want a context error", err)
	}
	if g.Thinking() || coord.Thinking() {
		t.Error("Play left a search running")
	}
}

func TestResetFromFEN(t *testing.T) {
	const fen = "k7/8/8/8/8/8/8/KR6 w - - 0 1"
	g, err := NewFromFEN(newScripted("b1b2", "a8a7"), fen, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for g.Position().Ply() < 2 {
		if _, err := g.Tick(); err != nil {
			t.Fatal(err)
		}
	}

	g.Reset()
	if got := g.Position().ToFEN(); got != fen {
		t.Errorf("after Reset: %s, want %s", got, fen)
	}
	if g.StartFEN() != fen {
		t.Errorf("StartFEN = %s, want %s", g.StartFEN(), fen)
	}
}

func TestPlayLine(t *testing.T) {
	g := New(newScripted(), Options{})
	if err := g.PlayLine("e4", "e5", "Nf3"); err != nil {
		t.Fatal(err)
	}
	want := []string{"e2e4", "e7e5", "g1f3"}
	if got := g.MoveLog(); len(got) != len(want) || got[0] != want[0] || got[2] != want[2] {
		t.Errorf("MoveLog = %v, want %v", got, want)
	}
	if g.StartFEN() != board.StartFEN {
		t.Errorf("StartFEN = %s", g.StartFEN())
	}

	if err := g.PlayLine("Nc6", "Ke3"); !errors.Is(err, board.ErrIllegalMove) {
		t.Errorf("PlayLine error = %v, want ErrIllegalMove", err)
	}
	if g.Position().Ply() != 4 {
		t.Errorf("ply = %d, want 4", g.Position().Ply())
	}
}

func TestPlayLineAfterMate(t *testing.T) {
	g := New(newScripted(), Options{})
	err := g.PlayLine("f3", "e5", "g4", "Qh4#", "a3")
	if !errors.Is(err, ErrGameOver) {
		t.Errorf("PlayLine error = %v, want ErrGameOver", err)
	}
	if res := g.Result(); res.Outcome != Checkmate || res.Winner != board.Black {
		t.Errorf("result = %s", res)
	}
}
