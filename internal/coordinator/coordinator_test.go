package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessduel/internal/board"
	"github.com/hailam/chessduel/internal/engine"
)

// stubSearcher blocks until release is closed or ctx is cancelled, then
// returns the first legal move regardless.
type stubSearcher struct {
	release chan struct{}
	started chan *board.Position
}

func newStub() *stubSearcher {
	return &stubSearcher{
		release: make(chan struct{}),
		started: make(chan *board.Position, 8),
	}
}

func (s *stubSearcher) FindBestMove(ctx context.Context, pos *board.Position, legal []board.Move) (board.Move, engine.Info) {
	s.started <- pos
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	if len(legal) == 0 {
		return board.NoMove, engine.Info{}
	}
	return legal[0], engine.Info{Move: legal[0], Depth: 1}
}

func pollUntil(t *testing.T, c *Coordinator, h *Handle) board.Move {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if m, ok := c.Poll(h); ok {
			return m
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("search did not deliver in time")
	return board.NoMove
}

func TestStartPollWithEngine(t *testing.T) {
	eng := engine.NewEngine(engine.DifficultySettings[engine.Easy], zerolog.Nop())
	c := New(eng, zerolog.Nop())

	pos := board.NewPosition()
	legal := pos.LegalMoves()
	h, err := c.Start(pos, legal)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !c.Thinking() {
		t.Error("Thinking() = false right after Start")
	}

	move := pollUntil(t, c, h)
	if err := pos.Apply(move); err != nil {
		t.Errorf("search returned an inapplicable move %s: %v", move, err)
	}
	if c.Thinking() {
		t.Error("Thinking() = true after the result was taken")
	}
	if c.Info(h).Depth != 2 {
		t.Errorf("Info depth = %d, want 2", c.Info(h).Depth)
	}
	if _, ok := c.Poll(h); ok {
		t.Error("second Poll on the same handle yielded a move")
	}
}

func TestSecondStartWhileActive(t *testing.T) {
	stub := newStub()
	c := New(stub, zerolog.Nop())
	pos := board.NewPosition()

	h, err := c.Start(pos, pos.LegalMoves())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Start(pos, pos.LegalMoves()); !errors.Is(err, ErrSearchActive) {
		t.Errorf("second Start error = %v, want ErrSearchActive", err)
	}

	close(stub.release)
	pollUntil(t, c, h)

	h2, err := c.Start(pos, pos.LegalMoves())
	if err != nil {
		t.Fatalf("Start after completion: %v", err)
	}
	if h2.Gen() != h.Gen()+1 {
		t.Errorf("generation = %d, want %d", h2.Gen(), h.Gen()+1)
	}
	pollUntil(t, c, h2)
}

func TestCancelNeverYieldsMove(t *testing.T) {
	stub := newStub()
	c := New(stub, zerolog.Nop())
	pos := board.NewPosition()

	h, err := c.Start(pos, pos.LegalMoves())
	if err != nil {
		t.Fatal(err)
	}
	<-stub.started

	c.Cancel(h)
	if c.Thinking() {
		t.Error("Thinking() = true right after Cancel")
	}

	// The worker still finishes and sends; the result must be discarded
	time.Sleep(20 * time.Millisecond)
	for i := 0; i < 10; i++ {
		if m, ok := c.Poll(h); ok {
			t.Fatalf("Poll on a cancelled handle yielded %s", m)
		}
	}
	if m, ok := c.Wait(context.Background(), h); ok {
		t.Fatalf("Wait on a cancelled handle yielded %s", m)
	}

	// A new search can start and is not confused with the old one
	h2, err := c.Start(pos, pos.LegalMoves())
	if err != nil {
		t.Fatalf("Start after Cancel: %v", err)
	}
	close(stub.release)
	if m, ok := c.Wait(context.Background(), h2); !ok || m.IsNull() {
		t.Errorf("Wait on the new handle = %s, %v", m, ok)
	}
	c.Cancel(h2) // no-op after completion
}

func TestSnapshotIsolation(t *testing.T) {
	stub := newStub()
	c := New(stub, zerolog.Nop())
	pos := board.NewPosition()

	h, err := c.Start(pos, pos.LegalMoves())
	if err != nil {
		t.Fatal(err)
	}
	snap := <-stub.started

	// Mutating the caller's position must not reach the worker
	m, err := board.ParseMove("e2e4", pos)
	if err != nil {
		t.Fatal(err)
	}
	if err := pos.Apply(m); err != nil {
		t.Fatal(err)
	}
	if snap.Ply() != 0 || snap.PieceAt(board.E2) != board.WhitePawn {
		t.Error("worker snapshot changed with the caller's position")
	}

	close(stub.release)
	pollUntil(t, c, h)
}

func TestWaitHonorsContext(t *testing.T) {
	stub := newStub()
	c := New(stub, zerolog.Nop())
	pos := board.NewPosition()

	h, err := c.Start(pos, pos.LegalMoves())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, ok := c.Wait(ctx, h); ok {
		t.Error("Wait returned a move before the search finished")
	}
	if !c.Thinking() {
		t.Error("a timed-out Wait must not end the search")
	}

	c.CancelActive()
	if c.Thinking() {
		t.Error("CancelActive left the search active")
	}
}

func TestWaitOnFinishedHandle(t *testing.T) {
	stub := newStub()
	c := New(stub, zerolog.Nop())
	pos := board.NewPosition()

	taken, err := c.Start(pos, pos.LegalMoves())
	if err != nil {
		t.Fatal(err)
	}
	close(stub.release)
	pollUntil(t, c, taken)

	cancelled, err := c.Start(pos, pos.LegalMoves())
	if err != nil {
		t.Fatal(err)
	}
	c.Cancel(cancelled)

	for name, h := range map[string]*Handle{"taken": taken, "cancelled": cancelled} {
		done := make(chan bool, 1)
		go func() {
			_, ok := c.Wait(context.Background(), h)
			done <- ok
		}()
		select {
		case ok := <-done:
			if ok {
				t.Errorf("Wait on %s handle delivered a move", name)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("Wait on %s handle blocked", name)
		}
	}
}
