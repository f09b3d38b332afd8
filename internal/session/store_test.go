package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/evsignal/internal/bankroll"
	"github.com/rewired-gh/evsignal/internal/combo"
	"github.com/rewired-gh/evsignal/internal/models"
)

// clock advances one second per call so sessions get distinct timestamps.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore(t *testing.T, maxSessions, maxBets int, ttl time.Duration) (*Store, *clock) {
	t.Helper()
	alloc, err := bankroll.NewAllocator(nil)
	if err != nil {
		t.Fatalf("failed to create allocator: %v", err)
	}
	s := New(alloc, maxSessions, maxBets, ttl)
	c := &clock{t: time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)}
	s.now = c.now
	return s, c
}

func testBet(id, matchID string, tag models.Tag, p, odd, kelly float64) models.CandidateBet {
	return models.CandidateBet{
		ID:          id,
		MatchID:     matchID,
		Market:      "home_win",
		Probability: p,
		Odd:         odd,
		EV:          p*odd - 1,
		Kelly:       kelly,
		Tag:         tag,
	}
}

func TestStore_SlipLifecycle(t *testing.T) {
	s, _ := newStore(t, 10, 10, time.Hour)
	id := s.Create()

	bets, err := s.Slip(id)
	if err != nil {
		t.Fatalf("Slip failed: %v", err)
	}
	if len(bets) != 0 {
		t.Fatalf("new session should have an empty slip, got %d", len(bets))
	}

	for i, m := range []string{"m1", "m2", "m3"} {
		if err := s.AddBet(id, testBet(fmt.Sprintf("b%d", i), m, models.TagSimpleHigh, 0.45, 2.5, 0.08)); err != nil {
			t.Fatalf("AddBet failed: %v", err)
		}
	}

	removed, err := s.RemoveBet(id, 0)
	if err != nil {
		t.Fatalf("RemoveBet failed: %v", err)
	}
	if removed.ID != "b0" {
		t.Errorf("removed %s, want b0", removed.ID)
	}

	bets, _ = s.Slip(id)
	if len(bets) != 2 || bets[0].ID != "b1" {
		t.Errorf("unexpected slip after remove: %+v", bets)
	}

	if _, err := s.RemoveBet(id, 9); !errors.Is(err, models.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}

	if err := s.ClearSlip(id); err != nil {
		t.Fatalf("ClearSlip failed: %v", err)
	}
	bets, _ = s.Slip(id)
	if len(bets) != 0 {
		t.Errorf("expected empty slip after clear, got %d", len(bets))
	}
}

func TestStore_UnknownSession(t *testing.T) {
	s, _ := newStore(t, 10, 10, time.Hour)

	if _, err := s.Slip("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Slip: expected ErrSessionNotFound, got %v", err)
	}
	if err := s.AddBet("nope", testBet("b", "m", models.TagSimpleLow, 0.5, 2.1, 0.01)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("AddBet: expected ErrSessionNotFound, got %v", err)
	}
	if err := s.Delete("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Delete: expected ErrSessionNotFound, got %v", err)
	}
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s, _ := newStore(t, 10, 10, time.Hour)
	a := s.Create()
	b := s.Create()

	if err := s.AddBet(a, testBet("x", "m1", models.TagSimpleHigh, 0.45, 2.5, 0.08)); err != nil {
		t.Fatalf("AddBet failed: %v", err)
	}

	bets, _ := s.Slip(b)
	if len(bets) != 0 {
		t.Errorf("session b sees %d bets from session a", len(bets))
	}
}

func TestStore_SlipFull(t *testing.T) {
	s, _ := newStore(t, 10, 2, time.Hour)
	id := s.Create()
	_ = s.AddBet(id, testBet("a", "m1", models.TagSimpleLow, 0.5, 2.1, 0.01))
	_ = s.AddBet(id, testBet("b", "m2", models.TagSimpleLow, 0.5, 2.1, 0.01))

	err := s.AddBet(id, testBet("c", "m3", models.TagSimpleLow, 0.5, 2.1, 0.01))
	if !errors.Is(err, ErrSlipFull) {
		t.Errorf("expected ErrSlipFull, got %v", err)
	}
}

func TestStore_Plan(t *testing.T) {
	s, _ := newStore(t, 10, 10, time.Hour)
	id := s.Create()
	_ = s.AddBet(id, testBet("a", "m1", models.TagSimpleHigh, 0.45, 2.5, 0.1))
	_ = s.AddBet(id, testBet("b", "m2", models.TagSimpleLow, 0.55, 1.9, 0.3))
	_ = s.AddBet(id, testBet("c", "m3", models.TagNoValue, 0.12, 6.0, 0))

	plan, err := s.Plan(id, decimal.NewFromInt(1000), models.Balanced)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(plan.Stakes) != 2 {
		t.Fatalf("expected 2 stakes, got %d", len(plan.Stakes))
	}
	if !plan.Stakes[0].Amount.Equal(decimal.NewFromInt(125)) {
		t.Errorf("expected first stake 125, got %s", plan.Stakes[0].Amount)
	}
	if plan.Excluded != 1 {
		t.Errorf("expected 1 excluded bet, got %d", plan.Excluded)
	}
}

func TestStore_Combine(t *testing.T) {
	s, _ := newStore(t, 10, 10, time.Hour)
	id := s.Create()

	if _, err := s.Combine(id, nil); !errors.Is(err, combo.ErrEmptyCombination) {
		t.Errorf("expected ErrEmptyCombination for empty slip, got %v", err)
	}

	_ = s.AddBet(id, testBet("a", "m1", models.TagMultiLeg, 0.56, 1.80, 0.01))
	_ = s.AddBet(id, testBet("b", "m2", models.TagMultiLeg, 0.48, 2.10, 0.01))
	_ = s.AddBet(id, testBet("c", "m3", models.TagMultiLeg, 0.63, 1.60, 0.01))

	all, err := s.Combine(id, nil)
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if all.Legs != 3 || all.Odd < 6.0479 || all.Odd > 6.0481 {
		t.Errorf("unexpected combination: %+v", all)
	}

	pair, err := s.Combine(id, []int{0, 2})
	if err != nil {
		t.Fatalf("Combine(0,2) failed: %v", err)
	}
	if pair.Legs != 2 {
		t.Errorf("expected 2 legs, got %d", pair.Legs)
	}

	if _, err := s.Combine(id, []int{7}); !errors.Is(err, models.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestStore_RotateOldestSessions(t *testing.T) {
	s, _ := newStore(t, 2, 10, 0)
	first := s.Create()
	second := s.Create()
	third := s.Create()

	if s.Count() != 2 {
		t.Fatalf("expected 2 sessions, got %d", s.Count())
	}
	if _, err := s.Slip(first); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("oldest session should have been rotated out")
	}
	for _, id := range []string{second, third} {
		if _, err := s.Slip(id); err != nil {
			t.Errorf("session %s should survive rotation: %v", id, err)
		}
	}
}

func TestStore_RotationKeepsNewSessionWithFixedClock(t *testing.T) {
	fixed := time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		s, _ := newStore(t, 2, 10, 0)
		s.now = func() time.Time { return fixed }

		s.Create()
		s.Create()
		id := s.Create()

		if s.Count() != 2 {
			t.Fatalf("expected 2 sessions, got %d", s.Count())
		}
		if _, err := s.Slip(id); err != nil {
			t.Fatalf("run %d: new session was rotated out: %v", i, err)
		}
	}
}

func TestStore_ExpireIdle(t *testing.T) {
	s, c := newStore(t, 10, 10, 10*time.Minute)
	stale := s.Create()
	c.t = c.t.Add(20 * time.Minute)
	fresh := s.Create()

	if removed := s.ExpireIdle(); removed != 1 {
		t.Errorf("expected 1 expired session, got %d", removed)
	}
	if _, err := s.Slip(stale); !errors.Is(err, ErrSessionNotFound) {
		t.Error("stale session should be gone")
	}
	if _, err := s.Slip(fresh); err != nil {
		t.Errorf("fresh session should remain: %v", err)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s, _ := newStore(t, 100, 1000, time.Hour)
	id := s.Create()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.AddBet(id, testBet(fmt.Sprintf("b%d", i), "m", models.TagSimpleLow, 0.5, 2.1, 0.05))
			_, _ = s.Plan(id, decimal.NewFromInt(100), models.Aggressive)
		}(i)
	}
	wg.Wait()

	bets, _ := s.Slip(id)
	if len(bets) != 20 {
		t.Errorf("expected 20 bets, got %d", len(bets))
	}
}
