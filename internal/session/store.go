// Package session provides thread-safe in-memory bet slips, one per user
// session. Slips live only as long as the process and their session; idle
// sessions expire after a TTL and the oldest sessions are rotated out when the
// store exceeds its capacity.
//
// Plans and combinations are always computed from a snapshot of the slip taken
// under the lock, so the engine never sees a slip that is being modified.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rewired-gh/evsignal/internal/bankroll"
	"github.com/rewired-gh/evsignal/internal/combo"
	"github.com/rewired-gh/evsignal/internal/models"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSlipFull is returned when a slip already holds the maximum number of bets.
	ErrSlipFull = errors.New("bet slip is full")
)

type session struct {
	id          string
	slip        models.BetSlip
	createdAt   time.Time
	lastUpdated time.Time
}

// Store holds the sessions.
type Store struct {
	sessions map[string]*session
	mu       sync.RWMutex

	allocator      *bankroll.Allocator
	maxSessions    int
	maxBetsPerSlip int
	ttl            time.Duration
	now            func() time.Time
}

// New creates a Store. Non-positive limits disable the corresponding check.
func New(allocator *bankroll.Allocator, maxSessions, maxBetsPerSlip int, ttl time.Duration) *Store {
	return &Store{
		sessions:       make(map[string]*session),
		allocator:      allocator,
		maxSessions:    maxSessions,
		maxBetsPerSlip: maxBetsPerSlip,
		ttl:            ttl,
		now:            time.Now,
	}
}

// Create starts a session with an empty slip and returns its ID.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := uuid.New().String()
	s.sessions[id] = &session{id: id, createdAt: now, lastUpdated: now}
	s.rotateLocked(id)
	return id
}

// Delete ends a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	delete(s.sessions, id)
	return nil
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) getLocked(id string) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	return sess, nil
}

// AddBet appends bet to the session's slip.
func (s *Store) AddBet(id string, bet models.CandidateBet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getLocked(id)
	if err != nil {
		return err
	}
	if s.maxBetsPerSlip > 0 && sess.slip.Len() >= s.maxBetsPerSlip {
		return fmt.Errorf("%d bets: %w", sess.slip.Len(), ErrSlipFull)
	}
	if err := sess.slip.Append(bet); err != nil {
		return err
	}
	sess.lastUpdated = s.now()
	return nil
}

// RemoveBet removes the bet at index from the session's slip.
func (s *Store) RemoveBet(id string, index int) (models.CandidateBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getLocked(id)
	if err != nil {
		return models.CandidateBet{}, err
	}
	removed, err := sess.slip.Remove(index)
	if err != nil {
		return models.CandidateBet{}, err
	}
	sess.lastUpdated = s.now()
	return removed, nil
}

// ClearSlip empties the session's slip.
func (s *Store) ClearSlip(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getLocked(id)
	if err != nil {
		return err
	}
	sess.slip.Clear()
	sess.lastUpdated = s.now()
	return nil
}

// Slip returns a snapshot of the session's slip.
func (s *Store) Slip(id string) ([]models.CandidateBet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}
	return sess.slip.Bets(), nil
}

// Plan allocates total over the current slip.
func (s *Store) Plan(id string, total decimal.Decimal, profile models.RiskProfile) (*models.BankrollPlan, error) {
	bets, err := s.Slip(id)
	if err != nil {
		return nil, err
	}
	return s.allocator.Allocate(total, bets, profile)
}

// Combine evaluates the selected slip entries as one accumulator. No indices
// selects the whole slip.
func (s *Store) Combine(id string, indices []int) (*models.Combination, error) {
	s.mu.RLock()
	sess, err := s.getLocked(id)
	if err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	var legs []models.CandidateBet
	if len(indices) == 0 {
		legs = sess.slip.Bets()
	} else {
		legs, err = sess.slip.Select(indices)
	}
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	return combo.Combine(legs)
}

// ExpireIdle removes sessions idle for longer than the TTL and returns how
// many were removed.
func (s *Store) ExpireIdle() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastUpdated.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// rotateLocked removes the least recently updated sessions above capacity.
// Ties are broken by creation time, then ID; keep is never removed.
func (s *Store) rotateLocked(keep string) {
	if s.maxSessions <= 0 || len(s.sessions) <= s.maxSessions {
		return
	}

	list := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.id != keep {
			list = append(list, sess)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.lastUpdated.Equal(b.lastUpdated) {
			return a.lastUpdated.Before(b.lastUpdated)
		}
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.Before(b.createdAt)
		}
		return a.id < b.id
	})

	toRemove := len(s.sessions) - s.maxSessions
	for i := 0; i < toRemove && i < len(list); i++ {
		delete(s.sessions, list[i].id)
	}
}
