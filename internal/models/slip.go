package models

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when removing a slip entry that does not exist.
var ErrIndexOutOfRange = errors.New("bet slip index out of range")

// BetSlip is the ordered selection of candidate bets a user builds during a
// session. It is not safe for concurrent use; the session store serialises access.
type BetSlip struct {
	bets []CandidateBet
}

// Append adds a bet to the end of the slip.
func (s *BetSlip) Append(bet CandidateBet) error {
	if err := bet.Validate(); err != nil {
		return fmt.Errorf("invalid bet: %w", err)
	}
	s.bets = append(s.bets, bet)
	return nil
}

// Remove deletes the bet at index i, keeping the order of the others.
func (s *BetSlip) Remove(i int) (CandidateBet, error) {
	if i < 0 || i >= len(s.bets) {
		return CandidateBet{}, fmt.Errorf("index %d of %d: %w", i, len(s.bets), ErrIndexOutOfRange)
	}
	removed := s.bets[i]
	s.bets = append(s.bets[:i], s.bets[i+1:]...)
	return removed, nil
}

// Clear empties the slip.
func (s *BetSlip) Clear() {
	s.bets = nil
}

// Len returns the number of bets on the slip.
func (s *BetSlip) Len() int {
	return len(s.bets)
}

// Bets returns a copy of the slip contents.
func (s *BetSlip) Bets() []CandidateBet {
	out := make([]CandidateBet, len(s.bets))
	copy(out, s.bets)
	return out
}

// Select returns copies of the bets at the given indices, in the given order.
func (s *BetSlip) Select(indices []int) ([]CandidateBet, error) {
	out := make([]CandidateBet, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(s.bets) {
			return nil, fmt.Errorf("index %d of %d: %w", i, len(s.bets), ErrIndexOutOfRange)
		}
		out = append(out, s.bets[i])
	}
	return out, nil
}
