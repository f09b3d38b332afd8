// Package combo evaluates several single bets as one accumulator wager.
//
// Legs are treated as independent: the combined probability is the product
// of the leg probabilities. Legs taken from the same fixture, or from
// correlated markets, break that assumption; such combinations are flagged
// through Combination.SharedMatch but not corrected.
package combo

import (
	"errors"

	"github.com/rewired-gh/evsignal/internal/models"
	"github.com/rewired-gh/evsignal/internal/value"
)

// ErrEmptyCombination is returned when no legs are supplied.
var ErrEmptyCombination = errors.New("combination needs at least one leg")

// Combine multiplies the odds and probabilities of bets and recomputes EV.
func Combine(bets []models.CandidateBet) (*models.Combination, error) {
	if len(bets) == 0 {
		return nil, ErrEmptyCombination
	}

	odd, prob := 1.0, 1.0
	matches := make(map[string]bool, len(bets))
	shared := false
	for _, b := range bets {
		odd *= b.Odd
		prob *= b.Probability
		if b.MatchID != "" {
			if matches[b.MatchID] {
				shared = true
			}
			matches[b.MatchID] = true
		}
	}

	return &models.Combination{
		Legs:        len(bets),
		Odd:         odd,
		Probability: prob,
		EV:          value.ExpectedValue(prob, odd),
		SharedMatch: shared,
	}, nil
}
