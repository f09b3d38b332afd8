// Package value prices a model probability against a bookmaker's decimal odd:
// expected value, capped Kelly fraction and the risk bucket of the bet.
package value

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/evsignal/internal/models"
)

// DefaultKellyCap is the ceiling applied to every Kelly fraction.
const DefaultKellyCap = 0.25

// ErrInvalidOdd is returned by ValidateOdd for decimal odds of 1.0 or less.
var ErrInvalidOdd = errors.New("decimal odd must be greater than 1.0")

// ExpectedValue returns probability*odd - 1. A non-positive odd is a placeholder
// for "no price yet" and yields 0.
func ExpectedValue(probability, odd float64) float64 {
	if odd > 0 {
		return probability*odd - 1
	}
	return 0
}

// KellyFraction returns (p*odd - 1)/(odd - 1) clamped to [0, cap]. Odds of 1.0
// or less have no net payout and yield 0.
func KellyFraction(probability, odd, cap float64) float64 {
	if odd <= 1 {
		return 0
	}
	f := (probability*odd - 1) / (odd - 1)
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	if f > cap {
		return cap
	}
	return f
}

// ValidateOdd is for callers that must reject unusable prices instead of
// treating them as "no bet".
func ValidateOdd(odd float64) error {
	if !(odd > 1) {
		return fmt.Errorf("odd %v: %w", odd, ErrInvalidOdd)
	}
	return nil
}

// Evaluator turns (market, probability, odd) triples into candidate bets.
type Evaluator struct {
	classifier *Classifier
	kellyCap   float64
	now        func() time.Time
}

// NewEvaluator creates an Evaluator. A nil classifier uses the default policy
// and a non-positive cap uses DefaultKellyCap.
func NewEvaluator(classifier *Classifier, kellyCap float64) *Evaluator {
	if classifier == nil {
		classifier = NewClassifier(DefaultThresholds())
	}
	if kellyCap <= 0 {
		kellyCap = DefaultKellyCap
	}
	return &Evaluator{classifier: classifier, kellyCap: kellyCap, now: time.Now}
}

// Evaluate prices one market. Every call produces a new bet with its own ID.
func (e *Evaluator) Evaluate(matchID, market string, probability, odd float64) models.CandidateBet {
	ev := ExpectedValue(probability, odd)
	return models.CandidateBet{
		ID:          uuid.New().String(),
		MatchID:     matchID,
		Market:      market,
		Probability: probability,
		Odd:         odd,
		EV:          ev,
		Kelly:       KellyFraction(probability, odd, e.kellyCap),
		Tag:         e.classifier.Classify(probability, odd, ev),
		CreatedAt:   e.now(),
	}
}

// KellyCap returns the configured ceiling.
func (e *Evaluator) KellyCap() float64 {
	return e.kellyCap
}
