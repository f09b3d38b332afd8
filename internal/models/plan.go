package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RiskProfile selects the bankroll split between the three pools.
type RiskProfile string

const (
	Conservative RiskProfile = "conservative"
	Balanced     RiskProfile = "balanced"
	Aggressive   RiskProfile = "aggressive"
)

// ParseRiskProfile accepts a profile name case-insensitively.
func ParseRiskProfile(s string) (RiskProfile, error) {
	switch p := RiskProfile(strings.ToLower(strings.TrimSpace(s))); p {
	case Conservative, Balanced, Aggressive:
		return p, nil
	default:
		return "", fmt.Errorf("unknown risk profile %q", s)
	}
}

// Budgets holds the amount assigned to each pool.
type Budgets struct {
	Simple   decimal.Decimal `json:"simple"`
	Combined decimal.Decimal `json:"combined"`
	HighRisk decimal.Decimal `json:"high_risk"`
}

// Total is the sum of the three pools.
func (b Budgets) Total() decimal.Decimal {
	return b.Simple.Add(b.Combined).Add(b.HighRisk)
}

// Stake is the recommended amount for one bet.
type Stake struct {
	BetID   string          `json:"bet_id"`
	MatchID string          `json:"match_id"`
	Market  string          `json:"market"`
	Bucket  Bucket          `json:"bucket"`
	Weight  float64         `json:"weight"`
	Amount  decimal.Decimal `json:"amount"`
}

// Combination is several single bets evaluated as one accumulator.
type Combination struct {
	Legs        int     `json:"legs"`
	Odd         float64 `json:"odd"`
	Probability float64 `json:"probability"`
	EV          float64 `json:"ev"`
	// SharedMatch is set when two legs come from the same fixture. The
	// product of probabilities then ignores their correlation.
	SharedMatch bool `json:"shared_match"`
}

// BankrollPlan is a fresh breakdown of a bankroll over the current slip.
type BankrollPlan struct {
	Total        decimal.Decimal `json:"total"`
	Profile      RiskProfile     `json:"profile"`
	Budgets      Budgets         `json:"budgets"`
	Stakes       []Stake         `json:"stakes"`
	CombinedLegs []CandidateBet  `json:"combined_legs"`
	Combination  *Combination    `json:"combination,omitempty"`
	Excluded     int             `json:"excluded"`
}

// StakesFor returns the stakes drawn from one pool.
func (p *BankrollPlan) StakesFor(b Bucket) []Stake {
	var out []Stake
	for _, s := range p.Stakes {
		if s.Bucket == b {
			out = append(out, s)
		}
	}
	return out
}
