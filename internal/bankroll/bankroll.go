// Package bankroll splits a bankroll between the simple, combined and
// high-risk pools of a risk profile and recommends a stake for every bet.
//
// Simple bets share their pool in proportion to their Kelly fractions, falling
// back to an equal split when every fraction is zero. High-risk bets share
// their pool equally. The combined pool is reported as one lump sum for a
// single accumulator built from the multi-leg bets. Amounts are decimals and
// each pool's stakes add up to the pool exactly.
package bankroll

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/evsignal/internal/combo"
	"github.com/rewired-gh/evsignal/internal/logger"
	"github.com/rewired-gh/evsignal/internal/models"
)

// Fractions is the share of the bankroll given to each pool.
type Fractions struct {
	Simple   float64 `mapstructure:"simple" json:"simple"`
	Combined float64 `mapstructure:"combined" json:"combined"`
	HighRisk float64 `mapstructure:"high_risk" json:"high_risk"`
}

// Sum returns the exact decimal sum of the three shares.
func (f Fractions) Sum() decimal.Decimal {
	return decimal.NewFromFloat(f.Simple).
		Add(decimal.NewFromFloat(f.Combined)).
		Add(decimal.NewFromFloat(f.HighRisk))
}

// Validate checks that the shares are non-negative and sum to 1.
func (f Fractions) Validate() error {
	if f.Simple < 0 || f.Combined < 0 || f.HighRisk < 0 {
		return fmt.Errorf("fractions must not be negative: %+v", f)
	}
	if !f.Sum().Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("fractions must sum to 1, got %s", f.Sum())
	}
	return nil
}

// ProfileTable maps each risk profile to its pool shares.
type ProfileTable map[models.RiskProfile]Fractions

// DefaultProfiles returns the documented split for each profile.
func DefaultProfiles() ProfileTable {
	return ProfileTable{
		models.Conservative: {Simple: 0.60, Combined: 0.30, HighRisk: 0.10},
		models.Balanced:     {Simple: 0.50, Combined: 0.35, HighRisk: 0.15},
		models.Aggressive:   {Simple: 0.40, Combined: 0.40, HighRisk: 0.20},
	}
}

// Allocator computes bankroll plans. It holds no per-call state.
type Allocator struct {
	profiles ProfileTable
}

// NewAllocator validates every row of profiles. A nil table uses DefaultProfiles.
func NewAllocator(profiles ProfileTable) (*Allocator, error) {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	for _, p := range []models.RiskProfile{models.Conservative, models.Balanced, models.Aggressive} {
		f, ok := profiles[p]
		if !ok {
			return nil, fmt.Errorf("missing fractions for profile %s", p)
		}
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p, err)
		}
	}
	table := make(ProfileTable, len(profiles))
	for k, v := range profiles {
		table[k] = v
	}
	return &Allocator{profiles: table}, nil
}

// Allocate builds a fresh plan for total over bets. A non-positive total gives
// a plan whose budgets and stakes are all zero.
func (a *Allocator) Allocate(total decimal.Decimal, bets []models.CandidateBet, profile models.RiskProfile) (*models.BankrollPlan, error) {
	fractions, ok := a.profiles[profile]
	if !ok {
		return nil, fmt.Errorf("unknown risk profile %q", profile)
	}

	var simple, combined, highRisk []models.CandidateBet
	excluded := 0
	for _, b := range bets {
		bucket, ok := b.Tag.Bucket()
		if !ok {
			excluded++
			continue
		}
		switch bucket {
		case models.BucketSimple:
			simple = append(simple, b)
		case models.BucketCombined:
			combined = append(combined, b)
		case models.BucketHighRisk:
			highRisk = append(highRisk, b)
		}
	}

	if !total.IsPositive() {
		total = decimal.Zero
	}
	budgets := models.Budgets{
		Simple:   total.Mul(decimal.NewFromFloat(fractions.Simple)),
		Combined: total.Mul(decimal.NewFromFloat(fractions.Combined)),
		HighRisk: total.Mul(decimal.NewFromFloat(fractions.HighRisk)),
	}

	plan := &models.BankrollPlan{
		Total:        total,
		Profile:      profile,
		Budgets:      budgets,
		Stakes:       make([]models.Stake, 0, len(simple)+len(highRisk)),
		CombinedLegs: combined,
		Excluded:     excluded,
	}

	plan.Stakes = append(plan.Stakes, split(budgets.Simple, simple, models.BucketSimple, kellyWeights(simple))...)
	plan.Stakes = append(plan.Stakes, split(budgets.HighRisk, highRisk, models.BucketHighRisk, equalWeights(len(highRisk)))...)

	if len(combined) > 0 {
		c, err := combo.Combine(combined)
		if err != nil {
			return nil, fmt.Errorf("failed to combine multi-leg bets: %w", err)
		}
		plan.Combination = c
	}

	logger.Debug("Allocated %s (%s): simple=%s combined=%s high_risk=%s, %d stakes, %d excluded",
		total, profile, budgets.Simple, budgets.Combined, budgets.HighRisk, len(plan.Stakes), excluded)

	return plan, nil
}

// kellyWeights returns the Kelly fractions, or equal weights when they sum to zero.
func kellyWeights(bets []models.CandidateBet) []decimal.Decimal {
	weights := make([]decimal.Decimal, len(bets))
	sum := decimal.Zero
	for i, b := range bets {
		k := b.Kelly
		if k < 0 {
			k = 0
		}
		weights[i] = decimal.NewFromFloat(k)
		sum = sum.Add(weights[i])
	}
	if sum.IsZero() {
		return equalWeights(len(bets))
	}
	return weights
}

func equalWeights(n int) []decimal.Decimal {
	weights := make([]decimal.Decimal, n)
	for i := range weights {
		weights[i] = decimal.NewFromInt(1)
	}
	return weights
}

// split divides budget across bets in proportion to weights. The last bet
// with a positive weight receives the remainder so the stakes sum to budget
// exactly and zero-weight bets stay at exactly zero.
func split(budget decimal.Decimal, bets []models.CandidateBet, bucket models.Bucket, weights []decimal.Decimal) []models.Stake {
	if len(bets) == 0 {
		return nil
	}

	sum := decimal.Zero
	last := len(bets) - 1
	for i, w := range weights {
		sum = sum.Add(w)
		if w.IsPositive() {
			last = i
		}
	}

	amounts := make([]decimal.Decimal, len(bets))
	allocated := decimal.Zero
	for i := range bets {
		if i == last {
			continue
		}
		amounts[i] = budget.Mul(weights[i]).Div(sum)
		allocated = allocated.Add(amounts[i])
	}
	amounts[last] = budget.Sub(allocated)

	stakes := make([]models.Stake, len(bets))
	for i, b := range bets {
		share := weights[i].Div(sum)
		amount := amounts[i]
		stakes[i] = models.Stake{
			BetID:   b.ID,
			MatchID: b.MatchID,
			Market:  b.Market,
			Bucket:  bucket,
			Weight:  share.InexactFloat64(),
			Amount:  amount,
		}
	}
	return stakes
}
