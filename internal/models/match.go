// Package models defines the domain entities shared by the probability engine,
// the session store and the HTTP API: expected-goal rates, candidate bets,
// bet slips and bankroll plans.
//
// All models include built-in validation. Candidate bets are values: once
// evaluated they are never mutated, a new odd produces a new bet.
package models

import (
	"errors"
	"fmt"
	"math"
)

// DefaultRateFloor is substituted for a missing or non-positive expected-goal rate.
const DefaultRateFloor = 0.5

// ErrInvalidRate reports a non-positive or non-finite expected-goal rate.
var ErrInvalidRate = errors.New("expected-goal rate must be positive and finite")

// ExpectedGoals holds the Poisson means for the two sides of a fixture.
type ExpectedGoals struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// Validate checks that both rates can be used as Poisson means.
func (e ExpectedGoals) Validate() error {
	if !validRate(e.Home) {
		return fmt.Errorf("home rate %v: %w", e.Home, ErrInvalidRate)
	}
	if !validRate(e.Away) {
		return fmt.Errorf("away rate %v: %w", e.Away, ErrInvalidRate)
	}
	return nil
}

// Floor returns a copy where every unusable rate is replaced by min.
func (e ExpectedGoals) Floor(min float64) ExpectedGoals {
	if !validRate(e.Home) {
		e.Home = min
	}
	if !validRate(e.Away) {
		e.Away = min
	}
	return e
}

// Total is the expected number of goals in the match.
func (e ExpectedGoals) Total() float64 {
	return e.Home + e.Away
}

func validRate(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}

// TeamStats carries per-venue goal averages for one team, as reported by the
// statistics provider.
type TeamStats struct {
	TeamID           int     `json:"team_id"`
	TeamName         string  `json:"team_name"`
	GoalsForHome     float64 `json:"goals_for_home"`
	GoalsForAway     float64 `json:"goals_for_away"`
	GoalsAgainstHome float64 `json:"goals_against_home"`
	GoalsAgainstAway float64 `json:"goals_against_away"`
}

// Validate checks that all averages are non-negative.
func (s *TeamStats) Validate() error {
	if s.TeamID <= 0 {
		return errors.New("team ID must be positive")
	}
	for _, v := range []float64{s.GoalsForHome, s.GoalsForAway, s.GoalsAgainstHome, s.GoalsAgainstAway} {
		if v < 0 || math.IsNaN(v) {
			return errors.New("goal averages must not be negative")
		}
	}
	return nil
}

// DeriveExpectedGoals averages each side's scoring rate at its venue with the
// opponent's conceding rate at the opposite venue. A side with no data at all
// gets fallback; floor is then applied to whatever is still unusable.
func DeriveExpectedGoals(home, away *TeamStats, fallback, floor float64) ExpectedGoals {
	eg := ExpectedGoals{Home: fallback, Away: fallback}
	if sum := home.GoalsForHome + away.GoalsAgainstAway; sum > 0 {
		eg.Home = sum / 2
	}
	if sum := away.GoalsForAway + home.GoalsAgainstHome; sum > 0 {
		eg.Away = sum / 2
	}
	return eg.Floor(floor)
}
