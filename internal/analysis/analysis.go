// Package analysis runs the full pricing pipeline for a fixture:
//
//	team statistics -> expected goals -> scoreline distribution -> market
//	probabilities -> candidate bets for every supplied odd
//
// Bets with a positive expected value are returned separately, best first.
// The pipeline holds no state between calls; AnalyzeBatch prices several
// fixtures concurrently.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rewired-gh/evsignal/internal/logger"
	"github.com/rewired-gh/evsignal/internal/markets"
	"github.com/rewired-gh/evsignal/internal/models"
	"github.com/rewired-gh/evsignal/internal/poisson"
	"github.com/rewired-gh/evsignal/internal/value"
)

var (
	// ErrSameTeam is returned when a fixture has the same team on both sides.
	ErrSameTeam = errors.New("home and away teams must differ")
	// ErrUnknownMarket is returned for an odd quoted on a market that is not modelled.
	ErrUnknownMarket = errors.New("unknown market")
)

// StatsProvider supplies per-venue goal averages for a team.
type StatsProvider interface {
	FetchTeamStatistics(ctx context.Context, teamID int) (*models.TeamStats, error)
}

// Options configures the model.
type Options struct {
	MaxGoals    int
	RateFloor   float64
	DefaultRate float64
	Lines       []float64
}

// DefaultOptions returns the standard model settings.
func DefaultOptions() Options {
	return Options{
		MaxGoals:    poisson.DefaultMaxGoals,
		RateFloor:   models.DefaultRateFloor,
		DefaultRate: 1.0,
		Lines:       markets.DefaultLines,
	}
}

// Fixture identifies the two sides of a match.
type Fixture struct {
	MatchID    string `json:"match_id"`
	HomeTeamID int    `json:"home_team_id"`
	AwayTeamID int    `json:"away_team_id"`
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
}

// ID returns MatchID, or one derived from the team IDs.
func (f Fixture) ID() string {
	if f.MatchID != "" {
		return f.MatchID
	}
	return fmt.Sprintf("%d-%d", f.HomeTeamID, f.AwayTeamID)
}

// MatchAnalysis is the priced result for one fixture.
type MatchAnalysis struct {
	MatchID       string                `json:"match_id"`
	HomeTeam      string                `json:"home_team,omitempty"`
	AwayTeam      string                `json:"away_team,omitempty"`
	Rates         models.ExpectedGoals  `json:"rates"`
	Probabilities markets.Probabilities `json:"probabilities"`
	TailMass      float64               `json:"tail_mass"`
	MostLikely    poisson.Cell          `json:"most_likely"`
	Bets          []models.CandidateBet `json:"bets"`
	ValueBets     []models.CandidateBet `json:"value_bets"`
	AnalyzedAt    time.Time             `json:"analyzed_at"`

	// Distribution is the scoreline grid the probabilities were summed from.
	Distribution *poisson.Distribution `json:"-"`
}

// Analyzer prices fixtures.
type Analyzer struct {
	stats     StatsProvider
	evaluator *value.Evaluator
	opts      Options
}

// New creates an Analyzer. stats may be nil when only AnalyzeRates is used.
func New(stats StatsProvider, evaluator *value.Evaluator, opts Options) *Analyzer {
	if evaluator == nil {
		evaluator = value.NewEvaluator(nil, 0)
	}
	if opts.RateFloor <= 0 {
		opts.RateFloor = models.DefaultRateFloor
	}
	return &Analyzer{stats: stats, evaluator: evaluator, opts: opts}
}

// Markets lists the markets the analyzer can price.
func (a *Analyzer) Markets() []string {
	return markets.Names(a.opts.Lines...)
}

// AnalyzeMatch fetches both teams' statistics and prices odds.
func (a *Analyzer) AnalyzeMatch(ctx context.Context, f Fixture, odds map[string]float64) (*MatchAnalysis, error) {
	if f.HomeTeamID == f.AwayTeamID {
		return nil, ErrSameTeam
	}
	if a.stats == nil {
		return nil, errors.New("no statistics provider configured")
	}

	home, err := a.stats.FetchTeamStatistics(ctx, f.HomeTeamID)
	if err != nil {
		return nil, fmt.Errorf("home team: %w", err)
	}
	away, err := a.stats.FetchTeamStatistics(ctx, f.AwayTeamID)
	if err != nil {
		return nil, fmt.Errorf("away team: %w", err)
	}

	rates := models.DeriveExpectedGoals(home, away, a.opts.DefaultRate, a.opts.RateFloor)
	logger.Debug("Expected goals for %s: home=%.2f away=%.2f", f.ID(), rates.Home, rates.Away)

	result, err := a.AnalyzeRates(f.ID(), rates, odds)
	if err != nil {
		return nil, err
	}
	result.HomeTeam = nameOr(f.HomeTeam, home.TeamName)
	result.AwayTeam = nameOr(f.AwayTeam, away.TeamName)
	return result, nil
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

// AnalyzeRates prices odds from known expected-goal rates. Odds of zero or
// less are placeholders and produce no bet.
func (a *Analyzer) AnalyzeRates(matchID string, rates models.ExpectedGoals, odds map[string]float64) (*MatchAnalysis, error) {
	rates = rates.Floor(a.opts.RateFloor)

	dist, err := poisson.BuildDistribution(rates.Home, rates.Away, a.opts.MaxGoals)
	if err != nil {
		return nil, fmt.Errorf("failed to build distribution: %w", err)
	}
	probs := markets.Aggregate(dist, a.opts.Lines...)

	for market := range odds {
		if !probs.Has(market) {
			return nil, fmt.Errorf("%q: %w", market, ErrUnknownMarket)
		}
	}

	result := &MatchAnalysis{
		MatchID:       matchID,
		Rates:         rates,
		Probabilities: probs,
		TailMass:      dist.TailMass(),
		MostLikely:    dist.MostLikelyScore(),
		Distribution:  dist,
		Bets:          []models.CandidateBet{},
		ValueBets:     []models.CandidateBet{},
		AnalyzedAt:    time.Now(),
	}

	skipped := 0
	for _, market := range markets.Names(a.opts.Lines...) {
		odd, ok := odds[market]
		if !ok {
			continue
		}
		if odd <= 0 {
			skipped++
			continue
		}
		bet := a.evaluator.Evaluate(matchID, market, probs[market], odd)
		result.Bets = append(result.Bets, bet)
		if bet.PositiveEV() {
			result.ValueBets = append(result.ValueBets, bet)
		}
	}

	sort.SliceStable(result.ValueBets, func(i, j int) bool {
		return result.ValueBets[i].EV > result.ValueBets[j].EV
	})

	logger.Debug("Analyzed %s: %d priced, %d with value, %d placeholders, tail mass %.5f",
		matchID, len(result.Bets), len(result.ValueBets), skipped, result.TailMass)

	return result, nil
}

// Request is one fixture in a batch.
type Request struct {
	Fixture Fixture            `json:"fixture"`
	Odds    map[string]float64 `json:"odds"`
}

// AnalysisError is a per-fixture failure in a batch.
type AnalysisError struct {
	MatchID string
	Err     error
}

func (e AnalysisError) Error() string {
	return fmt.Sprintf("analysis error for match %s: %v", e.MatchID, e.Err)
}

func (e AnalysisError) Unwrap() error {
	return e.Err
}

// AnalyzeBatch prices several fixtures concurrently. Results keep the request
// order; failed fixtures leave a nil entry and are reported in the error list.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reqs []Request) ([]*MatchAnalysis, []AnalysisError) {
	results := make([]*MatchAnalysis, len(reqs))
	errs := make([]error, len(reqs))

	var wg sync.WaitGroup
	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = a.AnalyzeMatch(ctx, reqs[i].Fixture, reqs[i].Odds)
		}(i)
	}
	wg.Wait()

	var failures []AnalysisError
	for i, err := range errs {
		if err != nil {
			failures = append(failures, AnalysisError{MatchID: reqs[i].Fixture.ID(), Err: err})
		}
	}
	return results, failures
}
