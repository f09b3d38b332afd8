// Package poisson builds scoreline distributions for a football match from
// the two sides' expected-goal rates.
//
// Goals for each side are modelled as independent Poisson variables. The
// independence is a simplification: real matches show some correlation between
// the two scores, most visibly in low-scoring draws, and no correction such as
// Dixon-Coles is applied here.
//
// The grid is truncated at MaxGoals per side and is not renormalised, so the
// cell probabilities sum to slightly less than 1. TailMass reports the omitted
// mass; for MaxGoals=7 and rates below 4 it stays under 0.5%.
package poisson

import (
	"errors"
	"fmt"
	"math"

	"github.com/rewired-gh/evsignal/internal/logger"
	"github.com/rewired-gh/evsignal/internal/models"
)

// DefaultMaxGoals is the per-side truncation ceiling.
const DefaultMaxGoals = 7

// ErrInvalidMaxGoals is returned for a negative truncation ceiling.
var ErrInvalidMaxGoals = errors.New("max goals must not be negative")

// Cell is the joint probability of one exact scoreline.
type Cell struct {
	Home        int     `json:"home_goals"`
	Away        int     `json:"away_goals"`
	Probability float64 `json:"probability"`
}

// Distribution is the truncated joint scoreline distribution. Cells are
// ordered home-major: index = home*(MaxGoals+1) + away.
type Distribution struct {
	MaxGoals int                  `json:"max_goals"`
	Rates    models.ExpectedGoals `json:"rates"`
	Cells    []Cell               `json:"cells"`
}

// PMF returns P(X = k) for X ~ Poisson(lambda). It is evaluated in log space
// so very large rates give 0 instead of Inf*0.
func PMF(k int, lambda float64) float64 {
	if k < 0 {
		return 0
	}
	if lambda <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	lg, _ := math.Lgamma(float64(k + 1))
	return math.Exp(float64(k)*math.Log(lambda) - lambda - lg)
}

// BuildDistribution computes the joint distribution for h, a in [0, maxGoals].
// A rate that is not strictly positive is replaced by models.DefaultRateFloor
// rather than collapsing the side to a certain zero-goal outcome.
func BuildDistribution(homeRate, awayRate float64, maxGoals int) (*Distribution, error) {
	if maxGoals < 0 {
		return nil, fmt.Errorf("max goals %d: %w", maxGoals, ErrInvalidMaxGoals)
	}

	rates := models.ExpectedGoals{Home: homeRate, Away: awayRate}
	if err := rates.Validate(); err != nil {
		logger.Debug("Substituting rate floor %.2f: %v", models.DefaultRateFloor, err)
		rates = rates.Floor(models.DefaultRateFloor)
	}

	n := maxGoals + 1
	homeProbs := make([]float64, n)
	awayProbs := make([]float64, n)
	for k := 0; k < n; k++ {
		homeProbs[k] = PMF(k, rates.Home)
		awayProbs[k] = PMF(k, rates.Away)
	}

	cells := make([]Cell, 0, n*n)
	for h := 0; h < n; h++ {
		for a := 0; a < n; a++ {
			cells = append(cells, Cell{Home: h, Away: a, Probability: homeProbs[h] * awayProbs[a]})
		}
	}

	return &Distribution{MaxGoals: maxGoals, Rates: rates, Cells: cells}, nil
}

// At returns the probability of the exact score h-a, or 0 outside the grid.
func (d *Distribution) At(h, a int) float64 {
	if h < 0 || a < 0 || h > d.MaxGoals || a > d.MaxGoals {
		return 0
	}
	return d.Cells[h*(d.MaxGoals+1)+a].Probability
}

// TotalMass is the sum over all cells. It is at most 1.
func (d *Distribution) TotalMass() float64 {
	total := 0.0
	for _, c := range d.Cells {
		total += c.Probability
	}
	return total
}

// TailMass is the probability of a scoreline beyond the grid.
func (d *Distribution) TailMass() float64 {
	return 1 - d.TotalMass()
}

// HomeMarginal returns P(home goals = k) summed over the grid.
func (d *Distribution) HomeMarginal() []float64 {
	m := make([]float64, d.MaxGoals+1)
	for _, c := range d.Cells {
		m[c.Home] += c.Probability
	}
	return m
}

// AwayMarginal returns P(away goals = k) summed over the grid.
func (d *Distribution) AwayMarginal() []float64 {
	m := make([]float64, d.MaxGoals+1)
	for _, c := range d.Cells {
		m[c.Away] += c.Probability
	}
	return m
}

// MostLikelyScore returns the single most probable scoreline. Ties keep the
// first cell in home-major order.
func (d *Distribution) MostLikelyScore() Cell {
	best := Cell{}
	for _, c := range d.Cells {
		if c.Probability > best.Probability {
			best = c
		}
	}
	return best
}
