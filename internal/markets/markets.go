// Package markets reduces a scoreline distribution to betting-market
// probabilities: match result (1X2), total goals over/under and both teams
// to score.
//
// Over and BTTS-yes are summed from the grid; under and BTTS-no are their
// complements, so each pair sums to exactly 1 even though the truncated grid
// does not. Home, draw and away partition the grid and sum to its total mass.
package markets

import (
	"math"
	"sort"
	"strconv"

	"github.com/rewired-gh/evsignal/internal/poisson"
)

// Market names.
const (
	HomeWin = "home_win"
	Draw    = "draw"
	AwayWin = "away_win"
	BTTSYes = "btts_yes"
	BTTSNo  = "btts_no"
)

// MandatoryLine is always aggregated, whatever lines the caller configures.
const MandatoryLine = 2.5

// DefaultLines are the total-goals thresholds aggregated by default.
var DefaultLines = []float64{1.5, 2.5, 3.5}

// Probabilities maps a market name to its model probability.
type Probabilities map[string]float64

// OverKey returns the market name for "more than line goals", e.g. over_2.5.
func OverKey(line float64) string {
	return "over_" + strconv.FormatFloat(line, 'f', -1, 64)
}

// UnderKey returns the market name for "fewer than line goals", e.g. under_2.5.
func UnderKey(line float64) string {
	return "under_" + strconv.FormatFloat(line, 'f', -1, 64)
}

// normalizeLines adds the mandatory line, drops duplicates and sorts.
func normalizeLines(lines []float64) []float64 {
	seen := map[float64]bool{MandatoryLine: true}
	out := []float64{MandatoryLine}
	for _, l := range lines {
		if l < 0 || math.IsNaN(l) || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Float64s(out)
	return out
}

// Names lists every market Aggregate produces for lines, in display order.
func Names(lines ...float64) []string {
	names := []string{HomeWin, Draw, AwayWin}
	for _, l := range normalizeLines(lines) {
		names = append(names, OverKey(l), UnderKey(l))
	}
	return append(names, BTTSYes, BTTSNo)
}

// Aggregate sums the distribution into market probabilities. With no lines
// only the mandatory 2.5 total is produced.
func Aggregate(d *poisson.Distribution, lines ...float64) Probabilities {
	lines = normalizeLines(lines)
	overs := make([]float64, len(lines))

	var home, draw, away, btts float64
	for _, c := range d.Cells {
		switch {
		case c.Home > c.Away:
			home += c.Probability
		case c.Home == c.Away:
			draw += c.Probability
		default:
			away += c.Probability
		}
		if c.Home > 0 && c.Away > 0 {
			btts += c.Probability
		}
		total := float64(c.Home + c.Away)
		for i, l := range lines {
			if total > l {
				overs[i] += c.Probability
			}
		}
	}

	p := Probabilities{
		HomeWin: home,
		Draw:    draw,
		AwayWin: away,
		BTTSYes: btts,
		BTTSNo:  1 - btts,
	}
	for i, l := range lines {
		p[OverKey(l)] = overs[i]
		p[UnderKey(l)] = 1 - overs[i]
	}
	return p
}

// Has reports whether the market is present.
func (p Probabilities) Has(market string) bool {
	_, ok := p[market]
	return ok
}

// FairOdd is the decimal odd with zero margin for probability prob.
func FairOdd(prob float64) float64 {
	if prob <= 0 {
		return math.Inf(1)
	}
	return 1 / prob
}
