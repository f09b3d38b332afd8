package main

import (
	"fmt"
	"strings"

	"github.com/rewired-gh/evsignal/internal/analysis"
	"github.com/rewired-gh/evsignal/internal/markets"
	"github.com/rewired-gh/evsignal/internal/models"
	"github.com/rewired-gh/evsignal/internal/poisson"
)

func printHeader(r *analysis.MatchAnalysis, maxGoals int) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("SCORELINE MODEL  xG %.2f x %.2f, scores 0-%d per side\n", r.Rates.Home, r.Rates.Away, maxGoals)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Most likely score: %d-%d (%.2f%%)\n", r.MostLikely.Home, r.MostLikely.Away, r.MostLikely.Probability*100)
	fmt.Printf("Mass outside grid: %.4f%%\n", r.TailMass*100)
}

// printScoreGrid prints the top-left corner of the distribution, home goals
// down the rows.
func printScoreGrid(d *poisson.Distribution, size int) {
	if size > d.MaxGoals {
		size = d.MaxGoals
	}
	fmt.Println("\nSCORE GRID (%):")
	fmt.Print("  H\\A")
	for a := 0; a <= size; a++ {
		fmt.Printf("%7d", a)
	}
	fmt.Println()
	for h := 0; h <= size; h++ {
		fmt.Printf("  %3d", h)
		for a := 0; a <= size; a++ {
			fmt.Printf("%7.2f", d.At(h, a)*100)
		}
		fmt.Println()
	}
}

func printMarkets(names []string, r *analysis.MatchAnalysis) {
	priced := make(map[string]models.CandidateBet, len(r.Bets))
	for _, b := range r.Bets {
		priced[b.Market] = b
	}

	fmt.Println("\nMARKETS:")
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("  %-10s %8s %9s %7s %8s %7s  %s\n", "market", "prob", "fair odd", "odd", "EV", "kelly", "tag")
	for _, name := range names {
		p := r.Probabilities[name]
		b, ok := priced[name]
		if !ok {
			fmt.Printf("  %-10s %7.2f%% %9.2f\n", name, p*100, markets.FairOdd(p))
			continue
		}
		fmt.Printf("  %-10s %7.2f%% %9.2f %7.2f %+7.2f%% %6.2f%%  %s\n",
			name, p*100, markets.FairOdd(p), b.Odd, b.EV*100, b.Kelly*100, b.Tag)
	}
}

func printValueBets(bets []models.CandidateBet) {
	fmt.Println("\nVALUE BETS (best first):")
	fmt.Println(strings.Repeat("-", 80))
	if len(bets) == 0 {
		fmt.Println("  none")
		return
	}
	for i, b := range bets {
		fmt.Printf("  %d. %-10s @ %.2f  EV %+.2f%%  [%s]\n", i+1, b.Market, b.Odd, b.EV*100, b.Tag)
	}
}

func printPlan(plan *models.BankrollPlan) {
	fmt.Printf("\nBANKROLL PLAN (%s, %s):\n", plan.Profile, plan.Total.StringFixed(2))
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("  simple    %10s\n", plan.Budgets.Simple.StringFixed(2))
	fmt.Printf("  combined  %10s\n", plan.Budgets.Combined.StringFixed(2))
	fmt.Printf("  high risk %10s\n", plan.Budgets.HighRisk.StringFixed(2))

	for _, s := range plan.Stakes {
		fmt.Printf("    %-9s %-10s %10s\n", s.Bucket, s.Market, s.Amount.StringFixed(2))
	}
	if plan.Combination != nil {
		c := plan.Combination
		fmt.Printf("  accumulator: %d legs @ %.2f, p %.2f%%, EV %+.2f%%\n", c.Legs, c.Odd, c.Probability*100, c.EV*100)
		if c.SharedMatch {
			fmt.Println("  warning: legs share a match, the combined probability ignores their correlation")
		}
	}
	if plan.Excluded > 0 {
		fmt.Printf("  %d bets without value excluded\n", plan.Excluded)
	}
}
