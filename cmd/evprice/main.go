// Command evprice prices a single fixture offline from expected-goal rates and
// prints the market table, the value bets and a bankroll plan.
//
//	evprice -home 1.5 -away 1.1 -odds home_win=2.5,draw=3.2,over_2.5=1.9 -bankroll 1000
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/evsignal/internal/analysis"
	"github.com/rewired-gh/evsignal/internal/bankroll"
	"github.com/rewired-gh/evsignal/internal/config"
	"github.com/rewired-gh/evsignal/internal/logger"
	"github.com/rewired-gh/evsignal/internal/models"
	"github.com/rewired-gh/evsignal/internal/value"
)

var (
	configPath = flag.String("config", "", "Optional path to configuration file")
	homeRate   = flag.Float64("home", 1.0, "Home expected goals")
	awayRate   = flag.Float64("away", 1.0, "Away expected goals")
	oddsFlag   = flag.String("odds", "", "Comma-separated market=odd pairs")
	bankFlag   = flag.String("bankroll", "0", "Bankroll to allocate over the value bets")
	profile    = flag.String("profile", "", "Risk profile: conservative, balanced or aggressive")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	odds, err := parseOdds(*oddsFlag)
	if err != nil {
		return err
	}
	total, err := decimal.NewFromString(*bankFlag)
	if err != nil {
		return fmt.Errorf("invalid bankroll %q: %w", *bankFlag, err)
	}
	riskProfile := cfg.DefaultProfile()
	if *profile != "" {
		if riskProfile, err = models.ParseRiskProfile(*profile); err != nil {
			return err
		}
	}

	evaluator := value.NewEvaluator(value.NewClassifier(cfg.Value.Thresholds), cfg.Value.KellyCap)
	analyzer := analysis.New(nil, evaluator, analysis.Options{
		MaxGoals:    cfg.Model.MaxGoals,
		RateFloor:   cfg.Model.RateFloor,
		DefaultRate: cfg.Model.DefaultRate,
		Lines:       cfg.Model.Lines,
	})

	rates := models.ExpectedGoals{Home: *homeRate, Away: *awayRate}
	result, err := analyzer.AnalyzeRates("cli", rates, odds)
	if err != nil {
		return err
	}

	printHeader(result, cfg.Model.MaxGoals)
	printScoreGrid(result.Distribution, 5)
	printMarkets(analyzer.Markets(), result)
	printValueBets(result.ValueBets)

	if total.IsPositive() && len(result.ValueBets) > 0 {
		allocator, err := bankroll.NewAllocator(cfg.ProfileTable())
		if err != nil {
			return err
		}
		plan, err := allocator.Allocate(total, result.ValueBets, riskProfile)
		if err != nil {
			return err
		}
		printPlan(plan)
	}
	return nil
}

// parseOdds reads "market=odd" pairs separated by commas.
func parseOdds(s string) (map[string]float64, error) {
	odds := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		market, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid odds entry %q, want market=odd", pair)
		}
		odd, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid odd for %s: %w", market, err)
		}
		odds[strings.ToLower(strings.TrimSpace(market))] = odd
	}
	return odds, nil
}
