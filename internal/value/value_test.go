package value

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/evsignal/internal/models"
)

func TestExpectedValue(t *testing.T) {
	assert.InDelta(t, 0.125, ExpectedValue(0.45, 2.50), 1e-12)
	assert.InDelta(t, -0.28, ExpectedValue(0.12, 6.00), 1e-12)
	assert.Equal(t, 0.0, ExpectedValue(0.45, 0))
	assert.Equal(t, 0.0, ExpectedValue(0.45, -3))
}

func TestExpectedValue_SignMatchesEdge(t *testing.T) {
	for _, p := range []float64{0.01, 0.1, 0.25, 0.333, 0.5, 0.77, 1} {
		for _, odd := range []float64{0.5, 1, 1.01, 1.5, 2, 3.3, 7, 21} {
			ev := ExpectedValue(p, odd)
			assert.Equal(t, p*odd > 1, ev > 0, "p=%v odd=%v", p, odd)
		}
	}
}

func TestKellyFraction(t *testing.T) {
	assert.InDelta(t, 0.125/1.5, KellyFraction(0.45, 2.5, DefaultKellyCap), 1e-12)
	assert.Equal(t, DefaultKellyCap, KellyFraction(0.9, 3.0, DefaultKellyCap))
	assert.Equal(t, 0.0, KellyFraction(0.12, 6.0, DefaultKellyCap))
	assert.Equal(t, 0.0, KellyFraction(0.99, 1.0, DefaultKellyCap))
	assert.Equal(t, 0.0, KellyFraction(0.99, 0.8, DefaultKellyCap))
}

func TestKellyFraction_AlwaysWithinCap(t *testing.T) {
	for p := 0.0; p <= 1.0; p += 0.05 {
		for _, odd := range []float64{1.001, 1.1, 1.5, 2, 2.75, 4, 10, 50} {
			k := KellyFraction(p, odd, DefaultKellyCap)
			assert.GreaterOrEqual(t, k, 0.0)
			assert.LessOrEqual(t, k, 0.25)
		}
	}
}

func TestValidateOdd(t *testing.T) {
	assert.NoError(t, ValidateOdd(1.01))
	for _, odd := range []float64{1, 0.5, 0, -2} {
		assert.True(t, errors.Is(ValidateOdd(odd), ErrInvalidOdd), "odd %v", odd)
	}
}

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	tests := []struct {
		name string
		p    float64
		odd  float64
		ev   float64
		want models.Tag
	}{
		{"scenario B", 0.45, 2.50, 0.125, models.TagSimpleHigh},
		{"scenario C", 0.12, 6.00, -0.28, models.TagNoValue},
		{"upper odd bound inclusive", 0.45, 4.00, 0.80, models.TagSimpleHigh},
		{"lower odd bound inclusive", 0.70, 1.50, 0.10, models.TagSimpleHigh},
		{"longshot", 0.20, 6.00, 0.20, models.TagHighRisk},
		{"confident but above odd range", 0.41, 5.00, 1.05, models.TagHighRisk},
		{"simple high wins over multi leg", 0.50, 2.30, 0.15, models.TagSimpleHigh},
		{"modest edge", 0.35, 3.10, 0.085, models.TagMultiLeg},
		{"multi leg upper bound", 0.38, 3.00, 0.15, models.TagMultiLeg},
		{"modest edge low probability", 0.25, 4.20, 0.05, models.TagSimpleLow},
		{"thin edge", 0.60, 1.70, 0.02, models.TagSimpleLow},
		{"high risk ev too small", 0.18, 6.00, 0.08, models.TagSimpleLow},
		{"zero ev", 0.50, 2.00, 0, models.TagNoValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.p, tt.odd, tt.ev))
		})
	}
}

func TestClassifier_RuleOrder(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	assert.Equal(t, []models.Tag{
		models.TagSimpleHigh, models.TagHighRisk, models.TagMultiLeg, models.TagSimpleLow,
	}, c.Rules())
}

func TestClassifier_TunedThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.HighRiskMinOdd = 8.0
	c := NewClassifier(th)
	assert.Equal(t, models.TagSimpleLow, c.Classify(0.20, 6.00, 0.20))
	assert.Equal(t, models.TagHighRisk, c.Classify(0.15, 9.00, 0.35))
}

func TestClassifier_CustomRules(t *testing.T) {
	rules := []Rule{{Tag: models.TagHighRisk, Match: func(p, odd, ev float64) bool { return odd > 10 }}}
	c := NewClassifierWithRules(rules)
	rules[0].Tag = models.TagSimpleLow // caller's slice is copied

	assert.Equal(t, models.TagHighRisk, c.Classify(0.05, 11, -0.45))
	assert.Equal(t, models.TagNoValue, c.Classify(0.9, 2, 0.8))
}

func TestEvaluator_Evaluate(t *testing.T) {
	e := NewEvaluator(nil, 0)
	fixed := time.Date(2025, 10, 25, 17, 30, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	bet := e.Evaluate("flu-int", "home_win", 0.45, 2.50)
	require.NoError(t, bet.Validate())
	assert.Equal(t, "flu-int", bet.MatchID)
	assert.Equal(t, "home_win", bet.Market)
	assert.InDelta(t, 0.125, bet.EV, 1e-12)
	assert.InDelta(t, 0.125/1.5, bet.Kelly, 1e-12)
	assert.Equal(t, models.TagSimpleHigh, bet.Tag)
	assert.Equal(t, fixed, bet.CreatedAt)
	assert.Equal(t, DefaultKellyCap, e.KellyCap())

	again := e.Evaluate("flu-int", "home_win", 0.45, 2.60)
	assert.NotEqual(t, bet.ID, again.ID, "a new odd produces a new bet")
	assert.InDelta(t, 0.125, bet.EV, 1e-12, "original bet is unchanged")
}
