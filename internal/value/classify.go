package value

import (
	"github.com/rewired-gh/evsignal/internal/logger"
	"github.com/rewired-gh/evsignal/internal/models"
)

// Thresholds parameterise the classification rules.
type Thresholds struct {
	SimpleHighMinEV   float64 `mapstructure:"simple_high_min_ev" json:"simple_high_min_ev"`
	SimpleHighMinProb float64 `mapstructure:"simple_high_min_prob" json:"simple_high_min_prob"`
	SimpleHighMinOdd  float64 `mapstructure:"simple_high_min_odd" json:"simple_high_min_odd"`
	SimpleHighMaxOdd  float64 `mapstructure:"simple_high_max_odd" json:"simple_high_max_odd"`
	HighRiskMinEV     float64 `mapstructure:"high_risk_min_ev" json:"high_risk_min_ev"`
	HighRiskMinOdd    float64 `mapstructure:"high_risk_min_odd" json:"high_risk_min_odd"`
	MultiLegMinEV     float64 `mapstructure:"multi_leg_min_ev" json:"multi_leg_min_ev"`
	MultiLegMaxEV     float64 `mapstructure:"multi_leg_max_ev" json:"multi_leg_max_ev"`
	MultiLegMinProb   float64 `mapstructure:"multi_leg_min_prob" json:"multi_leg_min_prob"`
}

// DefaultThresholds returns the documented policy values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SimpleHighMinEV:   0.10,
		SimpleHighMinProb: 0.40,
		SimpleHighMinOdd:  1.50,
		SimpleHighMaxOdd:  4.00,
		HighRiskMinEV:     0.15,
		HighRiskMinOdd:    5.00,
		MultiLegMinEV:     0.05,
		MultiLegMaxEV:     0.15,
		MultiLegMinProb:   0.30,
	}
}

// Rule assigns Tag when Match holds.
type Rule struct {
	Tag   models.Tag
	Match func(probability, odd, ev float64) bool
}

// Classifier evaluates its rules in order; the first match wins and
// NoValue is returned when none match.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds the standard rule list from t.
func NewClassifier(t Thresholds) *Classifier {
	return NewClassifierWithRules([]Rule{
		{
			Tag: models.TagSimpleHigh,
			Match: func(p, odd, ev float64) bool {
				return ev >= t.SimpleHighMinEV && p >= t.SimpleHighMinProb &&
					odd >= t.SimpleHighMinOdd && odd <= t.SimpleHighMaxOdd
			},
		},
		{
			Tag: models.TagHighRisk,
			Match: func(p, odd, ev float64) bool {
				return ev >= t.HighRiskMinEV && odd >= t.HighRiskMinOdd
			},
		},
		{
			Tag: models.TagMultiLeg,
			Match: func(p, odd, ev float64) bool {
				return ev >= t.MultiLegMinEV && ev <= t.MultiLegMaxEV && p >= t.MultiLegMinProb
			},
		},
		{
			Tag: models.TagSimpleLow,
			Match: func(p, odd, ev float64) bool {
				return ev > 0
			},
		},
	})
}

// NewClassifierWithRules uses an explicit rule list.
func NewClassifierWithRules(rules []Rule) *Classifier {
	r := make([]Rule, len(rules))
	copy(r, rules)
	return &Classifier{rules: r}
}

// Classify returns the tag of the first matching rule.
func (c *Classifier) Classify(probability, odd, ev float64) models.Tag {
	for _, r := range c.rules {
		if r.Match(probability, odd, ev) {
			logger.Debug("Classified p=%.4f odd=%.2f ev=%.4f as %s", probability, odd, ev, r.Tag)
			return r.Tag
		}
	}
	return models.TagNoValue
}

// Rules returns the tags in evaluation order.
func (c *Classifier) Rules() []models.Tag {
	tags := make([]models.Tag, len(c.rules))
	for i, r := range c.rules {
		tags[i] = r.Tag
	}
	return tags
}
