package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Tag is the risk/utility bucket assigned to a candidate bet.
type Tag string

const (
	TagSimpleHigh Tag = "simple_high"
	TagHighRisk   Tag = "high_risk"
	TagMultiLeg   Tag = "multi_leg"
	TagSimpleLow  Tag = "simple_low"
	TagNoValue    Tag = "no_value"
)

// Bucket is a bankroll pool.
type Bucket string

const (
	BucketSimple   Bucket = "simple"
	BucketCombined Bucket = "combined"
	BucketHighRisk Bucket = "high_risk"
)

// Bucket returns the pool a tag is staked from. NoValue bets have no pool.
func (t Tag) Bucket() (Bucket, bool) {
	switch t {
	case TagSimpleHigh, TagSimpleLow:
		return BucketSimple, true
	case TagMultiLeg:
		return BucketCombined, true
	case TagHighRisk:
		return BucketHighRisk, true
	default:
		return "", false
	}
}

// Valid reports whether t is one of the known tags.
func (t Tag) Valid() bool {
	switch t {
	case TagSimpleHigh, TagHighRisk, TagMultiLeg, TagSimpleLow, TagNoValue:
		return true
	}
	return false
}

// CandidateBet is a market price evaluated against the model probability.
type CandidateBet struct {
	ID          string    `json:"id"`
	MatchID     string    `json:"match_id"`
	Market      string    `json:"market"`
	Probability float64   `json:"probability"`
	Odd         float64   `json:"odd"`
	EV          float64   `json:"ev"`
	Kelly       float64   `json:"kelly"`
	Tag         Tag       `json:"tag"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks that all candidate bet fields are valid.
func (b *CandidateBet) Validate() error {
	if b.ID == "" {
		return errors.New("bet ID must not be empty")
	}
	if b.Market == "" {
		return errors.New("market must not be empty")
	}
	if b.Probability < 0.0 || b.Probability > 1.0 || math.IsNaN(b.Probability) {
		return errors.New("probability must be between 0.0 and 1.0")
	}
	if b.Odd <= 0 || math.IsNaN(b.Odd) || math.IsInf(b.Odd, 0) {
		return errors.New("odd must be positive")
	}
	if b.Kelly < 0 {
		return errors.New("kelly fraction must not be negative")
	}
	if !b.Tag.Valid() {
		return fmt.Errorf("unknown tag %q", b.Tag)
	}
	return nil
}

// PositiveEV reports whether the bet has a positive expected return.
func (b *CandidateBet) PositiveEV() bool {
	return b.EV > 0
}
