package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultMaxPrice is the price ceiling used when no bound is requested.
	DefaultMaxPrice = 500

	// ResetMaxPrice is the price ceiling restored by resetting the filters.
	ResetMaxPrice = 250

	// NeutralImpactScore substitutes a missing or out of range impact score.
	NeutralImpactScore = 3

	MinImpactScore = 1
	MaxImpactScore = 5

	DefaultPageSize = 12
)

type Product struct {
	ID          string
	Name        string
	Material    string
	Price       int
	ImpactScore int
	IsNew       bool
	IsLimited   bool
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidProduct)
	}
	return nil
}

// EffectivePrice returns the price with negative values clamped to zero.
func (p Product) EffectivePrice() int {
	if p.Price < 0 {
		return 0
	}
	return p.Price
}

// EffectiveImpactScore returns the impact score, or [NeutralImpactScore]
// when the stored value is outside [MinImpactScore, MaxImpactScore].
func (p Product) EffectiveImpactScore() int {
	if p.ImpactScore < MinImpactScore || p.ImpactScore > MaxImpactScore {
		return NeutralImpactScore
	}
	return p.ImpactScore
}

// Newness ranks new arrivals above limited editions above the rest.
func (p Product) Newness() float64 {
	switch {
	case p.IsNew:
		return 1
	case p.IsLimited:
		return 0.5
	default:
		return 0
	}
}

// A FilterSpec describes which products are visible.
//
// Empty Materials or ImpactScores mean no restriction. MaxPrice is inclusive.
type FilterSpec struct {
	Materials    []string
	MaxPrice     int
	ImpactScores []int
}

func NewFilterSpec() FilterSpec {
	return FilterSpec{MaxPrice: DefaultMaxPrice}
}

func ResetFilterSpec() FilterSpec {
	return FilterSpec{MaxPrice: ResetMaxPrice}
}

type Page struct {
	Number int
	Size   int
}

type Query struct {
	Filter FilterSpec
	Sort   SortKey
	Page   Page
}

type QueryResult struct {
	Items   []Product
	Visible int
	Total   int
	Page    int
	Pages   int
}

// A QueryEvent records an answered catalog query.
type QueryEvent struct {
	ID         string
	Filter     FilterSpec
	Sort       SortKey
	Visible    int
	OccurredAt time.Time
}

type SortStat struct {
	Sort  SortKey
	Count int64
}
