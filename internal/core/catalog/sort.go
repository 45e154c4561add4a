package catalog

import (
	"cmp"
	"slices"

	"github.com/niksmo/eco-catalog/internal/core/domain"
)

// Sort returns a copy of ps ordered by key. Ties keep their input order.
// Featured and unknown keys return the input order unchanged.
func Sort(ps []domain.Product, key domain.SortKey) []domain.Product {
	out := slices.Clone(ps)
	if out == nil {
		out = []domain.Product{}
	}

	cmpFn := compareFunc(key)
	if cmpFn == nil {
		return out
	}

	slices.SortStableFunc(out, cmpFn)
	return out
}

func compareFunc(key domain.SortKey) func(a, b domain.Product) int {
	switch key {
	case domain.SortPriceLow:
		return func(a, b domain.Product) int {
			return cmp.Compare(a.EffectivePrice(), b.EffectivePrice())
		}
	case domain.SortPriceHigh:
		return func(a, b domain.Product) int {
			return cmp.Compare(b.EffectivePrice(), a.EffectivePrice())
		}
	case domain.SortImpact:
		return func(a, b domain.Product) int {
			return cmp.Compare(b.EffectiveImpactScore(), a.EffectiveImpactScore())
		}
	case domain.SortNewest:
		return func(a, b domain.Product) int {
			return cmp.Compare(b.Newness(), a.Newness())
		}
	default:
		return nil
	}
}
