// Package catalog filters, sorts and pages product lists.
//
// Every function is pure: inputs are never mutated and no state is kept
// between calls, so they are safe for concurrent use.
package catalog

import (
	"slices"
	"strings"

	"github.com/niksmo/eco-catalog/internal/core/domain"
)

// IsVisible reports whether p passes every predicate of f.
func IsVisible(p domain.Product, f domain.FilterSpec) bool {
	if len(f.Materials) != 0 && !materialMatch(p.Material, f.Materials) {
		return false
	}

	if p.EffectivePrice() > f.MaxPrice {
		return false
	}

	if len(f.ImpactScores) != 0 &&
		!slices.Contains(f.ImpactScores, p.EffectiveImpactScore()) {
		return false
	}

	return true
}

// Filter returns the products visible under f in their original order.
func Filter(ps []domain.Product, f domain.FilterSpec) []domain.Product {
	vs := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		if IsVisible(p, f) {
			vs = append(vs, p)
		}
	}
	return vs
}

// CountVisible is len(Filter(ps, f)) without building the list.
func CountVisible(ps []domain.Product, f domain.FilterSpec) int {
	var n int
	for _, p := range ps {
		if IsVisible(p, f) {
			n++
		}
	}
	return n
}

// Apply filters ps by f and orders the result by key.
func Apply(
	ps []domain.Product, f domain.FilterSpec, key domain.SortKey,
) []domain.Product {
	return Sort(Filter(ps, f), key)
}

func materialMatch(material string, wanted []string) bool {
	material = normalizeMaterial(material)
	for _, w := range wanted {
		if strings.Contains(material, normalizeMaterial(w)) {
			return true
		}
	}
	return false
}

// normalizeMaterial lowercases s, treats hyphens as spaces and collapses
// runs of whitespace.
func normalizeMaterial(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
