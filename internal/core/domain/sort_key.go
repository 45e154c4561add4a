package domain

import "strings"

type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortImpact    SortKey = "impact"
	SortNewest    SortKey = "newest"
)

// SortKeys lists every supported key in presentation order.
var SortKeys = []SortKey{
	SortFeatured,
	SortPriceLow,
	SortPriceHigh,
	SortImpact,
	SortNewest,
}

// ParseSortKey resolves s to a known key. Unknown values yield
// [SortFeatured] and false.
func ParseSortKey(s string) (SortKey, bool) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SortKeys {
		if k == known {
			return k, true
		}
	}
	return SortFeatured, false
}

func (k SortKey) String() string {
	return string(k)
}
