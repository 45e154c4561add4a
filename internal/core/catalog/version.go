package catalog

import (
	"fmt"
	"hash/fnv"

	"github.com/niksmo/eco-catalog/internal/core/domain"
)

// Version fingerprints ps, order included. Equal catalogs get equal
// versions in every process, so the version can key a shared cache.
func Version(ps []domain.Product) uint64 {
	h := fnv.New64a()
	for _, p := range ps {
		fmt.Fprintf(h, "%q|%q|%q|%d|%d|%t|%t\n",
			p.ID, p.Name, p.Material, p.Price,
			p.ImpactScore, p.IsNew, p.IsLimited,
		)
	}
	return h.Sum64()
}
