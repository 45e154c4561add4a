package catalog

import (
	"fmt"

	"github.com/niksmo/eco-catalog/internal/core/domain"
)

const maxPageSize = 100

// A PageResult is one page of products with its 1-based number and the
// page count.
type PageResult struct {
	Items  []domain.Product
	Number int
	Pages  int
}

// Paginate returns the requested 1-based page of ps.
//
// Size falls back to [domain.DefaultPageSize] when not positive and is
// capped at 100. Number is clamped into [1, Pages]. An empty list has one
// empty page.
func Paginate(ps []domain.Product, page domain.Page) PageResult {
	size := page.Size
	if size <= 0 {
		size = domain.DefaultPageSize
	}
	size = min(size, maxPageSize)

	pages := max((len(ps)+size-1)/size, 1)
	number := clamp(page.Number, 1, pages)

	start := min((number-1)*size, len(ps))
	end := min(start+size, len(ps))

	items := make([]domain.Product, end-start)
	copy(items, ps[start:end])

	return PageResult{Items: items, Number: number, Pages: pages}
}

// ResultsLabel renders the results counter shown above the grid.
func ResultsLabel(visible, total int) string {
	return fmt.Sprintf("Showing %d of %d products", visible, total)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
