package port

import (
	"context"

	"github.com/niksmo/eco-catalog/internal/core/domain"
)

type ProductsQuerier interface {
	QueryProducts(context.Context, domain.Query) (domain.QueryResult, error)
}

type ProductsCounter interface {
	CountProducts(context.Context, domain.FilterSpec) (visible, total int, err error)
}

type ProductsSender interface {
	SendProducts(context.Context, []domain.Product) error
}

type ProductsSaver interface {
	SaveProducts(context.Context, []domain.Product) error
}

type SortStatsReader interface {
	SortStats(context.Context) ([]domain.SortStat, error)
}

type ProductsProducer interface {
	ProduceProducts(context.Context, []domain.Product) error
}

type ProductsStorage interface {
	StoreProducts(context.Context, []domain.Product) error
	ReadProducts(context.Context) ([]domain.Product, error)
}

type QueryEventEmitter interface {
	EmitQuery(context.Context, domain.QueryEvent) error
}

// A QueryCache keeps answered queries for one catalog version.
//
// Get reports a miss with ok == false and a nil error.
type QueryCache interface {
	Get(ctx context.Context, version uint64, q domain.Query) (r domain.QueryResult, ok bool, err error)
	Set(ctx context.Context, version uint64, q domain.Query, r domain.QueryResult) error
}

type SortStatsView interface {
	SortCount(domain.SortKey) (int64, error)
}
