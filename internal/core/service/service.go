package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/eco-catalog/internal/core/catalog"
	"github.com/niksmo/eco-catalog/internal/core/domain"
	"github.com/niksmo/eco-catalog/internal/core/port"
)

var _ port.ProductsQuerier = (*Service)(nil)
var _ port.ProductsCounter = (*Service)(nil)
var _ port.ProductsSender = (*Service)(nil)
var _ port.ProductsSaver = (*Service)(nil)
var _ port.SortStatsReader = (*Service)(nil)

// A snapshot is an immutable catalog version. Products are in featured order.
// The version is derived from the products, never from load order.
type snapshot struct {
	version  uint64
	products []domain.Product
}

type Service struct {
	productsProducer port.ProductsProducer
	productsStorage  port.ProductsStorage
	queryEmitter     port.QueryEventEmitter
	queryCache       port.QueryCache
	sortStatsView    port.SortStatsView
	snap             *atomic.Pointer[snapshot]
}

// New returns the catalog service with an empty catalog.
//
// queryEmitter, queryCache and sortStatsView are optional.
func New(
	productsProducer port.ProductsProducer,
	productsStorage port.ProductsStorage,
	queryEmitter port.QueryEventEmitter,
	queryCache port.QueryCache,
	sortStatsView port.SortStatsView,
) Service {
	snap := new(atomic.Pointer[snapshot])
	snap.Store(&snapshot{})
	return Service{
		productsProducer,
		productsStorage,
		queryEmitter,
		queryCache,
		sortStatsView,
		snap,
	}
}

// LoadCatalog replaces the in-memory catalog with the stored products.
func (s Service) LoadCatalog(ctx context.Context) error {
	const op = "Service.LoadCatalog"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ps, err := s.productsStorage.ReadProducts(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	version := s.install(ps)
	slog.Info("catalog loaded",
		"op", op, "nProducts", len(ps), "version", version,
	)
	return nil
}

func (s Service) install(ps []domain.Product) uint64 {
	next := &snapshot{version: catalog.Version(ps), products: ps}
	s.snap.Store(next)
	return next.version
}

func (s Service) QueryProducts(
	ctx context.Context, q domain.Query,
) (domain.QueryResult, error) {
	const op = "Service.QueryProducts"

	if err := ctx.Err(); err != nil {
		return domain.QueryResult{}, fmt.Errorf("%s: %w", op, err)
	}

	snap := s.snap.Load()

	res, ok := s.cachedResult(ctx, snap.version, q)
	if !ok {
		visible := catalog.Apply(snap.products, q.Filter, q.Sort)
		page := catalog.Paginate(visible, q.Page)
		res = domain.QueryResult{
			Items:   page.Items,
			Visible: len(visible),
			Total:   len(snap.products),
			Page:    page.Number,
			Pages:   page.Pages,
		}
		s.cacheResult(ctx, snap.version, q, res)
	}

	s.emitQuery(ctx, q, res.Visible)
	return res, nil
}

func (s Service) CountProducts(
	ctx context.Context, f domain.FilterSpec,
) (visible, total int, err error) {
	const op = "Service.CountProducts"

	if err := ctx.Err(); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	snap := s.snap.Load()
	return catalog.CountVisible(snap.products, f), len(snap.products), nil
}

func (s Service) SendProducts(ctx context.Context, ps []domain.Product) error {
	const op = "Service.SendProducts"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var errs []error
	for i, p := range ps {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("product %d: %w", i, err))
		}
	}
	if len(errs) != 0 {
		return fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}

	err := s.productsProducer.ProduceProducts(ctx, ps)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SaveProducts stores ps and reloads the catalog.
func (s Service) SaveProducts(ctx context.Context, ps []domain.Product) error {
	const op = "Service.SaveProducts"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.productsStorage.StoreProducts(ctx, ps)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.LoadCatalog(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SortStats returns how often each sort key was queried.
func (s Service) SortStats(ctx context.Context) ([]domain.SortStat, error) {
	const op = "Service.SortStats"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.sortStatsView == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrStatsUnavailable)
	}

	stats := make([]domain.SortStat, 0, len(domain.SortKeys))
	for _, k := range domain.SortKeys {
		n, err := s.sortStatsView.SortCount(k)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stats = append(stats, domain.SortStat{Sort: k, Count: n})
	}
	return stats, nil
}

func (s Service) cachedResult(
	ctx context.Context, version uint64, q domain.Query,
) (domain.QueryResult, bool) {
	const op = "Service.cachedResult"

	if s.queryCache == nil {
		return domain.QueryResult{}, false
	}

	res, ok, err := s.queryCache.Get(ctx, version, q)
	if err != nil {
		slog.Warn("failed to read cache", "op", op, "err", err)
		return domain.QueryResult{}, false
	}
	return res, ok
}

func (s Service) cacheResult(
	ctx context.Context, version uint64, q domain.Query, res domain.QueryResult,
) {
	const op = "Service.cacheResult"

	if s.queryCache == nil {
		return
	}

	if err := s.queryCache.Set(ctx, version, q, res); err != nil {
		slog.Warn("failed to write cache", "op", op, "err", err)
	}
}

// emitQuery publishes the query for statistics. Failures are only logged.
func (s Service) emitQuery(ctx context.Context, q domain.Query, visible int) {
	const op = "Service.emitQuery"

	if s.queryEmitter == nil {
		return
	}

	evt := domain.QueryEvent{
		ID:         uuid.NewString(),
		Filter:     q.Filter,
		Sort:       q.Sort,
		Visible:    visible,
		OccurredAt: time.Now(),
	}

	if err := s.queryEmitter.EmitQuery(ctx, evt); err != nil {
		slog.Warn("failed to emit query event", "op", op, "err", err)
	}
}
