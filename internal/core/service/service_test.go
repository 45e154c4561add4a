package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/niksmo/eco-catalog/internal/core/catalog"
	"github.com/niksmo/eco-catalog/internal/core/domain"
	"github.com/niksmo/eco-catalog/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) ProduceProducts(ctx context.Context, ps []domain.Product) error {
	args := m.Called(ctx, ps)
	return args.Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) StoreProducts(ctx context.Context, ps []domain.Product) error {
	args := m.Called(ctx, ps)
	return args.Error(0)
}

func (m *MockStorage) ReadProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

type MockEmitter struct {
	mock.Mock
}

func (m *MockEmitter) EmitQuery(ctx context.Context, evt domain.QueryEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(
	ctx context.Context, version uint64, q domain.Query,
) (domain.QueryResult, bool, error) {
	args := m.Called(ctx, version, q)
	return args.Get(0).(domain.QueryResult), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(
	ctx context.Context, version uint64, q domain.Query, r domain.QueryResult,
) error {
	args := m.Called(ctx, version, q, r)
	return args.Error(0)
}

type MockStatsView struct {
	mock.Mock
}

func (m *MockStatsView) SortCount(k domain.SortKey) (int64, error) {
	args := m.Called(k)
	return args.Get(0).(int64), args.Error(1)
}

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: "p1", Material: "organic cotton", Price: 120, ImpactScore: 5},
		{ID: "p2", Material: "recycled silk", Price: 80, ImpactScore: 4, IsNew: true},
		{ID: "p3", Material: "organic cotton", Price: 45, ImpactScore: 5},
		{ID: "p4", Material: "hemp", Price: 300, ImpactScore: 3, IsLimited: true},
	}
}

var testVersion = catalog.Version(testProducts())

func loadedService(
	t *testing.T,
	emitter *MockEmitter,
	cache *MockCache,
) (service.Service, *MockStorage) {
	t.Helper()

	storage := new(MockStorage)
	storage.On("ReadProducts", mock.Anything).Return(testProducts(), nil).Once()

	var s service.Service
	switch {
	case emitter != nil && cache != nil:
		s = service.New(nil, storage, emitter, cache, nil)
	case emitter != nil:
		s = service.New(nil, storage, emitter, nil, nil)
	case cache != nil:
		s = service.New(nil, storage, nil, cache, nil)
	default:
		s = service.New(nil, storage, nil, nil, nil)
	}

	require.NoError(t, s.LoadCatalog(t.Context()))
	return s, storage
}

func TestQueryProducts(t *testing.T) {
	t.Run("FilterSortPage", func(t *testing.T) {
		s, _ := loadedService(t, nil, nil)

		q := domain.Query{
			Filter: domain.FilterSpec{
				Materials: []string{"organic-cotton"},
				MaxPrice:  500,
			},
			Sort: domain.SortPriceLow,
			Page: domain.Page{Number: 1, Size: 1},
		}

		res, err := s.QueryProducts(t.Context(), q)
		require.NoError(t, err)

		require.Len(t, res.Items, 1)
		assert.Equal(t, "p3", res.Items[0].ID)
		assert.Equal(t, 2, res.Visible)
		assert.Equal(t, 4, res.Total)
		assert.Equal(t, 1, res.Page)
		assert.Equal(t, 2, res.Pages)
	})

	t.Run("EmitsQueryEvent", func(t *testing.T) {
		emitter := new(MockEmitter)
		emitter.On("EmitQuery", mock.Anything, mock.MatchedBy(
			func(evt domain.QueryEvent) bool {
				return evt.ID != "" &&
					evt.Sort == domain.SortNewest &&
					evt.Visible == 4 &&
					!evt.OccurredAt.IsZero()
			},
		)).Return(nil).Once()

		s, _ := loadedService(t, emitter, nil)

		q := domain.Query{Filter: domain.NewFilterSpec(), Sort: domain.SortNewest}
		res, err := s.QueryProducts(t.Context(), q)
		require.NoError(t, err)
		assert.Equal(t, "p2", res.Items[0].ID)
		assert.Equal(t, "p4", res.Items[1].ID)

		emitter.AssertExpectations(t)
	})

	t.Run("EmitFailureIsNotReturned", func(t *testing.T) {
		emitter := new(MockEmitter)
		emitter.On("EmitQuery", mock.Anything, mock.Anything).
			Return(errors.New("broker down")).Once()

		s, _ := loadedService(t, emitter, nil)

		_, err := s.QueryProducts(t.Context(), domain.Query{Filter: domain.NewFilterSpec()})
		require.NoError(t, err)
		emitter.AssertExpectations(t)
	})

	t.Run("CacheHit", func(t *testing.T) {
		q := domain.Query{Filter: domain.NewFilterSpec()}
		cached := domain.QueryResult{Visible: 99, Total: 99, Page: 1, Pages: 9}

		cache := new(MockCache)
		cache.On("Get", mock.Anything, testVersion, q).Return(cached, true, nil).Once()

		s, _ := loadedService(t, nil, cache)

		res, err := s.QueryProducts(t.Context(), q)
		require.NoError(t, err)
		assert.Equal(t, cached, res)
		cache.AssertExpectations(t)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CacheMissStoresResult", func(t *testing.T) {
		q := domain.Query{Filter: domain.FilterSpec{MaxPrice: 100}}

		cache := new(MockCache)
		cache.On("Get", mock.Anything, testVersion, q).
			Return(domain.QueryResult{}, false, nil).Once()
		cache.On("Set", mock.Anything, testVersion, q, mock.MatchedBy(
			func(r domain.QueryResult) bool { return r.Visible == 2 },
		)).Return(nil).Once()

		s, _ := loadedService(t, nil, cache)

		res, err := s.QueryProducts(t.Context(), q)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Visible)
		cache.AssertExpectations(t)
	})

	t.Run("CacheErrorFallsBack", func(t *testing.T) {
		q := domain.Query{Filter: domain.NewFilterSpec()}

		cache := new(MockCache)
		cache.On("Get", mock.Anything, testVersion, q).
			Return(domain.QueryResult{}, false, errors.New("redis down")).Once()
		cache.On("Set", mock.Anything, testVersion, q, mock.Anything).
			Return(errors.New("redis down")).Once()

		s, _ := loadedService(t, nil, cache)

		res, err := s.QueryProducts(t.Context(), q)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Visible)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		s, _ := loadedService(t, nil, nil)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := s.QueryProducts(ctx, domain.Query{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// memCache is a QueryCache shared by several services.
type memCache struct {
	mu      sync.Mutex
	entries map[string]domain.QueryResult
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]domain.QueryResult)}
}

func memCacheKey(version uint64, q domain.Query) string {
	return fmt.Sprintf("%d|%+v", version, q)
}

func (c *memCache) Get(
	_ context.Context, version uint64, q domain.Query,
) (domain.QueryResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[memCacheKey(version, q)]
	return r, ok, nil
}

func (c *memCache) Set(
	_ context.Context, version uint64, q domain.Query, r domain.QueryResult,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[memCacheKey(version, q)] = r
	return nil
}

func serviceWithCatalog(
	t *testing.T, cache *memCache, ps []domain.Product,
) service.Service {
	t.Helper()
	storage := new(MockStorage)
	storage.On("ReadProducts", mock.Anything).Return(ps, nil).Once()
	s := service.New(nil, storage, nil, cache, nil)
	require.NoError(t, s.LoadCatalog(t.Context()))
	return s
}

func TestSharedCacheAcrossCatalogs(t *testing.T) {
	q := domain.Query{Filter: domain.NewFilterSpec()}
	cache := newMemCache()

	first := serviceWithCatalog(t, cache, testProducts())
	res, err := first.QueryProducts(t.Context(), q)
	require.NoError(t, err)
	require.Equal(t, 4, res.Total)

	t.Run("DifferentCatalogMisses", func(t *testing.T) {
		other := serviceWithCatalog(t, cache, testProducts()[:2])
		res, err := other.QueryProducts(t.Context(), q)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		assert.Equal(t, 2, res.Visible)
	})

	t.Run("ChangedProductMisses", func(t *testing.T) {
		ps := testProducts()
		ps[0].Price = 900
		other := serviceWithCatalog(t, cache, ps)
		res, err := other.QueryProducts(t.Context(), q)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Visible)
	})

	t.Run("SameCatalogHits", func(t *testing.T) {
		restarted := serviceWithCatalog(t, cache, testProducts())
		again, err := restarted.QueryProducts(t.Context(), q)
		require.NoError(t, err)
		assert.Equal(t, res, again)
	})
}

func TestCountProducts(t *testing.T) {
	s, _ := loadedService(t, nil, nil)

	f := domain.NewFilterSpec()
	f.ImpactScores = []int{5}

	visible, total, err := s.CountProducts(t.Context(), f)
	require.NoError(t, err)
	assert.Equal(t, 2, visible)
	assert.Equal(t, 4, total)
}

func TestSendProducts(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		ps := testProducts()
		producer := new(MockProducer)
		producer.On("ProduceProducts", mock.Anything, ps).Return(nil).Once()

		s := service.New(producer, new(MockStorage), nil, nil, nil)
		require.NoError(t, s.SendProducts(t.Context(), ps))
		producer.AssertExpectations(t)
	})

	t.Run("Invalid", func(t *testing.T) {
		producer := new(MockProducer)
		s := service.New(producer, new(MockStorage), nil, nil, nil)

		err := s.SendProducts(t.Context(), []domain.Product{{ID: "ok"}, {Name: "no id"}})
		assert.ErrorIs(t, err, domain.ErrInvalidProduct)
		producer.AssertNotCalled(t, "ProduceProducts", mock.Anything, mock.Anything)
	})

	t.Run("ProducerError", func(t *testing.T) {
		errBroker := errors.New("broker down")
		producer := new(MockProducer)
		producer.On("ProduceProducts", mock.Anything, mock.Anything).Return(errBroker).Once()

		s := service.New(producer, new(MockStorage), nil, nil, nil)
		err := s.SendProducts(t.Context(), testProducts())
		assert.ErrorIs(t, err, errBroker)
	})
}

func TestSaveProducts(t *testing.T) {
	s, storage := loadedService(t, nil, nil)

	added := domain.Product{ID: "p5", Material: "tencel", Price: 10, ImpactScore: 2}
	updated := append(testProducts(), added)

	storage.On("StoreProducts", mock.Anything, []domain.Product{added}).Return(nil).Once()
	storage.On("ReadProducts", mock.Anything).Return(updated, nil).Once()

	require.NoError(t, s.SaveProducts(t.Context(), []domain.Product{added}))

	visible, total, err := s.CountProducts(t.Context(), domain.NewFilterSpec())
	require.NoError(t, err)
	assert.Equal(t, 5, visible)
	assert.Equal(t, 5, total)
	storage.AssertExpectations(t)
}

func TestSaveProductsStorageError(t *testing.T) {
	s, storage := loadedService(t, nil, nil)

	errDB := errors.New("db down")
	storage.On("StoreProducts", mock.Anything, mock.Anything).Return(errDB).Once()

	err := s.SaveProducts(t.Context(), testProducts())
	assert.ErrorIs(t, err, errDB)

	_, total, err := s.CountProducts(t.Context(), domain.NewFilterSpec())
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestSortStats(t *testing.T) {
	t.Run("AllKeys", func(t *testing.T) {
		view := new(MockStatsView)
		for i, k := range domain.SortKeys {
			view.On("SortCount", k).Return(int64(i*10), nil).Once()
		}

		s := service.New(nil, new(MockStorage), nil, nil, view)
		stats, err := s.SortStats(t.Context())
		require.NoError(t, err)

		require.Len(t, stats, len(domain.SortKeys))
		for i, st := range stats {
			assert.Equal(t, domain.SortKeys[i], st.Sort)
			assert.Equal(t, int64(i*10), st.Count)
		}
	})

	t.Run("NoView", func(t *testing.T) {
		s := service.New(nil, new(MockStorage), nil, nil, nil)
		_, err := s.SortStats(t.Context())
		assert.ErrorIs(t, err, service.ErrStatsUnavailable)
	})
}
