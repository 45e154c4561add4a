package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/niksmo/eco-catalog/internal/core/domain"
	"github.com/niksmo/eco-catalog/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

// jsonSerde stands in for the registry serde.
type jsonSerde struct{}

func (jsonSerde) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonSerde) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type MockProducerClient struct {
	mock.Mock
}

func (m *MockProducerClient) ProduceSync(
	ctx context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	args := m.Called(ctx, rs)
	return args.Get(0).(kgo.ProduceResults)
}

func (m *MockProducerClient) Close() {
	m.Called()
}

type MockConsumerClient struct {
	mock.Mock
}

func (m *MockConsumerClient) PollFetches(ctx context.Context) kgo.Fetches {
	args := m.Called(ctx)
	return args.Get(0).(kgo.Fetches)
}

func (m *MockConsumerClient) CommitUncommittedOffsets(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockConsumerClient) Close() {
	m.Called()
}

type MockSaver struct {
	mock.Mock
}

func (m *MockSaver) SaveProducts(ctx context.Context, ps []domain.Product) error {
	return m.Called(ctx, ps).Error(0)
}

var testProducts = []domain.Product{
	{ID: "tee", Name: "Tee", Material: "organic cotton", Price: 25, ImpactScore: 5, IsNew: true},
	{ID: "bag", Name: "Bag", Material: "recycled", Price: 40, ImpactScore: 4, IsLimited: true},
}

func clientOpt(cl ProducerClient) ProducerOpt {
	return func(po *producerOpts) error {
		po.cl = cl
		return nil
	}
}

func TestProductSchemaMapping(t *testing.T) {
	for _, p := range testProducts {
		got := schemaV1ToProduct(productToSchemaV1(p))
		if diff := cmp.Diff(p, got); diff != "" {
			t.Errorf("mapping mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestProductSchemaMappingOutOfRangeImpact(t *testing.T) {
	for _, score := range []int{0, -2, 6, 1<<32 + 5} {
		p := domain.Product{ID: "x", ImpactScore: score}
		got := schemaV1ToProduct(productToSchemaV1(p))
		assert.Equal(t, domain.NeutralImpactScore, got.ImpactScore, "score %d", score)
		assert.Equal(t, domain.NeutralImpactScore, got.EffectiveImpactScore())
	}
}

func TestQueryEventToSchemaV1(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	got := queryEventToSchemaV1(domain.QueryEvent{
		ID:         "q-1",
		Filter:     domain.FilterSpec{MaxPrice: 300, ImpactScores: []int{4, 5}},
		Sort:       domain.SortImpact,
		Visible:    7,
		OccurredAt: at,
	})

	want := schema.QueryEventV1{
		QueryID:      "q-1",
		Materials:    []string{},
		MaxPrice:     300,
		ImpactScores: []int32{4, 5},
		Sort:         "impact",
		Visible:      7,
		OccurredAt:   at,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("queryEventToSchemaV1() mismatch (-want +got):\n%s", diff)
	}
}

func TestProductsProducer(t *testing.T) {
	t.Run("KeyedByID", func(t *testing.T) {
		cl := new(MockProducerClient)
		cl.On("ProduceSync", mock.Anything, mock.MatchedBy(
			func(rs []*kgo.Record) bool {
				return len(rs) == 2 &&
					string(rs[0].Key) == "tee" &&
					string(rs[1].Key) == "bag"
			},
		)).Return(kgo.ProduceResults{})

		p, err := NewProductsProducer(clientOpt(cl), ProducerEncoderOpt(jsonSerde{}))
		require.NoError(t, err)

		require.NoError(t, p.ProduceProducts(t.Context(), testProducts))
		cl.AssertExpectations(t)
	})

	t.Run("ProduceError", func(t *testing.T) {
		errBroker := errors.New("broker is down")
		cl := new(MockProducerClient)
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Return(kgo.ProduceResults{{Err: errBroker}})

		p, err := NewProductsProducer(clientOpt(cl), ProducerEncoderOpt(jsonSerde{}))
		require.NoError(t, err)

		err = p.ProduceProducts(t.Context(), testProducts)
		assert.ErrorIs(t, err, errBroker)
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		cl := new(MockProducerClient)
		p, err := NewProductsProducer(clientOpt(cl), ProducerEncoderOpt(jsonSerde{}))
		require.NoError(t, err)

		require.NoError(t, p.ProduceProducts(t.Context(), nil))
		cl.AssertNotCalled(t, "ProduceSync", mock.Anything, mock.Anything)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cl := new(MockProducerClient)
		p, err := NewProductsProducer(clientOpt(cl), ProducerEncoderOpt(jsonSerde{}))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err = p.ProduceProducts(ctx, testProducts)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("TooFewOpts", func(t *testing.T) {
		assert.Panics(t, func() {
			_, _ = NewProductsProducer(ProducerEncoderOpt(jsonSerde{}))
		})
	})
}

func makeFetches(t *testing.T, values ...[]byte) kgo.Fetches {
	t.Helper()
	rs := make([]*kgo.Record, len(values))
	for i, v := range values {
		rs[i] = &kgo.Record{Topic: "products", Value: v}
	}
	return kgo.Fetches{{
		Topics: []kgo.FetchTopic{{
			Topic:      "products",
			Partitions: []kgo.FetchPartition{{Partition: 0, Records: rs}},
		}},
	}}
}

func encodeProducts(t *testing.T, ps ...domain.Product) [][]byte {
	t.Helper()
	out := make([][]byte, len(ps))
	for i, p := range ps {
		b, err := jsonSerde{}.Encode(productToSchemaV1(p))
		require.NoError(t, err)
		out[i] = b
	}
	return out
}

func newTestConsumer(
	t *testing.T, cl ConsumerClient, saver *MockSaver,
) ProductsConsumer {
	t.Helper()
	c, err := NewProductsConsumer(
		func(co *consumerOpts) error {
			co.cl = cl
			return nil
		},
		ConsumerDecoderOpt(jsonSerde{}),
		ProductsConsumerSaverOpt(saver),
	)
	require.NoError(t, err)
	t.Cleanup(func() { c.consumer.slowDownTimer.Stop() })
	return c
}

func TestProductsConsumer(t *testing.T) {
	t.Run("SavesAndCommits", func(t *testing.T) {
		values := encodeProducts(t, testProducts...)
		cl := new(MockConsumerClient)
		cl.On("PollFetches", mock.Anything).Return(makeFetches(t, values...))
		cl.On("CommitUncommittedOffsets", mock.Anything).Return(nil)

		saver := new(MockSaver)
		saver.On("SaveProducts", mock.Anything, testProducts).Return(nil)

		c := newTestConsumer(t, cl, saver)
		require.NoError(t, c.consumer.consume(t.Context()))

		saver.AssertExpectations(t)
		cl.AssertExpectations(t)
	})

	t.Run("SkipsUndecodableRecords", func(t *testing.T) {
		values := append([][]byte{[]byte("{broken")}, encodeProducts(t, testProducts[1])...)
		cl := new(MockConsumerClient)
		cl.On("PollFetches", mock.Anything).Return(makeFetches(t, values...))
		cl.On("CommitUncommittedOffsets", mock.Anything).Return(nil)

		saver := new(MockSaver)
		saver.On("SaveProducts", mock.Anything, testProducts[1:]).Return(nil)

		c := newTestConsumer(t, cl, saver)
		require.NoError(t, c.consumer.consume(t.Context()))
		saver.AssertExpectations(t)
	})

	t.Run("SaveErrorSkipsCommit", func(t *testing.T) {
		errStorage := errors.New("storage is down")
		cl := new(MockConsumerClient)
		cl.On("PollFetches", mock.Anything).
			Return(makeFetches(t, encodeProducts(t, testProducts...)...))

		saver := new(MockSaver)
		saver.On("SaveProducts", mock.Anything, mock.Anything).Return(errStorage)

		c := newTestConsumer(t, cl, saver)
		err := c.consumer.consume(t.Context())
		assert.ErrorIs(t, err, errStorage)
		cl.AssertNotCalled(t, "CommitUncommittedOffsets", mock.Anything)
	})

	t.Run("EmptyFetches", func(t *testing.T) {
		cl := new(MockConsumerClient)
		cl.On("PollFetches", mock.Anything).Return(kgo.Fetches{})

		saver := new(MockSaver)
		c := newTestConsumer(t, cl, saver)
		require.NoError(t, c.consumer.consume(t.Context()))
		saver.AssertNotCalled(t, "SaveProducts", mock.Anything, mock.Anything)
	})

	t.Run("MissingOpts", func(t *testing.T) {
		_, err := NewProductsConsumer(ConsumerDecoderOpt(jsonSerde{}))
		assert.Error(t, err)
	})
}

func TestSortCountCodec(t *testing.T) {
	var c sortCountCodec

	b, err := c.Encode(sortCount(42))
	require.NoError(t, err)
	assert.Equal(t, "42", string(b))

	v, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, sortCount(42), v)

	_, err = c.Encode(int64(42))
	assert.ErrorIs(t, err, ErrInvalidValueType)

	_, err = c.Decode([]byte("forty-two"))
	assert.Error(t, err)
}

func TestIncSortCount(t *testing.T) {
	assert.Equal(t, sortCount(1), incSortCount(nil))
	assert.Equal(t, sortCount(8), incSortCount(sortCount(7)))
}

func TestSortCountValue(t *testing.T) {
	n, err := sortCountValue(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = sortCountValue(sortCount(5))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	_, err = sortCountValue("5")
	assert.ErrorIs(t, err, ErrInvalidValueType)
}

func TestQueryEventCodec(t *testing.T) {
	c := newQueryEventCodec(jsonSerde{})
	want := schema.QueryEventV1{
		QueryID:      "q-1",
		Materials:    []string{"hemp"},
		MaxPrice:     250,
		ImpactScores: []int32{5},
		Sort:         "newest",
		Visible:      3,
		OccurredAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	b, err := c.Encode(want)
	require.NoError(t, err)

	got, err := c.Decode(b)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}

	_, err = c.Encode("not an event")
	assert.ErrorIs(t, err, ErrInvalidValueType)
}
