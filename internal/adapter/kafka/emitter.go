package kafka

import (
	"context"
	"log/slog"

	"github.com/lovoo/goka"
	"github.com/niksmo/eco-catalog/internal/core/domain"
	"github.com/niksmo/eco-catalog/internal/core/port"
	"github.com/niksmo/eco-catalog/pkg/schema"
)

var _ port.QueryEventEmitter = (*QueryEventEmitter)(nil)

// A queryEventCodec used for serde [schema.QueryEventV1]
type queryEventCodec struct {
	serde Serde
}

func newQueryEventCodec(s Serde) queryEventCodec {
	return queryEventCodec{s}
}

func (c queryEventCodec) Encode(v any) ([]byte, error) {
	const op = "queryEventCodec.Encode"
	if _, ok := v.(schema.QueryEventV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c queryEventCodec) Decode(data []byte) (any, error) {
	const op = "queryEventCodec.Decode"
	var s schema.QueryEventV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A QueryEventEmitter emits answered catalog queries to a stream
// keyed by sort key, so one partition holds the events of one sort.
// Delivery is asynchronous; failures are logged.
type QueryEventEmitter struct {
	ge *goka.Emitter
}

func NewQueryEventEmitter(
	seedBrokers []string, stream string, querySerde Serde,
) (QueryEventEmitter, error) {
	const op = "NewQueryEventEmitter"

	ge, err := goka.NewEmitter(
		seedBrokers, goka.Stream(stream), newQueryEventCodec(querySerde),
	)
	if err != nil {
		return QueryEventEmitter{}, opErr(err, op)
	}
	return QueryEventEmitter{ge}, nil
}

func (e QueryEventEmitter) EmitQuery(
	ctx context.Context, v domain.QueryEvent,
) error {
	const op = "QueryEventEmitter.EmitQuery"

	if err := ctx.Err(); err != nil {
		return opErr(err, op)
	}

	s := queryEventToSchemaV1(v)
	promise, err := e.ge.Emit(s.Sort, s)
	if err != nil {
		return opErr(err, op)
	}
	promise.Then(func(err error) {
		if err != nil {
			slog.Warn("query event is not delivered",
				"op", op, "queryID", s.QueryID, "err", err,
			)
		}
	})
	return nil
}

func (e QueryEventEmitter) Close() {
	const op = "QueryEventEmitter.Close"
	log := slog.With("op", op)

	log.Info("closing emitter...")
	if err := e.ge.Finish(); err != nil {
		log.Error("failed to finish gracefully", "err", err)
		return
	}
	log.Info("emitter is closed")
}
