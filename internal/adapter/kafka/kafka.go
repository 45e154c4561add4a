package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lovoo/goka"
	"github.com/niksmo/eco-catalog/internal/core/domain"
	"github.com/niksmo/eco-catalog/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects a [kgo.Client] producing to topic.
// tlsConfig may be nil.
func ProducerClientOpt(
	ctx context.Context,
	seedBrokers []string,
	topic string,
	tlsConfig *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := append(
			clientOpts(seedBrokers, tlsConfig),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		)
		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

func clientOpts(seedBrokers []string, tlsConfig *tls.Config) []kgo.Opt {
	opts := []kgo.Opt{kgo.SeedBrokers(seedBrokers...)}
	if tlsConfig != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsConfig))
	}
	return opts
}

// ConfigureGoka replaces the goka global client config.
// It must be called before any emitter, processor or view is created.
func ConfigureGoka(tlsConfig *tls.Config) {
	cfg := goka.DefaultConfig()
	if tlsConfig != nil {
		cfg.Net.TLS.Enable = true
		cfg.Net.TLS.Config = tlsConfig
	}
	goka.ReplaceGlobalConfig(cfg)
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	CommitUncommittedOffsets(context.Context) error
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func productToSchemaV1(v domain.Product) schema.ProductV1 {
	return schema.ProductV1{
		ID:          v.ID,
		Name:        v.Name,
		Material:    v.Material,
		Price:       int64(v.Price),
		ImpactScore: int32(v.EffectiveImpactScore()),
		IsNew:       v.IsNew,
		IsLimited:   v.IsLimited,
	}
}

func schemaV1ToProduct(s schema.ProductV1) domain.Product {
	return domain.Product{
		ID:          s.ID,
		Name:        s.Name,
		Material:    s.Material,
		Price:       int(s.Price),
		ImpactScore: int(s.ImpactScore),
		IsNew:       s.IsNew,
		IsLimited:   s.IsLimited,
	}
}

func queryEventToSchemaV1(v domain.QueryEvent) schema.QueryEventV1 {
	scores := make([]int32, len(v.Filter.ImpactScores))
	for i, n := range v.Filter.ImpactScores {
		scores[i] = int32(n)
	}
	materials := v.Filter.Materials
	if materials == nil {
		materials = []string{}
	}
	return schema.QueryEventV1{
		QueryID:      v.ID,
		Materials:    materials,
		MaxPrice:     int64(v.Filter.MaxPrice),
		ImpactScores: scores,
		Sort:         v.Sort.String(),
		Visible:      int64(v.Visible),
		OccurredAt:   v.OccurredAt,
	}
}
