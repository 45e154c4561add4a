package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"

	"github.com/niksmo/eco-catalog/config"
	"github.com/niksmo/eco-catalog/internal/adapter"
	"github.com/niksmo/eco-catalog/internal/adapter/cardparser"
	"github.com/niksmo/eco-catalog/internal/adapter/kafka"
	"github.com/niksmo/eco-catalog/internal/core/service"
	"github.com/niksmo/eco-catalog/pkg/schema"
	"github.com/niksmo/eco-catalog/pkg/sigctx"
	"github.com/spf13/pflag"
	"github.com/twmb/franz-go/pkg/sr"
)

const (
	fileFlag   = "file"
	dryRunFlag = "dry-run"
)

func main() {
	// --config is read by config.Load.
	_ = pflag.String("config", "/config.yaml", "config file")
	file := pflag.StringP(fileFlag, "f", "", "HTML file with product cards")
	dryRun := pflag.Bool(dryRunFlag, false, "print parsed products and exit")
	pflag.Parse()

	if *file == "" {
		fmt.Printf("--%s flag: required\n", fileFlag)
		os.Exit(2)
	}

	sigCtx, stop := sigctx.NotifyContext()
	defer stop()

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(
		os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel},
	)))

	f, err := os.Open(*file)
	if err != nil {
		fallDown(err)
	}
	ps, err := cardparser.Parse(f)
	_ = f.Close()
	if err != nil {
		fallDown(err)
	}
	slog.Info("cards parsed", "nProducts", len(ps), "file", *file)

	if *dryRun {
		for _, p := range ps {
			fmt.Printf("%+v\n", p)
		}
		return
	}

	var tlsConfig *tls.Config
	if t := cfg.Broker.TLS; t.Enabled() {
		tlsConfig, err = adapter.MakeTLSConfig(t.CA, t.Cert, t.Key)
		if err != nil {
			fallDown(err)
		}
	}

	srClient, err := sr.NewClient(sr.URLs(cfg.Broker.SchemaRegistryURLs...))
	if err != nil {
		fallDown(err)
	}
	productSerde, err := schema.NewSerdeProductV1(
		sigCtx,
		schema.SubjectOpt(cfg.Broker.Topics.Products+"-value"),
		schema.SchemaIdentifierOpt(schema.NewRegistryIdentifier(srClient)),
	)
	if err != nil {
		fallDown(err)
	}

	producer, err := kafka.NewProductsProducer(
		kafka.ProducerClientOpt(
			sigCtx, cfg.Broker.SeedBrokers, cfg.Broker.Topics.Products, tlsConfig,
		),
		kafka.ProducerEncoderOpt(productSerde),
	)
	if err != nil {
		fallDown(err)
	}

	sender := service.New(producer, nil, nil, nil, nil)
	err = sender.SendProducts(sigCtx, ps)
	producer.Close()
	if err != nil {
		fallDown(err)
	}
	slog.Info("products seeded", "nProducts", len(ps))
}

func fallDown(err error) {
	slog.Error("seeder failed", "err", err)
	os.Exit(2)
}
