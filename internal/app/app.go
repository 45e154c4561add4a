package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/niksmo/eco-catalog/config"
	"github.com/niksmo/eco-catalog/internal/adapter"
	"github.com/niksmo/eco-catalog/internal/adapter/cache"
	"github.com/niksmo/eco-catalog/internal/adapter/httphandler"
	"github.com/niksmo/eco-catalog/internal/adapter/kafka"
	"github.com/niksmo/eco-catalog/internal/adapter/storage"
	"github.com/niksmo/eco-catalog/internal/core/port"
	"github.com/niksmo/eco-catalog/internal/core/service"
	"github.com/niksmo/eco-catalog/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
	"golang.org/x/sync/errgroup"
)

type serdes struct {
	product    schema.Serde
	queryEvent schema.Serde
}

type outbound struct {
	sqldb            storage.SQLDB
	cache            *cache.RedisCache
	productsProducer kafka.ProductsProducer
	queryEmitter     kafka.QueryEventEmitter
	sortStatsView    kafka.SortStatsView
}

type inbound struct {
	productsConsumer kafka.ProductsConsumer
	sortStatsProc    *kafka.SortStatsProcessor
	httpServer       httphandler.HTTPServer
}

type App struct {
	ctx       context.Context
	cfg       config.Config
	tlsConfig *tls.Config
	serdes    serdes
	outbound  outbound
	service   service.Service
	inbound   inbound
	runners   *errgroup.Group
}

// New wires every adapter around the core service and loads the catalog.
// It panics when a dependency is unavailable.
func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initTLS()
	app.initSerdes()
	app.initOutboundAdapters()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initTLS() {
	const op = "App.initTLS"

	tlsCfg := app.cfg.Broker.TLS
	if tlsCfg.Enabled() {
		tlsConfig, err := adapter.MakeTLSConfig(tlsCfg.CA, tlsCfg.Cert, tlsCfg.Key)
		if err != nil {
			app.fallDown(op, err)
		}
		app.tlsConfig = tlsConfig
	}
	kafka.ConfigureGoka(app.tlsConfig)
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	urls := app.cfg.Broker.SchemaRegistryURLs
	ctx := app.ctx

	srClient, err := sr.NewClient(sr.URLs(urls...))
	if err != nil {
		app.fallDown(op, err)
	}

	identifier := schema.NewRegistryIdentifier(srClient)

	productSerde, err := schema.NewSerdeProductV1(
		ctx,
		schema.SubjectOpt(app.cfg.Broker.Topics.Products+"-value"),
		schema.SchemaIdentifierOpt(identifier),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	queryEventSerde, err := schema.NewSerdeQueryEventV1(
		ctx,
		schema.SubjectOpt(app.cfg.Broker.Topics.QueryEvents+"-value"),
		schema.SchemaIdentifierOpt(identifier),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.serdes.product = productSerde
	app.serdes.queryEvent = queryEventSerde
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	ctx := app.ctx
	seedBrokers := app.cfg.Broker.SeedBrokers
	topics := app.cfg.Broker.Topics

	sqldb, err := storage.NewSQLDB(ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.sqldb = sqldb

	if rc := app.cfg.Redis; rc.Addr != "" {
		c := cache.NewRedisCache(rc.Addr, rc.Password, rc.DB, rc.TTL)
		if err := c.Ping(ctx); err != nil {
			slog.Warn("query cache is unreachable", "op", op, "err", err)
		}
		app.outbound.cache = &c
	}

	productsProducer, err := kafka.NewProductsProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, topics.Products, app.tlsConfig),
		kafka.ProducerEncoderOpt(app.serdes.product),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.productsProducer = productsProducer

	queryEmitter, err := kafka.NewQueryEventEmitter(
		seedBrokers, topics.QueryEvents, app.serdes.queryEvent,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.queryEmitter = queryEmitter

	sortStatsView, err := kafka.NewSortStatsView(
		seedBrokers, app.cfg.Broker.Consumers.SortStatsGroup,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.sortStatsView = sortStatsView
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	var queryCache port.QueryCache
	if app.outbound.cache != nil {
		queryCache = app.outbound.cache
	}

	app.service = service.New(
		app.outbound.productsProducer,
		storage.NewProductsRepository(app.outbound.sqldb),
		app.outbound.queryEmitter,
		queryCache,
		app.outbound.sortStatsView,
	)

	if err := app.service.LoadCatalog(app.ctx); err != nil {
		app.fallDown(op, err)
	}
}

func (app *App) initInboundAdapters() {
	const op = "App.initInboundAdapters"

	seedBrokers := app.cfg.Broker.SeedBrokers
	topics := app.cfg.Broker.Topics
	consumers := app.cfg.Broker.Consumers

	productsConsumer, err := kafka.NewProductsConsumer(
		kafka.ConsumerClientOpt(
			seedBrokers, topics.Products,
			consumers.ProductSaverGroup, app.tlsConfig,
		),
		kafka.ConsumerDecoderOpt(app.serdes.product),
		kafka.ProductsConsumerSaverOpt(app.service),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.inbound.productsConsumer = productsConsumer

	sortStatsProc, err := kafka.NewSortStatsProc(
		seedBrokers, topics.QueryEvents,
		consumers.SortStatsGroup, app.serdes.queryEvent,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.inbound.sortStatsProc = sortStatsProc

	mux := http.NewServeMux()
	httphandler.RegisterProducts(mux, app.service, httphandler.QueryDefaults{
		MaxPrice: app.cfg.Catalog.DefaultMaxPrice,
		PageSize: app.cfg.Catalog.PageSize,
	})
	httphandler.RegisterStats(mux, app.service)
	httphandler.RegisterMetrics(mux)

	handler := httphandler.LogRequests(httphandler.AllowJSON(mux))
	app.inbound.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, handler,
	)
}

// Run starts every runner. The first runner to stop calls stopFn.
func (app *App) Run(stopFn context.CancelFunc) {
	g, ctx := errgroup.WithContext(app.ctx)
	app.runners = g

	g.Go(func() error {
		app.inbound.httpServer.Run(stopFn)
		return nil
	})

	g.Go(func() error {
		defer stopFn()
		app.inbound.productsConsumer.Run(ctx)
		return nil
	})

	g.Go(func() error {
		defer stopFn()
		return app.inbound.sortStatsProc.Run(ctx)
	})

	g.Go(func() error {
		defer stopFn()
		return app.outbound.sortStatsView.Run(ctx)
	})

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	const op = "App.Close"
	log := slog.With("op", op)

	log.Info("application is closing...")

	app.inbound.httpServer.Close(ctx)
	if app.runners != nil {
		if err := app.runners.Wait(); err != nil {
			log.Error("runner stopped with error", "err", err)
		}
	}
	app.inbound.productsConsumer.Close()

	app.outbound.queryEmitter.Close()
	app.outbound.productsProducer.Close()
	if app.outbound.cache != nil {
		app.outbound.cache.Close()
	}
	app.outbound.sqldb.Close()

	log.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
