package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"github.com/wguffey/hft-order-engine/api/grpcserver"
	"github.com/wguffey/hft-order-engine/api/wire"
	"github.com/wguffey/hft-order-engine/feed"
	"github.com/wguffey/hft-order-engine/infra/config"
	"github.com/wguffey/hft-order-engine/infra/kafka"
	"github.com/wguffey/hft-order-engine/infra/logging"
	"github.com/wguffey/hft-order-engine/infra/outbox"
	"github.com/wguffey/hft-order-engine/infra/storage"
	"github.com/wguffey/hft-order-engine/jobs/broadcaster"
	"github.com/wguffey/hft-order-engine/service"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := service.Options{Symbols: cfg.Symbols, Logger: logger}

	// ---------------- Trade store ----------------

	if cfg.Storage.Path != "" {
		store, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("trade store init failed: %v", err)
		}
		defer store.Close()
		opts.Store = store
	}

	// ---------------- Outbox + broadcaster ----------------

	var ob *outbox.Outbox
	if cfg.Outbox.Dir != "" {
		ob, err = outbox.Open(cfg.Outbox.Dir)
		if err != nil {
			log.Fatalf("outbox init failed: %v", err)
		}
		defer ob.Close()
		opts.Outbox = ob
	}

	if len(cfg.Kafka.Brokers) > 0 && ob != nil {
		bc, err := broadcaster.New(ob, cfg.Kafka.Brokers, cfg.Kafka.TradeTopic, cfg.FlushInterval(), logger)
		if err != nil {
			log.Fatalf("broadcaster init failed: %v", err)
		}
		defer bc.Close()
		go bc.Run(ctx)
	}

	// ---------------- Top-of-book stream ----------------

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.TopOfBookTopic != "" {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopOfBookTopic)
		defer producer.Close()
		opts.Publisher = producer
	}

	// ---------------- Engine ----------------

	engine := service.New(opts)

	// ---------------- Market-data feed ----------------

	if cfg.Feed.URL != "" {
		ws := feed.NewWebSocketFeed(feed.WSConfig{
			URL:       cfg.Feed.URL,
			TickScale: cfg.Feed.TickScale,
			QueueSize: cfg.Feed.QueueSize,
		}, logger)
		ws.RegisterHandler(engine)
		ws.Start(ctx)
		for _, sym := range cfg.Symbols {
			ws.Subscribe(sym)
		}
		defer ws.Stop()
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Fatalf("listen failed: %v", err)
	}

	grpcSrv := grpc.NewServer(grpc.ForceServerCodec(wire.Codec{}))
	grpcserver.Register(grpcSrv, grpcserver.NewServer(engine, logger))

	go func() {
		<-ctx.Done()
		grpcSrv.GracefulStop()
	}()

	logger.Info("engine running", "addr", cfg.GRPC.Addr, "symbols", cfg.Symbols)
	if err := grpcSrv.Serve(lis); err != nil {
		log.Fatalf("gRPC server exited: %v", err)
	}
}
