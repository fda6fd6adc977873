package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	match "github.com/0x5487/exchange-simulator"
	"github.com/0x5487/exchange-simulator/config"
	"github.com/0x5487/exchange-simulator/scenario"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	scenarioPath := flag.String("scenario", "", "path to the YAML scenario to play")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address until interrupted")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	if err := run(cfg, *scenarioPath, sugar); err != nil {
		sugar.Errorw("exchange_sim_failed", "err", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Logging.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}

	// The engine logs through slog, onto the same zap core.
	match.SetLogger(slog.New(zapslog.NewHandler(logger.Core())).With("component", "exchange"))

	return logger, nil
}

func run(cfg config.Config, scenarioPath string, sugar *zap.SugaredLogger) error {
	bookCfg, err := cfg.BookConfig()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	depth := match.NewAggregatedBook()
	exchange, err := match.NewExchange(bookCfg, depth, match.NewMetrics(reg))
	if err != nil {
		return err
	}
	exchange.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := exchange.Shutdown(ctx); err != nil {
			sugar.Warnw("exchange_shutdown_failed", "err", err)
		}
	}()

	sugar.Infow("exchange_ready",
		"version", match.EngineVersion,
		"prev_close", bookCfg.PrevClose.String(),
		"tick_size", bookCfg.TickSize.String(),
		"lot_size", bookCfg.LotSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if scenarioPath != "" {
		sc, err := scenario.Load(scenarioPath)
		if err != nil {
			return err
		}

		player := scenario.NewPlayer(exchange, os.Stdout)
		if err := player.Play(ctx, sc); err != nil {
			return err
		}
		sugar.Infow("scenario_finished", "name", sc.Name, "steps", len(sc.Steps), "seq_id", depth.SequenceID())

		var book string
		if err := exchange.Query(ctx, func(b *match.OrderBook) { book = b.String() }); err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, book)
	}

	if cfg.Metrics.Addr == "" {
		return nil
	}
	return serveMetrics(ctx, cfg.Metrics.Addr, reg, sugar)
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, sugar *zap.SugaredLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("metrics_server_starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sugar.Info("metrics_server_stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
