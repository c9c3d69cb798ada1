package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fathima-sithara/vietshare/internal/config"
	"github.com/fathima-sithara/vietshare/internal/logger"
	"github.com/fathima-sithara/vietshare/internal/media"
	"github.com/fathima-sithara/vietshare/internal/metrics"
)

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "path to config file")
	metricsAddr := flag.String("metrics-addr", ":9102", "address for the /metrics endpoint")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	lg, err := logger.New(cfg.Development())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer lg.Sync()

	if len(cfg.Kafka.Brokers) == 0 {
		lg.Fatal("kafka.brokers missing")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register(prometheus.DefaultRegisterer)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Errorw("metrics server failed", "error", err)
		}
	}()

	store, err := media.NewS3Store(ctx, media.S3Options{
		Region:     cfg.AWS.Region,
		Bucket:     cfg.AWS.Bucket,
		Endpoint:   cfg.AWS.Endpoint,
		PublicRead: cfg.S3.PublicRead,
		PresignTTL: cfg.PresignTTL,
	})
	if err != nil {
		lg.Fatalw("s3 init", "error", err)
	}

	j := media.NewJanitor(media.JanitorOptions{
		Brokers:    cfg.Kafka.Brokers,
		Topic:      cfg.Kafka.MediaTopic,
		DLQTopic:   cfg.Kafka.MediaDLQTopic,
		GroupID:    cfg.Kafka.GroupID,
		MaxRetries: cfg.Kafka.MaxRetries,
	}, media.NewService(store, media.BreakerOptions{}, lg), lg)
	defer j.Close()

	lg.Infow("media janitor started", "topic", cfg.Kafka.MediaTopic, "group", cfg.Kafka.GroupID)
	if err := j.Run(ctx); err != nil {
		lg.Errorw("janitor stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	lg.Info("media janitor stopped")
}
