package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fathima-sithara/vietshare/internal/api"
	"github.com/fathima-sithara/vietshare/internal/auth"
	"github.com/fathima-sithara/vietshare/internal/config"
	"github.com/fathima-sithara/vietshare/internal/discovery"
	"github.com/fathima-sithara/vietshare/internal/events"
	"github.com/fathima-sithara/vietshare/internal/logger"
	"github.com/fathima-sithara/vietshare/internal/media"
	"github.com/fathima-sithara/vietshare/internal/metrics"
	"github.com/fathima-sithara/vietshare/internal/realtime"
	"github.com/fathima-sithara/vietshare/internal/repository"
	"github.com/fathima-sithara/vietshare/internal/usecase"
	"github.com/fathima-sithara/vietshare/internal/view"
)

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "path to config file")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatalw("server exited", "error", err)
	}
	lg.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, lg *zap.SugaredLogger) error {
	metrics.Register(prometheus.DefaultRegisterer)

	store, closeStore, err := openStore(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeStore()

	s3store, err := media.NewS3Store(ctx, media.S3Options{
		Region:     cfg.AWS.Region,
		Bucket:     cfg.AWS.Bucket,
		Endpoint:   cfg.AWS.Endpoint,
		PublicRead: cfg.S3.PublicRead,
		PresignTTL: cfg.PresignTTL,
	})
	if err != nil {
		return err
	}
	mediaSvc := media.NewService(s3store, media.BreakerOptions{}, lg)

	var deleter usecase.MediaDeleter = mediaSvc
	if cfg.S3.AsyncDelete && len(cfg.Kafka.Brokers) > 0 {
		async := media.NewAsyncDeleter(cfg.Kafka.Brokers, cfg.Kafka.MediaTopic)
		defer async.Close()
		deleter = async
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			lg.Warnw("redis unreachable, continuing", "error", err)
		}
	}

	hub := realtime.NewHub(lg)
	pub, closeEvents, err := openEvents(cfg, hub, lg)
	if err != nil {
		return err
	}
	defer closeEvents()

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.AccessTTL)
	svc := usecase.New(usecase.Deps{
		Store:    store,
		Uploader: mediaSvc,
		Deleter:  deleter,
		Events:   pub,
		Tokens:   tokens,
		Log:      lg,
	})
	views := view.NewBuilder(store, lg)

	var (
		presence     realtime.Presence = realtime.NewMemoryPresence()
		relay        realtime.Relay    = realtime.LocalRelay{Hub: hub}
		writeLimiter *api.WriteLimiter
	)
	if rdb != nil {
		presence = realtime.NewRedisPresence(rdb, cfg.Redis.Prefix, 3*cfg.PingInterval)
		rr := realtime.NewRedisRelay(rdb, cfg.Redis.Prefix, hub, lg)
		go func() {
			if err := rr.Run(ctx); err != nil {
				lg.Errorw("redis relay stopped", "error", err)
			}
		}()
		relay = rr
		writeLimiter = api.NewWriteLimiter(rdb, cfg.Redis.Prefix, cfg.RateLimit.WritesPerMinute, cfg.WriteWindow, lg)
	}

	sockets := realtime.NewServer(hub, views, store.Chats, presence, relay, tokens, realtime.Options{
		PingInterval:   cfg.PingInterval,
		WriteDeadline:  cfg.WriteDeadline,
		MaxMessageSize: cfg.WS.MaxMessageSizeBytes,
	}, lg)

	ipLimiter := api.NewIPRateLimiter(cfg.RateLimit.PerIPPerMinute, 0, lg)
	go ipLimiter.Cleanup(ctx)

	app := api.New(api.Deps{
		Services:     svc,
		Views:        views,
		Presence:     presence,
		Sockets:      sockets,
		Tokens:       tokens,
		IPLimiter:    ipLimiter,
		WriteLimiter: writeLimiter,
		Log:          lg,
		Options: api.Options{
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			AccessLog:    cfg.Development(),
		},
	})

	reg, err := discovery.NewRegistrar(discovery.Options{
		ConsulAddr:  cfg.Consul.Addr,
		ServiceName: cfg.App.Name,
		ServiceID:   cfg.Consul.ServiceID,
		Address:     cfg.Consul.Address,
		Port:        cfg.App.Port,
	}, lg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Infow("listening", "addr", cfg.App.Addr(), "storage", cfg.Storage.Driver)
		errCh <- app.Listen(cfg.App.Addr())
	}()
	if err := reg.Register(ctx); err != nil {
		lg.Warnw("service registration failed", "error", err)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := reg.Deregister(shutdownCtx); err != nil {
		lg.Warnw("service deregistration failed", "error", err)
	}
	return app.ShutdownWithContext(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, lg *zap.SugaredLogger) (*repository.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		mem := repository.NewMemoryStore()
		if cfg.Storage.SeedFile != "" {
			if err := mem.LoadSeedFile(ctx, cfg.Storage.SeedFile); err != nil {
				return nil, nil, err
			}
			lg.Infow("seed loaded", "file", cfg.Storage.SeedFile)
		}
		return mem.Store(), func() {}, nil
	case "mongo":
		client, err := repository.NewMongoClient(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		ms, err := repository.NewMongoStore(ctx, client, repository.MongoOptions{
			Database: cfg.Mongo.Database,
			Timeout:  cfg.MongoTimeout,
			Poll:     cfg.MongoPoll,
		}, lg)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return ms.Store(), func() { _ = client.Disconnect(context.Background()) }, nil
	}
	return nil, nil, errors.New("unknown storage driver " + cfg.Storage.Driver)
}

// openEvents publishes to NATS and the Kafka activity log when configured.
// Without NATS, events go straight to this instance's sockets.
func openEvents(cfg *config.Config, hub *realtime.Hub, lg *zap.SugaredLogger) (events.Publisher, func(), error) {
	var (
		pubs    events.Multi
		closers []func()
	)
	if cfg.NATS.URL != "" {
		nc, err := events.Connect(cfg.NATS.URL, cfg.App.Name, lg)
		if err != nil {
			return nil, nil, err
		}
		sub, err := realtime.NewBridge(hub, lg).Subscribe(nc)
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		pubs = append(pubs, events.NewNATSPublisher(nc, lg))
		closers = append(closers, func() {
			_ = sub.Unsubscribe()
			_ = nc.Drain()
		})
	} else {
		pubs = append(pubs, realtime.HubPublisher{Hub: hub})
	}
	if len(cfg.Kafka.Brokers) > 0 {
		ap := events.NewActivityProducer(cfg.Kafka.Brokers, cfg.Kafka.ActivityTopic, lg)
		pubs = append(pubs, ap)
		closers = append(closers, func() { _ = ap.Close() })
	}
	return pubs, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
