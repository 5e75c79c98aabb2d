package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/cache"
	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/notify"
	"github.com/iliyamo/room-booking/internal/queue"
	"github.com/iliyamo/room-booking/internal/repository"
	"github.com/iliyamo/room-booking/internal/router"
	"github.com/iliyamo/room-booking/internal/service"
	"github.com/iliyamo/room-booking/internal/worker"
)

func main() {
	cfg := config.Load() // Load environment config
	config.SetupLogger(cfg.Env, cfg.Log)
	cacheCfg := config.LoadCacheConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	if err != nil {
		logrus.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()
	if err := database.RunMigrations(ctx, db); err != nil {
		logrus.WithError(err).Fatal("migrations failed")
	}

	// Redis is optional: a nil client turns every cache into a no-op.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	var store *cache.Cache
	if cacheCfg.Enabled {
		store = cache.New(rdb, cacheCfg.Prefix)
	} else {
		store = cache.New(nil, "")
	}

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	locations := repository.NewLocationRepo(db)
	rooms := repository.NewRoomRepo(db)
	timeslots := repository.NewTimeslotRepo(db)
	bookings := repository.NewBookingRepo(db)
	payments := repository.NewPaymentRepo(db)
	notifications := repository.NewNotificationRepo(db)
	tx := database.NewTxRunner(db)

	publisher := queue.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.ExpireQueue, cfg.Rabbit.EventsQueue)

	// Services
	bookingSvc := service.NewBookingService(tx, timeslots, bookings, cfg.Booking.ExpiryWindow, store, publisher, publisher)
	paymentSvc := service.NewPaymentService(tx, bookings, payments, publisher)
	reclaimer := service.NewReclaimer(tx, bookings, store, publisher)
	timeslotSvc := service.NewTimeslotService(timeslots, store, cacheCfg.TimeslotTTL)
	notifier := service.NewNotificationService(notifications, users, notify.NewSender(cfg.SMTP))

	// Background workers: expiry consumer, notification consumer, sweeper.
	var workers sync.WaitGroup
	runWorker := func(name string, fn func(context.Context)) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			fn(ctx)
			logrus.WithField("worker", name).Info("worker stopped")
		}()
	}
	expireConsumer := &queue.Consumer{URL: cfg.Rabbit.URL, Queue: cfg.Rabbit.ExpireQueue, Prefetch: 10, Handle: reclaimer.HandleExpireMessage}
	eventsConsumer := &queue.Consumer{URL: cfg.Rabbit.URL, Queue: cfg.Rabbit.EventsQueue, Prefetch: 10, Handle: notifier.HandleMessage}
	runWorker("expire-consumer", func(ctx context.Context) { _ = expireConsumer.Run(ctx) })
	runWorker("events-consumer", func(ctx context.Context) { _ = eventsConsumer.Run(ctx) })
	runWorker("expiry-sweeper", worker.NewExpirySweeper(bookings, reclaimer, cfg.Booking.SweepInterval, cfg.Booking.SweepBatch).Start)

	// HTTP
	checks := map[string]handler.Pinger{"postgres": db.PingContext}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	e := router.New(router.Deps{
		JWTSecret:     cfg.JWTSecret,
		Health:        &handler.HealthHandler{Checks: checks},
		Auth:          handler.NewAuthHandler(cfg, users, tokens),
		Catalog:       handler.NewCatalogHandler(locations, rooms, timeslotSvc),
		Bookings:      handler.NewBookingHandler(bookingSvc, paymentSvc),
		LoginLimiter:  middleware.NewLoginLimiter(config.LoadLoginLimitConfig(), rdb),
		ResponseCache: middleware.NewResponseCache(cacheCfg, store),
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("http shutdown incomplete")
	}
	workers.Wait()
	// Let in-flight expiry schedules and event publishes finish.
	bookingSvc.Wait()
	paymentSvc.Wait()
	reclaimer.Wait()
	logrus.Info("bye")
}
