package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/azizikri/coupon-giveaway/internal/config"
	httphandler "github.com/azizikri/coupon-giveaway/internal/delivery/http"
	"github.com/azizikri/coupon-giveaway/internal/delivery/kafka"
	"github.com/azizikri/coupon-giveaway/internal/metrics"
	"github.com/azizikri/coupon-giveaway/internal/repository"
	"github.com/azizikri/coupon-giveaway/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	metrics.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.StorageDriver, err)
	}
	defer store.Close()

	ledger := usecase.NewLedger(store, usecase.WithCooldownWindow(cfg.Cooldown()))
	pool := usecase.NewPool(store, usecase.WithFallbackCodes(cfg.FallbackCoupon, cfg.EmergencyCoupon))

	if seeded, err := pool.EnsureSeeded(ctx); err != nil {
		log.Printf("Warning: failed to seed coupon pool: %v", err)
	} else if seeded {
		log.Printf("Seeded empty coupon pool with %d default coupons", len(usecase.DefaultCoupons))
	}

	var publisher usecase.ClaimPublisher
	var producerClient *kgo.Client
	var consumerClient *kgo.Client

	if cfg.EventDriven() {
		producerClient, err = kgo.NewClient(
			kgo.SeedBrokers(cfg.Brokers()...),
			kgo.ClientID(cfg.KafkaClientID),
		)
		if err != nil {
			log.Fatalf("Failed to create kafka client: %v", err)
		}

		if err := kafka.EnsureTopics(ctx, producerClient, cfg); err != nil {
			log.Printf("Warning: failed to ensure topics: %v", err)
		}

		publisher = kafka.NewPublisher(producerClient)
	} else {
		publisher = kafka.NewDirectPublisher()
	}

	service := usecase.NewCouponService(ledger, pool, publisher)

	if cfg.EventDriven() {
		consumerClient, err = kgo.NewClient(
			kgo.SeedBrokers(cfg.Brokers()...),
			kgo.ClientID(cfg.KafkaClientID+"-restock"),
			kgo.ConsumerGroup(cfg.KafkaGroupID),
			kgo.ConsumeTopics(kafka.TopicRestockRequest),
			kgo.DisableAutoCommit(),
		)
		if err != nil {
			log.Fatalf("Failed to create restock consumer: %v", err)
		}

		consumer := kafka.NewConsumer(consumerClient, service)
		go consumer.Start(ctx)
		<-consumer.Ready()
	}

	opts := []httphandler.HandlerOption{httphandler.WithCookieMaxAge(cfg.CookieLifetime())}
	if rps := cfg.RateLimit(); rps > 0 {
		limiter := httphandler.NewLimiter(rps, cfg.RateLimitBurst())
		limiter.StartJanitor(ctx)
		opts = append(opts, httphandler.WithLimiter(limiter))
	}
	handler := httphandler.NewHandler(service, opts...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(httphandler.MetricsMiddleware)
	r.Use(cors.Handler(httphandler.CORSOptions(cfg.AllowedOrigins())))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	handler.Routes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Starting server on port %s (storage=%s, retention=%s)", cfg.AppPort, cfg.StorageDriver, ledger.Retention())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	if consumerClient != nil {
		consumerClient.Close()
	}
	if producerClient != nil {
		producerClient.Close()
	}

	wg.Wait()
	log.Println("Shutdown complete")
}
