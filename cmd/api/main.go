package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/merchkit/storefront/internal/auth"
	"github.com/merchkit/storefront/internal/catalog"
	"github.com/merchkit/storefront/internal/checkout"
	"github.com/merchkit/storefront/internal/config"
	"github.com/merchkit/storefront/internal/httpx"
	kafkax "github.com/merchkit/storefront/internal/kafka"
	"github.com/merchkit/storefront/internal/orders"
	"github.com/merchkit/storefront/internal/postgres"
	"github.com/merchkit/storefront/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	prod.Start(ctx)

	// Handlers
	verifier := auth.NewVerifier(cfg.JWTSecret)
	ch := &httpx.CheckoutHandler{
		Placer:   &checkout.Coordinator{Store: &checkout.PGStore{DB: db}},
		Producer: prod,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}
	oh := &httpx.OrdersHandler{Repo: &orders.Repo{DB: db}, Redis: rdb}
	catalogRepo := &catalog.Repo{DB: db}
	ph := &httpx.CatalogHandler{Repo: catalogRepo}
	ah := &httpx.AdminHandler{Inventory: catalogRepo}

	router := httpx.NewRouter()
	ph.Register(router)
	router.Group(func(r chi.Router) {
		r.Use(verifier.Require)
		ch.Register(r)
		oh.Register(r)
	})
	router.Group(func(r chi.Router) {
		r.Use(verifier.Require, auth.RequireAdmin)
		ah.Register(r)
	})

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // stop accepting -> flush & close writer
	cancel()
	prod.WaitClosed()
}
