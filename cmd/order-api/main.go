package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/motobook/backend/internal/clients"
	"github.com/motobook/backend/internal/config"
	"github.com/motobook/backend/internal/httpx"
	kafkax "github.com/motobook/backend/internal/kafka"
	"github.com/motobook/backend/internal/orders"
	"github.com/motobook/backend/internal/postgres"
	"github.com/motobook/backend/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per lifecycle topic
	created := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	created.Start(ctx)
	status := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	status.Start(ctx)

	// Repo & handler
	repo := &orders.Repo{DB: db}
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Store:      repo,
		Created:    created,
		Status:     status,
		Redis:      rdb,
		Businesses: clients.NewBusinesses(cfg.BusinessServiceURL),
		Service:    cfg.ServiceName,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("order-api listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	created.Close()
	status.Close()
	cancel()
	created.WaitClosed()
	status.WaitClosed()
}
