package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/motobook/backend/internal/config"
	kafkax "github.com/motobook/backend/internal/kafka"
	"github.com/motobook/backend/internal/notifier"
	"github.com/motobook/backend/internal/orders"
	"github.com/motobook/backend/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	n := &notifier.Notifier{Redis: rdb, Service: cfg.ServiceName}

	createdC := kafkax.NewConsumer(cfg.KafkaBrokers, "notifier", orders.TopicOrderCreated, 4)
	statusC := kafkax.NewConsumer(cfg.KafkaBrokers, "notifier", orders.TopicStatusChanged, 4)

	errCh := make(chan error, 2)
	go func() { errCh <- createdC.Start(ctx, n.Handle) }()
	go func() { errCh <- statusC.Start(ctx, n.Handle) }()

	log.Printf("notifier consuming %s, %s", orders.TopicOrderCreated, orders.TopicStatusChanged)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("received %s, shutting down...", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Fatalf("consumer: %v", err)
		}
	}
}
