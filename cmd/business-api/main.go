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

	"github.com/motobook/backend/internal/business"
	"github.com/motobook/backend/internal/clients"
	"github.com/motobook/backend/internal/config"
	"github.com/motobook/backend/internal/httpx"
	"github.com/motobook/backend/internal/postgres"
	"github.com/motobook/backend/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	repo := &business.Repo{
		DB:          db,
		DefaultLogo: cfg.BusinessServiceURL + "/uploads/logo/default-business-logo.png",
	}
	router := httpx.NewRouter()
	bh := &httpx.BusinessHandler{
		Store: repo,
		Users: clients.NewUsers(cfg.UserServiceURL),
		Redis: rdb,
	}
	bh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("business-api listening at %s", cfg.HTTPAddr)
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
}
