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

	"github.com/msmelab/go-commerce/internal/auth"
	"github.com/msmelab/go-commerce/internal/config"
	"github.com/msmelab/go-commerce/internal/expenses"
	"github.com/msmelab/go-commerce/internal/httpx"
	"github.com/msmelab/go-commerce/internal/inventory"
	kafkax "github.com/msmelab/go-commerce/internal/kafka"
	"github.com/msmelab/go-commerce/internal/orders"
	"github.com/msmelab/go-commerce/internal/postgres"
	"github.com/msmelab/go-commerce/internal/redisx"
	"github.com/msmelab/go-commerce/internal/users"
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

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	prod.Start(ctx)

	// Stores & engine
	store := &inventory.PGStore{DB: db}
	ledger := &orders.PGLedger{DB: db}
	engine := &orders.Engine{Inventory: store, Ledger: ledger, Timeout: 5 * time.Second}
	tokens := auth.NewTokens(cfg.JWTSecret)

	// Router & handlers
	router := httpx.NewRouter()
	(&httpx.AuthHandler{Users: &users.Repo{DB: db}, Tokens: tokens}).Register(router)
	(&httpx.ProductsHandler{Catalog: store, Redis: rdb, Tokens: tokens}).Register(router)
	(&httpx.OrdersHandler{
		Engine:   engine,
		Ledger:   ledger,
		Producer: prod,
		Redis:    rdb,
		Tokens:   tokens,
		Service:  cfg.ServiceName,
	}).Register(router)
	(&httpx.ExpensesHandler{Expenses: &expenses.Repo{DB: db}, Tokens: tokens}).Register(router)

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
	prod.Close()
	cancel()
	prod.WaitClosed()
}
