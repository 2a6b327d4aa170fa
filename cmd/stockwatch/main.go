package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/msmelab/go-commerce/internal/config"
	"github.com/msmelab/go-commerce/internal/inventory"
	kafkax "github.com/msmelab/go-commerce/internal/kafka"
	"github.com/msmelab/go-commerce/internal/orders"
	"github.com/msmelab/go-commerce/internal/postgres"
	"github.com/msmelab/go-commerce/internal/redisx"
	"github.com/msmelab/go-commerce/internal/stockwatch"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &stockwatch.Service{
		Inventory: &inventory.PGStore{DB: db},
		Redis:     rdb,
		Threshold: cfg.LowStockThreshold,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.StockwatchGroup, orders.TopicOrderPlaced, cfg.StockwatchWorkers)

	go func() {
		log.Printf("stockwatch consumer started: group=%s topic=%s workers=%d",
			cfg.StockwatchGroup, orders.TopicOrderPlaced, cfg.StockwatchWorkers)
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
}
