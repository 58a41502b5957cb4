package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-inventory-orders.git/internal/config"
	kafkax "github.com/ariefcatur/go-inventory-orders.git/internal/kafka"
	"github.com/ariefcatur/go-inventory-orders.git/internal/orders"
	"github.com/ariefcatur/go-inventory-orders.git/internal/redisx"
	"github.com/ariefcatur/go-inventory-orders.git/internal/stockwatch"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redisx.New(ctx, cfg.RedisAddr)
	if err != nil {
		log.WithError(err).Fatal("redis")
	}
	defer rdb.Close()

	svc := &stockwatch.Service{
		Redis:       rdb,
		Index:       &redisx.LowStockIndex{Client: rdb},
		Threshold:   cfg.LowStock,
		ServiceName: cfg.ServiceName + "-stockwatch",
		Log:         log,
	}

	cons := kafkax.NewConsumer(cfg.Brokers(), cfg.StockwatchGroup, orders.TopicOrderTransactions, cfg.StockwatchWorkers, log)
	log.WithFields(logrus.Fields{
		"group":     cfg.StockwatchGroup,
		"topic":     orders.TopicOrderTransactions,
		"workers":   cfg.StockwatchWorkers,
		"threshold": cfg.LowStock,
	}).Info("stockwatch consumer started")
	if err := cons.Start(ctx, svc.HandleOrderTransaction); err != nil {
		log.WithError(err).Error("consumer exit")
	}
	log.Info("stockwatch stopped")
}
