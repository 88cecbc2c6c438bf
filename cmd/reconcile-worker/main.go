package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chaintrack/backend/internal/config"
	"github.com/chaintrack/backend/internal/ledger"
	"github.com/chaintrack/backend/internal/logger"
	"github.com/chaintrack/backend/internal/service"
	sqspkg "github.com/chaintrack/backend/internal/sqs"
	"github.com/chaintrack/backend/internal/store"
)

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(conf.DebugMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.StartDB(ctx, conf.Database)
	handleErr("starting database", err)
	documentRepository := store.NewDocumentRepository(db)

	ledgerClient := ledger.NewClient(conf.Chain)
	handleErr("connecting to ledger", ledgerClient.Connect(ctx))

	sqsClient, err := sqspkg.NewClient(ctx, conf.AWS.Region, conf.AWS.Endpoint)
	handleErr("creating SQS client", err)

	reconciler := service.NewReconciler(ledgerClient, documentRepository)
	consumer := sqspkg.NewConsumer(sqsClient, conf.AWS.SQSQueueURL, reconciler)

	// Start consuming reconcile tasks
	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Consumer error: %v", err)
		}
	}()

	log.Println("Reconcile worker started. Listening for tasks...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down gracefully...")
	cancel()
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
