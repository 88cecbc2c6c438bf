package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaintrack/backend/internal/config"
	httpAPI "github.com/chaintrack/backend/internal/http"
	"github.com/chaintrack/backend/internal/http/controller"
	"github.com/chaintrack/backend/internal/ledger"
	"github.com/chaintrack/backend/internal/logger"
	"github.com/chaintrack/backend/internal/metrics"
	"github.com/chaintrack/backend/internal/service"
	sqspkg "github.com/chaintrack/backend/internal/sqs"
	"github.com/chaintrack/backend/internal/store"
)

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(conf.DebugMode)

	ctx := context.Background()
	db, err := store.StartDB(ctx, conf.Database)
	handleErr("starting database", err)

	// Create repositories
	documentRepository := store.NewDocumentRepository(db)
	taskRepository := store.NewTaskRepository(db)

	// Connect the ledger client and bind the contracts
	ledgerClient := ledger.NewClient(conf.Chain)
	handleErr("connecting to ledger", ledgerClient.Connect(ctx))
	scanner := ledger.NewScanner(ledgerClient, conf.Scanner.BlocksPerDay)

	// Initialize the AWS SQS client for the reconcile queue
	sqsClient, err := sqspkg.NewClient(ctx, conf.AWS.Region, conf.AWS.Endpoint)
	handleErr("creating SQS client", err)
	sqsPublisher := sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL)

	productService := service.NewProductService(ledgerClient, documentRepository, taskRepository)

	// Start the outbox worker to relay pending reconcile tasks every 2 seconds
	outboxWorker := service.NewOutboxWorker(taskRepository, sqsPublisher, 2*time.Second)
	go outboxWorker.Start(ctx)

	// Start HTTP server
	ctr := controller.New(conf)
	productCtr := controller.NewProductController(productService)
	chainCtr := controller.NewChainController(scanner, ledgerClient)
	httpServer := gin.Default()
	httpServer = httpAPI.InitRouter(conf, httpServer, ctr, productCtr, chainCtr)

	go func() {
		err = httpServer.Run(":" + conf.HTTPServer.Port)
		if err != nil {
			handleErr("listening to HTTP requests", err)
		}
	}()

	metrics.StartMetricsServer(conf)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down gracefully...")
	outboxWorker.Stop()
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
