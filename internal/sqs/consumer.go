package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// ConsumerAPI defines the interface for SQS operations used by Consumer.
type ConsumerAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// TaskHandler executes one reconcile task. A returned error leaves the message
// on the queue so SQS redelivers it.
type TaskHandler interface {
	HandleReconcileTask(ctx context.Context, msg ReconcileMessage) error
}

// Consumer pulls reconcile tasks from AWS SQS and hands them to the handler.
type Consumer struct {
	client   ConsumerAPI
	queueURL string
	handler  TaskHandler
}

// NewConsumer creates a new SQS Consumer with the given client, queue URL and handler.
func NewConsumer(client ConsumerAPI, queueURL string, handler TaskHandler) *Consumer {
	return &Consumer{
		client:   client,
		queueURL: queueURL,
		handler:  handler,
	}
}

// Start begins consuming messages from the SQS queue until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("Starting reconcile consumer", slog.String("queueURL", c.queueURL))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping reconcile consumer")
			return ctx.Err()
		default:
			if err := c.receiveMessages(ctx); err != nil {
				slog.Error("Error receiving messages", slog.Any("err", err))
			}
		}
	}
}

func (c *Consumer) receiveMessages(ctx context.Context) error {
	result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20, // Long polling
	})
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, message := range result.Messages {
		if err := c.processMessage(ctx, message); err != nil {
			// Leave the message on the queue for redelivery
			slog.Error("Error processing message", slog.Any("err", err))
			continue
		}

		// Delete message after successful processing
		if err := c.deleteMessage(ctx, message); err != nil {
			slog.Error("Error deleting message", slog.Any("err", err))
		}
	}

	return nil
}

func (c *Consumer) processMessage(ctx context.Context, message types.Message) error {
	if message.Body == nil {
		return fmt.Errorf("message body is nil")
	}

	var msg ReconcileMessage
	if err := json.Unmarshal([]byte(*message.Body), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	slog.Info("Received reconcile task",
		slog.String("task_id", msg.TaskID),
		slog.String("action", msg.Action),
		slog.String("ledger_id", msg.LedgerID),
		slog.Int("attempts", msg.Attempts),
	)

	if c.handler == nil {
		return nil
	}
	return c.handler.HandleReconcileTask(ctx, msg)
}

func (c *Consumer) deleteMessage(ctx context.Context, message types.Message) error {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
