package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// PublisherAPI defines the interface for SQS operations used by Publisher.
type PublisherAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher relays reconcile tasks to the AWS SQS queue.
type Publisher struct {
	client   PublisherAPI
	queueURL string
}

// NewPublisher creates a new SQS Publisher with the given client and queue URL.
func NewPublisher(client PublisherAPI, queueURL string) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
	}
}

// ReconcileMessage is the queue payload for one mirror replay. It carries only
// the ledger id: the worker re-reads the authoritative ledger state, so a
// redelivered message is harmless.
type ReconcileMessage struct {
	TaskID   string `json:"task_id"`
	Action   string `json:"action"`
	LedgerID string `json:"ledger_id"`
	Attempts int    `json:"attempts"`
}

// PublishReconcileTask publishes a reconcile task to the SQS queue.
func (p *Publisher) PublishReconcileTask(ctx context.Context, msg ReconcileMessage) error {
	messageBody, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(messageBody)),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	return nil
}
