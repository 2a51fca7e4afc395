package consumer

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/studyroom/seat-tracker/internal/models"
	"github.com/studyroom/seat-tracker/internal/repository"
)

// Acknowledger is the part of amqp.Delivery the consumer needs.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type AuditConsumer struct {
	repo repository.AuditRepository
}

func NewAuditConsumer(repo repository.AuditRepository) *AuditConsumer {
	return &AuditConsumer{repo: repo}
}

// Start records reservation lifecycle events into the audit table until
// msgs is closed.
func (ac *AuditConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			ac.Handle(context.Background(), msg.Body, &msg)
		}
		log.Println("[AuditConsumer] channel closed, stopping consumer")
	}()
}

func (ac *AuditConsumer) Handle(ctx context.Context, body []byte, ack Acknowledger) {
	var event models.ReservationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("[AuditConsumer] failed to unmarshal: %v", err)
		_ = ack.Nack(false, false)
		return
	}
	if event.MessageID == "" || event.Type == "" {
		log.Printf("[AuditConsumer] dropping event without message id or type")
		_ = ack.Nack(false, false)
		return
	}

	event.ID = 0
	if err := ac.repo.Record(ctx, &event); err != nil {
		log.Printf("[AuditConsumer] failed to record %s for %s: %v", event.Type, event.StudentID, err)
		_ = ack.Nack(false, true) // requeue
		return
	}

	_ = ack.Ack(false)
}
