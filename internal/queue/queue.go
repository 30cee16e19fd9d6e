package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/OFFIS-RIT/lendnet/backend/internal/util"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rabbitmq/amqp091-go"
)

const (
	SettlementQueue = "settlement_queue"
	ReconcileQueue  = "reconcile_queue"

	retryDelay = 10 * time.Second
)

// Queues lists every work queue the worker consumes.
var Queues = []string{SettlementQueue, ReconcileQueue}

type declarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Init dials the broker, retrying with growing pauses while it starts up.
func Init(ctx context.Context, url string, tries int) (*amqp091.Connection, error) {
	return util.RetryWithBackoff(ctx, tries, time.Second, func(ctx context.Context) (*amqp091.Connection, error) {
		conn, err := amqp091.Dial(url)
		if err != nil {
			logger.Warn("[Queue] Failed to connect to RabbitMQ", "err", err)
		}
		return conn, err
	})
}

// SetupQueues declares every queue in names together with its _dlq and a
// _retry queue that dead-letters back into it after retryDelay.
func SetupQueues(ch declarer, names []string) error {
	for _, name := range names {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return err
		}

		if _, err := ch.QueueDeclare(name+"_dlq", true, false, false, false, nil); err != nil {
			return err
		}

		_, err := ch.QueueDeclare(
			name+"_retry",
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryDelay.Milliseconds()),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return err
		}
		logger.Debug("[Queue] Queue declared", "queue", name)
	}
	return nil
}

// PublishJSON sends v as a persistent JSON message to queueName through the
// default exchange.
func PublishJSON(ctx context.Context, ch publisher, queueName string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	id, err := gonanoid.New()
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		MessageId:    id,
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	})
}
