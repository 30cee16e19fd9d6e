package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/lendnet/backend/internal/person"
	"github.com/OFFIS-RIT/lendnet/backend/internal/settlement"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const maxRetries = 10

type SettlementRunner interface {
	Run(ctx context.Context, upTo settlement.Stage) (*settlement.RunReport, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context) (person.ReconcileReport, error)
}

// Handler dispatches deliveries by queue.
type Handler struct {
	settlement SettlementRunner
	reconciler Reconciler
}

func NewHandler(runner SettlementRunner, reconciler Reconciler) *Handler {
	return &Handler{settlement: runner, reconciler: reconciler}
}

// Handle processes one message body taken from queueName.
func (h *Handler) Handle(ctx context.Context, queueName string, body []byte) error {
	switch queueName {
	case SettlementQueue:
		var msg SettlementMsg
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("%w: settlement message: %w", common.ErrInvalidInput, err)
		}
		report, err := h.settlement.Run(ctx, settlement.Stage(msg.Stage))
		if err != nil {
			return err
		}
		logger.Info("[Queue][Settlement] Run finished", "correlation_id", msg.CorrelationID, "run_id", report.ID, "stages", report.CompletedStages)
		return nil

	case ReconcileQueue:
		var msg ReconcileMsg
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("%w: reconcile message: %w", common.ErrInvalidInput, err)
		}
		report, err := h.reconciler.Reconcile(ctx)
		if err != nil {
			return err
		}
		logger.Info("[Queue][Reconcile] Sweep finished", "correlation_id", msg.CorrelationID, "created", report.VerticesCreated, "removed", report.VerticesRemoved, "repaired", report.EdgesRepaired)
		return nil
	}
	return fmt.Errorf("%w: unknown queue %s", common.ErrInvalidInput, queueName)
}

// HandleProcessingError routes a failed delivery. Rejections that a retry
// cannot fix, and deliveries retried maxRetries times, go to the _dlq
// queue; everything else goes to _retry with an incremented x-retries
// header. The original delivery is acked once the copy is published.
func HandleProcessingError(ctx context.Context, ch publisher, msg amqp091.Delivery, queueName string, cause error) {
	retries := retriesOf(msg.Headers)

	target := queueName + "_retry"
	if retries >= maxRetries || common.IsBusinessRejection(cause) {
		target = queueName + "_dlq"
	}

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-retries"] = int32(retries + 1)
	if cause != nil {
		headers["x-last-error"] = cause.Error()
	}

	logger.Info("[Queue] Rerouting failed message", "queue", queueName, "target", target, "retries", retries)
	err := ch.PublishWithContext(ctx, "", target, false, false, amqp091.Publishing{
		ContentType:  msg.ContentType,
		MessageId:    msg.MessageId,
		Body:         msg.Body,
		Headers:      headers,
		DeliveryMode: amqp091.Persistent,
	})
	if err != nil {
		logger.Error("[Queue] Failed to reroute message", "target", target, "err", err)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			logger.Error("[Queue] Failed to nack message", "err", nackErr)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
}

func retriesOf(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

