package worker

import (
	"context"
	"encoding/json"

	"hotel-service/internal/apperr"
	"hotel-service/internal/broker"
	"hotel-service/internal/service"
	"hotel-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reconciler applies a gateway callback.
type Reconciler interface {
	Reconcile(ctx context.Context, params map[string]string) (*service.ReconcileResult, error)
}

// CallbackWorker reconciles gateway notifications relayed through Kafka.
// Each message value is the JSON object of the notification's fields.
type CallbackWorker struct {
	consumer   *broker.Consumer
	reconciler Reconciler
	logger     *zap.Logger
}

// NewCallbackWorker creates a new callback worker
func NewCallbackWorker(consumer *broker.Consumer, reconciler Reconciler) *CallbackWorker {
	return &CallbackWorker{
		consumer:   consumer,
		reconciler: reconciler,
		logger:     util.GetLogger(),
	}
}

// Start starts the worker
func (w *CallbackWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting callback worker")
	return w.consumer.StartConsuming(ctx, w.HandleMessage)
}

// Stop stops the worker
func (w *CallbackWorker) Stop() error {
	w.logger.Info("Stopping callback worker")
	return w.consumer.Close()
}

// HandleMessage reconciles one notification. Malformed, forged or rejected
// notifications are dropped; only unexpected failures are returned so the
// message is not committed.
func (w *CallbackWorker) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var params map[string]string
	if err := json.Unmarshal(msg.Value, &params); err != nil {
		w.logger.Warn("Dropping undecodable callback message",
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return nil
	}

	result, err := w.reconciler.Reconcile(ctx, params)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			return err
		}
		w.logger.Warn("Dropping rejected callback message",
			zap.Int64("offset", msg.Offset),
			zap.String("kind", apperr.KindOf(err).String()))
		return nil
	}

	w.logger.Info("Callback message reconciled",
		zap.Int64("booking_id", result.Payment.BookingID),
		zap.String("payment_status", string(result.Payment.Status)),
		zap.Bool("replayed", result.Replayed))
	return nil
}
