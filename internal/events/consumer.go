package events

import (
	"context"
	"math"
	"time"

	"finance-ledger/internal/logging"
	"finance-ledger/internal/repositories"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	defaultStoreAttempts = 3
	baseRetryDelay       = 200 * time.Millisecond
	maxRetryDelay        = 30 * time.Second
)

// DeliverySource hands out a delivery channel, reconnecting first when the
// previous one was lost.
type DeliverySource interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

// Consumer turns transaction events into audit log rows.
type Consumer struct {
	auditRepo     repositories.AuditLogRepositoryInterface
	storeAttempts int
	backoff       func(attempt int) time.Duration
	log           *logrus.Entry
}

func NewConsumer(auditRepo repositories.AuditLogRepositoryInterface, log logrus.FieldLogger) *Consumer {
	return &Consumer{
		auditRepo:     auditRepo,
		storeAttempts: defaultStoreAttempts,
		backoff:       retryBackoff,
		log:           logging.WithComponent(log, "audit-consumer"),
	}
}

// retryBackoff doubles from baseRetryDelay and stops growing at maxRetryDelay.
func retryBackoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt))) * baseRetryDelay
	if delay <= 0 || delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

// Run handles deliveries until ctx is done. A lost channel or a failed
// reconnect is logged and retried with backoff, so Run only returns once ctx
// is cancelled and never takes the process down with it.
func (c *Consumer) Run(ctx context.Context, source DeliverySource) error {
	c.log.Info("consuming transaction events")

	attempt := 0
	for {
		deliveries, err := source.Deliveries(ctx)
		if err != nil {
			c.log.WithError(err).WithField("attempt", attempt+1).Warn("failed to start consuming")
		} else {
			handled, stopped := c.drain(ctx, deliveries)
			if stopped {
				c.log.WithField("reason", ctx.Err()).Info("stopping event consumption")
				return nil
			}
			if handled > 0 {
				attempt = 0
			}
			c.log.WithField("handled", handled).Warn("delivery channel closed, reconnecting")
		}

		delay := c.backoff(attempt)
		attempt++
		if !sleep(ctx, delay) {
			c.log.WithField("reason", ctx.Err()).Info("stopping event consumption")
			return nil
		}
	}
}

// drain handles deliveries until the channel closes or ctx is done.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) (handled int, stopped bool) {
	for {
		select {
		case <-ctx.Done():
			return handled, true
		case delivery, ok := <-deliveries:
			if !ok {
				return handled, false
			}
			c.HandleDelivery(ctx, delivery)
			handled++
		}
	}
}

// HandleDelivery acks a stored event and rejects a malformed one without
// requeue. A store failure is retried with backoff; when the retries run out
// the message is requeued once and dead-lettered on its redelivery.
func (c *Consumer) HandleDelivery(ctx context.Context, delivery amqp.Delivery) {
	event, err := TransactionEventFromJSON(delivery.Body)
	if err != nil {
		c.log.WithError(err).Warn("rejecting malformed event")
		_ = delivery.Nack(false, false)
		return
	}

	entry := c.log.WithFields(logrus.Fields{
		"event":          event.Event,
		"transaction_id": event.TransactionID,
		"redelivered":    delivery.Redelivered,
	})

	for attempt := 0; ; attempt++ {
		err = c.Handle(event)
		if err == nil {
			_ = delivery.Ack(false)
			entry.Debug("event stored")
			return
		}
		if attempt+1 >= c.storeAttempts || !sleep(ctx, c.backoff(attempt)) {
			break
		}
		entry.WithError(err).WithField("attempt", attempt+1).Warn("retrying audit log store")
	}

	requeue := !delivery.Redelivered
	entry.WithError(err).WithField("requeue", requeue).Error("failed to store audit log")
	_ = delivery.Nack(false, requeue)
}

func (c *Consumer) Handle(event *TransactionEvent) error {
	return c.auditRepo.Create(event.AuditLog())
}

// sleep waits for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
