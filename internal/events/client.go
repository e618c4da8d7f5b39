package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"finance-ledger/internal/config"
	"finance-ledger/internal/logging"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

var ErrClientClosed = errors.New("amqp client closed")

// Client owns one AMQP connection and channel bound to a durable direct
// exchange and queue. The queue name doubles as the routing key. Messages
// the consumer gives up on go to the "<queue>.dead" queue. A lost connection
// is logged when it drops and redialed on the next publish or consume.
type Client struct {
	mu       sync.Mutex
	url      string
	conn     *amqp.Connection
	channel  *amqp.Channel
	closed   bool
	exchange string
	queue    string
	log      *logrus.Entry
}

func NewClient(cfg config.AMQPConfig, log logrus.FieldLogger) (*Client, error) {
	client := &Client{
		url:      cfg.URL,
		exchange: cfg.Exchange,
		queue:    cfg.Queue,
		log:      logging.WithComponent(log, "amqp"),
	}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

func deadLetterQueue(queue string) string {
	return queue + ".dead"
}

// connect dials, opens a channel and declares the topology. The caller holds
// mu or owns the client exclusively.
func (c *Client) connect() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn, c.channel = conn, channel
	if err := c.setup(); err != nil {
		_ = c.closeConnection()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	go c.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))
	return nil
}

func (c *Client) watch(closed <-chan *amqp.Error) {
	if err, ok := <-closed; ok && err != nil {
		c.log.WithFields(logrus.Fields{
			"code":   err.Code,
			"reason": err.Reason,
		}).Warn("amqp connection lost")
	}
}

// ensureConnected redials when the connection or channel is gone. The caller
// holds mu.
func (c *Client) ensureConnected() error {
	if c.closed {
		return ErrClientClosed
	}
	if c.conn != nil && !c.conn.IsClosed() && c.channel != nil && !c.channel.IsClosed() {
		return nil
	}

	_ = c.closeConnection()
	c.log.Info("reconnecting to AMQP")
	if err := c.connect(); err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}
	c.log.Info("reconnected to AMQP")
	return nil
}

func (c *Client) currentChannel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	return c.channel, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	dead := deadLetterQueue(c.queue)
	if _, err := c.channel.QueueDeclare(dead, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead letter queue: %w", err)
	}
	if err := c.channel.QueueBind(dead, dead, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind dead letter queue: %w", err)
	}

	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    c.exchange,
		"x-dead-letter-routing-key": dead,
	}); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := c.channel.QueueBind(c.queue, c.queue, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishTransaction sends the event as a persistent JSON message.
func (c *Client) PublishTransaction(ctx context.Context, event *TransactionEvent) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	channel, err := c.currentChannel()
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = channel.PublishWithContext(ctx, c.exchange, c.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         event.Event,
		MessageId:    event.TransactionID.String(),
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"event":          event.Event,
		"transaction_id": event.TransactionID,
	}).Debug("published transaction event")

	return nil
}

// Deliveries starts a manual-ack consumer on the queue, redialing first if
// the connection was lost.
func (c *Client) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	channel, err := c.currentChannel()
	if err != nil {
		return nil, fmt.Errorf("start consuming: %w", err)
	}

	msgs, err := channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("start consuming: %w", err)
	}
	return msgs, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.closeConnection()
}

func (c *Client) closeConnection() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		c.channel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		c.conn = nil
	}
	return errors.Join(errs...)
}
