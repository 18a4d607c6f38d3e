package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	applog "spendlog/internal/log"
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	baseBackoff    = time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// Handler processes one change. Returning an error requeues the delivery.
type Handler func(ctx context.Context, msg *StorageChangeMessage) error

// Client publishes and consumes storage change messages over a durable direct
// exchange. The routing key is the queue name.
//
// Publishing goes through a circuit breaker so a broker outage does not slow
// down writes. Consuming reconnects with exponential backoff.
type Client struct {
	url      string
	exchange string
	queue    string
	logger   *slog.Logger
	breaker  *breaker

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// NewClient dials url and declares the exchange, the queue and their binding.
func NewClient(url, exchange, queue string) (*Client, error) {
	c := newClient(url, exchange, queue)
	if _, err := c.ensureChannel(); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(url, exchange, queue string) *Client {
	return &Client{
		url:      url,
		exchange: exchange,
		queue:    queue,
		logger:   slog.Default().With(applog.FieldComponent, applog.ComponentAMQP),
		breaker:  newBreaker(maxFailures, openTimeout),
	}
}

// ensureChannel returns the open channel, dialing again when the broker has
// closed the previous one.
func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() && c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.dropLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := c.declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	c.conn, c.channel = conn, ch
	return ch, nil
}

func (c *Client) declare(ch *amqp091.Channel) error {
	const durable, autoDelete, internal, exclusive, noWait = true, false, false, false, false

	if err := ch.ExchangeDeclare(c.exchange, amqp091.ExchangeDirect, durable, autoDelete, internal, noWait, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.exchange, err)
	}
	if _, err := ch.QueueDeclare(c.queue, durable, autoDelete, exclusive, noWait, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}
	if err := ch.QueueBind(c.queue, c.queue, c.exchange, noWait, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", c.queue, err)
	}
	return nil
}

// PublishChange announces that the value under key changed.
func (c *Client) PublishChange(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.breaker.allow() {
		return fmt.Errorf("publish %s: %w", key, ErrCircuitOpen)
	}

	msg := NewStorageChangeMessage(key)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.breaker.failure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	const mandatory, immediate = false, false
	err = ch.PublishWithContext(ctx, c.exchange, c.queue, mandatory, immediate, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    msg.Timestamp,
		Body:         body,
	})
	if err != nil {
		c.breaker.failure()
		if isConnectionError(err) {
			c.mu.Lock()
			c.dropLocked()
			c.mu.Unlock()
		}
		return fmt.Errorf("publish %s: %w", key, err)
	}

	c.breaker.success()
	c.logger.DebugContext(ctx, "Change published", applog.FieldKey, key, "exchange", c.exchange)
	return nil
}

// ConsumeChanges delivers change messages to handle until ctx is cancelled.
// Malformed messages are dropped and failed ones requeued. A lost connection
// is re-established with exponential backoff; any other error ends the loop.
func (c *Client) ConsumeChanges(ctx context.Context, handle func(context.Context, *StorageChangeMessage) error) error {
	attempt := 0
	for {
		err := c.consume(ctx, handle, func() { attempt = 0 })
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		attempt++
		c.logger.WarnContext(ctx, "Consumer disconnected, retrying",
			applog.FieldError, err,
			"attempt", attempt,
			"backoff", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) consume(ctx context.Context, handle Handler, connected func()) error {
	ch, err := c.ensureChannel()
	if err != nil {
		return err
	}

	const autoAck, exclusive, noLocal, noWait = false, false, false, false
	deliveries, err := ch.Consume(c.queue, "", autoAck, exclusive, noLocal, noWait, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	connected()
	c.logger.InfoContext(ctx, "Consuming changes", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return amqp091.ErrClosed
			}
			c.deliver(ctx, d, handle)
		}
	}
}

// deliver settles d: ack on success, requeue on handler failure, drop when
// the body cannot be decoded.
func (c *Client) deliver(ctx context.Context, d amqp091.Delivery, handle Handler) {
	msg, err := StorageChangeMessageFromJSON(d.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Dropping malformed change", applog.FieldError, err)
		_ = d.Nack(false, false)
		return
	}
	if err := handle(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "Change handler failed, requeueing",
			applog.FieldError, err,
			applog.FieldKey, msg.Key)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
	c.logger.DebugContext(ctx, "Change processed", applog.FieldKey, msg.Key)
}

// exponentialBackoff doubles from baseBackoff and caps at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return baseBackoff
	}
	if attempt >= 5 {
		return maxBackoff
	}
	return min(baseBackoff<<attempt, maxBackoff)
}

var connectionErrorFragments = []string{"connection", "eof", "broken pipe", "closed network", "dial amqp"}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range connectionErrorFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

func (c *Client) dropLocked() {
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Close closes the channel and the connection. The client may not be used
// afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}
