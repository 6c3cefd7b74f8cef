package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gigforge/gig-service/internal/pkg/apperror"
)

const (
	connectRetries    = 5
	connectRetryDelay = 5 * time.Second

	retryCountHeader = "x-retry-count"
)

// Connection owns the broker connection shared by publishers and consumers.
type Connection struct {
	conn *amqp.Connection
}

// Connect dials the broker, retrying a few times so the service survives
// broker startup races in container environments.
func Connect(url string) (*Connection, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < connectRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			log.Info("[Queue] Connected to message broker")
			return &Connection{conn: conn}, nil
		}
		log.Warnf("[Queue] Broker connect failed (try %d/%d): %v", i+1, connectRetries, err)
		if i < connectRetries-1 {
			time.Sleep(connectRetryDelay)
		}
	}

	return nil, apperror.Dependency("queue:connect", err)
}

func (c *Connection) Close() {
	if c.conn != nil && !c.conn.IsClosed() {
		_ = c.conn.Close()
	}
}

// Publisher sends JSON payloads to topic exchanges.
type Publisher struct {
	ch *amqp.Channel
}

func (c *Connection) NewPublisher() (*Publisher, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, apperror.Dependency("queue:open-channel", err)
	}
	return &Publisher{ch: ch}, nil
}

// Publish declares the topic exchange and sends the payload as a persistent
// JSON message.
func (p *Publisher) Publish(ctx context.Context, exchange, routingKey string, payload interface{}) error {
	if err := p.ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return apperror.Dependency("queue:declare-exchange", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperror.Dependency("queue:marshal", err)
	}

	err = p.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return apperror.Dependency("queue:publish", err)
	}
	return nil
}

// HandlerFunc processes one message body. A returned error triggers a
// bounded redelivery.
type HandlerFunc func(ctx context.Context, body []byte) error

// ConsumerConfig describes one queue subscription.
type ConsumerConfig struct {
	Exchange   string
	Queue      string
	RoutingKey string
	MaxRetries int
}

// Consume binds the queue to its exchange and processes deliveries on a
// dedicated goroutine. Failed messages are redelivered with a retry counter
// carried in a header; once MaxRetries is exhausted the message is logged as
// a terminal failure and dropped instead of being requeued forever.
func (c *Connection) Consume(cfg ConsumerConfig, handler HandlerFunc) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return apperror.Dependency("queue:open-channel", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return apperror.Dependency("queue:qos", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return apperror.Dependency("queue:declare-exchange", err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return apperror.Dependency("queue:declare-queue", err)
	}

	routingKey := cfg.RoutingKey
	if routingKey == "" {
		routingKey = "#"
	}
	if err := ch.QueueBind(cfg.Queue, routingKey, cfg.Exchange, false, nil); err != nil {
		return apperror.Dependency("queue:bind-queue", err)
	}

	deliveries, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return apperror.Dependency("queue:consume", err)
	}

	go func() {
		for delivery := range deliveries {
			c.handleDelivery(ch, cfg, delivery, handler)
		}
		log.Warnf("[Queue] Delivery channel for %s closed", cfg.Queue)
	}()

	log.Infof("[Queue] Consumer listening on queue %s (exchange %s)", cfg.Queue, cfg.Exchange)
	return nil
}

func (c *Connection) handleDelivery(ch *amqp.Channel, cfg ConsumerConfig, delivery amqp.Delivery, handler HandlerFunc) {
	err := handler(context.Background(), delivery.Body)
	if err == nil {
		_ = delivery.Ack(false)
		return
	}

	retries := retryCount(delivery.Headers)
	if retries >= cfg.MaxRetries {
		log.Errorf("[Queue] Exceeded max retries (%d) on queue %s, dropping message: %v", cfg.MaxRetries, cfg.Queue, err)
		_ = delivery.Ack(false)
		return
	}

	// Re-enqueue through the default exchange with an incremented counter,
	// then ack the original so the broker does not also redeliver it.
	headers := amqp.Table{}
	for k, v := range delivery.Headers {
		headers[k] = v
	}
	headers[retryCountHeader] = int32(retries + 1)

	pubErr := ch.PublishWithContext(context.Background(), "", cfg.Queue, false, false, amqp.Publishing{
		ContentType:  delivery.ContentType,
		DeliveryMode: amqp.Persistent,
		Headers:      headers,
		Body:         delivery.Body,
	})
	if pubErr != nil {
		log.Errorf("[Queue] Failed to requeue message on %s: %v", cfg.Queue, pubErr)
		_ = delivery.Nack(false, true)
		return
	}

	log.Warnf("[Queue] Handler failed on %s (retry %d/%d): %v", cfg.Queue, retries+1, cfg.MaxRetries, err)
	_ = delivery.Ack(false)
}

func retryCount(headers amqp.Table) int {
	raw, ok := headers[retryCountHeader]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// URL builds the broker URL from its parts for readability at call sites.
func URL(user, password, host, port string) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", user, password, host, port)
}
