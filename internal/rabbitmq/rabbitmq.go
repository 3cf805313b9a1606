// Package rabbitmq queues harvest jobs over AMQP.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/streadway/amqp"

	"github.com/Bebenbaven/YTcommentGETer/internal/models"
)

var (
	ErrDisconnected = errors.New("rabbitmq disconnected, retrying")
	ErrInvalidJob   = errors.New("invalid harvest job")
)

const (
	reconnectDelay = time.Second * 5
	resendDelay    = time.Second * 5

	confirmBuffer = 8
)

// Handler processes one job. A returned error rejects the delivery.
type Handler func(ctx context.Context, job models.HarvestJob) error

type Client struct {
	Queue         string
	logger        *slog.Logger
	mu            sync.Mutex
	pushMu        sync.Mutex
	published     uint64
	connection    *amqp.Connection
	channel       *amqp.Channel
	done          chan os.Signal
	notifyClose   chan *amqp.Error
	notifyConfirm chan amqp.Confirmation
	isConnected   atomic.Bool
	alive         atomic.Bool
}

// New starts connecting to addr in the background. Closing done or calling
// Close stops the reconnect loop.
func New(queue, addr string, done chan os.Signal, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	client := Client{
		Queue:  queue,
		done:   done,
		logger: logger,
	}
	client.alive.Store(true)

	go client.reconnectHandler(addr)
	return &client
}

func (c *Client) reconnectHandler(addr string) {
	for c.alive.Load() {
		c.isConnected.Store(false)
		t := time.Now()
		c.logger.Info("connecting to rabbitmq", "queue", c.Queue)
		var retryCount int
		for !c.connect(addr) {
			if !c.alive.Load() {
				return
			}
			select {
			case <-c.done:
				return
			case <-time.After(reconnectDelay + time.Duration(retryCount)*time.Second):
				c.logger.Warn("rabbitmq connection failed, retrying", "attempt", retryCount+1)
				retryCount++
			}
		}
		c.logger.Info("connected to rabbitmq", "elapsed", time.Since(t))

		c.mu.Lock()
		notifyClose := c.notifyClose
		c.mu.Unlock()
		select {
		case <-c.done:
			return
		case <-notifyClose:
		}
	}
}

func (c *Client) connect(addr string) bool {
	conn, err := amqp.Dial(addr)
	if err != nil {
		c.logger.Error("failed to dial rabbitmq", "error", err)
		return false
	}
	ch, err := conn.Channel()
	if err != nil {
		c.logger.Error("failed to open rabbitmq channel", "error", err)
		_ = conn.Close()
		return false
	}
	if err := ch.Confirm(false); err != nil {
		c.logger.Error("failed to enable publisher confirms", "error", err)
		_ = conn.Close()
		return false
	}

	_, err = ch.QueueDeclare(c.Queue, false, false, false, false, nil)
	if err != nil {
		c.logger.Error("failed to declare queue", "queue", c.Queue, "error", err)
		_ = conn.Close()
		return false
	}

	c.changeConnection(conn, ch)
	c.isConnected.Store(true)
	return true
}

func (c *Client) changeConnection(connection *amqp.Connection, channel *amqp.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connection = connection
	c.channel = channel
	c.published = 0
	c.notifyClose = make(chan *amqp.Error, 1)
	c.notifyConfirm = make(chan amqp.Confirmation, confirmBuffer)
	c.channel.NotifyClose(c.notifyClose)
	c.channel.NotifyPublish(c.notifyConfirm)
}

func (c *Client) current() *amqp.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// Encode is the wire form of a job.
func Encode(job models.HarvestJob) ([]byte, error) {
	if job.VideoID == "" {
		return nil, fmt.Errorf("%w: empty video id", ErrInvalidJob)
	}
	return json.Marshal(job)
}

func Decode(body []byte) (models.HarvestJob, error) {
	var job models.HarvestJob
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if job.VideoID == "" {
		return job, fmt.Errorf("%w: empty video id", ErrInvalidJob)
	}
	return job, nil
}

// Push publishes job and waits for the broker to confirm it, resending on
// timeouts until ctx is done. Pushes are serialized so every confirmation can
// be matched to its delivery tag.
func (c *Client) Push(ctx context.Context, job models.HarvestJob) error {
	data, err := Encode(job)
	if err != nil {
		return err
	}
	if !c.isConnected.Load() {
		return fmt.Errorf("failed to push job: %w", ErrDisconnected)
	}

	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	for {
		tag, confirms, err := c.publish(data)
		if err != nil {
			if !errors.Is(err, ErrDisconnected) {
				return err
			}
		} else {
			acked, err := awaitConfirm(ctx, confirms, tag, resendDelay)
			if err != nil {
				return err
			}
			if acked {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(resendDelay):
		}
	}
}

// awaitConfirm waits for the confirmation of tag. Confirmations of earlier
// tags belong to abandoned pushes and are skipped.
func awaitConfirm(ctx context.Context, confirms <-chan amqp.Confirmation, tag uint64, timeout time.Duration) (bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case confirm, ok := <-confirms:
			if !ok {
				return false, nil
			}
			if confirm.DeliveryTag < tag {
				continue
			}
			return confirm.DeliveryTag == tag && confirm.Ack, nil
		case <-timer.C:
			return false, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// publish sends data on the current channel and returns its delivery tag
// together with the channel's confirmation stream.
func (c *Client) publish(data []byte) (uint64, <-chan amqp.Confirmation, error) {
	if !c.isConnected.Load() {
		return 0, nil, ErrDisconnected
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		"",
		c.Queue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        data,
		},
	)
	if err != nil {
		return 0, nil, err
	}
	c.published++
	return c.published, c.notifyConfirm, nil
}

// UnsafePush publishes without waiting for a confirmation.
func (c *Client) UnsafePush(data []byte) error {
	_, _, err := c.publish(data)
	return err
}

// Stream consumes jobs one at a time until ctx is done or the connection
// drops, in which case ErrDisconnected is returned.
func (c *Client) Stream(ctx context.Context, handle Handler) error {
	for !c.isConnected.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}

	ch := c.current()
	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}
	msgs, err := ch.Consume(
		c.Queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return ErrDisconnected
			}
			c.crawlerEvent(ctx, msg, handle)
		}
	}
}

func (c *Client) crawlerEvent(ctx context.Context, msg amqp.Delivery, handle Handler) {
	job, err := Decode(msg.Body)
	if err == nil {
		err = handle(ctx, job)
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to process job", "video_id", job.VideoID, "error", err)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.logger.ErrorContext(ctx, "failed to nack delivery", "error", nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.ErrorContext(ctx, "failed to ack delivery", "error", ackErr)
	}
}

// Close stops reconnecting and closes the connection.
func (c *Client) Close() error {
	c.alive.Store(false)
	if !c.isConnected.Load() {
		return nil
	}
	c.isConnected.Store(false)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.channel.Close(); err != nil {
		return err
	}
	return c.connection.Close()
}
