package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"Sentinel/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ErrPermanent marks a handler error that retrying cannot fix, such as a
// malformed payload. The message goes straight to the DLQ.
var ErrPermanent = errors.New("permanent handler error")

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer runs one reader per registered topic. Messages of a topic are
// handled strictly in order; offsets are committed after handling.
type Consumer struct {
	cfg       *ConsumerConfig
	log       *logger.Logger
	handlers  map[string]MessageHandler
	readers   map[string]messageReader
	newReader func(topic string) messageReader
	dlq       messageWriter
	chain     []Interceptor

	cancel   context.CancelFunc
	done     chan struct{} // closed once every topic loop has returned
	stopOnce sync.Once
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(log *logger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:    "sentinel",
		RetryMax:   3,
		BackoffMin: 50 * time.Millisecond,
		BackoffMax: 2 * time.Second,
		MinBytes:   1,
		MaxBytes:   10e6, // 10MB
		Observer:   nopObserver{},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if log == nil {
		log = logger.Nop()
	}

	c := &Consumer{
		cfg:      cfg,
		log:      log.With("kafka-consumer"),
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]messageReader),
	}
	c.newReader = func(topic string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    topic,
			GroupID:  cfg.GroupID,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		})
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}
	return c, nil
}

// RegisterHandler registers a message handler for a specific topic.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("handler already registered", logger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// Use appends interceptors; call before Start.
func (c *Consumer) Use(ics ...Interceptor) {
	c.chain = append(c.chain, ics...)
}

// Topics lists the registered topics.
func (c *Consumer) Topics() []string {
	out := make([]string, 0, len(c.handlers))
	for t := range c.handlers {
		out = append(out, t)
	}
	return out
}

// Start launches one loop per topic and returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.handlers) == 0 {
		return errors.New("kafka consumer: no handlers registered")
	}
	ctx, c.cancel = context.WithCancel(ctx)

	var g errgroup.Group
	for topic, handler := range c.handlers {
		reader := c.newReader(topic)
		c.readers[topic] = reader
		g.Go(func() error {
			c.consume(ctx, handler, reader)
			return nil
		})
		c.log.Info("consuming", logger.String("topic", topic), logger.String("group", c.cfg.GroupID))
	}

	c.done = make(chan struct{})
	go func() {
		_ = g.Wait()
		close(c.done)
	}()
	return nil
}

// Stop cancels the loops and waits for in-flight messages until ctx ends.
// Readers and the DLQ writer are closed either way.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		if c.done != nil {
			select {
			case <-c.done:
			case <-ctx.Done():
				err = fmt.Errorf("kafka consumer stop: %w", ctx.Err())
			}
		}

		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.log.Warn("close reader", logger.String("topic", topic), logger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.log.Warn("close dlq writer", logger.Error(cerr))
			}
		}
	})
	return err
}

func (c *Consumer) consume(ctx context.Context, handler MessageHandler, reader messageReader) {
	for {
		km, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("fetch message", logger.String("topic", handler.Topic()), logger.Error(err))
			if !sleepCtx(ctx, c.cfg.BackoffMax) {
				return
			}
			continue
		}

		if !c.process(ctx, handler, km) {
			return
		}
		if err := reader.CommitMessages(ctx, km); err != nil && ctx.Err() == nil {
			c.log.Warn("commit offset", logger.String("topic", handler.Topic()), logger.Int64("offset", km.Offset), logger.Error(err))
		}
	}
}

// process handles one message with retries. It reports false only when
// ctx ended before the message was settled, in which case the offset must
// not be committed.
func (c *Consumer) process(ctx context.Context, handler MessageHandler, km kafka.Message) bool {
	topic := handler.Topic()
	var err error
	attempts := 0
	for {
		attempts++
		err = c.handleOnce(ctx, handler, km)
		if err == nil || errors.Is(err, ErrPermanent) || attempts > c.cfg.RetryMax {
			break
		}
		c.log.Warn("handle attempt failed",
			logger.String("topic", topic),
			logger.Int64("offset", km.Offset),
			logger.Int("attempt", attempts),
			logger.Error(err))
		if !sleepCtx(ctx, backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)) {
			return false
		}
	}
	c.cfg.Observer.RecordKafka(topic, "in", err == nil)
	if err == nil {
		return true
	}

	c.log.Error("message dropped",
		logger.String("topic", topic),
		logger.Int64("offset", km.Offset),
		logger.Int("attempts", attempts),
		logger.Error(err))
	if c.dlq != nil {
		if dlqErr := c.dlq.WriteMessages(ctx, kafka.Message{
			Topic:   c.cfg.DLQTopic,
			Key:     km.Key,
			Value:   km.Value,
			Time:    time.Now(),
			Headers: []kafka.Header{{Key: "source_topic", Value: []byte(topic)}, {Key: "error", Value: []byte(err.Error())}},
		}); dlqErr != nil {
			c.log.Error("write dlq", logger.String("topic", c.cfg.DLQTopic), logger.Error(dlqErr))
		}
	}
	return true
}

func (c *Consumer) handleOnce(ctx context.Context, handler MessageHandler, km kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: handler panic: %v", ErrPermanent, r)
		}
	}()
	return chain(c.chain, km, func(ctx context.Context) error {
		return handler.Handle(ctx, km.Value)
	})(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// backoffWithJitter doubles lo per attempt, caps at hi, then subtracts up
// to half of the result at random.
func backoffWithJitter(lo, hi time.Duration, attempt int) time.Duration {
	if lo <= 0 {
		lo = 50 * time.Millisecond
	}
	hi = max(hi, lo)
	d := hi
	if shift := max(attempt, 1) - 1; shift < 30 {
		d = min(lo<<shift, hi)
	}
	if d < 2 {
		return d
	}
	return d - time.Duration(rand.Int63n(int64(d)/2))
}
