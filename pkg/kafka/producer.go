package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerConfig mirrors the writer knobs exposed in config.yaml. Zero
// values take the writer defaults below.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int // -1 waits for all in-sync replicas
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	BatchSize    int
	Linger       time.Duration
	Async        bool
	Observer     Observer
}

// Producer writes keyed messages; the hash balancer keeps one instrument
// on one partition.
type Producer struct {
	writer   *kafka.Writer
	observer Observer
	now      func() time.Time
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka producer: brokers are required")
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Linger == 0 {
		cfg.Linger = 50 * time.Millisecond
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:            compressionCodec(cfg.Compression),
			MaxAttempts:            cfg.MaxAttempts,
			WriteTimeout:           cfg.WriteTimeout,
			BatchSize:              cfg.BatchSize,
			BatchTimeout:           cfg.Linger,
			Async:                  cfg.Async,
			AllowAutoTopicCreation: true,
		},
		observer: cfg.Observer,
		now:      time.Now,
	}, nil
}

// Publish encodes value and writes it under key. A trace id carried by ctx
// is forwarded as the trace_id header.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	msg, err := p.message(ctx, topic, key, value)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, msg)
	p.observer.RecordKafka(topic, "out", err == nil)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// PublishMessage is the unkeyed form used by the log digest.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

func (p *Producer) message(ctx context.Context, topic string, key []byte, value interface{}) (kafka.Message, error) {
	body, err := Encode(value)
	if err != nil {
		return kafka.Message{}, err
	}
	msg := kafka.Message{Topic: topic, Key: key, Value: body, Time: p.now()}
	if id := TraceID(ctx); id != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "trace_id", Value: []byte(id)})
	}
	return msg, nil
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Encode passes bytes and strings through and JSON-encodes everything else.
func Encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("kafka encode: %w", err)
	}
	return b, nil
}

// compressionCodec defaults to snappy for unknown names.
func compressionCodec(name string) kafka.Compression {
	switch name {
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	}
	return kafka.Snappy
}
