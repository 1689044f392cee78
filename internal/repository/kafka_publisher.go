package repository

import (
	"context"
	"errors"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
)

// producer is the subset of pkg/kafka.Producer used here.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaVerdictPublisher writes verdicts keyed by instrument so one
// instrument's verdicts stay on one partition.
type KafkaVerdictPublisher struct {
	p     producer
	topic string
}

var _ domrepo.VerdictPublisher = (*KafkaVerdictPublisher)(nil)

func NewKafkaVerdictPublisher(p producer, topic string) *KafkaVerdictPublisher {
	return &KafkaVerdictPublisher{p: p, topic: topic}
}

func (k *KafkaVerdictPublisher) PublishVerdict(ctx context.Context, v *models.Verdict) error {
	if v == nil {
		return errors.New("nil verdict")
	}
	return k.p.Publish(ctx, k.topic, []byte(v.Instrument), v)
}

func (k *KafkaVerdictPublisher) Close() error {
	return k.p.Close()
}

// NopVerdictPublisher is used when kafka is disabled.
type NopVerdictPublisher struct{}

func (NopVerdictPublisher) PublishVerdict(context.Context, *models.Verdict) error { return nil }

func (NopVerdictPublisher) Close() error { return nil }
