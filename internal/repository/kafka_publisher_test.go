package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinel/internal/domain/models"
)

type captured struct {
	topic string
	key   []byte
	value interface{}
}

type fakeProducer struct {
	sent   []captured
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.sent = append(f.sent, captured{topic, key, value})
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaVerdictPublisherKeysByInstrument(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaVerdictPublisher(fp, "sentinel.verdicts")

	v := &models.Verdict{ID: "1", Instrument: "600519"}
	require.NoError(t, p.PublishVerdict(context.Background(), v))
	require.Len(t, fp.sent, 1)
	assert.Equal(t, "sentinel.verdicts", fp.sent[0].topic)
	assert.Equal(t, []byte("600519"), fp.sent[0].key)
	assert.Same(t, v, fp.sent[0].value)

	assert.Error(t, p.PublishVerdict(context.Background(), nil))
	require.NoError(t, p.Close())
	assert.True(t, fp.closed)
}
