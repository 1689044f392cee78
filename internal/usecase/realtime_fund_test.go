package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinel/internal/domain/models"
	"Sentinel/internal/service/quotes"
	"Sentinel/pkg/cache"
)

type stubSource struct {
	name  string
	r     models.SourceReading
	err   error
	calls atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context, string) (models.SourceReading, error) {
	s.calls.Add(1)
	if s.err != nil {
		return models.SourceReading{}, s.err
	}
	r := s.r
	r.Source = s.name
	return r, nil
}

func newMemoryCache(t *testing.T) cache.Service {
	t.Helper()
	c := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRealtimePartialFailure(t *testing.T) {
	flow := &stubSource{name: "eastmoney", r: models.SourceReading{HasFlow: true, MainNet: 800}}
	tape := &stubSource{name: "sina", err: errors.New("timeout")}
	book := &stubSource{name: "tencent", r: models.SourceReading{HasPower: true, PowerRatio: 1.3, Price: 10}}
	m := newCountMetrics()

	uc := NewRealtimeFundUseCase([]quotes.Source{flow, tape, book}, nil, m, nil, DefaultRealtimeConfig())
	snap := uc.GetSnapshot(context.Background(), "600519")

	assert.True(t, snap.Valid)
	assert.Equal(t, []string{"eastmoney", "tencent"}, snap.Sources)
	assert.Equal(t, 70.0, snap.Confidence)
	assert.Equal(t, models.FundTrendBigInflow, snap.FundTrend)
	assert.Equal(t, []bool{false}, m.fetches["sina"])
	assert.Equal(t, []bool{true}, m.fetches["eastmoney"])
}

func TestRealtimeAllSourcesDown(t *testing.T) {
	down := &stubSource{name: "eastmoney", err: errors.New("503")}
	uc := NewRealtimeFundUseCase([]quotes.Source{down}, newMemoryCache(t), nil, nil, DefaultRealtimeConfig())

	snap := uc.GetSnapshot(context.Background(), "600519")
	assert.False(t, snap.Valid)
	assert.Equal(t, "600519", snap.Code)

	// invalid snapshots are not cached
	uc.GetSnapshot(context.Background(), "600519")
	assert.Equal(t, int32(2), down.calls.Load())
}

func TestRealtimeCachesValidSnapshot(t *testing.T) {
	src := &stubSource{name: "eastmoney", r: models.SourceReading{HasFlow: true, MainNet: 50}}
	uc := NewRealtimeFundUseCase([]quotes.Source{src}, newMemoryCache(t), nil, nil,
		RealtimeConfig{Timeout: time.Second, MaxWorkers: 1, CacheTTL: time.Minute})

	first := uc.GetSnapshot(context.Background(), "600519")
	second := uc.GetSnapshot(context.Background(), "600519")
	require.True(t, first.Valid)
	assert.Equal(t, first.MainNet, second.MainNet)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRealtimeReportBaseline(t *testing.T) {
	src := &stubSource{name: "eastmoney", r: models.SourceReading{HasFlow: true, MainNet: -300}}
	uc := NewRealtimeFundUseCase([]quotes.Source{src}, nil, nil, nil, DefaultRealtimeConfig())

	r := uc.Report(context.Background(), "600519", []models.MoneyFlowRecord{{MainNetInflow: 400}})
	require.NotNil(t, r.Alert)
	assert.Equal(t, -700.0, r.Alert.Change)

	r = uc.Report(context.Background(), "600519", nil)
	assert.Nil(t, r.Alert)
}
