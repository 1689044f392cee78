package regime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"Sentinel/internal/domain/models"
)

func indexBars(latest float64, rest float64, n int) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i].Close = rest
	}
	if n > 0 {
		bars[0].Close = latest
	}
	return bars
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		bars []models.Bar
		want models.Regime
	}{
		{"too few bars", indexBars(200, 100, 19), models.RegimeShock},
		{"flat", indexBars(100, 100, 20), models.RegimeShock},
		// ma20 = (110 + 19*100)/20 = 100.5, trend = 9.45%
		{"well above average", indexBars(110, 100, 20), models.RegimeBull},
		{"well below average", indexBars(90, 100, 20), models.RegimeBear},
		// ma20 = 100.05, trend ~0.95%
		{"inside the band", indexBars(101, 100, 20), models.RegimeShock},
		{"zero prices", indexBars(0, 0, 30), models.RegimeShock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.bars))
		})
	}
}

func TestStateDefaultsAndSet(t *testing.T) {
	var zero State
	assert.Equal(t, models.RegimeShock, zero.Get())

	s := NewState(models.RegimeBull)
	assert.Equal(t, models.RegimeBull, s.Get())

	s.Set(models.Regime("SIDEWAYS"))
	assert.Equal(t, models.RegimeBull, s.Get())

	assert.Equal(t, models.RegimeBear, s.Refresh(indexBars(90, 100, 20)))
	assert.Equal(t, models.RegimeBear, s.Get())
}

func TestStateConcurrentAccess(t *testing.T) {
	s := NewState(models.RegimeShock)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Set(models.RegimeBull)
			} else {
				s.Set(models.RegimeBear)
			}
		}(i)
		go func() {
			defer wg.Done()
			assert.True(t, s.Get().Valid())
		}()
	}
	wg.Wait()
}

func TestParseRegime(t *testing.T) {
	r, err := models.ParseRegime("bull")
	assert.NoError(t, err)
	assert.Equal(t, models.RegimeBull, r)

	_, err = models.ParseRegime("sideways")
	assert.Error(t, err)
}
