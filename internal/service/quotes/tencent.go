package quotes

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"

	"Sentinel/internal/domain/models"
	sthttp "Sentinel/pkg/http"
)

const (
	SourceTencent      = "tencent"
	DefaultTencentBase = "http://qt.gtimg.cn"

	tencentMinFields = 40
	noSellPower      = 999
)

var (
	bidVolumeIdx = []int{10, 12, 14, 16, 18}
	askVolumeIdx = []int{20, 22, 24, 26, 28}
)

// Tencent serves the five-level book, used for buy/sell power.
type Tencent struct {
	base   string
	client *sthttp.Client
}

func NewTencent(base string, client *sthttp.Client) *Tencent {
	if base == "" {
		base = DefaultTencentBase
	}
	return &Tencent{base: base, client: client}
}

func (t *Tencent) Name() string { return SourceTencent }

func (t *Tencent) Fetch(ctx context.Context, code string) (models.SourceReading, error) {
	exchange, digits, err := Symbol(code)
	if err != nil {
		return models.SourceReading{}, err
	}
	url := fmt.Sprintf("%s/q=%s%s", t.base, exchange, digits)
	body, err := t.client.Get(ctx, url, nil)
	if err != nil {
		return models.SourceReading{}, fmt.Errorf("tencent %s: %w", digits, err)
	}
	return parseTencent(body)
}

// parseTencent reads `v_sh600519="1~name~code~price~...";`.
func parseTencent(body []byte) (models.SourceReading, error) {
	text, err := simplifiedchinese.GBK.NewDecoder().Bytes(body)
	if err != nil {
		return models.SourceReading{}, fmt.Errorf("tencent: decode gbk: %w", err)
	}
	payload, ok := quoted(string(text))
	if !ok || payload == "" {
		return models.SourceReading{}, fmt.Errorf("tencent: %w", ErrEmptyQuote)
	}
	fields := strings.Split(payload, "~")
	if len(fields) < tencentMinFields {
		return models.SourceReading{}, fmt.Errorf("tencent: %w: %d fields", ErrShortRecord, len(fields))
	}

	var buy, sell float64
	for _, i := range bidVolumeIdx {
		buy += num(fields[i])
	}
	for _, i := range askVolumeIdx {
		sell += num(fields[i])
	}
	power := float64(noSellPower)
	if sell > 0 {
		power = ratio(buy, sell)
	}
	return models.SourceReading{
		Source:     SourceTencent,
		Price:      num(fields[3]),
		ChangePct:  num(fields[32]),
		HasPower:   true,
		BuyPower:   buy,
		SellPower:  sell,
		PowerRatio: power,
	}, nil
}
