package quotes

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"

	"Sentinel/internal/domain/models"
	sthttp "Sentinel/pkg/http"
)

const (
	SourceSina      = "sina"
	DefaultSinaBase = "https://hq.sinajs.cn"

	sinaReferer   = "https://finance.sina.com.cn"
	sinaMinFields = 32
)

// Sina serves the trade tape: inner and outer volume.
type Sina struct {
	base   string
	client *sthttp.Client
}

func NewSina(base string, client *sthttp.Client) *Sina {
	if base == "" {
		base = DefaultSinaBase
	}
	return &Sina{base: base, client: client}
}

func (s *Sina) Name() string { return SourceSina }

func (s *Sina) Fetch(ctx context.Context, code string) (models.SourceReading, error) {
	exchange, digits, err := Symbol(code)
	if err != nil {
		return models.SourceReading{}, err
	}
	url := fmt.Sprintf("%s/list=%s%s", s.base, exchange, digits)
	body, err := s.client.Get(ctx, url, map[string]string{"Referer": sinaReferer})
	if err != nil {
		return models.SourceReading{}, fmt.Errorf("sina %s: %w", digits, err)
	}
	return parseSina(body)
}

// parseSina reads `var hq_str_sh600519="name,open,pre_close,price,...";`.
func parseSina(body []byte) (models.SourceReading, error) {
	text, err := simplifiedchinese.GBK.NewDecoder().Bytes(body)
	if err != nil {
		return models.SourceReading{}, fmt.Errorf("sina: decode gbk: %w", err)
	}
	payload, ok := quoted(string(text))
	if !ok || payload == "" {
		return models.SourceReading{}, fmt.Errorf("sina: %w", ErrEmptyQuote)
	}
	parts := strings.Split(payload, ",")
	if len(parts) < sinaMinFields {
		return models.SourceReading{}, fmt.Errorf("sina: %w: %d fields", ErrShortRecord, len(parts))
	}

	price := num(parts[3])
	buy := num(parts[7])
	total := num(parts[8])
	sell := total - buy

	bs := 1.0
	if buy > 0 {
		bs = ratio(sell, buy)
	}
	r := models.SourceReading{
		Source:       SourceSina,
		Price:        price,
		HasTape:      true,
		BuyVolume:    buy,
		SellVolume:   sell,
		BuySellRatio: bs,
	}
	if pre := num(parts[2]); pre > 0 && price > 0 {
		r.ChangePct = ratio((price-pre)*100, pre)
	}
	return r, nil
}

func quoted(s string) (string, bool) {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return "", false
	}
	return s[start+1 : start+1+end], true
}

func num(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
