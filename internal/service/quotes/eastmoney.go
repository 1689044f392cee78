package quotes

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"Sentinel/internal/domain/models"
	sthttp "Sentinel/pkg/http"
)

const (
	SourceEastmoney      = "eastmoney"
	DefaultEastmoneyBase = "https://push2.eastmoney.com"

	eastmoneyFields = "f62,f64,f65,f66,f69,f70,f71,f72,f75,f76,f77,f78,f184,f185,f186,f187"
)

// Eastmoney serves main-force fund flow split by order size.
type Eastmoney struct {
	base   string
	client *sthttp.Client
}

func NewEastmoney(base string, client *sthttp.Client) *Eastmoney {
	if base == "" {
		base = DefaultEastmoneyBase
	}
	return &Eastmoney{base: base, client: client}
}

func (e *Eastmoney) Name() string { return SourceEastmoney }

func (e *Eastmoney) Fetch(ctx context.Context, code string) (models.SourceReading, error) {
	exchange, digits, err := Symbol(code)
	if err != nil {
		return models.SourceReading{}, err
	}
	market := "0"
	if exchange == "sh" {
		market = "1"
	}
	url := fmt.Sprintf("%s/api/qt/ulist.np/get?fltt=2&secids=%s.%s&fields=%s", e.base, market, digits, eastmoneyFields)

	body, err := e.client.Get(ctx, url, nil)
	if err != nil {
		return models.SourceReading{}, fmt.Errorf("eastmoney %s: %w", digits, err)
	}
	return parseEastmoney(body)
}

func parseEastmoney(body []byte) (models.SourceReading, error) {
	if !gjson.ValidBytes(body) {
		return models.SourceReading{}, fmt.Errorf("eastmoney: invalid json")
	}
	row := gjson.GetBytes(body, "data.diff.0")
	if !row.Exists() || !row.Get("f62").Exists() {
		return models.SourceReading{}, fmt.Errorf("eastmoney: %w", ErrEmptyQuote)
	}
	return models.SourceReading{
		Source:      SourceEastmoney,
		HasFlow:     true,
		MainNet:     yuanToWan(row.Get("f62").Float()),
		MainInflow:  yuanToWan(row.Get("f64").Float()),
		MainOutflow: yuanToWan(row.Get("f65").Float()),
		SuperBigNet: yuanToWan(row.Get("f66").Float()),
		BigNet:      yuanToWan(row.Get("f72").Float()),
		MidNet:      yuanToWan(row.Get("f78").Float()),
	}, nil
}
