package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	yfgo "github.com/komsit37/yf-go"
)

// OHLCV column names produced by YahooProvider.
const (
	ColOpen     = "Open"
	ColHigh     = "High"
	ColLow      = "Low"
	ColClose    = "Close"
	ColAdjClose = "Adj Close"
	ColVolume   = "Volume"
)

// YahooProvider implements Provider using yf-go's chart endpoint.
type YahooProvider struct {
	api     yfgo.API
	timeout time.Duration
}

// NewYahooProvider wraps api. A nil api gets a fresh yf-go client with its own
// payload cache disabled, since callers cache normalized series themselves.
func NewYahooProvider(api yfgo.API, timeout time.Duration) *YahooProvider {
	if api == nil {
		api = yfgo.NewClient(yfgo.WithCacheDisabled())
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &YahooProvider{api: api, timeout: timeout}
}

func (p *YahooProvider) Download(ctx context.Context, q Query) (Table, error) {
	sym := strings.TrimSpace(q.Symbol)
	if sym == "" {
		return Table{}, fmt.Errorf("symbol is required")
	}
	opts, err := chartOptions(q)
	if err != nil {
		return Table{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	res, err := p.api.ChartTyped(cctx, sym, opts)
	if err != nil {
		return Table{}, err
	}
	return chartTable(res), nil
}

func chartOptions(q Query) (yfgo.ChartOptions, error) {
	prePost := false
	switch {
	case q.ByPeriod():
		return yfgo.ChartOptions{
			Range:          q.Period,
			Interval:       q.Interval,
			IncludePrePost: &prePost,
			Events:         "div|split",
			ReturnType:     "object",
		}, nil
	case q.ByDates():
		p1, p2 := q.Start.Unix(), q.End.Unix()
		return yfgo.ChartOptions{
			Period1:        &p1,
			Period2:        &p2,
			Interval:       "1d",
			IncludePrePost: &prePost,
			Events:         "div|split",
			ReturnType:     "object",
		}, nil
	default:
		return yfgo.ChartOptions{}, fmt.Errorf("query needs period and interval or start and end")
	}
}

// chartTable lays the chart arrays out as rows. Missing array entries stay nil.
func chartTable(res yfgo.ChartResult) Table {
	var qs yfgo.ChartQuoteSeries
	if len(res.Indicators.Quote) > 0 {
		qs = res.Indicators.Quote[0]
	}
	var adj []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}

	t := Table{
		Columns: []Column{{ColOpen}, {ColHigh}, {ColLow}, {ColClose}, {ColAdjClose}, {ColVolume}},
	}
	for i, ts := range res.Timestamp {
		t.Index = append(t.Index, time.Unix(ts, 0).UTC())
		t.Rows = append(t.Rows, []any{
			floatAt(qs.Open, i),
			floatAt(qs.High, i),
			floatAt(qs.Low, i),
			floatAt(qs.Close, i),
			floatAt(adj, i),
			intAt(qs.Volume, i),
		})
	}
	return t
}

func floatAt(values []*float64, idx int) any {
	if idx >= len(values) || values[idx] == nil {
		return nil
	}
	return *values[idx]
}

func intAt(values []*int64, idx int) any {
	if idx >= len(values) || values[idx] == nil {
		return nil
	}
	return *values[idx]
}
