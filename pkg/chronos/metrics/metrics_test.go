package metrics

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/chronos/pkg/chronos/series"
	"github.com/komsit37/chronos/pkg/chronos/timerange"
	"github.com/komsit37/chronos/pkg/chronos/types"
)

func seriesOf(closes ...float64) types.PriceSeries {
	s := types.PriceSeries{Symbol: "TEST"}
	for i, c := range closes {
		s.Points = append(s.Points, types.PricePoint{
			Time:   time.Date(2024, 6, 1+i, 0, 0, 0, 0, time.UTC),
			Close:  types.Float(c),
			Volume: types.Float(1000 * float64(i+1)),
		})
	}
	return s
}

func TestDailyAndPeriodEndToEnd(t *testing.T) {
	s := seriesOf(100, 110)

	d, err := Daily(s)
	require.NoError(t, err)
	assert.Equal(t, 110.0, d.Latest)
	assert.Equal(t, 100.0, d.Previous)
	assert.InDelta(t, 10.0, d.Change, 1e-9)
	assert.InDelta(t, 10.0, d.ChangePercent, 1e-9)
	require.NotNil(t, d.Volume)
	assert.Equal(t, 2000.0, *d.Volume)

	p := Period(s)
	require.NoError(t, p.AverageErr)
	require.NoError(t, p.ReturnErr)
	assert.InDelta(t, 10.0, p.Return, 1e-9)
	assert.InDelta(t, 105.0, p.Average, 1e-9)
}

func TestDailyFormula(t *testing.T) {
	cases := [][]float64{
		{1, 2},
		{50, 25.5, 26.75},
		{3.3, 1.1, 0.7, 0.9},
		{1e6, 999999.5},
	}
	for _, closes := range cases {
		d, err := Daily(seriesOf(closes...))
		require.NoError(t, err)
		latest, prev := closes[len(closes)-1], closes[len(closes)-2]
		assert.InDelta(t, latest-prev, d.Change, 1e-9)
		assert.InDelta(t, (latest-prev)/prev*100, d.ChangePercent, 1e-9)
	}
}

func TestDailyGuards(t *testing.T) {
	_, err := Daily(seriesOf())
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = Daily(seriesOf(10))
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = Daily(seriesOf(5, 0, 7))
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestPeriodReturnUndefinedCases(t *testing.T) {
	tests := []struct {
		closes  []float64
		wantErr error
	}{
		{nil, ErrInsufficientData},
		{[]float64{5}, ErrInsufficientData},
		{[]float64{0, 5}, ErrDegenerate},
		{[]float64{0, 5, 6}, ErrDegenerate},
		{[]float64{5, 0}, nil},
		{[]float64{4, 5, 6}, nil},
	}
	for _, tt := range tests {
		_, err := PercentReturn(seriesOf(tt.closes...))
		if tt.wantErr == nil {
			assert.NoError(t, err, "%v", tt.closes)
		} else {
			assert.ErrorIs(t, err, tt.wantErr, "%v", tt.closes)
		}
		p := Period(seriesOf(tt.closes...))
		if tt.wantErr != nil {
			assert.ErrorIs(t, p.ReturnErr, tt.wantErr)
		}
	}
	r, err := PercentReturn(seriesOf(5, 0))
	require.NoError(t, err)
	assert.Equal(t, -100.0, r)
}

func TestPeriodKeepsAverageWhenReturnIsUndefined(t *testing.T) {
	p := Period(seriesOf(0, 5, 10))
	require.NoError(t, p.AverageErr)
	assert.InDelta(t, 5.0, p.Average, 1e-9)
	assert.ErrorIs(t, p.ReturnErr, ErrDegenerate)

	p = Period(seriesOf())
	assert.ErrorIs(t, p.AverageErr, ErrInsufficientData)
	assert.ErrorIs(t, p.ReturnErr, ErrInsufficientData)

	u := Unavailable(ErrDegenerate)
	assert.ErrorIs(t, u.AverageErr, ErrDegenerate)
	assert.ErrorIs(t, u.ReturnErr, ErrDegenerate)
}

func TestAverage(t *testing.T) {
	_, err := Average(seriesOf())
	assert.ErrorIs(t, err, ErrInsufficientData)
	avg, err := Average(seriesOf(7))
	require.NoError(t, err)
	assert.Equal(t, 7.0, avg)
}

// scriptedFetcher answers per symbol and records every request.
type scriptedFetcher struct {
	mu       sync.Mutex
	requests []series.Request
	bySymbol map[string]func(series.Request) (types.PriceSeries, error)
}

func (f *scriptedFetcher) Fetch(_ context.Context, req series.Request) (types.PriceSeries, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if fn, ok := f.bySymbol[strings.ToUpper(req.Symbol)]; ok {
		return fn(req)
	}
	return types.PriceSeries{}, &series.UnavailableError{Symbol: req.Symbol, Cause: series.ErrEmpty}
}

func TestReturnSkipsFetchForEmptyWindow(t *testing.T) {
	f := &scriptedFetcher{}
	today := time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)

	fig := Return(context.Background(), f, "AAPL", timerange.Window{Label: "YTD", YTD: true}, today)
	assert.False(t, fig.Valid)
	assert.Equal(t, ReasonEmptyWindow, fig.Reason)

	fig = Return(context.Background(), f, "AAPL", timerange.Window{Label: "none", Days: 0}, today)
	assert.False(t, fig.Valid)
	fig = Return(context.Background(), f, "AAPL", timerange.Window{Label: "future", Days: -3}, today)
	assert.False(t, fig.Valid)
	assert.Empty(t, f.requests)
}

func TestReturnUsesDateRequest(t *testing.T) {
	f := &scriptedFetcher{bySymbol: map[string]func(series.Request) (types.PriceSeries, error){
		"AAPL": func(series.Request) (types.PriceSeries, error) { return seriesOf(200, 150, 250), nil },
	}}
	today := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)
	fig := Return(context.Background(), f, "AAPL", timerange.Windows[1], today)

	require.True(t, fig.Valid)
	assert.Equal(t, "1 Month", fig.Label)
	assert.InDelta(t, 25.0, fig.Percent, 1e-9)
	require.Len(t, f.requests, 1)
	assert.Equal(t, "AAPL|start=2024-05-16|end=2024-06-15", f.requests[0].Key())
}

func TestReturnNotApplicableCases(t *testing.T) {
	f := &scriptedFetcher{bySymbol: map[string]func(series.Request) (types.PriceSeries, error){
		"ONE":  func(series.Request) (types.PriceSeries, error) { return seriesOf(10), nil },
		"ZERO": func(series.Request) (types.PriceSeries, error) { return seriesOf(0, 10), nil },
	}}
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	w := timerange.Windows[0]

	assert.Equal(t, ReasonInsufficient, Return(context.Background(), f, "ONE", w, today).Reason)
	assert.Equal(t, ReasonZeroBase, Return(context.Background(), f, "ZERO", w, today).Reason)
	fig := Return(context.Background(), f, "MISSING", w, today)
	assert.False(t, fig.Valid)
	assert.Equal(t, ReasonUnavailable, fig.Reason)
}

func TestReturnsIsolatesFailures(t *testing.T) {
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	f := &scriptedFetcher{bySymbol: map[string]func(series.Request) (types.PriceSeries, error){
		"AAPL": func(req series.Request) (types.PriceSeries, error) {
			switch req.Start.Format("2006-01-02") {
			case "2024-05-16": // 1 Month
				return types.PriceSeries{}, fmt.Errorf("provider down: %w", series.ErrUnavailable)
			case "2024-01-01": // YTD
				return seriesOf(0, 3), nil
			case "2023-06-16": // 1 Year
				return seriesOf(42), nil
			}
			return seriesOf(100, 120), nil
		},
	}}

	figs := Returns(context.Background(), f, "AAPL", timerange.Windows, today, 2)
	require.Len(t, figs, len(timerange.Windows))
	for i, w := range timerange.Windows {
		assert.Equal(t, w.Label, figs[i].Label)
	}

	assert.True(t, figs[0].Valid)
	assert.InDelta(t, 20.0, figs[0].Percent, 1e-9)
	assert.False(t, figs[1].Valid)
	assert.Equal(t, ReasonUnavailable, figs[1].Reason)
	assert.True(t, figs[2].Valid)
	assert.Equal(t, ReasonZeroBase, figs[3].Reason)
	assert.Equal(t, ReasonInsufficient, figs[4].Reason)
	assert.True(t, figs[5].Valid)
	assert.Len(t, f.requests, 6)
}

func TestReturnsWithRealFetcherCachesPerWindow(t *testing.T) {
	f := &scriptedFetcher{bySymbol: map[string]func(series.Request) (types.PriceSeries, error){
		"AAPL": func(series.Request) (types.PriceSeries, error) { return seriesOf(1, 2), nil },
	}}
	cached := series.NewCachedFetcher(f, nil)
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	Returns(context.Background(), cached, "aapl", timerange.Windows, today, 0)
	Returns(context.Background(), cached, "AAPL", timerange.Windows, today, 0)
	assert.Len(t, f.requests, 6, "second pass is served from cache")
}
