// Package series fetches OHLCV series from a provider, cleans them into
// PriceSeries and caches the outcome per request.
package series

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/komsit37/chronos/pkg/chronos/cache"
	"github.com/komsit37/chronos/pkg/chronos/provider"
	"github.com/komsit37/chronos/pkg/chronos/types"
)

// Fetcher returns a cleaned, non-empty series or an error matching ErrUnavailable.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (types.PriceSeries, error)
}

// ProviderFetcher fetches from a provider and normalizes the table.
type ProviderFetcher struct {
	provider provider.Provider
}

func NewProviderFetcher(p provider.Provider) *ProviderFetcher {
	return &ProviderFetcher{provider: p}
}

func (f *ProviderFetcher) Fetch(ctx context.Context, req Request) (types.PriceSeries, error) {
	req = req.Normalize()
	if !req.Valid() {
		return types.PriceSeries{}, unavailable(req.Symbol, ErrInvalidRequest)
	}
	tbl, err := f.provider.Download(ctx, req.query())
	if err != nil {
		log.Warn().Err(err).Str("symbol", req.Symbol).Str("key", req.Key()).Msg("download failed")
		return types.PriceSeries{}, unavailable(req.Symbol, err)
	}
	s, err := Normalize(tbl)
	if err != nil {
		log.Warn().Err(err).Str("symbol", req.Symbol).Str("key", req.Key()).Msg("no usable data")
		return types.PriceSeries{}, unavailable(req.Symbol, err)
	}
	s.Symbol = req.Symbol
	if req.byPeriod() {
		s.Interval = req.Interval
	} else {
		s.Interval = "1d"
	}
	return s, nil
}

// Normalize flattens hierarchical columns, coerces OHLCV cells to numbers,
// drops rows without a close and orders points by time. Duplicate timestamps
// keep the last row. An empty outcome is ErrEmpty.
func Normalize(tbl provider.Table) (types.PriceSeries, error) {
	if tbl.Empty() {
		return types.PriceSeries{}, ErrEmpty
	}
	tbl = tbl.Flatten()
	closeIdx := tbl.ColumnIndex(provider.ColClose)
	if closeIdx < 0 {
		return types.PriceSeries{}, ErrNoClose
	}
	openIdx := tbl.ColumnIndex(provider.ColOpen)
	highIdx := tbl.ColumnIndex(provider.ColHigh)
	lowIdx := tbl.ColumnIndex(provider.ColLow)
	volIdx := tbl.ColumnIndex(provider.ColVolume)

	byTime := make(map[int64]int, len(tbl.Rows))
	points := make([]types.PricePoint, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		if i >= len(tbl.Index) {
			break
		}
		c := cell(row, closeIdx)
		if c == nil {
			continue
		}
		p := types.PricePoint{
			Time:   tbl.Index[i],
			Open:   cell(row, openIdx),
			High:   cell(row, highIdx),
			Low:    cell(row, lowIdx),
			Close:  c,
			Volume: cell(row, volIdx),
		}
		ts := p.Time.UnixNano()
		if j, ok := byTime[ts]; ok {
			points[j] = p
			continue
		}
		byTime[ts] = len(points)
		points = append(points, p)
	}
	if len(points) == 0 {
		return types.PriceSeries{}, ErrEmpty
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return types.PriceSeries{Points: points}, nil
}

func cell(row []any, idx int) *float64 {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return toNumber(row[idx])
}

// toNumber coerces a provider cell; anything that is not a finite number is nil.
func toNumber(v any) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case *float64:
		if n == nil {
			return nil
		}
		v = *n
	case *int64:
		if n == nil {
			return nil
		}
		v = *n
	case bool:
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// CachedFetcher memoizes another Fetcher per request key, including failures.
type CachedFetcher struct {
	next  Fetcher
	cache *cache.Cache[Result]
}

// Result is what the cache holds: a series or the error that replaced it.
type Result struct {
	Series types.PriceSeries
	Err    error
}

func NewCachedFetcher(next Fetcher, c *cache.Cache[Result]) *CachedFetcher {
	if c == nil {
		c = cache.New[Result](cache.DefaultTTL)
	}
	return &CachedFetcher{next: next, cache: c}
}

func (f *CachedFetcher) Fetch(ctx context.Context, req Request) (types.PriceSeries, error) {
	req = req.Normalize()
	if !req.Valid() {
		return types.PriceSeries{}, unavailable(req.Symbol, ErrInvalidRequest)
	}
	res, err := f.cache.GetOrLoad(ctx, req.Key(), func(ctx context.Context) Result {
		s, err := f.next.Fetch(ctx, req)
		return Result{Series: s, Err: err}
	})
	if err != nil {
		return types.PriceSeries{}, unavailable(req.Symbol, err)
	}
	return res.Series, res.Err
}

// Invalidate drops the cached outcome for req so the next Fetch reaches the
// provider.
func (f *CachedFetcher) Invalidate(req Request) {
	f.cache.Invalidate(req.Normalize().Key())
}
