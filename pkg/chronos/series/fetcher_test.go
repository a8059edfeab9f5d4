package series

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/chronos/pkg/chronos/cache"
	"github.com/komsit37/chronos/pkg/chronos/provider"
	"github.com/komsit37/chronos/pkg/chronos/timerange"
	"github.com/komsit37/chronos/pkg/chronos/types"
)

type fakeProvider struct {
	calls atomic.Int32
	mu    sync.Mutex
	last  provider.Query
	table provider.Table
	err   error
}

func (p *fakeProvider) Download(_ context.Context, q provider.Query) (provider.Table, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.last = q
	p.mu.Unlock()
	return p.table, p.err
}

var ohlcv = []provider.Column{{"Open"}, {"High"}, {"Low"}, {"Close"}, {"Volume"}}

func ts(day int) time.Time { return time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC) }

func TestFetchNormalizesTable(t *testing.T) {
	p := &fakeProvider{table: provider.Table{
		Index:   []time.Time{ts(3), ts(4), ts(5)},
		Columns: ohlcv,
		Rows: [][]any{
			{1.0, 2.0, 0.5, 1.5, int64(100)},
			{"1.6", "2.1", "x", "n/a", int64(200)},
			{1.7, 2.2, 0.9, "1.9", "lots"},
		},
	}}
	f := NewProviderFetcher(p)

	s, err := f.Fetch(context.Background(), Request{Symbol: " aapl ", Period: "5d", Interval: "1d"})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", s.Symbol)
	assert.Equal(t, "1d", s.Interval)
	assert.Equal(t, "AAPL", p.last.Symbol)
	require.Len(t, s.Points, 2, "row with unparseable close is dropped")

	assert.Equal(t, ts(3), s.Points[0].Time)
	assert.Equal(t, 1.5, *s.Points[0].Close)
	assert.Equal(t, 100.0, *s.Points[0].Volume)

	last := s.Points[1]
	assert.Equal(t, 1.9, *last.Close)
	assert.Nil(t, last.Volume, "volume that fails coercion is kept as nil")
	assert.Equal(t, 0.9, *last.Low)
}

func TestNormalizeMultiLevelMatchesSingleLevel(t *testing.T) {
	rows := [][]any{
		{1.0, 2.0, 0.5, 1.5, int64(100)},
		{1.1, 2.1, 0.6, 1.6, int64(110)},
	}
	idx := []time.Time{ts(3), ts(4)}
	single, err := Normalize(provider.Table{Index: idx, Columns: ohlcv, Rows: rows})
	require.NoError(t, err)

	multiCols := make([]provider.Column, len(ohlcv))
	for i, c := range ohlcv {
		multiCols[i] = provider.Column{c.Name(), "AAPL"}
	}
	multi, err := Normalize(provider.Table{Index: idx, Columns: multiCols, Rows: rows})
	require.NoError(t, err)
	assert.Equal(t, single, multi)
}

func TestNormalizeOrdersAndDeduplicates(t *testing.T) {
	s, err := Normalize(provider.Table{
		Index:   []time.Time{ts(5), ts(3), ts(5)},
		Columns: []provider.Column{{"Close"}},
		Rows:    [][]any{{5.0}, {3.0}, {5.5}},
	})
	require.NoError(t, err)
	require.Len(t, s.Points, 2)
	assert.Equal(t, 3.0, *s.Points[0].Close)
	assert.Equal(t, 5.5, *s.Points[1].Close)
	assert.Nil(t, s.Points[0].Open, "missing columns become nil")
}

func TestNormalizeFailures(t *testing.T) {
	_, err := Normalize(provider.Table{})
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Normalize(provider.Table{
		Index:   []time.Time{ts(3)},
		Columns: []provider.Column{{"Open"}},
		Rows:    [][]any{{1.0}},
	})
	assert.ErrorIs(t, err, ErrNoClose)

	_, err = Normalize(provider.Table{
		Index:   []time.Time{ts(3), ts(4)},
		Columns: []provider.Column{{"Close"}},
		Rows:    [][]any{{nil}, {math.NaN()}},
	})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestToNumber(t *testing.T) {
	f := 2.5
	i := int64(7)
	var nilF *float64
	tests := []struct {
		in   any
		want *float64
	}{
		{1.25, ptr(1.25)},
		{int64(3), ptr(3)},
		{42, ptr(42)},
		{float32(0.5), ptr(0.5)},
		{"12.5", ptr(12.5)},
		{&f, ptr(2.5)},
		{&i, ptr(7)},
		{nilF, nil},
		{nil, nil},
		{"", nil},
		{"abc", nil},
		{math.Inf(1), nil},
		{true, nil},
	}
	for _, tt := range tests {
		got := toNumber(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "%#v", tt.in)
			continue
		}
		require.NotNil(t, got, "%#v", tt.in)
		assert.Equal(t, *tt.want, *got, "%#v", tt.in)
	}
}

func ptr(v float64) *float64 { return &v }

func TestFetchInvalidRequestSkipsProvider(t *testing.T) {
	p := &fakeProvider{}
	for _, f := range []Fetcher{NewProviderFetcher(p), NewCachedFetcher(NewProviderFetcher(p), nil)} {
		for _, req := range []Request{
			{Symbol: "AAPL"},
			{Symbol: "AAPL", Period: "1d"},
			{Symbol: "AAPL", Start: ts(1)},
			{Period: "1d", Interval: "5m"},
		} {
			_, err := f.Fetch(context.Background(), req)
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		}
	}
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestFetchWrapsProviderError(t *testing.T) {
	p := &fakeProvider{err: errors.New("connection refused")}
	_, err := NewProviderFetcher(p).Fetch(context.Background(), ForRange("zzzz", timerange.Default()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	var ue *UnavailableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "ZZZZ", ue.Symbol)
	assert.Contains(t, err.Error(), "could not fetch data for ZZZZ: connection refused")
}

func TestRequestKey(t *testing.T) {
	a := Request{Symbol: "aapl", Period: "1d", Interval: "5m"}
	b := Request{Symbol: "AAPL ", Period: "1d", Interval: "5m"}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "AAPL|period=1d|interval=5m", a.Key())

	d := Between("aapl", ts(1).Add(13*time.Hour), ts(15))
	assert.Equal(t, "AAPL|start=2024-06-01|end=2024-06-15", d.Key())
	assert.NotEqual(t, a.Key(), d.Key())

	both := Request{Symbol: "AAPL", Period: "1d", Interval: "5m", Start: ts(1), End: ts(2)}
	assert.True(t, both.Valid())
	assert.Equal(t, a.Key(), both.Key())
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time { c.mu.Lock(); defer c.mu.Unlock(); return c.t }
func (c *clock) add(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestCachedFetcherTTL(t *testing.T) {
	p := &fakeProvider{table: provider.Table{
		Index:   []time.Time{ts(3), ts(4)},
		Columns: ohlcv,
		Rows:    [][]any{{1.0, 1.0, 1.0, 100.0, 1.0}, {1.0, 1.0, 1.0, 110.0, 1.0}},
	}}
	clk := &clock{t: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
	c := cache.New[Result](time.Hour, cache.WithClock[Result](clk.now))
	f := NewCachedFetcher(NewProviderFetcher(p), c)
	req := ForRange("AAPL", timerange.Default())

	first, err := f.Fetch(context.Background(), req)
	require.NoError(t, err)
	clk.add(30 * time.Minute)
	second, err := f.Fetch(context.Background(), Request{Symbol: "aapl", Period: "1d", Interval: "5m"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), p.calls.Load())

	clk.add(31 * time.Minute)
	_, err = f.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.calls.Load())

	_, err = f.Fetch(context.Background(), Between("AAPL", ts(1), ts(15)))
	require.NoError(t, err)
	assert.Equal(t, int32(3), p.calls.Load(), "date request is a distinct key")
}

func TestCachedFetcherInvalidate(t *testing.T) {
	p := &fakeProvider{table: provider.Table{
		Index:   []time.Time{ts(3), ts(4)},
		Columns: ohlcv,
		Rows:    [][]any{{1.0, 1.0, 1.0, 100.0, 1.0}, {1.0, 1.0, 1.0, 110.0, 1.0}},
	}}
	f := NewCachedFetcher(NewProviderFetcher(p), cache.New[Result](time.Hour))
	chart := ForRange("AAPL", timerange.Default())
	window := Between("AAPL", ts(1), ts(15))

	for _, req := range []Request{chart, window, chart, window} {
		_, err := f.Fetch(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), p.calls.Load())

	f.Invalidate(Request{Symbol: " aapl ", Period: "1d", Interval: "5m"})
	_, err := f.Fetch(context.Background(), chart)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), window)
	require.NoError(t, err)
	assert.Equal(t, int32(3), p.calls.Load(), "only the invalidated key is fetched again")
}

func TestCachedFetcherCachesFailures(t *testing.T) {
	p := &fakeProvider{err: errors.New("boom")}
	f := NewCachedFetcher(NewProviderFetcher(p), cache.New[Result](time.Hour))
	req := ForRange("AAPL", timerange.Default())

	_, err1 := f.Fetch(context.Background(), req)
	_, err2 := f.Fetch(context.Background(), req)
	assert.ErrorIs(t, err1, ErrUnavailable)
	assert.ErrorIs(t, err2, ErrUnavailable)
	assert.Equal(t, int32(1), p.calls.Load())
}

type blockingFetcher struct {
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingFetcher) Fetch(ctx context.Context, req Request) (types.PriceSeries, error) {
	b.calls.Add(1)
	<-b.release
	return types.PriceSeries{Symbol: req.Symbol, Points: []types.PricePoint{{Close: types.Float(1)}}}, nil
}

func TestCachedFetcherConcurrentSameKey(t *testing.T) {
	b := &blockingFetcher{release: make(chan struct{})}
	f := NewCachedFetcher(b, nil)
	req := ForRange("AAPL", timerange.Default())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := f.Fetch(context.Background(), req)
			assert.NoError(t, err)
			assert.Equal(t, "AAPL", s.Symbol)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(b.release)
	wg.Wait()
	assert.Equal(t, int32(1), b.calls.Load())
}
