package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/komsit37/chronos/pkg/chronos/metrics"
	"github.com/komsit37/chronos/pkg/chronos/profile"
	"github.com/komsit37/chronos/pkg/chronos/series"
	"github.com/komsit37/chronos/pkg/chronos/timerange"
	"github.com/komsit37/chronos/pkg/chronos/types"
)

const DefaultConcurrency = 4

// View is everything a renderer draws for one State. Each part carries its own
// error; a failed part never hides the others.
type View struct {
	State State

	Series    types.PriceSeries
	SeriesErr error

	Daily    metrics.DailyChange
	DailyErr error
	// Period carries separate errors for the average and the return.
	Period metrics.PeriodSummary

	Returns []types.ReturnFigure

	Profile    types.Profile
	ProfileErr error

	UpdatedAt time.Time
}

// Builder assembles Views. Series and Profiles are required.
type Builder struct {
	Series      series.Fetcher
	Profiles    profile.Service
	Windows     []timerange.Window
	Now         func() time.Time
	Concurrency int
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) limit() int {
	if b.Concurrency > 0 {
		return b.Concurrency
	}
	return DefaultConcurrency
}

func (b *Builder) windows() []timerange.Window {
	if len(b.Windows) > 0 {
		return b.Windows
	}
	return timerange.Windows
}

// Build fetches the selected series, the lookback returns and the profile
// concurrently and derives the display metrics.
func (b *Builder) Build(ctx context.Context, st State) View {
	now := b.now()
	v := View{State: st}
	logger := log.With().Str("symbol", st.Symbol).Str("range", st.Range.Label).Logger()

	var g errgroup.Group
	g.SetLimit(b.limit())
	g.Go(func() error {
		s, err := b.Series.Fetch(ctx, series.ForRange(st.Symbol, st.Range))
		if err != nil {
			v.SeriesErr = err
			v.DailyErr = err
			v.Period = metrics.Unavailable(err)
			return nil
		}
		v.Series = s
		v.Daily, v.DailyErr = metrics.Daily(s)
		v.Period = metrics.Period(s)
		return nil
	})
	g.Go(func() error {
		v.Returns = metrics.Returns(ctx, b.Series, st.Symbol, b.windows(), now, b.limit())
		return nil
	})
	g.Go(func() error {
		v.Profile, v.ProfileErr = b.Profiles.Get(ctx, st.Symbol)
		if v.ProfileErr != nil {
			v.Profile = profile.Empty(st.Symbol)
		}
		return nil
	})
	_ = g.Wait()

	v.UpdatedAt = b.now()
	logger.Debug().
		AnErr("series", v.SeriesErr).
		AnErr("profile", v.ProfileErr).
		Dur("took", v.UpdatedAt.Sub(now)).
		Msg("view built")
	return v
}

// Reload is Build with the selected series fetched again, for fetchers that
// support invalidation. Lookback windows and the profile stay cached.
func (b *Builder) Reload(ctx context.Context, st State) View {
	if inv, ok := b.Series.(invalidator); ok {
		inv.Invalidate(series.ForRange(st.Symbol, st.Range))
	}
	return b.Build(ctx, st)
}

type invalidator interface {
	Invalidate(series.Request)
}

// ReturnsRow is one symbol's lookback returns.
type ReturnsRow struct {
	Symbol  string               `json:"symbol"`
	Name    string               `json:"name,omitempty"`
	Returns []types.ReturnFigure `json:"returns"`
}

// ReturnsTable groups rows under a watchlist name.
type ReturnsTable struct {
	Name string       `json:"name"`
	Rows []ReturnsRow `json:"rows"`
}

// BuildReturns computes the lookback returns for every item of every list.
// Symbols run concurrently; the windows of one symbol run sequentially so the
// total number of in-flight fetches stays at the limit. Items without a name
// take the company name from Profiles, when one is set.
func (b *Builder) BuildReturns(ctx context.Context, lists []types.Watchlist) []ReturnsTable {
	now := b.now()
	out := make([]ReturnsTable, len(lists))
	var g errgroup.Group
	g.SetLimit(b.limit())
	for li, l := range lists {
		out[li] = ReturnsTable{Name: l.Name, Rows: make([]ReturnsRow, len(l.Items))}
		for ii, it := range l.Items {
			li, ii, it := li, ii, it
			g.Go(func() error {
				out[li].Rows[ii] = ReturnsRow{
					Symbol:  it.Sym,
					Name:    b.displayName(ctx, it),
					Returns: metrics.Returns(ctx, b.Series, it.Sym, b.windows(), now, 1),
				}
				return nil
			})
		}
	}
	_ = g.Wait()
	return out
}

func (b *Builder) displayName(ctx context.Context, it types.Item) string {
	if it.Name != "" || b.Profiles == nil {
		return it.Name
	}
	p, err := b.Profiles.Get(ctx, it.Sym)
	if err != nil {
		log.Debug().Err(err).Str("symbol", it.Sym).Msg("name lookup failed")
		return ""
	}
	if p.Name == profile.NotAvailable {
		return ""
	}
	return p.Name
}
