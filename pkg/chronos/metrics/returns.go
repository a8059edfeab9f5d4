package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/komsit37/chronos/pkg/chronos/series"
	"github.com/komsit37/chronos/pkg/chronos/timerange"
	"github.com/komsit37/chronos/pkg/chronos/types"
)

// Reasons attached to figures that are not applicable.
const (
	ReasonEmptyWindow  = "window does not reach into the past"
	ReasonUnavailable  = "data unavailable"
	ReasonInsufficient = "not enough data points"
	ReasonZeroBase     = "zero base price"
)

// Return computes the percent return of symbol over window, ending today.
// It fetches its own series for the window; any failure yields a figure
// that is not valid rather than an error.
func Return(ctx context.Context, f series.Fetcher, symbol string, w timerange.Window, today time.Time) types.ReturnFigure {
	fig := types.ReturnFigure{Label: w.Label}
	end := timerange.Date(today)
	start := w.Start(end)
	if !start.Before(end) {
		fig.Reason = ReasonEmptyWindow
		return fig
	}

	s, err := f.Fetch(ctx, series.Between(symbol, start, end))
	if err != nil {
		log.Debug().Err(err).Str("symbol", symbol).Str("window", w.Label).Msg("return not available")
		fig.Reason = ReasonUnavailable
		return fig
	}
	pct, err := PercentReturn(s)
	switch {
	case errors.Is(err, ErrInsufficientData):
		fig.Reason = ReasonInsufficient
	case errors.Is(err, ErrDegenerate):
		fig.Reason = ReasonZeroBase
	case err == nil:
		fig.Percent = pct
		fig.Valid = true
	}
	return fig
}

// Returns computes one figure per window, running at most limit fetches at
// once. Each window fills only its own slot, so the output order matches
// windows and a failed window leaves its siblings untouched.
func Returns(ctx context.Context, f series.Fetcher, symbol string, windows []timerange.Window, today time.Time, limit int) []types.ReturnFigure {
	out := make([]types.ReturnFigure, len(windows))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, w := range windows {
		i, w := i, w
		g.Go(func() error {
			out[i] = Return(ctx, f, symbol, w, today)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
