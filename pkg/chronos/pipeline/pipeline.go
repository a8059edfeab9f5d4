// Package pipeline wires loading, building and rendering for the commands.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/komsit37/chronos/pkg/chronos/dashboard"
	"github.com/komsit37/chronos/pkg/chronos/filter"
	"github.com/komsit37/chronos/pkg/chronos/render"
	"github.com/komsit37/chronos/pkg/chronos/source"
	"github.com/komsit37/chronos/pkg/chronos/types"
)

type Runner struct {
	Source   source.Source
	Builder  *dashboard.Builder
	Renderer render.Renderer
	Writer   io.Writer
}

type ExecuteOptions struct {
	Filter      filter.Filter
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
	Rows        int
	// Reload fetches the selected series again instead of serving it from cache.
	Reload bool
}

func (o ExecuteOptions) render() render.Options {
	return render.Options{
		Color:       o.Color,
		PrettyJSON:  o.PrettyJSON,
		MaxColWidth: o.MaxColWidth,
		Rows:        o.Rows,
	}
}

// Dashboard builds and renders the view for one state.
func (r *Runner) Dashboard(ctx context.Context, st dashboard.State, opts ExecuteOptions) error {
	var v dashboard.View
	if opts.Reload {
		v = r.Builder.Reload(ctx, st)
	} else {
		v = r.Builder.Build(ctx, st)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Renderer.Render(r.Writer, v, opts.render())
}

// Returns renders lookback returns for the watchlists at path, filtered by
// name, followed by an ad-hoc list of extra symbols.
func (r *Runner) Returns(ctx context.Context, path string, symbols []string, opts ExecuteOptions) error {
	var lists []types.Watchlist
	if path != "" {
		if r.Source == nil {
			return fmt.Errorf("no watchlist source configured")
		}
		loaded, err := r.Source.Load(ctx, path)
		if err != nil {
			return err
		}
		lists = filter.Apply(loaded, opts.Filter)
	}
	if extra := source.AdHoc("symbols", symbols...); len(extra.Items) > 0 {
		lists = append(lists, extra)
	}
	if len(lists) == 0 {
		return fmt.Errorf("no symbols to compute returns for")
	}
	tables := r.Builder.BuildReturns(ctx, lists)
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Renderer.RenderReturns(r.Writer, tables, opts.render())
}
