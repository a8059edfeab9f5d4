package render

import (
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/chronos/pkg/chronos/dashboard"
)

// Renderer draws dashboard views and multi-symbol returns tables.
type Renderer interface {
	Render(w io.Writer, v dashboard.View, opts Options) error
	RenderReturns(w io.Writer, tables []dashboard.ReturnsTable, opts Options) error
}

type Options struct {
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
	// Rows limits the chart table to the most recent bars. Zero means DefaultRows.
	Rows int
}

const (
	DefaultRows     = 10
	defaultMaxWidth = 40
	notAvailable    = "N/A"
)

// New returns the renderer for a format name.
func New(format string) (Renderer, bool) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		return NewTableRenderer(), true
	case "json":
		return NewJSONRenderer(), true
	case "syms":
		return NewSymsRenderer(), true
	}
	return nil, false
}

// Formats lists the names accepted by New.
func Formats() []string { return []string{"table", "json", "syms"} }

func newTable(w io.Writer, opts Options) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if opts.Color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	return tw
}

func maxWidth(opts Options) int {
	if opts.MaxColWidth <= 0 {
		return defaultMaxWidth
	}
	return opts.MaxColWidth
}

func money(v float64) string {
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func moneyPtr(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return money(*v)
}

func signedMoney(v float64) string {
	if v > 0 {
		return "+" + money(v)
	}
	return money(v)
}

func volume(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return humanize.Comma(int64(math.Round(*v)))
}

func percent(v float64) string {
	s := humanize.FormatFloat("#,###.##", math.Abs(v)) + "%"
	switch {
	case v > 0:
		return "+" + s
	case v < 0:
		return "-" + s
	}
	return s
}

// signColor paints s green for gains and red for losses.
func signColor(s string, v float64, opts Options) string {
	if !opts.Color {
		return s
	}
	switch {
	case v > 0:
		return text.Colors{text.FgGreen}.Sprint(s)
	case v < 0:
		return text.Colors{text.FgRed}.Sprint(s)
	}
	return s
}

func heading(s string, opts Options) string {
	if opts.Color {
		return text.Bold.Sprint(s)
	}
	return s
}
