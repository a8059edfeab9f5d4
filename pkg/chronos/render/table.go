package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/chronos/pkg/chronos/dashboard"
	"github.com/komsit37/chronos/pkg/chronos/metrics"
	"github.com/komsit37/chronos/pkg/chronos/types"
)

const (
	msgNotEnoughData = "Not enough data points to calculate daily change and display full metrics for the selected period. Try a longer period."
	msgNoProfile     = "Could not fetch company information for %s."
)

type TableRenderer struct{}

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func (r *TableRenderer) Render(w io.Writer, v dashboard.View, opts Options) error {
	st := v.State
	fmt.Fprintln(w, heading(fmt.Sprintf("%s (%s - %s interval)", st.Symbol, st.Range.Label, st.Range.Interval), opts))
	fmt.Fprintln(w)

	if v.SeriesErr != nil {
		fmt.Fprintln(w, errorLine(v.SeriesErr, opts))
	} else {
		r.chart(w, v.Series, opts)
		fmt.Fprintln(w)
		r.keyMetrics(w, v, opts)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, heading("PRICE PERFORMANCE (RETURNS)", opts))
	r.returns(w, v.Returns, opts)
	fmt.Fprintln(w)

	fmt.Fprintln(w, heading("ABOUT THE COMPANY", opts))
	if v.ProfileErr != nil {
		fmt.Fprintf(w, msgNoProfile+"\n", st.Symbol)
	} else {
		r.about(w, v.Profile, opts)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Data last updated: %s\n", v.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func (r *TableRenderer) chart(w io.Writer, s types.PriceSeries, opts Options) {
	n := opts.Rows
	if n <= 0 {
		n = DefaultRows
	}
	pts := s.Points
	if len(pts) > n {
		pts = pts[len(pts)-n:]
	}
	layout := timeLayout(s.Interval)

	tw := newTable(w, opts)
	tw.AppendHeader(table.Row{"DATE", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME"})
	right := make([]table.ColumnConfig, 0, 5)
	for i := 2; i <= 6; i++ {
		right = append(right, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.SetColumnConfigs(right)

	prev := 0.0
	if first := len(s.Points) - len(pts) - 1; first >= 0 {
		prev = s.Points[first].ClosePrice()
	}
	for _, p := range pts {
		c := p.ClosePrice()
		closeCell := money(c)
		if prev != 0 {
			closeCell = signColor(closeCell, c-prev, opts)
		}
		prev = c
		tw.AppendRow(table.Row{
			p.Time.Format(layout),
			moneyPtr(p.Open),
			moneyPtr(p.High),
			moneyPtr(p.Low),
			closeCell,
			volume(p.Volume),
		})
	}
	tw.Render()
}

func (r *TableRenderer) keyMetrics(w io.Writer, v dashboard.View, opts Options) {
	fmt.Fprintln(w, heading("KEY METRICS", opts))
	if errors.Is(v.DailyErr, metrics.ErrInsufficientData) || v.Series.Len() == 0 {
		fmt.Fprintln(w, warnLine(msgNotEnoughData, opts))
		return
	}
	last := v.Series.Last()
	tw := newTable(w, opts)
	tw.AppendHeader(table.Row{"METRIC", "VALUE"})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight}})
	tw.AppendRow(table.Row{fmt.Sprintf("Latest Close (%s)", v.State.Symbol), money(last.ClosePrice())})
	if d := v.Daily; v.DailyErr == nil {
		tw.AppendRow(table.Row{"Daily Change", signColor(fmt.Sprintf("%s (%s)", signedMoney(d.Change), percent(d.ChangePercent)), d.Change, opts)})
	} else {
		tw.AppendRow(table.Row{"Daily Change", notAvailable + " (" + v.DailyErr.Error() + ")"})
	}
	tw.AppendRow(table.Row{"Volume", volume(last.Volume)})
	p := v.Period
	if p.AverageErr == nil {
		tw.AppendRow(table.Row{"Period Avg. Close", money(p.Average)})
	} else {
		tw.AppendRow(table.Row{"Period Avg. Close", notAvailable})
	}
	if p.ReturnErr == nil {
		tw.AppendRow(table.Row{"Returns for Period", signColor(percent(p.Return), p.Return, opts)})
	} else {
		tw.AppendRow(table.Row{"Returns for Period", notAvailable})
	}
	tw.Render()
	fmt.Fprintln(w)

	fmt.Fprintln(w, heading(fmt.Sprintf("TODAY'S %s DATA (LAST AVAILABLE)", v.State.Symbol), opts))
	td := newTable(w, opts)
	td.AppendHeader(table.Row{"METRIC", "VALUE"})
	td.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight}})
	td.AppendRow(table.Row{"Date", last.Time.Format("2006-01-02 15:04:05")})
	td.AppendRow(table.Row{"Open", moneyPtr(last.Open)})
	td.AppendRow(table.Row{"High", moneyPtr(last.High)})
	td.AppendRow(table.Row{"Low", moneyPtr(last.Low)})
	td.AppendRow(table.Row{"Close", moneyPtr(last.Close)})
	td.AppendRow(table.Row{"Volume", volume(last.Volume)})
	td.Render()
}

func (r *TableRenderer) returns(w io.Writer, figs []types.ReturnFigure, opts Options) {
	tw := newTable(w, opts)
	hdr := make(table.Row, len(figs))
	row := make(table.Row, len(figs))
	cfgs := make([]table.ColumnConfig, len(figs))
	for i, f := range figs {
		hdr[i] = strings.ToUpper(f.Label)
		row[i] = figure(f, opts)
		cfgs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignRight, AlignHeader: text.AlignRight}
	}
	tw.AppendHeader(hdr)
	tw.SetColumnConfigs(cfgs)
	tw.AppendRow(row)
	tw.Render()
}

func (r *TableRenderer) about(w io.Writer, p types.Profile, opts Options) {
	tw := newTable(w, opts)
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: maxWidth(opts) * 2}})
	tw.AppendRows([]table.Row{
		{"Name", p.Name},
		{"Sector", p.Sector},
		{"Industry", p.Industry},
		{"CEO", p.CEO},
		{"Website", p.Website},
		{"Business Summary", p.Summary},
	})
	tw.Render()
}

// RenderReturns prints one table per watchlist with a row per symbol.
func (r *TableRenderer) RenderReturns(w io.Writer, tables []dashboard.ReturnsTable, opts Options) error {
	multi := len(tables) > 1
	for ti, t := range tables {
		if multi && strings.TrimSpace(t.Name) != "" {
			fmt.Fprintln(w, heading(strings.ToUpper(t.Name), opts))
		}
		tw := newTable(w, opts)
		hdr := table.Row{"SYM", "NAME"}
		cfgs := []table.ColumnConfig{{Number: 2, WidthMax: maxWidth(opts)}}
		if len(t.Rows) > 0 {
			for i, f := range t.Rows[0].Returns {
				hdr = append(hdr, strings.ToUpper(f.Label))
				cfgs = append(cfgs, table.ColumnConfig{Number: i + 3, Align: text.AlignRight, AlignHeader: text.AlignRight})
			}
		}
		tw.AppendHeader(hdr)
		tw.SetColumnConfigs(cfgs)
		for _, row := range t.Rows {
			tr := table.Row{row.Symbol, row.Name}
			for _, f := range row.Returns {
				tr = append(tr, figure(f, opts))
			}
			tw.AppendRow(tr)
		}
		tw.Render()
		if ti < len(tables)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}

func figure(f types.ReturnFigure, opts Options) string {
	if !f.Valid {
		return notAvailable
	}
	return signColor(percent(f.Percent), f.Percent, opts)
}

func timeLayout(interval string) string {
	if strings.HasSuffix(interval, "m") || strings.HasSuffix(interval, "h") {
		return "2006-01-02 15:04"
	}
	return "2006-01-02"
}

func errorLine(err error, opts Options) string {
	s := "Error: " + err.Error()
	if opts.Color {
		return text.Colors{text.FgRed}.Sprint(s)
	}
	return s
}

func warnLine(s string, opts Options) string {
	if opts.Color {
		return text.Colors{text.FgYellow}.Sprint(s)
	}
	return s
}
