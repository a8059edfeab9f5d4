package provider

import (
	"context"
	"time"
)

// Query selects what to download: a symbol plus either a period/interval pair
// or a start/end date pair.
type Query struct {
	Symbol   string
	Period   string
	Interval string
	Start    time.Time
	End      time.Time
}

// ByPeriod reports whether the query uses period and interval.
func (q Query) ByPeriod() bool { return q.Period != "" && q.Interval != "" }

// ByDates reports whether the query uses start and end.
func (q Query) ByDates() bool { return !q.Start.IsZero() && !q.End.IsZero() }

// Provider downloads raw OHLCV tables from a market-data source.
type Provider interface {
	Download(ctx context.Context, q Query) (Table, error)
}

// Column is a column label. Single-level tables have one level, e.g.
// ["Close"]; hierarchical tables carry more, e.g. ["Close", "AAPL"].
type Column []string

// Name returns the first level, or "" for an empty label.
func (c Column) Name() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Table is a raw, time-indexed table as returned by a provider. Cell values are
// left as the provider produced them; the series fetcher coerces them.
type Table struct {
	Index   []time.Time
	Columns []Column
	Rows    [][]any
}

// Empty reports whether the table holds no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 || len(t.Index) == 0 }

// MultiLevel reports whether any column carries more than one level.
func (t Table) MultiLevel() bool {
	for _, c := range t.Columns {
		if len(c) > 1 {
			return true
		}
	}
	return false
}

// Flatten drops every level but the first. When several columns collapse to
// the same name, the first one wins and the rest are removed.
func (t Table) Flatten() Table {
	if !t.MultiLevel() {
		return t
	}
	keep := make([]int, 0, len(t.Columns))
	seen := map[string]struct{}{}
	cols := make([]Column, 0, len(t.Columns))
	for i, c := range t.Columns {
		name := c.Name()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		keep = append(keep, i)
		cols = append(cols, Column{name})
	}
	rows := make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]any, len(keep))
		for j, i := range keep {
			if i < len(row) {
				out[j] = row[i]
			}
		}
		rows[r] = out
	}
	return Table{Index: t.Index, Columns: cols, Rows: rows}
}

// ColumnIndex returns the position of the column whose first level is name, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name() == name {
			return i
		}
	}
	return -1
}
