package series

import (
	"fmt"
	"strings"
	"time"

	"github.com/komsit37/chronos/pkg/chronos/provider"
	"github.com/komsit37/chronos/pkg/chronos/timerange"
)

const dateLayout = "2006-01-02"

// Request names a series to fetch: a symbol with either Period+Interval or
// Start+End. Start and End are calendar dates.
type Request struct {
	Symbol   string
	Period   string
	Interval string
	Start    time.Time
	End      time.Time
}

// ForRange builds a period request for a selectable range.
func ForRange(symbol string, r timerange.Range) Request {
	return Request{Symbol: symbol, Period: r.Period, Interval: r.Interval}
}

// Between builds a date request covering [start, end).
func Between(symbol string, start, end time.Time) Request {
	return Request{Symbol: symbol, Start: timerange.Date(start), End: timerange.Date(end)}
}

// Normalize trims and upper-cases the symbol.
func (r Request) Normalize() Request {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	return r
}

// Valid reports whether a parameter pair is fully specified. When both are,
// Period+Interval takes precedence.
func (r Request) Valid() bool {
	if strings.TrimSpace(r.Symbol) == "" {
		return false
	}
	return r.byPeriod() || r.byDates()
}

func (r Request) byPeriod() bool { return r.Period != "" && r.Interval != "" }
func (r Request) byDates() bool  { return !r.Start.IsZero() && !r.End.IsZero() }

// Key is the cache key: the normalized symbol plus the parameter pair in use.
func (r Request) Key() string {
	n := r.Normalize()
	if n.byPeriod() {
		return fmt.Sprintf("%s|period=%s|interval=%s", n.Symbol, n.Period, n.Interval)
	}
	return fmt.Sprintf("%s|start=%s|end=%s", n.Symbol, n.Start.Format(dateLayout), n.End.Format(dateLayout))
}

func (r Request) String() string { return r.Key() }

func (r Request) query() provider.Query {
	q := provider.Query{Symbol: r.Symbol}
	if r.byPeriod() {
		q.Period, q.Interval = r.Period, r.Interval
	} else {
		q.Start, q.End = r.Start, r.End
	}
	return q
}
