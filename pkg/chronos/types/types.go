package types

import "time"

// PricePoint is one OHLCV bar. A nil field means the provider value could not
// be read as a number. Close is never nil on a point held by a PriceSeries.
type PricePoint struct {
	Time   time.Time `json:"time"`
	Open   *float64  `json:"open"`
	High   *float64  `json:"high"`
	Low    *float64  `json:"low"`
	Close  *float64  `json:"close"`
	Volume *float64  `json:"volume"`
}

// ClosePrice returns the close, or 0 when it is missing.
func (p PricePoint) ClosePrice() float64 {
	if p.Close == nil {
		return 0
	}
	return *p.Close
}

// PriceSeries is a time-ordered list of bars for one symbol.
type PriceSeries struct {
	Symbol   string       `json:"symbol"`
	Interval string       `json:"interval,omitempty"`
	Points   []PricePoint `json:"points"`
}

func (s PriceSeries) Len() int { return len(s.Points) }

// First and Last panic on an empty series; callers check Len first.
func (s PriceSeries) First() PricePoint { return s.Points[0] }
func (s PriceSeries) Last() PricePoint  { return s.Points[len(s.Points)-1] }

// ReturnFigure is the percent return over one lookback window.
// Valid is false when the figure is not applicable; Reason says why.
type ReturnFigure struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
	Valid   bool    `json:"valid"`
	Reason  string  `json:"reason,omitempty"`
}

// Profile contains company attributes for the about section.
// Missing attributes hold a placeholder rather than an empty string.
type Profile struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
	CEO      string `json:"ceo"`
	Website  string `json:"website"`
	Summary  string `json:"summary"`
}

// Float returns a pointer to v. Handy for building points in tests and fakes.
func Float(v float64) *float64 { return &v }

// Watchlist is a named group of symbols loaded from a watchlist file.
type Watchlist struct {
	Name  string
	Items []Item
}

// Item is a symbol entry. Fields keeps any extra attributes from the file.
type Item struct {
	Sym    string
	Name   string
	Fields map[string]any
}

// Symbols returns the non-empty symbols of the list in order.
func (w Watchlist) Symbols() []string {
	out := make([]string, 0, len(w.Items))
	for _, it := range w.Items {
		if it.Sym != "" {
			out = append(out, it.Sym)
		}
	}
	return out
}
