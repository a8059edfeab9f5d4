package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/komsit37/chronos/pkg/chronos/dashboard"
)

// symsRenderer prints symbols on a single comma-separated line, for piping
// into other tools.
type symsRenderer struct{}

func NewSymsRenderer() Renderer {
	return symsRenderer{}
}

func (symsRenderer) Render(w io.Writer, v dashboard.View, _ Options) error {
	_, err := fmt.Fprintln(w, v.State.Symbol)
	return err
}

func (symsRenderer) RenderReturns(w io.Writer, tables []dashboard.ReturnsTable, _ Options) error {
	symbols := make([]string, 0)
	for _, t := range tables {
		for _, row := range t.Rows {
			sym := strings.TrimSpace(row.Symbol)
			if sym == "" {
				continue
			}
			symbols = append(symbols, sym)
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(symbols, ","))
	return err
}
