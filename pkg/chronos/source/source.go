// Package source loads watchlists of symbols for the returns command.
package source

import (
	"context"
	"strings"

	"github.com/komsit37/chronos/pkg/chronos/types"
)

// Source loads watchlists from a location such as a file or directory path.
type Source interface {
	Load(ctx context.Context, path string) ([]types.Watchlist, error)
}

// AdHoc wraps symbols given on the command line into a single list.
// Blank and repeated symbols are skipped.
func AdHoc(name string, symbols ...string) types.Watchlist {
	l := types.Watchlist{Name: name}
	seen := map[string]bool{}
	for _, s := range symbols {
		for _, part := range strings.Split(s, ",") {
			sym := strings.ToUpper(strings.TrimSpace(part))
			if sym == "" || seen[sym] {
				continue
			}
			seen[sym] = true
			l.Items = append(l.Items, types.Item{Sym: sym})
		}
	}
	return l
}
