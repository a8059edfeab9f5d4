// Package filter selects watchlists by name.
package filter

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/komsit37/chronos/pkg/chronos/types"
)

// Filter matches a watchlist name.
type Filter interface {
	Match(name string) bool
}

// Parse builds a filter from an expression:
//   - ""                 everything
//   - "Core,Japan"       exact names
//   - "US/*"             glob
//   - "/^us-/"           regular expression
//   - "tech"             case-insensitive substring
//
// A leading "!" negates any of the forms above.
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "!") {
		inner, err := Parse(expr[1:])
		if err != nil {
			return nil, err
		}
		return Not{inner}, nil
	}
	switch {
	case expr == "":
		return Always(true), nil
	case len(expr) > 2 && strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/"):
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Regex{re: re}, nil
	case strings.Contains(expr, ","):
		set := map[string]struct{}{}
		for _, p := range strings.Split(expr, ",") {
			if p = strings.TrimSpace(p); p != "" {
				set[p] = struct{}{}
			}
		}
		return ExactSet{set: set}, nil
	case strings.ContainsAny(expr, "*?["):
		if _, err := path.Match(expr, ""); err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Glob{pattern: expr}, nil
	}
	return SubstrCI{needle: strings.ToLower(expr)}, nil
}

// Apply keeps the lists whose name f matches. A nil filter keeps everything.
func Apply(lists []types.Watchlist, f Filter) []types.Watchlist {
	if f == nil {
		return lists
	}
	out := make([]types.Watchlist, 0, len(lists))
	for _, l := range lists {
		if f.Match(l.Name) {
			out = append(out, l)
		}
	}
	return out
}

type Always bool

func (a Always) Match(string) bool { return bool(a) }

type Not struct{ Filter }

func (n Not) Match(name string) bool { return !n.Filter.Match(name) }

type ExactSet struct{ set map[string]struct{} }

func (e ExactSet) Match(name string) bool {
	_, ok := e.set[name]
	return ok
}

// Glob uses path.Match so that "*" stops at "/" group separators.
type Glob struct{ pattern string }

func (g Glob) Match(name string) bool {
	ok, _ := path.Match(g.pattern, name)
	return ok
}

func (g Glob) String() string { return "glob:" + g.pattern }

type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(name string) bool { return r.re.MatchString(name) }

func (r Regex) String() string { return "regex:" + r.re.String() }

// SubstrCI matches if name contains needle, case-insensitively.
type SubstrCI struct{ needle string }

func (s SubstrCI) Match(name string) bool {
	return strings.Contains(strings.ToLower(name), s.needle)
}

func (s SubstrCI) String() string { return "substr-ci:" + s.needle }
