// Package profile loads descriptive company attributes for the about section.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	yfgo "github.com/komsit37/yf-go"
	"github.com/rs/zerolog/log"

	"github.com/komsit37/chronos/pkg/chronos/cache"
	"github.com/komsit37/chronos/pkg/chronos/types"
)

const (
	NotAvailable     = "N/A"
	NoSummary        = "No business summary available."
	summarySentences = 3
)

// ErrNoProfile means the provider returned nothing usable for the symbol.
var ErrNoProfile = errors.New("no profile data")

// Service fetches a company profile.
type Service interface {
	Get(ctx context.Context, symbol string) (types.Profile, error)
}

// YahooService implements Service using yf-go's quoteSummary endpoint.
type YahooService struct {
	api     yfgo.API
	timeout time.Duration
}

func NewYahooService(api yfgo.API, timeout time.Duration) *YahooService {
	if api == nil {
		api = yfgo.NewClient(yfgo.WithCacheDisabled())
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &YahooService{api: api, timeout: timeout}
}

func (s *YahooService) Get(ctx context.Context, symbol string) (types.Profile, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return Empty(sym), fmt.Errorf("symbol is required")
	}
	mods := []yfgo.QuoteSummaryModule{yfgo.ModulePrice, yfgo.ModuleAssetProfile}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, err := s.api.QuoteSummary(cctx, sym, mods)
	if err != nil {
		log.Warn().Err(err).Str("symbol", sym).Msg("profile fetch failed")
		return Empty(sym), err
	}
	m, _ := raw.(map[string]any)
	if len(m) == 0 {
		return Empty(sym), ErrNoProfile
	}

	var typed yfgo.QuoteSummaryTyped
	b, err := json.Marshal(m)
	if err != nil {
		return Empty(sym), err
	}
	if err := json.Unmarshal(b, &typed); err != nil {
		return Empty(sym), err
	}
	if typed.Price == nil && typed.AssetProfile == nil {
		return Empty(sym), ErrNoProfile
	}

	p := types.Profile{Symbol: sym}
	if typed.Price != nil {
		p.Name = typed.Price.LongName
		if p.Name == "" {
			p.Name = typed.Price.ShortName
		}
	}
	if ap := typed.AssetProfile; ap != nil {
		p.Sector = ap.Sector
		p.Industry = ap.Industry
		p.Website = ap.Website
		p.Summary = ap.LongBusinessSummary
	}
	p.CEO = CEO(officers(m))
	return WithDefaults(p), nil
}

// Empty is the profile shown when nothing could be fetched.
func Empty(symbol string) types.Profile {
	return WithDefaults(types.Profile{Symbol: symbol})
}

// WithDefaults fills blank attributes with placeholders and trims the summary.
func WithDefaults(p types.Profile) types.Profile {
	for _, f := range []*string{&p.Name, &p.Sector, &p.Industry, &p.CEO, &p.Website} {
		if strings.TrimSpace(*f) == "" {
			*f = NotAvailable
		}
	}
	if strings.TrimSpace(p.Summary) == "" {
		p.Summary = NoSummary
	} else {
		p.Summary = TrimSummary(p.Summary, summarySentences)
	}
	return p
}

// TrimSummary keeps the first n period-terminated sentences of text. Text with
// n sentences or fewer is returned trimmed but otherwise unchanged.
func TrimSummary(text string, n int) string {
	text = strings.TrimSpace(text)
	var parts []string
	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if n <= 0 || len(parts) <= n {
		return text
	}
	return strings.Join(parts[:n], ". ") + "."
}

// Officer is one entry of assetProfile.companyOfficers.
type Officer struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func officers(raw map[string]any) []Officer {
	ap, _ := raw["assetProfile"].(map[string]any)
	if ap == nil {
		return nil
	}
	b, err := json.Marshal(ap["companyOfficers"])
	if err != nil {
		return nil
	}
	var out []Officer
	_ = json.Unmarshal(b, &out)
	return out
}

// CEO picks the chief executive from a list of officers: the first whose title
// names a CEO, president or representative director, else the first listed.
func CEO(list []Officer) string {
	if len(list) == 0 {
		return ""
	}
	best := 0
	for i, o := range list {
		t := strings.ToLower(o.Title)
		if strings.Contains(t, "ceo") || strings.Contains(t, "chief executive") ||
			strings.Contains(t, "president") || strings.Contains(t, "representative director") {
			best = i
			break
		}
	}
	return strings.TrimSpace(list[best].Name)
}

type result struct {
	Profile types.Profile
	Err     error
}

// CachedService memoizes another Service per symbol, failures included.
type CachedService struct {
	next  Service
	cache *cache.Cache[result]
}

func NewCachedService(next Service, ttl time.Duration) *CachedService {
	return &CachedService{next: next, cache: cache.New[result](ttl)}
}

func (s *CachedService) Get(ctx context.Context, symbol string) (types.Profile, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	res, err := s.cache.GetOrLoad(ctx, "profile|"+sym, func(ctx context.Context) result {
		p, err := s.next.Get(ctx, sym)
		return result{Profile: p, Err: err}
	})
	if err != nil {
		return Empty(sym), err
	}
	return res.Profile, res.Err
}
