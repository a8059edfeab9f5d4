package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	yfgo "github.com/komsit37/yf-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/komsit37/chronos/pkg/chronos/cache"
	"github.com/komsit37/chronos/pkg/chronos/config"
	"github.com/komsit37/chronos/pkg/chronos/dashboard"
	"github.com/komsit37/chronos/pkg/chronos/filter"
	"github.com/komsit37/chronos/pkg/chronos/logx"
	"github.com/komsit37/chronos/pkg/chronos/pipeline"
	"github.com/komsit37/chronos/pkg/chronos/profile"
	"github.com/komsit37/chronos/pkg/chronos/provider"
	"github.com/komsit37/chronos/pkg/chronos/render"
	"github.com/komsit37/chronos/pkg/chronos/series"
	"github.com/komsit37/chronos/pkg/chronos/source"
	"github.com/komsit37/chronos/pkg/chronos/timerange"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newApp(os.Stdout).rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type app struct {
	v       *viper.Viper
	out     io.Writer
	cfgPath string
	noColor bool
	cfg     config.Config
}

func newApp(out io.Writer) *app {
	return &app{v: config.NewViper(), out: out}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chronos [SYMBOL]",
		Short: "Show price history, key metrics, returns and company profile for a ticker",
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store(args)
			if err != nil {
				return err
			}
			return a.runner().Dashboard(cmd.Context(), store.State(), a.options(nil))
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "config file (default $CHRONOS_CONFIG or ./"+config.DefaultFile+")")
	pf.StringP("format", "f", "table", "output format: table|json|syms")
	pf.Bool("pretty", false, "indent JSON output")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	pf.String("log-level", "warn", "log level: debug|info|warn|error")
	pf.Duration("cache-ttl", 0, "how long fetched data stays fresh (default 1h)")
	pf.Duration("timeout", 0, "timeout for each provider call (default 15s)")
	pf.Int("concurrency", 0, "maximum concurrent fetches (default 4)")

	fl := root.Flags()
	fl.StringP("range", "r", timerange.DefaultLabel, "time range: "+joinLabels())
	fl.IntP("rows", "n", 0, "number of recent bars in the price table (default 10)")

	root.AddCommand(a.returnsCmd(), a.watchCmd())
	return root
}

func (a *app) returnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "returns [SYMBOL...]",
		Short: "Show lookback returns for symbols and watchlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filter.Parse(a.cfg.Filter)
			if err != nil {
				return err
			}
			return a.runner().Returns(cmd.Context(), a.cfg.Watchlist, args, a.options(f))
		},
	}
	cmd.Flags().StringP("watchlist", "w", "", "YAML watchlist file or directory")
	cmd.Flags().String("filter", "", "select watchlists by name: names,a,b | glob* | /regex/ | substring, ! negates")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [SYMBOL]",
		Short: "Redraw the dashboard on a schedule",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store(args)
			if err != nil {
				return err
			}
			runner := a.runner()
			opts := a.options(nil)
			opts.Reload = true
			clear := a.cfg.Format == "table"
			w := dashboard.NewWatcher(store, func(ctx context.Context, st dashboard.State) error {
				if clear {
					fmt.Fprint(a.out, "\033[H\033[2J")
				}
				return runner.Dashboard(ctx, st, opts)
			}, a.cfg.Watch.Cycle)
			return w.Run(cmd.Context(), a.cfg.Watch.Every)
		},
	}
	cmd.Flags().StringP("range", "r", timerange.DefaultLabel, "initial time range: "+joinLabels())
	cmd.Flags().IntP("rows", "n", 0, "number of recent bars in the price table (default 10)")
	cmd.Flags().Duration("every", 0, "refresh interval (default 1m)")
	cmd.Flags().Bool("cycle", false, "advance to the next time range on every refresh")
	return cmd
}

// flagKeys maps config keys to the flag that overrides them. Commands share
// flag names, so binding happens for the command being run only.
var flagKeys = map[string]string{
	config.KeyRange:       "range",
	config.KeyRows:        "rows",
	config.KeyFormat:      "format",
	config.KeyPretty:      "pretty",
	config.KeyLogLevel:    "log-level",
	config.KeyCacheTTL:    "cache-ttl",
	config.KeyTimeout:     "timeout",
	config.KeyConcurrency: "concurrency",
	config.KeyWatchlist:   "watchlist",
	config.KeyFilter:      "filter",
	config.KeyWatchEvery:  "every",
	config.KeyWatchCycle:  "cycle",
}

// load resolves the configuration once flags are parsed.
func (a *app) load(cmd *cobra.Command) error {
	path, required := a.cfgPath, a.cfgPath != ""
	if path == "" {
		if env, ok := os.LookupEnv(config.EnvPrefix + "_CONFIG"); ok && env != "" {
			path, required = env, true
		} else {
			path = config.DefaultFile
		}
	}
	for key, name := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	if a.noColor {
		a.v.Set(config.KeyColor, false)
	}
	cfg, err := config.Load(path, required, a.v)
	if err != nil {
		return err
	}
	if err := logx.Setup(os.Stderr, cfg.LogLevel, cfg.Color); err != nil {
		return err
	}
	a.cfg = cfg
	log.Debug().Str("config", path).Str("command", cmd.Name()).Msg("configuration loaded")
	return nil
}

// store starts from the configured symbol and range; a symbol argument
// replaces the configured one.
func (a *app) store(args []string) (*dashboard.Store, error) {
	store, err := dashboard.NewStore(a.cfg.Symbol)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		if err := store.SetSymbol(args[0]); err != nil {
			return nil, err
		}
	}
	if err := store.Select(a.cfg.Range); err != nil {
		return nil, err
	}
	return store, nil
}

func (a *app) runner() *pipeline.Runner {
	api := yfgo.NewClient(yfgo.WithCacheDisabled())
	fetcher := series.NewCachedFetcher(
		series.NewProviderFetcher(provider.NewYahooProvider(api, a.cfg.Timeout)),
		cache.New[series.Result](a.cfg.CacheTTL),
	)
	profiles := profile.NewCachedService(profile.NewYahooService(api, a.cfg.Timeout), a.cfg.CacheTTL)
	r, _ := render.New(a.cfg.Format)
	return &pipeline.Runner{
		Source: source.YAMLSource{},
		Builder: &dashboard.Builder{
			Series:      fetcher,
			Profiles:    profiles,
			Concurrency: a.cfg.Concurrency,
		},
		Renderer: r,
		Writer:   a.out,
	}
}

func (a *app) options(f filter.Filter) pipeline.ExecuteOptions {
	width := 0
	if w := detectTerminalWidth(); w > 0 {
		width = w / 2
	}
	return pipeline.ExecuteOptions{
		Filter:      f,
		Color:       a.cfg.Color,
		PrettyJSON:  a.cfg.Pretty,
		MaxColWidth: width,
		Rows:        a.cfg.Rows,
	}
}

func joinLabels() string {
	return strings.Join(timerange.Labels(), "|")
}
