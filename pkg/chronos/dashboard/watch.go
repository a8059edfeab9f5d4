package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DrawFunc builds and renders the dashboard for a state.
type DrawFunc func(ctx context.Context, st State) error

// Watcher redraws the dashboard whenever the store changes and drives the
// store from a cron schedule. A new state cancels the draw still in flight.
type Watcher struct {
	store *Store
	cron  *cron.Cron
	draw  DrawFunc
	cycle bool

	mu     sync.Mutex
	cancel context.CancelFunc
	drawMu sync.Mutex
	wg     sync.WaitGroup
}

// NewWatcher refreshes the current state on every tick, or advances to the
// next range when cycle is set.
func NewWatcher(store *Store, draw DrawFunc, cycle bool) *Watcher {
	return &Watcher{
		store: store,
		cron:  cron.New(cron.WithChain(cron.Recover(cronLogger{}))),
		draw:  draw,
		cycle: cycle,
	}
}

// Run draws once, then on every tick until ctx is done.
func (w *Watcher) Run(ctx context.Context, every time.Duration) error {
	if every < time.Second {
		return fmt.Errorf("refresh interval must be at least 1s, got %s", every)
	}
	if _, err := w.cron.AddFunc("@every "+every.String(), w.tick); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	unsubscribe := w.store.Subscribe(func(st State) { w.redraw(ctx, st) })
	defer unsubscribe()

	w.store.Refresh()
	w.cron.Start()
	log.Info().Dur("every", every).Bool("cycle", w.cycle).Msg("watch started")

	<-ctx.Done()
	<-w.cron.Stop().Done()
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
	w.wg.Wait()
	log.Info().Msg("watch stopped")
	return nil
}

func (w *Watcher) tick() {
	if w.cycle {
		w.store.Cycle()
		return
	}
	w.store.Refresh()
}

func (w *Watcher) redraw(ctx context.Context, st State) {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	dctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()
		w.drawMu.Lock()
		defer w.drawMu.Unlock()
		if dctx.Err() != nil {
			return
		}
		if err := w.draw(dctx, st); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("state", st.String()).Msg("redraw failed")
		}
	}()
}

// cronLogger forwards cron's logging to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
