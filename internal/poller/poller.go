// Package poller is the background task that snapshots torrent state
// across all endpoints, detects completion transitions, and pushes
// at-most-once notifications.
package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/guiyumin/transmote/internal/engine"
	"github.com/guiyumin/transmote/internal/metrics"
)

// Gateway is the notification sink.
type Gateway interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Poller periodically diffs torrent snapshots against its completion
// ledger. One instance runs per process.
type Poller struct {
	engines  map[string]engine.Engine
	gw       Gateway
	users    []int64
	interval time.Duration
	enabled  bool

	ledger ledger
	busy   atomic.Bool
}

// New builds a Poller notifying the given users. The interval has been
// validated positive by config.Load.
func New(engines map[string]engine.Engine, gw Gateway, users []int64, interval time.Duration, enabled bool) *Poller {
	return &Poller{
		engines:  engines,
		gw:       gw,
		users:    users,
		interval: interval,
		enabled:  enabled,
		ledger:   make(ledger),
	}
}

// Run ticks until the context is cancelled. Ticks never overlap: when a
// tick is still running as the next fires, the new one is skipped, not
// queued.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go p.tick(ctx)
		}
	}
}

// tick runs one poll cycle. The busy flag makes a concurrent invocation
// a no-op.
func (p *Poller) tick(ctx context.Context) {
	if !p.busy.CompareAndSwap(false, true) {
		metrics.PollTicksSkippedTotal.Inc()
		log.Debug().Msg("poll tick still running, skipping")
		return
	}
	defer p.busy.Store(false)
	metrics.PollTicksTotal.Inc()

	// Disabled notifications keep the loop ticking but touch neither the
	// engines nor the ledger.
	if !p.enabled {
		return
	}

	snapshots := p.fetchAll(ctx)
	for _, snap := range snapshots {
		if snap.err != nil {
			// The endpoint is skipped this tick; its ledger entries stay
			// so reconnecting does not re-notify old completions.
			log.Warn().Err(snap.err).Str("endpoint", snap.endpoint).Msg("poll failed, skipping endpoint")
			continue
		}
		p.apply(ctx, snap)
	}
}

type snapshot struct {
	endpoint string
	torrents []engine.TorrentSummary
	err      error
}

// fetchAll lists every endpoint concurrently and returns the results in
// registration order.
func (p *Poller) fetchAll(ctx context.Context) []snapshot {
	names := make([]string, 0, len(p.engines))
	for name := range p.engines {
		names = append(names, name)
	}

	snaps := make([]snapshot, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			torrents, err := p.engines[name].List(gctx)
			snaps[i] = snapshot{endpoint: name, torrents: torrents, err: err}
			return nil
		})
	}
	_ = g.Wait() // per-endpoint errors live in the snapshots

	return snaps
}

// apply diffs one endpoint's snapshot against the ledger, emitting
// notifications for fresh completions and evicting vanished ids.
func (p *Poller) apply(ctx context.Context, snap snapshot) {
	metrics.Torrents.WithLabelValues(snap.endpoint).Set(float64(len(snap.torrents)))

	for _, t := range snap.torrents {
		if p.ledger.shouldNotify(t) {
			p.notify(ctx, t)
			metrics.NotificationsTotal.WithLabelValues(snap.endpoint).Inc()
		}
		p.ledger.update(t)
	}
	p.ledger.evictMissing(snap.endpoint, snap.torrents)
}

func (p *Poller) notify(ctx context.Context, t engine.TorrentSummary) {
	text := fmt.Sprintf("✅ Download finished: %s", t.Name)
	if len(p.engines) > 1 {
		text = fmt.Sprintf("✅ Download finished on %s: %s", t.Endpoint, t.Name)
	}
	for _, userID := range p.users {
		if err := p.gw.SendText(ctx, userID, text); err != nil {
			log.Warn().Err(err).Int64("user", userID).Msg("notification delivery failed")
		}
	}
}
