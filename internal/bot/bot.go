// Package bot is the interaction state machine: it correlates every
// inbound action to the user's session and active flow, performs the
// corresponding engine calls, and renders responses through the gateway.
package bot

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/guiyumin/transmote/internal/access"
	"github.com/guiyumin/transmote/internal/engine"
	"github.com/guiyumin/transmote/internal/metrics"
	"github.com/guiyumin/transmote/internal/registry"
	"github.com/guiyumin/transmote/internal/session"
)

const (
	defaultMaxConcurrent = 8
	workerQueueSize      = 16
	pageSize             = 15
)

// Bot dispatches inbound events. Actions from different users run in
// parallel under a global concurrency cap; actions from one user are
// serialized through that user's worker queue.
type Bot struct {
	gw       Gateway
	reg      *registry.Registry
	engines  map[string]engine.Engine
	guard    *access.Guard
	sessions *session.Store

	sem chan struct{}

	mu      sync.Mutex
	workers map[int64]chan Event
	wg      sync.WaitGroup
}

// New wires the state machine. engines must hold one Engine per
// registered endpoint, keyed by endpoint name.
func New(gw Gateway, reg *registry.Registry, engines map[string]engine.Engine, guard *access.Guard, sessions *session.Store) *Bot {
	return &Bot{
		gw:       gw,
		reg:      reg,
		engines:  engines,
		guard:    guard,
		sessions: sessions,
		sem:      make(chan struct{}, defaultMaxConcurrent),
		workers:  make(map[int64]chan Event),
	}
}

// Run drains events until the context is cancelled or the stream closes,
// then waits for in-flight handlers to finish naturally.
func (b *Bot) Run(ctx context.Context, events <-chan Event) {
	defer b.drain()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.Handle(ctx, ev)
		}
	}
}

// Handle authorizes and enqueues one event. Unauthorized users get a
// fixed rejection and reach nothing else: no session is created, no
// engine is called.
func (b *Bot) Handle(ctx context.Context, ev Event) {
	metrics.UpdatesTotal.WithLabelValues(ev.Kind.String()).Inc()

	if !b.guard.Allow(ev.UserID) {
		metrics.DeniedTotal.Inc()
		log.Warn().Int64("user", ev.UserID).Str("kind", ev.Kind.String()).Msg("rejected unauthorized user")
		if _, err := b.gw.SendMessage(ctx, ev.ChatID, msgUnauthorized, nil); err != nil {
			log.Warn().Err(err).Msg("failed to send rejection")
		}
		return
	}

	select {
	case b.workerFor(ctx, ev.UserID) <- ev:
	default:
		log.Warn().Int64("user", ev.UserID).Msg("user queue full, dropping event")
	}
}

func (b *Bot) workerFor(ctx context.Context, userID int64) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.workers[userID]; ok {
		return ch
	}

	ch := make(chan Event, workerQueueSize)
	b.workers[userID] = ch
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for ev := range ch {
			b.sem <- struct{}{}
			b.handle(ctx, ev)
			<-b.sem
		}
	}()
	return ch
}

func (b *Bot) drain() {
	b.mu.Lock()
	for _, ch := range b.workers {
		close(ch)
	}
	b.workers = make(map[int64]chan Event)
	b.mu.Unlock()
	b.wg.Wait()
}

// handle runs one authorized event to completion. Errors never propagate
// past here; they become user-visible messages.
func (b *Bot) handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case KindCommand:
		b.onCommand(ctx, ev)
	case KindText:
		b.onText(ctx, ev)
	case KindDocument:
		b.onDocument(ctx, ev)
	case KindCallback:
		b.onCallback(ctx, ev)
	}
}

// engineFor resolves the engine bound to an endpoint name.
func (b *Bot) engineFor(name string) (engine.Engine, error) {
	if _, err := b.reg.Resolve(name); err != nil {
		return nil, err
	}
	eng, ok := b.engines[name]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return eng, nil
}

// send is a fire-and-forget reply; delivery failures are logged, never
// propagated.
func (b *Bot) send(ctx context.Context, chatID int64, text string, kb Keyboard) int64 {
	id, err := b.gw.SendMessage(ctx, chatID, text, kb)
	if err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Msg("send failed")
	}
	return id
}

func (b *Bot) edit(ctx context.Context, chatID, messageID int64, text string, kb Keyboard) {
	if err := b.gw.EditMessage(ctx, chatID, messageID, text, kb); err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Msg("edit failed")
	}
}

func (b *Bot) answer(ctx context.Context, callbackID, text string) {
	if callbackID == "" {
		return
	}
	if err := b.gw.AnswerCallback(ctx, callbackID, text); err != nil {
		log.Warn().Err(err).Msg("answer callback failed")
	}
}

// cancelActiveFlow discards the user's open flow, if any, with an
// explicit notice. Returns true when a flow was cancelled.
func (b *Bot) cancelActiveFlow(ctx context.Context, ev Event) bool {
	var had bool
	b.sessions.Do(ev.UserID, func(s *session.Session) {
		had = s.Flow != nil
		s.Flow = nil
	})
	if had {
		b.send(ctx, ev.ChatID, msgFlowCancelled, nil)
	}
	return had
}
