// Package reveal discloses generated responses progressively, one prefix at
// a time, the way the text appears to be typed out.
package reveal

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mattxslv/phoenix/internal/infrastructure/metrics"
)

const (
	DefaultPerCharDelay = 30 * time.Millisecond
	DefaultTickInterval = 16 * time.Millisecond
)

// Options tune the scheduler. Zero values take the defaults; Now is
// replaceable so tests can drive a fake clock.
type Options struct {
	PerCharDelay time.Duration
	TickInterval time.Duration
	Now          func() time.Time
}

type watcher struct {
	ch chan string
}

// state is one in-flight reveal.
type state struct {
	turnID   string
	text     []rune
	start    time.Time
	shown    int
	onDone   func()
	watchers []*watcher
}

// Scheduler runs the reveals. Progress is derived from elapsed time since
// the reveal started, not from counting ticks, so a stalled or dropped tick
// only delays publication and never loses characters.
//
// A turn whose reveal ran to completion is settled: it renders its full
// text instantly and is skipped by Start until Unsettle. Cancelling removes
// a reveal without settling it and without firing its completion callback.
type Scheduler struct {
	perCharDelay time.Duration
	tickInterval time.Duration
	now          func() time.Time
	log          zerolog.Logger

	mu      sync.Mutex
	active  map[string]*state
	settled map[string]string // turn id -> fully revealed text
}

func NewScheduler(opts Options, log zerolog.Logger) *Scheduler {
	if opts.PerCharDelay <= 0 {
		opts.PerCharDelay = DefaultPerCharDelay
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		perCharDelay: opts.PerCharDelay,
		tickInterval: opts.TickInterval,
		now:          opts.Now,
		log:          log.With().Str("component", "reveal-scheduler").Logger(),
		active:       make(map[string]*state),
		settled:      make(map[string]string),
	}
}

// Start begins revealing text for the turn. A settled turn is left alone
// and false is returned. Starting over an in-flight reveal replaces it
// without firing the old completion callback, which is what a text change
// mid-reveal needs. onDone may be nil.
func (s *Scheduler) Start(turnID, text string, onDone func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.settled[turnID]; ok {
		return false
	}

	if old, ok := s.active[turnID]; ok {
		closeWatchers(old)
	}
	s.active[turnID] = &state{
		turnID: turnID,
		text:   []rune(text),
		start:  s.now(),
		onDone: onDone,
	}
	return true
}

// Cancel stops the turn's reveal, if any, without settling it. The
// completion callback does not fire.
func (s *Scheduler) Cancel(turnID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.active[turnID]; ok {
		closeWatchers(st)
		delete(s.active, turnID)
	}
}

// Settled reports whether the turn's reveal has run to completion.
func (s *Scheduler) Settled(turnID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.settled[turnID]
	return ok
}

// Unsettle forgets a completed reveal so the next Start replays it. Used
// when a turn is re-edited.
func (s *Scheduler) Unsettle(turnID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settled, turnID)
}

// Revealing reports whether the turn has a reveal in flight.
func (s *Scheduler) Revealing(turnID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[turnID]
	return ok
}

// Prefix returns what the turn currently shows. Settled turns show their
// full text; unknown turns show nothing.
func (s *Scheduler) Prefix(turnID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if text, ok := s.settled[turnID]; ok {
		return text, true
	}
	if st, ok := s.active[turnID]; ok {
		return string(st.text[:st.shown]), true
	}
	return "", false
}

// Watch subscribes to the turn's prefixes. The channel receives each newly
// published prefix and is closed when the reveal completes or is cancelled.
// For a settled turn it yields the full text once and closes. The returned
// release func must be called when the caller stops listening.
func (s *Scheduler) Watch(turnID string) (<-chan string, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if text, ok := s.settled[turnID]; ok {
		ch := make(chan string, 1)
		ch <- text
		close(ch)
		return ch, func() {}
	}

	st, ok := s.active[turnID]
	if !ok {
		ch := make(chan string)
		close(ch)
		return ch, func() {}
	}

	w := &watcher{ch: make(chan string, 8)}
	st.watchers = append(st.watchers, w)
	release := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		cur, ok := s.active[turnID]
		if !ok || cur != st {
			return
		}
		for i, other := range cur.watchers {
			if other == w {
				cur.watchers = append(cur.watchers[:i], cur.watchers[i+1:]...)
				break
			}
		}
	}
	return w.ch, release
}

// Advance publishes the prefix every in-flight reveal has earned by now.
// Reveals whose full text is out settle, fire their completion callback,
// and drop off the active set. Run calls this on every tick; fake-clock
// tests call it directly.
func (s *Scheduler) Advance() {
	now := s.now()

	s.mu.Lock()
	var completed []*state
	for turnID, st := range s.active {
		elapsed := now.Sub(st.start)
		show := int(elapsed / s.perCharDelay)
		if show > len(st.text) {
			show = len(st.text)
		}
		if show < st.shown {
			show = st.shown
		}
		if show != st.shown || show == len(st.text) {
			st.shown = show
			publish(st, string(st.text[:show]))
		}
		if show == len(st.text) {
			s.settled[turnID] = string(st.text)
			delete(s.active, turnID)
			closeWatchers(st)
			completed = append(completed, st)
		}
	}
	s.mu.Unlock()

	for _, st := range completed {
		metrics.RevealsCompletedTotal.Inc()
		s.log.Debug().Str("turn_id", st.turnID).Msg("reveal settled")
		if st.onDone != nil {
			st.onDone()
		}
	}
}

// Run ticks the scheduler until the context ends. Reveals still in flight
// at shutdown are cancelled, not settled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			for turnID, st := range s.active {
				closeWatchers(st)
				delete(s.active, turnID)
			}
			s.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			s.Advance()
		}
	}
}

// publish pushes a prefix to every watcher, dropping the stale frame when
// a slow consumer's buffer is full.
func publish(st *state, prefix string) {
	for _, w := range st.watchers {
		select {
		case w.ch <- prefix:
		default:
			select {
			case <-w.ch:
			default:
			}
			select {
			case w.ch <- prefix:
			default:
			}
		}
	}
}

func closeWatchers(st *state) {
	for _, w := range st.watchers {
		close(w.ch)
	}
	st.watchers = nil
}
