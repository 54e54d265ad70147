package reveal_test

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mattxslv/phoenix/internal/domain/reveal"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Step(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestScheduler(clock *fakeClock) *reveal.Scheduler {
	return reveal.NewScheduler(reveal.Options{
		PerCharDelay: 10 * time.Millisecond,
		Now:          clock.Now,
	}, zerolog.Nop())
}

func TestRevealCompletesAtTextLengthTimesDelay(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	text := "hello world"
	done := false
	s.Start("turn_1", text, func() { done = true })

	// One tick short of the full duration the reveal must still be open.
	clock.Step(time.Duration(len(text))*10*time.Millisecond - time.Millisecond)
	s.Advance()
	if done {
		t.Fatal("completion fired before the full text was earned")
	}
	prefix, _ := s.Prefix("turn_1")
	if prefix != text[:len(text)-1] {
		t.Fatalf("prefix = %q, want %q", prefix, text[:len(text)-1])
	}

	clock.Step(time.Millisecond)
	s.Advance()
	if !done {
		t.Fatal("completion did not fire at len(text)*perCharDelay")
	}
	if !s.Settled("turn_1") {
		t.Fatal("completed reveal should settle the turn")
	}
	prefix, _ = s.Prefix("turn_1")
	if prefix != text {
		t.Fatalf("settled prefix = %q, want full text", prefix)
	}
}

func TestPrefixMonotonicallyGrowsThroughJitter(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)
	s.Start("turn_1", "abcdefghij", nil)

	steps := []time.Duration{
		3 * time.Millisecond,
		25 * time.Millisecond, // a dropped-ticks burst
		1 * time.Millisecond,
		40 * time.Millisecond,
	}
	prev := 0
	for _, step := range steps {
		clock.Step(step)
		s.Advance()
		prefix, _ := s.Prefix("turn_1")
		if len(prefix) < prev {
			t.Fatalf("prefix shrank from %d to %d chars", prev, len(prefix))
		}
		prev = len(prefix)
	}

	// 69ms elapsed at 10ms per char shows 6 characters.
	if prev != 6 {
		t.Fatalf("shown = %d chars after 69ms, want 6", prev)
	}
}

func TestCancelNeverFiresCompletion(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	done := false
	s.Start("turn_1", "ab", func() { done = true })
	clock.Step(10 * time.Millisecond)
	s.Advance()

	s.Cancel("turn_1")
	clock.Step(time.Second)
	s.Advance()

	if done {
		t.Fatal("completion fired after cancel")
	}
	if s.Settled("turn_1") {
		t.Fatal("cancelled reveal must not settle")
	}
	if s.Revealing("turn_1") {
		t.Fatal("cancelled reveal still active")
	}
}

func TestSettledTurnSkipsScheduler(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	s.Start("turn_1", "hi", nil)
	clock.Step(time.Second)
	s.Advance()
	if !s.Settled("turn_1") {
		t.Fatal("expected settled")
	}

	if s.Start("turn_1", "hi", func() { t.Fatal("settled turn restarted") }) {
		t.Fatal("Start on a settled turn should be refused")
	}
	prefix, ok := s.Prefix("turn_1")
	if !ok || prefix != "hi" {
		t.Fatalf("settled prefix = %q/%v, want full text", prefix, ok)
	}
}

func TestUnsettleForcesReplay(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	s.Start("turn_1", "hi", nil)
	clock.Step(time.Second)
	s.Advance()

	s.Unsettle("turn_1")
	if s.Settled("turn_1") {
		t.Fatal("expected unsettled")
	}
	if !s.Start("turn_1", "hello again", nil) {
		t.Fatal("Start after Unsettle should run")
	}
	clock.Step(10 * time.Millisecond)
	s.Advance()
	prefix, _ := s.Prefix("turn_1")
	if prefix != "h" {
		t.Fatalf("prefix = %q, want %q", prefix, "h")
	}
}

func TestStartReplacesInFlightReveal(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	done := false
	s.Start("turn_1", "original", func() { done = true })
	clock.Step(30 * time.Millisecond)
	s.Advance()

	// The text changed mid-reveal; the old completion must never fire.
	s.Start("turn_1", "rewritten", nil)
	clock.Step(time.Second)
	s.Advance()

	if done {
		t.Fatal("replaced reveal fired its completion callback")
	}
	prefix, _ := s.Prefix("turn_1")
	if prefix != "rewritten" {
		t.Fatalf("prefix = %q, want %q", prefix, "rewritten")
	}
}

func TestWatchStreamsPrefixesAndCloses(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	s.Start("turn_1", "abc", nil)
	ch, release := s.Watch("turn_1")
	defer release()

	clock.Step(10 * time.Millisecond)
	s.Advance()
	if got := <-ch; got != "a" {
		t.Fatalf("first frame = %q, want %q", got, "a")
	}

	clock.Step(time.Second)
	s.Advance()
	if got := <-ch; got != "abc" {
		t.Fatalf("final frame = %q, want full text", got)
	}
	if _, open := <-ch; open {
		t.Fatal("channel should close once the reveal settles")
	}
}

func TestWatchSettledTurnYieldsFullTextOnce(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	s.Start("turn_1", "done already", nil)
	clock.Step(time.Minute)
	s.Advance()

	ch, release := s.Watch("turn_1")
	defer release()
	if got := <-ch; got != "done already" {
		t.Fatalf("frame = %q, want full text", got)
	}
	if _, open := <-ch; open {
		t.Fatal("channel should close after the single frame")
	}
}

func TestEmptyTextSettlesImmediately(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	done := false
	s.Start("turn_1", "", func() { done = true })
	s.Advance()

	if !done || !s.Settled("turn_1") {
		t.Fatalf("empty reveal should settle on the first tick (done=%v settled=%v)", done, s.Settled("turn_1"))
	}
}
