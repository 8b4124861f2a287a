package events

import (
	"fmt"
	"testing"
	"time"
)

func publishN(b *Broker, n int) {
	for i := 0; i < n; i++ {
		b.Publish(Entry{Level: LevelInfo, Message: fmt.Sprintf("msg-%d", i), Source: "test"})
	}
}

func TestBroker_CacheEvictsOldestFirst(t *testing.T) {
	b := NewBroker(Config{CacheSize: 10})
	defer b.Close()

	publishN(b, 15)

	cached := b.Cached()
	if len(cached) != 10 {
		t.Fatalf("expected 10 cached entries, got %d", len(cached))
	}
	for i, entry := range cached {
		want := fmt.Sprintf("msg-%d", i+5)
		if entry.Message != want {
			t.Errorf("position %d: expected %s, got %s", i, want, entry.Message)
		}
	}

	s := b.Stats()
	if s.Total != 15 {
		t.Errorf("expected total 15, got %d", s.Total)
	}
	if s.Evicted != 5 {
		t.Errorf("expected 5 evictions, got %d", s.Evicted)
	}
}

func TestBroker_SubscribeReplaysCacheInOrder(t *testing.T) {
	b := NewBroker(Config{CacheSize: 10})
	defer b.Close()

	publishN(b, 4)
	sub := b.Subscribe(0)

	b.Publish(Entry{Level: LevelInfo, Message: "after", Source: "test"})

	for i := 0; i < 4; i++ {
		entry := <-sub
		want := fmt.Sprintf("msg-%d", i)
		if entry.Message != want {
			t.Errorf("replay position %d: expected %s, got %s", i, want, entry.Message)
		}
	}
	if entry := <-sub; entry.Message != "after" {
		t.Errorf("expected the live entry after the replay, got %s", entry.Message)
	}
}

func TestBroker_ReplayTruncatesQuietly(t *testing.T) {
	b := NewBroker(Config{CacheSize: 10})
	defer b.Close()

	publishN(b, 8)
	sub := b.Subscribe(3)

	if got := len(sub); got != 3 {
		t.Errorf("expected replay truncated at capacity 3, got %d queued", got)
	}
	for i := 0; i < 3; i++ {
		entry := <-sub
		want := fmt.Sprintf("msg-%d", i)
		if entry.Message != want {
			t.Errorf("replay position %d: expected %s, got %s", i, want, entry.Message)
		}
	}
}

func TestBroker_SlowSubscriberDropped(t *testing.T) {
	b := NewBroker(Config{CacheSize: 10})
	defer b.Close()

	sub := b.Subscribe(2)
	fast := b.Subscribe(100)

	publishN(b, 5) // sub's queue (cap 2) overflows at the third offer

	if s := b.Stats(); s.Subscribers != 1 {
		t.Errorf("slow subscriber should be removed, have %d", s.Subscribers)
	}
	if s := b.Stats(); s.Dropped != 1 {
		t.Errorf("expected 1 dropped subscriber, got %d", b.Stats().Dropped)
	}

	// The dropped queue is closed after its buffered entries drain.
	<-sub
	<-sub
	if _, ok := <-sub; ok {
		t.Error("dropped subscriber's queue should be closed")
	}

	// The healthy subscriber saw everything.
	if got := len(fast); got != 5 {
		t.Errorf("fast subscriber should hold 5 entries, has %d", got)
	}
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := NewBroker(Config{CacheSize: 10})
	defer b.Close()

	sub := b.Subscribe(0)
	b.Unsubscribe(sub)
	b.Unsubscribe(sub) // idempotent

	if s := b.Stats(); s.Subscribers != 0 {
		t.Errorf("expected 0 subscribers, got %d", s.Subscribers)
	}
	if _, ok := <-sub; ok {
		t.Error("unsubscribed queue should be closed")
	}
}

func TestBroker_MinLevelGate(t *testing.T) {
	b := NewBroker(Config{CacheSize: 10})
	defer b.Close()

	b.SetMinLevel(LevelWarning)

	if b.ShouldEmit(LevelInfo) {
		t.Error("INFO should not pass a WARNING gate")
	}
	if !b.ShouldEmit(LevelError) {
		t.Error("ERROR should pass a WARNING gate")
	}

	b.Publish(Entry{Level: LevelDebug, Message: "quiet"})
	b.Publish(Entry{Level: LevelCritical, Message: "loud"})

	cached := b.Cached()
	if len(cached) != 1 || cached[0].Message != "loud" {
		t.Errorf("only the critical entry should be cached, got %+v", cached)
	}
}

func TestBroker_LevelOrdering(t *testing.T) {
	levels := []Level{LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical}
	for i := 1; i < len(levels); i++ {
		if levels[i-1] >= levels[i] {
			t.Errorf("%s should order below %s", levels[i-1], levels[i])
		}
	}
}

func TestBroker_Ingest(t *testing.T) {
	b := NewBroker(Config{CacheSize: 10})
	defer b.Close()

	b.Ingest("ERROR 2026-01-02T10:00:00Z [runtime] dispatch rejected\n", "runtime")
	b.Ingest("[WARN] queue depth high", "monitor")
	b.Ingest("plain line with no tag", "misc")

	cached := b.Cached()
	if len(cached) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(cached))
	}
	if cached[0].Level != LevelError {
		t.Errorf("expected ERROR, got %s", cached[0].Level)
	}
	if cached[1].Level != LevelWarning {
		t.Errorf("expected WARNING from [WARN], got %s", cached[1].Level)
	}
	if cached[2].Level != LevelInfo {
		t.Errorf("untagged lines default to INFO, got %s", cached[2].Level)
	}
	if cached[0].Source != "runtime" {
		t.Errorf("source should be preserved, got %s", cached[0].Source)
	}
	if cached[0].Message[len(cached[0].Message)-1] == '\n' {
		t.Error("trailing newline should be trimmed")
	}
}

func TestBroker_ClearCache(t *testing.T) {
	b := NewBroker(Config{CacheSize: 10})
	defer b.Close()

	publishN(b, 5)
	b.ClearCache()

	if got := len(b.Cached()); got != 0 {
		t.Errorf("expected empty cache, got %d", got)
	}
	if s := b.Stats(); s.Total != 5 {
		t.Errorf("counters survive a cache clear, got total %d", s.Total)
	}
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker(Config{CacheSize: 10})

	sub := b.Subscribe(0)
	publishN(b, 3)
	b.Close()
	b.Close() // idempotent

	// Drain buffered entries, then observe the close.
	for i := 0; i < 3; i++ {
		<-sub
	}
	if _, ok := <-sub; ok {
		t.Error("subscriber queues close when the broker closes")
	}

	b.Publish(Entry{Level: LevelInfo, Message: "late"})
	if b.Subscribe(0) != nil {
		t.Error("closed broker should refuse subscriptions")
	}
}

func TestBroker_PublishSetsTimestamp(t *testing.T) {
	b := NewBroker(Config{CacheSize: 10})
	defer b.Close()

	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	b.nowFunc = func() time.Time { return fixed }

	b.Publish(Entry{Level: LevelInfo, Message: "stamped"})
	if got := b.Cached()[0].Timestamp; !got.Equal(fixed) {
		t.Errorf("expected timestamp %v, got %v", fixed, got)
	}
}

func TestParseLine(t *testing.T) {
	cases := []struct {
		line string
		want Level
	}{
		{"DEBUG 12:00:00 starting", LevelDebug},
		{"INFO  12:00:00 [runtime] ok", LevelInfo},
		{"WARNING: something", LevelWarning},
		{"[ERROR] broken", LevelError},
		{"CRITICAL meltdown", LevelCritical},
		{"FATAL meltdown", LevelCritical},
		{"WARN  12:00:00 short tag", LevelWarning},
		{"no tag at all", LevelInfo},
		{"", LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLine(tc.line); got != tc.want {
			t.Errorf("ParseLine(%q) = %s, want %s", tc.line, got, tc.want)
		}
	}
}
