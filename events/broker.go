package events

import (
	"strings"
	"sync"
	"time"
)

// Config holds broker construction parameters. All values are fixed
// after construction.
type Config struct {
	// CacheSize is the ring buffer capacity. Default: 256.
	CacheSize int

	// DefaultQueueCapacity sizes subscriber queues when Subscribe is
	// called with a non-positive capacity. Default: 2x CacheSize.
	DefaultQueueCapacity int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheSize: 256,
	}
}

// Stats is a point-in-time snapshot of a broker.
type Stats struct {
	Total       uint64            `json:"total"`
	ByLevel     map[string]uint64 `json:"by_level"`
	Cached      int               `json:"cached"`
	CacheSize   int               `json:"cache_size"`
	Evicted     uint64            `json:"evicted"`
	Subscribers int               `json:"subscribers"`
	Dropped     uint64            `json:"dropped_subscribers"`
	MinLevel    string            `json:"min_level"`
}

// Broker fans structured events out to any number of subscribers and
// keeps a bounded FIFO cache of recent entries for replay. Publish
// never blocks and never fails toward the producer: a subscriber whose
// queue is full at offer time is dropped instead of stalling anyone.
// Safe for concurrent use.
type Broker struct {
	config Config

	mu       sync.Mutex
	ring     []Entry
	head     int // index of the oldest cached entry
	size     int // number of cached entries
	subs     []chan Entry
	minLevel Level
	total    uint64
	byLevel  map[Level]uint64
	evicted  uint64
	dropped  uint64
	closed   bool

	nowFunc func() time.Time // for testing
}

// NewBroker creates a broker with the given config.
func NewBroker(cfg Config) *Broker {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	if cfg.DefaultQueueCapacity <= 0 {
		cfg.DefaultQueueCapacity = 2 * cfg.CacheSize
	}
	return &Broker{
		config:   cfg,
		ring:     make([]Entry, cfg.CacheSize),
		byLevel:  make(map[Level]uint64),
		minLevel: LevelDebug,
		nowFunc:  time.Now,
	}
}

// Publish appends entry to the cache (evicting the oldest when full),
// updates counters, and offers the entry to every subscriber without
// blocking. Entries below the minimum level are discarded. Publishing
// to a closed broker is a no-op.
func (b *Broker) Publish(entry Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || entry.Level < b.minLevel {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = b.nowFunc()
	}

	b.cache(entry)
	b.total++
	b.byLevel[entry.Level]++

	// Offer to each subscriber; a full queue disconnects its owner.
	kept := b.subs[:0]
	for _, sub := range b.subs {
		select {
		case sub <- entry:
			kept = append(kept, sub)
		default:
			close(sub)
			b.dropped++
		}
	}
	b.subs = kept
}

// cache appends under the lock, evicting the oldest entry on overflow.
func (b *Broker) cache(entry Entry) {
	if b.size == len(b.ring) {
		b.ring[b.head] = entry
		b.head = (b.head + 1) % len(b.ring)
		b.evicted++
		return
	}
	b.ring[(b.head+b.size)%len(b.ring)] = entry
	b.size++
}

// Ingest parses a severity tag out of an already-rendered log line and
// publishes it. The broker does no formatting of its own; rendering
// belongs to the upstream logger.
func (b *Broker) Ingest(line, source string) {
	b.Publish(Entry{
		Level:   ParseLine(line),
		Message: strings.TrimRight(line, "\r\n"),
		Source:  source,
	})
}

// Subscribe registers a new subscriber queue, replaying the current
// cache into it in publish order first. Replay stops quietly if the
// queue fills. A non-positive capacity uses the configured default,
// which is sized comfortably above the cache so a fresh subscriber can
// always take the full replay. Returns nil on a closed broker.
func (b *Broker) Subscribe(capacity int) <-chan Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	if capacity <= 0 {
		capacity = b.config.DefaultQueueCapacity
	}

	ch := make(chan Entry, capacity)
replay:
	for i := 0; i < b.size; i++ {
		select {
		case ch <- b.ring[(b.head+i)%len(b.ring)]:
		default:
			// Queue filled mid-replay; the subscriber starts with a
			// truncated history rather than an error.
			break replay
		}
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes a subscriber queue and closes it. Idempotent for
// queues that are not (or no longer) registered.
func (b *Broker) Unsubscribe(ch <-chan Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if (<-chan Entry)(sub) == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// SetMinLevel sets the minimum severity admitted by Publish.
func (b *Broker) SetMinLevel(level Level) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minLevel = level
}

// ShouldEmit reports whether an entry at level would pass the gate.
func (b *Broker) ShouldEmit(level Level) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return level >= b.minLevel
}

// Cached returns the cached entries in publish order.
func (b *Broker) Cached() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.ring[(b.head+i)%len(b.ring)]
	}
	return out
}

// Stats returns a snapshot of the broker's counters.
func (b *Broker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	byLevel := make(map[string]uint64, len(b.byLevel))
	for level, n := range b.byLevel {
		byLevel[level.String()] = n
	}
	return Stats{
		Total:       b.total,
		ByLevel:     byLevel,
		Cached:      b.size,
		CacheSize:   len(b.ring),
		Evicted:     b.evicted,
		Subscribers: len(b.subs),
		Dropped:     b.dropped,
		MinLevel:    b.minLevel.String(),
	}
}

// ClearCache empties the ring buffer. Counters and subscribers are
// untouched.
func (b *Broker) ClearCache() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.size = 0
}

// Close drops every subscriber (closing their queues) and clears the
// cache. No flush is attempted for items already in subscriber queues.
// Idempotent.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub)
	}
	b.subs = nil
	b.head = 0
	b.size = 0
}
