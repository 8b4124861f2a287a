package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"
)

// indexedEntry is the document shape stored in the Bleve index.
type indexedEntry struct {
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

// Hit is one search result from an Index.
type Hit struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
}

// Index is a broker observer that makes the event stream searchable:
// it subscribes to a Broker, indexes every entry it receives into a
// Bleve full-text index, and answers match queries over the messages.
// It consumes through the same public Subscribe surface as any other
// observer, so a stalled Index is disconnected like any slow consumer.
type Index struct {
	index bleve.Index
	sub   <-chan Entry
	bkr   *Broker

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewIndex creates a searchable observer over broker. An empty path
// keeps the index in memory; otherwise it is persisted at path.
func NewIndex(broker *Broker, path string) (*Index, error) {
	var index bleve.Index
	var err error
	if path == "" {
		index, err = bleve.NewMemOnly(buildEntryMapping())
	} else {
		index, err = bleve.New(path, buildEntryMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	sub := broker.Subscribe(0)
	if sub == nil {
		index.Close()
		return nil, fmt.Errorf("broker is closed")
	}

	idx := &Index{
		index: index,
		sub:   sub,
		bkr:   broker,
		done:  make(chan struct{}),
	}
	go idx.consume()
	return idx, nil
}

// buildEntryMapping creates the Bleve index mapping for log entries.
func buildEntryMapping() mapping.IndexMapping {
	entryMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	dateFieldMapping := bleve.NewDateTimeFieldMapping()

	entryMapping.AddFieldMappingsAt("message", textFieldMapping)
	entryMapping.AddFieldMappingsAt("source", keywordFieldMapping)
	entryMapping.AddFieldMappingsAt("level", keywordFieldMapping)
	entryMapping.AddFieldMappingsAt("timestamp", dateFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = entryMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

// consume drains the subscription until the broker closes it.
func (x *Index) consume() {
	defer close(x.done)
	for entry := range x.sub {
		x.mu.RLock()
		closed := x.closed
		x.mu.RUnlock()
		if closed {
			return
		}

		doc := indexedEntry{
			Message:   entry.Message,
			Source:    entry.Source,
			Level:     entry.Level.String(),
			Timestamp: entry.Timestamp,
		}
		// Indexing failures are dropped; the broker cache remains the
		// source of truth for recent history.
		_ = x.index.Index(uuid.New().String(), doc)
	}
}

// Search runs a match query over indexed messages and returns up to
// limit hits, best first.
func (x *Index) Search(queryText string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(queryText)
	matchQuery.SetField("message")

	searchReq := bleve.NewSearchRequest(matchQuery)
	searchReq.Size = limit
	searchReq.Fields = []string{"message", "source", "level", "timestamp"}

	results, err := x.index.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		h := Hit{ID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["message"].(string); ok {
			h.Message = v
		}
		if v, ok := hit.Fields["source"].(string); ok {
			h.Source = v
		}
		if v, ok := hit.Fields["level"].(string); ok {
			h.Level = v
		}
		if v, ok := hit.Fields["timestamp"].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				h.Timestamp = t
			}
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// Count returns the number of indexed entries.
func (x *Index) Count() (uint64, error) {
	return x.index.DocCount()
}

// Close unsubscribes from the broker, waits for the consumer to drain,
// and closes the underlying index.
func (x *Index) Close() error {
	x.mu.Lock()
	if x.closed {
		x.mu.Unlock()
		return nil
	}
	x.closed = true
	x.mu.Unlock()

	x.bkr.Unsubscribe(x.sub)
	<-x.done
	return x.index.Close()
}
