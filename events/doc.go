// Package events provides a non-blocking broadcast broker for
// log-like structured events.
//
// A Broker keeps a bounded FIFO cache of recent entries and fans each
// publish out to any number of subscriber queues. The producer is never
// penalized for a slow observer: an offer to a full queue disconnects
// that subscriber instead of blocking or failing the publish.
//
//	broker := events.NewBroker(events.Config{CacheSize: 500})
//
//	sub := broker.Subscribe(0) // replays the cache, then streams
//	go func() {
//	    for entry := range sub {
//	        render(entry)
//	    }
//	}()
//
//	broker.Publish(events.Entry{
//	    Level:   events.LevelWarning,
//	    Message: "dispatch rejected",
//	    Source:  "runtime",
//	})
//
// Already-rendered log lines can be fed through Ingest, which parses a
// severity tag out of the text; formatting stays upstream (see the
// logging package's BrokerSink).
//
// The optional Index observer makes the stream searchable by indexing
// every entry into a Bleve full-text index.
package events
