package logging

import (
	"bytes"
	"io"
	"sync"

	"github.com/wardenkit/warden/events"
)

// BrokerSink is an io.Writer that forwards each rendered log line into an
// event broker. Attach it with Logger.SetOutput to make console logging and
// the observable event stream share one record.
type BrokerSink struct {
	mu     sync.Mutex
	broker *events.Broker
	source string
	tee    io.Writer
	buf    bytes.Buffer
}

// NewBrokerSink creates a sink that ingests complete lines into broker,
// attributed to source.
func NewBrokerSink(broker *events.Broker, source string) *BrokerSink {
	return &BrokerSink{broker: broker, source: source}
}

// Tee sets an additional writer that receives every byte unchanged,
// typically os.Stdout so console output is preserved.
func (s *BrokerSink) Tee(w io.Writer) *BrokerSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tee = w
	return s
}

// Write buffers p and ingests each complete newline-terminated line.
// Partial lines are held until the next write.
func (s *BrokerSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tee != nil {
		s.tee.Write(p)
	}

	s.buf.Write(p)
	for {
		line, err := s.buf.ReadString('\n')
		if err != nil {
			// Incomplete line, push it back for the next write.
			s.buf.WriteString(line)
			break
		}
		s.broker.Ingest(line, s.source)
	}
	return len(p), nil
}

// Flush ingests any buffered partial line.
func (s *BrokerSink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf.Len() > 0 {
		s.broker.Ingest(s.buf.String(), s.source)
		s.buf.Reset()
	}
}
