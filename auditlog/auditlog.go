// auditlog.go - Fire-and-forget JSON-lines request log for ingest calls

package auditlog

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Entry is one logged request.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	URL       string    `json:"url"`
	Body      any       `json:"body"`
	IP        string    `json:"ip"`
}

// Logger appends entries to a file from a single background writer.
// Record never blocks and never returns an error to its caller.
type Logger struct {
	path    string
	entries chan Entry
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	mu     sync.RWMutex // Guards closed against a Record racing Close
	closed bool
}

// New starts the writer. bufferSize bounds the number of pending entries;
// entries beyond it are dropped.
func New(path string, bufferSize int) *Logger {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	l := &Logger{
		path:    path,
		entries: make(chan Entry, bufferSize),
		stop:    make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

// Record queues an entry and reports whether it was accepted. Entries are
// refused once Close has started or while the buffer is full. A nil Logger
// is a no-op.
func (l *Logger) Record(e Entry) bool {
	if l == nil {
		return false
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	select {
	case l.entries <- e: // Every accepted entry is written before Close returns
		return true
	default:
		log.Warn().Str("url", e.URL).Msg("audit log buffer full, dropping entry")
		return false
	}
}

// Close stops the writer after draining queued entries.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true // No Record can enqueue past this point
		l.mu.Unlock()

		close(l.stop)
		l.wg.Wait()
	})
	return nil
}

func (l *Logger) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stop:
			for {
				select {
				case e := <-l.entries:
					l.write(e)
				default:
					return
				}
			}
		case e := <-l.entries:
			l.write(e)
		}
	}
}

// write appends one line; any failure is logged and swallowed.
func (l *Logger) write(e Entry) {
	line, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Msg("audit log marshal failed")
		return
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		log.Error().Err(err).Str("path", l.path).Msg("audit log directory unavailable")
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Error().Err(err).Str("path", l.path).Msg("audit log open failed")
		return
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		log.Error().Err(err).Str("path", l.path).Msg("audit log write failed")
	}
}

// Body returns raw as embedded JSON when it parses, otherwise as a string.
// An empty body is logged as {}.
func Body(raw []byte) any {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	if json.Valid(raw) {
		return json.RawMessage(append([]byte(nil), raw...))
	}
	return string(raw)
}
