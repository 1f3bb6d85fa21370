// Package analytics records search events without ever blocking or failing
// the search path. Events are buffered in memory and drained to a capped
// Redis list; when the buffer is full or Redis is down, events are dropped
// and counted.
package analytics

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultListKey is the Redis list search events are pushed to.
	DefaultListKey = "talentsearch:events"
	// DefaultMaxListLen caps the Redis list length.
	DefaultMaxListLen = 10000
	// DefaultBufferSize is the in-memory channel capacity.
	DefaultBufferSize = 1024

	writeTimeout = 2 * time.Second
)

// Event is one recorded search.
type Event struct {
	UserID      string    `json:"user_id"`
	Query       string    `json:"query"`
	QueryType   string    `json:"query_type,omitempty"`
	ResultCount int       `json:"result_count"`
	DurationMS  int64     `json:"duration_ms"`
	Enhanced    bool      `json:"enhanced"`
	Timestamp   time.Time `json:"timestamp"`
}

// Emitter asynchronously records search events.
type Emitter struct {
	client  *redis.Client
	listKey string
	maxLen  int64
	logger  *zap.Logger

	events  chan Event
	dropped atomic.Int64
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithListKey overrides the Redis list key.
func WithListKey(key string) EmitterOption {
	return func(e *Emitter) {
		if key != "" {
			e.listKey = key
		}
	}
}

// WithMaxListLen overrides the Redis list cap.
func WithMaxListLen(n int64) EmitterOption {
	return func(e *Emitter) {
		if n > 0 {
			e.maxLen = n
		}
	}
}

// WithBufferSize overrides the in-memory buffer capacity.
func WithBufferSize(n int) EmitterOption {
	return func(e *Emitter) {
		if n > 0 {
			e.events = make(chan Event, n)
		}
	}
}

// NewEmitter creates an emitter and starts its drain goroutine. A nil Redis
// client yields an emitter that counts every event as dropped.
func NewEmitter(client *redis.Client, logger *zap.Logger, opts ...EmitterOption) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Emitter{
		client:  client,
		listKey: DefaultListKey,
		maxLen:  DefaultMaxListLen,
		logger:  logger,
		events:  make(chan Event, DefaultBufferSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.wg.Add(1)
	go e.drain()
	return e
}

// Record queues an event. It never blocks: a full buffer drops the event.
func (e *Emitter) Record(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case e.events <- event:
	default:
		e.dropped.Add(1)
	}
}

// Dropped returns the number of events dropped since startup.
func (e *Emitter) Dropped() int64 {
	return e.dropped.Load()
}

// Close stops the drain goroutine after flushing queued events.
func (e *Emitter) Close() error {
	e.once.Do(func() {
		close(e.done)
	})
	e.wg.Wait()
	return nil
}

func (e *Emitter) drain() {
	defer e.wg.Done()
	for {
		select {
		case event := <-e.events:
			e.push(event)
		case <-e.done:
			// Flush whatever is still buffered, then stop.
			for {
				select {
				case event := <-e.events:
					e.push(event)
				default:
					return
				}
			}
		}
	}
}

func (e *Emitter) push(event Event) {
	if e.client == nil {
		e.dropped.Add(1)
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		e.dropped.Add(1)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	pipe := e.client.Pipeline()
	pipe.LPush(ctx, e.listKey, payload)
	pipe.LTrim(ctx, e.listKey, 0, e.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		e.dropped.Add(1)
		e.logger.Debug("analytics write failed", zap.Error(err))
	}
}
