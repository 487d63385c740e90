package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/ghosthub/ghosthub/internal/models"
)

// defaultTick is how often the buffer sweeps for inactive threads.
const defaultTick = 5 * time.Second

// Flushed is a completed thread handed to the buffer's sink.
type Flushed struct {
	Platform  string
	ChannelID string
	ThreadID  string // empty for top-level channel chatter
	Messages  []models.Message
}

// Sink receives flushed threads. Called from the buffer's sweep goroutine;
// a slow sink delays later flushes but never drops messages.
type Sink func(Flushed)

// ThreadBuffer groups inbound messages by platform, channel, and thread,
// and flushes a group when it goes quiet for the inactivity window or
// reaches the size cap.
type ThreadBuffer struct {
	mu      sync.Mutex
	threads map[string]*pendingThread
	closed  bool

	sink       Sink
	flushAfter time.Duration
	maxThread  int
	tick       time.Duration

	stop chan struct{}
	done chan struct{}
}

type pendingThread struct {
	platform  string
	channelID string
	threadID  string
	messages  []models.Message
	lastSeen  time.Time
}

// ThreadBufferOpts holds parameters for creating a ThreadBuffer.
type ThreadBufferOpts struct {
	Sink       Sink
	FlushAfter time.Duration // inactivity window before a thread flushes
	MaxThread  int           // flush immediately at this many messages
	Tick       time.Duration // sweep interval, defaults to 5s
}

// NewThreadBuffer creates a buffer and starts its sweep goroutine.
func NewThreadBuffer(opts ThreadBufferOpts) (*ThreadBuffer, error) {
	if opts.Sink == nil {
		return nil, fmt.Errorf("monitor: sink is required")
	}
	if opts.FlushAfter <= 0 {
		return nil, fmt.Errorf("monitor: flush window must be positive")
	}
	if opts.MaxThread <= 0 {
		return nil, fmt.Errorf("monitor: max thread size must be positive")
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	if tick > opts.FlushAfter {
		tick = opts.FlushAfter
	}

	b := &ThreadBuffer{
		threads:    make(map[string]*pendingThread),
		sink:       opts.Sink,
		flushAfter: opts.FlushAfter,
		maxThread:  opts.MaxThread,
		tick:       tick,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go b.sweep()
	return b, nil
}

// Add buffers an inbound message into its thread group. A group that
// reaches the size cap is flushed immediately.
func (b *ThreadBuffer) Add(msg InboundMessage) {
	key := msg.Platform + "\x00" + msg.ChannelID + "\x00" + msg.ThreadID

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	p, ok := b.threads[key]
	if !ok {
		p = &pendingThread{
			platform:  msg.Platform,
			channelID: msg.ChannelID,
			threadID:  msg.ThreadID,
		}
		b.threads[key] = p
	}
	p.messages = append(p.messages, msg.Message())
	p.lastSeen = time.Now()

	var full *Flushed
	if len(p.messages) >= b.maxThread {
		full = p.flushed()
		delete(b.threads, key)
	}
	b.mu.Unlock()

	if full != nil {
		b.sink(*full)
	}
}

// FlushAll flushes every buffered thread regardless of inactivity.
func (b *ThreadBuffer) FlushAll() {
	b.mu.Lock()
	out := make([]Flushed, 0, len(b.threads))
	for key, p := range b.threads {
		out = append(out, *p.flushed())
		delete(b.threads, key)
	}
	b.mu.Unlock()

	for _, f := range out {
		b.sink(f)
	}
}

// Close stops the sweep goroutine and flushes whatever remains.
func (b *ThreadBuffer) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stop)
	<-b.done

	// closed guards Add, not FlushAll: drain the remainder.
	b.FlushAll()
}

// sweep periodically flushes threads that have gone quiet.
func (b *ThreadBuffer) sweep() {
	defer close(b.done)
	ticker := time.NewTicker(b.tick)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case now := <-ticker.C:
			b.flushInactive(now)
		}
	}
}

func (b *ThreadBuffer) flushInactive(now time.Time) {
	b.mu.Lock()
	var out []Flushed
	for key, p := range b.threads {
		if now.Sub(p.lastSeen) >= b.flushAfter {
			out = append(out, *p.flushed())
			delete(b.threads, key)
		}
	}
	b.mu.Unlock()

	for _, f := range out {
		b.sink(f)
	}
}

func (p *pendingThread) flushed() *Flushed {
	msgs := make([]models.Message, len(p.messages))
	copy(msgs, p.messages)
	return &Flushed{
		Platform:  p.platform,
		ChannelID: p.channelID,
		ThreadID:  p.threadID,
		Messages:  msgs,
	}
}
