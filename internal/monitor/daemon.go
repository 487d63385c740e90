package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ghosthub/ghosthub/internal/config"
	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/ghosthub/ghosthub/internal/store"
	"github.com/ghosthub/ghosthub/internal/workflow"
)

// Daemon connects platform adapters to the pipeline: inbound messages are
// buffered into threads, flushed threads run through the orchestrator, and
// resulting drafts are optionally announced back to the source channel.
type Daemon struct {
	adapters map[string]Adapter // by platform
	flow     *workflow.Orchestrator
	store    *store.Store
	cfg      config.MonitorConfig
	buffer   *ThreadBuffer
}

// DaemonOpts holds parameters for creating a Daemon.
type DaemonOpts struct {
	Adapters []Adapter
	Workflow *workflow.Orchestrator
	Store    *store.Store
	Config   config.MonitorConfig
}

// NewDaemon creates a Daemon.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if len(opts.Adapters) == 0 {
		return nil, fmt.Errorf("monitor: at least one adapter is required")
	}
	if opts.Workflow == nil {
		return nil, fmt.Errorf("monitor: workflow is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("monitor: store is required")
	}

	adapters := make(map[string]Adapter, len(opts.Adapters))
	for _, a := range opts.Adapters {
		if a.Platform() == "" {
			return nil, fmt.Errorf("monitor: adapter with empty platform name")
		}
		if _, dup := adapters[a.Platform()]; dup {
			return nil, fmt.Errorf("monitor: duplicate adapter for platform %q", a.Platform())
		}
		adapters[a.Platform()] = a
	}

	return &Daemon{
		adapters: adapters,
		flow:     opts.Workflow,
		store:    opts.Store,
		cfg:      opts.Config,
	}, nil
}

// Run connects every adapter and processes messages until the context is
// cancelled. Remaining buffered threads are flushed on shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	// Flushes outlive cancellation so the shutdown drain still runs the
	// pipeline for buffered threads.
	sinkCtx := context.WithoutCancel(ctx)
	buf, err := NewThreadBuffer(ThreadBufferOpts{
		Sink:       func(f Flushed) { d.handleFlush(sinkCtx, f) },
		FlushAfter: time.Duration(d.cfg.FlushSecs) * time.Second,
		MaxThread:  d.cfg.MaxThread,
	})
	if err != nil {
		return err
	}
	d.buffer = buf

	var wg sync.WaitGroup
	for _, a := range d.adapters {
		if err := a.Connect(ctx); err != nil {
			return fmt.Errorf("monitor: connect %s: %w", a.Platform(), err)
		}
		inbound, err := a.Listen(ctx)
		if err != nil {
			return fmt.Errorf("monitor: listen %s: %w", a.Platform(), err)
		}
		log.Printf("monitor: watching %s", a.Platform())

		wg.Add(1)
		go func(platform string, inbound <-chan InboundMessage) {
			defer wg.Done()
			d.pump(ctx, inbound)
		}(a.Platform(), inbound)
	}

	if d.cfg.DigestCron != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.runDigest(ctx)
		}()
	}

	<-ctx.Done()
	for _, a := range d.adapters {
		if err := a.Close(); err != nil {
			log.Printf("monitor: close %s: %v", a.Platform(), err)
		}
	}
	wg.Wait()
	buf.Close()
	return nil
}

// pump moves inbound messages into the thread buffer.
func (d *Daemon) pump(ctx context.Context, inbound <-chan InboundMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			if msg.Text == "" && len(msg.Images) == 0 {
				continue
			}
			d.buffer.Add(msg)
		}
	}
}

// handleFlush runs one flushed thread through the pipeline.
func (d *Daemon) handleFlush(ctx context.Context, f Flushed) {
	thread := d.assembleThread(ctx, f)

	res, err := d.flow.ProcessThread(ctx, thread)
	if err != nil {
		log.Printf("monitor: process thread %s: %v", thread.ThreadID, err)
		return
	}
	if !res.Actionable {
		return
	}
	log.Printf("monitor: draft #%d created from %s thread %s", res.Draft.ID, f.Platform, thread.ThreadID)

	if d.cfg.NotifyDraft {
		d.notify(ctx, f, res.Draft)
	}
}

// assembleThread builds the pipeline thread for a flush. For a real
// platform thread the adapter's history is preferred when it holds more
// than the buffer saw — the thread may predate the daemon, and the lead
// message gates classification. Image attachments only exist on buffered
// messages, so they are carried over by text match.
func (d *Daemon) assembleThread(ctx context.Context, f Flushed) models.Thread {
	threadID := f.ThreadID
	if threadID == "" {
		threadID = f.ChannelID
	}
	thread := models.Thread{
		ThreadID: f.Platform + "-" + threadID,
		Platform: f.Platform,
		Messages: f.Messages,
	}

	adapter := d.adapters[f.Platform]
	if adapter == nil || f.ThreadID == "" {
		return thread
	}
	history, err := adapter.ThreadHistory(ctx, f.ChannelID, f.ThreadID, d.cfg.MaxThread)
	if err != nil {
		log.Printf("monitor: thread history %s/%s: %v", f.ChannelID, f.ThreadID, err)
		return thread
	}
	if len(history) > len(f.Messages) {
		thread.Messages = mergeImages(history, f.Messages)
	}
	return thread
}

// mergeImages copies image attachments from buffered messages onto the
// matching history messages.
func mergeImages(history, buffered []models.Message) []models.Message {
	for i := range history {
		if len(history[i].Images) > 0 {
			continue
		}
		for _, b := range buffered {
			if len(b.Images) > 0 && b.Text == history[i].Text {
				history[i].Images = b.Images
				break
			}
		}
	}
	return history
}

// notify announces a new draft back to the thread it came from.
func (d *Daemon) notify(ctx context.Context, f Flushed, draft *models.IssueDraft) {
	adapter := d.adapters[f.Platform]
	if adapter == nil {
		return
	}
	msg := OutboundMessage{
		ChannelID: f.ChannelID,
		ThreadID:  f.ThreadID,
		Text:      fmt.Sprintf("GhostHub drafted issue #%d: %s (awaiting review)", draft.ID, draft.Title),
	}
	if err := adapter.Send(ctx, msg); err != nil {
		log.Printf("monitor: notify %s: %v", f.Platform, err)
	}
}
