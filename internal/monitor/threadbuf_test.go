package monitor

import (
	"testing"
	"time"
)

func collectSink(buf chan Flushed) Sink {
	return func(f Flushed) { buf <- f }
}

func waitFlushed(t *testing.T, ch chan Flushed) Flushed {
	t.Helper()
	select {
	case f := <-ch:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for flush")
		return Flushed{}
	}
}

func TestThreadBuffer_Validation(t *testing.T) {
	if _, err := NewThreadBuffer(ThreadBufferOpts{FlushAfter: time.Second, MaxThread: 5}); err == nil {
		t.Error("expected error for missing sink")
	}
	if _, err := NewThreadBuffer(ThreadBufferOpts{Sink: func(Flushed) {}, MaxThread: 5}); err == nil {
		t.Error("expected error for zero flush window")
	}
	if _, err := NewThreadBuffer(ThreadBufferOpts{Sink: func(Flushed) {}, FlushAfter: time.Second}); err == nil {
		t.Error("expected error for zero max thread")
	}
}

func TestThreadBuffer_FlushOnInactivity(t *testing.T) {
	ch := make(chan Flushed, 10)
	b, err := NewThreadBuffer(ThreadBufferOpts{
		Sink:       collectSink(ch),
		FlushAfter: 30 * time.Millisecond,
		MaxThread:  50,
		Tick:       10 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	b.Add(InboundMessage{Platform: "slack", ChannelID: "C1", ThreadID: "T1", UserName: "ava", Text: "first"})
	b.Add(InboundMessage{Platform: "slack", ChannelID: "C1", ThreadID: "T1", UserName: "ben", Text: "second"})

	f := waitFlushed(t, ch)
	if f.Platform != "slack" || f.ChannelID != "C1" || f.ThreadID != "T1" {
		t.Errorf("flushed = %+v", f)
	}
	if len(f.Messages) != 2 || f.Messages[0].Text != "first" || f.Messages[1].Text != "second" {
		t.Errorf("messages = %+v (order must be preserved)", f.Messages)
	}
}

func TestThreadBuffer_FlushAtSizeCap(t *testing.T) {
	ch := make(chan Flushed, 10)
	b, err := NewThreadBuffer(ThreadBufferOpts{
		Sink:       collectSink(ch),
		FlushAfter: time.Hour, // inactivity never fires
		MaxThread:  2,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	b.Add(InboundMessage{Platform: "discord", ChannelID: "C9", Text: "one"})
	select {
	case <-ch:
		t.Fatal("flushed before size cap")
	case <-time.After(20 * time.Millisecond):
	}

	b.Add(InboundMessage{Platform: "discord", ChannelID: "C9", Text: "two"})
	f := waitFlushed(t, ch)
	if len(f.Messages) != 2 {
		t.Errorf("messages = %d, want 2", len(f.Messages))
	}
}

func TestThreadBuffer_GroupsByThread(t *testing.T) {
	ch := make(chan Flushed, 10)
	b, err := NewThreadBuffer(ThreadBufferOpts{
		Sink:       collectSink(ch),
		FlushAfter: time.Hour,
		MaxThread:  50,
	})
	if err != nil {
		t.Fatal(err)
	}

	b.Add(InboundMessage{Platform: "slack", ChannelID: "C1", ThreadID: "T1", Text: "a"})
	b.Add(InboundMessage{Platform: "slack", ChannelID: "C1", ThreadID: "T2", Text: "b"})
	b.Add(InboundMessage{Platform: "slack", ChannelID: "C2", ThreadID: "T1", Text: "c"})

	b.Close() // drains everything
	close(ch)

	var groups int
	for f := range ch {
		groups++
		if len(f.Messages) != 1 {
			t.Errorf("group %s/%s has %d messages, want 1", f.ChannelID, f.ThreadID, len(f.Messages))
		}
	}
	if groups != 3 {
		t.Errorf("groups = %d, want 3", groups)
	}
}

func TestThreadBuffer_AddAfterClose(t *testing.T) {
	ch := make(chan Flushed, 10)
	b, err := NewThreadBuffer(ThreadBufferOpts{
		Sink:       collectSink(ch),
		FlushAfter: time.Hour,
		MaxThread:  50,
	})
	if err != nil {
		t.Fatal(err)
	}
	b.Close()
	b.Add(InboundMessage{Platform: "slack", ChannelID: "C1", Text: "late"})
	b.Close() // second close is a no-op
	if len(ch) != 0 {
		t.Error("message accepted after close")
	}
}
