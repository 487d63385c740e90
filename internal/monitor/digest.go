package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/ghosthub/ghosthub/internal/store"
	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// runDigest sends the pending-drafts digest on the configured cron schedule
// until the context is cancelled.
func (d *Daemon) runDigest(ctx context.Context) {
	for {
		wait := nextCronDuration(d.cfg.DigestCron)
		if wait == 0 {
			log.Printf("monitor: invalid digest cron %q, digest disabled", d.cfg.DigestCron)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		text, err := BuildPendingDigest(d.store)
		if err != nil {
			log.Printf("monitor: build digest: %v", err)
			continue
		}
		if text == "" {
			continue // nothing pending, stay quiet
		}
		for _, a := range d.adapters {
			if err := a.Send(ctx, OutboundMessage{Text: text}); err != nil {
				log.Printf("monitor: digest to %s: %v", a.Platform(), err)
			}
		}
	}
}

// BuildPendingDigest formats a reminder listing drafts awaiting review.
// Returns empty string when no drafts are pending.
func BuildPendingDigest(s *store.Store) (string, error) {
	drafts, err := s.QueryDrafts(store.Filter{"status": string(models.StatusDraft)})
	if err != nil {
		return "", fmt.Errorf("monitor: pending drafts: %w", err)
	}
	if len(drafts) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "GhostHub: %d draft(s) awaiting review\n", len(drafts))
	for _, d := range drafts {
		fmt.Fprintf(&b, "  #%d [%s] %s\n", d.ID, d.Type, d.Title)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
