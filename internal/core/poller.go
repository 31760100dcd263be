package core

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/marksync/internal/core/db"
	"github.com/example/marksync/internal/remote"
)

// Poller watches a freshly created bookmark until the remote service finishes
// content extraction. Creation returns immediately with the record in the
// loading state; the poller re-fetches on a fixed interval, persisting every
// snapshot through the merge engine so local observers see progress, and
// stops on a terminal state or after the attempt ceiling.
//
// Run it detached under a Supervisor: its lifetime is independent of whatever
// initiated the creation.
type Poller struct {
	syncer *Syncer
	logger *log.Logger

	// Interval is the wait between probes.
	Interval time.Duration
	// MaxAttempts caps the number of probes before giving up silently.
	MaxAttempts int
	// OnContentReady is the fire-and-forget download signal, invoked once
	// when the bookmark reaches the loaded state with extractable article
	// content. May be nil.
	OnContentReady func(bookmarkID string)
}

func NewPoller(syncer *Syncer, logger *log.Logger) *Poller {
	if logger == nil {
		logger = log.New(os.Stderr, "[poll] ", log.LstdFlags)
	}
	return &Poller{
		syncer:      syncer,
		logger:      logger,
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultMaxPollAttempts,
	}
}

// Poll blocks until the bookmark leaves the loading state, the attempt
// ceiling is hit, or ctx is cancelled (for instance because the bookmark was
// deleted while polling).
func (p *Poller) Poll(ctx context.Context, bookmarkID string) {
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			p.logger.Printf("Polling cancelled for %s", bookmarkID)
			return
		case <-time.After(p.Interval):
		}

		rb, err := p.syncer.remote.GetBookmark(ctx, bookmarkID)
		if err != nil {
			if remote.IsNotFound(err) {
				p.logger.Printf("Bookmark %s disappeared while polling", bookmarkID)
				return
			}
			// Transient or otherwise: keep probing until the ceiling.
			p.logger.Printf("Poll %d/%d for %s failed: %v", attempt, p.MaxAttempts, bookmarkID, err)
			continue
		}

		merged, err := p.syncer.IngestBookmark(rb)
		if err != nil {
			p.logger.Printf("Failed to persist poll result for %s: %v", bookmarkID, err)
			continue
		}

		switch merged.State {
		case db.StateLoaded:
			p.logger.Printf("Bookmark %s ready after %d poll(s)", bookmarkID, attempt)
			if rb.HasArticle && p.OnContentReady != nil {
				p.OnContentReady(bookmarkID)
			}
			return
		case db.StateError:
			p.logger.Printf("Extraction failed remotely for %s", bookmarkID)
			return
		}
	}

	// Ceiling reached. The record stays in the loading state locally; a
	// manual refresh can pick it up later.
	p.logger.Printf("Gave up polling %s after %d attempts", bookmarkID, p.MaxAttempts)
}
