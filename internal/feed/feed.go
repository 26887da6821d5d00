package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/schoolhealth-notify/internal/client"
	"github.com/yourorg/schoolhealth-notify/internal/model"
	"github.com/yourorg/schoolhealth-notify/internal/poller"
)

// Feed ties the transport client, the polling scheduler and the reconciler
// together into the notification feed a consumer renders. All state flows
// through the reconciler; consumers only read snapshots and request
// mutations through Open and GoToPage.
type Feed struct {
	client     *client.NotificationClient
	reconciler *Reconciler
	poller     *poller.Poller
	logger     *zap.Logger

	userID   int
	pageSize int

	mu   sync.Mutex
	page int
}

// New creates a feed for the given user
func New(c *client.NotificationClient, userID, pageSize int, interval time.Duration, logger *zap.Logger) *Feed {
	f := &Feed{
		client:     c,
		reconciler: NewReconciler(logger),
		logger:     logger,
		userID:     userID,
		pageSize:   pageSize,
		page:       1,
	}
	f.poller = poller.New(f.fetchCurrent, interval, logger)
	return f
}

// Subscribe registers a renderer callback for reconciled snapshots
func (f *Feed) Subscribe(fn func(Snapshot)) {
	f.reconciler.Subscribe(fn)
}

// Snapshot returns the current reconciled state
func (f *Feed) Snapshot() Snapshot {
	return f.reconciler.Snapshot()
}

// Start begins polling. The first fetch happens immediately.
func (f *Feed) Start() {
	f.poller.Start(f.reconciler.ApplyPoll, 1, f.pageSize)
}

// Stop halts polling. Idempotent; a late in-flight poll result is discarded
// by the scheduler rather than applied here.
func (f *Feed) Stop() {
	f.poller.Stop()
}

// Open marks the notification as read (optimistically first, then on the
// server, fire-and-forget) and returns its classification. A failed server
// confirmation is logged; the optimistic state stands until the next poll
// corrects it.
func (f *Feed) Open(id int) Classification {
	n, ok := f.reconciler.Find(id)
	if !ok {
		f.logger.Warn("opened notification not on current page", zap.Int("id", id))
		return Classification{Kind: KindGeneric}
	}

	if flipped := f.reconciler.ApplyLocalRead(id); flipped > 0 {
		go func() {
			// Detached from the click: confirmation outlives the handler
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := f.client.MarkRead(ctx, []int{id}); err != nil {
				f.logger.Error("mark-read confirmation failed; state self-heals on next poll",
					zap.Int("id", id),
					zap.Error(err))
			}
		}()
	}

	return Classify(n)
}

// GoToPage fetches the requested page directly, outside the polling
// schedule, and installs it. The unread count still comes from the server
// response, so paging never resets it.
func (f *Feed) GoToPage(ctx context.Context, page int) error {
	result, err := f.client.FetchPage(ctx, f.userID, page, f.pageSize)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.page = page
	f.mu.Unlock()

	f.reconciler.ApplyPoll(result)
	return nil
}

// OpenList is called when the consumer opens the notification list; the
// list always opens at the top, so any other page forces a page-1 fetch.
func (f *Feed) OpenList(ctx context.Context) error {
	f.mu.Lock()
	onFirst := f.page == 1
	f.mu.Unlock()

	if onFirst {
		return nil
	}
	return f.GoToPage(ctx, 1)
}

// fetchCurrent is the poll fetch: it always follows the page the consumer
// is currently viewing.
func (f *Feed) fetchCurrent(ctx context.Context, _, pageSize int) (*model.NotificationPage, error) {
	f.mu.Lock()
	page := f.page
	f.mu.Unlock()
	return f.client.FetchPage(ctx, f.userID, page, pageSize)
}
