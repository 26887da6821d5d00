package feed

import (
	"sync"

	"go.uber.org/zap"

	"github.com/yourorg/schoolhealth-notify/internal/model"
)

// Snapshot is an immutable view of the reconciled notification state, safe
// to hand to renderers.
type Snapshot struct {
	Items       []model.Notification
	CurrentPage int
	TotalItems  int
	TotalPages  int
	UnreadCount int
}

// Reconciler merges server poll results with locally-applied optimistic
// read-marks. A user's own click is reflected immediately; the next poll
// result replaces items and pagination verbatim and the server's unread
// count wins. A poll response that races a just-sent mark-read may briefly
// show stale state; it self-heals on the following tick.
type Reconciler struct {
	logger *zap.Logger

	mu          sync.Mutex
	items       []model.Notification
	currentPage int
	totalItems  int
	totalPages  int
	unreadCount int
	subscribers []func(Snapshot)
}

// NewReconciler creates an empty reconciler
func NewReconciler(logger *zap.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Subscribe registers a callback invoked with a snapshot after every state
// change. Subscribers must not call back into the reconciler.
func (r *Reconciler) Subscribe(fn func(Snapshot)) {
	r.mu.Lock()
	r.subscribers = append(r.subscribers, fn)
	r.mu.Unlock()
}

// Snapshot returns a copy of the current state
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// ApplyLocalRead optimistically marks the given ids as read in the rendered
// list and decrements the unread count by the number of items that were
// previously unread, clamped at zero. Ids not present on the current page
// are ignored. Returns the number of items actually flipped.
func (r *Reconciler) ApplyLocalRead(ids ...int) int {
	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	r.mu.Lock()
	flipped := 0
	for i := range r.items {
		if wanted[r.items[i].ID] && !r.items[i].IsRead {
			r.items[i].IsRead = true
			flipped++
		}
	}
	r.unreadCount -= flipped
	if r.unreadCount < 0 {
		r.unreadCount = 0
	}
	snap := r.snapshotLocked()
	subs := r.subscribers
	r.mu.Unlock()

	if flipped > 0 {
		r.publish(subs, snap)
	}
	return flipped
}

// ApplyPoll installs a server poll result. Items and pagination are taken
// verbatim; the server's unread count is authoritative.
func (r *Reconciler) ApplyPoll(page *model.NotificationPage) {
	r.mu.Lock()
	r.items = append(r.items[:0:0], page.Notifications...)
	r.currentPage = page.Pagination.CurrentPage
	r.totalItems = page.Pagination.TotalItems
	r.totalPages = page.Pagination.TotalPages
	r.unreadCount = page.UnreadCount
	if r.unreadCount < 0 {
		r.unreadCount = 0
	}
	snap := r.snapshotLocked()
	subs := r.subscribers
	r.mu.Unlock()

	r.publish(subs, snap)
}

// Find returns the currently-rendered notification with the given id
func (r *Reconciler) Find(id int) (model.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id {
			return n, true
		}
	}
	return model.Notification{}, false
}

func (r *Reconciler) snapshotLocked() Snapshot {
	return Snapshot{
		Items:       append([]model.Notification(nil), r.items...),
		CurrentPage: r.currentPage,
		TotalItems:  r.totalItems,
		TotalPages:  r.totalPages,
		UnreadCount: r.unreadCount,
	}
}

func (r *Reconciler) publish(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
