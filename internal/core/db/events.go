package db

import "log"

// ------------------------------
// Event System
// ------------------------------
//
// The DB emits typed events when bookmark rows change or when pending actions
// are queued and settled. Observers (the CLI's sync worker, a future UI) react
// to these instead of polling. Listeners run synchronously after the store
// write commits, so a listener always observes the committed state.
//
// Example usage:
//
//	database.RegisterEventListener(db.OnActionQueuedEvent, func(event db.Event) error {
//	    ev := event.(db.ActionQueuedEvent)
//	    log.Printf("Action queued: %s %s", ev.Action.Type, ev.Action.BookmarkID)
//	    // Nudge the action-sync worker here
//	    return nil
//	})

// Event is the common interface for all database events.
type Event interface {
	Kind() EventKind
}

// EventKind represents all the kinds of events that can be emitted by the DB.
type EventKind int

const (
	// OnBookmarkUpsertedEvent is emitted when a bookmark is inserted or
	// overwritten, including merges during a sync pass.
	OnBookmarkUpsertedEvent EventKind = iota
	// OnBookmarkDeletedEvent is emitted when a bookmark is hard-deleted.
	OnBookmarkDeletedEvent
	// OnActionQueuedEvent is emitted when a pending action is enqueued or
	// coalesced. This doubles as the "please run action-sync soon" signal.
	OnActionQueuedEvent
	// OnActionSettledEvent is emitted when a pending action leaves the
	// queue, whatever the reason.
	OnActionSettledEvent
)

func (k EventKind) String() string {
	switch k {
	case OnBookmarkUpsertedEvent:
		return "bookmark_upserted"
	case OnBookmarkDeletedEvent:
		return "bookmark_deleted"
	case OnActionQueuedEvent:
		return "action_queued"
	case OnActionSettledEvent:
		return "action_settled"
	default:
		return "unknown"
	}
}

// BookmarkUpsertedEvent is emitted after a bookmark row is written.
type BookmarkUpsertedEvent struct {
	Bookmark Bookmark
}

func (e BookmarkUpsertedEvent) Kind() EventKind { return OnBookmarkUpsertedEvent }

// BookmarkDeletedEvent is emitted after a bookmark is hard-deleted.
// Only the ID is guaranteed to be populated.
type BookmarkDeletedEvent struct {
	BookmarkID string
}

func (e BookmarkDeletedEvent) Kind() EventKind { return OnBookmarkDeletedEvent }

// ActionQueuedEvent is emitted after a pending action is inserted or its
// payload coalesced into an existing row.
type ActionQueuedEvent struct {
	Action PendingAction
}

func (e ActionQueuedEvent) Kind() EventKind { return OnActionQueuedEvent }

// Settlement outcomes recorded on ActionSettledEvent.
const (
	SettledApplied    = "applied"
	SettledDropped    = "dropped"
	SettledSuperseded = "superseded"
	SettledPurged     = "purged"
)

// ActionSettledEvent is emitted after a pending action leaves the queue:
// applied remotely, dropped as a permanent failure, superseded by a delete,
// or purged after the remote record turned out to be gone.
type ActionSettledEvent struct {
	Action PendingAction
	Status string
}

func (e ActionSettledEvent) Kind() EventKind { return OnActionSettledEvent }

// EventListener is a callback that handles events of a specific kind.
type EventListener func(event Event) error

// RegisterEventListener adds a listener for a specific event kind.
// Listeners are called synchronously in registration order after the DB operation succeeds.
func (db *DB) RegisterEventListener(eventKind EventKind, listener EventListener) {
	if db.eventListeners == nil {
		db.eventListeners = make(map[EventKind][]EventListener)
	}
	db.eventListeners[eventKind] = append(db.eventListeners[eventKind], listener)
}

// emit dispatches an event to all registered listeners for that event kind.
func (db *DB) emit(event Event) {
	listeners := db.eventListeners[event.Kind()]
	for _, listener := range listeners {
		if err := listener(event); err != nil {
			log.Printf("Event listener error for %s: %v", event.Kind(), err)
		}
	}
}
