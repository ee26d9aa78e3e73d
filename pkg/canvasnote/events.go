package canvasnote

// EventType classifies engine notifications.
type EventType string

const (
	// EventSynced fires when a backend write for the record completed.
	EventSynced EventType = "synced"
	// EventSyncError fires when a backend write failed; the record stays
	// in local state with SyncState error.
	EventSyncError EventType = "sync_error"
	// EventQuotaExceeded fires when the backend rejected a create for
	// exceeding the subscription quota. The optimistic insert has been
	// rolled back.
	EventQuotaExceeded EventType = "quota_exceeded"
	// EventRemoteApplied fires when a change-feed event was merged into
	// local state.
	EventRemoteApplied EventType = "remote_applied"
)

// Event is one engine notification, consumed from [Canvas.Events]. The UI
// layer uses these to refresh affected records and surface sync failures.
type Event struct {
	Type  EventType `json:"type"`
	Table string    `json:"table,omitempty"`
	ID    string    `json:"id"`
	Err   error     `json:"-"`
}

// emit delivers without blocking; a full channel drops the event.
func (c *Canvas) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}
