package store

import "github.com/canvasnote/canvasnote/pkg/models"

// Table names shared by every backend and by feed events.
const (
	TableItems   = "items"
	TableFolders = "folders"
)

// EventType is the kind of change a feed event describes.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// ChangeEvent is one record-level notification from the change feed.
//
// ID is always populated. Item or Folder carries the record payload for
// inserts and updates of the corresponding table; both are nil for deletes.
type ChangeEvent struct {
	Table  string
	Type   EventType
	ID     string
	Item   *models.Item
	Folder *models.Folder
}
