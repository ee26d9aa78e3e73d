package models

import (
	"time"

	"gorm.io/gorm"
)

// ItemKind represents the type of a captured item on the canvas
type ItemKind string

const (
	ItemKindText    ItemKind = "text"
	ItemKindLink    ItemKind = "link"
	ItemKindImage   ItemKind = "image"
	ItemKindVideo   ItemKind = "video"
	ItemKindRoom    ItemKind = "room"
	ItemKindProject ItemKind = "project"
)

// Valid reports whether the kind is one of the defined capture kinds.
func (k ItemKind) Valid() bool {
	switch k {
	case ItemKindText, ItemKindLink, ItemKindImage, ItemKindVideo, ItemKindRoom, ItemKindProject:
		return true
	}
	return false
}

// LifecycleStatus classifies an item or folder into one of the three
// global visibility states. Inbox and archived are room-independent views:
// a snapshot always includes them regardless of the current room scope.
type LifecycleStatus string

const (
	StatusInbox    LifecycleStatus = "inbox"
	StatusActive   LifecycleStatus = "active"
	StatusArchived LifecycleStatus = "archived"
)

// SyncState reflects whether the last local mutation of a record has been
// acknowledged by the backend. It is derived, session-local state: the
// backend is the system of record for every persisted field, and SyncState
// is never written to any store. It is exposed over JSON so the UI layer
// can render the syncing/error affordances.
type SyncState string

const (
	SyncStateSynced  SyncState = "synced"
	SyncStateSyncing SyncState = "syncing"
	SyncStateError   SyncState = "error"
)

// Position is a point in canvas units. The canvas origin is the top-left
// corner; x grows rightward and y grows downward.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Metadata is the typed attribute bag attached to every item.
//
// Width and Height, when set, override the per-kind default dimensions used
// by the geometry package. All sizing decisions go through one typed
// function (geometry.ItemSize) rather than ad hoc property lookups, so a
// record with no overrides still has well-defined dimensions.
type Metadata struct {
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	PreviewImage string   `json:"preview_image,omitempty"`
	Color        string   `json:"color,omitempty"`
	Locked       bool     `json:"locked,omitempty"`
	Width        *float64 `json:"width,omitempty"`
	Height       *float64 `json:"height,omitempty"`
}

// Item represents a capture placed on the canvas: a note, link, image,
// video, nested sub-canvas (room) or project area.
//
// Spatial invariants maintained by the engine, not by this struct:
//   - FolderID, if set, references an existing folder with the same RoomID.
//   - StatusInbox implies FolderID is nil; the position of an inbox item is
//     not meaningful for layout.
//   - A project item never has a FolderID; its rectangle (Position plus the
//     metadata dimensions) defines the region other entities can be
//     spatially contained within.
//   - Two active, top-level items are never knowingly placed with
//     overlapping bounding boxes beyond the placement buffer.
type Item struct {
	ID       ItemID          `gorm:"type:uuid;primary_key" json:"id"`
	Kind     ItemKind        `gorm:"not null" json:"kind"`
	Position Position        `gorm:"embedded;embeddedPrefix:position_" json:"position"`
	FolderID *FolderID       `gorm:"type:uuid;index" json:"folder_id,omitempty"`
	RoomID   *ItemID         `gorm:"type:uuid;index" json:"room_id,omitempty"`
	Status   LifecycleStatus `gorm:"not null;index" json:"status"`
	Metadata Metadata        `gorm:"embedded;embeddedPrefix:metadata_" json:"metadata"`
	Vaulted  bool            `json:"vaulted"`

	// SyncState is transient and never persisted to any backend.
	SyncState SyncState `gorm:"-" cbor:"-" json:"sync_state,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID.IsZero() {
		i.ID = NewItemID()
	}
	return nil
}

// IsRegion reports whether the item is a project area, the only kind whose
// rectangle spatially carries other entities.
func (i *Item) IsRegion() bool { return i.Kind == ItemKindProject }

// IsRoom reports whether the item is a nested sub-canvas.
func (i *Item) IsRoom() bool { return i.Kind == ItemKindRoom }

// TopLevel reports whether the item participates in canvas placement:
// active and not inside a folder.
func (i *Item) TopLevel() bool {
	return i.Status == StatusActive && i.FolderID == nil
}

// Folder groups items and other folders. Folders are positioned on the
// canvas like items and can nest through ParentID.
type Folder struct {
	ID       FolderID        `gorm:"type:uuid;primary_key" json:"id"`
	Name     string          `gorm:"not null" json:"name"`
	Position Position        `gorm:"embedded;embeddedPrefix:position_" json:"position"`
	ParentID *FolderID       `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	RoomID   *ItemID         `gorm:"type:uuid;index" json:"room_id,omitempty"`
	Status   LifecycleStatus `gorm:"not null;index" json:"status"`
	Color    string          `json:"color,omitempty"`
	Vaulted  bool            `json:"vaulted"`

	// SyncState is transient and never persisted to any backend.
	SyncState SyncState `gorm:"-" cbor:"-" json:"sync_state,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (f *Folder) BeforeCreate(tx *gorm.DB) error {
	if f.ID.IsZero() {
		f.ID = NewFolderID()
	}
	return nil
}

// TopLevel reports whether the folder participates in canvas placement:
// active and not nested inside another folder.
func (f *Folder) TopLevel() bool {
	return f.Status == StatusActive && f.ParentID == nil
}
