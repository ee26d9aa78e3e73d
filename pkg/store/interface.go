// Package store defines the persistence boundary for the canvasnote
// application: a record store keyed by typed ID, plus a push-based change
// feed for observing remote mutations.
//
// The [Store] interface follows the repository pattern. Three
// implementations cover the supported deployments:
//
//   - [github.com/canvasnote/canvasnote/pkg/store/surreal.SurrealStore]:
//     SurrealDB over WebSocket with the surrealcbor codec; the change feed
//     is backed by native Live queries.
//   - [github.com/canvasnote/canvasnote/pkg/store/postgres.PostgresStore]:
//     PostgreSQL via GORM; the change feed is backed by a change-tracking
//     table written transactionally with each mutation and polled by
//     subscribers.
//   - [github.com/canvasnote/canvasnote/pkg/store/memory.MemoryStore]:
//     in-process maps with a broadcast feed, used by tests and as a
//     zero-dependency demo backend.
//
// # Operation contract
//
// Create methods accept entities with or without generated IDs. Get methods
// return nil without error for missing records. Update methods replace the
// full record. Delete methods are idempotent. List methods return empty
// slices for no results, never nil. Each row write is independent; there
// are no transactional multi-row guarantees, and delivery of feed events is
// at least once.
//
// Writes rejected by a server-side subscription quota surface as
// [ErrQuotaExceeded] so callers can distinguish policy rejections from
// transient failures and roll back optimistic state.
package store

import (
	"context"

	"github.com/canvasnote/canvasnote/pkg/models"
)

// Scope selects which records a snapshot load returns.
//
// Active records are scoped to one room: RoomID nil means the top-level
// canvas, non-nil the given sub-canvas. Inbox and archived records are
// global, room-independent views and are always included regardless of
// RoomID.
type Scope struct {
	RoomID *models.ItemID
}

// Store is the persistence boundary used by the canvas engine.
type Store interface {
	// CreateItem persists a new item. A zero ID is assigned on the way in.
	// Returns ErrQuotaExceeded when the backend rejects the write for
	// exceeding the subscription quota.
	CreateItem(ctx context.Context, item *models.Item) error

	// GetItem retrieves an item by ID, or nil when it does not exist.
	GetItem(ctx context.Context, id models.ItemID) (*models.Item, error)

	// UpdateItem replaces an existing item. UpdatedAt is refreshed by the
	// store.
	UpdateItem(ctx context.Context, item *models.Item) error

	// DeleteItem removes an item. Deleting a missing item is not an error.
	DeleteItem(ctx context.Context, id models.ItemID) error

	// ListItems returns the snapshot for the scope: active items in the
	// scoped room plus every inbox and archived item regardless of room.
	ListItems(ctx context.Context, scope Scope) ([]*models.Item, error)

	// CreateFolder persists a new folder. A zero ID is assigned on the way
	// in. Returns ErrQuotaExceeded on quota rejection.
	CreateFolder(ctx context.Context, folder *models.Folder) error

	// GetFolder retrieves a folder by ID, or nil when it does not exist.
	GetFolder(ctx context.Context, id models.FolderID) (*models.Folder, error)

	// UpdateFolder replaces an existing folder.
	UpdateFolder(ctx context.Context, folder *models.Folder) error

	// DeleteFolder removes a folder. Deleting a missing folder is not an
	// error.
	DeleteFolder(ctx context.Context, id models.FolderID) error

	// ListFolders returns the folder snapshot for the scope, with the same
	// room and lifecycle semantics as ListItems.
	ListFolders(ctx context.Context, scope Scope) ([]*models.Folder, error)

	// Subscribe attaches to the change feed. The returned channel delivers
	// insert/update/delete events for items and folders until the context
	// is cancelled or the store is closed; the channel is closed in either
	// case. Reconnection is the transport's responsibility, not the
	// subscriber's.
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)

	// Migrate initializes or updates backend schema. Idempotent.
	Migrate(ctx context.Context) error

	// Close releases backend connections. Safe to call more than once.
	Close() error
}
