// Package canvasnote implements the canvas application: the optimistic
// sync engine over a [store.Store], the real-time change-feed merge loop,
// and the HTTP surface exposing the canvas operations.
//
// The engine applies every local mutation to in-memory state first, marks
// the touched record as syncing, and persists it with an asynchronous
// backend write. The backend remains the system of record: remote changes
// arrive over the store's change feed and are merged by [Canvas.StartSync],
// with in-flight local writes winning over their own echoes.
package canvasnote

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/canvasnote/canvasnote/pkg/drag"
	"github.com/canvasnote/canvasnote/pkg/geometry"
	"github.com/canvasnote/canvasnote/pkg/history"
	"github.com/canvasnote/canvasnote/pkg/models"
	"github.com/canvasnote/canvasnote/pkg/placement"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// Canvas is the in-memory authority for one canvas session. All exported
// methods are safe for concurrent use; internally the engine serializes
// state access with one mutex, mirroring the single event loop the
// interaction model assumes.
type Canvas struct {
	mu     sync.Mutex
	store  store.Store
	logger zerolog.Logger

	items   map[models.ItemID]*models.Item
	folders map[models.FolderID]*models.Folder

	room      *models.ItemID
	selection map[string]bool
	hist      *history.Log
	resolver  placement.Resolver
	session   *drag.Session

	// inflight counts pending local writes per record id. While a record
	// has in-flight writes its feed echoes are dropped; once the counter
	// drains, remote updates win (last write wins).
	inflight map[string]int

	vaultLocked bool
	unlocked    map[string]bool

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCanvas creates an engine over the given store. The engine does not
// load any state; call [Canvas.FetchSnapshot] before serving.
func NewCanvas(st store.Store, logger zerolog.Logger) *Canvas {
	ctx, cancel := context.WithCancel(context.Background())
	return &Canvas{
		store:     st,
		logger:    logger.With().Str("component", "canvas").Logger(),
		items:     make(map[models.ItemID]*models.Item),
		folders:   make(map[models.FolderID]*models.Folder),
		selection: make(map[string]bool),
		hist:      history.NewLog(history.DefaultLimit),
		inflight:  make(map[string]int),
		unlocked:  make(map[string]bool),
		events:    make(chan Event, 64),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Events returns the engine's notification channel: sync completions, sync
// errors, quota rejections and applied remote changes. The channel is
// never closed; events are dropped when the consumer falls behind.
func (c *Canvas) Events() <-chan Event { return c.events }

// Close stops the merge loop, waits for pending backend writes and closes
// the store.
func (c *Canvas) Close() error {
	c.cancel()
	c.wg.Wait()
	return c.store.Close()
}

// Room returns the current room scope, nil for the top-level canvas.
func (c *Canvas) Room() *models.ItemID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// FetchSnapshot replaces the in-memory state with the store's records for
// the current room scope. Active records outside the scope are dropped;
// inbox and archived records are global and always loaded.
func (c *Canvas) FetchSnapshot(ctx context.Context) error {
	c.mu.Lock()
	scope := store.Scope{RoomID: c.room}
	c.mu.Unlock()

	items, err := c.store.ListItems(ctx, scope)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	folders, err := c.store.ListFolders(ctx, scope)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[models.ItemID]*models.Item, len(items))
	for _, it := range items {
		it.SyncState = models.SyncStateSynced
		c.items[it.ID] = it
	}
	c.folders = make(map[models.FolderID]*models.Folder, len(folders))
	for _, f := range folders {
		f.SyncState = models.SyncStateSynced
		c.folders[f.ID] = f
	}
	return nil
}

// EnterRoom switches the engine's scope to the given room, or back to the
// top-level canvas when id is nil, and reloads the snapshot. The selection
// and any live drag session are discarded.
func (c *Canvas) EnterRoom(ctx context.Context, id *models.ItemID) error {
	c.mu.Lock()
	if id != nil {
		it, ok := c.items[*id]
		if ok && !it.IsRoom() {
			c.mu.Unlock()
			return fmt.Errorf("item %s is not a room", id)
		}
	}
	c.room = id
	c.selection = make(map[string]bool)
	c.session = nil
	c.mu.Unlock()

	return c.FetchSnapshot(ctx)
}

// Snapshot is the engine state handed to callers: independent copies, sorted
// for stable output.
type Snapshot struct {
	Room    *models.ItemID   `json:"room,omitempty"`
	Items   []*models.Item   `json:"items"`
	Folders []*models.Folder `json:"folders"`
}

// Snapshot returns a copy of the current visible state. When the vault is
// locked, vaulted records that have not been individually unlocked are
// omitted.
func (c *Canvas) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Room:    c.room,
		Items:   make([]*models.Item, 0, len(c.items)),
		Folders: make([]*models.Folder, 0, len(c.folders)),
	}
	for _, it := range c.items {
		if c.hidden(it.Vaulted, it.ID.String()) {
			continue
		}
		clone := *it
		snap.Items = append(snap.Items, &clone)
	}
	for _, f := range c.folders {
		if c.hidden(f.Vaulted, f.ID.String()) {
			continue
		}
		clone := *f
		snap.Folders = append(snap.Folders, &clone)
	}
	sort.Slice(snap.Items, func(i, j int) bool { return snap.Items[i].ID.String() < snap.Items[j].ID.String() })
	sort.Slice(snap.Folders, func(i, j int) bool { return snap.Folders[i].ID.String() < snap.Folders[j].ID.String() })
	return snap
}

func (c *Canvas) hidden(vaulted bool, id string) bool {
	return c.vaultLocked && vaulted && !c.unlocked[id]
}

// Item returns a copy of the item, or nil when absent or vault-hidden.
func (c *Canvas) Item(id models.ItemID) *models.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok || c.hidden(it.Vaulted, it.ID.String()) {
		return nil
	}
	clone := *it
	return &clone
}

// Folder returns a copy of the folder, or nil when absent or vault-hidden.
func (c *Canvas) Folder(id models.FolderID) *models.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.folders[id]
	if !ok || c.hidden(f.Vaulted, f.ID.String()) {
		return nil
	}
	clone := *f
	return &clone
}

// SetVaultLocked locks or unlocks the vault globally. Locking clears the
// per-record unlock set.
func (c *Canvas) SetVaultLocked(locked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vaultLocked = locked
	if locked {
		c.unlocked = make(map[string]bool)
	}
}

// UnlockVaulted reveals one vaulted record while the vault stays locked.
func (c *Canvas) UnlockVaulted(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unlocked[id] = true
}

// Select replaces the selection with the given ids.
func (c *Canvas) Select(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = make(map[string]bool, len(ids))
	for _, id := range ids {
		c.selection[id] = true
	}
}

// ToggleSelection adds or removes one id from the selection.
func (c *Canvas) ToggleSelection(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selection[id] {
		delete(c.selection, id)
	} else {
		c.selection[id] = true
	}
}

// ClearSelection empties the selection.
func (c *Canvas) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = make(map[string]bool)
}

// Selection returns the selected ids in stable order.
func (c *Canvas) Selection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.selection))
	for id := range c.selection {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// obstaclesLocked builds the resolver obstacle set from the active
// top-level entities of the current scope. Caller holds the mutex.
func (c *Canvas) obstaclesLocked(exclude string) []placement.Obstacle {
	obs := make([]placement.Obstacle, 0, len(c.items)+len(c.folders))
	for _, it := range c.items {
		if !it.TopLevel() || !sameRoom(it.RoomID, c.room) || it.ID.String() == exclude {
			continue
		}
		obs = append(obs, placement.Obstacle{ID: it.ID.String(), Rect: geometry.ItemRect(it)})
	}
	for _, f := range c.folders {
		if !f.TopLevel() || !sameRoom(f.RoomID, c.room) || f.ID.String() == exclude {
			continue
		}
		obs = append(obs, placement.Obstacle{ID: f.ID.String(), Rect: geometry.FolderRect(f)})
	}
	return obs
}

func sameRoom(a, b *models.ItemID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func position(p models.Position) geometry.Point { return geometry.Point{X: p.X, Y: p.Y} }

func itemSizeOf(it *models.Item) geometry.Size { return geometry.ItemSize(it.Kind, it.Metadata) }

func folderSizeOf() geometry.Size { return geometry.FolderSize() }
