package canvasnote

import (
	"context"
	"time"

	"github.com/canvasnote/canvasnote/pkg/geometry"
	"github.com/canvasnote/canvasnote/pkg/history"
	"github.com/canvasnote/canvasnote/pkg/layout"
	"github.com/canvasnote/canvasnote/pkg/models"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// PositionUpdate moves one entity to an absolute canvas position.
type PositionUpdate struct {
	ID       string             `json:"id"`
	Entity   history.EntityKind `json:"entity"`
	Position models.Position    `json:"position"`
}

// UpdatePositions applies a batch of position changes as one atomic
// history entry and persists each touched record in the background.
// Updates naming missing records are skipped.
func (c *Canvas) UpdatePositions(updates []PositionUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyPositionsLocked(updates, true)
}

// applyPositionsLocked moves the named records and schedules their writes.
// record controls whether the batch lands in the history log; undo and
// redo replay moves without re-recording them. Caller holds the mutex.
func (c *Canvas) applyPositionsLocked(updates []PositionUpdate, record bool) {
	applied := make([]history.MoveUpdate, 0, len(updates))

	for _, u := range updates {
		switch u.Entity {
		case history.EntityItem:
			id, err := models.ParseItemID(u.ID)
			if err != nil {
				continue
			}
			it, ok := c.items[id]
			if !ok || it.Position == u.Position {
				continue
			}
			applied = append(applied, history.MoveUpdate{ID: u.ID, Entity: u.Entity, From: it.Position, To: u.Position})
			it.Position = u.Position
			it.UpdatedAt = time.Now()
			it.SyncState = models.SyncStateSyncing
			persist := *it
			c.write(store.TableItems, u.ID, func(ctx context.Context) error {
				return c.store.UpdateItem(ctx, &persist)
			}, nil)

		case history.EntityFolder:
			id, err := models.ParseFolderID(u.ID)
			if err != nil {
				continue
			}
			f, ok := c.folders[id]
			if !ok || f.Position == u.Position {
				continue
			}
			applied = append(applied, history.MoveUpdate{ID: u.ID, Entity: u.Entity, From: f.Position, To: u.Position})
			f.Position = u.Position
			f.UpdatedAt = time.Now()
			f.SyncState = models.SyncStateSyncing
			persist := *f
			c.write(store.TableFolders, u.ID, func(ctx context.Context) error {
				return c.store.UpdateFolder(ctx, &persist)
			}, nil)
		}
	}

	if record && len(applied) > 0 {
		c.hist.Record(history.Move{Updates: applied})
	}
}

// LayoutAll re-flows every active top-level entity of the current scope
// into the masonry arrangement, committed as one undoable move batch.
func (c *Canvas) LayoutAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layoutLocked(nil)
}

// LayoutSelected re-flows only the selected entities. With an empty
// selection this is a no-op.
func (c *Canvas) LayoutSelected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.selection) == 0 {
		return
	}
	c.layoutLocked(c.selection)
}

// layoutLocked runs the masonry pass over the eligible entities. only,
// when non-nil, restricts the pass to those ids. Caller holds the mutex.
func (c *Canvas) layoutLocked(only map[string]bool) {
	boxes := make([]layout.Box, 0, len(c.items)+len(c.folders))
	kinds := make(map[string]history.EntityKind)

	for _, it := range c.items {
		if !it.TopLevel() || !sameRoom(it.RoomID, c.room) {
			continue
		}
		id := it.ID.String()
		if only != nil && !only[id] {
			continue
		}
		boxes = append(boxes, layout.Box{ID: id, Rect: geometry.ItemRect(it)})
		kinds[id] = history.EntityItem
	}
	for _, f := range c.folders {
		if !f.TopLevel() || !sameRoom(f.RoomID, c.room) {
			continue
		}
		id := f.ID.String()
		if only != nil && !only[id] {
			continue
		}
		boxes = append(boxes, layout.Box{ID: id, Rect: geometry.FolderRect(f)})
		kinds[id] = history.EntityFolder
	}
	if len(boxes) == 0 {
		return
	}

	updates := make([]PositionUpdate, 0, len(boxes))
	for _, p := range layout.Masonry(boxes) {
		updates = append(updates, PositionUpdate{
			ID:       p.ID,
			Entity:   kinds[p.ID],
			Position: models.Position{X: p.Position.X, Y: p.Position.Y},
		})
	}
	c.applyPositionsLocked(updates, true)
}

// Undo reverses the most recent recorded action. Returns false when the
// undo stack is empty.
func (c *Canvas) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.hist.Undo()
	if !ok {
		return false
	}
	c.applyActionLocked(a, false)
	return true
}

// Redo re-applies the most recently undone action. Returns false when the
// redo stack is empty.
func (c *Canvas) Redo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.hist.Redo()
	if !ok {
		return false
	}
	c.applyActionLocked(a, true)
	return true
}

// applyActionLocked replays a history action either forward (redo) or
// inverted (undo). Replays never record new history. Caller holds the
// mutex.
func (c *Canvas) applyActionLocked(a history.Action, forward bool) {
	switch act := a.(type) {
	case history.Move:
		updates := make([]PositionUpdate, 0, len(act.Updates))
		for _, u := range act.Updates {
			pos := u.To
			if !forward {
				pos = u.From
			}
			updates = append(updates, PositionUpdate{ID: u.ID, Entity: u.Entity, Position: pos})
		}
		c.applyPositionsLocked(updates, false)

	case history.AddItem:
		if forward {
			c.reinsertItemLocked(act.Item)
		} else {
			c.dropItemLocked(act.Item.ID)
		}
	case history.DeleteItem:
		if forward {
			c.dropItemLocked(act.Item.ID)
		} else {
			c.reinsertItemLocked(act.Item)
		}

	case history.AddFolder:
		if forward {
			c.reinsertFolderLocked(act.Folder)
		} else {
			c.dropFolderLocked(act.Folder.ID)
		}
	case history.DeleteFolder:
		if forward {
			c.dropFolderLocked(act.Folder.ID)
		} else {
			c.reinsertFolderLocked(act.Folder)
		}
	}
}

func (c *Canvas) reinsertItemLocked(item models.Item) {
	item.SyncState = models.SyncStateSyncing
	stored := item
	c.items[stored.ID] = &stored
	persist := stored
	c.write(store.TableItems, stored.ID.String(), func(ctx context.Context) error {
		return c.store.CreateItem(ctx, &persist)
	}, nil)
}

func (c *Canvas) dropItemLocked(id models.ItemID) {
	if _, ok := c.items[id]; !ok {
		return
	}
	delete(c.items, id)
	delete(c.selection, id.String())
	c.write(store.TableItems, id.String(), func(ctx context.Context) error {
		return c.store.DeleteItem(ctx, id)
	}, nil)
}

func (c *Canvas) reinsertFolderLocked(folder models.Folder) {
	folder.SyncState = models.SyncStateSyncing
	stored := folder
	c.folders[stored.ID] = &stored
	persist := stored
	c.write(store.TableFolders, stored.ID.String(), func(ctx context.Context) error {
		return c.store.CreateFolder(ctx, &persist)
	}, nil)
}

func (c *Canvas) dropFolderLocked(id models.FolderID) {
	if _, ok := c.folders[id]; !ok {
		return
	}
	delete(c.folders, id)
	delete(c.selection, id.String())
	c.write(store.TableFolders, id.String(), func(ctx context.Context) error {
		return c.store.DeleteFolder(ctx, id)
	}, nil)
}
