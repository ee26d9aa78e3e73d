package canvasnote

import (
	"context"
	"fmt"
	"time"

	"github.com/canvasnote/canvasnote/pkg/drag"
	"github.com/canvasnote/canvasnote/pkg/geometry"
	"github.com/canvasnote/canvasnote/pkg/history"
	"github.com/canvasnote/canvasnote/pkg/models"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// BeginDrag starts a drag session on the grabbed entity at the given zoom
// factor. The session snapshots the visible active top-level rectangles;
// subsequent state changes do not affect it. A drag already in progress is
// replaced.
func (c *Canvas) BeginDrag(grabbedID string, cfg drag.Config, zoom float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entities := make([]drag.Entity, 0, len(c.items)+len(c.folders))
	for _, it := range c.items {
		if !it.TopLevel() || !sameRoom(it.RoomID, c.room) || c.hidden(it.Vaulted, it.ID.String()) {
			continue
		}
		if it.Metadata.Locked && it.ID.String() == grabbedID {
			return fmt.Errorf("item %s is locked", grabbedID)
		}
		entities = append(entities, drag.Entity{
			ID:     it.ID.String(),
			Rect:   geometry.ItemRect(it),
			Region: it.IsRegion(),
			Room:   it.IsRoom(),
		})
	}
	for _, f := range c.folders {
		if !f.TopLevel() || !sameRoom(f.RoomID, c.room) || c.hidden(f.Vaulted, f.ID.String()) {
			continue
		}
		entities = append(entities, drag.Entity{ID: f.ID.String(), Rect: geometry.FolderRect(f)})
	}

	selection := make([]string, 0, len(c.selection))
	for id := range c.selection {
		selection = append(selection, id)
	}

	session, err := drag.NewSession(cfg, grabbedID, entities, selection, c.room != nil, zoom)
	if err != nil {
		return err
	}
	c.session = session
	return nil
}

// MoveDrag processes one pointer tick of the live drag. dx and dy are
// screen-space deltas since drag start.
func (c *Canvas) MoveDrag(dx, dy float64) (drag.MoveResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.State() != drag.Dragging {
		return drag.MoveResult{}, fmt.Errorf("no drag in progress")
	}
	return c.session.Move(dx, dy), nil
}

// EndDrag drops the session on the canvas: the constrained final positions
// are committed as one undoable move batch and one batch of backend
// writes.
func (c *Canvas) EndDrag() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, err := c.takeSessionLocked()
	if err != nil {
		return err
	}

	finals := session.Drop()
	updates := make([]PositionUpdate, 0, len(finals))
	for _, fp := range finals {
		kind, ok := c.entityKindLocked(fp.ID)
		if !ok {
			continue
		}
		updates = append(updates, PositionUpdate{
			ID:       fp.ID,
			Entity:   kind,
			Position: models.Position{X: fp.Position.X, Y: fp.Position.Y},
		})
	}
	c.applyPositionsLocked(updates, true)
	return nil
}

// EndDragToFolder drops the dragged entities into a folder: items get
// their FolderID set, folders are nested under it. Project regions and
// rooms cannot be foldered and keep their canvas position.
func (c *Canvas) EndDragToFolder(folderID models.FolderID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	target, ok := c.folders[folderID]
	if !ok {
		return fmt.Errorf("folder %s not found", folderID)
	}
	session, err := c.takeSessionLocked()
	if err != nil {
		return err
	}
	session.Drop()

	for _, id := range session.MovedIDs() {
		if itemID, err := models.ParseItemID(id); err == nil {
			if it, ok := c.items[itemID]; ok {
				if it.IsRegion() || it.IsRoom() {
					continue
				}
				fid := folderID
				it.FolderID = &fid
				it.RoomID = target.RoomID
				c.persistItemLocked(it)
				continue
			}
		}
		if fid, err := models.ParseFolderID(id); err == nil {
			if f, ok := c.folders[fid]; ok && fid != folderID {
				// Nesting a folder into its own descendant would cycle the
				// parent chain; the folder keeps its canvas position instead.
				if c.isAncestorLocked(fid, target) {
					continue
				}
				parent := folderID
				f.ParentID = &parent
				f.RoomID = target.RoomID
				c.persistFolderLocked(f)
			}
		}
	}
	return nil
}

// isAncestorLocked reports whether id appears on the parent chain of f.
// Caller holds the mutex.
func (c *Canvas) isAncestorLocked(id models.FolderID, f *models.Folder) bool {
	seen := make(map[models.FolderID]bool)
	for f.ParentID != nil && !seen[f.ID] {
		seen[f.ID] = true
		if *f.ParentID == id {
			return true
		}
		next, ok := c.folders[*f.ParentID]
		if !ok {
			return false
		}
		f = next
	}
	return false
}

// EndDragToInbox drops the dragged entities into the inbox view. Project
// regions and rooms are exempt and stay where they were grabbed.
func (c *Canvas) EndDragToInbox() error {
	return c.endDragToStatus(models.StatusInbox)
}

// EndDragToArchive drops the dragged entities into the archive view.
func (c *Canvas) EndDragToArchive() error {
	return c.endDragToStatus(models.StatusArchived)
}

func (c *Canvas) endDragToStatus(status models.LifecycleStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, err := c.takeSessionLocked()
	if err != nil {
		return err
	}
	session.Drop()

	for _, id := range session.MovedIDs() {
		if itemID, err := models.ParseItemID(id); err == nil {
			if it, ok := c.items[itemID]; ok {
				if status == models.StatusInbox && (it.IsRegion() || it.IsRoom()) {
					continue
				}
				it.Status = status
				it.FolderID = nil
				delete(c.selection, id)
				c.persistItemLocked(it)
				continue
			}
		}
		if fid, err := models.ParseFolderID(id); err == nil {
			if f, ok := c.folders[fid]; ok {
				f.Status = status
				f.ParentID = nil
				delete(c.selection, id)
				c.persistFolderLocked(f)
			}
		}
	}
	return nil
}

// takeSessionLocked consumes the live session. Caller holds the mutex.
func (c *Canvas) takeSessionLocked() (*drag.Session, error) {
	if c.session == nil || c.session.State() != drag.Dragging {
		return nil, fmt.Errorf("no drag in progress")
	}
	session := c.session
	c.session = nil
	return session, nil
}

func (c *Canvas) entityKindLocked(id string) (history.EntityKind, bool) {
	if itemID, err := models.ParseItemID(id); err == nil {
		if _, ok := c.items[itemID]; ok {
			return history.EntityItem, true
		}
	}
	if folderID, err := models.ParseFolderID(id); err == nil {
		if _, ok := c.folders[folderID]; ok {
			return history.EntityFolder, true
		}
	}
	return "", false
}

func (c *Canvas) persistItemLocked(it *models.Item) {
	it.UpdatedAt = time.Now()
	it.SyncState = models.SyncStateSyncing
	persist := *it
	c.write(store.TableItems, it.ID.String(), func(ctx context.Context) error {
		return c.store.UpdateItem(ctx, &persist)
	}, nil)
}

func (c *Canvas) persistFolderLocked(f *models.Folder) {
	f.UpdatedAt = time.Now()
	f.SyncState = models.SyncStateSyncing
	persist := *f
	c.write(store.TableFolders, f.ID.String(), func(ctx context.Context) error {
		return c.store.UpdateFolder(ctx, &persist)
	}, nil)
}
