package canvasnote

import (
	"context"
	"fmt"
	"time"

	"github.com/canvasnote/canvasnote/pkg/history"
	"github.com/canvasnote/canvasnote/pkg/models"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// ItemPatch is a partial item update. Nil fields are left unchanged.
// Position changes go through UpdatePositions or the drag session so they
// are recorded in history; patches cover field-only edits.
type ItemPatch struct {
	Title        *string  `json:"title,omitempty"`
	Description  *string  `json:"description,omitempty"`
	PreviewImage *string  `json:"preview_image,omitempty"`
	Color        *string  `json:"color,omitempty"`
	Locked       *bool    `json:"locked,omitempty"`
	Width        *float64 `json:"width,omitempty"`
	Height       *float64 `json:"height,omitempty"`
	Vaulted      *bool    `json:"vaulted,omitempty"`
}

// FolderPatch is a partial folder update. Nil fields are left unchanged.
type FolderPatch struct {
	Name    *string `json:"name,omitempty"`
	Color   *string `json:"color,omitempty"`
	Vaulted *bool   `json:"vaulted,omitempty"`
}

// AddItem inserts a new item optimistically and persists it in the
// background. A zero ID is assigned. An active top-level item is placed
// through the resolver so it never knowingly overlaps an existing
// top-level entity. The insertion is recorded in history.
func (c *Canvas) AddItem(item models.Item) (*models.Item, error) {
	if !item.Kind.Valid() {
		return nil, fmt.Errorf("invalid item kind %q", item.Kind)
	}
	if item.Status == "" {
		item.Status = models.StatusActive
	}
	if item.Status == models.StatusInbox || item.Kind == models.ItemKindProject {
		item.FolderID = nil
	}
	if item.ID.IsZero() {
		item.ID = models.NewItemID()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[item.ID]; exists {
		return nil, fmt.Errorf("item %s already exists", item.ID)
	}

	if item.RoomID == nil {
		item.RoomID = c.room
	}
	if item.FolderID != nil {
		parent, ok := c.folders[*item.FolderID]
		if !ok {
			return nil, fmt.Errorf("folder %s not found", item.FolderID)
		}
		if !sameRoom(parent.RoomID, item.RoomID) {
			return nil, fmt.Errorf("folder %s belongs to a different room", item.FolderID)
		}
	}
	if item.TopLevel() && sameRoom(item.RoomID, c.room) {
		resolved := c.resolver.FindSafePosition(item.ID.String(), position(item.Position), itemSizeOf(&item), c.obstaclesLocked(item.ID.String()))
		item.Position = models.Position{X: resolved.X, Y: resolved.Y}
	}

	item.SyncState = models.SyncStateSyncing
	stored := item
	c.items[stored.ID] = &stored
	c.hist.Record(history.AddItem{Item: stored})

	id := stored.ID
	persist := stored
	c.write(store.TableItems, id.String(), func(ctx context.Context) error {
		return c.store.CreateItem(ctx, &persist)
	}, func() {
		delete(c.items, id)
		c.hist.Discard(func(a history.Action) bool {
			add, ok := a.(history.AddItem)
			return ok && add.Item.ID == id
		})
	})

	clone := stored
	return &clone, nil
}

// UpdateItem applies a field-only patch. Updating a missing item is a
// silent no-op.
func (c *Canvas) UpdateItem(id models.ItemID, patch ItemPatch) *models.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok {
		return nil
	}

	if patch.Title != nil {
		it.Metadata.Title = *patch.Title
	}
	if patch.Description != nil {
		it.Metadata.Description = *patch.Description
	}
	if patch.PreviewImage != nil {
		it.Metadata.PreviewImage = *patch.PreviewImage
	}
	if patch.Color != nil {
		it.Metadata.Color = *patch.Color
	}
	if patch.Locked != nil {
		it.Metadata.Locked = *patch.Locked
	}
	if patch.Width != nil {
		it.Metadata.Width = patch.Width
	}
	if patch.Height != nil {
		it.Metadata.Height = patch.Height
	}
	if patch.Vaulted != nil {
		it.Vaulted = *patch.Vaulted
	}
	it.UpdatedAt = time.Now()
	it.SyncState = models.SyncStateSyncing

	persist := *it
	c.write(store.TableItems, id.String(), func(ctx context.Context) error {
		return c.store.UpdateItem(ctx, &persist)
	}, nil)

	clone := *it
	return &clone
}

// RemoveItem deletes an item, records the deletion for undo and persists
// it in the background. Removing a missing item is a silent no-op.
func (c *Canvas) RemoveItem(id models.ItemID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok {
		return
	}
	c.hist.Record(history.DeleteItem{Item: *it})
	delete(c.items, id)
	delete(c.selection, id.String())

	c.write(store.TableItems, id.String(), func(ctx context.Context) error {
		return c.store.DeleteItem(ctx, id)
	}, nil)
}

// AddFolder inserts a new folder optimistically, placed through the
// resolver when active and top-level. The insertion is recorded in
// history.
func (c *Canvas) AddFolder(folder models.Folder) (*models.Folder, error) {
	if folder.Name == "" {
		return nil, fmt.Errorf("folder name is required")
	}
	if folder.Status == "" {
		folder.Status = models.StatusActive
	}
	if folder.ID.IsZero() {
		folder.ID = models.NewFolderID()
	}
	now := time.Now()
	folder.CreatedAt = now
	folder.UpdatedAt = now

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.folders[folder.ID]; exists {
		return nil, fmt.Errorf("folder %s already exists", folder.ID)
	}

	if folder.RoomID == nil {
		folder.RoomID = c.room
	}
	if folder.TopLevel() && sameRoom(folder.RoomID, c.room) {
		resolved := c.resolver.FindSafePosition(folder.ID.String(), position(folder.Position), folderSizeOf(), c.obstaclesLocked(folder.ID.String()))
		folder.Position = models.Position{X: resolved.X, Y: resolved.Y}
	}

	folder.SyncState = models.SyncStateSyncing
	stored := folder
	c.folders[stored.ID] = &stored
	c.hist.Record(history.AddFolder{Folder: stored})

	id := stored.ID
	persist := stored
	c.write(store.TableFolders, id.String(), func(ctx context.Context) error {
		return c.store.CreateFolder(ctx, &persist)
	}, func() {
		delete(c.folders, id)
		c.hist.Discard(func(a history.Action) bool {
			add, ok := a.(history.AddFolder)
			return ok && add.Folder.ID == id
		})
	})

	clone := stored
	return &clone, nil
}

// UpdateFolder applies a field-only patch. Updating a missing folder is a
// silent no-op.
func (c *Canvas) UpdateFolder(id models.FolderID, patch FolderPatch) *models.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.folders[id]
	if !ok {
		return nil
	}

	if patch.Name != nil {
		f.Name = *patch.Name
	}
	if patch.Color != nil {
		f.Color = *patch.Color
	}
	if patch.Vaulted != nil {
		f.Vaulted = *patch.Vaulted
	}
	f.UpdatedAt = time.Now()
	f.SyncState = models.SyncStateSyncing

	persist := *f
	c.write(store.TableFolders, id.String(), func(ctx context.Context) error {
		return c.store.UpdateFolder(ctx, &persist)
	}, nil)

	clone := *f
	return &clone
}

// RemoveFolder deletes a folder, releasing its items to the top level, and
// records the deletion for undo. Removing a missing folder is a silent
// no-op.
func (c *Canvas) RemoveFolder(id models.FolderID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.folders[id]
	if !ok {
		return
	}
	c.hist.Record(history.DeleteFolder{Folder: *f})
	delete(c.folders, id)
	delete(c.selection, id.String())

	// Items in the removed folder return to the canvas at the folder's
	// position, resolved against current obstacles.
	for _, it := range c.items {
		if it.FolderID == nil || *it.FolderID != id {
			continue
		}
		it.FolderID = nil
		resolved := c.resolver.FindSafePosition(it.ID.String(), position(f.Position), itemSizeOf(it), c.obstaclesLocked(it.ID.String()))
		it.Position = models.Position{X: resolved.X, Y: resolved.Y}
		it.SyncState = models.SyncStateSyncing
		persist := *it
		c.write(store.TableItems, it.ID.String(), func(ctx context.Context) error {
			return c.store.UpdateItem(ctx, &persist)
		}, nil)
	}

	c.write(store.TableFolders, id.String(), func(ctx context.Context) error {
		return c.store.DeleteFolder(ctx, id)
	}, nil)
}

// DuplicateItem clones an item under a new identity with an amended
// title. The copy starts at the original's position and lands wherever the
// resolver finds room, typically one slide step to the right.
func (c *Canvas) DuplicateItem(id models.ItemID) (*models.Item, error) {
	c.mu.Lock()
	src, ok := c.items[id]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("item %s not found", id)
	}
	dup := *src
	c.mu.Unlock()

	dup.ID = models.ItemID{}
	if dup.Metadata.Title != "" {
		dup.Metadata.Title += " (copy)"
	}
	return c.AddItem(dup)
}

// DuplicateFolder clones a folder under a new identity with an amended
// name, without its contents.
func (c *Canvas) DuplicateFolder(id models.FolderID) (*models.Folder, error) {
	c.mu.Lock()
	src, ok := c.folders[id]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("folder %s not found", id)
	}
	dup := *src
	c.mu.Unlock()

	dup.ID = models.FolderID{}
	dup.Name += " (copy)"
	return c.AddFolder(dup)
}

// ArchiveItem moves an item to the archived view. Archiving a missing item
// is a silent no-op.
func (c *Canvas) ArchiveItem(id models.ItemID) {
	c.setItemStatus(id, models.StatusArchived)
}

// UnarchiveItem returns an archived item to the active canvas, re-placed
// through the resolver.
func (c *Canvas) UnarchiveItem(id models.ItemID) {
	c.setItemStatus(id, models.StatusActive)
}

func (c *Canvas) setItemStatus(id models.ItemID, status models.LifecycleStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok || it.Status == status {
		return
	}
	it.Status = status
	if status != models.StatusActive {
		delete(c.selection, id.String())
	}
	if status == models.StatusActive && it.FolderID == nil {
		resolved := c.resolver.FindSafePosition(id.String(), position(it.Position), itemSizeOf(it), c.obstaclesLocked(id.String()))
		it.Position = models.Position{X: resolved.X, Y: resolved.Y}
	}
	it.UpdatedAt = time.Now()
	it.SyncState = models.SyncStateSyncing

	persist := *it
	c.write(store.TableItems, id.String(), func(ctx context.Context) error {
		return c.store.UpdateItem(ctx, &persist)
	}, nil)
}

// ArchiveFolder moves a folder to the archived view.
func (c *Canvas) ArchiveFolder(id models.FolderID) {
	c.setFolderStatus(id, models.StatusArchived)
}

// UnarchiveFolder returns an archived folder to the active canvas,
// re-placed through the resolver.
func (c *Canvas) UnarchiveFolder(id models.FolderID) {
	c.setFolderStatus(id, models.StatusActive)
}

func (c *Canvas) setFolderStatus(id models.FolderID, status models.LifecycleStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.folders[id]
	if !ok || f.Status == status {
		return
	}
	f.Status = status
	if status != models.StatusActive {
		delete(c.selection, id.String())
	}
	if status == models.StatusActive && f.ParentID == nil {
		resolved := c.resolver.FindSafePosition(id.String(), position(f.Position), folderSizeOf(), c.obstaclesLocked(id.String()))
		f.Position = models.Position{X: resolved.X, Y: resolved.Y}
	}
	f.UpdatedAt = time.Now()
	f.SyncState = models.SyncStateSyncing

	persist := *f
	c.write(store.TableFolders, id.String(), func(ctx context.Context) error {
		return c.store.UpdateFolder(ctx, &persist)
	}, nil)
}
