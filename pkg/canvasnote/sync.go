package canvasnote

import (
	"context"
	"errors"
	"fmt"

	"github.com/canvasnote/canvasnote/pkg/models"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// write runs one backend mutation asynchronously. The record keeps
// SyncState syncing while the write is pending; completion flips it to
// synced or error and emits the matching event. rollback, when non-nil,
// undoes the optimistic apply on a quota rejection; without one the record
// settles to the error state like any other failed write.
//
// Caller holds the mutex.
func (c *Canvas) write(table, id string, fn func(context.Context) error, rollback func()) {
	c.inflight[id]++
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := fn(c.ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.inflight[id]--
		if c.inflight[id] <= 0 {
			delete(c.inflight, id)
		}

		switch {
		case err == nil:
			c.setSyncStateLocked(id, models.SyncStateSynced)
			c.emit(Event{Type: EventSynced, Table: table, ID: id})
		case errors.Is(err, store.ErrQuotaExceeded):
			if rollback != nil {
				rollback()
			} else {
				c.setSyncStateLocked(id, models.SyncStateError)
			}
			c.logger.Warn().Str("table", table).Str("id", id).Msg("write rejected by quota")
			c.emit(Event{Type: EventQuotaExceeded, Table: table, ID: id, Err: err})
		default:
			c.setSyncStateLocked(id, models.SyncStateError)
			c.logger.Error().Err(err).Str("table", table).Str("id", id).Msg("backend write failed")
			c.emit(Event{Type: EventSyncError, Table: table, ID: id, Err: err})
		}
	}()
}

// setSyncStateLocked updates the transient sync marker on whichever record
// still holds the id. Caller holds the mutex.
func (c *Canvas) setSyncStateLocked(id string, st models.SyncState) {
	for _, it := range c.items {
		if it.ID.String() == id {
			it.SyncState = st
			return
		}
	}
	for _, f := range c.folders {
		if f.ID.String() == id {
			f.SyncState = st
			return
		}
	}
}

// StartSync subscribes to the store's change feed and launches the merge
// loop. Call once, after the initial FetchSnapshot. The subscription is
// bound to the engine's own lifetime, not a request context: Close cancels
// it and waits for the merge loop to drain.
func (c *Canvas) StartSync() error {
	feed, err := c.store.Subscribe(c.ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to change feed: %w", err)
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for ev := range feed {
			c.merge(ev)
		}
		c.logger.Debug().Msg("change feed closed")
	}()
	return nil
}

// merge applies one remote change-feed event to local state.
//
// Records with in-flight local writes are skipped entirely: until the
// local round trip completes, local state wins over any echo or concurrent
// remote write. Once the counter drains, remote updates apply verbatim
// (last write wins). Deletes always apply. An arriving active top-level
// record additionally re-runs the placement resolver against current
// obstacles, and a corrected position is written back so replicas converge.
func (c *Canvas) merge(ev store.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight[ev.ID] > 0 && ev.Type != store.EventDelete {
		return
	}

	switch ev.Table {
	case store.TableItems:
		c.mergeItem(ev)
	case store.TableFolders:
		c.mergeFolder(ev)
	default:
		return
	}
	c.emit(Event{Type: EventRemoteApplied, Table: ev.Table, ID: ev.ID})
}

func (c *Canvas) mergeItem(ev store.ChangeEvent) {
	if ev.Type == store.EventDelete {
		id, err := models.ParseItemID(ev.ID)
		if err != nil {
			return
		}
		delete(c.items, id)
		delete(c.selection, ev.ID)
		return
	}
	if ev.Item == nil {
		return
	}

	it := *ev.Item
	it.SyncState = models.SyncStateSynced

	if it.TopLevel() && sameRoom(it.RoomID, c.room) {
		desired := position(it.Position)
		resolved := c.resolver.FindSafePosition(it.ID.String(), desired, itemSizeOf(&it), c.obstaclesLocked(it.ID.String()))
		if resolved != desired {
			it.Position = models.Position{X: resolved.X, Y: resolved.Y}
			clone := it
			c.items[it.ID] = &clone
			c.write(store.TableItems, it.ID.String(), func(ctx context.Context) error {
				return c.store.UpdateItem(ctx, &clone)
			}, nil)
			return
		}
	}
	c.items[it.ID] = &it
}

func (c *Canvas) mergeFolder(ev store.ChangeEvent) {
	if ev.Type == store.EventDelete {
		id, err := models.ParseFolderID(ev.ID)
		if err != nil {
			return
		}
		delete(c.folders, id)
		delete(c.selection, ev.ID)
		return
	}
	if ev.Folder == nil {
		return
	}

	f := *ev.Folder
	f.SyncState = models.SyncStateSynced

	if f.TopLevel() && sameRoom(f.RoomID, c.room) {
		desired := position(f.Position)
		resolved := c.resolver.FindSafePosition(f.ID.String(), desired, folderSizeOf(), c.obstaclesLocked(f.ID.String()))
		if resolved != desired {
			f.Position = models.Position{X: resolved.X, Y: resolved.Y}
			clone := f
			c.folders[f.ID] = &clone
			c.write(store.TableFolders, f.ID.String(), func(ctx context.Context) error {
				return c.store.UpdateFolder(ctx, &clone)
			}, nil)
			return
		}
	}
	c.folders[f.ID] = &f
}
