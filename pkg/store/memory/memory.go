// Package memory provides an in-process implementation of the
// [github.com/canvasnote/canvasnote/pkg/store.Store] interface.
//
// It backs the engine tests, where it doubles as both the record store and
// the change feed, and serves as a zero-dependency demo backend. A
// configurable record quota simulates the server-side subscription limit so
// the quota rollback path can be exercised without a real backend.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/canvasnote/canvasnote/pkg/models"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// MemoryStore implements store.Store with maps guarded by a mutex.
type MemoryStore struct {
	mu      sync.Mutex
	items   map[models.ItemID]*models.Item
	folders map[models.FolderID]*models.Folder
	subs    []chan store.ChangeEvent
	closed  bool

	// Quota caps the total number of stored records; zero means unlimited.
	quota int
	// Silent suppresses feed events for mutations made through this store,
	// letting tests emit hand-crafted remote events instead.
	silent bool
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithQuota caps the total record count, making further Creates fail with
// store.ErrQuotaExceeded.
func WithQuota(n int) Option {
	return func(s *MemoryStore) { s.quota = n }
}

// WithoutEcho suppresses the feed events normally emitted for local
// mutations. Tests use this to play the remote side of the feed manually.
func WithoutEcho() Option {
	return func(s *MemoryStore) { s.silent = true }
}

// New returns an empty MemoryStore.
func New(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		items:   make(map[models.ItemID]*models.Item),
		folders: make(map[models.FolderID]*models.Folder),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) CreateItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quota > 0 && len(s.items)+len(s.folders) >= s.quota {
		return store.ErrQuotaExceeded
	}
	if item.ID.IsZero() {
		item.ID = models.NewItemID()
	}
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	clone := cloneItem(item)
	s.items[item.ID] = clone
	s.broadcast(store.ChangeEvent{Table: store.TableItems, Type: store.EventInsert, ID: item.ID.String(), Item: cloneItem(clone)})
	return nil
}

func (s *MemoryStore) GetItem(ctx context.Context, id models.ItemID) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return cloneItem(it), nil
}

func (s *MemoryStore) UpdateItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return nil
	}
	item.UpdatedAt = time.Now()
	clone := cloneItem(item)
	s.items[item.ID] = clone
	s.broadcast(store.ChangeEvent{Table: store.TableItems, Type: store.EventUpdate, ID: item.ID.String(), Item: cloneItem(clone)})
	return nil
}

func (s *MemoryStore) DeleteItem(ctx context.Context, id models.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return nil
	}
	delete(s.items, id)
	s.broadcast(store.ChangeEvent{Table: store.TableItems, Type: store.EventDelete, ID: id.String()})
	return nil
}

func (s *MemoryStore) ListItems(ctx context.Context, scope store.Scope) ([]*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Item, 0, len(s.items))
	for _, it := range s.items {
		if inScope(it.Status, it.RoomID, scope) {
			out = append(out, cloneItem(it))
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateFolder(ctx context.Context, folder *models.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quota > 0 && len(s.items)+len(s.folders) >= s.quota {
		return store.ErrQuotaExceeded
	}
	if folder.ID.IsZero() {
		folder.ID = models.NewFolderID()
	}
	now := time.Now()
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = now
	}
	folder.UpdatedAt = now
	clone := cloneFolder(folder)
	s.folders[folder.ID] = clone
	s.broadcast(store.ChangeEvent{Table: store.TableFolders, Type: store.EventInsert, ID: folder.ID.String(), Folder: cloneFolder(clone)})
	return nil
}

func (s *MemoryStore) GetFolder(ctx context.Context, id models.FolderID) (*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[id]
	if !ok {
		return nil, nil
	}
	return cloneFolder(f), nil
}

func (s *MemoryStore) UpdateFolder(ctx context.Context, folder *models.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.folders[folder.ID]; !ok {
		return nil
	}
	folder.UpdatedAt = time.Now()
	clone := cloneFolder(folder)
	s.folders[folder.ID] = clone
	s.broadcast(store.ChangeEvent{Table: store.TableFolders, Type: store.EventUpdate, ID: folder.ID.String(), Folder: cloneFolder(clone)})
	return nil
}

func (s *MemoryStore) DeleteFolder(ctx context.Context, id models.FolderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.folders[id]; !ok {
		return nil
	}
	delete(s.folders, id)
	s.broadcast(store.ChangeEvent{Table: store.TableFolders, Type: store.EventDelete, ID: id.String()})
	return nil
}

func (s *MemoryStore) ListFolders(ctx context.Context, scope store.Scope) ([]*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Folder, 0, len(s.folders))
	for _, f := range s.folders {
		if inScope(f.Status, f.RoomID, scope) {
			out = append(out, cloneFolder(f))
		}
	}
	return out, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context) (<-chan store.ChangeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan store.ChangeEvent, 64)
	s.subs = append(s.subs, ch)
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		for i, sub := range s.subs {
			if sub == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				close(ch)
				break
			}
		}
	}()
	return ch, nil
}

// Emit injects an event into the feed as if it arrived from a remote
// session. Intended for tests.
func (s *MemoryStore) Emit(ev store.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		select {
		case sub <- ev:
		default:
			// Slow subscriber; the feed is at-least-once, not lossless.
		}
	}
}

// Migrate is a no-op for the in-memory backend.
func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, sub := range s.subs {
		close(sub)
	}
	s.subs = nil
	return nil
}

func (s *MemoryStore) broadcast(ev store.ChangeEvent) {
	if s.silent {
		return
	}
	for _, sub := range s.subs {
		select {
		case sub <- ev:
		default:
			// Slow subscriber; the feed is at-least-once, not lossless.
		}
	}
}

func inScope(status models.LifecycleStatus, roomID *models.ItemID, scope store.Scope) bool {
	if status == models.StatusInbox || status == models.StatusArchived {
		return true
	}
	if scope.RoomID == nil {
		return roomID == nil
	}
	return roomID != nil && *roomID == *scope.RoomID
}

func cloneItem(it *models.Item) *models.Item {
	c := *it
	if it.FolderID != nil {
		v := *it.FolderID
		c.FolderID = &v
	}
	if it.RoomID != nil {
		v := *it.RoomID
		c.RoomID = &v
	}
	if it.Metadata.Width != nil {
		v := *it.Metadata.Width
		c.Metadata.Width = &v
	}
	if it.Metadata.Height != nil {
		v := *it.Metadata.Height
		c.Metadata.Height = &v
	}
	return &c
}

func cloneFolder(f *models.Folder) *models.Folder {
	c := *f
	if f.ParentID != nil {
		v := *f.ParentID
		c.ParentID = &v
	}
	if f.RoomID != nil {
		v := *f.RoomID
		c.RoomID = &v
	}
	return &c
}
