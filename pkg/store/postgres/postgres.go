// Package postgres provides the PostgreSQL implementation of the
// [github.com/canvasnote/canvasnote/pkg/store.Store] interface using GORM.
//
// Items and folders map to relational tables through the GORM struct tags
// on the models. PostgreSQL has no push channel in this design, so the
// change feed is implemented with a change-log table: every mutation
// appends a [models.ChangeRecord] row in the same transaction as the write,
// and Subscribe polls the log by ascending row ID, replaying payloads as
// feed events. Polling trades latency for a backend-agnostic feed; each row
// is delivered at least once.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/canvasnote/canvasnote/pkg/models"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// PollInterval is how often feed subscribers check the change log.
const PollInterval = 500 * time.Millisecond

// PostgresStore implements store.Store using PostgreSQL with GORM.
type PostgresStore struct {
	db *gorm.DB
}

// New opens a PostgreSQL connection for the given DSN.
func New(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Migrate creates or updates the items, folders and change-log tables.
// Safe to run repeatedly; AutoMigrate only adds missing schema elements.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.Item{},
		&models.Folder{},
		&models.ChangeRecord{},
	)
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// mapQuotaError surfaces server-side subscription limit rejections, raised
// by a database policy trigger, as the sentinel the engine rolls back on.
func mapQuotaError(err error) error {
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "quota") {
		return store.ErrQuotaExceeded
	}
	return err
}

func (s *PostgresStore) CreateItem(ctx context.Context, item *models.Item) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		return logChange(tx, store.TableItems, item.ID.String(), models.ChangeOperationInsert, item)
	})
	return mapQuotaError(err)
}

func (s *PostgresStore) GetItem(ctx context.Context, id models.ItemID) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *PostgresStore) UpdateItem(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(item).Error; err != nil {
			return err
		}
		return logChange(tx, store.TableItems, item.ID.String(), models.ChangeOperationUpdate, item)
	})
}

func (s *PostgresStore) DeleteItem(ctx context.Context, id models.ItemID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Item{}, "id = ?", id).Error; err != nil {
			return err
		}
		return logChange(tx, store.TableItems, id.String(), models.ChangeOperationDelete, nil)
	})
}

func (s *PostgresStore) ListItems(ctx context.Context, scope store.Scope) ([]*models.Item, error) {
	items := []*models.Item{}
	q := s.db.WithContext(ctx)
	if scope.RoomID == nil {
		q = q.Where("status IN ? OR (status = ? AND room_id IS NULL)",
			[]models.LifecycleStatus{models.StatusInbox, models.StatusArchived}, models.StatusActive)
	} else {
		q = q.Where("status IN ? OR (status = ? AND room_id = ?)",
			[]models.LifecycleStatus{models.StatusInbox, models.StatusArchived}, models.StatusActive, *scope.RoomID)
	}
	err := q.Find(&items).Error
	return items, err
}

func (s *PostgresStore) CreateFolder(ctx context.Context, folder *models.Folder) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(folder).Error; err != nil {
			return err
		}
		return logChange(tx, store.TableFolders, folder.ID.String(), models.ChangeOperationInsert, folder)
	})
	return mapQuotaError(err)
}

func (s *PostgresStore) GetFolder(ctx context.Context, id models.FolderID) (*models.Folder, error) {
	var folder models.Folder
	err := s.db.WithContext(ctx).First(&folder, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &folder, nil
}

func (s *PostgresStore) UpdateFolder(ctx context.Context, folder *models.Folder) error {
	folder.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(folder).Error; err != nil {
			return err
		}
		return logChange(tx, store.TableFolders, folder.ID.String(), models.ChangeOperationUpdate, folder)
	})
}

func (s *PostgresStore) DeleteFolder(ctx context.Context, id models.FolderID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Folder{}, "id = ?", id).Error; err != nil {
			return err
		}
		return logChange(tx, store.TableFolders, id.String(), models.ChangeOperationDelete, nil)
	})
}

func (s *PostgresStore) ListFolders(ctx context.Context, scope store.Scope) ([]*models.Folder, error) {
	folders := []*models.Folder{}
	q := s.db.WithContext(ctx)
	if scope.RoomID == nil {
		q = q.Where("status IN ? OR (status = ? AND room_id IS NULL)",
			[]models.LifecycleStatus{models.StatusInbox, models.StatusArchived}, models.StatusActive)
	} else {
		q = q.Where("status IN ? OR (status = ? AND room_id = ?)",
			[]models.LifecycleStatus{models.StatusInbox, models.StatusArchived}, models.StatusActive, *scope.RoomID)
	}
	err := q.Find(&folders).Error
	return folders, err
}

// logChange appends a change-log row inside the caller's transaction.
func logChange(tx *gorm.DB, table, id string, op models.ChangeOperation, payload any) error {
	rec := models.ChangeRecord{
		EntityType: table,
		EntityID:   id,
		Operation:  op,
		ChangedAt:  time.Now(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode change payload: %w", err)
		}
		rec.Payload = raw
	}
	return tx.Create(&rec).Error
}

// Subscribe polls the change log for rows appended after the subscription
// started and replays them as feed events. The channel closes when the
// context is cancelled.
func (s *PostgresStore) Subscribe(ctx context.Context) (<-chan store.ChangeEvent, error) {
	var lastID uint64
	row := s.db.WithContext(ctx).Model(&models.ChangeRecord{}).Select("COALESCE(MAX(id), 0)").Row()
	if err := row.Scan(&lastID); err != nil {
		return nil, fmt.Errorf("failed to read change log position: %w", err)
	}

	out := make(chan store.ChangeEvent, 64)
	go func() {
		defer close(out)
		ticker := time.NewTicker(PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var rows []models.ChangeRecord
				err := s.db.WithContext(ctx).
					Where("id > ?", lastID).
					Order("id ASC").
					Find(&rows).Error
				if err != nil {
					continue
				}
				for _, rec := range rows {
					lastID = rec.ID
					if ev, ok := recordEvent(rec); ok {
						select {
						case out <- ev:
						case <-ctx.Done():
							return
						}
					}
				}
			}
		}
	}()
	return out, nil
}

func recordEvent(rec models.ChangeRecord) (store.ChangeEvent, bool) {
	ev := store.ChangeEvent{Table: rec.EntityType, ID: rec.EntityID}
	switch rec.Operation {
	case models.ChangeOperationInsert:
		ev.Type = store.EventInsert
	case models.ChangeOperationUpdate:
		ev.Type = store.EventUpdate
	case models.ChangeOperationDelete:
		ev.Type = store.EventDelete
		return ev, true
	default:
		return store.ChangeEvent{}, false
	}

	switch rec.EntityType {
	case store.TableItems:
		var item models.Item
		if err := json.Unmarshal(rec.Payload, &item); err != nil {
			return store.ChangeEvent{}, false
		}
		ev.Item = &item
	case store.TableFolders:
		var folder models.Folder
		if err := json.Unmarshal(rec.Payload, &folder); err != nil {
			return store.ChangeEvent{}, false
		}
		ev.Folder = &folder
	default:
		return store.ChangeEvent{}, false
	}
	return ev, true
}
