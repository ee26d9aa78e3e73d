// Package surreal provides the SurrealDB implementation of the
// [github.com/canvasnote/canvasnote/pkg/store.Store] interface.
//
// Records are stored in the "items" and "folders" tables keyed by typed-ID
// RecordIDs, and the change feed is backed by SurrealDB Live queries, which
// push CREATE/UPDATE/DELETE notifications over the same WebSocket
// connection.
//
// # CBOR marshaling
//
// The connection is configured with the surrealcbor codec so that
// time.Time, RecordID and the typed ID wrappers serialize in the format
// SurrealDB expects. Typed IDs marshal to RecordIDs automatically through
// their MarshalCBOR implementations; no string interpolation is ever used
// to build queries, all values travel as $parameters.
package surreal

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/canvasnote/canvasnote/pkg/models"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// SurrealStore implements store.Store against a SurrealDB instance.
type SurrealStore struct {
	db       *surrealdb.DB
	ns       string
	database string
}

// New connects to SurrealDB at wsURL with the surrealcbor codec, signs in
// when credentials are provided, and selects the namespace and database.
func New(wsURL, namespace, database, username, password string) (*SurrealStore, error) {
	ctx := context.Background()

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)

	// surrealcbor gives us correct time.Time and RecordID handling; the
	// default codec does not.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &SurrealStore{db: db, ns: namespace, database: database}, nil
}

// Migrate is a no-op: SurrealDB creates tables when data is first inserted.
func (s *SurrealStore) Migrate(ctx context.Context) error { return nil }

// Close closes the WebSocket connection.
func (s *SurrealStore) Close() error {
	return s.db.Close(context.Background())
}

// handleNotFound maps SurrealDB's empty-result errors to a nil record.
func handleNotFound(err error) error {
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "Expected a single or multiple results but got 0") ||
			strings.Contains(errStr, "cannot unmarshal array into Go value") {
			return nil
		}
	}
	return err
}

// mapQuotaError surfaces server-side subscription limit rejections as the
// sentinel the engine rolls back on.
func mapQuotaError(err error) error {
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "quota") {
		return store.ErrQuotaExceeded
	}
	return err
}

func (s *SurrealStore) CreateItem(ctx context.Context, item *models.Item) error {
	if item.ID.IsZero() {
		item.ID = models.NewItemID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	item.UpdatedAt = time.Now()

	if _, err := surrealdb.Create[models.Item](ctx, s.db, store.TableItems, item); err != nil {
		if qerr := mapQuotaError(err); qerr == store.ErrQuotaExceeded {
			return qerr
		}
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetItem(ctx context.Context, id models.ItemID) (*models.Item, error) {
	item, err := surrealdb.Select[models.Item](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (s *SurrealStore) UpdateItem(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.Item](ctx, s.db, item.ID.RecordID(), item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeleteItem(ctx context.Context, id models.ItemID) error {
	_, err := surrealdb.Delete[models.Item](ctx, s.db, id.RecordID())
	return err
}

func (s *SurrealStore) ListItems(ctx context.Context, scope store.Scope) ([]*models.Item, error) {
	return listScoped[models.Item](ctx, s, store.TableItems, "room_id", scope)
}

func (s *SurrealStore) CreateFolder(ctx context.Context, folder *models.Folder) error {
	if folder.ID.IsZero() {
		folder.ID = models.NewFolderID()
	}
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now()
	}
	folder.UpdatedAt = time.Now()

	if _, err := surrealdb.Create[models.Folder](ctx, s.db, store.TableFolders, folder); err != nil {
		if qerr := mapQuotaError(err); qerr == store.ErrQuotaExceeded {
			return qerr
		}
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetFolder(ctx context.Context, id models.FolderID) (*models.Folder, error) {
	folder, err := surrealdb.Select[models.Folder](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return folder, nil
}

func (s *SurrealStore) UpdateFolder(ctx context.Context, folder *models.Folder) error {
	folder.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.Folder](ctx, s.db, folder.ID.RecordID(), folder); err != nil {
		return fmt.Errorf("failed to update folder: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeleteFolder(ctx context.Context, id models.FolderID) error {
	_, err := surrealdb.Delete[models.Folder](ctx, s.db, id.RecordID())
	return err
}

func (s *SurrealStore) ListFolders(ctx context.Context, scope store.Scope) ([]*models.Folder, error) {
	return listScoped[models.Folder](ctx, s, store.TableFolders, "room_id", scope)
}

// listScoped runs the snapshot query: active records in the scoped room
// plus every inbox and archived record regardless of room.
func listScoped[T any](ctx context.Context, s *SurrealStore, table, roomField string, scope store.Scope) ([]*T, error) {
	var query string
	params := map[string]any{}
	if scope.RoomID == nil {
		query = fmt.Sprintf(
			"SELECT * FROM %s WHERE status IN ['inbox', 'archived'] OR (status = 'active' AND %s IS NONE)",
			table, roomField)
	} else {
		query = fmt.Sprintf(
			"SELECT * FROM %s WHERE status IN ['inbox', 'archived'] OR (status = 'active' AND %s = $room)",
			table, roomField)
		params["room"] = scope.RoomID.RecordID()
	}

	result, err := surrealdb.Query[[]*T](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}

	records := []*T{}
	if result != nil && len(*result) > 0 {
		records = (*result)[0].Result
	}
	return records, nil
}

// Subscribe starts Live queries on both tables and bridges their
// notification channels into one ChangeEvent channel. The channel closes
// when the context is cancelled.
func (s *SurrealStore) Subscribe(ctx context.Context) (<-chan store.ChangeEvent, error) {
	out := make(chan store.ChangeEvent, 64)

	itemsCh, itemsKill, err := s.liveTable(ctx, store.TableItems)
	if err != nil {
		return nil, err
	}
	foldersCh, foldersKill, err := s.liveTable(ctx, store.TableFolders)
	if err != nil {
		itemsKill()
		return nil, err
	}

	go func() {
		defer close(out)
		defer itemsKill()
		defer foldersKill()
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-itemsCh:
				if !ok {
					return
				}
				if ev, ok := itemEvent(n); ok {
					out <- ev
				}
			case n, ok := <-foldersCh:
				if !ok {
					return
				}
				if ev, ok := folderEvent(n); ok {
					out <- ev
				}
			}
		}
	}()

	return out, nil
}

func (s *SurrealStore) liveTable(ctx context.Context, table string) (chan connection.Notification, func(), error) {
	live, err := surrealdb.Live(ctx, s.db, surrealdb_models.Table(table), false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start live query on %s: %w", table, err)
	}
	ch, err := s.db.LiveNotifications(live.String())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get live notifications for %s: %w", table, err)
	}
	kill := func() {
		// Best effort: the connection may already be gone on shutdown.
		_ = surrealdb.Kill(context.Background(), s.db, live.String())
	}
	return ch, kill, nil
}

func itemEvent(n connection.Notification) (store.ChangeEvent, bool) {
	id, ok := notificationRecordID(n)
	if !ok {
		return store.ChangeEvent{}, false
	}
	ev := store.ChangeEvent{Table: store.TableItems, Type: actionType(n.Action), ID: id}
	if ev.Type != store.EventDelete {
		var item models.Item
		if err := decodeNotification(n.Result, &item); err != nil {
			return store.ChangeEvent{}, false
		}
		ev.Item = &item
	}
	return ev, true
}

func folderEvent(n connection.Notification) (store.ChangeEvent, bool) {
	id, ok := notificationRecordID(n)
	if !ok {
		return store.ChangeEvent{}, false
	}
	ev := store.ChangeEvent{Table: store.TableFolders, Type: actionType(n.Action), ID: id}
	if ev.Type != store.EventDelete {
		var folder models.Folder
		if err := decodeNotification(n.Result, &folder); err != nil {
			return store.ChangeEvent{}, false
		}
		ev.Folder = &folder
	}
	return ev, true
}

func actionType(a connection.Action) store.EventType {
	switch a {
	case connection.CreateAction:
		return store.EventInsert
	case connection.DeleteAction:
		return store.EventDelete
	default:
		return store.EventUpdate
	}
}

// notificationRecordID pulls the record UUID out of a live notification
// payload. Live queries without diff deliver the full record as a map with
// the id field holding a RecordID.
func notificationRecordID(n connection.Notification) (string, bool) {
	record, ok := n.Result.(map[string]any)
	if !ok {
		return "", false
	}
	switch rid := record["id"].(type) {
	case surrealdb_models.RecordID:
		return fmt.Sprint(rid.ID), true
	case *surrealdb_models.RecordID:
		return fmt.Sprint(rid.ID), true
	default:
		return "", false
	}
}

// decodeNotification converts a live notification payload into a model by
// round-tripping it through CBOR, so RecordIDs and timestamps pass through
// the same tag handling as regular query results.
func decodeNotification(result any, dest any) error {
	raw, err := cbor.Marshal(result)
	if err != nil {
		return err
	}
	return cbor.Unmarshal(raw, dest)
}
