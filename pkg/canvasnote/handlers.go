package canvasnote

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/canvasnote/canvasnote/pkg/models"
)

// handleCreateItem captures a new item onto the canvas.
//
// HTTP Method: POST
// Endpoint: /api/items
//
// The request body is an Item; a missing ID is assigned and an active
// top-level item is placed through the resolver, so the returned position
// may differ from the requested one. The response is the optimistic record
// with SyncState "syncing"; watch /api/snapshot or the engine events for
// the settled state.
func (a *App) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var item models.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	created, err := a.canvas.AddItem(item)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (a *App) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseItemID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	item := a.canvas.Item(id)
	if item == nil {
		respondError(w, http.StatusNotFound, "Item not found")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (a *App) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseItemID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	var patch ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	item := a.canvas.UpdateItem(id, patch)
	if item == nil {
		respondError(w, http.StatusNotFound, "Item not found")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (a *App) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseItemID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	a.canvas.RemoveItem(id)
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleDuplicateItem(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseItemID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	dup, err := a.canvas.DuplicateItem(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, dup)
}

func (a *App) handleArchiveItem(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseItemID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	a.canvas.ArchiveItem(id)
	respondJSON(w, http.StatusOK, a.canvas.Item(id))
}

func (a *App) handleUnarchiveItem(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseItemID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	a.canvas.UnarchiveItem(id)
	respondJSON(w, http.StatusOK, a.canvas.Item(id))
}

// Folder handlers

func (a *App) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var folder models.Folder
	if err := json.NewDecoder(r.Body).Decode(&folder); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	created, err := a.canvas.AddFolder(folder)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (a *App) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseFolderID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid folder ID")
		return
	}
	folder := a.canvas.Folder(id)
	if folder == nil {
		respondError(w, http.StatusNotFound, "Folder not found")
		return
	}
	respondJSON(w, http.StatusOK, folder)
}

func (a *App) handleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseFolderID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid folder ID")
		return
	}
	var patch FolderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	folder := a.canvas.UpdateFolder(id, patch)
	if folder == nil {
		respondError(w, http.StatusNotFound, "Folder not found")
		return
	}
	respondJSON(w, http.StatusOK, folder)
}

func (a *App) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseFolderID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid folder ID")
		return
	}
	a.canvas.RemoveFolder(id)
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleDuplicateFolder(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseFolderID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid folder ID")
		return
	}
	dup, err := a.canvas.DuplicateFolder(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, dup)
}

func (a *App) handleArchiveFolder(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseFolderID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid folder ID")
		return
	}
	a.canvas.ArchiveFolder(id)
	respondJSON(w, http.StatusOK, a.canvas.Folder(id))
}

func (a *App) handleUnarchiveFolder(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseFolderID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid folder ID")
		return
	}
	a.canvas.UnarchiveFolder(id)
	respondJSON(w, http.StatusOK, a.canvas.Folder(id))
}

// Canvas operation handlers

// handleSnapshot returns the current visible canvas state for the active
// room scope.
func (a *App) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.canvas.Snapshot())
}

// handleUpdatePositions commits a batch of absolute position changes as
// one undoable move.
//
// HTTP Method: PUT
// Endpoint: /api/positions
// Body: [{"id": "...", "entity": "item"|"folder", "position": {"x":0,"y":0}}]
func (a *App) handleUpdatePositions(w http.ResponseWriter, r *http.Request) {
	var updates []PositionUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	a.canvas.UpdatePositions(updates)
	respondJSON(w, http.StatusOK, a.canvas.Snapshot())
}

func (a *App) handleUndo(w http.ResponseWriter, r *http.Request) {
	if !a.canvas.Undo() {
		respondError(w, http.StatusConflict, "Nothing to undo")
		return
	}
	respondJSON(w, http.StatusOK, a.canvas.Snapshot())
}

func (a *App) handleRedo(w http.ResponseWriter, r *http.Request) {
	if !a.canvas.Redo() {
		respondError(w, http.StatusConflict, "Nothing to redo")
		return
	}
	respondJSON(w, http.StatusOK, a.canvas.Snapshot())
}

func (a *App) handleLayoutAll(w http.ResponseWriter, r *http.Request) {
	a.canvas.LayoutAll()
	respondJSON(w, http.StatusOK, a.canvas.Snapshot())
}

func (a *App) handleLayoutSelected(w http.ResponseWriter, r *http.Request) {
	a.canvas.LayoutSelected()
	respondJSON(w, http.StatusOK, a.canvas.Snapshot())
}

// handleEnterRoom switches the scope to the given room, or back to the
// top-level canvas with a null ID.
//
// HTTP Method: PUT
// Endpoint: /api/room
// Body: {"room_id": "<item uuid>"} or {"room_id": null}
func (a *App) handleEnterRoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RoomID *models.ItemID `json:"room_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := a.canvas.EnterRoom(r.Context(), body.RoomID); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, a.canvas.Snapshot())
}

func (a *App) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	a.canvas.Select(body.IDs...)
	respondJSON(w, http.StatusOK, map[string][]string{"ids": a.canvas.Selection()})
}

func (a *App) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	a.canvas.ClearSelection()
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleSetVault(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Locked bool `json:"locked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	a.canvas.SetVaultLocked(body.Locked)
	respondJSON(w, http.StatusOK, map[string]bool{"locked": body.Locked})
}

func (a *App) handleUnlockVaulted(w http.ResponseWriter, r *http.Request) {
	a.canvas.UnlockVaulted(mux.Vars(r)["id"])
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"backend": a.config.Backend,
		"time":    time.Now().Unix(),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
