package canvasnote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Run loads the initial snapshot, starts the change-feed merge loop and
// serves the canvas API until the context is cancelled.
//
// # API Endpoints
//
// Health:
//
//	GET  /api/health                      - Service health status
//
// Items:
//
//	POST   /api/items                     - Capture a new item
//	GET    /api/items/{id}                - Get item by ID
//	PATCH  /api/items/{id}                - Partial field update
//	DELETE /api/items/{id}                - Delete item
//	POST   /api/items/{id}/duplicate      - Clone under a new identity
//	POST   /api/items/{id}/archive        - Move to the archive view
//	POST   /api/items/{id}/unarchive      - Return to the active canvas
//
// Folders: the same verbs under /api/folders.
//
// Canvas operations:
//
//	GET  /api/snapshot                    - Visible state for the scope
//	PUT  /api/positions                   - Batch move (one undo entry)
//	POST /api/undo                        - Undo the last recorded action
//	POST /api/redo                        - Redo the last undone action
//	POST /api/layout                      - Masonry re-flow of everything
//	POST /api/layout/selection            - Masonry re-flow of the selection
//	PUT  /api/room                        - Enter or leave a room scope
//	PUT  /api/selection                   - Replace the selection
//	DELETE /api/selection                 - Clear the selection
//	PUT  /api/vault                       - Lock or unlock the vault
//	POST /api/vault/unlock/{id}           - Reveal one vaulted record
//
// On shutdown the server allows up to 5 seconds for active requests, then
// waits for pending backend writes before returning.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	if err := a.canvas.FetchSnapshot(ctx); err != nil {
		return fmt.Errorf("failed to load initial snapshot: %w", err)
	}
	if err := a.canvas.StartSync(); err != nil {
		return fmt.Errorf("failed to start change-feed sync: %w", err)
	}

	router := a.router()

	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.logger.Info().Str("addr", addr).Str("backend", string(a.config.Backend)).Msg("starting canvasnote server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// router builds the API route table.
func (a *App) router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	api.HandleFunc("/items", a.handleCreateItem).Methods("POST")
	api.HandleFunc("/items/{id}", a.handleGetItem).Methods("GET")
	api.HandleFunc("/items/{id}", a.handleUpdateItem).Methods("PATCH")
	api.HandleFunc("/items/{id}", a.handleDeleteItem).Methods("DELETE")
	api.HandleFunc("/items/{id}/duplicate", a.handleDuplicateItem).Methods("POST")
	api.HandleFunc("/items/{id}/archive", a.handleArchiveItem).Methods("POST")
	api.HandleFunc("/items/{id}/unarchive", a.handleUnarchiveItem).Methods("POST")

	api.HandleFunc("/folders", a.handleCreateFolder).Methods("POST")
	api.HandleFunc("/folders/{id}", a.handleGetFolder).Methods("GET")
	api.HandleFunc("/folders/{id}", a.handleUpdateFolder).Methods("PATCH")
	api.HandleFunc("/folders/{id}", a.handleDeleteFolder).Methods("DELETE")
	api.HandleFunc("/folders/{id}/duplicate", a.handleDuplicateFolder).Methods("POST")
	api.HandleFunc("/folders/{id}/archive", a.handleArchiveFolder).Methods("POST")
	api.HandleFunc("/folders/{id}/unarchive", a.handleUnarchiveFolder).Methods("POST")

	api.HandleFunc("/snapshot", a.handleSnapshot).Methods("GET")
	api.HandleFunc("/positions", a.handleUpdatePositions).Methods("PUT")
	api.HandleFunc("/undo", a.handleUndo).Methods("POST")
	api.HandleFunc("/redo", a.handleRedo).Methods("POST")
	api.HandleFunc("/layout", a.handleLayoutAll).Methods("POST")
	api.HandleFunc("/layout/selection", a.handleLayoutSelected).Methods("POST")
	api.HandleFunc("/room", a.handleEnterRoom).Methods("PUT")
	api.HandleFunc("/selection", a.handleSetSelection).Methods("PUT")
	api.HandleFunc("/selection", a.handleClearSelection).Methods("DELETE")
	api.HandleFunc("/vault", a.handleSetVault).Methods("PUT")
	api.HandleFunc("/vault/unlock/{id}", a.handleUnlockVaulted).Methods("POST")

	router.HandleFunc("/health", a.handleHealth).Methods("GET")

	return router
}
