package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Fasilurahman/TeamVerse-sub001/storage"
)

// UploadHandler serves files written by storage.LocalStore.
type UploadHandler struct {
	store *storage.LocalStore
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(store *storage.LocalStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// Serve godoc
// GET /api/uploads/{name}
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	path, err := h.store.Path(chi.URLParam(r, "name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, path)
}
