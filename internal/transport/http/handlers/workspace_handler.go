package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/store"
)

// WorkspaceHandler exposes maintenance routes that operate on the whole
// workspace state rather than a single resource.
type WorkspaceHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewWorkspaceHandler(st *store.Store, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{store: st, logger: logger}
}

// Clear wipes every user, channel, DM and message. Intended for test
// harnesses and local resets, so it sits outside the auth middleware.
func (h *WorkspaceHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	h.logger.Info("Workspace cleared")
	writeJSON(w, http.StatusOK, struct{}{})
}
