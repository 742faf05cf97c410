package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/service"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/transport/http/middleware"
)

type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// pathInt parses an integer path segment.
func pathInt(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, false
	}
	return v, true
}

func (h *UserHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	users, err := h.userService.ListAll(uID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	targetID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}
	profile, err := h.userService.Profile(uID, targetID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": profile})
}

func (h *UserHandler) SetName(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	var input struct {
		NameFirst string `json:"name_first"`
		NameLast  string `json:"name_last"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := h.userService.SetName(uID, input.NameFirst, input.NameLast); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *UserHandler) SetEmail(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := h.userService.SetEmail(uID, input.Email); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *UserHandler) SetHandle(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	var input struct {
		Handle string `json:"handle_str"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := h.userService.SetHandle(uID, input.Handle); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	stats, err := h.userService.Stats(uID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *UserHandler) WorkspaceStats(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	stats, err := h.userService.WorkspaceStats(uID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *UserHandler) ChangePermission(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	targetID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}
	var input struct {
		PermissionID int `json:"permission_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := h.userService.ChangePermission(uID, targetID, input.PermissionID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *UserHandler) Remove(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	targetID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}
	if err := h.userService.Remove(uID, targetID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}
