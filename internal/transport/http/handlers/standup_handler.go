package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/service"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/transport/http/middleware"
)

type StandupHandler struct {
	standupService *service.StandupService
	logger         *zap.Logger
}

func NewStandupHandler(standupService *service.StandupService, logger *zap.Logger) *StandupHandler {
	return &StandupHandler{standupService: standupService, logger: logger}
}

func (h *StandupHandler) Start(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	chID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}
	var input struct {
		Length int64 `json:"length"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	finish, err := h.standupService.Start(uID, chID, input.Length)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"time_finish": finish})
}

func (h *StandupHandler) Active(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	chID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}

	isActive, finish, err := h.standupService.Active(uID, chID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	resp := map[string]any{"is_active": isActive, "time_finish": nil}
	if isActive {
		resp["time_finish"] = finish
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *StandupHandler) Send(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	chID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}
	var input struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.standupService.Send(uID, chID, input.Message); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}
