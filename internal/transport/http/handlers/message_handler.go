package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/service"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/transport/http/middleware"
)

type MessageHandler struct {
	messageService *service.MessageService
	logger         *zap.Logger
}

func NewMessageHandler(messageService *service.MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{messageService: messageService, logger: logger}
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	msgID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}
	var input struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := h.messageService.Edit(uID, msgID, input.Message); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	msgID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}
	if err := h.messageService.Remove(uID, msgID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) React(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, h.messageService.React)
}

func (h *MessageHandler) Unreact(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, h.messageService.Unreact)
}

func (h *MessageHandler) react(w http.ResponseWriter, r *http.Request, op func(uID, msgID, reactID int) error) {
	uID := middleware.GetUserID(r.Context())
	msgID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}
	var input struct {
		ReactID int `json:"react_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := op(uID, msgID, input.ReactID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *MessageHandler) Pin(w http.ResponseWriter, r *http.Request) {
	h.pin(w, r, h.messageService.Pin)
}

func (h *MessageHandler) Unpin(w http.ResponseWriter, r *http.Request) {
	h.pin(w, r, h.messageService.Unpin)
}

func (h *MessageHandler) pin(w http.ResponseWriter, r *http.Request, op func(uID, msgID int) error) {
	uID := middleware.GetUserID(r.Context())
	msgID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}
	if err := op(uID, msgID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *MessageHandler) Share(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	ogID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}
	var input struct {
		Message   string `json:"message"`
		ChannelID *int   `json:"channel_id"`
		DMID      *int   `json:"dm_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	channelID, dmID := -1, -1
	if input.ChannelID != nil {
		channelID = *input.ChannelID
	}
	if input.DMID != nil {
		dmID = *input.DMID
	}

	sharedID, err := h.messageService.Share(uID, ogID, input.Message, channelID, dmID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"shared_message_id": sharedID})
}

func (h *MessageHandler) Search(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	query := r.URL.Query().Get("query")

	messages, err := h.messageService.Search(uID, query)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}
