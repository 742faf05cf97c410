package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/service"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/transport/http/middleware"
	"github.com/JohnieCar15/UNSW-Streams-sub000/pkg/validator"
)

type ChannelHandler struct {
	channelService *service.ChannelService
	messageService *service.MessageService
	val            *validator.Validator
	logger         *zap.Logger
}

func NewChannelHandler(channelService *service.ChannelService, messageService *service.MessageService, val *validator.Validator, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{
		channelService: channelService,
		messageService: messageService,
		val:            val,
		logger:         logger,
	}
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	var input struct {
		Name     string `json:"name" validate:"required"`
		IsPublic bool   `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := h.val.ValidateStruct(&input); errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	chID, err := h.channelService.Create(uID, input.Name, input.IsPublic)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"channel_id": chID})
}

func (h *ChannelHandler) ListJoined(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	channels, err := h.channelService.ListJoined(uID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": channels})
}

func (h *ChannelHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	channels, err := h.channelService.ListAll(uID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": channels})
}

func (h *ChannelHandler) Details(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	chID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}
	details, err := h.channelService.Details(uID, chID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *ChannelHandler) Join(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	chID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}
	if err := h.channelService.Join(uID, chID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *ChannelHandler) Invite(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	chID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}
	var input struct {
		UserID int `json:"u_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := h.channelService.Invite(uID, chID, input.UserID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *ChannelHandler) Leave(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	chID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}
	if err := h.channelService.Leave(uID, chID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *ChannelHandler) AddOwner(w http.ResponseWriter, r *http.Request) {
	h.ownerChange(w, r, h.channelService.AddOwner)
}

func (h *ChannelHandler) RemoveOwner(w http.ResponseWriter, r *http.Request) {
	h.ownerChange(w, r, h.channelService.RemoveOwner)
}

func (h *ChannelHandler) ownerChange(w http.ResponseWriter, r *http.Request, op func(uID, chID, targetID int) error) {
	uID := middleware.GetUserID(r.Context())
	chID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}
	var input struct {
		UserID int `json:"u_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := op(uID, chID, input.UserID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *ChannelHandler) Messages(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	chID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}
	start, err := strconv.Atoi(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_START", "Invalid start value")
		return
	}
	page, err := h.messageService.ListChannelMessages(uID, chID, start)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ChannelHandler) Send(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	chID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}
	var input struct {
		Message string `json:"message" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := h.val.ValidateStruct(&input); errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	msgID, err := h.messageService.SendToChannel(uID, chID, input.Message)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"message_id": msgID})
}

func (h *ChannelHandler) SendLater(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	chID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}
	var input struct {
		Message  string `json:"message" validate:"required"`
		TimeSent int64  `json:"time_sent" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := h.val.ValidateStruct(&input); errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	msgID, err := h.messageService.SendLaterToChannel(uID, chID, input.Message, input.TimeSent)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"message_id": msgID})
}
