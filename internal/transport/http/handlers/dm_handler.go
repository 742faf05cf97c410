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

type DMHandler struct {
	dmService      *service.DMService
	messageService *service.MessageService
	val            *validator.Validator
	logger         *zap.Logger
}

func NewDMHandler(dmService *service.DMService, messageService *service.MessageService, val *validator.Validator, logger *zap.Logger) *DMHandler {
	return &DMHandler{
		dmService:      dmService,
		messageService: messageService,
		val:            val,
		logger:         logger,
	}
}

func (h *DMHandler) Create(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	var input struct {
		UserIDs []int `json:"u_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	dmID, err := h.dmService.Create(uID, input.UserIDs)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"dm_id": dmID})
}

func (h *DMHandler) List(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	dms, err := h.dmService.List(uID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dms": dms})
}

func (h *DMHandler) Details(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	dmID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid DM ID")
		return
	}
	details, err := h.dmService.Details(uID, dmID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *DMHandler) Leave(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	dmID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid DM ID")
		return
	}
	if err := h.dmService.Leave(uID, dmID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *DMHandler) Remove(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	dmID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid DM ID")
		return
	}
	if err := h.dmService.Remove(uID, dmID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *DMHandler) Messages(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	dmID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid DM ID")
		return
	}
	start, err := strconv.Atoi(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_START", "Invalid start value")
		return
	}
	page, err := h.messageService.ListDMMessages(uID, dmID, start)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *DMHandler) Send(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	dmID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid DM ID")
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

	msgID, err := h.messageService.SendToDM(uID, dmID, input.Message)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"message_id": msgID})
}

func (h *DMHandler) SendLater(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	dmID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid DM ID")
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

	msgID, err := h.messageService.SendLaterToDM(uID, dmID, input.Message, input.TimeSent)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"message_id": msgID})
}
