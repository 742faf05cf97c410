package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
	"github.com/JohnieCar15/UNSW-Streams-sub000/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs []validator.ValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION",
			"fields": errs,
		},
	})
}

// writeDomainError maps the three core error kinds onto statuses. Anything
// unclassified is a 500 and gets logged; classified failures are the
// caller's fault and stay at debug noise level.
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var derr *domain.Error
	if errors.As(err, &derr) {
		switch derr.Kind {
		case domain.KindUnauthenticated:
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", derr.Msg)
		case domain.KindInvalidInput:
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", derr.Msg)
		case domain.KindForbidden:
			writeError(w, http.StatusForbidden, "FORBIDDEN", derr.Msg)
		}
		return
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
}
