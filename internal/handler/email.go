package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aiinterface/notifier/internal/email"
	"github.com/aiinterface/notifier/internal/handler/dto"
	"github.com/aiinterface/notifier/internal/middleware"
)

// EmailSender renders and sends one notification email.
type EmailSender interface {
	Send(ctx context.Context, req *email.Request) (string, error)
}

// EmailHandler serves the notification dispatcher endpoint.
type EmailHandler struct {
	sender EmailSender
	logger *slog.Logger
}

// NewEmailHandler creates a new EmailHandler.
func NewEmailHandler(sender EmailSender, logger *slog.Logger) *EmailHandler {
	return &EmailHandler{
		sender: sender,
		logger: logger,
	}
}

// Send validates, renders and sends a notification email.
// POST /email/send
func (h *EmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req email.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.sender.Send(r.Context(), &req)
	if err != nil {
		var verr *email.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}

		h.logger.Error("email send failed",
			slog.String("type", string(req.Type)),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SendEmailResponse{Success: true, ID: id})
}
