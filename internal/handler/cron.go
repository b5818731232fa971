package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aiinterface/notifier/internal/handler/dto"
	"github.com/aiinterface/notifier/internal/middleware"
	"github.com/aiinterface/notifier/internal/service"
)

// BalanceRunner runs one balance check.
type BalanceRunner interface {
	Run(ctx context.Context) (*service.ScanResult, error)
}

// CronHandler serves scheduler-triggered jobs.
type CronHandler struct {
	scanner    BalanceRunner
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewCronHandler creates a new CronHandler. A run is detached from the
// triggering request and bounded by runTimeout instead.
func NewCronHandler(scanner BalanceRunner, runTimeout time.Duration, logger *slog.Logger) *CronHandler {
	return &CronHandler{
		scanner:    scanner,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// CheckBalance runs the low-balance scan and reports its summary.
// POST /cron/check-balance
func (h *CronHandler) CheckBalance(w http.ResponseWriter, r *http.Request) {
	// A caller that hangs up must not abort a run halfway through.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.runTimeout)
	defer cancel()

	result, err := h.scanner.Run(ctx)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("balance check failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, checkBalanceResponse(result))
}

func checkBalanceResponse(result *service.ScanResult) *dto.CheckBalanceResponse {
	if result.NoCandidates() {
		return &dto.CheckBalanceResponse{
			Message: dto.MessageNoAlertCandidates,
			Sent:    0,
		}
	}

	checked := result.Checked
	needing := result.NeedingAlerts
	return &dto.CheckBalanceResponse{
		Message:       dto.MessageBalanceCheckCompleted,
		Checked:       &checked,
		NeedingAlerts: &needing,
		Sent:          result.Sent,
		Errors:        result.Errors,
	}
}
