package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kredexa/lending-engine/internal/application/dto"
	"github.com/kredexa/lending-engine/internal/application/usecase"
)

// LateFeeHandler serves the late-fee admin surface.
type LateFeeHandler struct {
	processor *usecase.ProcessLateFeesUseCase
	waiver    *usecase.WaiveLateFeesUseCase
	settler   *usecase.HandleRepaymentClearedUseCase
	queries   *usecase.LateFeeQueries
}

func NewLateFeeHandler(
	processor *usecase.ProcessLateFeesUseCase,
	waiver *usecase.WaiveLateFeesUseCase,
	settler *usecase.HandleRepaymentClearedUseCase,
	queries *usecase.LateFeeQueries,
) *LateFeeHandler {
	return &LateFeeHandler{
		processor: processor,
		waiver:    waiver,
		settler:   settler,
		queries:   queries,
	}
}

// Process triggers a manual fee processing run. Admin-triggered runs are
// forced by default; ?force=false opts back into the once-per-day guard so
// a client can probe whether today's run already happened.
func (h *LateFeeHandler) Process(w http.ResponseWriter, r *http.Request) {
	force := true
	if raw := r.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "force must be a boolean")
			return
		}
		force = parsed
	}

	result, err := h.processor.Execute(r.Context(), force)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// An already-completed day is a successful no-op, not a conflict.
	writeJSON(w, http.StatusOK, result)
}

func (h *LateFeeHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.queries.ProcessingStatus(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *LateFeeHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.queries.ProcessingLogs(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (h *LateFeeHandler) ClearAlerts(w http.ResponseWriter, r *http.Request) {
	if err := h.queries.ClearAlerts(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *LateFeeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	repaymentID := chi.URLParam(r, "repaymentID")

	summary, err := h.queries.LateFeesSummary(r.Context(), repaymentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *LateFeeHandler) TotalDue(w http.ResponseWriter, r *http.Request) {
	repaymentID := chi.URLParam(r, "repaymentID")

	due, err := h.queries.TotalAmountDue(r.Context(), repaymentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, due)
}

func (h *LateFeeHandler) Waive(w http.ResponseWriter, r *http.Request) {
	var req dto.WaiveLateFeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.RepaymentID = chi.URLParam(r, "repaymentID")

	resp, err := h.waiver.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PaymentCleared reconciles an already-cleared installment payment against
// the installment's outstanding fees.
func (h *LateFeeHandler) PaymentCleared(w http.ResponseWriter, r *http.Request) {
	var req dto.HandlePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.RepaymentID = chi.URLParam(r, "repaymentID")

	resp, err := h.settler.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
