package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kredexa/lending-engine/internal/application/dto"
	"github.com/kredexa/lending-engine/internal/application/usecase"
)

// LoanHandler serves loan servicing endpoints.
type LoanHandler struct {
	disburser *usecase.DisburseLoanUseCase
	payments  *usecase.MakePaymentUseCase
	getter    *usecase.GetLoanUseCase
}

func NewLoanHandler(
	disburser *usecase.DisburseLoanUseCase,
	payments *usecase.MakePaymentUseCase,
	getter *usecase.GetLoanUseCase,
) *LoanHandler {
	return &LoanHandler{
		disburser: disburser,
		payments:  payments,
		getter:    getter,
	}
}

func (h *LoanHandler) Disburse(w http.ResponseWriter, r *http.Request) {
	var req dto.DisburseLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.disburser.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")

	resp, err := h.getter.Execute(r.Context(), loanID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LoanHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	var req dto.MakePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.LoanID = chi.URLParam(r, "loanID")

	resp, err := h.payments.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
