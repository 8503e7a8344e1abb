package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
	"github.com/kauan1212/pix-zap-cobran-sub000/internal/service"
	"github.com/kauan1212/pix-zap-cobran-sub000/internal/transport/auth"
)

// Portal-facing messages. The wire contract is Portuguese; see the client
// app's amortization screens.
const (
	msgFieldsRequired   = "client_id e payment_amount são obrigatórios"
	msgMinimumAmount    = "Valor mínimo para amortização é R$ 25,00"
	msgClientNotFound   = "Cliente não encontrado"
	msgNoOpenBillings   = "Cliente não possui cobranças pendentes"
	msgIncompleteData   = "Dados incompletos"
	msgUnauthenticated  = "Não autenticado"
	msgForbidden        = "Acesso negado"
	msgCommitNotFound   = "Amortização não encontrada ou já processada"
	msgNotFound         = "Amortização não encontrada"
	msgCannotCancel     = "Amortização não pode mais ser cancelada"
	msgCalculateFailed  = "Erro ao calcular amortização"
	msgCreateFailed     = "Erro ao registrar amortização"
	msgCommitFailed     = "Erro ao processar amortização. Contate o suporte."
	msgPaymentCodeField = "payment_code é obrigatório"
)

type calculateRequest struct {
	ClientID      string           `json:"client_id"`
	PaymentAmount *decimal.Decimal `json:"payment_amount"`
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgFieldsRequired)
		return
	}
	if req.ClientID == "" || req.PaymentAmount == nil {
		writeError(w, http.StatusBadRequest, msgFieldsRequired)
		return
	}

	preview, err := h.amortizations.Calculate(r.Context(), req.ClientID, *req.PaymentAmount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAmountBelowMinimum):
			writeError(w, http.StatusBadRequest, msgMinimumAmount)
		case errors.Is(err, domain.ErrClientNotFound):
			writeError(w, http.StatusNotFound, msgClientNotFound)
		case errors.Is(err, domain.ErrNoOpenBillings):
			writeError(w, http.StatusBadRequest, msgNoOpenBillings)
		default:
			log.Printf("[HTTP] calculate error: %v", err)
			writeError(w, http.StatusInternalServerError, msgCalculateFailed)
		}
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

type createRequest struct {
	ClientID      string                     `json:"client_id"`
	PaymentAmount *decimal.Decimal           `json:"payment_amount"`
	Calculation   *service.AllocationPreview `json:"calculation"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgIncompleteData)
		return
	}
	if req.ClientID == "" || req.PaymentAmount == nil || req.Calculation == nil {
		writeError(w, http.StatusBadRequest, msgIncompleteData)
		return
	}
	if !req.PaymentAmount.Equal(req.Calculation.PaymentAmount) {
		writeError(w, http.StatusBadRequest, msgIncompleteData)
		return
	}

	a, err := h.amortizations.CreateRequest(r.Context(), req.ClientID, userID, req.Calculation)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			writeError(w, http.StatusForbidden, msgForbidden)
		case errors.Is(err, domain.ErrClientNotFound):
			writeError(w, http.StatusNotFound, msgClientNotFound)
		case errors.Is(err, domain.ErrInvalidCalculation):
			writeError(w, http.StatusBadRequest, msgIncompleteData)
		case errors.Is(err, domain.ErrAmountBelowMinimum):
			writeError(w, http.StatusBadRequest, msgMinimumAmount)
		default:
			log.Printf("[HTTP] create amortization error: %v", err)
			writeError(w, http.StatusInternalServerError, msgCreateFailed)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"payment_code":    a.PaymentCode,
		"amortization_id": a.ID,
		"message":         "Amortização registrada. Informe o código ao cliente.",
	})
}

type commitRequest struct {
	PaymentCode string `json:"payment_code"`
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentCode == "" {
		writeError(w, http.StatusBadRequest, msgPaymentCodeField)
		return
	}

	result, err := h.amortizations.Commit(r.Context(), req.PaymentCode, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrAlreadyProcessed):
			writeError(w, http.StatusNotFound, msgCommitNotFound)
		case errors.Is(err, domain.ErrForbidden):
			writeError(w, http.StatusForbidden, msgForbidden)
		default:
			// A failed commit rolled back; details stay in the log for
			// operator diagnosis, the caller gets a generic message.
			log.Printf("[HTTP] commit %s error: %v", req.PaymentCode, err)
			writeError(w, http.StatusInternalServerError, msgCommitFailed)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"message":           "Amortização processada com sucesso",
		"billings_affected": result.BillingsAffected,
		"billings_paid":     result.BillingsPaid,
		"remaining_credit":  result.RemainingCredit,
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	paymentCode := chi.URLParam(r, "payment_code")

	if err := h.amortizations.Cancel(r.Context(), paymentCode, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, msgNotFound)
		case errors.Is(err, domain.ErrAlreadyProcessed):
			writeError(w, http.StatusBadRequest, msgCannotCancel)
		case errors.Is(err, domain.ErrForbidden):
			writeError(w, http.StatusForbidden, msgForbidden)
		default:
			log.Printf("[HTTP] cancel %s error: %v", paymentCode, err)
			writeError(w, http.StatusInternalServerError, msgCreateFailed)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Amortização cancelada",
	})
}

type applicationResponse struct {
	BillingID          string          `json:"billing_id"`
	BillingDescription string          `json:"billing_description"`
	AmountApplied      decimal.Decimal `json:"amount_applied"`
	BillingRemaining   decimal.Decimal `json:"billing_remaining"`
	CreatedAt          time.Time       `json:"created_at"`
}

type amortizationResponse struct {
	ID              string                `json:"id"`
	ClientID        string                `json:"client_id"`
	PaymentAmount   decimal.Decimal       `json:"payment_amount"`
	DiscountApplied decimal.Decimal       `json:"discount_applied"`
	TotalCredit     decimal.Decimal       `json:"total_credit"`
	Status          string                `json:"status"`
	PaymentCode     string                `json:"payment_code"`
	CreatedAt       time.Time             `json:"created_at"`
	ProcessedAt     *time.Time            `json:"processed_at,omitempty"`
	Applications    []applicationResponse `json:"applications,omitempty"`
}

func (h *Handler) getAmortization(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	paymentCode := chi.URLParam(r, "payment_code")

	a, apps, err := h.amortizations.GetByCode(r.Context(), paymentCode, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, msgNotFound)
		case errors.Is(err, domain.ErrForbidden):
			writeError(w, http.StatusForbidden, msgForbidden)
		default:
			log.Printf("[HTTP] get amortization %s error: %v", paymentCode, err)
			writeError(w, http.StatusInternalServerError, msgCalculateFailed)
		}
		return
	}

	resp := amortizationResponse{
		ID:              a.ID,
		ClientID:        a.ClientID,
		PaymentAmount:   a.PaymentAmount,
		DiscountApplied: a.DiscountApplied,
		TotalCredit:     a.TotalCredit,
		Status:          string(a.Status),
		PaymentCode:     a.PaymentCode,
		CreatedAt:       a.CreatedAt,
		ProcessedAt:     a.ProcessedAt,
	}
	for _, app := range apps {
		resp.Applications = append(resp.Applications, applicationResponse{
			BillingID:          app.BillingID,
			BillingDescription: app.BillingDescription,
			AmountApplied:      app.AmountApplied,
			BillingRemaining:   app.BillingRemaining,
			CreatedAt:          app.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
