package rest

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
	"github.com/kauan1212/pix-zap-cobran-sub000/internal/transport/auth"
)

const (
	msgReceiptUnavailable = "Recibo disponível apenas para amortizações concluídas"
	msgReceiptFailed      = "Erro ao gerar recibo"
	msgReceiptNotFound    = "Recibo não encontrado"
)

func (h *Handler) createReceipt(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	paymentCode := chi.URLParam(r, "payment_code")

	receiptID, err := h.receipts.StartReceiptExport(r.Context(), paymentCode, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, msgNotFound)
		case errors.Is(err, domain.ErrForbidden):
			writeError(w, http.StatusForbidden, msgForbidden)
		case errors.Is(err, domain.ErrReceiptUnavailable):
			writeError(w, http.StatusBadRequest, msgReceiptUnavailable)
		default:
			log.Printf("[HTTP] start receipt %s error: %v", paymentCode, err)
			writeError(w, http.StatusInternalServerError, msgReceiptFailed)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":    true,
		"receipt_id": receiptID,
		"message":    "Geração do recibo iniciada",
	})
}

func (h *Handler) listReceipts(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	receipts, err := h.receipts.GetReceipts(r.Context(), userID)
	if err != nil {
		log.Printf("[HTTP] list receipts error: %v", err)
		writeError(w, http.StatusInternalServerError, msgReceiptFailed)
		return
	}
	if receipts == nil {
		receipts = []map[string]any{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"receipts": receipts})
}

func (h *Handler) getReceipt(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	receiptID := chi.URLParam(r, "receipt_id")

	receipt, err := h.receipts.GetReceipt(r.Context(), receiptID, userID)
	if err != nil {
		writeError(w, http.StatusNotFound, msgReceiptNotFound)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}
