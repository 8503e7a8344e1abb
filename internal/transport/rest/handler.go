package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
	"github.com/kauan1212/pix-zap-cobran-sub000/internal/service"
)

type AmortizationService interface {
	Calculate(ctx context.Context, clientID string, paymentAmount decimal.Decimal) (*service.AllocationPreview, error)
	CreateRequest(ctx context.Context, clientID string, userID int64, preview *service.AllocationPreview) (*domain.Amortization, error)
	Commit(ctx context.Context, paymentCode string, confirmedBy int64) (*service.CommitResult, error)
	Cancel(ctx context.Context, paymentCode string, userID int64) error
	GetByCode(ctx context.Context, paymentCode string, userID int64) (*domain.Amortization, []domain.AllocationApplication, error)
}

type ReceiptService interface {
	StartReceiptExport(ctx context.Context, paymentCode string, userID int64) (string, error)
	GetReceipts(ctx context.Context, userID int64) ([]map[string]any, error)
	GetReceipt(ctx context.Context, receiptID string, userID int64) (map[string]any, error)
}

type Handler struct {
	amortizations AmortizationService
	receipts      ReceiptService
}

func NewHandler(amortizations AmortizationService, receipts ReceiptService) *Handler {
	return &Handler{
		amortizations: amortizations,
		receipts:      receipts,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Route("/amortization", func(r chi.Router) {
		r.Post("/calculate", h.calculate)
		r.Post("/", h.create)
		r.Post("/commit", h.commit)
		r.Get("/{payment_code}", h.getAmortization)
		r.Post("/{payment_code}/cancel", h.cancel)
		r.Post("/{payment_code}/receipt", h.createReceipt)
	})

	r.Route("/receipts", func(r chi.Router) {
		r.Get("/", h.listReceipts)
		r.Get("/{receipt_id}", h.getReceipt)
	})

	return r
}
