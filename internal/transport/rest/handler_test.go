package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
	"github.com/kauan1212/pix-zap-cobran-sub000/internal/service"
	"github.com/kauan1212/pix-zap-cobran-sub000/internal/transport/auth"
)

func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}

type stubAmortizationService struct {
	calculateFn func(ctx context.Context, clientID string, paymentAmount decimal.Decimal) (*service.AllocationPreview, error)
	createFn    func(ctx context.Context, clientID string, userID int64, preview *service.AllocationPreview) (*domain.Amortization, error)
	commitFn    func(ctx context.Context, paymentCode string, confirmedBy int64) (*service.CommitResult, error)
	cancelFn    func(ctx context.Context, paymentCode string, userID int64) error
	getFn       func(ctx context.Context, paymentCode string, userID int64) (*domain.Amortization, []domain.AllocationApplication, error)
}

func (s *stubAmortizationService) Calculate(ctx context.Context, clientID string, paymentAmount decimal.Decimal) (*service.AllocationPreview, error) {
	return s.calculateFn(ctx, clientID, paymentAmount)
}

func (s *stubAmortizationService) CreateRequest(ctx context.Context, clientID string, userID int64, preview *service.AllocationPreview) (*domain.Amortization, error) {
	return s.createFn(ctx, clientID, userID, preview)
}

func (s *stubAmortizationService) Commit(ctx context.Context, paymentCode string, confirmedBy int64) (*service.CommitResult, error) {
	return s.commitFn(ctx, paymentCode, confirmedBy)
}

func (s *stubAmortizationService) Cancel(ctx context.Context, paymentCode string, userID int64) error {
	return s.cancelFn(ctx, paymentCode, userID)
}

func (s *stubAmortizationService) GetByCode(ctx context.Context, paymentCode string, userID int64) (*domain.Amortization, []domain.AllocationApplication, error) {
	return s.getFn(ctx, paymentCode, userID)
}

type stubReceiptService struct {
	startFn func(ctx context.Context, paymentCode string, userID int64) (string, error)
	listFn  func(ctx context.Context, userID int64) ([]map[string]any, error)
	getFn   func(ctx context.Context, receiptID string, userID int64) (map[string]any, error)
}

func (s *stubReceiptService) StartReceiptExport(ctx context.Context, paymentCode string, userID int64) (string, error) {
	return s.startFn(ctx, paymentCode, userID)
}

func (s *stubReceiptService) GetReceipts(ctx context.Context, userID int64) ([]map[string]any, error) {
	return s.listFn(ctx, userID)
}

func (s *stubReceiptService) GetReceipt(ctx context.Context, receiptID string, userID int64) (map[string]any, error) {
	return s.getFn(ctx, receiptID, userID)
}

// testAuth injects a fixed user id the way the token middleware would.
func testAuth(userID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

func newTestServer(amort *stubAmortizationService, receipts *stubReceiptService, userID int64) *httptest.Server {
	h := NewHandler(amort, receipts)
	return httptest.NewServer(h.InitRouterWithAuth(testAuth(userID)))
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCalculateHandler_MissingFields(t *testing.T) {
	svc := &stubAmortizationService{}
	ts := newTestServer(svc, &stubReceiptService{}, 1)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/amortization/calculate", map[string]any{"client_id": "c1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "client_id e payment_amount são obrigatórios", body["error"])
}

func TestCalculateHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"below minimum", domain.ErrAmountBelowMinimum, http.StatusBadRequest, "Valor mínimo para amortização é R$ 25,00"},
		{"client not found", domain.ErrClientNotFound, http.StatusNotFound, "Cliente não encontrado"},
		{"no open billings", domain.ErrNoOpenBillings, http.StatusBadRequest, "Cliente não possui cobranças pendentes"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubAmortizationService{
				calculateFn: func(ctx context.Context, clientID string, paymentAmount decimal.Decimal) (*service.AllocationPreview, error) {
					return nil, tc.err
				},
			}
			ts := newTestServer(svc, &stubReceiptService{}, 1)
			defer ts.Close()

			resp := postJSON(t, ts.URL+"/amortization/calculate", map[string]any{
				"client_id": "c1", "payment_amount": 100,
			})
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.Equal(t, tc.wantError, body["error"])
		})
	}
}

func TestCalculateHandler_AmountsAsNumbers(t *testing.T) {
	svc := &stubAmortizationService{
		calculateFn: func(ctx context.Context, clientID string, paymentAmount decimal.Decimal) (*service.AllocationPreview, error) {
			return &service.AllocationPreview{
				PaymentAmount:   decimal.RequireFromString("1000"),
				DiscountApplied: decimal.RequireFromString("100"),
				TotalCredit:     decimal.RequireFromString("1100"),
				HasDiscount:     true,
				RemainingCredit: decimal.Zero,
			}, nil
		},
	}
	ts := newTestServer(svc, &stubReceiptService{}, 1)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/amortization/calculate", map[string]any{
		"client_id": "c1", "payment_amount": 1000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	// Amounts serialize as JSON numbers, not quoted strings.
	assert.Equal(t, float64(1100), body["total_credit"])
	assert.Equal(t, float64(100), body["discount_applied"])
	assert.Equal(t, true, body["has_discount"])
}

func TestCreateHandler_Unauthenticated(t *testing.T) {
	h := NewHandler(&stubAmortizationService{}, &stubReceiptService{})
	ts := httptest.NewServer(h.InitRouter())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/amortization/", map[string]any{
		"client_id": "c1", "payment_amount": 100,
		"calculation": map[string]any{"payment_amount": 100},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Não autenticado", body["error"])
}

func TestCreateHandler_IncompleteData(t *testing.T) {
	ts := newTestServer(&stubAmortizationService{}, &stubReceiptService{}, 1)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/amortization/", map[string]any{"client_id": "c1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Dados incompletos", body["error"])
}

func TestCreateHandler_AmountMismatch(t *testing.T) {
	ts := newTestServer(&stubAmortizationService{}, &stubReceiptService{}, 1)
	defer ts.Close()

	// payment_amount disagrees with the attached calculation.
	resp := postJSON(t, ts.URL+"/amortization/", map[string]any{
		"client_id":      "c1",
		"payment_amount": 200,
		"calculation":    map[string]any{"payment_amount": 100},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Dados incompletos", body["error"])
}

func TestCreateHandler_Success(t *testing.T) {
	svc := &stubAmortizationService{
		createFn: func(ctx context.Context, clientID string, userID int64, preview *service.AllocationPreview) (*domain.Amortization, error) {
			assert.Equal(t, "c1", clientID)
			assert.Equal(t, int64(7), userID)
			return &domain.Amortization{
				ID:          "a1",
				PaymentCode: "AMT-ABCDEFGH",
				Status:      domain.AmortizationPending,
			}, nil
		},
	}
	ts := newTestServer(svc, &stubReceiptService{}, 7)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/amortization/", map[string]any{
		"client_id":      "c1",
		"payment_amount": 100,
		"calculation":    map[string]any{"payment_amount": 100},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "AMT-ABCDEFGH", body["payment_code"])
	assert.Equal(t, "a1", body["amortization_id"])
}

func TestCommitHandler_NotFoundAndProcessedShareMessage(t *testing.T) {
	for _, err := range []error{domain.ErrNotFound, domain.ErrAlreadyProcessed} {
		svc := &stubAmortizationService{
			commitFn: func(ctx context.Context, paymentCode string, confirmedBy int64) (*service.CommitResult, error) {
				return nil, err
			},
		}
		ts := newTestServer(svc, &stubReceiptService{}, 1)

		resp := postJSON(t, ts.URL+"/amortization/commit", map[string]any{"payment_code": "AMT-XXXXXXXX"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Amortização não encontrada ou já processada", body["error"])
		ts.Close()
	}
}

func TestCommitHandler_Success(t *testing.T) {
	svc := &stubAmortizationService{
		commitFn: func(ctx context.Context, paymentCode string, confirmedBy int64) (*service.CommitResult, error) {
			assert.Equal(t, "AMT-ABCDEFGH", paymentCode)
			return &service.CommitResult{
				AmortizationID:   "a1",
				PaymentCode:      paymentCode,
				BillingsAffected: 2,
				BillingsPaid:     1,
				RemainingCredit:  decimal.RequireFromString("650.00"),
			}, nil
		},
	}
	ts := newTestServer(svc, &stubReceiptService{}, 1)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/amortization/commit", map[string]any{"payment_code": "AMT-ABCDEFGH"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["billings_affected"])
	assert.Equal(t, float64(1), body["billings_paid"])
	assert.Equal(t, float64(650), body["remaining_credit"])
}

func TestCancelHandler(t *testing.T) {
	svc := &stubAmortizationService{
		cancelFn: func(ctx context.Context, paymentCode string, userID int64) error {
			return nil
		},
	}
	ts := newTestServer(svc, &stubReceiptService{}, 1)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/amortization/AMT-ABCDEFGH/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Amortização cancelada", body["message"])

	svc.cancelFn = func(ctx context.Context, paymentCode string, userID int64) error {
		return domain.ErrAlreadyProcessed
	}
	resp = postJSON(t, ts.URL+"/amortization/AMT-ABCDEFGH/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Amortização não pode mais ser cancelada", body["error"])
}

func TestGetAmortizationHandler(t *testing.T) {
	processedAt := time.Date(2026, time.March, 2, 15, 0, 0, 0, time.UTC)
	svc := &stubAmortizationService{
		getFn: func(ctx context.Context, paymentCode string, userID int64) (*domain.Amortization, []domain.AllocationApplication, error) {
			return &domain.Amortization{
					ID:            "a1",
					ClientID:      "c1",
					PaymentAmount: decimal.RequireFromString("100.00"),
					TotalCredit:   decimal.RequireFromString("100.00"),
					Status:        domain.AmortizationCompleted,
					PaymentCode:   paymentCode,
					ProcessedAt:   &processedAt,
				}, []domain.AllocationApplication{
					{
						BillingID:          "b1",
						BillingDescription: "Aluguel janeiro",
						AmountApplied:      decimal.RequireFromString("100.00"),
						BillingRemaining:   decimal.Zero,
					},
				}, nil
		},
	}
	ts := newTestServer(svc, &stubReceiptService{}, 1)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/amortization/AMT-ABCDEFGH")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	assert.Equal(t, "completed", body["status"])
	apps, ok := body["applications"].([]any)
	require.True(t, ok)
	require.Len(t, apps, 1)
	line := apps[0].(map[string]any)
	assert.Equal(t, "b1", line["billing_id"])
	assert.Equal(t, "Aluguel janeiro", line["billing_description"])
	assert.Equal(t, float64(100), line["amount_applied"])
}

func TestReceiptHandlers(t *testing.T) {
	receipts := &stubReceiptService{
		startFn: func(ctx context.Context, paymentCode string, userID int64) (string, error) {
			return "receipts:abc", nil
		},
		listFn: func(ctx context.Context, userID int64) ([]map[string]any, error) {
			return nil, nil
		},
		getFn: func(ctx context.Context, receiptID string, userID int64) (map[string]any, error) {
			return map[string]any{"key": receiptID, "progress": float64(100)}, nil
		},
	}
	ts := newTestServer(&stubAmortizationService{}, receipts, 1)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/amortization/AMT-ABCDEFGH/receipt", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "receipts:abc", body["receipt_id"])

	resp, err := http.Get(ts.URL + "/receipts/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	list, ok := body["receipts"].([]any)
	require.True(t, ok)
	assert.Empty(t, list)

	resp, err = http.Get(ts.URL + "/receipts/receipts:abc")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "receipts:abc", body["key"])
}

func TestReceiptHandler_NotCompleted(t *testing.T) {
	receipts := &stubReceiptService{
		startFn: func(ctx context.Context, paymentCode string, userID int64) (string, error) {
			return "", domain.ErrReceiptUnavailable
		},
	}
	ts := newTestServer(&stubAmortizationService{}, receipts, 1)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/amortization/AMT-ABCDEFGH/receipt", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Recibo disponível apenas para amortizações concluídas", body["error"])
}
