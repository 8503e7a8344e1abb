package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

// ReceiptStatus tracks an asynchronous receipt generation in Redis.
type ReceiptStatus struct {
	Key         string    `json:"key"`
	PaymentCode string    `json:"payment_code"`
	UserID      int64     `json:"user_id"`
	Progress    float64   `json:"progress"`
	FileURL     *string   `json:"file_url"`
	Error       *string   `json:"error,omitempty"`
	Created     time.Time `json:"created_at"`
}

const (
	receiptSetKey = "receipt_ids"
	receiptTTL    = 20 * time.Minute
)

// ReceiptCache is the Redis surface the receipt pipeline needs.
type ReceiptCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SAdd(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// ReceiptStorage persists generated receipt files (local dir or S3).
type ReceiptStorage interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
	GetURL(fileName string) string
}

// ReceiptNotifier pushes generation progress to the operator's session.
type ReceiptNotifier interface {
	NotifyReceiptProgress(ctx context.Context, userID int64, receiptID string, progress float64, stage string) error
	NotifyReceiptReady(ctx context.Context, userID int64, receiptID, url, filename string) error
	NotifyReceiptFailed(ctx context.Context, userID int64, receiptID, errMsg string) error
}

type ReceiptService struct {
	store   domain.LedgerStore
	cache   ReceiptCache
	storage ReceiptStorage
	ws      ReceiptNotifier
}

func NewReceiptService(store domain.LedgerStore, cache ReceiptCache, storage ReceiptStorage, ws ReceiptNotifier) *ReceiptService {
	return &ReceiptService{
		store:   store,
		cache:   cache,
		storage: storage,
		ws:      ws,
	}
}

func (s *ReceiptService) saveStatus(ctx context.Context, st *ReceiptStatus) error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, st.Key, string(data), receiptTTL); err != nil {
		return err
	}
	return s.cache.SAdd(ctx, receiptSetKey, st.Key)
}

// StartReceiptExport kicks off XLSX generation for a completed amortization
// and returns the receipt id the caller can poll.
func (s *ReceiptService) StartReceiptExport(ctx context.Context, paymentCode string, userID int64) (string, error) {
	req, err := s.store.FindAmortizationByCode(ctx, paymentCode)
	if err != nil {
		return "", err
	}
	if req.UserID != userID {
		return "", domain.ErrForbidden
	}
	if req.Status != domain.AmortizationCompleted {
		return "", domain.ErrReceiptUnavailable
	}

	receiptID := fmt.Sprintf("receipts:%s", uuid.NewString())
	now := time.Now()

	status := &ReceiptStatus{
		Key:         receiptID,
		PaymentCode: req.PaymentCode,
		UserID:      userID,
		Progress:    0,
		Created:     now,
	}
	_ = s.saveStatus(ctx, status)

	// The request context dies with the HTTP response; generation runs on
	// its own context.
	go s.runReceiptExport(context.Background(), receiptID, req, userID, now)

	return receiptID, nil
}

func (s *ReceiptService) runReceiptExport(ctx context.Context, receiptID string, req *domain.Amortization, userID int64, createdAt time.Time) {
	status := &ReceiptStatus{
		Key:         receiptID,
		PaymentCode: req.PaymentCode,
		UserID:      userID,
		Created:     createdAt,
	}

	fail := func(stage string, err error) {
		errStr := fmt.Sprintf("%s: %v", stage, err)
		log.Printf("receipt %s: %s", receiptID, errStr)
		status.Error = &errStr
		status.Progress = 100
		_ = s.saveStatus(ctx, status)
		if s.ws != nil {
			_ = s.ws.NotifyReceiptFailed(ctx, userID, receiptID, errStr)
		}
	}

	apps, err := s.store.ListApplications(ctx, req.ID)
	if err != nil {
		fail("load applications", err)
		return
	}

	status.Progress = 50
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyReceiptProgress(ctx, userID, receiptID, 50, "generating")
	}

	f, err := buildReceiptWorkbook(req, apps)
	if err != nil {
		fail("build workbook", err)
		return
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		fail("write workbook", err)
		return
	}

	if s.storage == nil {
		fail("save receipt", fmt.Errorf("no storage configured"))
		return
	}

	status.Progress = 95
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyReceiptProgress(ctx, userID, receiptID, 95, "uploading")
	}

	fileName := fmt.Sprintf("recibo_%s_%s.xlsx", req.PaymentCode, time.Now().Format("20060102_150405"))
	savedName, err := s.storage.Save(ctx, fileName, buf.Bytes())
	if err != nil {
		fail("save receipt", err)
		return
	}

	url := s.storage.GetURL(savedName)
	status.FileURL = &url
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyReceiptProgress(ctx, userID, receiptID, 100, "ready")
		_ = s.ws.NotifyReceiptReady(ctx, userID, receiptID, url, fileName)
	}
}

// buildReceiptWorkbook renders the committed allocation as a statement: a
// summary block followed by one row per application line.
func buildReceiptWorkbook(req *domain.Amortization, apps []domain.AllocationApplication) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Recibo"
	f.SetSheetName(f.GetSheetName(0), sheet)

	_ = f.SetDocProps(&excelize.DocProperties{Creator: fmt.Sprintf("user_%d", req.UserID)})

	summary := [][2]any{
		{"Código de pagamento", req.PaymentCode},
		{"Cliente", req.ClientID},
		{"Valor pago", req.PaymentAmount.StringFixed(2)},
		{"Bônus aplicado", req.DiscountApplied.StringFixed(2)},
		{"Crédito total", req.TotalCredit.StringFixed(2)},
	}
	if req.ProcessedAt != nil {
		summary = append(summary, [2]any{"Processado em", req.ProcessedAt.Format("02/01/2006 15:04")})
	}

	row := 1
	for _, kv := range summary {
		keyCell, _ := excelize.CoordinatesToCellName(1, row)
		valCell, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, keyCell, kv[0])
		_ = f.SetCellValue(sheet, valCell, kv[1])
		row++
	}
	row++

	headers := []string{"Cobrança", "Descrição", "Valor aplicado", "Saldo restante"}
	for i, hdr := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, hdr)
	}
	row++

	for _, app := range apps {
		values := []any{
			app.BillingID,
			app.BillingDescription,
			app.AmountApplied.StringFixed(2),
			app.BillingRemaining.StringFixed(2),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	return f, nil
}
