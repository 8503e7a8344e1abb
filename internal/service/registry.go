package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

const (
	// No 0/O/1/I: the code is read to payers over the phone.
	paymentCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	paymentCodeLength   = 8
	paymentCodePrefix   = "AMT-"

	maxCodeAttempts    = 5
	codeReservationTTL = 10 * time.Minute
)

// CreateRequest turns an accepted calculation into a pending amortization
// with a unique payment code. The caller must own the client. The stored
// discount and total credit are re-derived from the payment amount; a
// preview whose totals disagree is rejected rather than trusted.
func (s *AmortizationService) CreateRequest(ctx context.Context, clientID string, userID int64, preview *AllocationPreview) (*domain.Amortization, error) {
	if preview == nil {
		return nil, domain.ErrInvalidCalculation
	}

	client, err := s.store.FindClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.UserID != userID {
		return nil, domain.ErrForbidden
	}

	paymentAmount := domain.RoundCents(preview.PaymentAmount)
	if paymentAmount.LessThan(s.cfg.MinimumAmount) {
		return nil, domain.ErrAmountBelowMinimum
	}

	discount := decimal.Zero
	if paymentAmount.GreaterThanOrEqual(s.cfg.DiscountThreshold) {
		discount = domain.RoundCents(paymentAmount.Mul(s.cfg.DiscountRate))
	}
	totalCredit := paymentAmount.Add(discount)

	if !preview.TotalCredit.Equal(totalCredit) || !preview.DiscountApplied.Equal(discount) {
		return nil, domain.ErrInvalidCalculation
	}

	code, err := s.generatePaymentCode(ctx)
	if err != nil {
		return nil, err
	}

	a := &domain.Amortization{
		ID:              uuid.NewString(),
		ClientID:        clientID,
		UserID:          userID,
		PaymentAmount:   paymentAmount,
		DiscountApplied: discount,
		TotalCredit:     totalCredit,
		Status:          domain.AmortizationPending,
		PaymentCode:     code,
		CreatedAt:       time.Now(),
	}

	if err := s.store.InsertAmortization(ctx, a); err != nil {
		return nil, fmt.Errorf("persist amortization: %w", err)
	}

	// The full preview goes into the audit trail so the allocation can be
	// reconciled later even if billings change before commit.
	details, err := json.Marshal(preview)
	if err != nil {
		details = nil
	}
	s.audit.Record(ctx, domain.AuditEntry{
		AmortizationID: a.ID,
		Actor:          userID,
		Action:         domain.AuditCreated,
		Details:        details,
	})

	if s.ws != nil {
		_ = s.ws.NotifyAmortizationCreated(ctx, userID, a.ID, a.PaymentCode)
	}

	return a, nil
}

func (s *AmortizationService) generatePaymentCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomPaymentCode()
		if err != nil {
			return "", err
		}

		if s.codes != nil {
			reserved, err := s.codes.ReservePaymentCode(ctx, code, codeReservationTTL)
			if err != nil {
				// Reservation is an optimization; the DB check below
				// still guards correctness.
				log.Printf("payment code reservation unavailable: %v", err)
			} else if !reserved {
				continue
			}
		}

		exists, err := s.store.PaymentCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("payment code check: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", domain.ErrPaymentCodeExhausted
}

func randomPaymentCode() (string, error) {
	buf := make([]byte, paymentCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate payment code: %w", err)
	}
	out := make([]byte, paymentCodeLength)
	for i, b := range buf {
		out[i] = paymentCodeAlphabet[int(b)%len(paymentCodeAlphabet)]
	}
	return paymentCodePrefix + string(out), nil
}
