package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

// CommitResult summarizes what a confirmed amortization changed.
type CommitResult struct {
	AmortizationID   string          `json:"amortization_id"`
	PaymentCode      string          `json:"payment_code"`
	BillingsAffected int             `json:"billings_affected"`
	BillingsPaid     int             `json:"billings_paid"`
	RemainingCredit  decimal.Decimal `json:"remaining_credit"`
}

// Commit applies a confirmed amortization against the ledger. The whole
// allocation runs inside one transaction: the pending->processing
// compare-and-set acts as the mutual-exclusion gate, billings are re-read
// at commit time (not from the creation snapshot), credit is distributed
// oldest-due-date first and any leftover above Epsilon is banked as a
// client credit. On any failure the transaction rolls back and the request
// returns to pending for a clean retry.
func (s *AmortizationService) Commit(ctx context.Context, paymentCode string, confirmedBy int64) (*CommitResult, error) {
	req, err := s.store.FindAmortizationByCode(ctx, paymentCode)
	if err != nil {
		return nil, err
	}
	if req.UserID != confirmedBy {
		return nil, domain.ErrForbidden
	}
	if req.Status != domain.AmortizationPending {
		return nil, domain.ErrAlreadyProcessed
	}

	var result *CommitResult
	now := time.Now()

	err = s.store.WithTx(ctx, func(tx domain.LedgerStore) error {
		won, err := tx.MarkProcessing(ctx, req.ID)
		if err != nil {
			return err
		}
		if !won {
			// A concurrent commit (or a cancel) got here first.
			return domain.ErrAlreadyProcessed
		}

		billings, err := tx.ListOpenBillings(ctx, req.ClientID)
		if err != nil {
			return fmt.Errorf("reload open billings: %w", err)
		}

		remaining := req.TotalCredit
		var apps []domain.AllocationApplication
		billingsPaid := 0

		for _, b := range billings {
			if remaining.LessThanOrEqual(decimal.Zero) {
				break
			}
			debt := b.OutstandingDebt()
			if domain.Settled(debt) {
				continue
			}

			applied := domain.MinDecimal(remaining, debt)
			newAmortized := domain.RoundCents(b.AmortizedAmount.Add(applied))
			billingRemaining := domain.RoundCents(b.Amount.Sub(newAmortized))
			paid := domain.Settled(billingRemaining)

			var paymentDate *time.Time
			if paid {
				t := now
				paymentDate = &t
				billingsPaid++
			}

			if err := tx.ApplyToBilling(ctx, b.ID, newAmortized, paid, paymentDate); err != nil {
				return err
			}

			apps = append(apps, domain.AllocationApplication{
				ID:               uuid.NewString(),
				AmortizationID:   req.ID,
				BillingID:        b.ID,
				AmountApplied:    applied,
				BillingRemaining: billingRemaining,
				CreatedAt:        now,
			})

			remaining = domain.RoundCents(remaining.Sub(applied))
		}

		if len(apps) > 0 {
			if err := tx.InsertApplications(ctx, apps); err != nil {
				return err
			}
		}

		if remaining.GreaterThan(domain.Epsilon) {
			credit := &domain.ClientCredit{
				ID:         uuid.NewString(),
				ClientID:   req.ClientID,
				UserID:     req.UserID,
				Amount:     remaining,
				UsedAmount: decimal.Zero,
				Source:     domain.CreditSourceAmortization,
				Status:     domain.CreditActive,
				CreatedAt:  now,
			}
			if err := tx.InsertClientCredit(ctx, credit); err != nil {
				return err
			}
		}

		if err := tx.MarkCompleted(ctx, req.ID, confirmedBy, now); err != nil {
			return err
		}

		result = &CommitResult{
			AmortizationID:   req.ID,
			PaymentCode:      req.PaymentCode,
			BillingsAffected: len(apps),
			BillingsPaid:     billingsPaid,
			RemainingCredit:  remaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	details, _ := json.Marshal(result)
	s.audit.Record(ctx, domain.AuditEntry{
		AmortizationID: req.ID,
		Actor:          confirmedBy,
		Action:         domain.AuditProcessed,
		Details:        details,
	})

	if s.ws != nil {
		_ = s.ws.NotifyAmortizationCommitted(ctx, confirmedBy, req.PaymentCode,
			result.BillingsAffected, result.BillingsPaid, result.RemainingCredit.StringFixed(2))
	}

	return result, nil
}

// Cancel abandons a request that has not started processing. Anything past
// pending is immutable from here: applied credit is never silently undone.
func (s *AmortizationService) Cancel(ctx context.Context, paymentCode string, userID int64) error {
	req, err := s.store.FindAmortizationByCode(ctx, paymentCode)
	if err != nil {
		return err
	}
	if req.UserID != userID {
		return domain.ErrForbidden
	}

	cancelled, err := s.store.CancelPending(ctx, req.ID)
	if err != nil {
		return err
	}
	if !cancelled {
		return domain.ErrAlreadyProcessed
	}

	s.audit.Record(ctx, domain.AuditEntry{
		AmortizationID: req.ID,
		Actor:          userID,
		Action:         domain.AuditCancelled,
	})
	return nil
}

// GetByCode returns a request and, once completed, its application lines.
func (s *AmortizationService) GetByCode(ctx context.Context, paymentCode string, userID int64) (*domain.Amortization, []domain.AllocationApplication, error) {
	req, err := s.store.FindAmortizationByCode(ctx, paymentCode)
	if err != nil {
		return nil, nil, err
	}
	if req.UserID != userID {
		return nil, nil, domain.ErrForbidden
	}

	if req.Status != domain.AmortizationCompleted {
		return req, nil, nil
	}

	apps, err := s.store.ListApplications(ctx, req.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load applications: %w", err)
	}
	return req, apps, nil
}
