package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// GetReceipts lists the caller's receipt exports, newest first.
func (s *ReceiptService) GetReceipts(ctx context.Context, userID int64) ([]map[string]any, error) {
	if s.cache == nil {
		return nil, errors.New("receipt cache not configured")
	}

	keys, err := s.cache.SMembers(ctx, receiptSetKey)
	if err != nil {
		return nil, fmt.Errorf("list receipt keys: %w", err)
	}

	var statuses []ReceiptStatus
	for _, key := range keys {
		data, err := s.cache.Get(ctx, key)
		if err != nil {
			// Expired entries linger in the set until their TTL removal.
			continue
		}

		var status ReceiptStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}
		if status.UserID == userID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	var receipts []map[string]any
	for _, status := range statuses {
		receipts = append(receipts, receiptMap(status))
	}
	return receipts, nil
}

// GetReceipt returns one receipt export the caller owns.
func (s *ReceiptService) GetReceipt(ctx context.Context, receiptID string, userID int64) (map[string]any, error) {
	if s.cache == nil {
		return nil, errors.New("receipt cache not configured")
	}

	data, err := s.cache.Get(ctx, receiptID)
	if err != nil {
		return nil, errors.New("receipt not found")
	}

	var status ReceiptStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("parse receipt status: %w", err)
	}
	if status.UserID != userID {
		return nil, errors.New("receipt not found")
	}

	return receiptMap(status), nil
}

func receiptMap(status ReceiptStatus) map[string]any {
	return map[string]any{
		"key":          status.Key,
		"payment_code": status.PaymentCode,
		"user_id":      status.UserID,
		"progress":     status.Progress,
		"file_url":     status.FileURL,
		"error":        status.Error,
		"created_at":   humanizePtAgo(status.Created),
	}
}

func humanizePtAgo(t time.Time) string {
	now := time.Now()
	if t.After(now) {
		return "agora mesmo"
	}

	diff := now.Sub(t)
	minutes := int(diff.Minutes())
	if minutes < 1 {
		return "agora mesmo"
	}
	if minutes < 60 {
		return fmt.Sprintf("há %d %s", minutes, ptPlural(minutes, "minuto", "minutos"))
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("há %d %s", hours, ptPlural(hours, "hora", "horas"))
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("há %d %s", days, ptPlural(days, "dia", "dias"))
	}
	return t.Format("02/01/2006 15:04")
}

func ptPlural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
