package clients

import (
	"context"
	"fmt"

	ws "github.com/kauan1212/pix-zap-cobran-sub000/internal/transport/websocket"
)

// WebSocketClient pushes amortization lifecycle events to the owning
// operator's portal session.
type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

func (c *WebSocketClient) NotifyAmortizationCreated(ctx context.Context, userID int64, amortizationID, paymentCode string) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "amortization_created",
		Channel: fmt.Sprintf("notify_user_amortization#%d", userID),
		Data: map[string]interface{}{
			"amortization_id": amortizationID,
			"payment_code":    paymentCode,
		},
	}

	c.hub.Broadcast(userID, message)
	return nil
}

func (c *WebSocketClient) NotifyAmortizationCommitted(ctx context.Context, userID int64, paymentCode string, billingsAffected, billingsPaid int, remainingCredit string) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "amortization_committed",
		Channel: fmt.Sprintf("notify_user_amortization#%d", userID),
		Data: map[string]interface{}{
			"payment_code":      paymentCode,
			"billings_affected": billingsAffected,
			"billings_paid":     billingsPaid,
			"remaining_credit":  remainingCredit,
		},
	}

	c.hub.Broadcast(userID, message)
	return nil
}

func (c *WebSocketClient) NotifyReceiptProgress(ctx context.Context, userID int64, receiptID string, progress float64, stage string) error {
	if c.hub == nil {
		return nil
	}

	data := map[string]interface{}{
		"id":       receiptID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	message := &ws.Message{
		Type:    "receipt_progress",
		Channel: fmt.Sprintf("notify_user_receipt_progress#%d", userID),
		Data:    data,
	}

	c.hub.Broadcast(userID, message)
	return nil
}

func (c *WebSocketClient) NotifyReceiptReady(ctx context.Context, userID int64, receiptID, url, filename string) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "receipt_ready",
		Channel: fmt.Sprintf("notify_user_receipt_ready#%d", userID),
		Data: map[string]interface{}{
			"id":       receiptID,
			"url":      url,
			"filename": filename,
			"user_id":  userID,
		},
	}

	c.hub.Broadcast(userID, message)
	return nil
}

// NotifyReceiptFailed tells the user a receipt generation failed and why.
func (c *WebSocketClient) NotifyReceiptFailed(ctx context.Context, userID int64, receiptID string, errMsg string) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "receipt_failed",
		Channel: fmt.Sprintf("notify_user_receipt_failed#%d", userID),
		Data: map[string]interface{}{
			"id":      receiptID,
			"message": errMsg,
			"user_id": userID,
		},
	}

	c.hub.Broadcast(userID, message)
	return nil
}
