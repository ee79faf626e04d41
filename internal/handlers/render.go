package handlers

import (
	"time"

	"payflow/internal/models"
)

func iso(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "Z"
}

func isoPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return iso(*t)
}

func orderJSON(o *models.Order) map[string]interface{} {
	notes := o.Notes
	if notes == nil {
		notes = models.JSON{}
	}
	return map[string]interface{}{
		"id":          o.ID,
		"merchant_id": o.MerchantID.String(),
		"amount":      o.Amount,
		"currency":    o.Currency,
		"receipt":     o.Receipt,
		"notes":       notes,
		"status":      o.Status,
		"created_at":  iso(o.CreatedAt),
		"updated_at":  iso(o.UpdatedAt),
	}
}

func paymentJSON(p *models.Payment) map[string]interface{} {
	body := map[string]interface{}{
		"id":         p.ID,
		"order_id":   p.OrderID,
		"amount":     p.Amount,
		"currency":   p.Currency,
		"method":     p.Method,
		"status":     p.Status,
		"captured":   p.Captured,
		"created_at": iso(p.CreatedAt),
		"updated_at": iso(p.UpdatedAt),
	}
	switch details := p.Details().(type) {
	case models.UPIDetails:
		body["vpa"] = details.VPA
	case models.CardDetails:
		body["card_network"] = details.Network
		body["card_last4"] = details.Last4
	}
	if p.ErrorCode != "" {
		body["error_code"] = p.ErrorCode
		body["error_description"] = p.ErrorDescription
	}
	return body
}

func refundJSON(r *models.Refund) map[string]interface{} {
	return map[string]interface{}{
		"id":           r.ID,
		"payment_id":   r.PaymentID,
		"amount":       r.Amount,
		"reason":       r.Reason,
		"status":       r.Status,
		"created_at":   iso(r.CreatedAt),
		"processed_at": isoPtr(r.ProcessedAt),
	}
}

func webhookLogJSON(w *models.WebhookLog) map[string]interface{} {
	return map[string]interface{}{
		"id":              w.ID.String(),
		"event":           w.Event,
		"status":          w.Status,
		"attempts":        w.Attempts,
		"created_at":      iso(w.CreatedAt),
		"last_attempt_at": isoPtr(w.LastAttemptAt),
		"response_code":   w.ResponseCode,
	}
}
