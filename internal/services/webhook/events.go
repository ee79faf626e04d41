package webhook

import (
	"time"

	"payflow/internal/models"
)

// Domain event names delivered to merchants.
const (
	EventPaymentCreated  = "payment.created"
	EventPaymentPending  = "payment.pending"
	EventPaymentSuccess  = "payment.success"
	EventPaymentFailed   = "payment.failed"
	EventRefundCreated   = "refund.created"
	EventRefundProcessed = "refund.processed"
)

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "Z"
}

func isoTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return isoTime(*t)
}

func paymentData(p *models.Payment) models.JSON {
	data := models.JSON{
		"id":         p.ID,
		"order_id":   p.OrderID,
		"amount":     p.Amount,
		"currency":   p.Currency,
		"method":     p.Method,
		"status":     p.Status,
		"created_at": isoTime(p.CreatedAt),
	}
	switch details := p.Details().(type) {
	case models.UPIDetails:
		data["vpa"] = details.VPA
	case models.CardDetails:
		data["card_network"] = details.Network
		data["card_last4"] = details.Last4
	}
	return data
}

func refundData(r *models.Refund) models.JSON {
	return models.JSON{
		"id":           r.ID,
		"payment_id":   r.PaymentID,
		"amount":       r.Amount,
		"reason":       r.Reason,
		"status":       r.Status,
		"created_at":   isoTime(r.CreatedAt),
		"processed_at": isoTimePtr(r.ProcessedAt),
	}
}

// PaymentEvent builds the notification payload for a payment state change.
func PaymentEvent(event string, p *models.Payment) models.JSON {
	return models.JSON{
		"event":     event,
		"timestamp": time.Now().Unix(),
		"data":      models.JSON{"payment": paymentData(p)},
	}
}

// RefundEvent builds the notification payload for a refund state change.
func RefundEvent(event string, r *models.Refund) models.JSON {
	return models.JSON{
		"event":     event,
		"timestamp": time.Now().Unix(),
		"data":      models.JSON{"refund": refundData(r)},
	}
}

// TestEvent builds the payload sent by the merchant webhook test endpoint.
func TestEvent() models.JSON {
	return models.JSON{
		"event":     EventPaymentSuccess,
		"timestamp": time.Now().Unix(),
		"data":      models.JSON{"payment": models.JSON{"id": "pay_test"}},
	}
}
