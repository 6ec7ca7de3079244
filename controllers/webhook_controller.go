package controllers

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
	"github.com/ostendo-io/wawagardenbar-app-sub002/services"
)

// WebhookController terminates the payment gateway callbacks. Both
// gateways follow the same sequence: verify the HMAC over the raw body
// before anything is parsed, filter to status-carrying events, map the
// gateway vocabulary to the internal one, and hand off to the
// reconciliation core. A 200 acknowledges receipt, including no-ops;
// anything non-2xx makes the gateway redeliver later.
type WebhookController struct {
	Payments       *services.PaymentService
	MonnifySecret  string
	PaystackSecret string
	Logger         *zap.Logger
}

type monnifyPayload struct {
	EventType string `json:"eventType"`
	EventData struct {
		PaymentReference     string `json:"paymentReference"`
		TransactionReference string `json:"transactionReference"`
		PaymentStatus        string `json:"paymentStatus"`
		AmountPaid           int    `json:"amountPaid"`
	} `json:"eventData"`
}

// MonnifyWebhook processes Monnify transaction events.
func (wc *WebhookController) MonnifyWebhook(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !verifySignature(raw, wc.MonnifySecret, c.GetHeader("monnify-signature")) {
		wc.Logger.Warn("Monnify webhook rejected", zap.Error(models.ErrInvalidSignature))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload monnifyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		wc.Logger.Warn("Failed to parse Monnify webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	// Disbursement and refund events carry no payment status and are
	// acknowledged untouched.
	if payload.EventData.PaymentReference == "" || payload.EventData.PaymentStatus == "" {
		wc.Logger.Info("Ignoring Monnify event without payment status",
			zap.String("event_type", payload.EventType),
		)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ev := services.GatewayEvent{
		Gateway:              "monnify",
		PaymentReference:     payload.EventData.PaymentReference,
		TransactionReference: payload.EventData.TransactionReference,
		Status:               mapMonnifyStatus(payload.EventData.PaymentStatus),
		AmountPaid:           payload.EventData.AmountPaid,
	}

	wc.dispatch(c, ev)
}

func mapMonnifyStatus(status string) models.PaymentStatus {
	switch status {
	case "PAID", "OVERPAID":
		return models.PaymentStatusPaid
	case "FAILED", "EXPIRED":
		return models.PaymentStatusFailed
	case "CANCELLED":
		return models.PaymentStatusCancelled
	default:
		return models.PaymentStatusPending
	}
}

type paystackPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int    `json:"amount"` // kobo
	} `json:"data"`
}

// PaystackWebhook processes Paystack charge events.
func (wc *WebhookController) PaystackWebhook(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !verifySignature(raw, wc.PaystackSecret, c.GetHeader("x-paystack-signature")) {
		wc.Logger.Warn("Paystack webhook rejected", zap.Error(models.ErrInvalidSignature))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload paystackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		wc.Logger.Warn("Failed to parse Paystack webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if payload.Event != "charge.success" {
		wc.Logger.Info("Ignoring Paystack event",
			zap.String("event", payload.Event),
		)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	status := models.PaymentStatusFailed
	if payload.Data.Status == "success" {
		status = models.PaymentStatusPaid
	}

	ev := services.GatewayEvent{
		Gateway:              "paystack",
		PaymentReference:     payload.Data.Reference,
		TransactionReference: fmt.Sprintf("%d", payload.Data.ID),
		Status:               status,
		AmountPaid:           payload.Data.Amount / 100,
	}

	wc.dispatch(c, ev)
}

func (wc *WebhookController) dispatch(c *gin.Context, ev services.GatewayEvent) {
	err := wc.Payments.Reconcile(c.Request.Context(), ev)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return
	}

	if isEntityNotFound(err) {
		// A reference mismatch between gateway and ledger. The gateway
		// retrying will not fix it, so acknowledge and flag for a human.
		wc.Logger.Error("Webhook payment reference matched no order or tab",
			zap.String("gateway", ev.Gateway),
			zap.String("payment_reference", ev.PaymentReference),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, gin.H{"status": "unmatched"})
		return
	}

	// Store failure: let the gateway redeliver, the guards make the
	// retry safe.
	wc.Logger.Error("Webhook reconciliation failed",
		zap.String("gateway", ev.Gateway),
		zap.String("payment_reference", ev.PaymentReference),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
}

// verifySignature recomputes the HMAC-SHA512 of the raw payload bytes.
// It never verifies a re-serialized object: re-serialization is not
// byte-stable, the raw body is.
func verifySignature(raw []byte, secret, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(raw)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
