package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/payments"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/storage"
)

type WebhookHandler struct {
	Logger     *slog.Logger
	Reconciler *payments.ReconcileService
	Archive    storage.Storage // optional
}

func NewWebhookHandler(logger *slog.Logger, rec *payments.ReconcileService, archive storage.Storage) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Reconciler: rec, Archive: archive}
}

type bankNotificationInput struct {
	TransactionID string `json:"transactionId"`
	Amount        int64  `json:"amount"`
	Content       string `json:"content"`
	AccountNo     string `json:"accountNo"`
	Timestamp     string `json:"timestamp"`
	BankCode      string `json:"bankCode"`
}

// POST /api/payments/webhook/bank-notification
//
// Always answers 200 or 400 with a success flag; the bank side never sees a
// 500. Rejections leave no state behind.
func (h *WebhookHandler) BankNotification(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid body"})
		return
	}

	var in bankNotificationInput
	if err := json.Unmarshal(body, &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid JSON payload"})
		return
	}
	if in.TransactionID == "" || in.Amount <= 0 || in.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "transactionId, amount and content are required",
		})
		return
	}

	h.archivePayload(c, in.TransactionID, body)

	n := payments.BankNotification{
		TransactionID: in.TransactionID,
		Amount:        in.Amount,
		Content:       in.Content,
		AccountNo:     in.AccountNo,
		BankCode:      in.BankCode,
		Timestamp:     in.Timestamp,
	}
	if err := h.Reconciler.HandleBankNotification(c.Request.Context(), n, body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "payment reconciled"})
}

// archivePayload stores the raw delivery for audit. Best-effort only.
func (h *WebhookHandler) archivePayload(c *gin.Context, transactionID string, body []byte) {
	if h.Archive == nil {
		return
	}
	_, err := h.Archive.Put(c.Request.Context(), bytes.NewReader(body), storage.PutInput{
		Filename:    "bank-notification-" + transactionID + ".json",
		ContentType: "application/json",
		Size:        int64(len(body)),
	})
	if err != nil {
		h.Logger.WarnContext(c.Request.Context(), "webhook payload archive failed",
			"transaction_id", transactionID, "err", err)
	}
}
