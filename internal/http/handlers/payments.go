package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/http/middleware"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/http/validation"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/invoices"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/payments"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/shared/apperr"
)

// qrExpiry is how long a generated VietQR payment request stays payable.
const qrExpiry = 15 * time.Minute

// notificationWindow is the "did anything change recently" window the
// polling endpoints report on.
const notificationWindow = 2 * time.Minute

type PaymentHandler struct {
	Logger     *slog.Logger
	Bank       payments.BankAccount
	Payments   *payments.Service
	Reconciler *payments.ReconcileService
	Refunds    *payments.RefundService
	Invoices   *invoices.Repo
}

func NewPaymentHandler(
	logger *slog.Logger,
	bank payments.BankAccount,
	pay *payments.Service,
	rec *payments.ReconcileService,
	ref *payments.RefundService,
	inv *invoices.Repo,
) *PaymentHandler {
	return &PaymentHandler{
		Logger:     logger,
		Bank:       bank,
		Payments:   pay,
		Reconciler: rec,
		Refunds:    ref,
		Invoices:   inv,
	}
}

type generateInput struct {
	InvoiceID   int64  `json:"invoiceId" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"omitempty,max=255"`
	Template    string `json:"template" binding:"omitempty,oneof=compact compact2 qr_only print"`

	// Accepted for backward compatibility, always overridden by the
	// configured receiving account.
	BankID    string `json:"bankId"`
	AccountNo string `json:"accountNo"`
}

// POST /api/payments/vietqr/generate
func (h *PaymentHandler) GenerateVietQR(c *gin.Context) {
	var in generateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Missing or invalid fields.", validation.FromBindError(err, &in)))
		return
	}

	inv, err := h.Invoices.Get(c.Request.Context(), in.InvoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("Invoice not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if inv.PaymentStatus == invoices.StatusPaid {
		middleware.Fail(c, apperr.ConflictErr("Invoice is already paid."))
		return
	}

	qr, err := payments.BuildQR(h.Bank, payments.QRInput{
		Amount:      in.Amount,
		InvoiceID:   in.InvoiceID,
		Description: in.Description,
		Template:    in.Template,
	})
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid amount.", nil))
		return
	}

	p, err := h.Payments.Create(c.Request.Context(), payments.CreatePaymentInput{
		InvoiceID: in.InvoiceID,
		Method:    payments.MethodVietQR,
		Amount:    in.Amount,
		QRCodeURL: &qr.URL,
		ExpiresIn: qrExpiry,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"paymentId":    p.ID,
		"status":       p.Status,
		"qrCodeUrl":    qr.URL,
		"transferInfo": qr.Transfer,
		"expiryDate":   p.ExpiryDate,
	})
}

type verifyInput struct {
	PaymentID     string `json:"paymentId" binding:"required"`
	TransactionID string `json:"transactionId" binding:"required"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Content       string `json:"content" binding:"required"`
}

// POST /api/payments/vietqr/verify
func (h *PaymentHandler) VerifyVietQR(c *gin.Context) {
	var in verifyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Missing or invalid fields.", validation.FromBindError(err, &in)))
		return
	}

	p, err := h.Reconciler.VerifyManual(c.Request.Context(), payments.VerifyInput{
		PaymentID:     in.PaymentID,
		TransactionID: in.TransactionID,
		Amount:        in.Amount,
		Content:       in.Content,
	})
	if err != nil {
		failPayment(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment verified.",
		"payment": p,
	})
}

// GET /api/payments/status/:paymentId
func (h *PaymentHandler) Status(c *gin.Context) {
	p, err := h.Payments.Get(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		failPayment(c, err)
		return
	}

	inv, err := h.Invoices.Get(c.Request.Context(), p.InvoiceID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	logs, err := h.Payments.Logs(c.Request.Context(), p.ID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"payment":   p,
		"invoice":   inv,
		"logs":      logs,
		"isExpired": p.IsExpired(time.Now()),
	})
}

// POST /api/payments/force-verify/:paymentId
func (h *PaymentHandler) ForceVerify(c *gin.Context) {
	p, err := h.Reconciler.ForceVerify(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		failPayment(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment force-verified.",
		"payment": p,
	})
}

// POST /api/payments/retry/:paymentId
func (h *PaymentHandler) Retry(c *gin.Context) {
	p, err := h.Payments.Retry(c.Request.Context(), c.Param("paymentId"), qrExpiry)
	if err != nil {
		failPayment(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment re-armed.",
		"payment": p,
	})
}

// GET /api/payments/:paymentId/status-with-notification
//
// The polling endpoint is also what triggers auto-verification: a pending
// payment gets probed against the bank provider before answering, so a
// client that keeps polling can complete a payment even when no webhook
// ever arrives.
func (h *PaymentHandler) StatusWithNotification(c *gin.Context) {
	id := c.Param("paymentId")

	p, err := h.Payments.Get(c.Request.Context(), id)
	if err != nil {
		failPayment(c, err)
		return
	}

	autoVerified := false
	if p.Status == payments.StatusPending {
		verified, latest, err := h.Reconciler.CheckWithProvider(c.Request.Context(), id)
		if err != nil {
			// the poll answer is still useful without the probe
			h.Logger.WarnContext(c.Request.Context(), "auto verification failed",
				"payment_id", id, "err", err)
		} else {
			p = latest
			autoVerified = verified
		}
	}

	changed, err := h.Payments.ChangedSince(c.Request.Context(), id, notificationWindow)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"paymentId":     p.ID,
		"status":        p.Status,
		"autoVerified":  autoVerified,
		"statusChanged": changed,
		"isExpired":     p.IsExpired(time.Now()),
	})
}

type batchCheckInput struct {
	PaymentIDs []string `json:"paymentIds" binding:"required,min=1,max=50"`
}

// POST /api/payments/batch/check-notifications
func (h *PaymentHandler) BatchCheckNotifications(c *gin.Context) {
	var in batchCheckInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Missing or invalid fields.", validation.FromBindError(err, &in)))
		return
	}

	results := make([]gin.H, 0, len(in.PaymentIDs))
	for _, id := range in.PaymentIDs {
		p, err := h.Payments.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				results = append(results, gin.H{"paymentId": id, "found": false})
				continue
			}
			middleware.Fail(c, apperr.Wrap(err))
			return
		}

		changed, err := h.Payments.ChangedSince(c.Request.Context(), id, notificationWindow)
		if err != nil {
			middleware.Fail(c, apperr.Wrap(err))
			return
		}
		results = append(results, gin.H{
			"paymentId":     p.ID,
			"found":         true,
			"status":        p.Status,
			"statusChanged": changed,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

// failPayment maps payment-core errors onto the error taxonomy.
func failPayment(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		middleware.Fail(c, apperr.NotFoundErr("Payment not found."))
	case errors.Is(err, payments.ErrAlreadyCompleted):
		middleware.Fail(c, apperr.ConflictErr("Payment already completed."))
	case errors.Is(err, payments.ErrMemoFormat):
		middleware.Fail(c, apperr.InvalidErr("Invalid content format: missing HOTELHUB INV pattern.", nil))
	case errors.Is(err, payments.ErrMemoMismatch):
		middleware.Fail(c, apperr.InvalidErr("Content does not reference this payment's invoice.", nil))
	case errors.Is(err, payments.ErrAmountMismatch):
		middleware.Fail(c, apperr.InvalidErr("Amount does not match the pending payment.", nil))
	case errors.Is(err, payments.ErrRetryExhausted):
		middleware.Fail(c, apperr.ConflictErr("Payment cannot be retried."))
	default:
		middleware.Fail(c, apperr.Wrap(err))
	}
}
