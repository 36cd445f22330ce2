package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/http/middleware"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/http/validation"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/payments"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/shared/apperr"
)

type RefundHandler struct {
	Logger  *slog.Logger
	Refunds *payments.RefundService
}

func NewRefundHandler(logger *slog.Logger, ref *payments.RefundService) *RefundHandler {
	return &RefundHandler{Logger: logger, Refunds: ref}
}

type createRefundInput struct {
	RefundAmount int64  `json:"refundAmount" binding:"omitempty,gt=0"`
	RefundReason string `json:"refundReason" binding:"omitempty,max=255"`
	ProcessedBy  string `json:"processedBy" binding:"omitempty,max=128"`
}

// POST /api/payments/:paymentId/refund
func (h *RefundHandler) Create(c *gin.Context) {
	var in createRefundInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Missing or invalid fields.", validation.FromBindError(err, &in)))
		return
	}

	ref, err := h.Refunds.CreateRefund(c.Request.Context(), payments.CreateRefundInput{
		PaymentID:   c.Param("paymentId"),
		Amount:      in.RefundAmount,
		Reason:      in.RefundReason,
		ProcessedBy: in.ProcessedBy,
	})
	if err != nil {
		failRefund(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Refund request created.",
		"refund":  ref,
	})
}

// GET /api/payments/:paymentId/refunds
func (h *RefundHandler) List(c *gin.Context) {
	refs, err := h.Refunds.ListRefunds(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "refunds": refs})
}

// GET /api/payments/:paymentId/refund-eligibility
func (h *RefundHandler) Eligibility(c *gin.Context) {
	elig, err := h.Refunds.CheckEligibility(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		failRefund(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "eligibility": elig})
}

func failRefund(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		middleware.Fail(c, apperr.NotFoundErr("Payment not found."))
	case errors.Is(err, payments.ErrRefundNotEligible):
		middleware.Fail(c, apperr.ConflictErr(apperrReason(err)))
	case errors.Is(err, payments.ErrRefundExceedsAvailable):
		middleware.Fail(c, apperr.ConflictErr("Refund amount exceeds the available refund amount."))
	default:
		middleware.Fail(c, apperr.Wrap(err))
	}
}

// apperrReason surfaces the eligibility reason attached to the sentinel.
func apperrReason(err error) string {
	if err == nil {
		return ""
	}
	return "Refund rejected: " + err.Error()
}
