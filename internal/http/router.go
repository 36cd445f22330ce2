package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/http/handlers"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/http/middleware"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/invoices"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/payments"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/storage"
)

func NewRouter(logger *slog.Logger, db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.ErrorHandler(logger),
	)

	bank := payments.BankAccountFromEnv()

	paySvc := payments.NewService(db)
	paySvc.SetLogger(logger)
	recSvc := payments.NewReconcileService(db, payments.NewSimulatedProvider())
	recSvc.SetLogger(logger)
	refSvc := payments.NewRefundService(db)
	refSvc.SetLogger(logger)
	invRepo := invoices.NewRepo(db)

	var archive storage.Storage
	if res, err := storage.FromEnv(context.Background()); err != nil {
		logger.Warn("webhook archive disabled", "err", err)
	} else {
		archive = res.Storage
	}

	ph := handlers.NewPaymentHandler(logger, bank, paySvc, recSvc, refSvc, invRepo)
	rh := handlers.NewRefundHandler(logger, refSvc)
	wh := handlers.NewWebhookHandler(logger, recSvc, archive)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})

	api := r.Group("/api/payments")
	{
		api.POST("/vietqr/generate", ph.GenerateVietQR)
		api.POST("/vietqr/verify", ph.VerifyVietQR)
		api.GET("/status/:paymentId", ph.Status)
		api.POST("/force-verify/:paymentId", ph.ForceVerify)
		api.POST("/retry/:paymentId", ph.Retry)
		api.POST("/webhook/bank-notification", wh.BankNotification)
		api.POST("/batch/check-notifications", ph.BatchCheckNotifications)

		api.GET("/:paymentId/status-with-notification", ph.StatusWithNotification)
		api.POST("/:paymentId/refund", rh.Create)
		api.GET("/:paymentId/refunds", rh.List)
		api.GET("/:paymentId/refund-eligibility", rh.Eligibility)
	}

	return r
}
