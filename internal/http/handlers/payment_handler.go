package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oficios-mz/backend/internal/http/handlers/common"
	"github.com/oficios-mz/backend/internal/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
	webhooks *service.WebhookService
}

func NewPaymentHandler(payments *service.PaymentService, webhooks *service.WebhookService) *PaymentHandler {
	return &PaymentHandler{payments: payments, webhooks: webhooks}
}

// Create POST /api/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		JobID  string  `json:"job_id" binding:"required"`
		Amount float64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "se requieren job_id y un monto positivo")
		return
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		common.RespondBadRequest(c, "job_id inválido")
		return
	}

	payment, err := h.payments.CreatePayment(c.Request.Context(), userID, jobID, req.Amount)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// Get GET /api/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payment, err := h.payments.GetPayment(c.Request.Context(), userID, common.IsAdmin(c), paymentID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// GetByJob GET /api/payments/job/:jobId
func (h *PaymentHandler) GetByJob(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "jobId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payment, err := h.payments.GetPaymentByJob(c.Request.Context(), userID, common.IsAdmin(c), jobID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ListByUser GET /api/payments/user/:userId
func (h *PaymentHandler) ListByUser(c *gin.Context) {
	requesterID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	targetID, err := common.ParseUUIDParam(c, "userId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	status := c.Query("status")

	payments, err := h.payments.ListUserPayments(c.Request.Context(), requesterID, common.IsAdmin(c), targetID, status, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// Stats GET /api/payments/user/:userId/stats
func (h *PaymentHandler) Stats(c *gin.Context) {
	requesterID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	targetID, err := common.ParseUUIDParam(c, "userId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	stats, err := h.payments.GetUserStats(c.Request.Context(), requesterID, common.IsAdmin(c), targetID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Hold PATCH /api/payments/:id/hold
func (h *PaymentHandler) Hold(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payment, err := h.payments.HoldPayment(c.Request.Context(), userID, paymentID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// Release PATCH /api/payments/:id/release
func (h *PaymentHandler) Release(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payment, err := h.payments.ReleasePayment(c.Request.Context(), userID, paymentID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// AutoRelease POST /api/payments/auto-release (solo admin)
func (h *PaymentHandler) AutoRelease(c *gin.Context) {
	released, err := h.payments.AutoReleaseStale(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"released": released})
}

// Webhook POST /api/payments/webhook
// Siempre responde 200: Mercado Pago reintenta ante cualquier otro
// código y el resultado real viaja en el cuerpo y en los logs.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusOK, service.WebhookResult{Status: service.WebhookStatusError, Message: "no se pudo leer el cuerpo"})
		return
	}

	signature := c.GetHeader("x-signature")
	result := h.webhooks.HandleEvent(c.Request.Context(), rawBody, signature)

	c.JSON(http.StatusOK, result)
}
