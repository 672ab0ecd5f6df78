package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oficios-mz/backend/internal/http/handlers/common"
	"github.com/oficios-mz/backend/internal/service"
	"github.com/oficios-mz/backend/internal/storage"
)

type DisputeHandler struct {
	disputes *service.DisputeService
	evidence *storage.EvidenceStorage
}

func NewDisputeHandler(disputes *service.DisputeService, evidence *storage.EvidenceStorage) *DisputeHandler {
	return &DisputeHandler{disputes: disputes, evidence: evidence}
}

// Create POST /api/disputes
func (h *DisputeHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		PaymentID   string `json:"payment_id" binding:"required"`
		Reason      string `json:"reason" binding:"required"`
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "se requieren payment_id, reason y description")
		return
	}

	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		common.RespondBadRequest(c, "payment_id inválido")
		return
	}

	dispute, err := h.disputes.OpenDispute(c.Request.Context(), userID, paymentID, req.Reason, req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dispute)
}

// Get GET /api/disputes/:id
func (h *DisputeHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.disputes.GetDispute(c.Request.Context(), userID, common.IsAdmin(c), disputeID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// ListMine GET /api/disputes
func (h *DisputeHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	status := c.Query("status")

	disputes, err := h.disputes.ListUserDisputes(c.Request.Context(), userID, status, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// ListAll GET /api/admin/disputes (solo admin)
func (h *DisputeHandler) ListAll(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	status := c.Query("status")

	disputes, err := h.disputes.ListAllDisputes(c.Request.Context(), common.IsAdmin(c), status, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// UpdateStatus PATCH /api/admin/disputes/:id/status (solo admin)
func (h *DisputeHandler) UpdateStatus(c *gin.Context) {
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Status     string  `json:"status" binding:"required"`
		AdminNotes *string `json:"admin_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "se requiere status")
		return
	}

	dispute, err := h.disputes.UpdateStatus(c.Request.Context(), common.IsAdmin(c), disputeID, req.Status, req.AdminNotes)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// Resolve PATCH /api/admin/disputes/:id/resolve (solo admin)
func (h *DisputeHandler) Resolve(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Outcome    string  `json:"outcome"`
		Resolution string  `json:"resolution" binding:"required"`
		AdminNotes *string `json:"admin_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "se requiere resolution")
		return
	}

	dispute, err := h.disputes.ResolveDispute(c.Request.Context(), adminID, common.IsAdmin(c), disputeID, req.Outcome, req.Resolution, req.AdminNotes)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// UploadEvidence POST /api/disputes/:id/evidence
func (h *DisputeHandler) UploadEvidence(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "se requiere un archivo en el campo file")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "no se pudo abrir el archivo")
		return
	}
	defer f.Close()

	relPath, mimeType, err := h.evidence.Save(c.Request.Context(), disputeID, fileHeader.Filename, f)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var description *string
	if d := c.PostForm("description"); d != "" {
		description = &d
	}

	evidence, err := h.disputes.AddEvidence(c.Request.Context(), userID, disputeID, relPath, mimeType, description)
	if err != nil {
		// La disputa rechazó la evidencia; el archivo huérfano se limpia.
		_ = h.evidence.Delete(c.Request.Context(), relPath)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, evidence)
}

// ListEvidence GET /api/disputes/:id/evidence
func (h *DisputeHandler) ListEvidence(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	evidence, err := h.disputes.ListEvidence(c.Request.Context(), userID, common.IsAdmin(c), disputeID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"evidence": evidence})
}
