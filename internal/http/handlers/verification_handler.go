package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oficios-mz/backend/internal/http/handlers/common"
	"github.com/oficios-mz/backend/internal/service"
)

type VerificationHandler struct {
	verification *service.VerificationService
}

func NewVerificationHandler(verification *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

// VerifyFace POST /api/verify-face
func (h *VerificationHandler) VerifyFace(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("capture")
	if err != nil {
		common.RespondBadRequest(c, "se requiere una imagen en el campo capture")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "no se pudo abrir la imagen")
		return
	}
	defer f.Close()

	capture, err := io.ReadAll(io.LimitReader(f, 10<<20))
	if err != nil {
		common.RespondBadRequest(c, "no se pudo leer la imagen")
		return
	}

	result, err := h.verification.VerifyFace(c.Request.Context(), userID, capture)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
