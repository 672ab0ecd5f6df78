package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oficios-mz/backend/internal/http/handlers/common"
	"github.com/oficios-mz/backend/internal/service"
)

type RatingHandler struct {
	ratings *service.RatingService
}

func NewRatingHandler(ratings *service.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

// Create POST /api/ratings
func (h *RatingHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		JobID   string  `json:"job_id" binding:"required"`
		Score   int     `json:"score" binding:"required,min=1,max=5"`
		Comment *string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "se requieren job_id y un score entre 1 y 5")
		return
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		common.RespondBadRequest(c, "job_id inválido")
		return
	}

	rating, err := h.ratings.CreateRating(c.Request.Context(), userID, jobID, req.Score, req.Comment)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, rating)
}

// ListForUser GET /api/ratings/user/:userId
func (h *RatingHandler) ListForUser(c *gin.Context) {
	targetID, err := common.ParseUUIDParam(c, "userId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	ratings, err := h.ratings.ListUserRatings(c.Request.Context(), targetID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}

// Summary GET /api/ratings/user/:userId/summary
func (h *RatingHandler) Summary(c *gin.Context) {
	targetID, err := common.ParseUUIDParam(c, "userId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	summary, err := h.ratings.GetUserSummary(c.Request.Context(), targetID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
