package handlers

import (
	"net/http"

	"quizblog/services"

	"github.com/gin-gonic/gin"
)

type ScoreHandler struct {
	scoreService *services.ScoreService
}

func NewScoreHandler(scoreService *services.ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreService: scoreService}
}

func (h *ScoreHandler) GetScores(c *gin.Context) {
	pageNo, ok := queryInt(c, "pageNo", 0)
	if !ok {
		return
	}

	page, err := h.scoreService.GetScores(c.Request.Context(), pageNo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *ScoreHandler) GetScore(c *gin.Context) {
	score, err := h.scoreService.GetScore(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, score)
}

func (h *ScoreHandler) GetScoresByTaker(c *gin.Context) {
	scores, err := h.scoreService.GetScoresByTaker(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, scores)
}

func (h *ScoreHandler) CreateScore(c *gin.Context) {
	var req services.CreateScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	score, err := h.scoreService.CreateScore(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, score)
}

func (h *ScoreHandler) DeleteScore(c *gin.Context) {
	if err := h.scoreService.DeleteScore(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "Score deleted"})
}
