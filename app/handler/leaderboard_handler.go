package handler

import (
	"context"
	"net/http"

	"clickboard/internal/model"

	"github.com/gin-gonic/gin"
)

type leaderboardService interface {
	GetLeaderboard(ctx context.Context, boardType string) ([]model.PointsRow, error)
}

// LeaderboardHandler serves the top-N boards
type LeaderboardHandler struct {
	leaderboardService leaderboardService
}

// NewLeaderboardHandler creates leaderboard handler
func NewLeaderboardHandler(leaderboardService leaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetLeaderboard returns one board
// @Summary Get leaderboard
// @Tags leaderboard
// @Produce json
// @Param type path string true "24h, allTime or country"
// @Router /leaderboard/{type} [get]
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	boardType := c.Param("type")
	rows, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), boardType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type": boardType,
		"data": rows,
	})
}
