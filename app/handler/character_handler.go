package handler

import (
	"context"
	"net/http"
	"strconv"

	"clickboard/internal/model"
	"clickboard/internal/service"
	"clickboard/pkg/logger"

	"github.com/gin-gonic/gin"
)

type characterService interface {
	ListCharacters(ctx context.Context, sessionID string) ([]*model.CharacterSummary, error)
	UpdateCharacterPoints(ctx context.Context, id string, increment bool, country, countryCode, sessionID string) (*model.CharacterSummary, error)
	BatchUpdatePoints(ctx context.Context, req service.BatchUpdate) (*service.BatchResult, error)
	GetStats(ctx context.Context) (*model.Stats, error)
	CharacterPoints(ctx context.Context, id, sessionID string) (*model.SessionPoints, error)
	CreateCharacter(ctx context.Context, in service.CreateCharacterInput) (*model.CharacterSummary, error)
}

// CharacterHandler handles character and click operations
type CharacterHandler struct {
	characterService characterService
}

// NewCharacterHandler creates character handler
func NewCharacterHandler(characterService characterService) *CharacterHandler {
	return &CharacterHandler{characterService: characterService}
}

// sessionParam reads the session id; the web client historically sends it as userId.
func sessionParam(c *gin.Context) string {
	if v := c.Query("sessionId"); v != "" {
		return v
	}
	return c.Query("userId")
}

// ListCharacters lists characters, with the caller's session totals when a session is given
// @Summary List characters
// @Tags characters
// @Produce json
// @Param userId query string false "Session ID"
// @Router /characters [get]
func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	characters, err := h.characterService.ListCharacters(c.Request.Context(), sessionParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Character list retrieved successfully",
		"data":    characters,
	})
}

// UpdatePoints records a single click
// @Summary Click a character
// @Tags characters
// @Produce json
// @Param id path string true "Character ID"
// @Param increment query bool true "true for thumbs up, false for middle finger"
// @Param country query string false "Country name"
// @Param countryCode query string false "ISO country code"
// @Param sessionId query string true "Session ID"
// @Router /characters/{id} [patch]
func (h *CharacterHandler) UpdatePoints(c *gin.Context) {
	id := c.Param("id")
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId required"})
		return
	}

	increment, err := strconv.ParseBool(c.DefaultQuery("increment", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "increment must be true or false"})
		return
	}

	summary, err := h.characterService.UpdateCharacterPoints(c.Request.Context(), id, increment,
		c.Query("country"), c.Query("countryCode"), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetStats returns daily, overall and per-country points
// @Summary Get stats
// @Tags characters
// @Produce json
// @Success 200 {object} model.Stats
// @Router /characters/stats [get]
func (h *CharacterHandler) GetStats(c *gin.Context) {
	stats, err := h.characterService.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CharacterPoints returns one session's contribution to a character
// @Summary Get character points for a session
// @Tags characters
// @Produce json
// @Param id query string true "Character ID"
// @Param userId query string false "Session ID"
// @Router /characters/character-points [get]
func (h *CharacterHandler) CharacterPoints(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}

	points, err := h.characterService.CharacterPoints(c.Request.Context(), id, sessionParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// BatchUpdate applies a client-side buffer of clicks
// @Summary Batch update points
// @Tags characters
// @Accept json
// @Produce json
// @Param request body service.BatchUpdate true "Buffered clicks"
// @Router /characters/batch-update [post]
func (h *CharacterHandler) BatchUpdate(c *gin.Context) {
	var req service.BatchUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnCtx(c.Request.Context(), "invalid batch update request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.characterService.BatchUpdatePoints(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateCharacter adds a character
// @Summary Create character
// @Tags characters
// @Accept json
// @Produce json
// @Param request body service.CreateCharacterInput true "Character"
// @Router /characters [post]
func (h *CharacterHandler) CreateCharacter(c *gin.Context) {
	var in service.CreateCharacterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	character, err := h.characterService.CreateCharacter(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "character": character})
}
