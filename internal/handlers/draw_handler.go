package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ArowuTest/tonlotto-backend/internal/middleware"
	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawHandler handles admin draw lifecycle requests
type DrawHandler struct {
	drawService services.DrawService
}

// NewDrawHandler creates a new DrawHandler
func NewDrawHandler(drawService services.DrawService) *DrawHandler {
	return &DrawHandler{drawService: drawService}
}

// CreateDraw handles POST /api/admin/draws
func (h *DrawHandler) CreateDraw(c *gin.Context) {
	var req models.CreateDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body: " + err.Error()})
		return
	}
	draw, err := h.drawService.CreateDraw(c.Request.Context(), req.ClosesAt)
	if err != nil {
		respondError(c, err)
		return
	}
	slog.Info("Admin opened draw", "admin", c.GetString(middleware.ContextAdminEmail), "draw", draw.Number)
	c.JSON(http.StatusCreated, gin.H{"success": true, "draw": draw})
}

// CloseDraw handles POST /api/admin/draws/:id/close
func (h *DrawHandler) CloseDraw(c *gin.Context) {
	id, ok := drawID(c)
	if !ok {
		return
	}
	draw, err := h.drawService.CloseDraw(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	slog.Info("Admin closed draw", "admin", c.GetString(middleware.ContextAdminEmail), "draw", draw.Number)
	c.JSON(http.StatusOK, gin.H{"success": true, "draw": draw})
}

// SettleDraw handles POST /api/admin/draws/:id/settle
func (h *DrawHandler) SettleDraw(c *gin.Context) {
	id, ok := drawID(c)
	if !ok {
		return
	}
	var req models.SettleDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body: " + err.Error()})
		return
	}
	draw, err := h.drawService.SettleDraw(c.Request.Context(), id, req.WinningNumbers)
	if err != nil {
		respondError(c, err)
		return
	}
	slog.Info("Admin settled draw", "admin", c.GetString(middleware.ContextAdminEmail), "draw", draw.Number)
	c.JSON(http.StatusOK, gin.H{"success": true, "draw": draw})
}

func drawID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid ID format"})
		return primitive.NilObjectID, false
	}
	return id, true
}
