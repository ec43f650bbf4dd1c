package handlers

import (
	"net/http"
	"strconv"

	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LotteryHandler serves the public draw and pricing endpoints
type LotteryHandler struct {
	drawService   services.DrawService
	ticketService services.TicketService
	ticketPrice   decimal.Decimal
}

// NewLotteryHandler creates a new LotteryHandler. ticketPrice is the default
// price for distribution previews.
func NewLotteryHandler(drawService services.DrawService, ticketService services.TicketService, ticketPrice decimal.Decimal) *LotteryHandler {
	return &LotteryHandler{
		drawService:   drawService,
		ticketService: ticketService,
		ticketPrice:   ticketPrice,
	}
}

// CurrentDraw handles GET /api/lottery/current
func (h *LotteryHandler) CurrentDraw(c *gin.Context) {
	draw, err := h.drawService.CurrentDraw(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "draw": draw})
}

// ListDraws handles GET /api/lottery/draws
func (h *LotteryHandler) ListDraws(c *gin.Context) {
	page, limit := pagination(c)
	draws, err := h.drawService.ListDraws(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if draws == nil {
		draws = []*models.Draw{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "draws": draws, "page": page, "limit": limit})
}

// GetDraw handles GET /api/lottery/draws/:id
func (h *LotteryHandler) GetDraw(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid ID format"})
		return
	}
	draw, err := h.drawService.GetDraw(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "draw": draw})
}

// Distribution handles GET /api/lottery/distribution?tickets=&price=
func (h *LotteryHandler) Distribution(c *gin.Context) {
	tickets, err := strconv.ParseInt(c.Query("tickets"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "tickets must be an integer"})
		return
	}
	price := h.ticketPrice
	if raw := c.Query("price"); raw != "" {
		if price, err = decimal.NewFromString(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "price must be a decimal"})
			return
		}
	}

	dist, err := h.drawService.PreviewDistribution(tickets, price)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "distribution": dist})
}

// Quote handles GET /api/lottery/quote?count=
func (h *LotteryHandler) Quote(c *gin.Context) {
	count, err := strconv.ParseInt(c.Query("count"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "count must be an integer"})
		return
	}
	quote, err := h.ticketService.Quote(c.Request.Context(), count)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "quote": quote})
}
