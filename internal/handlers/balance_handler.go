package handlers

import (
	"net/http"

	"github.com/ArowuTest/tonlotto-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// BalanceHandler handles wallet balance requests
type BalanceHandler struct {
	balanceService services.BalanceService
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balanceService services.BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceService: balanceService}
}

// GetBalance handles GET /api/user/balance/:walletAddress
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	resp, err := h.balanceService.GetBalances(c.Request.Context(), c.Param("walletAddress"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
