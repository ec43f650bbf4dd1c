package handlers

import (
	"net/http"
	"strings"

	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TicketHandler handles ticket purchase and transaction verification requests
type TicketHandler struct {
	ticketService       services.TicketService
	verificationService services.VerificationService
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(ticketService services.TicketService, verificationService services.VerificationService) *TicketHandler {
	return &TicketHandler{
		ticketService:       ticketService,
		verificationService: verificationService,
	}
}

type verifyResponse struct {
	Success bool `json:"success"`
	*models.VerificationResult
}

// PurchaseTickets handles POST /api/tickets/purchase
func (h *TicketHandler) PurchaseTickets(c *gin.Context) {
	var req models.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body: " + err.Error()})
		return
	}

	res, err := h.ticketService.PurchaseTickets(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	if !res.Success {
		c.JSON(rejectionStatus(res.Verification.Reason), gin.H{
			"success":      false,
			"reason":       res.Verification.Reason,
			"error":        res.Verification.Error,
			"retryable":    res.Verification.Reason.Retryable(),
			"verification": res.Verification,
		})
		return
	}
	c.JSON(http.StatusCreated, res)
}

// VerifyTransaction handles POST /api/tickets/verify. Rejections are reported
// with status 200 and valid=false.
func (h *TicketHandler) VerifyTransaction(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body: " + err.Error()})
		return
	}
	expected, err := decimal.NewFromString(strings.TrimSpace(req.ExpectedAmount))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "expectedAmount must be a decimal TON amount"})
		return
	}

	res, err := h.verificationService.VerifyTicketPurchaseTransaction(c.Request.Context(), req.TransactionHash, expected)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifyResponse{Success: res.Valid, VerificationResult: res})
}

// IsTransactionUsed handles GET /api/tickets/used/:txHash
func (h *TicketHandler) IsTransactionUsed(c *gin.Context) {
	used, err := h.verificationService.IsTransactionUsed(c.Request.Context(), c.Param("txHash"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "used": used})
}

// GetTicketsByWallet handles GET /api/user/tickets/:walletAddress
func (h *TicketHandler) GetTicketsByWallet(c *gin.Context) {
	page, limit := pagination(c)
	purchases, err := h.ticketService.ListTicketsByWallet(c.Request.Context(), c.Param("walletAddress"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if purchases == nil {
		purchases = []*models.TicketPurchase{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "purchases": purchases, "page": page, "limit": limit})
}
