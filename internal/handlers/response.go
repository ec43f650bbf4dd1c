package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ArowuTest/tonlotto-backend/internal/finance"
	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"github.com/ArowuTest/tonlotto-backend/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// respondError maps service and repository errors onto HTTP responses.
// Unexpected errors are logged and reported without detail.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidWallet),
		errors.Is(err, services.ErrInvalidTicketCount),
		errors.Is(err, services.ErrInvalidNumbers),
		errors.Is(err, services.ErrInvalidDrawSchedule),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidTxHash),
		errors.Is(err, finance.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, repositories.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNoOpenDraw),
		errors.Is(err, services.ErrInvalidDrawState),
		errors.Is(err, services.ErrSettlementPending),
		errors.Is(err, repositories.ErrOpenDrawExists),
		errors.Is(err, repositories.ErrDuplicateEmail):
		status = http.StatusConflict
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
		msg = "Internal server error, please try again"
	}
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// rejectionStatus is the HTTP status for a purchase refused by the verifier.
func rejectionStatus(reason models.RejectionReason) int {
	switch reason {
	case models.ReasonAlreadyUsed:
		return http.StatusConflict
	case models.ReasonNotFound:
		return http.StatusNotFound
	case models.ReasonChainQueryFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

// pagination reads page and limit query parameters with defaults.
func pagination(c *gin.Context) (page, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
