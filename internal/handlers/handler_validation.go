package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
)

// validationHandler exposes the read-only validation engine.
type validationHandler struct {
	ledgerService     portssvc.LedgerSvcFacade
	validationService portssvc.ValidationSvcFacade
}

func newValidationHandler(ledgerService portssvc.LedgerSvcFacade, validationService portssvc.ValidationSvcFacade) *validationHandler {
	return &validationHandler{ledgerService: ledgerService, validationService: validationService}
}

func (h *validationHandler) validateTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")
	transactionID := c.Param("transactionID")

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), conjuntoID, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		logger.Error("Failed to load transaction for validation", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate transaction"})
		return
	}

	result, err := h.validationService.ValidateTransaction(c.Request.Context(), txn)
	if err != nil {
		logger.Error("Failed to validate transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate transaction"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *validationHandler) validatePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	month, year, ok := monthYearQuery(c)
	if !ok {
		return
	}

	result, err := h.validationService.ValidatePeriod(c.Request.Context(), conjuntoID, month, year)
	if err != nil {
		logger.Error("Failed to validate period", slog.String("error", err.Error()), slog.Int("month", month), slog.Int("year", year))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate period"})
		return
	}

	c.JSON(http.StatusOK, result)
}
