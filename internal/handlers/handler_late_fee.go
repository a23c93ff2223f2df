package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/dto"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
)

// lateFeeHandler handles HTTP requests for the late fee compounder.
type lateFeeHandler struct {
	lateFeeService portssvc.LateFeeSvcFacade
}

func newLateFeeHandler(lateFeeService portssvc.LateFeeSvcFacade) *lateFeeHandler {
	return &lateFeeHandler{lateFeeService: lateFeeService}
}

func (h *lateFeeHandler) processInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	req := dto.ProcessLateFeeRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for ProcessLateFee", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	result, err := h.lateFeeService.ProcessMonthlyLateFee(c.Request.Context(), conjuntoID, req.InvoiceID, req.AsOf, req.DryRun)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		logger.Error("Failed to process late fee", slog.String("error", err.Error()), slog.String("invoice_id", req.InvoiceID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process late fee"})
		return
	}

	logger.Info("Late fee processed",
		slog.String("invoice_id", req.InvoiceID),
		slog.Bool("applied", result.Applied),
		slog.Bool("dry_run", req.DryRun))
	c.JSON(http.StatusOK, result)
}

func (h *lateFeeHandler) processAll(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	req := dto.ProcessLateFeesRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for ProcessLateFees", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.lateFeeService.ProcessPendingLateFees(c.Request.Context(), conjuntoID, req.AsOf, userID)
	if err != nil {
		logger.Error("Failed to process pending late fees", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process late fees"})
		return
	}

	logger.Info("Late fee batch finished",
		slog.Int("processed", result.Processed),
		slog.Int("applied", result.Applied),
		slog.Int("failed", result.Failed))
	c.JSON(http.StatusOK, result)
}

func (h *lateFeeHandler) listPending(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	asOf := time.Now()
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf parameter, expected RFC3339"})
			return
		}
		asOf = parsed
	}

	invoices, err := h.lateFeeService.GetInvoicesNeedingProcessing(c.Request.Context(), conjuntoID, asOf)
	if err != nil {
		logger.Error("Failed to list invoices needing processing", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pending invoices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (h *lateFeeHandler) getSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	month, year, ok := monthYearQuery(c)
	if !ok {
		return
	}

	summary, err := h.lateFeeService.GetLateFeesSummary(c.Request.Context(), conjuntoID, month, year)
	if err != nil {
		logger.Error("Failed to summarize late fees", slog.String("error", err.Error()), slog.Int("month", month), slog.Int("year", year))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarize late fees"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
