package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/dto"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
)

// closureHandler handles HTTP requests for explicit period closures.
type closureHandler struct {
	closureService portssvc.ClosureSvcFacade
}

func newClosureHandler(closureService portssvc.ClosureSvcFacade) *closureHandler {
	return &closureHandler{closureService: closureService}
}

func (h *closureHandler) executeClosure(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	req := dto.ExecuteClosureRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for ExecuteClosure", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	closure, err := h.closureService.ExecutePeriodClosure(c.Request.Context(), conjuntoID, req, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPeriodAlreadyClosed):
			logger.Warn("Period already closed", slog.Int("fiscal_year", req.FiscalYear))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrUnpostedTransactionsExist),
			errors.Is(err, apperrors.ErrFuturePeriod),
			errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Closure precondition failed", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrMissingRequiredAccount):
			logger.Warn("Closure account missing", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to execute closure", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute closure"})
		}
		return
	}

	logger.Info("Period closure completed", slog.String("closure_id", closure.ClosureID), slog.Int("fiscal_year", closure.FiscalYear))
	c.JSON(http.StatusCreated, closure)
}

func (h *closureHandler) previewClosure(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	req := dto.PreviewClosureRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for PreviewClosure", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	preview, err := h.closureService.PreviewClosure(c.Request.Context(), conjuntoID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		logger.Error("Failed to preview closure", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to preview closure"})
		return
	}

	c.JSON(http.StatusOK, preview)
}

func (h *closureHandler) reverseClosure(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")
	closureID := c.Param("closureID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.closureService.ReverseClosure(c.Request.Context(), conjuntoID, closureID, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Closure not found"})
		case errors.Is(err, apperrors.ErrOwnershipMismatch):
			c.JSON(http.StatusNotFound, gin.H{"error": "Closure not found"})
		case errors.Is(err, apperrors.ErrClosureNotReversible):
			logger.Warn("Closure not reversible", slog.String("closure_id", closureID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to reverse closure", slog.String("error", err.Error()), slog.String("closure_id", closureID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse closure"})
		}
		return
	}

	logger.Info("Closure reversed", slog.String("closure_id", closureID))
	c.Status(http.StatusNoContent)
}

func (h *closureHandler) listClosures(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	fiscalYear := 0
	if raw := c.Query("fiscalYear"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fiscalYear parameter"})
			return
		}
		fiscalYear = parsed
	}

	closures, err := h.closureService.GetClosureHistory(c.Request.Context(), conjuntoID, fiscalYear)
	if err != nil {
		logger.Error("Failed to list closures", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list closures"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"closures": closures})
}
