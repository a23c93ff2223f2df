package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/dto"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
)

// closingHandler handles HTTP requests for the monthly closing orchestrator.
type closingHandler struct {
	closingService portssvc.ClosingSvcFacade
}

func newClosingHandler(closingService portssvc.ClosingSvcFacade) *closingHandler {
	return &closingHandler{closingService: closingService}
}

func (h *closingHandler) executeClosing(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	req := dto.ExecuteClosingRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for ExecuteClosing", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.closingService.ExecuteMonthlyClosing(c.Request.Context(), conjuntoID, req.Month, req.Year, req.Options, userID)
	if err != nil {
		logger.Error("Failed to execute monthly closing", slog.String("error", err.Error()), slog.Int("month", req.Month), slog.Int("year", req.Year))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute monthly closing"})
		return
	}

	logger.Info("Monthly closing run finished",
		slog.Int("month", req.Month), slog.Int("year", req.Year),
		slog.Bool("success", result.Success))
	c.JSON(http.StatusOK, result)
}

func (h *closingHandler) getStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	month, year, ok := monthYearQuery(c)
	if !ok {
		return
	}

	closed, err := h.closingService.IsPeriodClosed(c.Request.Context(), conjuntoID, month, year)
	if err != nil {
		logger.Error("Failed to check period status", slog.String("error", err.Error()), slog.Int("month", month), slog.Int("year", year))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check period status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"month": month, "year": year, "closed": closed})
}

func (h *closingHandler) listClosings(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	year := 0
	if c.Query("year") != "" {
		parsed, ok := yearQuery(c)
		if !ok {
			return
		}
		year = parsed
	}

	closings, err := h.closingService.GetClosingHistory(c.Request.Context(), conjuntoID, year)
	if err != nil {
		logger.Error("Failed to list monthly closings", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list closings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"closings": closings})
}
