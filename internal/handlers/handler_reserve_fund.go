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

// reserveFundHandler handles HTTP requests for the statutory reserve fund.
type reserveFundHandler struct {
	reserveService portssvc.ReserveFundSvcFacade
}

func newReserveFundHandler(reserveService portssvc.ReserveFundSvcFacade) *reserveFundHandler {
	return &reserveFundHandler{reserveService: reserveService}
}

func (h *reserveFundHandler) calculateReserve(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	month, year, ok := monthYearQuery(c)
	if !ok {
		return
	}

	amount, err := h.reserveService.CalculateMonthlyReserve(c.Request.Context(), conjuntoID, month, year)
	if err != nil {
		logger.Error("Failed to calculate reserve", slog.String("error", err.Error()), slog.Int("month", month), slog.Int("year", year))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate reserve"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"month": month, "year": year, "amount": amount})
}

func (h *reserveFundHandler) executeAppropriation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	req := dto.ExecuteAppropriationRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for ExecuteAppropriation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.reserveService.ExecuteMonthlyAppropriation(c.Request.Context(), conjuntoID, req.Month, req.Year, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrMissingRequiredAccount) {
			logger.Warn("Appropriation prerequisites missing", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to execute appropriation", slog.String("error", err.Error()), slog.Int("month", req.Month), slog.Int("year", req.Year))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute appropriation"})
		return
	}

	status := http.StatusCreated
	if !result.Applied {
		status = http.StatusOK
	}
	logger.Info("Appropriation run finished",
		slog.Bool("applied", result.Applied),
		slog.String("amount", result.Amount.String()),
		slog.Int("month", req.Month), slog.Int("year", req.Year))
	c.JSON(status, result)
}

func (h *reserveFundHandler) listAppropriations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	year, ok := yearQuery(c)
	if !ok {
		return
	}

	txns, err := h.reserveService.GetAppropriationHistory(c.Request.Context(), conjuntoID, year)
	if err != nil {
		logger.Error("Failed to list appropriations", slog.String("error", err.Error()), slog.Int("year", year))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list appropriations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"appropriations": txns})
}

func (h *reserveFundHandler) checkCompliance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjuntoID")

	year, ok := yearQuery(c)
	if !ok {
		return
	}

	compliance, err := h.reserveService.ValidateLegalCompliance(c.Request.Context(), conjuntoID, year)
	if err != nil {
		logger.Error("Failed to check reserve compliance", slog.String("error", err.Error()), slog.Int("year", year))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check compliance"})
		return
	}

	c.JSON(http.StatusOK, compliance)
}

// yearQuery parses the required year query parameter, writing the error
// response itself on failure.
func yearQuery(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing year"})
		return 0, false
	}
	return year, true
}
