package handlers

import (
	"github.com/gin-gonic/gin"

	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
)

// RegisterRoutes sets up all application routes, injecting service
// dependencies through the container interfaces.
func RegisterRoutes(r *gin.Engine, services *portssvc.ServiceContainer) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Every ledger route is scoped to one conjunto and requires the caller
	// identity forwarded by the platform gateway.
	v1 := r.Group("/api/v1", middleware.CallerIdentityMiddleware())
	conjunto := v1.Group("/conjuntos/:conjuntoID")

	registerLedgerRoutes(conjunto, services.Ledger)
	registerValidationRoutes(conjunto, services.Ledger, services.Validation)
	registerClosureRoutes(conjunto, services.Closure)
	registerReserveFundRoutes(conjunto, services.ReserveFund)
	registerLateFeeRoutes(conjunto, services.LateFee)
	registerClosingRoutes(conjunto, services.Closing)
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)
	txns := rg.Group("/transactions")
	{
		txns.POST("", h.postTransaction)
		txns.GET("", h.listTransactions)
		txns.GET("/:transactionID", h.getTransaction)
		txns.DELETE("/:transactionID", h.cancelTransaction)
	}
	rg.GET("/accounts/:accountID/balance", h.getBalance)
}

func registerValidationRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade, validationService portssvc.ValidationSvcFacade) {
	h := newValidationHandler(ledgerService, validationService)
	rg.GET("/transactions/:transactionID/validation", h.validateTransaction)
	rg.GET("/validation/period", h.validatePeriod)
}

func registerClosureRoutes(rg *gin.RouterGroup, closureService portssvc.ClosureSvcFacade) {
	h := newClosureHandler(closureService)
	closures := rg.Group("/closures")
	{
		closures.POST("", h.executeClosure)
		closures.POST("/preview", h.previewClosure)
		closures.GET("", h.listClosures)
		closures.DELETE("/:closureID", h.reverseClosure)
	}
}

func registerReserveFundRoutes(rg *gin.RouterGroup, reserveService portssvc.ReserveFundSvcFacade) {
	h := newReserveFundHandler(reserveService)
	reserve := rg.Group("/reserve-fund")
	{
		reserve.GET("/calculation", h.calculateReserve)
		reserve.POST("/appropriations", h.executeAppropriation)
		reserve.GET("/appropriations", h.listAppropriations)
		reserve.GET("/compliance", h.checkCompliance)
	}
}

func registerLateFeeRoutes(rg *gin.RouterGroup, lateFeeService portssvc.LateFeeSvcFacade) {
	h := newLateFeeHandler(lateFeeService)
	lateFees := rg.Group("/late-fees")
	{
		lateFees.POST("/process", h.processInvoice)
		lateFees.POST("/process-all", h.processAll)
		lateFees.GET("/pending", h.listPending)
		lateFees.GET("/summary", h.getSummary)
	}
}

func registerClosingRoutes(rg *gin.RouterGroup, closingService portssvc.ClosingSvcFacade) {
	h := newClosingHandler(closingService)
	closings := rg.Group("/closings")
	{
		closings.POST("", h.executeClosing)
		closings.GET("", h.listClosings)
		closings.GET("/status", h.getStatus)
	}
}
