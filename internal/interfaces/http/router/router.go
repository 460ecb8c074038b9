package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cashflow/backend/internal/infrastructure/config"
	"github.com/cashflow/backend/internal/infrastructure/logger"
	"github.com/cashflow/backend/internal/interfaces/http/handler"
	"github.com/cashflow/backend/internal/interfaces/http/middleware"
)

// Handlers bundles every HTTP handler the router mounts
type Handlers struct {
	Health      *handler.HealthHandler
	Application *handler.ApplicationHandler
	Contract    *handler.ContractHandler
	Payment     *handler.PaymentHandler
	Partner     *handler.PartnerHandler
	Dashboard   *handler.DashboardHandler
	Report      *handler.ReportHandler
	Export      *handler.ExportHandler
}

// registerValidators adds the money-amount rule to gin's binding validator.
// The decimal type bypasses the numeric gt/gte tags, so amounts get their
// own tag.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("dpositive", func(fl validator.FieldLevel) bool {
			d, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && d.IsPositive()
		})
	}
}

// Setup builds the gin engine with the full middleware chain and all routes
// mounted under /api/v1.
func Setup(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	registerValidators()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORS(middleware.CORSConfig{AllowOrigins: cfg.HTTP.AllowOrigins}),
		middleware.JWTAuth(middleware.JWTFromConfig(cfg.JWT)),
	)

	engine.GET("/health", h.Health.Health)

	api := engine.Group("/api/v1")
	api.GET("/health", h.Health.Health)

	applications := api.Group("/applications")
	{
		applications.POST("", h.Application.Create)
		applications.GET("", h.Application.List)
		applications.GET("/:id", h.Application.Get)
		applications.POST("/:id/validate", h.Application.Validate)
		applications.POST("/:id/submit", h.Application.Submit)
		applications.POST("/:id/cancel", h.Application.Cancel)
	}

	contracts := api.Group("/contracts")
	{
		contracts.GET("/search", h.Contract.Search)
		contracts.GET("/analysis", h.Contract.Analysis)
		contracts.POST("/notes", h.Contract.SaveNote)
		contracts.GET("/:id/notes", h.Contract.Notes)
	}

	payments := api.Group("/payments")
	{
		payments.POST("", h.Payment.Create)
		payments.GET("", h.Payment.List)
		payments.GET("/:id", h.Payment.Get)
		payments.POST("/:id/submit", h.Payment.Submit)
		payments.POST("/:id/cancel", h.Payment.Cancel)
	}

	customers := api.Group("/customers")
	{
		customers.GET("", h.Partner.ListCustomers)
		customers.POST("/sweep-classifications", h.Partner.SweepClassifications)
		customers.GET("/:id", h.Partner.GetCustomer)
		customers.GET("/:id/contracts", h.Contract.CustomerContracts)
		customers.GET("/:id/schedule", h.Contract.CustomerSchedule)
		customers.GET("/:id/classification-history", h.Partner.ClassificationHistory)
		customers.GET("/:id/overdue-notice", h.Payment.OverdueNotice)
		customers.POST("/:id/recompute-debt", h.Partner.RecomputeCustomerDebt)
		customers.POST("/:id/reclassify", h.Partner.ReclassifyCustomer)
	}

	suppliers := api.Group("/suppliers")
	{
		suppliers.GET("", h.Partner.ListSuppliers)
		suppliers.GET("/:id", h.Partner.GetSupplier)
		suppliers.GET("/:id/contracts", h.Partner.SupplierContracts)
		suppliers.GET("/:id/payments", h.Partner.SupplierPayments)
		suppliers.GET("/:id/debt-summary", h.Partner.SupplierDebtSummary)
		suppliers.POST("/:id/recompute-debt", h.Partner.RecomputeSupplierDebt)
	}

	dashboard := api.Group("/dashboard")
	{
		dashboard.GET("", h.Dashboard.Get)
		dashboard.GET("/intelligence", h.Dashboard.Intelligence)
		dashboard.GET("/periodic", h.Dashboard.Periodic)
		dashboard.GET("/balance-sheet", h.Dashboard.BalanceSheet)
	}

	reports := api.Group("/reports")
	{
		reports.GET("/aging", h.Report.Aging)
		reports.GET("/monthly-expected", h.Report.MonthlyExpected)
		reports.GET("/overdue", h.Report.Overdue)
		reports.GET("/category-summary", h.Report.CategorySummary)
		reports.GET("/daily-cash-flow", h.Report.DailyCashFlow)
		reports.GET("/counterparty", h.Report.Counterparty)
		reports.GET("/outstanding", h.Report.Outstanding)
		reports.GET("/sales-margin", h.Report.SalesMargin)
		reports.GET("/cash-registers", h.Report.CashRegisters)
		reports.GET("/customers/:id/sverka", h.Report.CustomerSverka)
		reports.GET("/customers/:id/payment-history", h.Report.CustomerPaymentHistory)
		reports.GET("/suppliers/:id/debt-analysis", h.Report.SupplierDebtAnalysis)
	}

	api.POST("/exports/:report", h.Export.Export)

	return engine
}
