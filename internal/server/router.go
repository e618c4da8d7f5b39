package server

import (
	"net/http"

	"finance-ledger/internal/config"
	"finance-ledger/internal/handlers"
	"finance-ledger/internal/middleware"
	"finance-ledger/internal/repositories"
	"finance-ledger/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Account     *handlers.AccountHandler
	Category    *handlers.CategoryHandler
	Report      *handlers.ReportHandler
	Transaction *handlers.TransactionHandler
	Health      *handlers.HealthCheckHandler
}

// Dependencies are the cross-cutting pieces the router needs besides the
// handlers.
type Dependencies struct {
	Config          *config.Config
	Logger          logrus.FieldLogger
	TokenService    services.TokenServiceInterface
	BlacklistedRepo repositories.BlacklistedTokenRepositoryInterface
	Metrics         services.MetricsRecorderInterface
	MetricsHandler  http.Handler
	RateLimiter     *middleware.RateLimiter
}

// NewRouter builds the echo instance with the middleware chain and every
// route of the API.
func NewRouter(deps Dependencies, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = deps.Config.IsDevelopment()
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.NewHTTPErrorHandler(deps.Logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery(deps.Logger))
	e.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  deps.Config.Server.CORSAllowOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.TraceIDHeader},
		ExposeHeaders: []string{middleware.TraceIDHeader},
	}))
	if deps.RateLimiter != nil {
		e.Use(deps.RateLimiter.Middleware())
	}

	e.GET("/health", h.Health.HealthCheck)
	e.GET("/health/ready", h.Health.Ready)
	if deps.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(deps.MetricsHandler))
	}

	requireAuth := middleware.RequireAuth(deps.TokenService, deps.BlacklistedRepo)

	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.RefreshToken)
	auth.POST("/logout", h.Auth.Logout, requireAuth)

	users := api.Group("/users", requireAuth)
	users.GET("", h.User.ListUsers, middleware.RequireAdmin())
	users.GET("/me", h.User.GetMe)

	accounts := api.Group("/accounts", requireAuth)
	accounts.POST("", h.Account.CreateAccount)
	accounts.GET("", h.Account.ListAccounts)
	accounts.GET("/:id", h.Account.GetAccount)
	accounts.GET("/:id/balance", h.Account.GetBalance)

	categories := api.Group("/categories", requireAuth)
	categories.POST("", h.Category.CreateCategory)
	categories.GET("", h.Category.ListCategories)
	categories.GET("/by-name", h.Category.GetCategoryByName)
	categories.GET("/spending-ranking", h.Report.CategorySpendingRanking)

	transactions := api.Group("/transactions", requireAuth)
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("", h.Transaction.ListTransactions)
	transactions.GET("/by-category/:category_id", h.Transaction.TransactionsByCategory)
	transactions.GET("/by-period", h.Transaction.TransactionsByPeriod)
	transactions.GET("/by-type", h.Transaction.TransactionsByType)
	transactions.GET("/:id", h.Transaction.GetTransaction)
	transactions.PUT("/:id", h.Transaction.UpdateTransaction)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)

	return e
}
