package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/kalado/authentication/docs"
	"github.com/kalado/authentication/internal/api/handler"
	"github.com/kalado/authentication/internal/api/middleware"
	"github.com/kalado/authentication/internal/core/domain"
	"github.com/kalado/authentication/internal/core/ports"
)

// Services are the core operations exposed over HTTP.
type Services struct {
	Auth         ports.AuthService
	Registration ports.RegistrationService
	Roles        ports.RoleService
	Passwords    ports.PasswordService
	Verification ports.VerificationService
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, log zerolog.Logger, checks ...handler.DependencyCheck) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("auth"))

	authHandler := handler.NewAuthHandler(svc.Auth, svc.Registration)
	roleHandler := handler.NewRoleHandler(svc.Roles)
	passwordHandler := handler.NewPasswordHandler(svc.Passwords)
	verificationHandler := handler.NewVerificationHandler(svc.Verification)
	requireAuth := middleware.Auth(svc.Auth)

	// --- Auth routes ---
	g := e.Group("/auth")
	g.POST("/register", authHandler.Register)
	g.POST("/login", authHandler.Login)
	g.GET("/validate", authHandler.Validate)
	g.POST("/logout", authHandler.Logout, requireAuth)
	g.GET("/verify", verificationHandler.Verify)

	g.PUT("/users/:id/role", roleHandler.UpdateRole, requireAuth, middleware.RBAC(domain.RoleGod))

	g.POST("/password/forgot", passwordHandler.Forgot)
	g.POST("/password/reset", passwordHandler.Reset)
	g.POST("/password/change", passwordHandler.Change, requireAuth)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
