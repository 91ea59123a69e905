package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/dtroode/userhub/api/docs" // Swagger docs
	"github.com/dtroode/userhub/internal/api/http/handler"
	"github.com/dtroode/userhub/internal/api/http/middleware"
	"github.com/dtroode/userhub/internal/config"
	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

// TokenService refreshes and revokes tokens and authenticates access tokens.
type TokenService interface {
	handler.TokenService
	middleware.Authenticator
}

// Services are the application services exposed over HTTP.
type Services struct {
	Auth    handler.AuthService
	Tokens  TokenService
	Profile handler.ProfileService
	Picture handler.PictureService
	Health  handler.HealthChecker
}

// Router represents the HTTP router for userhub.
// It wires middleware, handlers and operational endpoints into a gin engine.
type Router struct {
	services       Services
	contextManager model.ContextManager
	cfg            *config.Config
	version        string
	logger         *logger.Logger
}

// New creates new HTTP Router instance.
func New(
	services Services,
	contextManager model.ContextManager,
	cfg *config.Config,
	version string,
	logger *logger.Logger,
) *Router {
	return &Router{
		services:       services,
		contextManager: contextManager,
		cfg:            cfg,
		version:        version,
		logger:         logger,
	}
}

// Register builds the gin engine with all routes.
//
//	@title						userhub API
//	@version					1.0
//	@description				User management with profile pictures stored in object storage.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func (r *Router) Register() *gin.Engine {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.NewLogging(r.logger).Handle,
		cors.New(r.corsConfig()),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.ErrorResponse{Error: "not_found", Detail: "route not found"})
	})

	r.registerHealthRoutes(engine)
	r.registerAuthRoutes(engine)
	r.registerUserRoutes(engine)
	r.registerPictureRoutes(engine)

	engine.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))))
	if r.cfg.HTTP.EnablePprof {
		pprof.Register(engine)
	}

	return engine
}

func (r *Router) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(r.cfg.HTTP.CORSOrigins) == 0 || (len(r.cfg.HTTP.CORSOrigins) == 1 && r.cfg.HTTP.CORSOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = r.cfg.HTTP.CORSOrigins
	}
	return cfg
}

func (r *Router) authenticate() gin.HandlerFunc {
	return middleware.NewAuthenticate(r.services.Tokens, r.contextManager, r.logger).Handle
}

func (r *Router) registerHealthRoutes(engine *gin.Engine) {
	h := handler.NewHealth(r.services.Health, r.version)
	engine.GET("/livez", h.Livez)
	engine.GET("/readyz", h.Readyz)
}

func (r *Router) registerAuthRoutes(engine *gin.Engine) {
	h := handler.NewAuth(r.services.Auth, r.services.Tokens, r.contextManager, r.logger)

	loginLimit := middleware.NewRateLimit(r.cfg.Auth.LoginRatePerMinute, time.Minute, middleware.ByClientIP, r.logger)
	resendLimit := middleware.NewRateLimit(1, r.cfg.Auth.ResendInterval, middleware.ByPrincipal(r.contextManager), r.logger)

	engine.POST("/register", h.Register)
	engine.POST("/login", loginLimit.Handle, h.Login)
	engine.POST("/token/refresh", h.Refresh)
	engine.POST("/logout", h.Logout)
	engine.GET("/verify-email", h.VerifyEmail)
	engine.POST("/resend-verification", r.authenticate(), resendLimit.Handle, h.ResendVerification)
}

func (r *Router) registerUserRoutes(engine *gin.Engine) {
	h := handler.NewUser(r.services.Profile, r.contextManager, r.logger)

	users := engine.Group("/users", r.authenticate())
	users.GET("", middleware.RequireRole(r.contextManager, model.RoleManager, model.RoleAdmin), h.List)
	users.GET("/:user_id", h.Get)
	users.PUT("/:user_id", h.Update)
}

func (r *Router) registerPictureRoutes(engine *gin.Engine) {
	h := handler.NewPicture(r.services.Picture, r.contextManager, r.cfg.Upload.MaxSize, r.logger)

	engine.POST("/users/:user_id/profile-picture",
		r.authenticate(),
		middleware.RequireRole(r.contextManager, model.RoleAuthenticated, model.RoleManager, model.RoleAdmin),
		h.Upload,
	)
	engine.GET("/users/:user_id/profile-picture/history", r.authenticate(), h.History)
	engine.GET("/profiles/:user_id/picture", h.Serve)
}
