package handler

import (
	"context"
	"log/slog"
	"net/http"

	"ckd_auth_service/internal/models"

	"github.com/gin-gonic/gin"
)

// Authenticator is one realm's signup, login, logout and verify flow.
type Authenticator interface {
	Signup(ctx context.Context, name, email, password string) (models.Profile, string, error)
	Login(ctx context.Context, email, password string) (models.Profile, string, error)
	Logout(ctx context.Context, token string)
	Verify(ctx context.Context, token string) (models.Profile, error)
}

type AdminAuthenticator interface {
	Signup(ctx context.Context, name, email, password, adminCode string) (models.Profile, string, error)
	Login(ctx context.Context, email, password string) (models.Profile, string, error)
	Logout(ctx context.Context, token string)
	Verify(ctx context.Context, token string) (models.Profile, error)
	Stats(ctx context.Context) (models.Stats, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	users  Authenticator
	admins AdminAuthenticator
	health HealthChecker
	log    *slog.Logger
}

type errorResponse struct {
	Message string `json:"message"`
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Message: errMessage})
}

func NewHandler(users Authenticator, admins AdminAuthenticator, health HealthChecker, lgr *slog.Logger) *Handler {
	return &Handler{
		users:  users,
		admins: admins,
		health: health,
		log:    lgr,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(h.log))
	router.Use(CORSMiddleware())

	api := router.Group("/api")
	{
		api.POST("/signup", h.Signup)
		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)
		api.GET("/verify", h.Verify)
		api.GET("/health", h.Health)

		admin := api.Group("/admin")
		{
			admin.POST("/signup", h.AdminSignup)
			admin.POST("/login", h.AdminLogin)
			admin.POST("/logout", h.AdminLogout)
			admin.GET("/verify", h.AdminVerify)

			dashboard := admin.Group("")
			dashboard.Use(AdminAuthMiddleware(h.admins, h.log))
			{
				dashboard.GET("/stats", h.AdminStats)
				dashboard.GET("/users", h.AdminUsers)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		newErrorResponse(c, http.StatusNotFound, "Not found")
	})

	return router
}
