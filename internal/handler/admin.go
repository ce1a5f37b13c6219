package handler

import (
	"log/slog"
	"net/http"

	"ckd_auth_service/internal/auth"
	"ckd_auth_service/internal/models"

	"github.com/gin-gonic/gin"
)

const msgAdminNotFound = "Admin not found"

type adminSignupRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	AdminCode string `json:"adminCode"`
}

type adminResponse struct {
	Message string         `json:"message"`
	Admin   models.Profile `json:"admin"`
	Token   string         `json:"token"`
}

// POST /api/admin/signup
func (h *Handler) AdminSignup(c *gin.Context) {
	const op = "handler.AdminSignup"

	log := h.log.With(slog.String("op", op))

	var req adminSignupRequest
	bindBody(c, log, &req)

	profile, token, err := h.admins.Signup(c.Request.Context(), req.Name, req.Email, req.Password, req.AdminCode)
	if err != nil {
		respondError(c, log, err, msgAdminNotFound)

		return
	}

	log.Info("admin registered", slog.String("admin_id", profile.ID.String()))

	c.JSON(http.StatusCreated, adminResponse{
		Message: "Admin registered successfully",
		Admin:   profile,
		Token:   token,
	})
}

// POST /api/admin/login
func (h *Handler) AdminLogin(c *gin.Context) {
	const op = "handler.AdminLogin"

	log := h.log.With(slog.String("op", op))

	var req loginRequest
	bindBody(c, log, &req)

	profile, token, err := h.admins.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, log, err, msgAdminNotFound)

		return
	}

	c.JSON(http.StatusOK, adminResponse{
		Message: "Admin login successful",
		Admin:   profile,
		Token:   token,
	})
}

// POST /api/admin/logout
func (h *Handler) AdminLogout(c *gin.Context) {
	h.admins.Logout(c.Request.Context(), auth.BearerToken(c.GetHeader("Authorization")))

	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// GET /api/admin/verify
func (h *Handler) AdminVerify(c *gin.Context) {
	const op = "handler.AdminVerify"

	log := h.log.With(slog.String("op", op))

	profile, err := h.admins.Verify(c.Request.Context(), auth.BearerToken(c.GetHeader("Authorization")))
	if err != nil {
		respondError(c, log, err, msgAdminNotFound)

		return
	}

	c.JSON(http.StatusOK, gin.H{"admin": profile})
}

// GET /api/admin/stats
func (h *Handler) AdminStats(c *gin.Context) {
	const op = "handler.AdminStats"

	log := h.log.With(slog.String("op", op))

	stats, err := h.admins.Stats(c.Request.Context())
	if err != nil {
		respondError(c, log, err, msgAdminNotFound)

		return
	}

	c.JSON(http.StatusOK, stats)
}

// GET /api/admin/users
func (h *Handler) AdminUsers(c *gin.Context) {
	const op = "handler.AdminUsers"

	log := h.log.With(slog.String("op", op))

	users, err := h.admins.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, log, err, msgAdminNotFound)

		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}
