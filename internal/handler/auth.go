package handler

import (
	"log/slog"
	"net/http"

	"ckd_auth_service/internal/auth"
	"ckd_auth_service/internal/models"

	"github.com/gin-gonic/gin"
)

const msgUserNotFound = "User not found"

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	Message string         `json:"message"`
	User    models.Profile `json:"user"`
	Token   string         `json:"token"`
}

// bindBody decodes the JSON body into req. An unreadable body leaves req
// zeroed so the service reports the missing fields.
func bindBody(c *gin.Context, log *slog.Logger, req any) {
	if err := c.ShouldBindJSON(req); err != nil {
		log.Debug("failed to read request body", slog.Any("error", err))
	}
}

// POST /api/signup
func (h *Handler) Signup(c *gin.Context) {
	const op = "handler.Signup"

	log := h.log.With(slog.String("op", op))

	var req signupRequest
	bindBody(c, log, &req)

	profile, token, err := h.users.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, log, err, msgUserNotFound)

		return
	}

	log.Info("user registered", slog.String("user_id", profile.ID.String()))

	c.JSON(http.StatusCreated, userResponse{
		Message: "User registered successfully",
		User:    profile,
		Token:   token,
	})
}

// POST /api/login
func (h *Handler) Login(c *gin.Context) {
	const op = "handler.Login"

	log := h.log.With(slog.String("op", op))

	var req loginRequest
	bindBody(c, log, &req)

	profile, token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, log, err, msgUserNotFound)

		return
	}

	c.JSON(http.StatusOK, userResponse{
		Message: "Login successful",
		User:    profile,
		Token:   token,
	})
}

// POST /api/logout
func (h *Handler) Logout(c *gin.Context) {
	h.users.Logout(c.Request.Context(), auth.BearerToken(c.GetHeader("Authorization")))

	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// GET /api/verify
func (h *Handler) Verify(c *gin.Context) {
	const op = "handler.Verify"

	log := h.log.With(slog.String("op", op))

	profile, err := h.users.Verify(c.Request.Context(), auth.BearerToken(c.GetHeader("Authorization")))
	if err != nil {
		respondError(c, log, err, msgUserNotFound)

		return
	}

	c.JSON(http.StatusOK, gin.H{"user": profile})
}
