package account

import (
	"net/http"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/gateway"

	"github.com/gin-gonic/gin"
)

// CredentialsRequest is the body of POST /register and POST /login.
type CredentialsRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// RegisterResponse is returned by POST /register.
type RegisterResponse struct {
	UserID string `json:"userId"`
}

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ProfileResponse is returned by GET /user.
type ProfileResponse struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Handler handles account-related HTTP requests
type Handler struct {
	service Service
}

// NewHandler creates a new account handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /register
func (h *Handler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.InvalidInput("malformed request body", err))
		return
	}

	userID, err := h.service.Register(c.Request.Context(), req.Identifier, req.Secret)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{UserID: userID})
}

// Login handles POST /login
func (h *Handler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.InvalidInput("malformed request body", err))
		return
	}

	tok, err := h.service.Login(c.Request.Context(), req.Identifier, req.Secret)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: tok.Value, ExpiresAt: tok.ExpiresAt})
}

// Me handles GET /user. It must run behind gateway.BearerAuth.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := gateway.CurrentUserID(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthenticated("missing bearer token", nil))
		return
	}

	user, err := h.service.Profile(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		ID:         user.ID,
		Identifier: user.Identifier,
		CreatedAt:  user.CreatedAt,
	})
}
