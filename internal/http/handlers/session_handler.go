package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bizdata/internal/http/middleware"
	"github.com/tbourn/go-bizdata/internal/services"
)

// LoginRequest is the body of POST /session/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse reports whether a session is held. The token itself is
// never sent back to the presentation layer.
type SessionResponse struct {
	Authenticated bool `json:"authenticated"`
	User          any  `json:"user,omitempty"`
}

// Login handles POST /session/login.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), services.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.LoggerFrom(c).Info().Msg("session opened")
	resp := SessionResponse{Authenticated: true}
	if sess.User != nil {
		resp.User = sess.User
	}
	ok(c, http.StatusOK, resp)
}

// Signup handles POST /session/signup.
func (h *Handlers) Signup(c *gin.Context) {
	var req services.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid signup body")
		return
	}
	sess, err := h.auth.Signup(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	resp := SessionResponse{Authenticated: true}
	if sess.User != nil {
		resp.User = sess.User
	}
	ok(c, http.StatusCreated, resp)
}

// Logout handles POST /session/logout. The local session is cleared even
// when the backend call fails; the failure is still reported.
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// Me handles GET /session.
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.auth.Me(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SessionResponse{Authenticated: true, User: u})
}
