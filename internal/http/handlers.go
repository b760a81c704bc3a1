package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tazhibayda/auth-gateway/internal/auth"
	"github.com/tazhibayda/auth-gateway/internal/domain"
	"github.com/tazhibayda/auth-gateway/internal/log"
	"github.com/tazhibayda/auth-gateway/internal/security"
	"go.uber.org/zap"
)

const (
	sessionCookie = "access_token"
	stateCookie   = "oauth_state"
	stateMaxAge   = 600
)

type Handler struct {
	Auth    *auth.Service
	Keys    *security.KeyManager // nil unless tokens are RS256
	Limiter Limiter
	Secure  bool // cookies carry the Secure flag

	// TrustedProxies may set X-Forwarded-For. Nil trusts none, so ClientIP is the socket peer.
	TrustedProxies []string
}

func NewHandler(svc *auth.Service, keys *security.KeyManager, limiter Limiter, secure bool) *Handler {
	return &Handler{Auth: svc, Keys: keys, Limiter: limiter, Secure: secure}
}

type messageResp struct {
	Message string `json:"message"`
}

type errorResp struct {
	Error string `json:"error"`
}

// Root godoc
// @Summary Welcome message
// @Tags root
// @Produce json
// @Success 200 {object} messageResp
// @Router / [get]
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the auth gateway"})
}

// LoginProvider godoc
// @Summary Start an OAuth login
// @Tags auth
// @Param provider path string true "google or github"
// @Success 302
// @Failure 400 {object} errorResp
// @Router /auth/login/{provider} [get]
func (h *Handler) LoginProvider(c *gin.Context) {
	provider := c.Param("provider")
	r, err := h.Auth.BeginLogin(provider)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, r.State, stateMaxAge, "/auth/callback/"+provider, "", h.Secure, true)
	c.Redirect(http.StatusFound, r.URL)
}

type callbackResp struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// Callback godoc
// @Summary OAuth provider callback
// @Description Exchanges the code, reconciles the user and sets the access_token cookie.
// @Tags auth
// @Produce json
// @Param provider path string true "google or github"
// @Param code query string true "authorization code"
// @Param state query string true "state issued at login"
// @Success 200 {object} callbackResp
// @Failure 400 {object} errorResp
// @Failure 500 {object} errorResp
// @Router /auth/callback/{provider} [get]
func (h *Handler) Callback(c *gin.Context) {
	provider := c.Param("provider")
	expected, _ := c.Cookie(stateCookie)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, "", -1, "/auth/callback/"+provider, "", h.Secure, true)

	if msg := c.Query("error"); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider denied access"})
		return
	}

	sess, err := h.Auth.CompleteLogin(c.Request.Context(), provider, c.Query("code"), c.Query("state"), expected)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "authentication with provider failed"})
			return
		}
		h.fail(c, err)
		return
	}
	h.setSession(c, sess)
	c.JSON(http.StatusOK, callbackResp{Message: "User authenticated successfully", User: sess.User})
}

// Register godoc
// @Summary Register a local account
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body domain.UserCreate true "register"
// @Success 200 {object} domain.User
// @Failure 400 {object} errorResp
// @Failure 429 {object} errorResp
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in domain.UserCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := h.Auth.CreateLocal(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// loginReq accepts JSON {email, password} and the OAuth2 password form (username, password).
type loginReq struct {
	Email    string `json:"email"    form:"username"`
	Password string `json:"password" form:"password"`
}

type tokenResp struct {
	Message   string `json:"message"`
	TokenType string `json:"token_type"`
}

// Token godoc
// @Summary Log in with email and password
// @Description Sets the access_token cookie on success.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginReq true "credentials"
// @Success 200 {object} tokenResp
// @Failure 400 {object} errorResp
// @Failure 401 {object} errorResp
// @Failure 429 {object} errorResp
// @Router /auth/token [post]
func (h *Handler) Token(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sess, err := h.Auth.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setSession(c, sess)
	c.JSON(http.StatusOK, tokenResp{Message: "Login successful", TokenType: "bearer"})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} errorResp
// @Router /auth/users/me [get]
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentUser(c))
}

// Logout godoc
// @Summary Log out
// @Description Deletes the access_token cookie. Never fails.
// @Tags auth
// @Produce json
// @Success 200 {object} messageResp
// @Router /auth/logout [get]
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", h.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// UpdateSubscription godoc
// @Summary Create or replace a subscription
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param user_id query string false "target user, defaults to the session user"
// @Param payload body domain.Subscription true "subscription"
// @Success 200 {object} domain.Subscription
// @Failure 400 {object} errorResp
// @Failure 401 {object} errorResp
// @Failure 404 {object} errorResp
// @Router /auth/users/me/abonnement [post]
func (h *Handler) UpdateSubscription(c *gin.Context) {
	var in domain.Subscription
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	target := c.Query("user_id")
	if target == "" {
		target = CurrentUser(c).ID
	}
	sub, err := h.Auth.UpdateSubscription(c.Request.Context(), target, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// JWKS godoc
// @Summary Public signing keys
// @Tags keys
// @Produce json
// @Success 200 {object} security.JWKS
// @Router /.well-known/jwks.json [get]
func (h *Handler) JWKS(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, h.Keys.JWKS())
}

func (h *Handler) Healthz(c *gin.Context) {
	var err error
	WithSpan(c.Request.Context(), "store.ping", func(ctx context.Context) { err = h.Auth.Ping(ctx) })
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) setSession(c *gin.Context, s *auth.Session) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, s.Token, int(s.TTL.Seconds()), "/", "", h.Secure, true)
}

// fail maps a domain error to a status and a generic body. Causes are logged, not returned.
func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	l := log.Req(c.Request.Context(), zap.String("route", c.FullPath()), zap.Error(err))
	if status >= http.StatusInternalServerError {
		l.Error("request failed")
	} else {
		l.Debug("request rejected")
	}
	c.JSON(status, gin.H{"error": msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusBadRequest, "unknown provider"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, domain.ErrDuplicate):
		return http.StatusBadRequest, "email already exists"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "user not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
