package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "github.com/tazhibayda/auth-gateway/docs"
	"github.com/tazhibayda/auth-gateway/internal/log"
	"go.uber.org/zap"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(h.TrustedProxies); err != nil {
		log.L().Error("invalid trusted proxies, trusting none", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Tracing("auth-gateway"))
	r.Use(AccessLog())
	r.Use(Metrics())

	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if h.Keys != nil {
		r.GET("/.well-known/jwks.json", h.JWKS)
	}

	a := r.Group("/auth")
	a.GET("/login/:provider", h.LoginProvider)
	a.GET("/callback/:provider", h.Callback)
	a.POST("/register", RateLimit(h.Limiter, "register"), h.Register)
	a.POST("/token", RateLimit(h.Limiter, "token"), h.Token)
	a.GET("/logout", h.Logout)
	a.POST("/logout", h.Logout)

	me := a.Group("/users/me", RequireSession(h.Auth))
	me.GET("", h.Me)
	me.POST("/abonnement", h.UpdateSubscription)

	return r
}
