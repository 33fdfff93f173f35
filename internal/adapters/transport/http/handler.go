package http

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/misgastos/expenses-api/internal/adapters/transport/http/dto"
	httpmw "github.com/misgastos/expenses-api/internal/adapters/transport/http/middleware"
	appsvc "github.com/misgastos/expenses-api/internal/app/auth/service"
	authErrors "github.com/misgastos/expenses-api/internal/domain/auth/errors"
	"github.com/misgastos/expenses-api/internal/domain/auth/model"
	"github.com/misgastos/expenses-api/internal/infra/config"
	"github.com/misgastos/expenses-api/internal/infra/obs"
)

const currentUserKey = "currentUser"

type Handler struct {
	svc appsvc.Service
	log *zap.Logger
}

func NewHandler(svc appsvc.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// NewRouter wires middleware and the auth routes.
func NewRouter(h *Handler, cfg *config.Config, zapLog *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))
	router.Use(obs.Instrument())

	if len(cfg.AllowedOrigins) > 0 {
		corsConfig := cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{
				"Origin", "Content-Type", "Accept",
				"Authorization",
				"X-Requested-With",
			},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: cfg.AllowCredentials,
			MaxAge:           12 * time.Hour,
		}
		router.Use(cors.New(corsConfig))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
	router.GET("/metrics", obs.Handler())

	auth := router.Group("/auth")
	auth.Use(httpmw.RateLimitPerIP(50, 100, 10_000, time.Hour))
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/refresh", h.refresh)
	auth.GET("/me", h.RequireUser, h.me)

	return router
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.log.Info("/auth/register",
		zap.String("user", fmt.Sprintf("%x", sha256.Sum256([]byte(body.Email)))),
	)

	user, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.log.Info("/auth/login",
		zap.String("user", fmt.Sprintf("%x", sha256.Sum256([]byte(body.Email)))),
	)

	pair, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(pair))
}

func (h *Handler) refresh(c *gin.Context) {
	var body dto.RefreshDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(pair))
}

func (h *Handler) me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// RequireUser guards protected routes. A missing Authorization header is a
// 403; anything present but unusable is a 401.
func (h *Handler) RequireUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not authenticated"})
		return
	}

	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	user, err := h.svc.CurrentUser(c.Request.Context(), raw)
	if err != nil {
		h.handleError(c, err)
		c.Abort()
		return
	}

	c.Set(currentUserKey, user)
	c.Next()
}

// CurrentUser returns the user attached by RequireUser.
func CurrentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return model.User{}, false
	}
	user, ok := v.(model.User)
	return user, ok
}

func tokenResponse(pair model.TokenPair) dto.TokenPairDTO {
	return dto.TokenPairDTO{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case authErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case authErrors.IsEmailTaken(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
	case authErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case authErrors.IsInvalidRefreshToken(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
	case authErrors.IsUserNotFound(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
	case authErrors.IsUnauthenticated(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	default:
		h.log.Error("unexpected failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
