package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/middleware"
	jwtpkg "github.com/mapa-cultural/core/internal/pkg/jwt"
	"github.com/mapa-cultural/core/internal/pkg/response"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both an unknown email and a wrong password.
var ErrInvalidCredentials = errors.New("e-mail ou senha inválidos")

// ErrLoginDisabled is returned when no admin password hash is configured.
var ErrLoginDisabled = errors.New("login por senha desativado")

type LoginDTO struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	issuer       *jwtpkg.Issuer
	adminEmail   string
	passwordHash []byte
	ttl          time.Duration
}

func NewService(issuer *jwtpkg.Issuer, adminEmail, passwordHash string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{
		issuer:       issuer,
		adminEmail:   strings.ToLower(strings.TrimSpace(adminEmail)),
		passwordHash: []byte(strings.TrimSpace(passwordHash)),
		ttl:          ttl,
	}
}

// Login checks the credentials against the configured admin and mints a session token.
func (s *Service) Login(email, password string) (*Session, error) {
	if s.adminEmail == "" || len(s.passwordHash) == 0 {
		return nil, ErrLoginDisabled
	}
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.adminEmail)) == 1
	// bcrypt runs even when the email is wrong
	pwErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !emailOK || pwErr != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Sign(email, s.ttl)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Email: email, ExpiresAt: time.Now().Add(s.ttl)}, nil
}

type Handler struct {
	svc        *Service
	adminEmail string
	secure     bool
	log        *zap.Logger
}

func NewHandler(svc *Service, secureCookie bool, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, adminEmail: svc.adminEmail, secure: secureCookie, log: log}
}

// RegisterRoutes mounts /auth. loginMW guards the login endpoint (rate limiting); authMW guards /me.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, loginMW []gin.HandlerFunc, authMW gin.HandlerFunc) {
	g := rg.Group("/auth")
	login := append(append([]gin.HandlerFunc{}, loginMW...), h.login)
	g.POST("/login", login...)
	g.POST("/logout", h.logout)
	g.GET("/me", authMW, h.me)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Informe e-mail e senha")
		return
	}
	session, err := h.svc.Login(dto.Email, dto.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			h.log.Warn("admin login rejected", zap.String("email", dto.Email), zap.String("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": 0, "code": http.StatusUnauthorized, "message": err.Error()})
		case errors.Is(err, ErrLoginDisabled):
			response.Forbidden(c)
		default:
			response.InternalError(c, err)
		}
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, session.Token, maxAge, "/", "", h.secure, true)
	response.OK(c, session)
}

func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secure, true)
	response.NoContent(c)
}

func (h *Handler) me(c *gin.Context) {
	email := middleware.CurrentEmail(c)
	response.OK(c, gin.H{
		"email":    email,
		"is_admin": middleware.IsAdminEmail(email, h.adminEmail),
	})
}
