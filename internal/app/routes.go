package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/config"
	"github.com/mapa-cultural/core/internal/middleware"
	"github.com/mapa-cultural/core/internal/modules/auth"
	"github.com/mapa-cultural/core/internal/modules/content/home"
	"github.com/mapa-cultural/core/internal/modules/instagram/post"
	"github.com/mapa-cultural/core/internal/modules/instagram/postimage"
	"github.com/mapa-cultural/core/internal/modules/media/upload"
	"github.com/mapa-cultural/core/internal/modules/survey/form"
	"github.com/mapa-cultural/core/internal/modules/survey/question"
	"github.com/mapa-cultural/core/internal/modules/survey/section"
	"github.com/mapa-cultural/core/internal/modules/survey/submission"
	"github.com/mapa-cultural/core/internal/pkg/cep"
	"github.com/mapa-cultural/core/internal/pkg/instagram"
	jwtpkg "github.com/mapa-cultural/core/internal/pkg/jwt"
	"github.com/mapa-cultural/core/internal/pkg/mail"
	"github.com/mapa-cultural/core/internal/pkg/metrics"
	"github.com/mapa-cultural/core/internal/pkg/renderer"
	"github.com/mapa-cultural/core/internal/pkg/response"
	"github.com/mapa-cultural/core/internal/pkg/storage"
	"go.uber.org/zap"
)

const (
	apiPrefix         = "/api/v1"
	staticPrefix      = "/static"
	staticCacheHeader = "public, max-age=31536000, immutable"
)

func (a *App) registerRoutes() error {
	r := a.router
	cfg := a.cfg
	db := a.db
	rdb := a.redis.Raw()
	log := a.logger

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	issuer := jwtpkg.NewIssuer(cfg.JWTSecret)
	if issuer.UsesDefaultSecret() {
		log.Warn("jwt_secret is empty, using built-in default secret")
	}
	if cfg.Admin.Email == "" {
		log.Warn("admin email is not configured, admin routes will reject every session")
	}
	authMW := middleware.Auth(issuer)
	adminMW := []gin.HandlerFunc{authMW, middleware.AdminOnly(cfg.Admin.Email)}

	uploads, err := storage.New(cfg.Storage, cfg.StaticDir(), cfg.PublicURL+staticPrefix)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if cfg.Storage.Driver != config.StorageS3 {
		r.Group(staticPrefix, middleware.CacheControl(staticCacheHeader)).Static("/", cfg.StaticDir())
	}

	api := r.Group(apiPrefix, middleware.OptionalAuth(issuer))
	api.GET("", func(c *gin.Context) {
		response.OK(c, gin.H{
			"name":   "mapa-cultural",
			"env":    cfg.Env,
			"uptime": humanizeDuration(a.uptime()),
		})
	})

	api.GET("/health", a.health)

	limit := func(scope string, n int64, window time.Duration) gin.HandlerFunc {
		return middleware.RateLimit(rdb, middleware.RateLimitOptions{Scope: scope, Max: n, Window: window})
	}

	// Survey
	questionStore := question.NewGormStore(db)
	questions := question.NewCache(question.NewLoader(questionStore, cfg.Survey.CatchAllSection), cfg.QuestionCacheTTL())
	questionSvc := question.NewService(questionStore, questions, log)
	question.NewHandler(questionSvc, log).RegisterRoutes(api, nil, adminMW...)
	section.NewHandler(section.NewService(section.NewGormStore(db), cfg.Survey.CatchAllSection, questions)).
		RegisterRoutes(api, adminMW...)

	lookup := cep.NewClient(cfg.Survey.CEPLookupURL, rdb, time.Duration(cfg.Survey.CEPCacheTTLMinutes)*time.Minute)
	gate := form.NewGate(lookup, cfg.Survey.AllowedCity, form.DefaultAutofill(), log)

	submissionSvc := submission.NewService(submission.NewGormStore(db), questions, questionSvc, log)
	submission.NewHandler(submissionSvc, uploads, cfg.MaxUploadBytes(), log).
		RegisterRoutes(api, []gin.HandlerFunc{limit("submissions", 10, time.Minute)}, adminMW...)

	// Content
	homeSvc := home.NewService(home.NewGormStore(db), log)
	homeSvc.OnChange(func(ctx context.Context) {
		if _, err := middleware.PurgeHTTPCache(ctx, rdb, apiPrefix+"/home"); err != nil {
			log.Warn("purge home cache", zap.Error(err))
		}
	})
	home.NewHandler(homeSvc, log).RegisterRoutes(api, []gin.HandlerFunc{
		middleware.HTTPCache(rdb, middleware.HTTPCacheOptions{TTL: time.Minute, CacheControl: home.CacheControl}),
	}, adminMW...)

	formHandler := form.NewHandler(questions, gate, homeSvc, log)
	formHandler.RegisterPage(r)
	formHandler.RegisterRoutes(api, limit("cep-gate", 30, time.Minute))

	upload.NewHandler(upload.NewService(uploads, cfg.MaxUploadBytes()), log).RegisterRoutes(api, adminMW...)

	// Auth
	authSvc := auth.NewService(issuer, cfg.Admin.Email, cfg.Admin.PasswordHash, cfg.SessionTTL())
	auth.NewHandler(authSvc, !cfg.IsDev(), log).
		RegisterRoutes(api, []gin.HandlerFunc{limit("login", 5, time.Minute)}, authMW)

	// Instagram
	posts := post.NewGormStore(db)
	publisher := instagram.NewClient(instagram.Config{
		UserID:      cfg.Instagram.UserID,
		AccessToken: cfg.Instagram.AccessToken,
		GraphURL:    cfg.Instagram.GraphURL,
		Version:     cfg.Instagram.GraphVersion,
	})
	if !publisher.Configured() {
		log.Info("instagram publishing disabled: missing user id or access token")
	}
	mailer := mail.New(mail.Config{
		Enable:    cfg.Mail.Enable,
		From:      cfg.Mail.From,
		ReplyTo:   cfg.Mail.ReplyTo,
		ResendKey: cfg.Mail.ResendKey,
	})
	post.NewHandler(post.NewService(posts, publisher, mailer, cfg.Mail.NotifyTo, log), log).
		RegisterRoutes(api, []gin.HandlerFunc{middleware.Idempotence(rdb)}, adminMW...)

	raster := renderer.New(RendererOptions(cfg), log)
	postimage.NewHandler(postimage.NewService(posts, raster, uploads, cfg.Renderer.Width, cfg.Renderer.Height, log), log).
		RegisterRoutes(api, adminMW...)

	return nil
}

// RendererOptions maps the renderer config section onto renderer.Options.
func RendererOptions(cfg *config.AppConfig) renderer.Options {
	return renderer.Options{
		ChromePath:  cfg.Renderer.ChromePath,
		Width:       cfg.Renderer.Width,
		Height:      cfg.Renderer.Height,
		LoadTimeout: time.Duration(cfg.Renderer.LoadTimeoutSeconds) * time.Second,
		Settle:      time.Duration(cfg.Renderer.SettleMillis) * time.Millisecond,
	}
}
