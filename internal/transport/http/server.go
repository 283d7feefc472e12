package http

import (
	"github.com/gin-gonic/gin"

	appsvc "vidhub/internal/app"
	"vidhub/internal/bootstrap"
	"vidhub/internal/transport/http/handler"
	"vidhub/internal/transport/http/middleware"
)

// Options is everything the router needs; NewRouter fills it from the
// bootstrapped App.
type Options struct {
	GinMode     string
	CORSOrigin  string
	BodyLimit   int64
	UploadLimit int64
	Cookies     handler.CookieConfig

	Auth          *appsvc.AuthService
	Tokens        *appsvc.TokenService
	Profiles      *appsvc.ProfileService
	Subscriptions *appsvc.SubscriptionService
	Videos        *appsvc.VideoService
	Media         handler.MediaReader
	Health        *handler.HealthHandler
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	tokens := appsvc.NewTokenService(app.Store.Users, appsvc.TokenConfig{
		AccessSecret:  cfg.Auth.AccessTokenSecret,
		AccessTTL:     cfg.Auth.AccessTokenExpiry.Duration,
		RefreshSecret: cfg.Auth.RefreshTokenSecret,
		RefreshTTL:    cfg.Auth.RefreshTokenExpiry.Duration,
	})

	return NewEngine(Options{
		GinMode:     cfg.App.GinMode,
		CORSOrigin:  cfg.App.CORSOrigin,
		BodyLimit:   int64(cfg.App.BodyLimitKB) << 10,
		UploadLimit: int64(cfg.Media.MaxUploadMB) << 20,
		Cookies: handler.CookieConfig{
			Secure:     cfg.IsProduction(),
			AccessTTL:  cfg.Auth.AccessTokenExpiry.Duration,
			RefreshTTL: cfg.Auth.RefreshTokenExpiry.Duration,
		},
		Auth:          appsvc.NewAuthService(app.Store.Users, app.Media, tokens, app.HistoryCache),
		Tokens:        tokens,
		Profiles:      appsvc.NewProfileService(app.Store.Profiles, app.HistoryCache),
		Subscriptions: appsvc.NewSubscriptionService(app.Store.Users, app.Store.Subscriptions),
		Videos:        appsvc.NewVideoService(app.Store.Videos, app.Media, app.WatchPublisher, app.HistoryCache),
		Media:         app.Media,
		Health:        handler.NewHealthHandler(cfg.App.Name, cfg.App.Env, app.StartedAt, app.HealthChecks()),
	})
}

func NewEngine(opts Options) *gin.Engine {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	router := gin.New()
	if opts.UploadLimit > 0 {
		router.MaxMultipartMemory = opts.UploadLimit
	}
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(opts.CORSOrigin))

	jsonBody := middleware.BodyLimit(opts.BodyLimit)
	uploadBody := middleware.BodyLimit(opts.UploadLimit)
	requireUser := middleware.RequireUser(opts.Tokens)

	if opts.Health != nil {
		router.GET("/healthz", opts.Health.Check)
	}
	if opts.Media != nil {
		router.GET("/media/*object", handler.NewMediaHandler(opts.Media).Serve)
	}

	userHandler := handler.NewUserHandler(opts.Auth, opts.Tokens, opts.Profiles, opts.Cookies)
	subscriptionHandler := handler.NewSubscriptionHandler(opts.Subscriptions)
	videoHandler := handler.NewVideoHandler(opts.Videos)

	v1 := router.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("/register", uploadBody, userHandler.Register)
	users.POST("/login", jsonBody, userHandler.Login)
	users.POST("/refresh-token", jsonBody, userHandler.RefreshToken)
	users.POST("/logout", requireUser, userHandler.Logout)
	users.POST("/change-password", jsonBody, requireUser, userHandler.ChangePassword)
	users.PATCH("/update-account", jsonBody, requireUser, userHandler.UpdateAccount)
	users.PATCH("/avatar", uploadBody, requireUser, userHandler.UpdateAvatar)
	users.PATCH("/cover-image", uploadBody, requireUser, userHandler.UpdateCoverImage)
	users.GET("/get-current-user", requireUser, userHandler.CurrentUser)
	users.GET("/channel/:username", requireUser, userHandler.ChannelProfile)
	users.GET("/watchHistory", requireUser, userHandler.WatchHistory)

	subscriptions := v1.Group("/subscriptions", requireUser)
	subscriptions.POST("/:username", subscriptionHandler.Subscribe)
	subscriptions.DELETE("/:username", subscriptionHandler.Unsubscribe)

	videos := v1.Group("/videos", requireUser)
	videos.POST("", uploadBody, videoHandler.Publish)
	videos.GET("/:videoId", videoHandler.Get)
	videos.POST("/:videoId/watch", videoHandler.RecordWatch)

	return router
}
