package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/faridz/amlak/internal/ads"
	"github.com/faridz/amlak/internal/api"
	"github.com/faridz/amlak/internal/auth"
	"github.com/faridz/amlak/internal/config"
	"github.com/faridz/amlak/internal/ratelimit"
)

type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	httpServer *http.Server
}

type Params struct {
	fx.In

	Config         *config.AppConfig
	Logger         *zap.Logger
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.Middleware
	AdsHandler     *ads.Handler
	Limiter        *ratelimit.Limiter
}

func NewServer(p Params) *Server {
	router := newRouter(p)

	addr := fmt.Sprintf("%s:%s", p.Config.Server.Host, p.Config.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		config:     p.Config,
		log:        p.Logger,
		httpServer: httpServer,
	}
}

func newRouter(p Params) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	loginLimit := p.Config.RateLimit.LoginLimit
	if loginLimit <= 0 {
		loginLimit = 5
	}
	registerLimit := p.Config.RateLimit.RegisterLimit
	if registerLimit <= 0 {
		registerLimit = 10
	}

	// Public routes
	r.With(p.Limiter.Limit("register", registerLimit)).Post(api.UsersRegister, p.AuthHandler.Register)
	r.With(p.Limiter.Limit("login", loginLimit)).Post(api.UsersLogin, p.AuthHandler.Login)
	r.Post(api.UsersRefresh, p.AuthHandler.Refresh)

	r.Get(api.Ads, p.AdsHandler.ListApproved)
	r.Get(api.Ads+"/search/{query}", p.AdsHandler.Search)
	r.Get(api.Ads+"/province/{province}", p.AdsHandler.ByProvince)
	r.Get(api.Ads+"/type/{propertyType}", p.AdsHandler.ByPropertyType)
	r.Get(api.Ads+"/{adID}", p.AdsHandler.Get)
	r.Post(api.Ads+"/{adID}/click", p.AdsHandler.RecordClick)
	r.Post(api.Ads+"/{adID}/view", p.AdsHandler.RecordView)

	// Authenticated routes
	r.Group(func(pr chi.Router) {
		pr.Use(p.AuthMiddleware.Authenticate)

		pr.Get(api.UsersProfile, p.AuthHandler.Profile)
		pr.Get(api.UsersMyAds, p.AdsHandler.MyAds)
		pr.Get(api.UsersDashboard, p.AdsHandler.Dashboard)

		pr.Post(api.Ads, p.AdsHandler.Create)
		pr.Put(api.Ads+"/{adID}", p.AdsHandler.Update)
		pr.Delete(api.Ads+"/{adID}", p.AdsHandler.Delete)
		pr.Post(api.AdsUpload, p.AdsHandler.Upload)
	})

	// Admin routes
	r.Group(func(ar chi.Router) {
		ar.Use(p.AuthMiddleware.Authenticate)
		ar.Use(p.AuthMiddleware.RequireAdmin)

		ar.Get(api.UsersAdmin, p.AuthHandler.AdminListUsers)
		ar.Patch(api.UsersAdmin+"/{userID}", p.AuthHandler.AdminUpdateUser)
		ar.Delete(api.UsersAdmin+"/{userID}", p.AuthHandler.AdminDeleteUser)

		ar.Get(api.AdsAdmin, p.AdsHandler.AdminList)
		ar.Get(api.AdsStats, p.AdsHandler.Stats)
		ar.Patch(api.Ads+"/{adID}/status", p.AdsHandler.Moderate)
		ar.Post(api.Ads+"/{adID}/rate", p.AdsHandler.Rate)
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		zap.String("address", s.httpServer.Addr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", os.Getenv("APP_ENV"))
		enc.AddString("host", config.Server.Host)
		enc.AddString("port", config.Server.Port)
		enc.AddBool("refresh_tokens_enabled", config.Auth.RefreshTokenEnabled)
		return nil
	})
}

func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
