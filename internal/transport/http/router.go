package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/otp-auth-api/internal/application/auth"
	"github.com/otp-auth-api/internal/application/otp"
	"github.com/otp-auth-api/internal/application/user"
	"github.com/otp-auth-api/internal/config"
	"github.com/otp-auth-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/otp-auth-api/internal/infrastructure/jwt"
	"github.com/otp-auth-api/internal/infrastructure/sms"
	"github.com/otp-auth-api/internal/transport/http/handler"
	appmiddleware "github.com/otp-auth-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	OTPRepo     *dynamo.OTPRepo
	SMSGateway  sms.Gateway
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to the public OTP endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	otpSvc := otp.NewService(otp.ServiceDeps{
		OTPRepo:    deps.OTPRepo,
		Gateway:    deps.SMSGateway,
		TTL:        cfg.OTPTTL,
		CodeLength: cfg.OTPCodeLength,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		JWTProvider: deps.JWTProvider,
	})
	userSvc := user.NewService(deps.UserRepo)

	healthH := handler.NewHealthHandler()
	docsH := handler.NewDocsHandler()
	authH := handler.NewAuthHandler(otpSvc, authSvc)
	profileH := handler.NewProfileHandler(userSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/test", healthH.Test)
		r.Post("/test", healthH.Test)
		r.Get("/auth/docs", docsH.Docs)
		r.With(sensitiveRL.Limit).Post("/auth/send-otp", authH.SendOTP)
		r.With(sensitiveRL.Limit).Post("/auth/verify-otp", authH.VerifyOTP)
		r.Post("/auth/refresh", authH.Refresh)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/auth/profile", profileH.Get)
			r.Put("/auth/profile", profileH.Update)
		})
	})

	return r
}
