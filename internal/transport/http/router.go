package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/stakesol/api/internal/application/auth"
	"github.com/stakesol/api/internal/application/profile"
	"github.com/stakesol/api/internal/application/support"
	"github.com/stakesol/api/internal/config"
	jwtinfra "github.com/stakesol/api/internal/infrastructure/jwt"
	"github.com/stakesol/api/internal/infrastructure/smtp"
	snsinfra "github.com/stakesol/api/internal/infrastructure/sns"
	"github.com/stakesol/api/internal/transport/http/handler"
	appmiddleware "github.com/stakesol/api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo      AccountRepository
	VerificationRepo VerificationRepository
	TicketRepo       TicketRepository
	AvatarStore      AvatarStore
	Mailer           smtp.Mailer
	Publisher        snsinfra.TopicPublisher
	JWTProvider      *jwtinfra.Provider
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

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		AccountRepo:      deps.AccountRepo,
		VerificationRepo: deps.VerificationRepo,
		Mailer:           deps.Mailer,
		JWTProvider:      deps.JWTProvider,
		OTPTTL:           cfg.OTPTTL,
	})
	profileSvc := profile.NewService(profile.ServiceDeps{
		AccountRepo:      deps.AccountRepo,
		VerificationRepo: deps.VerificationRepo,
		Mailer:           deps.Mailer,
		AvatarStore:      deps.AvatarStore,
		OTPTTL:           cfg.OTPTTL,
	})
	supportSvc := support.NewService(support.ServiceDeps{
		TicketRepo:   deps.TicketRepo,
		Mailer:       deps.Mailer,
		Publisher:    deps.Publisher,
		SupportInbox: cfg.SupportInbox,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	passwordH := handler.NewPasswordHandler(authSvc)
	profileH := handler.NewProfileHandler(profileSvc)
	supportH := handler.NewSupportHandler(supportSvc)
	stakingH := handler.NewStakingHandler()

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/verify-otp", authH.VerifyOTP)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/resend-otp", authH.ResendOTP)
		r.With(sensitiveRL.Limit).Post("/auth/forgot-password", passwordH.Forgot)
		r.With(sensitiveRL.Limit).Post("/auth/reset-password", passwordH.Reset)
		r.Post("/auth/logout", authH.Logout)

		r.Post("/support", supportH.Submit)

		r.Get("/staking/plans", stakingH.Plans)
		r.Post("/staking/estimate", stakingH.Estimate)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/profile", profileH.Get)
			r.Put("/profile", profileH.Update)
			r.Post("/profile/verify-new-email", profileH.VerifyNewEmail)
		})
	})

	return r
}
