package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pharmacart/account-api/internal/application/account"
	"github.com/pharmacart/account-api/internal/application/auth"
	"github.com/pharmacart/account-api/internal/application/prescription"
	"github.com/pharmacart/account-api/internal/application/registration"
	"github.com/pharmacart/account-api/internal/config"
	"github.com/pharmacart/account-api/internal/transport/http/handler"
	appmiddleware "github.com/pharmacart/account-api/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider, cfg.CookieName)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	regSvc := registration.NewService(registration.ServiceDeps{
		UserRepo:   deps.UserRepo,
		Dispatcher: registration.NewMailDispatcher(deps.Mailer),
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:         deps.UserRepo,
		VerificationRepo: deps.VerificationRepo,
		LoginEventRepo:   deps.LoginEventRepo,
		Mailer:           deps.Mailer,
		Signer:           deps.JWTProvider,
	})
	accountSvc := account.NewService(account.ServiceDeps{
		UserRepo:         deps.UserRepo,
		VerificationRepo: deps.VerificationRepo,
		LoginEventRepo:   deps.LoginEventRepo,
		SMSSender:        deps.SMSSender,
	})
	rxSvc := prescription.NewService(prescription.ServiceDeps{
		PrescriptionRepo: deps.PrescriptionRepo,
		ObjectStore:      deps.S3Store,
	})

	cookie := handler.SessionCookie{
		Name:   cfg.CookieName,
		Secure: cfg.CookieSecure,
		TTL:    deps.JWTProvider.TTL(),
	}

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(regSvc, authSvc, cookie)
	pwH := handler.NewPasswordRecoveryHandler(authSvc, cookie)
	accountH := handler.NewAccountHandler(accountSvc)
	rxH := handler.NewPrescriptionHandler(rxSvc)

	r.Get("/healthz", healthH.Ping)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.With(sensitiveRL.Limit).Post("/auth/signup", authH.Signup)
		r.With(sensitiveRL.Limit).Post("/auth/verify", authH.Verify)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.Post("/auth/logout", authH.Logout)
		r.With(sensitiveRL.Limit).Post("/auth/password-recovery/{action}", pwH.Action)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/auth/me", authH.Me)
			r.Post("/account/change-password", pwH.ChangePassword)

			r.Get("/account/profile", accountH.Profile)
			r.Put("/account/profile", accountH.UpdateProfile)
			r.Delete("/account/profile", accountH.Deactivate)
			r.Post("/account/phone/{action}", accountH.ConfirmPhone)
			r.Get("/account/logins", accountH.LoginActivity)

			r.Post("/account/prescriptions", rxH.Upload)
			r.Get("/account/prescriptions", rxH.List)
			r.Get("/account/prescriptions/{id}", rxH.DownloadURL)
			r.Delete("/account/prescriptions/{id}", rxH.Delete)
		})
	})

	return r
}
