package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/cutout-server/internal/api/http/handler"
	"github.com/dtroode/cutout-server/internal/api/http/middleware"
	"github.com/dtroode/cutout-server/internal/logger"
	"github.com/dtroode/cutout-server/internal/model"
)

// Services are the application services reachable over HTTP.
type Services struct {
	Jobs            handler.JobService
	Auth            handler.AuthService
	Accounts        handler.AccountService
	Credentials     middleware.CredentialVerifier
	WebhookVerifier handler.WebhookVerifier
	// Pinger may be nil when the backend has nothing to ping.
	Pinger handler.Pinger
}

// Options holds HTTP-level settings.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	PaymentSecret  string
}

// Router builds the public HTTP API.
type Router struct {
	services       Services
	opts           Options
	observer       middleware.RequestObserver
	gatherer       prometheus.Gatherer
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates new HTTP Router instance. observer and gatherer may be nil,
// in which case request metrics and /metrics are disabled.
func New(
	services Services,
	opts Options,
	observer middleware.RequestObserver,
	gatherer prometheus.Gatherer,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		services:       services,
		opts:           opts,
		observer:       observer,
		gatherer:       gatherer,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register mounts middleware and routes and returns the root handler.
func (r *Router) Register() http.Handler {
	mux := chi.NewRouter()

	logging := middleware.NewLogging(r.logger, r.observer)
	authenticate := middleware.NewAuthenticate(r.services.Credentials, r.contextManager, r.logger)

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(logging.Handle)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: r.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "token", handler.PaymentSecretHeader},
		MaxAge:         300,
	}))

	health := handler.NewHealth(r.services.Pinger)
	mux.Get("/health", health.Check)
	if r.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	}

	mux.Route("/api", func(api chi.Router) {
		r.registerImageRoutes(api, authenticate)
		r.registerUserRoutes(api, authenticate)
		r.registerCreditRoutes(api)
	})

	return mux
}

func (r *Router) registerImageRoutes(api chi.Router, authenticate *middleware.Authenticate) {
	image := handler.NewImage(r.services.Jobs, r.contextManager, r.opts.MaxUploadBytes, r.logger)

	api.Route("/image", func(g chi.Router) {
		g.Post("/remove-bg", image.RemoveBackground)
		g.With(authenticate.Handle).Get("/result/{jobId}", image.Result)
	})
}

func (r *Router) registerUserRoutes(api chi.Router, authenticate *middleware.Authenticate) {
	user := handler.NewUser(r.services.Auth, r.services.Accounts, r.contextManager, r.logger)
	webhook := handler.NewWebhook(r.services.WebhookVerifier, r.services.Accounts, r.logger)

	api.Route("/user", func(g chi.Router) {
		g.Post("/signup", user.SignUp)
		g.Post("/signin", user.SignIn)
		g.Post("/google-signin", user.GoogleSignIn)
		g.Post("/webhooks", webhook.Identity)

		g.Group(func(private chi.Router) {
			private.Use(authenticate.Handle)
			private.Get("/credits", user.Credits)
			private.Get("/profile", user.Profile)
		})

		g.Get("/{userId}", user.GetByID)
	})
}

func (r *Router) registerCreditRoutes(api chi.Router) {
	credits := handler.NewCredits(r.services.Accounts, r.opts.PaymentSecret, r.logger)

	api.Route("/credits", func(g chi.Router) {
		g.Get("/plans", credits.Plans)
		g.Post("/purchase", credits.Purchase)
	})
}
