// Package router wires services, handlers and middleware into one chi router
// shared by the serverless entry point and the long-running server.
package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"venue-crm-backend/pkg/auth"
	"venue-crm-backend/pkg/config"
	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/handlers"
	customMiddleware "venue-crm-backend/pkg/middleware"
	"venue-crm-backend/pkg/pdf"
	"venue-crm-backend/pkg/permissions"
	"venue-crm-backend/pkg/services"
	"venue-crm-backend/pkg/storage"
	"venue-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the router needs. Nil optional fields get
// in-process defaults.
type Deps struct {
	Config    *config.Config
	DB        database.DatabaseInterface
	Providers auth.Providers
	Sessions  *auth.Sessions
	Documents storage.DocumentStore
	Locker    services.Locker
	Limiter   customMiddleware.RateLimiter
}

// NewDeps builds Deps from cfg. Redis backs the revocation list, the rate
// limiter and the invoice lock when REDIS_ADDRESS answers; otherwise each
// falls back to its in-process version.
func NewDeps(ctx context.Context, cfg *config.Config, db database.DatabaseInterface) (*Deps, error) {
	documents, err := storage.NewDocumentStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("document store: %w", err)
	}

	jwtService := utils.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	deps := &Deps{
		Config:    cfg,
		DB:        db,
		Providers: auth.NewProviders(cfg),
		Documents: documents,
	}

	if rdb := config.GetRedis(cfg); rdb != nil {
		deps.Sessions = auth.NewSessions(jwtService, auth.NewRedisRevocationStore(rdb))
		deps.Locker = services.NewRedisLocker(config.GetRedisLock(cfg))
		deps.Limiter = customMiddleware.NewRedisRateLimiter(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow)
	} else {
		deps.Sessions = auth.NewSessions(jwtService, auth.NewMemoryRevocationStore())
	}
	return deps, nil
}

func (d *Deps) fillDefaults() {
	cfg := d.Config
	if d.Sessions == nil {
		d.Sessions = auth.NewSessions(
			utils.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
			auth.NewMemoryRevocationStore())
	}
	if d.Providers == nil {
		d.Providers = auth.NewProviders(cfg)
	}
	if d.Locker == nil {
		d.Locker = services.NewLocalLocker()
	}
	if d.Limiter == nil && cfg.RateLimitRequests > 0 {
		d.Limiter = customMiddleware.NewMemoryRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
}

// NewRouter builds the full HTTP surface.
func NewRouter(deps *Deps) http.Handler {
	deps.fillDefaults()
	cfg := deps.Config

	issuer := pdf.Issuer{Name: cfg.AgencyName, Address: cfg.AgencyAddress, Email: cfg.AgencyEmail}

	userService := services.NewUserService(deps.DB, cfg.IsAdminEmail)
	bookingService := services.NewBookingService(deps.DB)

	authHandler := handlers.NewAuthHandler(cfg, deps.Providers, deps.Sessions, userService)
	healthHandler := handlers.NewHealthHandler(cfg, deps.DB)
	clientsHandler := handlers.NewClientsHandler(services.NewClientService(deps.DB))
	venuesHandler := handlers.NewVenuesHandler(services.NewVenueService(deps.DB))
	proposalsHandler := handlers.NewProposalsHandler(services.NewProposalService(deps.DB), bookingService, issuer)
	bookingsHandler := handlers.NewBookingsHandler(bookingService, deps.Documents, issuer, cfg.BaseURL)
	claimsHandler := handlers.NewClaimsHandler(services.NewClaimService(deps.DB, deps.Locker, cfg.ClaimPaymentTermsDays), issuer)
	usersHandler := handlers.NewUsersHandler(userService)
	reportsHandler := handlers.NewReportsHandler(services.NewReportService(deps.DB))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.RequestLogger)
	router.Use(customMiddleware.Recovery)
	router.Use(customMiddleware.CORS(cfg))
	if deps.Limiter != nil {
		router.Use(customMiddleware.RateLimit(deps.Limiter))
	}
	router.Use(customMiddleware.MaxBodySize(cfg.MaxBodyBytes))
	router.Use(middleware.Timeout(25 * time.Second))

	router.Get("/", healthHandler.Check)
	router.Get("/health", healthHandler.Check)

	authenticate := customMiddleware.Authenticate(deps.Sessions, userService.GetByID)
	perm := customMiddleware.RequirePermission

	router.Route("/auth", func(r chi.Router) {
		r.Get("/providers", authHandler.ListProviders)
		r.With(customMiddleware.ContentTypeJSON).Post("/refresh", authHandler.Refresh)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)
		})
		r.Get("/{provider}", authHandler.Begin)
		r.Get("/{provider}/callback", authHandler.Callback)
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/clients", func(r chi.Router) {
			r.With(perm(permissions.ClientsRead)).Get("/", clientsHandler.List)
			r.With(perm(permissions.ClientsCreate), customMiddleware.ContentTypeJSON).Post("/", clientsHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.With(perm(permissions.ClientsRead)).Get("/", clientsHandler.Get)
				r.With(perm(permissions.ClientsUpdate), customMiddleware.ContentTypeJSON).Put("/", clientsHandler.Update)
				r.With(perm(permissions.ClientsDelete)).Delete("/", clientsHandler.Delete)
				r.With(perm(permissions.ClientsDelete)).Get("/deletion-check", clientsHandler.DeletionCheck)
			})
		})

		r.Route("/venues", func(r chi.Router) {
			r.With(perm(permissions.VenuesRead)).Get("/", venuesHandler.List)
			r.With(perm(permissions.VenuesCreate), customMiddleware.ContentTypeJSON).Post("/", venuesHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.With(perm(permissions.VenuesRead)).Get("/", venuesHandler.Get)
				r.With(perm(permissions.VenuesUpdate), customMiddleware.ContentTypeJSON).Put("/", venuesHandler.Update)
				r.With(perm(permissions.VenuesDelete)).Delete("/", venuesHandler.Delete)
				r.With(perm(permissions.VenuesDelete)).Get("/deletion-check", venuesHandler.DeletionCheck)
			})
		})

		r.Route("/proposals", func(r chi.Router) {
			r.With(perm(permissions.ProposalsRead)).Get("/", proposalsHandler.List)
			r.With(perm(permissions.ProposalsCreate), customMiddleware.ContentTypeJSON).Post("/", proposalsHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.With(perm(permissions.ProposalsRead)).Get("/", proposalsHandler.Get)
				r.With(perm(permissions.ProposalsUpdate), customMiddleware.ContentTypeJSON).Put("/", proposalsHandler.Update)
				r.With(perm(permissions.ProposalsDelete)).Delete("/", proposalsHandler.Delete)
				r.With(perm(permissions.ProposalsUpdate)).Post("/send", proposalsHandler.Send)
				r.With(perm(permissions.ProposalsUpdate)).Post("/recalculate", proposalsHandler.Recalculate)
				r.With(perm(permissions.BookingsCreate), customMiddleware.ContentTypeJSON).Post("/convert", proposalsHandler.Convert)
				r.With(perm(permissions.ProposalsRead)).Get("/pdf", proposalsHandler.PDF)
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.With(perm(permissions.BookingsRead)).Get("/", bookingsHandler.List)
			r.With(perm(permissions.BookingsCreate), customMiddleware.ContentTypeJSON).Post("/", bookingsHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.With(perm(permissions.BookingsRead)).Get("/", bookingsHandler.Get)
				r.With(perm(permissions.BookingsUpdate), customMiddleware.ContentTypeJSON).Put("/", bookingsHandler.Update)
				r.With(perm(permissions.BookingsUpdate), customMiddleware.ContentTypeJSON).Patch("/status", bookingsHandler.ChangeStatus)
				r.With(perm(permissions.BookingsDelete)).Delete("/", bookingsHandler.Delete)
				r.With(perm(permissions.BookingsUpdate)).Post("/documents", bookingsHandler.UploadDocument)
				r.With(perm(permissions.BookingsRead)).Get("/documents/{name}", bookingsHandler.DownloadDocument)
				r.With(perm(permissions.BookingsRead)).Get("/confirmation", bookingsHandler.Confirmation)
			})
		})

		r.Route("/claims", func(r chi.Router) {
			r.With(perm(permissions.ClaimsRead)).Get("/", claimsHandler.List)
			r.With(perm(permissions.ClaimsCreate), customMiddleware.ContentTypeJSON).Post("/", claimsHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.With(perm(permissions.ClaimsRead)).Get("/", claimsHandler.Get)
				r.With(perm(permissions.ClaimsUpdate), customMiddleware.ContentTypeJSON).Put("/", claimsHandler.Update)
				r.With(perm(permissions.ClaimsDelete)).Delete("/", claimsHandler.Delete)
				r.With(perm(permissions.ClaimsRead)).Get("/invoice", claimsHandler.Invoice)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(perm(permissions.UsersRead)).Get("/", usersHandler.List)
			r.With(perm(permissions.UsersManage), customMiddleware.ContentTypeJSON).Post("/", usersHandler.Create)
			r.With(perm(permissions.UsersRead)).Get("/{id}", usersHandler.Get)
			r.With(perm(permissions.UsersManage), customMiddleware.ContentTypeJSON).Patch("/{id}/role", usersHandler.UpdateRole)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(perm(permissions.ReportsRead))
			r.Get("/dashboard", reportsHandler.Dashboard)
			r.Get("/pipeline", reportsHandler.Pipeline)
			r.Get("/commission", reportsHandler.Commission)
			r.Get("/commission/export", reportsHandler.ExportCommission)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, r, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponseWithCode(w, r, http.StatusMethodNotAllowed, utils.CodeMethodNotAllowed,
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path))
	})

	return router
}
