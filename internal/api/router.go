package api

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/eventhall/server/internal/api/handlers"
	"github.com/eventhall/server/internal/api/middleware"
	"github.com/eventhall/server/internal/auth"
	"github.com/eventhall/server/internal/config"
	"github.com/eventhall/server/internal/domain/applications"
	"github.com/eventhall/server/internal/domain/categories"
	"github.com/eventhall/server/internal/domain/events"
	"github.com/eventhall/server/internal/domain/interactions"
	"github.com/eventhall/server/internal/domain/users"
	"github.com/eventhall/server/internal/email"
	"github.com/eventhall/server/internal/metrics"
	"github.com/eventhall/server/internal/storage"
	"github.com/eventhall/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter wires the storage, domain, and HTTP layers into the
// complete request handler.
func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, version, gitCommit string) (http.Handler, error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, err
	}

	emailService, err := email.NewService(cfg.Email, logger)
	if err != nil {
		return nil, err
	}

	usersTx := func(ctx context.Context, fn func(context.Context, users.Repository) error) error {
		return repo.WithTx(ctx, func(ctx context.Context, txRepo storage.Repository) error {
			return fn(ctx, txRepo.Users())
		})
	}
	usersService := users.NewService(repo.Users(), usersTx, cfg.Auth, logger)
	categoriesService := categories.NewService(repo.Categories())
	eventsService := events.NewService(repo.Events(), repo.Categories())
	interactionsService := interactions.NewService(repo.Interactions())
	applicationsService := applications.NewService(
		repo.Applications(),
		&applicationNotifier{service: emailService, logger: logger},
		logger,
	)

	verifier := auth.NewJWTVerifier(cfg.Auth.TokenSecret, cfg.Auth.TokenIssuer)

	env := cfg.Environment
	authHandler := handlers.NewAuthHandler(usersService, categoriesService, verifier, cfg.Auth, env)
	eventsHandler := handlers.NewEventsHandler(eventsService, interactionsService, env)
	meHandler := handlers.NewMeHandler(usersService, eventsService, interactionsService, env)
	adminHandler := handlers.NewAdminHandler(applicationsService, eventsService, usersService, &moderationNotifier{service: emailService, logger: logger}, env)
	healthChecker := handlers.NewHealthChecker(pool, version, gitCommit)

	limit := middleware.RateLimit(cfg.RateLimit)
	authenticate := middleware.Authenticate(verifier, usersService, cfg.Auth, env)
	requireUser := middleware.RequireUser(env)
	eventAdmin := middleware.RequireRole(env, auth.RoleEventAdmin, auth.RoleUltimateAdmin)
	ultimateAdmin := middleware.RequireRole(env, auth.RoleUltimateAdmin)

	public := func(h http.Handler) http.Handler {
		tier := middleware.WithRateLimitTierHandler(middleware.TierPublic)
		return tier(limit(middleware.PublicRequestSize()(h)))
	}
	authed := func(h http.Handler) http.Handler {
		tier := middleware.WithRateLimitTierHandler(middleware.TierAuth)
		return tier(limit(middleware.PublicRequestSize()(authenticate(requireUser(h)))))
	}
	creator := func(h http.Handler) http.Handler {
		tier := middleware.WithRateLimitTierHandler(middleware.TierAuth)
		return tier(limit(middleware.PublicRequestSize()(authenticate(requireUser(eventAdmin(h))))))
	}
	admin := func(h http.Handler) http.Handler {
		tier := middleware.WithRateLimitTierHandler(middleware.TierAdmin)
		return tier(limit(middleware.AdminRequestSize()(authenticate(requireUser(ultimateAdmin(h))))))
	}

	mux := http.NewServeMux()

	mux.Handle("/health", healthChecker.Health())
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(pool))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/auth/sync-user", methodMux(map[string]http.Handler{
		http.MethodPost: public(http.HandlerFunc(authHandler.SyncUser)),
	}))
	mux.Handle("/api/auth/update-profile", methodMux(map[string]http.Handler{
		http.MethodPost: public(http.HandlerFunc(authHandler.UpdateProfile)),
	}))
	mux.Handle("/api/auth/categories", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(authHandler.ListCategories)),
	}))

	mux.Handle("/api/events", methodMux(map[string]http.Handler{
		http.MethodGet:  public(http.HandlerFunc(eventsHandler.List)),
		http.MethodPost: creator(http.HandlerFunc(eventsHandler.Create)),
	}))
	mux.Handle("/api/events/by-categories", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(eventsHandler.ByCategories)),
	}))
	mux.Handle("/api/events/check-interactions", methodMux(map[string]http.Handler{
		http.MethodPost: authed(http.HandlerFunc(eventsHandler.CheckInteractions)),
	}))
	mux.Handle("/api/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(eventsHandler.Get)),
		http.MethodPut: creator(http.HandlerFunc(eventsHandler.Update)),
	}))
	mux.Handle("/api/events/{id}/like", methodMux(map[string]http.Handler{
		http.MethodPost: authed(http.HandlerFunc(eventsHandler.ToggleLike)),
	}))
	mux.Handle("/api/events/{id}/register", methodMux(map[string]http.Handler{
		http.MethodPost: authed(http.HandlerFunc(eventsHandler.Register)),
	}))

	mux.Handle("/api/me", methodMux(map[string]http.Handler{
		http.MethodGet: authed(http.HandlerFunc(meHandler.Profile)),
	}))
	mux.Handle("/api/me/likes", methodMux(map[string]http.Handler{
		http.MethodGet: authed(http.HandlerFunc(meHandler.LikedEvents)),
	}))
	mux.Handle("/api/me/registrations", methodMux(map[string]http.Handler{
		http.MethodGet: authed(http.HandlerFunc(meHandler.RegisteredEvents)),
	}))
	mux.Handle("/api/me/events", methodMux(map[string]http.Handler{
		http.MethodGet: authed(http.HandlerFunc(meHandler.CreatedEvents)),
	}))

	mux.Handle("/api/admin/apply", methodMux(map[string]http.Handler{
		http.MethodPost: authed(http.HandlerFunc(adminHandler.Apply)),
	}))
	mux.Handle("/api/admin/applications", methodMux(map[string]http.Handler{
		http.MethodGet: admin(http.HandlerFunc(adminHandler.ListApplications)),
	}))
	mux.Handle("/api/admin/applications/{id}", methodMux(map[string]http.Handler{
		http.MethodPatch: admin(http.HandlerFunc(adminHandler.ReviewApplication)),
	}))
	mux.Handle("/api/admin/events/pending", methodMux(map[string]http.Handler{
		http.MethodGet: admin(http.HandlerFunc(adminHandler.PendingEvents)),
	}))
	mux.Handle("/api/admin/events/all", methodMux(map[string]http.Handler{
		http.MethodGet: admin(http.HandlerFunc(adminHandler.AllEvents)),
	}))
	mux.Handle("/api/admin/events/{id}/status", methodMux(map[string]http.Handler{
		http.MethodPatch: admin(http.HandlerFunc(adminHandler.UpdateEventStatus)),
	}))
	mux.Handle("/api/admin/users", methodMux(map[string]http.Handler{
		http.MethodGet: admin(http.HandlerFunc(adminHandler.ListUsers)),
	}))

	var handler http.Handler = mux
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler, nil
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

// applicationNotifier adapts the email service to the applications
// domain's fire-and-forget notifier.
type applicationNotifier struct {
	service *email.Service
	logger  zerolog.Logger
}

func (n *applicationNotifier) ApplicationReviewed(ctx context.Context, to, fullName string, approved bool) {
	outcome := "sent"
	if err := n.service.ApplicationReviewed(ctx, to, fullName, approved); err != nil {
		outcome = "failed"
		n.logger.Warn().Err(err).Str("to", to).Msg("application review email failed")
	}
	metrics.EmailsSentTotal.WithLabelValues("application_reviewed", outcome).Inc()
}

// moderationNotifier adapts the email service to the admin handler's
// moderation notifier.
type moderationNotifier struct {
	service *email.Service
	logger  zerolog.Logger
}

func (n *moderationNotifier) EventModerated(ctx context.Context, to, fullName, eventTitle string, published bool, reason string) error {
	outcome := "sent"
	err := n.service.EventModerated(ctx, to, fullName, eventTitle, published, reason)
	if err != nil {
		outcome = "failed"
	}
	metrics.EmailsSentTotal.WithLabelValues("event_moderated", outcome).Inc()
	return err
}
