package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/aslema/aslema-api/internal/api"
	"github.com/aslema/aslema-api/internal/api/middleware"
	"github.com/aslema/aslema-api/internal/config"
	"github.com/aslema/aslema-api/internal/domain/srs"
	"github.com/aslema/aslema-api/internal/platform/clock"
	"github.com/aslema/aslema-api/internal/platform/postgres"
	"github.com/aslema/aslema-api/internal/service/review"
)

// application bundles the wired dependencies behind the HTTP server.
type application struct {
	cfg           *config.Config
	db            *sql.DB
	reviewService review.ReviewService
	logger        *slog.Logger
}

// newApplication wires stores, domain services and the review service on top
// of an open database connection.
func newApplication(cfg *config.Config, db *sql.DB, logger *slog.Logger) (*application, error) {
	loc, err := time.LoadLocation(cfg.Server.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", cfg.Server.TimeZone, err)
	}

	reviewStore := postgres.NewPostgresReviewStore(db, logger)
	itemStore := postgres.NewPostgresItemStore(db, logger)
	statsStore := postgres.NewPostgresUserStatsStore(db, logger)

	reviewService := review.NewReviewService(
		db,
		reviewStore,
		itemStore,
		statsStore,
		srs.NewDefaultService(),
		clock.New(loc),
		nil,
		review.Defaults{
			NewLimit: cfg.Session.DefaultNewLimit,
			DueLimit: cfg.Session.DefaultDueLimit,
			Locale:   cfg.Session.DefaultLocale,
		},
		logger,
	)

	return &application{
		cfg:           cfg,
		db:            db,
		reviewService: reviewService,
		logger:        logger,
	}, nil
}

// router builds the full HTTP routing table.
func (app *application) router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	identity := middleware.NewIdentity(app.cfg.Auth.TokenSecret, app.logger)
	reviewHandler := api.NewReviewHandler(app.reviewService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/reviews", func(r chi.Router) {
			// Mutations require an identified caller.
			r.Group(func(r chi.Router) {
				r.Use(identity.Required)
				r.Post("/start", reviewHandler.StartLearning)
				r.Post("/{id}/answer", reviewHandler.SubmitAnswer)
			})

			// Reads fall back to the anonymous user.
			r.Group(func(r chi.Router) {
				r.Use(identity.Optional)
				r.Get("/due", reviewHandler.DueReviews)
				r.Get("/today", reviewHandler.TodaySession)
				r.Get("/stats", reviewHandler.Stats)
			})

			if app.cfg.Server.Env == "development" {
				r.Group(func(r chi.Router) {
					r.Use(identity.Required)
					r.Post("/dev/simulate-days", reviewHandler.SimulateDays)
					r.Post("/dev/reset", reviewHandler.Reset)
				})
			}
		})
	})

	return r
}
