package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/config"
	"github.com/quizforge/quizforge/internal/exam"
	"github.com/quizforge/quizforge/internal/identity"
)

// NewRouter wires the HTTP surface: public session endpoints, the protected
// examination/mini-test API and the admin cleanup trigger.
func NewRouter(cfg config.Config, authSvc *auth.Service, users *identity.Store, svc *exam.Service, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	store := svc.Store()

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", auth.LoginHandler(authSvc, users))
		api.Post("/auth/register", auth.RegisterHandler(authSvc, users))
		api.Post("/auth/guest", auth.GuestLoginHandler(authSvc, users, cfg.EnableGuestAuth))

		api.Group(func(pr chi.Router) {
			pr.Use(auth.Middleware(authSvc, users))

			pr.Post("/auth/logout", auth.LogoutHandler(users, log))
			pr.Put("/account", auth.UpdateAccountHandler(authSvc, users))

			pr.Get("/tests/{testID}", ShowTestHandler(store, log))

			pr.Get("/mini-tests", SearchMiniTestHandler(store, log))
			pr.Post("/mini-tests", CreateMiniTestHandler(store, log))

			pr.Post("/user-responses", SubmitResultHandler(svc, log))

			pr.Get("/examinations", ListExaminationsHandler(store, log))
			pr.Get("/examinations/{examinationID}", ShowExaminationHandler(store, log))
			pr.Delete("/examinations/{examinationID}", DeleteExaminationHandler(store, log))
			pr.Get("/examinations/{examinationID}/score", ShowScoreHandler(store, log))

			pr.With(auth.RequireAdmin).Post("/admin/cleanup-guests", CleanupGuestsHandler(users, log))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	return r
}
