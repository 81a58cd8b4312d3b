package api

import (
	"net/http"
	"time"

	"algoarena/internal/api/handler"
	"algoarena/internal/app/broadcast"
	"algoarena/internal/app/service"
	"algoarena/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	problemService *service.ProblemService,
	submissionService *service.SubmissionService,
	contestService *service.ContestService,
	hub *broadcast.Hub,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		// The request timeout covers the JSON API only. Websocket viewers hold
		// their connection open for the length of a contest, so /ws mounts
		// outside the timeout group.
		v1.Group(func(api chi.Router) {
			api.Use(chiMiddleware.Timeout(120 * time.Second))

			authHandler := handler.NewAuthHandler(authService)
			api.Group(func(publicAuth chi.Router) {
				authHandler.RegisterRoutes(publicAuth)
			})

			problemHandler := handler.NewProblemHandler(problemService)
			api.Route("/problems", problemHandler.RegisterRoutes)

			submissionHandler := handler.NewSubmissionHandler(submissionService)
			api.Route("/submissions", submissionHandler.RegisterRoutes)

			contestHandler := handler.NewContestHandler(contestService)
			api.Route("/contests", contestHandler.RegisterRoutes)
		})

		wsHandler := handler.NewWsHandler(hub, contestService)
		v1.Route("/ws", wsHandler.RegisterRoutes)
	})

	return r
}
