package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/dart-tournament/docs"
	"github.com/Dosada05/dart-tournament/handlers"
	"github.com/Dosada05/dart-tournament/middleware"
)

type Handlers struct {
	Health     *handlers.HealthHandler
	Player     *handlers.PlayerHandler
	Tournament *handlers.TournamentHandler
	Match      *handlers.MatchHandler
	WebSocket  *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, allowedOrigins []string, logger *slog.Logger) {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	router.Get("/healthz", h.Health.HealthzHandler)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Route("/players", func(r chi.Router) {
		r.Get("/", h.Player.ListHandler)
		r.Post("/", h.Player.CreateHandler)
		r.Get("/top", h.Player.TopHandler)

		r.Route("/{playerID}", func(r chi.Router) {
			r.Get("/", h.Player.GetHandler)
			r.Put("/", h.Player.UpdateHandler)
			r.Delete("/", h.Player.DeleteHandler)
			r.Post("/enable", h.Player.EnableHandler)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.ListHandler)
		r.Post("/", h.Tournament.CreateHandler)
		r.Get("/current", h.Tournament.CurrentHandler)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", h.Tournament.GetByIDHandler)
			r.Put("/", h.Tournament.UpdateHandler)
			r.Delete("/", h.Tournament.DeleteHandler)

			r.Get("/participants", h.Tournament.ListParticipantsHandler)
			r.Post("/participants", h.Tournament.AddParticipantHandler)
			r.Delete("/participants/{playerID}", h.Tournament.RemoveParticipantHandler)

			r.Post("/start", h.Tournament.StartHandler)
			r.Get("/bracket", h.Tournament.BracketHandler)
			r.Get("/matches", h.Tournament.ListMatchesHandler)
			r.Get("/repechage", h.Tournament.RepechageHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/active", h.Match.ActiveHandler)

		r.Route("/{matchID}", func(r chi.Router) {
			r.Get("/", h.Match.GetHandler)
			r.Get("/history", h.Match.HistoryHandler)
			r.Post("/activate", h.Match.ActivateHandler)
			r.Put("/score", h.Match.ScoreHandler)
			r.Put("/end", h.Match.EndHandler)
			r.Post("/replace", h.Match.ReplaceHandler)
			r.Post("/fill", h.Match.FillHandler)
			r.Post("/commands", h.Match.CommandHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)
}
