package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/tournament-stages/docs"
	"github.com/Dosada05/tournament-stages/handlers"
	"github.com/Dosada05/tournament-stages/middleware"
	"github.com/Dosada05/tournament-stages/models"
)

// Options carries the cross-cutting settings of the router.
type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *slog.Logger
}

type Handlers struct {
	Tournaments *handlers.TournamentHandler
	Stages      *handlers.StageHandler
	Groups      *handlers.GroupHandler
	Standings   *handlers.StandingsHandler
	Matches     *handlers.MatchHandler
	WebSocket   *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, opts Options, h Handlers) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret, opts.Logger)
	organizers := middleware.Authorize(models.RoleAdmin, models.RoleOrganizer)
	limiter := middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)

	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		r.With(authenticate, organizers).Post("/tournaments", h.Tournaments.CreateTournament)
		r.With(authenticate, organizers).Patch("/participants/{participantID}", h.Tournaments.UpdateParticipant)

		r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
			r.Get("/", h.Tournaments.GetTournament)
			r.Get("/participants", h.Tournaments.ListParticipants)
			r.Get("/stages", h.Stages.ListStages)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, organizers)
				r.Post("/participants", h.Tournaments.RegisterParticipant)
				r.Post("/stages", h.Stages.CreateStages)
				r.Post("/groups", h.Groups.ConfigureGroups)
				r.Post("/groups/draw", h.Groups.DrawGroups)
			})
		})

		r.Route("/stages/{stageID}", func(r chi.Router) {
			r.Get("/", h.Stages.GetStage)
			r.Get("/advancement", h.Stages.Advancement)
			r.Get("/groups", h.Groups.ListGroups)
			r.Get("/matches", h.Matches.ListStageMatches)
			r.Get("/standings", h.Standings.Export)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, organizers)
				r.Post("/start", h.Stages.StartStage)
				r.Post("/complete", h.Stages.CompleteStage)
				r.Post("/next", h.Stages.GenerateNextStage)
				r.Post("/swiss-rounds", h.Stages.GenerateSwissRound)
				r.Post("/groups/matches", h.Groups.GenerateMatches)
				r.Post("/standings/recalculate", h.Standings.RecalculateStage)
				r.Post("/standings/archive", h.Standings.Archive)
			})
		})

		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Get("/standings", h.Standings.GroupStandings)
			r.With(authenticate, organizers).Post("/standings/recalculate", h.Standings.RecalculateGroup)
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", h.Matches.GetMatch)
			r.Get("/disputes", h.Matches.ListDisputes)

			// Per-action permissions depend on the actor and the match, so
			// the service decides them.
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/start", h.Matches.Start)
				r.Post("/result", h.Matches.SubmitResult)
				r.Post("/confirm", h.Matches.ConfirmResult)
				r.Post("/dispute", h.Matches.Dispute)
				r.Post("/resolve", h.Matches.ResolveDispute)
				r.Post("/cancel", h.Matches.Cancel)
			})
		})
	})
}
