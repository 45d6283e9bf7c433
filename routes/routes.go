package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/warta-arena/arena-api/handlers"
	"github.com/warta-arena/arena-api/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	participantHandler *handlers.ParticipantHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	secret := []byte(jwtSecret)

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Register)
		r.Post("/signin", authHandler.Login)
		r.Get("/confirm", authHandler.ConfirmEmail)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/matches", matchHandler.ListByTournament)
		r.Get("/{tournamentID}/ws", webSocketHandler.ServeTournament)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(secret))

			r.Post("/", tournamentHandler.Create)
			r.Put("/{tournamentID}", tournamentHandler.Update)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)
			r.Post("/{tournamentID}/logo", tournamentHandler.UploadLogo)
		})

		// The services behind these two reject anonymous callers themselves,
		// in the same ordered check sequence as their other preconditions.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuthenticate(secret))

			r.Post("/{tournamentID}/participants", participantHandler.Register)
			r.Post("/{tournamentID}/rounds", tournamentHandler.GenerateRound)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(middleware.Authenticate(secret))

		r.Post("/{matchID}/report", matchHandler.SubmitReport)
	})
}
