package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jpmahinay/smashers/handlers"
	"github.com/jpmahinay/smashers/middleware"
	"github.com/jpmahinay/smashers/models"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	attendanceHandler *handlers.AttendanceHandler,
	partnershipHandler *handlers.PartnershipHandler,
	matchHandler *handlers.MatchHandler,
	rankingHandler *handlers.RankingHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("SMASHERS API is running"))
	})

	router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// Защита от перебора паролей.
			r.Use(httprate.LimitByIP(10, time.Minute))
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Get("/users", userHandler.ListMembers)
			r.Get("/users/{userID}", userHandler.GetMember)
			r.Put("/users/{userID}", userHandler.UpdateProfile)
			r.Put("/users/{userID}/avatar", userHandler.UploadAvatar)

			r.Get("/attendance", attendanceHandler.Get)
			r.Get("/availability", attendanceHandler.Available)

			r.Get("/couples", partnershipHandler.ListCouples)
			r.Post("/partnerships", partnershipHandler.CreateRequest)
			r.Get("/partnerships", partnershipHandler.ListRequests)
			r.Post("/partnerships/{requestID}/accept", partnershipHandler.AcceptRequest)
			r.Post("/partnerships/{requestID}/decline", partnershipHandler.DeclineRequest)
			r.Delete("/partnerships/{requestID}", partnershipHandler.CancelRequest)

			r.Get("/matches/ongoing", matchHandler.ListOngoing)
			r.Get("/matches/history", matchHandler.History)

			r.Get("/rankings/players", rankingHandler.Players)
			r.Get("/rankings/couples", rankingHandler.Couples)

			// Операции движка матчей и управление ростером - только
			// для админов, проверка на сервере.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Authorize(models.RoleAdmin))

				r.Post("/users/{userID}/approve", userHandler.Approve)
				r.Post("/users/{userID}/reject", userHandler.Reject)
				r.Post("/attendance", attendanceHandler.Save)

				r.Post("/couples", partnershipHandler.CreateCouple)
				r.Delete("/couples/{coupleID}", partnershipHandler.DisbandCouple)

				r.Post("/matches", matchHandler.Create)
				r.Patch("/matches/{matchID}/score", matchHandler.UpdateScore)
				r.Post("/matches/{matchID}/end", matchHandler.End)
			})
		})
	})

	router.Get("/ws/matches", webSocketHandler.ServeLobby)
	router.Get("/ws/matches/{matchID}", webSocketHandler.ServeMatch)
}
