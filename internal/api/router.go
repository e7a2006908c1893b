package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", apiHandler.LoginHandler)
		r.Get("/health", apiHandler.HealthHandler)

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.SessionAuthMiddleware)

			r.Post("/auth/logout", apiHandler.LogoutHandler)
			r.Get("/auth/me", apiHandler.MeHandler)

			// Profile routes
			r.Get("/profile/{userID}", apiHandler.GetProfileHandler)
			r.Post("/profile/{userID}", apiHandler.UpdateProfileHandler)
			r.Get("/profile/{userID}/should-ask-fatigue", apiHandler.ShouldAskFatigueHandler)
			r.Post("/profile/{userID}/fatigue-asked", apiHandler.FatigueAskedHandler)
			r.Post("/profile/{userID}/update-fatigue", apiHandler.UpdateFatigueHandler)

			// Per-user coach settings
			r.Get("/settings/{userID}", apiHandler.GetSettingsHandler)
			r.Post("/settings/{userID}", apiHandler.UpdateSettingsHandler)

			// Chat routes
			r.Post("/chat", apiHandler.ChatTurnHandler)
			r.Get("/chats", apiHandler.ListChatsHandler)
			r.Get("/chat/{chatID}", apiHandler.GetChatHandler)
			r.Delete("/chat/{chatID}", apiHandler.DeleteChatHandler)

			// Tool catalogs
			r.Get("/videos", apiHandler.ListVideosHandler)
			r.Get("/breathing-exercises", apiHandler.ListBreathingHandler)

			// Fatigue quiz
			r.Get("/fatigue-quiz/questions", apiHandler.ListQuizQuestionsHandler)
			r.Post("/fatigue-quiz/calculate", apiHandler.CalculateQuizHandler)

			r.Delete("/user/{userID}/clear-all", apiHandler.ClearAllHandler)

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(apiHandler.AdminOnlyMiddleware)

				r.Get("/admin/ai-settings", apiHandler.GetAISettingsHandler)
				r.Post("/admin/ai-settings", apiHandler.UpdateAISettingsHandler)
				r.Get("/admin/users", apiHandler.ListUsersHandler)
				r.Post("/admin/users", apiHandler.CreateUserHandler)
				r.Delete("/admin/users/{userID}", apiHandler.DeleteUserHandler)
				r.Get("/admin/stats", apiHandler.StatsHandler)
				r.Post("/videos", apiHandler.AddVideoHandler)
				r.Delete("/videos/{videoID}", apiHandler.DeleteVideoHandler)
				r.Post("/breathing-exercises", apiHandler.AddBreathingHandler)
				r.Delete("/breathing-exercises/{exerciseID}", apiHandler.DeleteBreathingHandler)
			})
		})
	})

	return r
}
