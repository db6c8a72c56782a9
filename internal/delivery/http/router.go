package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"groupcalendar/internal/delivery/http/controllers"
	"groupcalendar/internal/delivery/http/middleware"
	"groupcalendar/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	verifier domain.TokenVerifier,
	logger *slog.Logger,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	editorController *controllers.EditorController,
	commentController *controllers.CommentController,
	profileController *controllers.ProfileController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/signin", authController.SignIn)

	// Calendar
	mux.HandleFunc("GET /events", auth(eventController.List))
	mux.HandleFunc("GET /events/stream", auth(eventController.Stream))

	// Editor sessions
	mux.HandleFunc("POST /editor", auth(editorController.Open))
	mux.HandleFunc("GET /editor/{sessionID}", auth(editorController.Get))
	mux.HandleFunc("DELETE /editor/{sessionID}", auth(editorController.Close))
	mux.HandleFunc("PUT /editor/{sessionID}/fields", auth(editorController.SetFields))
	mux.HandleFunc("PUT /editor/{sessionID}/location", auth(editorController.SetLocation))
	mux.HandleFunc("PUT /editor/{sessionID}/coordinates", auth(editorController.SetCoordinates))
	mux.HandleFunc("POST /editor/{sessionID}/validate", auth(editorController.Validate))
	mux.HandleFunc("POST /editor/{sessionID}/save", auth(editorController.Save))
	mux.HandleFunc("POST /editor/{sessionID}/delete", auth(editorController.Delete))

	// Discussion
	mux.HandleFunc("GET /events/{eventID}/comments", auth(commentController.List))
	mux.HandleFunc("POST /events/{eventID}/comments", auth(commentController.Post))
	mux.HandleFunc("GET /events/{eventID}/comments/stream", auth(commentController.Stream))

	// Profiles
	mux.HandleFunc("GET /profiles", auth(profileController.List))
	mux.HandleFunc("GET /profiles/me", auth(profileController.Me))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
