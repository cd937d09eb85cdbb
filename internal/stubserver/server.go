// Package stubserver is an in-memory stand-in for the leave-and-attendance
// backend. It implements the same REST contract the production server
// exposes so the client, the kiosk, and the integration tests can run
// without a real deployment.
package stubserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/leaveapproval/attendance-client-go/internal/domain/user"
	"github.com/leaveapproval/attendance-client-go/internal/pkg/validator"
)

const tokenTTL = 24 * time.Hour

type Server struct {
	store  *store
	auth   *jwtauth.JWTAuth
	logger *slog.Logger
}

func New(secret []byte, logger *slog.Logger) *Server {
	return &Server{
		store:  newStore(),
		auth:   jwtauth.New("HS256", secret, nil),
		logger: logger,
	}
}

// AddUser seeds an extra account beyond the defaults. Test helper.
func (s *Server) AddUser(u user.User, password string) user.User {
	return s.store.addUser(u, password)
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:4200"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(s.logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	// Photo bytes are served outside /api; the resolved URLs carry no
	// bearer token, same as presigned storage URLs in production.
	r.Get("/objects/*", s.handleObject)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signin", s.handleSignIn)

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(s.auth))
			r.Use(s.authRequired)

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/check-in", s.handleCheckIn)
				r.Post("/check-in/file", s.handleCheckInFile)
				r.Put("/check-out/{id}", s.handleCheckOut)
				r.Put("/check-out/{id}/file", s.handleCheckOutFile)
				r.Get("/user/{userId}", s.handleAttendanceByUser)
				r.Get("/photo/*", s.handlePhotoURL)
				r.Get("/{id}", s.handleAttendanceByID)
			})

			r.Route("/leaves", func(r chi.Router) {
				r.Post("/apply", s.handleApplyLeave)
				r.Get("/my-requests", s.handleMyLeaves)

				r.Group(func(r chi.Router) {
					r.Use(s.adminOnly)
					r.Get("/all", s.handleAllLeaves)
					r.Get("/pending", s.handlePendingLeaves)
					r.Put("/{id}/approve", s.handleApproveLeave)
					r.Delete("/{id}", s.handleDeleteLeave)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(s.adminOnly)
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Delete("/{id}", s.handleDeleteUser)
				r.Get("/{id}/leave-stats", s.handleLeaveStats)
			})
		})
	})

	return r
}

// authRequired rejects requests without a valid bearer token using the
// same body shape the production backend answers with.
func (s *Server) authRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			writeMessage(w, http.StatusUnauthorized, "Full authentication is required to access this resource")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, role, err := s.identity(r); err != nil || role != user.RoleAdmin {
			writeMessage(w, http.StatusForbidden, "Access is denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// identity extracts the caller from the verified token claims.
func (s *Server) identity(r *http.Request) (int64, user.Role, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return 0, "", err
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", errors.New("token has no user_id claim")
	}
	role, _ := claims["role"].(string)
	return int64(id), user.Role(role), nil
}

func (s *Server) issueToken(u user.User) (string, error) {
	claims := map[string]interface{}{
		"user_id": u.ID,
		"email":   u.Email,
		"role":    string(u.Role),
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, tokenTTL)
	_, token, err := s.auth.Encode(claims)
	return token, err
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeMessage emits the backend's error body shape.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps a handler error onto the wire. Validation failures
// become a 400 with the first field message.
func writeError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		writeMessage(w, http.StatusBadRequest, validationErrs.Error())
		return
	}
	writeMessage(w, http.StatusInternalServerError, err.Error())
}
