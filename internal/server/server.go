package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/heirclark/nutricoach/internal/auth"
	"github.com/heirclark/nutricoach/internal/costcontrol"
	"github.com/heirclark/nutricoach/internal/database"
	"github.com/heirclark/nutricoach/internal/ml"
)

type Server struct {
	db      database.DB
	model   ml.Model
	auth    *auth.Service
	spend   *costcontrol.Service
	clients sync.Map // clientID -> *wsClient
	debug   bool
}

func New(db database.DB, model ml.Model, authSvc *auth.Service, spend *costcontrol.Service, debug bool) *Server {
	if debug {
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
		log.Println("Debug logging enabled")
	}
	return &Server{
		db:    db,
		model: model,
		auth:  authSvc,
		spend: spend,
		debug: debug,
	}
}

// Routes builds the full handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	mux.HandleFunc("POST /api/v1/nutrition/ai/meal-from-text", s.handleMealFromText)
	mux.HandleFunc("POST /api/v1/nutrition/ai/meal-from-photo", s.handleMealFromPhoto)
	mux.HandleFunc("POST /api/v1/nutrition/ai/transcribe-voice", s.handleTranscribeVoice)
	mux.HandleFunc("POST /api/v1/avatar/coach/meal-plan", s.handleCoachMealPlan)

	mux.HandleFunc("POST /api/v1/agents/tdee/calculate", s.handleTDEECalculate)
	mux.HandleFunc("POST /api/v1/agents/tdee/insights", s.handleTDEEInsights)
	mux.HandleFunc("GET /api/v1/agents/tdee/latest", s.requireAuth(s.handleTDEELatest))

	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/v1/profile", s.requireAuth(s.handleGetProfile))
	mux.HandleFunc("PUT /api/v1/profile", s.requireAuth(s.handlePutProfile))

	mux.HandleFunc("GET /api/v1/logs/weight", s.requireAuth(s.handleListWeightLogs))
	mux.HandleFunc("POST /api/v1/logs/weight", s.requireAuth(s.handlePostWeightLog))
	mux.HandleFunc("GET /api/v1/logs/calories", s.requireAuth(s.handleListCalorieLogs))
	mux.HandleFunc("POST /api/v1/logs/calories", s.requireAuth(s.handlePostCalorieLog))

	mux.HandleFunc("GET /api/v1/meals", s.requireAuth(s.handleListMeals))
	mux.HandleFunc("POST /api/v1/meals", s.requireAuth(s.handlePostMeal))

	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return mux
}

// Start runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// gracefully.
func (s *Server) Start(port string) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.Routes(),
	}

	go func() {
		log.Printf("Starting server on port %s\n", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// requireAuth validates the bearer token and stashes the user id on the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ValidateToken(r.Header.Get("Authorization"))
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r.WithContext(withUserID(r.Context(), claims.UserID)))
	}
}

// optionalUserID returns the authenticated user id if a valid token came
// with the request, otherwise the empty string. AI proxy endpoints work
// either way; the id only feeds spend accounting.
func (s *Server) optionalUserID(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	claims, err := s.auth.ValidateToken(header)
	if err != nil {
		return ""
	}
	return claims.UserID
}

type ctxKey int

const userIDKey ctxKey = iota

func withUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Error encoding response:", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// checkSpend enforces the per-user daily model budget. It writes the
// response itself when the request may not proceed.
func (s *Server) checkSpend(w http.ResponseWriter, r *http.Request, userID string, cost float64) bool {
	result, err := s.spend.Check(r.Context(), userID, cost)
	if err != nil {
		log.Printf("Error checking spend limit: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to check usage limit")
		return false
	}
	if !result.Allowed {
		s.writeError(w, http.StatusTooManyRequests, result.Reason)
		return false
	}
	return true
}

func (s *Server) recordSpend(ctx context.Context, userID string, cost float64) {
	if err := s.spend.Record(ctx, userID, cost); err != nil {
		log.Printf("Error recording spend: %v", err)
	}
}
