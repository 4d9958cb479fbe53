package server

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heirclark/nutricoach/internal/models"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		s.writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	existing, err := s.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("Error checking existing user: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}
	if existing != nil {
		s.writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.db.CreateUser(r.Context(), user); err != nil {
		log.Printf("Error creating user: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	token, err := s.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"ok":    true,
		"token": token,
		"user":  user,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("Error loading user: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	if user == nil || !s.auth.CheckPassword(user.PasswordHash, req.Password) {
		s.writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := s.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"token": token,
		"user":  user,
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.db.GetProfile(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		log.Printf("Error loading profile: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if profile == nil {
		s.writeError(w, http.StatusNotFound, "no profile saved yet")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "profile": profile})
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.UserProfile
	if !s.decodeJSON(w, r, &profile) {
		return
	}
	if profile.Age <= 0 || profile.HeightCm <= 0 {
		s.writeError(w, http.StatusBadRequest, "age and heightCm must be positive")
		return
	}
	switch profile.Sex {
	case "male", "female":
	default:
		s.writeError(w, http.StatusBadRequest, "sex must be male or female")
		return
	}

	profile.UserID = userIDFrom(r.Context())
	if err := s.db.SaveProfile(r.Context(), &profile); err != nil {
		log.Printf("Error saving profile: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	// A profile change shifts the formula estimate.
	s.recomputeTDEE(r.Context(), profile.UserID)

	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "profile": profile})
}

func (s *Server) handlePostWeightLog(w http.ResponseWriter, r *http.Request) {
	var entry models.WeightLogEntry
	if !s.decodeJSON(w, r, &entry) {
		return
	}
	if entry.Date == "" {
		entry.Date = time.Now().UTC().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", entry.Date); err != nil {
		s.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if entry.Weight <= 0 {
		s.writeError(w, http.StatusBadRequest, "weight must be positive")
		return
	}
	switch entry.Unit {
	case "":
		entry.Unit = "lb"
	case "kg", "lb", "lbs":
	default:
		s.writeError(w, http.StatusBadRequest, "unit must be kg or lb")
		return
	}

	userID := userIDFrom(r.Context())
	if err := s.db.UpsertWeightLog(r.Context(), userID, entry); err != nil {
		log.Printf("Error saving weight log: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to save weight log")
		return
	}

	s.recomputeTDEE(r.Context(), userID)

	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "entry": entry})
}

func (s *Server) handleListWeightLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	entries, err := s.db.ListWeightLogs(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		log.Printf("Error listing weight logs: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list weight logs")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "entries": entries})
}

func (s *Server) handlePostCalorieLog(w http.ResponseWriter, r *http.Request) {
	var entry models.CalorieLogEntry
	if !s.decodeJSON(w, r, &entry) {
		return
	}
	if entry.Date == "" {
		entry.Date = time.Now().UTC().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", entry.Date); err != nil {
		s.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if entry.CaloriesConsumed < 0 || entry.CaloriesBurned < 0 {
		s.writeError(w, http.StatusBadRequest, "calories must not be negative")
		return
	}
	if entry.NetCalories == 0 {
		entry.NetCalories = entry.CaloriesConsumed - entry.CaloriesBurned
	}

	userID := userIDFrom(r.Context())
	if err := s.db.UpsertCalorieLog(r.Context(), userID, entry); err != nil {
		log.Printf("Error saving calorie log: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to save calorie log")
		return
	}

	s.recomputeTDEE(r.Context(), userID)

	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "entry": entry})
}

func (s *Server) handleListCalorieLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	entries, err := s.db.ListCalorieLogs(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		log.Printf("Error listing calorie logs: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list calorie logs")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "entries": entries})
}

func (s *Server) handlePostMeal(w http.ResponseWriter, r *http.Request) {
	var meal models.Meal
	if !s.decodeJSON(w, r, &meal) {
		return
	}
	if strings.TrimSpace(meal.Name) == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if meal.Calories < 0 {
		s.writeError(w, http.StatusBadRequest, "calories must not be negative")
		return
	}
	if meal.ID == "" {
		meal.ID = uuid.New().String()
	}
	if meal.Source == "" {
		meal.Source = "manual"
	}
	meal.UserID = userIDFrom(r.Context())

	if err := s.db.SaveMeal(r.Context(), &meal); err != nil {
		log.Printf("Error saving meal: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to save meal")
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "meal": meal})
}

func (s *Server) handleListMeals(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	meals, err := s.db.ListMeals(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		log.Printf("Error listing meals: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list meals")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "meals": meals})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
