package server

import (
	"context"
	"log"
	"net/http"

	"github.com/heirclark/nutricoach/internal/costcontrol"
	"github.com/heirclark/nutricoach/internal/models"
	"github.com/heirclark/nutricoach/internal/tdee"
)

// handleTDEECalculate runs the estimator over the histories supplied in
// the request body. If the caller is authenticated the snapshot is also
// persisted and pushed to any live websocket clients.
func (s *Server) handleTDEECalculate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WeightHistory  []models.WeightLogEntry  `json:"weightHistory"`
		CalorieHistory []models.CalorieLogEntry `json:"calorieHistory"`
		UserProfile    *models.UserProfile      `json:"userProfile"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if len(req.WeightHistory) == 0 || len(req.CalorieHistory) == 0 || req.UserProfile == nil {
		s.writeError(w, http.StatusBadRequest, "weightHistory, calorieHistory and userProfile are required")
		return
	}

	result, err := tdee.Estimate(tdee.Input{
		WeightHistory:  req.WeightHistory,
		CalorieHistory: req.CalorieHistory,
		Profile:        *req.UserProfile,
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if userID := s.optionalUserID(r); userID != "" {
		if err := s.db.SaveTDEESnapshot(r.Context(), userID, result); err != nil {
			log.Printf("Error saving TDEE snapshot: %v", err)
		} else {
			s.pushTDEEUpdate(userID, result)
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"result": result,
	})
}

func (s *Server) handleTDEEInsights(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Result      *models.TDEEResult  `json:"result"`
		UserProfile *models.UserProfile `json:"userProfile"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Result == nil {
		s.writeError(w, http.StatusBadRequest, "result is required")
		return
	}

	userID := s.optionalUserID(r)
	if !s.checkSpend(w, r, userID, costcontrol.CostInsights) {
		return
	}

	insights, err := s.model.TDEEInsights(r.Context(), req.Result, req.UserProfile)
	if err != nil {
		log.Printf("Error generating TDEE insights: %v", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.recordSpend(r.Context(), userID, costcontrol.CostInsights)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"insights": insights,
	})
}

func (s *Server) handleTDEELatest(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	result, err := s.db.GetLatestTDEESnapshot(r.Context(), userID)
	if err != nil {
		log.Printf("Error loading TDEE snapshot: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	if result == nil {
		s.writeError(w, http.StatusNotFound, "no TDEE snapshot computed yet")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"result": result,
	})
}

// recomputeTDEE rebuilds the user's snapshot from stored logs. Called
// after each log write; silently skipped while the user lacks a profile
// or any history.
func (s *Server) recomputeTDEE(ctx context.Context, userID string) {
	profile, err := s.db.GetProfile(ctx, userID)
	if err != nil || profile == nil {
		return
	}
	weights, err := s.db.ListWeightLogs(ctx, userID, 0)
	if err != nil || len(weights) == 0 {
		return
	}
	calories, err := s.db.ListCalorieLogs(ctx, userID, 0)
	if err != nil || len(calories) == 0 {
		return
	}

	result, err := tdee.Estimate(tdee.Input{
		WeightHistory:  weights,
		CalorieHistory: calories,
		Profile:        *profile,
	})
	if err != nil {
		log.Printf("Error recomputing TDEE for %s: %v", userID, err)
		return
	}
	if err := s.db.SaveTDEESnapshot(ctx, userID, result); err != nil {
		log.Printf("Error saving TDEE snapshot: %v", err)
		return
	}
	s.pushTDEEUpdate(userID, result)
}
