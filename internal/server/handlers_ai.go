package server

import (
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/heirclark/nutricoach/internal/costcontrol"
	"github.com/heirclark/nutricoach/internal/models"
)

const (
	maxPhotoBytes = 10 << 20
	maxAudioBytes = 25 << 20
)

func (s *Server) handleMealFromText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	userID := s.optionalUserID(r)
	if !s.checkSpend(w, r, userID, costcontrol.CostMealText) {
		return
	}

	analysis, err := s.model.AnalyzeMealText(r.Context(), req.Text)
	if err != nil {
		log.Printf("Error analyzing meal text: %v", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.recordSpend(r.Context(), userID, costcontrol.CostMealText)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"analysis": analysis,
	})
}

func (s *Server) handleMealFromPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)
	file, header, err := r.FormFile("photo")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "photo is required")
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read photo")
		return
	}
	if len(imageData) == 0 {
		s.writeError(w, http.StatusBadRequest, "photo is empty")
		return
	}

	userID := s.optionalUserID(r)
	if !s.checkSpend(w, r, userID, costcontrol.CostMealPhoto) {
		return
	}

	mimeType := header.Header.Get("Content-Type")
	hint := r.FormValue("description")

	analysis, err := s.model.AnalyzeMealPhoto(r.Context(), imageData, mimeType, hint)
	if err != nil {
		log.Printf("Error analyzing meal photo: %v", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.recordSpend(r.Context(), userID, costcontrol.CostMealPhoto)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"analysis": analysis,
	})
}

func (s *Server) handleTranscribeVoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "audio is required")
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read audio")
		return
	}
	if len(audioData) == 0 {
		s.writeError(w, http.StatusBadRequest, "audio is empty")
		return
	}

	userID := s.optionalUserID(r)
	if !s.checkSpend(w, r, userID, costcontrol.CostTranscribe) {
		return
	}

	text, err := s.model.TranscribeVoice(r.Context(), audioData, header.Header.Get("Content-Type"))
	if err != nil {
		log.Printf("Error transcribing voice: %v", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.recordSpend(r.Context(), userID, costcontrol.CostTranscribe)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"text":    text,
	})
}

func (s *Server) handleCoachMealPlan(w http.ResponseWriter, r *http.Request) {
	var req models.CoachRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Goal) == "" {
		s.writeError(w, http.StatusBadRequest, "goal is required")
		return
	}

	userID := s.optionalUserID(r)
	if !s.checkSpend(w, r, userID, costcontrol.CostCoach) {
		return
	}

	started := time.Now()
	script, err := s.model.CoachMealPlan(r.Context(), &req)
	if err != nil {
		log.Printf("Error generating coach script: %v", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.recordSpend(r.Context(), userID, costcontrol.CostCoach)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"script": script,
		"metadata": map[string]any{
			"generatedAt": time.Now().UTC().Format(time.RFC3339),
			"durationMs":  time.Since(started).Milliseconds(),
		},
	})
}
