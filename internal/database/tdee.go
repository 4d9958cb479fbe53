package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/heirclark/nutricoach/internal/models"
)

// SaveTDEESnapshot replaces the user's latest derived TDEE result. Only
// one snapshot is kept per user; no derivation history is retained.
func (s *SQLStore) SaveTDEESnapshot(ctx context.Context, userID string, result *models.TDEEResult) error {
	_, err := s.exec(ctx, `
		INSERT INTO tdee_snapshots (
			user_id, adaptive_tdee, formula_tdee, confidence, confidence_score,
			data_points, method, recommended_calories, calculated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			adaptive_tdee = excluded.adaptive_tdee,
			formula_tdee = excluded.formula_tdee,
			confidence = excluded.confidence,
			confidence_score = excluded.confidence_score,
			data_points = excluded.data_points,
			method = excluded.method,
			recommended_calories = excluded.recommended_calories,
			calculated_at = excluded.calculated_at
	`, userID, result.AdaptiveTDEE, result.FormulaTDEE, result.Confidence,
		result.ConfidenceScore, result.DataPoints, result.Method,
		result.RecommendedCalories, result.CalculatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save tdee snapshot: %w", err)
	}
	return nil
}

// GetLatestTDEESnapshot returns the stored snapshot, or nil when the user
// has never had one computed.
func (s *SQLStore) GetLatestTDEESnapshot(ctx context.Context, userID string) (*models.TDEEResult, error) {
	result := &models.TDEEResult{}
	var calculatedAt string
	err := s.queryRow(ctx, `
		SELECT adaptive_tdee, formula_tdee, confidence, confidence_score,
			data_points, method, recommended_calories, calculated_at
		FROM tdee_snapshots WHERE user_id = ?
	`, userID).Scan(&result.AdaptiveTDEE, &result.FormulaTDEE, &result.Confidence,
		&result.ConfidenceScore, &result.DataPoints, &result.Method,
		&result.RecommendedCalories, &calculatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tdee snapshot: %w", err)
	}
	result.CalculatedAt = parseTime(calculatedAt)
	return result, nil
}
