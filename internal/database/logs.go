package database

import (
	"context"
	"fmt"

	"github.com/heirclark/nutricoach/internal/models"
)

// UpsertWeightLog writes one weight sample. A re-log for the same date
// supersedes the earlier value (last write wins).
func (s *SQLStore) UpsertWeightLog(ctx context.Context, userID string, entry models.WeightLogEntry) error {
	_, err := s.exec(ctx, `
		INSERT INTO weight_logs (user_id, log_date, weight, unit, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, log_date) DO UPDATE SET
			weight = excluded.weight,
			unit = excluded.unit,
			updated_at = excluded.updated_at
	`, userID, entry.Date, entry.Weight, entry.Unit, nowString())
	if err != nil {
		return fmt.Errorf("upsert weight log: %w", err)
	}
	return nil
}

// ListWeightLogs returns the user's weight samples in date order, newest
// window first limited to limit days, re-sorted ascending for the
// estimator.
func (s *SQLStore) ListWeightLogs(ctx context.Context, userID string, limit int) ([]models.WeightLogEntry, error) {
	if limit <= 0 {
		limit = 365
	}
	rows, err := s.query(ctx, `
		SELECT log_date, weight, unit FROM (
			SELECT log_date, weight, unit
			FROM weight_logs
			WHERE user_id = ?
			ORDER BY log_date DESC
			LIMIT ?
		) recent
		ORDER BY log_date ASC
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list weight logs: %w", err)
	}
	defer rows.Close()

	entries := make([]models.WeightLogEntry, 0)
	for rows.Next() {
		var e models.WeightLogEntry
		if err := rows.Scan(&e.Date, &e.Weight, &e.Unit); err != nil {
			return nil, fmt.Errorf("scan weight log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weight logs: %w", err)
	}
	return entries, nil
}

// UpsertCalorieLog writes the calorie summary for one date, updating the
// row in place when it already exists.
func (s *SQLStore) UpsertCalorieLog(ctx context.Context, userID string, entry models.CalorieLogEntry) error {
	_, err := s.exec(ctx, `
		INSERT INTO calorie_logs (user_id, log_date, calories_consumed, calories_burned, net_calories, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, log_date) DO UPDATE SET
			calories_consumed = excluded.calories_consumed,
			calories_burned = excluded.calories_burned,
			net_calories = excluded.net_calories,
			updated_at = excluded.updated_at
	`, userID, entry.Date, entry.CaloriesConsumed, entry.CaloriesBurned,
		entry.NetCalories, nowString())
	if err != nil {
		return fmt.Errorf("upsert calorie log: %w", err)
	}
	return nil
}

// ListCalorieLogs returns the user's calorie entries in ascending date
// order, limited to the most recent limit days.
func (s *SQLStore) ListCalorieLogs(ctx context.Context, userID string, limit int) ([]models.CalorieLogEntry, error) {
	if limit <= 0 {
		limit = 365
	}
	rows, err := s.query(ctx, `
		SELECT log_date, calories_consumed, calories_burned, net_calories FROM (
			SELECT log_date, calories_consumed, calories_burned, net_calories
			FROM calorie_logs
			WHERE user_id = ?
			ORDER BY log_date DESC
			LIMIT ?
		) recent
		ORDER BY log_date ASC
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list calorie logs: %w", err)
	}
	defer rows.Close()

	entries := make([]models.CalorieLogEntry, 0)
	for rows.Next() {
		var e models.CalorieLogEntry
		if err := rows.Scan(&e.Date, &e.CaloriesConsumed, &e.CaloriesBurned, &e.NetCalories); err != nil {
			return nil, fmt.Errorf("scan calorie log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calorie logs: %w", err)
	}
	return entries, nil
}
