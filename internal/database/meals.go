package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/heirclark/nutricoach/internal/models"
)

// SaveMeal persists a logged meal. Foods and suggestions are stored as
// JSON text columns.
func (s *SQLStore) SaveMeal(ctx context.Context, meal *models.Meal) error {
	if meal.LoggedAt.IsZero() {
		meal.LoggedAt = time.Now().UTC()
	}

	foods, err := json.Marshal(meal.Foods)
	if err != nil {
		return fmt.Errorf("marshal foods: %w", err)
	}
	suggestions, err := json.Marshal(meal.Suggestions)
	if err != nil {
		return fmt.Errorf("marshal suggestions: %w", err)
	}

	_, err = s.exec(ctx, `
		INSERT INTO meals (
			id, user_id, name, calories, protein_g, carbs_g, fat_g,
			confidence, foods, suggestions, source, logged_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			calories = excluded.calories,
			protein_g = excluded.protein_g,
			carbs_g = excluded.carbs_g,
			fat_g = excluded.fat_g,
			confidence = excluded.confidence,
			foods = excluded.foods,
			suggestions = excluded.suggestions,
			source = excluded.source
	`, meal.ID, meal.UserID, meal.Name, meal.Calories, meal.Protein,
		meal.Carbs, meal.Fat, meal.Confidence, string(foods), string(suggestions),
		meal.Source, meal.LoggedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save meal: %w", err)
	}
	return nil
}

// ListMeals returns the user's most recent meals, newest first.
func (s *SQLStore) ListMeals(ctx context.Context, userID string, limit int) ([]*models.Meal, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.query(ctx, `
		SELECT id, user_id, name, calories, protein_g, carbs_g, fat_g,
			confidence, foods, suggestions, source, logged_at
		FROM meals
		WHERE user_id = ?
		ORDER BY logged_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	meals := make([]*models.Meal, 0)
	for rows.Next() {
		var meal models.Meal
		var foods, suggestions sql.NullString
		var loggedAt string
		if err := rows.Scan(&meal.ID, &meal.UserID, &meal.Name, &meal.Calories,
			&meal.Protein, &meal.Carbs, &meal.Fat, &meal.Confidence,
			&foods, &suggestions, &meal.Source, &loggedAt); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		if foods.Valid && foods.String != "" {
			if err := json.Unmarshal([]byte(foods.String), &meal.Foods); err != nil {
				return nil, fmt.Errorf("unmarshal foods for meal %s: %w", meal.ID, err)
			}
		}
		if suggestions.Valid && suggestions.String != "" {
			if err := json.Unmarshal([]byte(suggestions.String), &meal.Suggestions); err != nil {
				return nil, fmt.Errorf("unmarshal suggestions for meal %s: %w", meal.ID, err)
			}
		}
		meal.LoggedAt = parseTime(loggedAt)
		meals = append(meals, &meal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meals: %w", err)
	}
	return meals, nil
}
