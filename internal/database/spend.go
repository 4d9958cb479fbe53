package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/heirclark/nutricoach/internal/models"
)

// GetLLMSpend returns the user's spend record for one date, or nil when no
// request has been accounted yet that day.
func (s *SQLStore) GetLLMSpend(ctx context.Context, userID, date string) (*models.LLMSpendRecord, error) {
	record := &models.LLMSpendRecord{}
	var updatedAt string
	err := s.queryRow(ctx, `
		SELECT user_id, spend_date, requests, cost, daily_limit, updated_at
		FROM llm_spend WHERE user_id = ? AND spend_date = ?
	`, userID, date).Scan(&record.UserID, &record.Date, &record.Requests,
		&record.Cost, &record.DailyLimit, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get llm spend: %w", err)
	}
	record.UpdatedAt = parseTime(updatedAt)
	return record, nil
}

// AddLLMSpend accumulates one model request's cost into the user's daily
// record, creating it with the default limit on first use.
func (s *SQLStore) AddLLMSpend(ctx context.Context, userID, date string, cost, defaultLimit float64) error {
	_, err := s.exec(ctx, `
		INSERT INTO llm_spend (user_id, spend_date, requests, cost, daily_limit, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT(user_id, spend_date) DO UPDATE SET
			requests = llm_spend.requests + 1,
			cost = llm_spend.cost + excluded.cost,
			updated_at = excluded.updated_at
	`, userID, date, cost, defaultLimit, nowString())
	if err != nil {
		return fmt.Errorf("add llm spend: %w", err)
	}
	return nil
}
