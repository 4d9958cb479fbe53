// Package costcontrol enforces a per-user daily budget on generative-AI
// calls so a single account cannot run up the model bill.
package costcontrol

import (
	"context"
	"fmt"
	"time"

	"github.com/heirclark/nutricoach/internal/database"
)

// Estimated cost per request type, in USD. These are deliberately coarse;
// the limiter needs an upper bound, not an invoice.
const (
	CostMealText   = 0.002
	CostMealPhoto  = 0.010
	CostTranscribe = 0.006
	CostCoach      = 0.004
	CostInsights   = 0.002
)

type Result struct {
	Allowed     bool    `json:"allowed"`
	Remaining   float64 `json:"remaining"`
	CurrentCost float64 `json:"current_cost"`
	DailyLimit  float64 `json:"daily_limit"`
	Reason      string  `json:"reason,omitempty"`
}

type Service struct {
	db         database.DB
	dailyLimit float64
}

func NewService(db database.DB, dailyLimit float64) *Service {
	if dailyLimit <= 0 {
		dailyLimit = 1.0
	}
	return &Service{db: db, dailyLimit: dailyLimit}
}

// Check reports whether the user may spend estimatedCost today. An empty
// userID means an unauthenticated caller; those are allowed and not
// accounted.
func (s *Service) Check(ctx context.Context, userID string, estimatedCost float64) (*Result, error) {
	if userID == "" {
		return &Result{Allowed: true, DailyLimit: s.dailyLimit, Remaining: s.dailyLimit}, nil
	}

	today := time.Now().UTC().Format("2006-01-02")
	record, err := s.db.GetLLMSpend(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to get user spend record: %w", err)
	}

	currentCost := 0.0
	limit := s.dailyLimit
	if record != nil {
		currentCost = record.Cost
		limit = record.DailyLimit
	}

	result := &Result{
		CurrentCost: currentCost,
		DailyLimit:  limit,
		Remaining:   limit - currentCost,
	}

	if currentCost+estimatedCost > limit {
		result.Allowed = false
		result.Reason = fmt.Sprintf("Daily limit exceeded. Current: $%.4f, Request: $%.4f, Limit: $%.4f",
			currentCost, estimatedCost, limit)
		return result, nil
	}

	result.Allowed = true
	return result, nil
}

// Record accounts one completed model call. A failure here is logged by
// callers but never fails the user's request.
func (s *Service) Record(ctx context.Context, userID string, cost float64) error {
	if userID == "" {
		return nil
	}
	today := time.Now().UTC().Format("2006-01-02")
	if err := s.db.AddLLMSpend(ctx, userID, today, cost, s.dailyLimit); err != nil {
		return fmt.Errorf("failed to record llm spend: %w", err)
	}
	return nil
}
