package costcontrol

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/heirclark/nutricoach/internal/database"
)

func newTestService(t *testing.T, limit float64) *Service {
	t.Helper()
	store, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "spend.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(store, limit)
}

func TestAnonymousCallersAreAllowed(t *testing.T) {
	svc := newTestService(t, 0.05)
	result, err := svc.Check(context.Background(), "", CostMealPhoto)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Allowed {
		t.Fatal("anonymous caller denied")
	}
	if err := svc.Record(context.Background(), "", CostMealPhoto); err != nil {
		t.Fatalf("record for anonymous caller: %v", err)
	}
}

func TestSpendLimitDeniesOnceExhausted(t *testing.T) {
	svc := newTestService(t, 0.02)
	ctx := context.Background()
	userID := uuid.New().String()

	result, err := svc.Check(ctx, userID, 0.01)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("first request denied: %+v", result)
	}
	if err := svc.Record(ctx, userID, 0.01); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := svc.Record(ctx, userID, 0.01); err != nil {
		t.Fatalf("record: %v", err)
	}

	result, err = svc.Check(ctx, userID, 0.01)
	if err != nil {
		t.Fatalf("check after exhaustion: %v", err)
	}
	if result.Allowed {
		t.Fatalf("expected denial at limit, got %+v", result)
	}
	if result.Reason == "" {
		t.Fatal("denial must carry a reason")
	}
	if result.CurrentCost < 0.019 || result.CurrentCost > 0.021 {
		t.Fatalf("expected current cost ~0.02, got %v", result.CurrentCost)
	}
}

func TestRemainingBudgetReported(t *testing.T) {
	svc := newTestService(t, 1.0)
	ctx := context.Background()
	userID := uuid.New().String()

	if err := svc.Record(ctx, userID, 0.25); err != nil {
		t.Fatalf("record: %v", err)
	}
	result, err := svc.Check(ctx, userID, 0.01)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Remaining < 0.74 || result.Remaining > 0.76 {
		t.Fatalf("expected remaining ~0.75, got %v", result.Remaining)
	}
}
