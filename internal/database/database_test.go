package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/heirclark/nutricoach/internal/models"
)

func newTestDB(t *testing.T) *SQLStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nutricoach.db")
	store, err := NewSQLiteDB(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestUser(t *testing.T, store *SQLStore) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "x",
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestMigrationsAreIdempotent(t *testing.T) {
	store := newTestDB(t)
	if err := store.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestRebindForPostgres(t *testing.T) {
	s := &SQLStore{driver: "postgres"}
	got := s.rebind(`INSERT INTO t(a, b) VALUES(?, ?) ON CONFLICT(a) DO UPDATE SET b = ?`)
	want := `INSERT INTO t(a, b) VALUES($1, $2) ON CONFLICT(a) DO UPDATE SET b = $3`
	if got != want {
		t.Fatalf("rebind mismatch:\n got %s\nwant %s", got, want)
	}

	s = &SQLStore{driver: "sqlite"}
	q := `SELECT * FROM t WHERE a = ?`
	if s.rebind(q) != q {
		t.Fatal("sqlite queries must pass through unchanged")
	}
}

func TestUserRoundTrip(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, store)

	got, err := store.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("expected user %s, got %+v", user.ID, got)
	}

	missing, err := store.GetUserByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("get missing user: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown email, got %+v", missing)
	}
}

func TestProfileUpsert(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, store)

	profile := &models.UserProfile{
		UserID: user.ID, Age: 30, Sex: "male", HeightCm: 180,
		ActivityLevel: "moderate", Goal: "lose",
	}
	if err := store.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	profile.Goal = "maintain"
	if err := store.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("update profile: %v", err)
	}

	got, err := store.GetProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if got == nil || got.Goal != "maintain" || got.HeightCm != 180 {
		t.Fatalf("unexpected profile %+v", got)
	}
}

func TestWeightLogLastWriteWins(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, store)

	if err := store.UpsertWeightLog(ctx, user.ID, models.WeightLogEntry{
		Date: "2026-01-05", Weight: 200, Unit: "lb",
	}); err != nil {
		t.Fatalf("first log: %v", err)
	}
	if err := store.UpsertWeightLog(ctx, user.ID, models.WeightLogEntry{
		Date: "2026-01-05", Weight: 199.5, Unit: "lb",
	}); err != nil {
		t.Fatalf("re-log: %v", err)
	}

	entries, err := store.ListWeightLogs(ctx, user.ID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after same-date re-log, got %d", len(entries))
	}
	if entries[0].Weight != 199.5 {
		t.Fatalf("expected superseded weight 199.5, got %v", entries[0].Weight)
	}
}

func TestCalorieLogUpdateInPlace(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, store)

	first := models.CalorieLogEntry{Date: "2026-01-05", CaloriesConsumed: 1800, CaloriesBurned: 300, NetCalories: 1500}
	second := models.CalorieLogEntry{Date: "2026-01-05", CaloriesConsumed: 2100, CaloriesBurned: 300, NetCalories: 1800}

	if err := store.UpsertCalorieLog(ctx, user.ID, first); err != nil {
		t.Fatalf("first log: %v", err)
	}
	if err := store.UpsertCalorieLog(ctx, user.ID, second); err != nil {
		t.Fatalf("update: %v", err)
	}

	entries, err := store.ListCalorieLogs(ctx, user.ID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].CaloriesConsumed != 2100 {
		t.Fatalf("expected single updated entry, got %+v", entries)
	}
}

func TestListLogsAscendingOrder(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, store)

	dates := []string{"2026-01-07", "2026-01-05", "2026-01-06"}
	for i, d := range dates {
		if err := store.UpsertWeightLog(ctx, user.ID, models.WeightLogEntry{
			Date: d, Weight: 200 - float64(i), Unit: "lb",
		}); err != nil {
			t.Fatalf("log %s: %v", d, err)
		}
	}

	entries, err := store.ListWeightLogs(ctx, user.ID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Date <= entries[i-1].Date {
			t.Fatalf("entries out of order: %s before %s", entries[i-1].Date, entries[i].Date)
		}
	}
}

func TestMealRoundTrip(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, store)

	meal := &models.Meal{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		Name:     "Chicken burrito bowl",
		Calories: 720, Protein: 45, Carbs: 70, Fat: 25,
		Confidence: 0.8,
		Foods: []models.FoodItem{
			{Name: "chicken breast", Quantity: "6 oz", Calories: 280},
			{Name: "rice", Quantity: "1 cup", Calories: 200},
		},
		Suggestions: []string{"add vegetables"},
		Source:      "text",
	}
	if err := store.SaveMeal(ctx, meal); err != nil {
		t.Fatalf("save meal: %v", err)
	}

	meals, err := store.ListMeals(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("list meals: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("expected 1 meal, got %d", len(meals))
	}
	got := meals[0]
	if got.Name != meal.Name || len(got.Foods) != 2 || got.Foods[0].Name != "chicken breast" {
		t.Fatalf("unexpected meal %+v", got)
	}
}

func TestTDEESnapshotKeepsOnlyLatest(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, store)

	first := &models.TDEEResult{
		AdaptiveTDEE: 2500, FormulaTDEE: 2400, Confidence: "low",
		ConfidenceScore: 20, DataPoints: 1, Method: "adaptive",
		RecommendedCalories: 2000, CalculatedAt: time.Now().Add(-time.Hour),
	}
	second := &models.TDEEResult{
		AdaptiveTDEE: 2600, FormulaTDEE: 2400, Confidence: "medium",
		ConfidenceScore: 45, DataPoints: 3, Method: "adaptive",
		RecommendedCalories: 2100, CalculatedAt: time.Now(),
	}

	if err := store.SaveTDEESnapshot(ctx, user.ID, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.SaveTDEESnapshot(ctx, user.ID, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := store.GetLatestTDEESnapshot(ctx, user.ID)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if got == nil || got.AdaptiveTDEE != 2600 || got.Confidence != "medium" {
		t.Fatalf("expected latest snapshot, got %+v", got)
	}

	none, err := store.GetLatestTDEESnapshot(ctx, "other-user")
	if err != nil {
		t.Fatalf("get missing snapshot: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for user with no snapshot, got %+v", none)
	}
}

func TestLLMSpendAccumulates(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, store)
	date := "2026-08-28"

	if err := store.AddLLMSpend(ctx, user.ID, date, 0.01, 1.0); err != nil {
		t.Fatalf("first spend: %v", err)
	}
	if err := store.AddLLMSpend(ctx, user.ID, date, 0.02, 1.0); err != nil {
		t.Fatalf("second spend: %v", err)
	}

	record, err := store.GetLLMSpend(ctx, user.ID, date)
	if err != nil {
		t.Fatalf("get spend: %v", err)
	}
	if record == nil {
		t.Fatal("expected spend record")
	}
	if record.Requests != 2 {
		t.Fatalf("expected 2 requests, got %d", record.Requests)
	}
	if record.Cost < 0.029 || record.Cost > 0.031 {
		t.Fatalf("expected cost ~0.03, got %v", record.Cost)
	}
	if record.DailyLimit != 1.0 {
		t.Fatalf("expected limit 1.0, got %v", record.DailyLimit)
	}
}
