package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/heirclark/nutricoach/internal/auth"
	"github.com/heirclark/nutricoach/internal/costcontrol"
	"github.com/heirclark/nutricoach/internal/database"
	"github.com/heirclark/nutricoach/internal/models"
)

// stubModel returns canned responses so handler behavior can be tested
// without a live model.
type stubModel struct {
	failWith error
}

func (m *stubModel) Load(ctx context.Context) error { return nil }

func (m *stubModel) AnalyzeMealText(ctx context.Context, text string) (*models.MealAnalysis, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return &models.MealAnalysis{
		MealName: "Stub meal", Calories: 500, Protein: 30, Carbs: 50, Fat: 15,
		Confidence: 0.9,
		Foods:      []models.FoodItem{{Name: "stub food", Calories: 500}},
	}, nil
}

func (m *stubModel) AnalyzeMealPhoto(ctx context.Context, imageData []byte, mimeType, hint string) (*models.MealAnalysis, error) {
	return m.AnalyzeMealText(ctx, hint)
}

func (m *stubModel) TranscribeVoice(ctx context.Context, audioData []byte, mimeType string) (string, error) {
	if m.failWith != nil {
		return "", m.failWith
	}
	return "I had two eggs and toast for breakfast", nil
}

func (m *stubModel) CoachMealPlan(ctx context.Context, req *models.CoachRequest) (string, error) {
	if m.failWith != nil {
		return "", m.failWith
	}
	return "Good morning! Today we focus on protein.", nil
}

func (m *stubModel) TDEEInsights(ctx context.Context, result *models.TDEEResult, profile *models.UserProfile) (string, error) {
	if m.failWith != nil {
		return "", m.failWith
	}
	return "Your adaptive estimate tracks your real-world burn.", nil
}

type testEnv struct {
	server *Server
	store  *database.SQLStore
	ts     *httptest.Server
}

func newTestEnv(t *testing.T, dailyLimit float64) *testEnv {
	t.Helper()
	store, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	authSvc, err := auth.NewService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	spend := costcontrol.NewService(store, dailyLimit)
	srv := New(store, &stubModel{}, authSvc, spend, false)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		store.Close()
	})
	return &testEnv{server: srv, store: store, ts: ts}
}

func (e *testEnv) postJSON(t *testing.T, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	return e.doJSON(t, http.MethodPost, path, token, body)
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response from %s: %v", path, err)
	}
	return resp, decoded
}

func (e *testEnv) registerUser(t *testing.T, email string) string {
	t.Helper()
	resp, body := e.postJSON(t, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d: %v", resp.StatusCode, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("register returned no token")
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, 1.0)
	resp, body := env.doJSON(t, http.MethodGet, "/api/v1/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
	if body["timestamp"] == "" {
		t.Fatal("expected a timestamp")
	}
}

func TestMealFromTextMissingTextIs400(t *testing.T) {
	env := newTestEnv(t, 1.0)
	resp, body := env.postJSON(t, "/api/v1/nutrition/ai/meal-from-text", "", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", resp.StatusCode, body)
	}
	if body["error"] == "" {
		t.Fatal("expected error message")
	}
}

func TestMealFromTextSuccess(t *testing.T) {
	env := newTestEnv(t, 1.0)
	resp, body := env.postJSON(t, "/api/v1/nutrition/ai/meal-from-text", "", map[string]string{
		"text": "grilled chicken with rice",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if body["success"] != true {
		t.Fatalf("expected success envelope, got %v", body)
	}
	analysis, ok := body["analysis"].(map[string]any)
	if !ok {
		t.Fatalf("expected analysis object, got %v", body["analysis"])
	}
	if analysis["mealName"] != "Stub meal" || analysis["calories"] != 500.0 {
		t.Fatalf("unexpected analysis %v", analysis)
	}
}

func TestMealFromPhotoRequiresFile(t *testing.T) {
	env := newTestEnv(t, 1.0)
	resp, err := http.Post(env.ts.URL+"/api/v1/nutrition/ai/meal-from-photo", "application/json", bytes.NewBufferString("{}"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without multipart photo, got %d", resp.StatusCode)
	}
}

func TestMealFromPhotoMultipart(t *testing.T) {
	env := newTestEnv(t, 1.0)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photo", "meal.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte("not-really-a-jpeg"))
	mw.WriteField("description", "pasta")
	mw.Close()

	resp, err := http.Post(env.ts.URL+"/api/v1/nutrition/ai/meal-from-photo", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != true {
		t.Fatalf("expected success, got %v", body)
	}
}

func TestTranscribeVoiceMultipart(t *testing.T) {
	env := newTestEnv(t, 1.0)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("audio", "memo.m4a")
	fw.Write([]byte("fake-audio-bytes"))
	mw.Close()

	resp, err := http.Post(env.ts.URL+"/api/v1/nutrition/ai/transcribe-voice", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	if body["success"] != true || body["text"] == "" {
		t.Fatalf("unexpected transcription response %v", body)
	}
}

func TestCoachMealPlan(t *testing.T) {
	env := newTestEnv(t, 1.0)

	resp, body := env.postJSON(t, "/api/v1/avatar/coach/meal-plan", "", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without goal, got %d", resp.StatusCode)
	}

	resp, body = env.postJSON(t, "/api/v1/avatar/coach/meal-plan", "", map[string]any{
		"goal":           "lose",
		"targetCalories": 2000,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if body["ok"] != true || body["script"] == "" {
		t.Fatalf("unexpected coach response %v", body)
	}
	if _, ok := body["metadata"].(map[string]any); !ok {
		t.Fatalf("expected metadata object, got %v", body["metadata"])
	}
}

func TestUpstreamFailureIs500(t *testing.T) {
	env := newTestEnv(t, 1.0)
	env.server.model = &stubModel{failWith: fmt.Errorf("model exploded")}

	resp, body := env.postJSON(t, "/api/v1/nutrition/ai/meal-from-text", "", map[string]string{
		"text": "anything",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if body["error"] != "model exploded" {
		t.Fatalf("expected relayed upstream error, got %v", body["error"])
	}
}

func TestSpendLimitReturns429(t *testing.T) {
	// Budget covers exactly one text analysis.
	env := newTestEnv(t, costcontrol.CostMealText)
	token := env.registerUser(t, "spender@example.com")

	resp, _ := env.postJSON(t, "/api/v1/nutrition/ai/meal-from-text", token, map[string]string{"text": "meal one"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first request should pass, got %d", resp.StatusCode)
	}

	resp, body := env.postJSON(t, "/api/v1/nutrition/ai/meal-from-text", token, map[string]string{"text": "meal two"})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once budget exhausted, got %d: %v", resp.StatusCode, body)
	}
}
