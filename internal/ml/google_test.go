package ml

import (
	"strings"
	"testing"
)

func TestParseMealAnalysisSuccess(t *testing.T) {
	raw := "```json\n" + `{
	"success": {
		"mealName": "Chicken salad",
		"calories": 450,
		"protein": 38,
		"carbs": 20,
		"fat": 24,
		"confidence": 0.85,
		"foods": [{"name": "chicken breast", "quantity": "5 oz", "calories": 230}],
		"suggestions": ["add whole grains"]
	}
}` + "\n```"

	analysis, err := parseMealAnalysis(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if analysis.MealName != "Chicken salad" {
		t.Fatalf("unexpected meal name %q", analysis.MealName)
	}
	if analysis.Calories != 450 || analysis.Protein != 38 {
		t.Fatalf("unexpected macros %+v", analysis)
	}
	if len(analysis.Foods) != 1 || analysis.Foods[0].Name != "chicken breast" {
		t.Fatalf("unexpected foods %+v", analysis.Foods)
	}
	if len(analysis.Suggestions) != 1 {
		t.Fatalf("unexpected suggestions %+v", analysis.Suggestions)
	}
}

func TestParseMealAnalysisWithoutFence(t *testing.T) {
	raw := `{"success": {"mealName": "Oatmeal", "calories": 300, "protein": 10, "carbs": 54, "fat": 6, "confidence": 0.9}}`
	analysis, err := parseMealAnalysis(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if analysis.MealName != "Oatmeal" {
		t.Fatalf("unexpected meal name %q", analysis.MealName)
	}
}

func TestParseMealAnalysisModelError(t *testing.T) {
	raw := `{"error": {"error_reason": "no food described", "suggestion_for_better_results": "describe what you ate"}}`
	_, err := parseMealAnalysis(raw)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no food described") {
		t.Fatalf("error should relay model reason, got %v", err)
	}
}

func TestParseMealAnalysisMissingFields(t *testing.T) {
	raw := `{"success": {"mealName": "Mystery", "calories": 300}}`
	_, err := parseMealAnalysis(raw)
	if err == nil || !strings.Contains(err.Error(), "missing required field") {
		t.Fatalf("expected missing-field error, got %v", err)
	}
}

func TestParseMealAnalysisGarbage(t *testing.T) {
	if _, err := parseMealAnalysis("I had a sandwich, probably 400 calories"); err == nil {
		t.Fatal("expected parse error for non-JSON reply")
	}
}

func TestParseMealAnalysisClampsConfidence(t *testing.T) {
	raw := `{"success": {"mealName": "Shake", "calories": 200, "protein": 30, "carbs": 10, "fat": 3, "confidence": 1.7}}`
	analysis, err := parseMealAnalysis(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if analysis.Confidence != 1 {
		t.Fatalf("expected confidence clamped to 1, got %v", analysis.Confidence)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Fatalf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
