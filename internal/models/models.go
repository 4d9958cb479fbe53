package models

import (
	"time"
)

// User is an account row. The password hash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserProfile holds the static inputs to the formula-based TDEE estimate.
type UserProfile struct {
	UserID        string  `json:"userId,omitempty"`
	Age           int     `json:"age"`
	Sex           string  `json:"sex"`    // "male" or "female"
	HeightCm      float64 `json:"heightCm"`
	ActivityLevel string  `json:"activityLevel"` // sedentary, light, moderate, active, very_active
	Goal          string  `json:"goal"`          // lose, maintain, gain
}

// WeightLogEntry is one body-weight sample. Re-logging the same date
// supersedes the earlier value rather than versioning it.
type WeightLogEntry struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Weight float64 `json:"weight"`
	Unit   string  `json:"unit"` // "kg" or "lb"
}

// CalorieLogEntry is the intake/burn summary for one calendar date.
// Later logs for the same date update the row in place.
type CalorieLogEntry struct {
	Date             string  `json:"date"` // YYYY-MM-DD
	CaloriesConsumed float64 `json:"caloriesConsumed"`
	CaloriesBurned   float64 `json:"caloriesBurned"`
	NetCalories      float64 `json:"netCalories"`
}

// TDEEResult is a derived snapshot, recomputed on demand. Only the latest
// derivation is kept per user.
type TDEEResult struct {
	AdaptiveTDEE        float64   `json:"adaptiveTDEE"`
	FormulaTDEE         float64   `json:"formulaTDEE"`
	Confidence          string    `json:"confidence"` // low, medium, high
	ConfidenceScore     int       `json:"confidenceScore"`
	DataPoints          int       `json:"dataPoints"`
	Method              string    `json:"method"` // "adaptive" or "formula"
	RecommendedCalories float64   `json:"recommendedCalories"`
	CalculatedAt        time.Time `json:"calculatedAt"`
}

// FoodItem is one recognized component of an analyzed meal.
type FoodItem struct {
	Name     string  `json:"name"`
	Quantity string  `json:"quantity,omitempty"`
	Calories float64 `json:"calories"`
}

// MealAnalysis is the reshaped model output for a meal description or photo.
type MealAnalysis struct {
	MealName    string     `json:"mealName"`
	Calories    float64    `json:"calories"`
	Protein     float64    `json:"protein"`
	Carbs       float64    `json:"carbs"`
	Fat         float64    `json:"fat"`
	Confidence  float64    `json:"confidence"`
	Foods       []FoodItem `json:"foods"`
	Suggestions []string   `json:"suggestions"`
}

// Meal is a persisted analysis the user chose to log.
type Meal struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Calories    float64    `json:"calories"`
	Protein     float64    `json:"protein"`
	Carbs       float64    `json:"carbs"`
	Fat         float64    `json:"fat"`
	Confidence  float64    `json:"confidence"`
	Foods       []FoodItem `json:"foods,omitempty"`
	Suggestions []string   `json:"suggestions,omitempty"`
	Source      string     `json:"source"` // "text", "photo", "manual"
	LoggedAt    time.Time  `json:"loggedAt"`
}

// CoachRequest describes what the coaching script should cover.
type CoachRequest struct {
	FirstName          string   `json:"firstName,omitempty"`
	Goal               string   `json:"goal"`
	TargetCalories     float64  `json:"targetCalories,omitempty"`
	DietaryPreferences []string `json:"dietaryPreferences,omitempty"`
}

// LLMSpendRecord tracks one user's model usage for one calendar date.
type LLMSpendRecord struct {
	UserID     string    `json:"user_id"`
	Date       string    `json:"date"` // YYYY-MM-DD
	Requests   int       `json:"llm_requests"`
	Cost       float64   `json:"llm_cost"`
	DailyLimit float64   `json:"daily_limit"`
	UpdatedAt  time.Time `json:"updated_at"`
}
