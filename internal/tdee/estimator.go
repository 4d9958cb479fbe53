// Package tdee derives a Total Daily Energy Expenditure estimate from a
// user's logged weight and calorie history, alongside the Mifflin-St Jeor
// formula estimate used as a fallback and cross-check.
package tdee

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/heirclark/nutricoach/internal/models"
)

const (
	// Energy equivalent of one pound of body weight.
	kcalPerPound = 3500.0

	poundsPerKg = 1 / 0.45359237

	// Smoothing factor for the weekly estimate series.
	smoothingAlpha = 0.3

	// Weekly estimates outside this band are treated as logging noise.
	minSaneTDEE = 800.0
	maxSaneTDEE = 6000.0

	// A week must have this many samples of each kind to qualify.
	minSamplesPerWeek = 3

	// Below this many qualifying weeks the estimate falls back to formula.
	minQualifyingWeeks = 2

	// Recommended intake never drops below this.
	minRecommendedCalories = 1200.0
)

// Daily calorie adjustment per stated goal. Lose targets 1 lb/week,
// gain targets 0.5 lb/week.
var goalAdjustments = map[string]float64{
	"lose":     -500,
	"gain":     +250,
	"maintain": 0,
}

var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// Input is everything the estimator consumes. Now is optional and exists
// so tests can pin the snapshot timestamp.
type Input struct {
	WeightHistory  []models.WeightLogEntry
	CalorieHistory []models.CalorieLogEntry
	Profile        models.UserProfile
	Now            time.Time
}

type week struct {
	start        time.Time
	weightSum    float64 // lb
	weightCount  int
	calorieSum   float64
	calorieCount int
}

func (w *week) qualifies() bool {
	return w.weightCount >= minSamplesPerWeek && w.calorieCount >= minSamplesPerWeek
}

func (w *week) meanWeightLb() float64 { return w.weightSum / float64(w.weightCount) }
func (w *week) meanCalories() float64 { return w.calorieSum / float64(w.calorieCount) }

// Estimate computes the adaptive TDEE result for the given history. It is a
// pure function: the only failure modes are malformed inputs, rejected
// before any computation happens.
func Estimate(in Input) (*models.TDEEResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	weeks, uniqueDays, err := bucketByWeek(in.WeightHistory, in.CalorieHistory)
	if err != nil {
		return nil, err
	}

	estimates := weeklyEstimates(weeks)

	latestKg, err := latestWeightKg(in.WeightHistory)
	if err != nil {
		return nil, err
	}
	formula := formulaTDEE(latestKg, in.Profile)

	result := &models.TDEEResult{
		FormulaTDEE:  formula,
		DataPoints:   len(estimates),
		CalculatedAt: now,
	}

	qualifying := 0
	for _, w := range weeks {
		if w.qualifies() {
			qualifying++
		}
	}

	if qualifying < minQualifyingWeeks || len(estimates) == 0 {
		result.AdaptiveTDEE = formula
		result.Method = "formula"
	} else {
		result.AdaptiveTDEE = math.Round(smooth(estimates, smoothingAlpha))
		result.Method = "adaptive"
	}

	result.ConfidenceScore = confidenceScore(estimates, uniqueDays)
	result.Confidence = confidenceLabel(result.ConfidenceScore)
	result.RecommendedCalories = recommendedCalories(result.AdaptiveTDEE, in.Profile.Goal)

	return result, nil
}

func validate(in Input) error {
	if len(in.WeightHistory) == 0 || len(in.CalorieHistory) == 0 || in.Profile == (models.UserProfile{}) {
		return fmt.Errorf("weightHistory, calorieHistory and userProfile are required")
	}
	return nil
}

// weekStart returns the preceding (or same) Sunday at midnight UTC.
func weekStart(d time.Time) time.Time {
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// bucketByWeek groups both histories into Sunday-keyed weeks and counts the
// distinct calendar dates with at least one log of either kind.
func bucketByWeek(weights []models.WeightLogEntry, calories []models.CalorieLogEntry) ([]*week, int, error) {
	byStart := map[time.Time]*week{}
	days := map[string]bool{}

	get := func(start time.Time) *week {
		if w, ok := byStart[start]; ok {
			return w
		}
		w := &week{start: start}
		byStart[start] = w
		return w
	}

	for _, e := range weights {
		day, err := parseDay(e.Date)
		if err != nil {
			return nil, 0, err
		}
		lb, err := toPounds(e.Weight, e.Unit)
		if err != nil {
			return nil, 0, err
		}
		w := get(weekStart(day))
		w.weightSum += lb
		w.weightCount++
		days[e.Date] = true
	}

	for _, e := range calories {
		day, err := parseDay(e.Date)
		if err != nil {
			return nil, 0, err
		}
		w := get(weekStart(day))
		w.calorieSum += e.CaloriesConsumed
		w.calorieCount++
		days[e.Date] = true
	}

	weeks := make([]*week, 0, len(byStart))
	for _, w := range byStart {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].start.Before(weeks[j].start) })

	return weeks, len(days), nil
}

// weeklyEstimates derives one maintenance-calorie estimate per pair of
// consecutive qualifying weeks, dropping values outside the sanity band.
func weeklyEstimates(weeks []*week) []float64 {
	var out []float64
	for i := 1; i < len(weeks); i++ {
		prev, cur := weeks[i-1], weeks[i]
		if !prev.qualifies() || !cur.qualifies() {
			continue
		}
		if !cur.start.Equal(prev.start.AddDate(0, 0, 7)) {
			continue
		}
		deltaLb := cur.meanWeightLb() - prev.meanWeightLb()
		estimate := cur.meanCalories() - (deltaLb*kcalPerPound)/7
		if estimate < minSaneTDEE || estimate > maxSaneTDEE {
			continue
		}
		out = append(out, estimate)
	}
	return out
}

func smooth(series []float64, alpha float64) float64 {
	ema := series[0]
	for _, v := range series[1:] {
		ema = alpha*v + (1-alpha)*ema
	}
	return ema
}

func toPounds(value float64, unit string) (float64, error) {
	switch unit {
	case "lb", "lbs", "":
		return value, nil
	case "kg":
		return value * poundsPerKg, nil
	default:
		return 0, fmt.Errorf("invalid weight unit %q (use kg or lb)", unit)
	}
}

func toKg(value float64, unit string) (float64, error) {
	lb, err := toPounds(value, unit)
	if err != nil {
		return 0, err
	}
	return lb / poundsPerKg, nil
}

func latestWeightKg(weights []models.WeightLogEntry) (float64, error) {
	latest := weights[0]
	for _, e := range weights[1:] {
		if e.Date > latest.Date {
			latest = e
		}
	}
	return toKg(latest.Weight, latest.Unit)
}

// formulaTDEE applies Mifflin-St Jeor scaled by the activity multiplier.
// Unrecognized activity levels are treated as sedentary.
func formulaTDEE(weightKg float64, p models.UserProfile) float64 {
	bmr := 10*weightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Sex == "female" {
		bmr -= 161
	} else {
		bmr += 5
	}
	multiplier, ok := activityMultipliers[p.ActivityLevel]
	if !ok {
		multiplier = activityMultipliers["sedentary"]
	}
	return math.Round(bmr * multiplier)
}

// confidenceScore awards up to 40 points for the number of weekly
// estimates, up to 30 for their consistency, and up to 30 for logging
// habit, expressed as distinct logged days.
func confidenceScore(estimates []float64, uniqueDays int) int {
	score := 0

	points := len(estimates) * 5
	if points > 40 {
		points = 40
	}
	score += points

	if cv, ok := coefficientOfVariation(estimates); ok {
		switch {
		case cv < 0.10:
			score += 30
		case cv < 0.20:
			score += 20
		case cv < 0.30:
			score += 10
		}
	}

	if uniqueDays > 30 {
		uniqueDays = 30
	}
	score += uniqueDays

	return score
}

func coefficientOfVariation(series []float64) (float64, bool) {
	if len(series) < 2 {
		return 0, false
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	mean := sum / float64(len(series))
	if mean == 0 {
		return 0, false
	}
	var sq float64
	for _, v := range series {
		sq += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(sq / float64(len(series)))
	return stddev / mean, true
}

func confidenceLabel(score int) string {
	switch {
	case score >= 70:
		return "high"
	case score >= 40:
		return "medium"
	default:
		return "low"
	}
}

func recommendedCalories(adaptive float64, goal string) float64 {
	target := adaptive + goalAdjustments[goal]
	if target < minRecommendedCalories {
		target = minRecommendedCalories
	}
	return math.Round(target)
}
