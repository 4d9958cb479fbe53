package ml

import (
	"context"
	"fmt"

	"github.com/heirclark/nutricoach/internal/models"
)

// Model represents a generative model that powers the AI endpoints.
type Model interface {
	// Load initializes the model with its configuration
	Load(ctx context.Context) error
	// AnalyzeMealText estimates nutrition from a free-text meal description
	AnalyzeMealText(ctx context.Context, text string) (*models.MealAnalysis, error)
	// AnalyzeMealPhoto estimates nutrition from a meal photo
	AnalyzeMealPhoto(ctx context.Context, imageData []byte, mimeType, hint string) (*models.MealAnalysis, error)
	// TranscribeVoice converts a voice memo to text
	TranscribeVoice(ctx context.Context, audioData []byte, mimeType string) (string, error)
	// CoachMealPlan writes a short coaching script around a meal plan
	CoachMealPlan(ctx context.Context, req *models.CoachRequest) (string, error)
	// TDEEInsights comments on a computed TDEE result
	TDEEInsights(ctx context.Context, result *models.TDEEResult, profile *models.UserProfile) (string, error)
}

// ModelFactory creates a new model instance based on configuration
type ModelFactory interface {
	// CreateModel creates a new model instance
	CreateModel() (Model, error)
}

// NewModel creates a new model instance based on the model type
func NewModel(modelType, configPath string) (Model, error) {
	var factory ModelFactory

	switch modelType {
	case "google":
		config := GoogleConfig{
			BaseConfig: BaseConfig{
				ConfigPath: configPath,
			},
		}
		if err := config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load Google config: %w", err)
		}
		factory = NewGoogleModelFactory(config)
	case "local":
		config := LocalConfig{
			BaseConfig: BaseConfig{
				ConfigPath: configPath,
			},
		}
		if err := config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
		factory = NewLocalModelFactory(config)
	default:
		return nil, fmt.Errorf("unsupported model type: %s", modelType)
	}
	return factory.CreateModel()
}
