package ml

import (
	"context"
	"fmt"
	"os"

	"github.com/heirclark/nutricoach/internal/models"
)

// LocalConfig holds configuration for the local model
type LocalConfig struct {
	BaseConfig
	ModelPath string `json:"model_path"`
}

// Load loads the local configuration
func (c *LocalConfig) Load() error {
	if err := c.LoadConfig(c.ConfigPath, "local", c); err != nil {
		return err
	}

	if c.ModelPath == "" {
		c.ModelPath = os.Getenv("LOCAL_MODEL_PATH")
	}

	return nil
}

// LocalModel implements the Model interface for a locally hosted model.
// Only the plumbing exists; every operation reports unimplemented.
type LocalModel struct {
	config LocalConfig
}

// LocalModelFactory implements ModelFactory for local models
type LocalModelFactory struct {
	config LocalConfig
}

// NewLocalModelFactory creates a new local model factory
func NewLocalModelFactory(config LocalConfig) *LocalModelFactory {
	return &LocalModelFactory{config: config}
}

// CreateModel creates a new local model instance
func (f *LocalModelFactory) CreateModel() (Model, error) {
	return &LocalModel{
		config: f.config,
	}, nil
}

// Load initializes the local model
func (m *LocalModel) Load(ctx context.Context) error {
	return nil
}

func (m *LocalModel) AnalyzeMealText(ctx context.Context, text string) (*models.MealAnalysis, error) {
	return nil, fmt.Errorf("unimplemented: local meal analysis not yet implemented")
}

func (m *LocalModel) AnalyzeMealPhoto(ctx context.Context, imageData []byte, mimeType, hint string) (*models.MealAnalysis, error) {
	return nil, fmt.Errorf("unimplemented: local photo analysis not yet implemented")
}

func (m *LocalModel) TranscribeVoice(ctx context.Context, audioData []byte, mimeType string) (string, error) {
	return "", fmt.Errorf("unimplemented: local transcription not yet implemented")
}

func (m *LocalModel) CoachMealPlan(ctx context.Context, req *models.CoachRequest) (string, error) {
	return "", fmt.Errorf("unimplemented: local coaching not yet implemented")
}

func (m *LocalModel) TDEEInsights(ctx context.Context, result *models.TDEEResult, profile *models.UserProfile) (string, error) {
	return "", fmt.Errorf("unimplemented: local insights not yet implemented")
}
