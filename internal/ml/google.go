package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/heirclark/nutricoach/internal/models"
	"google.golang.org/api/option"
)

const defaultModelName = "gemini-1.5-flash"

// GoogleConfig holds configuration for the Google model
type GoogleConfig struct {
	BaseConfig
	ProjectID       string `json:"project_id"`
	Location        string `json:"location"`
	CredentialsFile string `json:"credentials_file"`
	ModelName       string `json:"model_name"`
}

// Load loads the Google configuration
func (c *GoogleConfig) Load() error {
	if err := c.LoadConfig(c.ConfigPath, "google", c); err != nil {
		return err
	}

	// Fall back to environment variables if not set
	if c.ProjectID == "" {
		c.ProjectID = os.Getenv("GOOGLE_PROJECT_ID")
	}
	if c.Location == "" {
		c.Location = os.Getenv("GOOGLE_LOCATION")
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = os.Getenv("GOOGLE_CREDENTIALS_FILE")
	}
	if c.ModelName == "" {
		c.ModelName = defaultModelName
	}

	return nil
}

// GoogleModel implements the Model interface for Google's Vertex AI
type GoogleModel struct {
	config GoogleConfig
	client *genai.Client
	model  *genai.GenerativeModel
}

// GoogleModelFactory implements ModelFactory for Google models
type GoogleModelFactory struct {
	config GoogleConfig
}

// NewGoogleModelFactory creates a new Google model factory
func NewGoogleModelFactory(config GoogleConfig) *GoogleModelFactory {
	return &GoogleModelFactory{config: config}
}

// CreateModel creates a new Google model instance
func (f *GoogleModelFactory) CreateModel() (Model, error) {
	return &GoogleModel{
		config: f.config,
	}, nil
}

// Load initializes the Google model
func (m *GoogleModel) Load(ctx context.Context) error {
	opts := []option.ClientOption{}

	if m.config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(m.config.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, m.config.ProjectID, m.config.Location, opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	m.client = client
	m.model = client.GenerativeModel(m.config.ModelName)
	return nil
}

const mealAnalysisFormat = `Format the response as a JSON object with exactly one of "error" or "success" populated.
If the input does not describe food, raise an error explaining what went wrong.
{
	"error": {
		"error_reason": "string",
		"suggestion_for_better_results": "string"
	},
	"success": {
		"mealName": "string",
		"calories": number,
		"protein": number,
		"carbs": number,
		"fat": number,
		"confidence": number between 0 and 1,
		"foods": [{"name": "string", "quantity": "string", "calories": number}],
		"suggestions": ["string"]
	}
}`

// AnalyzeMealText estimates nutrition for a free-text meal description.
func (m *GoogleModel) AnalyzeMealText(ctx context.Context, text string) (*models.MealAnalysis, error) {
	prompt := fmt.Sprintf(`You are a nutrition analyst. Estimate the nutritional content of this meal:

"%s"

Give calories in kcal and protein, carbs and fat in grams for the whole meal.
%s`, text, mealAnalysisFormat)

	raw, err := m.generate(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	return parseMealAnalysis(raw)
}

// AnalyzeMealPhoto estimates nutrition from a meal photo, with an optional
// free-text hint from the user.
func (m *GoogleModel) AnalyzeMealPhoto(ctx context.Context, imageData []byte, mimeType, hint string) (*models.MealAnalysis, error) {
	prompt := `You are a nutrition analyst. Identify the meal in this photo and estimate its nutritional content.
Give calories in kcal and protein, carbs and fat in grams for the visible portion.
`
	if hint != "" {
		prompt += fmt.Sprintf("The user notes: %q\n", hint)
	}
	prompt += mealAnalysisFormat

	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	img := genai.ImageData(mimeType, imageData)

	raw, err := m.generate(ctx, genai.Text(prompt), img)
	if err != nil {
		return nil, err
	}
	return parseMealAnalysis(raw)
}

// TranscribeVoice converts a voice memo to plain text.
func (m *GoogleModel) TranscribeVoice(ctx context.Context, audioData []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "audio/mp4"
	}
	prompt := genai.Text(`Transcribe this audio recording verbatim. Respond with the transcript only, no commentary.`)
	audio := genai.Blob{MIMEType: mimeType, Data: audioData}

	raw, err := m.generate(ctx, prompt, audio)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// CoachMealPlan writes a short spoken-style coaching script.
func (m *GoogleModel) CoachMealPlan(ctx context.Context, req *models.CoachRequest) (string, error) {
	var b strings.Builder
	b.WriteString("You are a friendly nutrition coach. Write a short spoken script (under 150 words) ")
	b.WriteString("walking the user through today's meal plan.\n")
	if req.FirstName != "" {
		fmt.Fprintf(&b, "Address the user as %s.\n", req.FirstName)
	}
	fmt.Fprintf(&b, "Their goal is to %s weight.\n", req.Goal)
	if req.TargetCalories > 0 {
		fmt.Fprintf(&b, "Their daily calorie target is %.0f kcal.\n", req.TargetCalories)
	}
	if len(req.DietaryPreferences) > 0 {
		fmt.Fprintf(&b, "Dietary preferences: %s.\n", strings.Join(req.DietaryPreferences, ", "))
	}
	b.WriteString("Respond with the script text only.")

	raw, err := m.generate(ctx, genai.Text(b.String()))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// TDEEInsights comments on a computed TDEE result in plain language.
func (m *GoogleModel) TDEEInsights(ctx context.Context, result *models.TDEEResult, profile *models.UserProfile) (string, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal tdee result: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a nutrition coach. A user's energy expenditure was estimated as:\n")
	b.Write(resultJSON)
	b.WriteString("\n")
	if profile != nil {
		fmt.Fprintf(&b, "The user is %d years old, %s, %.0f cm tall, activity level %s, goal: %s.\n",
			profile.Age, profile.Sex, profile.HeightCm, profile.ActivityLevel, profile.Goal)
	}
	b.WriteString(`Explain in 3-4 sentences what the adaptive estimate means, how it compares to the formula estimate, and how the confidence level should affect their trust in it. Plain text only.`)

	raw, err := m.generate(ctx, genai.Text(b.String()))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// generate calls the model and extracts the first candidate's text.
func (m *GoogleModel) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	if m.model == nil {
		return "", fmt.Errorf("model not loaded")
	}

	resp, err := m.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to call ai: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response generated")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	return fmt.Sprintf("%v", candidate.Content.Parts[0]), nil
}

// stripFences removes a surrounding ```json ... ``` fence if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// parseMealAnalysis validates and reshapes the model's JSON reply.
func parseMealAnalysis(raw string) (*models.MealAnalysis, error) {
	textContent := stripFences(raw)

	var output struct {
		Error struct {
			ErrorReason string `json:"error_reason"`
			Suggestion  string `json:"suggestion_for_better_results"`
		} `json:"error"`
		Success models.MealAnalysis `json:"success"`
	}

	// First unmarshal into a map to check for missing fields
	var rawMap map[string]interface{}
	if err := json.Unmarshal([]byte(textContent), &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w while parsing %s", err, textContent)
	}

	if errObj, ok := rawMap["error"].(map[string]interface{}); ok {
		if reason, _ := errObj["error_reason"].(string); reason != "" {
			suggestion, _ := errObj["suggestion_for_better_results"].(string)
			return nil, fmt.Errorf("error: %s; suggestion: %s", reason, suggestion)
		}
	}

	successObj, ok := rawMap["success"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid success object in response")
	}
	requiredFields := []string{"mealName", "calories", "protein", "carbs", "fat"}
	for _, field := range requiredFields {
		if _, exists := successObj[field]; !exists {
			return nil, fmt.Errorf("missing required field '%s' in response", field)
		}
	}

	if err := json.Unmarshal([]byte(textContent), &output); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	analysis := output.Success
	if analysis.Confidence < 0 {
		analysis.Confidence = 0
	}
	if analysis.Confidence > 1 {
		analysis.Confidence = 1
	}
	return &analysis, nil
}
