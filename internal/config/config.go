package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all application configuration
type Config struct {
	Server struct {
		Port  string `json:"port"`
		Debug bool   `json:"debug"`
	} `json:"server"`

	Database struct {
		Driver string `json:"driver"` // "sqlite" or "postgres"
		Path   string `json:"path"`   // sqlite file path
		URL    string `json:"url"`    // postgres DSN
	} `json:"database"`

	ML struct {
		Type string `json:"type"` // "local" or "google"
	} `json:"ml"`

	Auth struct {
		JWTSecret     string `json:"jwt_secret"`
		TokenTTLHours int    `json:"token_ttl_hours"`
	} `json:"auth"`

	LLM struct {
		DailyCostLimit float64 `json:"daily_cost_limit"` // USD per user per day
	} `json:"llm"`
}

// LoadConfig loads configuration from a JSON file, then fills gaps from
// environment variables and defaults. A missing file is not an error so
// the server can run from the environment alone.
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if config.Server.Port == "" {
		config.Server.Port = os.Getenv("PORT")
	}
	if config.Database.URL == "" {
		config.Database.URL = os.Getenv("DATABASE_URL")
	}
	if config.Auth.JWTSecret == "" {
		config.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if config.ML.Type == "" {
		config.ML.Type = os.Getenv("ML_TYPE")
	}

	// Handle missing values
	if config.Server.Port == "" {
		config.Server.Port = "3000"
	}
	if config.Database.Driver == "" {
		if config.Database.URL != "" {
			config.Database.Driver = "postgres"
		} else {
			config.Database.Driver = "sqlite"
		}
	}
	if config.Database.Driver == "sqlite" && config.Database.Path == "" {
		config.Database.Path = "nutricoach.db"
	}
	if config.Database.Driver == "postgres" && config.Database.URL == "" {
		return nil, fmt.Errorf("postgres driver selected but no database url configured")
	}
	if config.ML.Type == "" {
		config.ML.Type = "google"
	}
	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is not set (auth.jwt_secret or JWT_SECRET)")
	}
	if config.Auth.TokenTTLHours <= 0 {
		config.Auth.TokenTTLHours = 24
	}
	if config.LLM.DailyCostLimit <= 0 {
		config.LLM.DailyCostLimit = 1.0
	}

	return &config, nil
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	// First try environment variable
	if path := os.Getenv("NUTRICOACH_CONFIG"); path != "" {
		return path
	}

	// Then try config directory
	configDir := "config"
	if _, err := os.Stat(configDir); err == nil {
		return filepath.Join(configDir, "config.json")
	}

	// Finally, try current directory
	return "config.json"
}
