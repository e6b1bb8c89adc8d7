package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"suggestions-backend/internal/models"
)

// DefaultQueryLimit bounds the result count of suggestion queries when the
// config does not set one.
const DefaultQueryLimit = 1000

// Config holds the application's configuration.
type Config struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Review struct {
		ThresholdDaysBeforeAccept int    `yaml:"threshold_days_before_accept"`
		QueryLimit                int    `yaml:"query_limit"`
		SweepIntervalSeconds      int64  `yaml:"sweep_interval_seconds"`
		AutoAcceptReviewerID      string `yaml:"auto_accept_reviewer_id"`
	} `yaml:"review"`
	ScoringService struct {
		URL     string `yaml:"url"`
		Enabled bool   `yaml:"enabled"`
	} `yaml:"scoring_service"`
	FeedbackService struct {
		URL     string `yaml:"url"`
		Enabled bool   `yaml:"enabled"`
	} `yaml:"feedback_service"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if config.Review.ThresholdDaysBeforeAccept == 0 {
		config.Review.ThresholdDaysBeforeAccept = models.ThresholdDaysBeforeAccept
	}
	if config.Review.QueryLimit == 0 {
		config.Review.QueryLimit = DefaultQueryLimit
	}
	if config.Review.SweepIntervalSeconds == 0 {
		config.Review.SweepIntervalSeconds = 3600
	}
	if config.Review.AutoAcceptReviewerID == "" {
		config.Review.AutoAcceptReviewerID = "suggestion_bot"
	}

	return config, nil
}
