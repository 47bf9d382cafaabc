package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultQuestionsPerSection is the sample size used when the config leaves it unset.
const DefaultQuestionsPerSection = 10

// DefaultExportFileName names the downloaded results document.
const DefaultExportFileName = "examprep-quiz-results.json"

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		CookieSecret string `yaml:"cookieSecret"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Quiz struct {
		QuestionsPerSection *int   `yaml:"questionsPerSection"`
		BankPath            string `yaml:"bankPath"`
		BankTTL             string `yaml:"bankTTL"`
		ExportFileName      string `yaml:"exportFileName"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the quiz cannot run with.
func (c Config) Validate() error {
	if n := c.Quiz.QuestionsPerSection; n != nil && *n < 0 {
		return fmt.Errorf("quiz.questionsPerSection must not be negative, got %d", *n)
	}
	return nil
}

// QuestionsPerSection returns the configured sample size or the default.
func (c Config) QuestionsPerSection() int {
	if c.Quiz.QuestionsPerSection == nil {
		return DefaultQuestionsPerSection
	}
	return *c.Quiz.QuestionsPerSection
}

// ExportFileName returns the configured download name or the default.
func (c Config) ExportFileName() string {
	if c.Quiz.ExportFileName == "" {
		return DefaultExportFileName
	}
	return c.Quiz.ExportFileName
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
