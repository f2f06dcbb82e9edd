// Package config provides configuration management for surveyflow services.
package config

import (
	"time"

	"github.com/solatis/surveyflow/internal/types"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Engine   EngineConfig
}

// ServerConfig holds listener settings for the gRPC and HTTP transports.
type ServerConfig struct {
	Host            string
	GRPCPort        int
	HTTPPort        int // 0 disables the HTTP listener
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the connection URL (sqlite://path or postgres://...).
type DatabaseConfig struct {
	URL string
}

// LogConfig controls the process logger. File enables rotation through
// lumberjack; empty logs to stderr.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// EngineConfig bounds the surveys accepted by the authoring path and the
// stateless evaluate endpoints. Limits may be lowered but never raised above
// the package-level maximums in internal/types.
type EngineConfig struct {
	MaxQuestions int
	MaxRules     int
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			GRPCPort:        50051,
			HTTPPort:        8080,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			URL: "sqlite://./data/surveyflow.db",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Engine: EngineConfig{
			MaxQuestions: types.MaxQuestionsPerSurvey,
			MaxRules:     types.MaxRulesPerSurvey,
		},
	}
}
