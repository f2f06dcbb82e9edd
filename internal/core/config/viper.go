package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/solatis/surveyflow/internal/types"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults matching DefaultConfig
	def := DefaultConfig()
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.grpc_port", def.Server.GRPCPort)
	v.SetDefault("server.http_port", def.Server.HTTPPort)
	v.SetDefault("server.request_timeout", def.Server.RequestTimeout.String())
	v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout.String())
	v.SetDefault("database.url", def.Database.URL)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("log.max_age_days", def.Log.MaxAgeDays)
	v.SetDefault("engine.max_questions", def.Engine.MaxQuestions)
	v.SetDefault("engine.max_rules", def.Engine.MaxRules)

	// Bind environment variables with SF_ prefix
	v.SetEnvPrefix("SF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := validateNoCredentialsInConfig(configPath); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			GRPCPort:        v.GetInt("server.grpc_port"),
			HTTPPort:        v.GetInt("server.http_port"),
			RequestTimeout:  v.GetDuration("server.request_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		Engine: EngineConfig{
			MaxQuestions: v.GetInt("engine.max_questions"),
			MaxRules:     v.GetInt("engine.max_rules"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ports, timeouts, log settings and engine limits.
// CLI commands call it again after applying flag overrides.
func Validate(cfg *Config) error {
	if cfg.Server.GRPCPort <= 0 || cfg.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port must be between 1 and 65535, got %d", cfg.Server.GRPCPort)
	}
	if cfg.Server.HTTPPort < 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port must be between 0 and 65535, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %v", cfg.Server.ShutdownTimeout)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Log.Format)
	}
	if cfg.Log.File != "" && cfg.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be positive, got %d", cfg.Log.MaxSizeMB)
	}
	if cfg.Engine.MaxQuestions <= 0 || cfg.Engine.MaxQuestions > types.MaxQuestionsPerSurvey {
		return fmt.Errorf("engine.max_questions must be between 1 and %d, got %d",
			types.MaxQuestionsPerSurvey, cfg.Engine.MaxQuestions)
	}
	if cfg.Engine.MaxRules <= 0 || cfg.Engine.MaxRules > types.MaxRulesPerSurvey {
		return fmt.Errorf("engine.max_rules must be between 1 and %d, got %d",
			types.MaxRulesPerSurvey, cfg.Engine.MaxRules)
	}
	return nil
}

// validateNoCredentialsInConfig keeps database passwords out of config files.
// A URL with a password must come from SF_DATABASE_URL or --db-url.
func validateNoCredentialsInConfig(configPath string) error {
	if configPath == "" {
		return nil
	}
	// Read the file alone so an environment override cannot mask it.
	fv := viper.New()
	fv.SetConfigFile(configPath)
	if err := fv.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	u, err := url.Parse(fv.GetString("database.url"))
	if err != nil || u.User == nil {
		return nil
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		return fmt.Errorf("database passwords not allowed in config files (use SF_DATABASE_URL environment variable)")
	}
	return nil
}
