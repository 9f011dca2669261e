// Package config has the run configuration for the pipeline
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment is the deployment environment of a run
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

// ParseEnvironment maps an ENV value, including long aliases, to an Environment
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}
	return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", value)
}

func (e Environment) String() string {
	return string(e)
}

// Code resolver collision policies
const (
	CodePolicyFirst = "first"
	CodePolicyLast  = "last"
)

// Config holds all run configuration
type Config struct {
	Env                  Environment
	LogLevel             string
	LogDir               string
	LogRetentionDays     int   // Number of days to keep log files
	MaxLogFileSize       int64 // Maximum log file size in bytes
	CodeBinderPath       string
	HierarchyPath        string
	ProcessedMappingPath string
	CodePolicy           string
	StrictDictionaries   bool // Abort when a dictionary file cannot be read
	MetricsFile          string
}

// LoadDotEnv loads a .env file from the working directory when one exists.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", string(EnvDevelopment)))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	cfg := &Config{
		Env:                  env,
		LogLevel:             getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:               getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionDays:     getIntEnvWithDefault("LOG_RETENTION_DAYS", 28),
		MaxLogFileSize:       getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		CodeBinderPath:       getEnvWithDefault("CODE_BINDER_PATH", "./ATC_binder_2024.csv"),
		HierarchyPath:        getEnvWithDefault("HIERARCHY_PATH", "./ATC_tree.csv"),
		ProcessedMappingPath: getEnvWithDefault("PROCESSED_MAPPING_PATH", "./drugnames_standardized_2_columns.csv"),
		CodePolicy:           strings.ToLower(getEnvWithDefault("CODE_POLICY", CodePolicyFirst)),
		StrictDictionaries:   getBoolEnvWithDefault("STRICT_DICTIONARIES", false),
		MetricsFile:          os.Getenv("METRICS_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks every configuration value. It is called again after CLI
// overrides are applied.
func (c *Config) Validate() error {
	if err := validateEnv(c.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateLogRetentionDays(c.LogRetentionDays); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_DAYS: %w", err)
	}

	if err := validateMaxLogFileSize(c.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateCodePolicy(c.CodePolicy); err != nil {
		return fmt.Errorf("invalid CODE_POLICY: %w", err)
	}

	if strings.TrimSpace(c.CodeBinderPath) == "" {
		return fmt.Errorf("invalid CODE_BINDER_PATH: path cannot be empty")
	}
	if strings.TrimSpace(c.HierarchyPath) == "" {
		return fmt.Errorf("invalid HIERARCHY_PATH: path cannot be empty")
	}
	if strings.TrimSpace(c.ProcessedMappingPath) == "" {
		return fmt.Errorf("invalid PROCESSED_MAPPING_PATH: path cannot be empty")
	}

	return nil
}

func validateEnv(env Environment) error {
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction, EnvTest:
		return nil
	}
	return fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", env)
}

func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

func validateLogRetentionDays(days int) error {
	if days <= 0 {
		return fmt.Errorf("LOG_RETENTION_DAYS must be positive, got: %d", days)
	}
	if days > 366 {
		return fmt.Errorf("LOG_RETENTION_DAYS is too large (max 366 days), got: %d", days)
	}
	return nil
}

func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}

	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

func validateCodePolicy(policy string) error {
	if policy != CodePolicyFirst && policy != CodePolicyLast {
		return fmt.Errorf("CODE_POLICY must be %q or %q, got: %s", CodePolicyFirst, CodePolicyLast, policy)
	}
	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_DAYS",
		"MAX_LOG_FILE_SIZE",
		"CODE_BINDER_PATH",
		"HIERARCHY_PATH",
		"PROCESSED_MAPPING_PATH",
		"CODE_POLICY",
		"STRICT_DICTIONARIES",
		"METRICS_FILE",
	}
}
