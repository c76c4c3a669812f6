package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"animerec.yaml",
	"animerec.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "ANIMEREC_CONFIG"

// EnvPrefix is the prefix of every animerec environment variable.
const EnvPrefix = "ANIMEREC_"

// legacyEnvMappings are the unprefixed variables the original deployment used.
var legacyEnvMappings = map[string]string{
	"groq_api_key": "completion.api_key",
	"model_name":   "completion.model",
}

// envMappings maps ANIMEREC_ variables, prefix stripped and lower-cased, to koanf paths.
var envMappings = map[string]string{
	"index_dir": "index.dir",

	"embedding_host":  "embedding.host",
	"embedding_model": "embedding.model",
	"embedding_token": "embedding.token",

	"completion_host": "completion.host",
	"api_key":         "completion.api_key",
	"model":           "completion.model",
	"temperature":     "completion.temperature",

	"chunk_size":      "build.chunk_size",
	"chunk_overlap":   "build.chunk_overlap",
	"batch_size":      "build.batch_size",
	"workers":         "build.workers",
	"max_attempts":    "build.max_attempts",
	"retry_delay":     "build.retry_delay",
	"report_interval": "build.report_interval",

	"k":                    "retrieval.k",
	"score_threshold":      "retrieval.score_threshold",
	"empty_context_answer": "retrieval.empty_context_answer",

	"log_level": "logging.level",
}

// Load builds a Config from defaults, the config file, and the environment.
// path names the config file; when empty, ConfigPathEnvVar and
// DefaultConfigPaths are searched and a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Unprefixed variables first so ANIMEREC_ ones override them.
	if err := k.Load(env.Provider("", ".", legacyEnvTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// legacyEnvTransformFunc maps GROQ_API_KEY and MODEL_NAME; every other variable is skipped.
func legacyEnvTransformFunc(key string) string {
	return legacyEnvMappings[strings.ToLower(key)]
}

// envTransformFunc maps ANIMEREC_ variables to koanf paths.
// Unknown variables map to "" and are skipped.
//
// Examples:
//   - ANIMEREC_INDEX_DIR -> index.dir
//   - ANIMEREC_API_KEY -> completion.api_key
//   - ANIMEREC_K -> retrieval.k
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envMappings[key]
}
