package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"irrigation-predictor/internal/common"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	Port               int
	ModelPath          string
	DataPath           string
	LogLevel           string
	LogFormat          string
	PythonPath         string
	InferenceTimeout   time.Duration
	SerializeInference bool
	MetricsEnabled     bool
	ShutdownTimeout    time.Duration
}

type ConfigFile struct {
	Server struct {
		Port            int    `yaml:"port"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
		MetricsEnabled  *bool  `yaml:"metricsEnabled"`
	} `yaml:"server"`

	Model struct {
		Path               string `yaml:"path"`
		PythonPath         string `yaml:"pythonPath"`
		InferenceTimeout   string `yaml:"inferenceTimeout"`
		SerializeInference bool   `yaml:"serializeInference"`
	} `yaml:"model"`

	Storage struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"storage"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func Load() (Settings, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

// ListenAddr returns the host:port string for the HTTP server.
func (s Settings) ListenAddr() string {
	return fmt.Sprintf(":%d", s.Port)
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	inferenceTimeout, err := time.ParseDuration(config.Model.InferenceTimeout)
	if err != nil {
		inferenceTimeout = common.DefaultInferenceTimeout
	}

	shutdownTimeout, err := time.ParseDuration(config.Server.ShutdownTimeout)
	if err != nil {
		shutdownTimeout = common.DefaultShutdownTimeout
	}

	metricsEnabled := common.DefaultMetricsEnabled
	if config.Server.MetricsEnabled != nil {
		metricsEnabled = *config.Server.MetricsEnabled
	}

	port, err := resolvePort(config.Server.Port)
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		Port:               port,
		ModelPath:          getEnvOrDefault(common.EnvModelPath, orDefault(config.Model.Path, common.DefaultModelPath)),
		DataPath:           getEnvOrDefault(common.EnvDataPath, config.Storage.DataPath),
		LogLevel:           getEnvOrDefault(common.EnvLogLevel, orDefault(config.Logging.Level, common.DefaultLogLevel)),
		LogFormat:          getEnvOrDefault(common.EnvLogFormat, orDefault(config.Logging.Format, common.DefaultLogFormat)),
		PythonPath:         getEnvOrDefault(common.EnvPythonPath, config.Model.PythonPath),
		InferenceTimeout:   getDurationOrDefault(common.EnvInferenceTimeout, inferenceTimeout),
		SerializeInference: getBoolOrDefault(common.EnvSerializeInference, config.Model.SerializeInference),
		MetricsEnabled:     getBoolOrDefault(common.EnvMetricsEnabled, metricsEnabled),
		ShutdownTimeout:    getDurationOrDefault(common.EnvShutdownTimeout, shutdownTimeout),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	port, err := resolvePort(common.DefaultPort)
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		Port:               port,
		ModelPath:          getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		DataPath:           os.Getenv(common.EnvDataPath), // optional
		LogLevel:           getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:          getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
		PythonPath:         os.Getenv(common.EnvPythonPath),
		InferenceTimeout:   getDurationOrDefault(common.EnvInferenceTimeout, common.DefaultInferenceTimeout),
		SerializeInference: getBoolOrDefault(common.EnvSerializeInference, false),
		MetricsEnabled:     getBoolOrDefault(common.EnvMetricsEnabled, common.DefaultMetricsEnabled),
		ShutdownTimeout:    getDurationOrDefault(common.EnvShutdownTimeout, common.DefaultShutdownTimeout),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// resolvePort prefers PORT, then RENDER_PORT, then the given fallback.
// A set but unparsable value is an error rather than a silent default.
func resolvePort(fallback int) (int, error) {
	for _, key := range []string{common.EnvPort, common.EnvRenderPort} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %q", key, v)
		}
		return port, nil
	}
	if fallback == 0 {
		return common.DefaultPort, nil
	}
	return fallback, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// validateSettings rejects values the server cannot start with
func validateSettings(settings *Settings) error {
	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}

	if strings.TrimSpace(settings.ModelPath) == "" {
		return fmt.Errorf("model path cannot be empty")
	}

	if settings.InferenceTimeout < common.MinInferenceTimeout || settings.InferenceTimeout > common.MaxInferenceTimeout {
		return fmt.Errorf("inference timeout must be between %v and %v, got %v",
			common.MinInferenceTimeout, common.MaxInferenceTimeout, settings.InferenceTimeout)
	}
	if settings.ShutdownTimeout < common.MinShutdownTimeout || settings.ShutdownTimeout > common.MaxShutdownTimeout {
		return fmt.Errorf("shutdown timeout must be between %v and %v, got %v",
			common.MinShutdownTimeout, common.MaxShutdownTimeout, settings.ShutdownTimeout)
	}

	if _, err := zerolog.ParseLevel(settings.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
	}

	switch settings.LogFormat {
	case common.LogFormatConsole, common.LogFormatJSON:
	default:
		return fmt.Errorf("log format must be %q or %q, got %q", common.LogFormatConsole, common.LogFormatJSON, settings.LogFormat)
	}

	return nil
}
