package common

import "time"

// Environment variable keys
const (
	EnvConfigFile         = "CONFIG_FILE"
	EnvPort               = "PORT"
	EnvRenderPort         = "RENDER_PORT"
	EnvModelPath          = "MODEL_PATH"
	EnvDataPath           = "DATA_PATH"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFormat          = "LOG_FORMAT"
	EnvPythonPath         = "PYTHON_PATH"
	EnvInferenceTimeout   = "INFERENCE_TIMEOUT"
	EnvSerializeInference = "SERIALIZE_INFERENCE"
	EnvMetricsEnabled     = "METRICS_ENABLED"
	EnvShutdownTimeout    = "SHUTDOWN_TIMEOUT"
)

// Configuration defaults
const (
	DefaultPort             = 8000
	DefaultModelPath        = "models/irrigation_tree.json"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = LogFormatConsole
	DefaultInferenceTimeout = 5 * time.Second
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultMetricsEnabled   = true
)

// Log output formats
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// HTTP routes
const (
	RoutePredict   = "/predict"
	RouteHealth    = "/health"
	RouteRoot      = "/"
	RouteDocs      = "/docs"
	RouteModelInfo = "/model/info"
	RouteMetrics   = "/metrics"
)

// Validation constants
const (
	MinPort             = 1
	MaxPort             = 65535
	MinInferenceTimeout = 100 * time.Millisecond
	MaxInferenceTimeout = 5 * time.Minute
	MinShutdownTimeout  = time.Second
	MaxShutdownTimeout  = 2 * time.Minute
	MaxRequestBodyBytes = 1 << 20
)

// Service identity
const (
	ServiceName    = "Irrigation Prediction"
	WelcomeMessage = "Welcome to Mahiri Irrigation Prediction App!"
)
