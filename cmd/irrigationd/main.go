package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"irrigation-predictor/internal/api"
	"irrigation-predictor/internal/cfg"
	"irrigation-predictor/internal/common"
	"irrigation-predictor/internal/metrics"
	"irrigation-predictor/internal/ml"
	"irrigation-predictor/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c)
	logBuildInfo()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize components
	var mw *metrics.MetricsWrapper
	if c.MetricsEnabled {
		mw = metrics.NewWrapper(metrics.New())
	}

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	gateway := initializeGateway(c, mw)
	defer gateway.Close()

	opts := []api.Option{}
	if mw != nil {
		opts = append(opts, api.WithMetrics(mw), api.WithMetricsEndpoint(prometheus.DefaultGatherer))
	}
	if store != nil {
		opts = append(opts, api.WithAuditLog(store))
	}

	server := api.NewServer(api.Config{
		Addr:            c.ListenAddr(),
		ShutdownTimeout: c.ShutdownTimeout,
	}, gateway, opts...)

	go waitForShutdown(ctx, cancel)

	if err := server.Run(ctx); err != nil {
		log.Fatal().Err(err).Str("addr", c.ListenAddr()).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

// setupLogging applies the configured level and output format
func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if c.LogFormat == common.LogFormatConsole {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// logBuildInfo logs the Go runtime and the versions of linked modules
func logBuildInfo() {
	event := log.Info().Str("go_version", runtime.Version())
	info, ok := debug.ReadBuildInfo()
	if !ok {
		event.Msg("starting " + common.ServiceName)
		return
	}

	deps := zerolog.Dict()
	for _, dep := range info.Deps {
		deps.Str(dep.Path, dep.Version)
	}
	event.
		Str("module", info.Main.Path).
		Str("version", info.Main.Version).
		Dict("dependencies", deps).
		Msg("starting " + common.ServiceName)
}

// initializeStorage opens the audit log if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without audit log")
		return nil
	}
	log.Info().Str("data_path", c.DataPath).Msg("prediction audit log enabled")
	return store
}

// initializeGateway loads the model; a failed load yields a degraded gateway
func initializeGateway(c cfg.Settings, mw *metrics.MetricsWrapper) *ml.Gateway {
	opts := []ml.Option{
		ml.WithPythonPath(c.PythonPath),
		ml.WithInferenceTimeout(c.InferenceTimeout),
	}
	if mw != nil {
		opts = append(opts, ml.WithMetrics(mw))
	}
	if c.SerializeInference {
		opts = append(opts, ml.WithSerializedInference())
	}

	gateway := ml.Load(c.ModelPath, opts...)
	if !gateway.IsReady() {
		log.Warn().
			Err(gateway.LoadError()).
			Str("model_path", c.ModelPath).
			Msg("model not loaded; /predict will return 503")
	}
	return gateway
}

// waitForShutdown cancels ctx on SIGINT or SIGTERM
func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-ctx.Done():
	}
	cancel()
}
