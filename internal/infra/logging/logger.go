package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Constants for log levels that match slog.Level values.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Type aliases for commonly used slog types.
type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

//nolint:gochecknoglobals
var levelNames = map[string]Level{
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
}

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// AppName is added to every record
	AppName string

	// Output is "stdout", "stderr", "discard" or a file path
	Output string `env:"OUTPUT" default:"stderr"`

	// Level is the minimum level ("debug", "info", "warn", "error")
	Level string `env:"LEVEL" default:"info"`

	// Filter overrides levels per logger ("svc.authsvc:debug,infra:warn")
	Filter string `env:"FILTER" default:""`

	// JSON switches from the console format to slog's JSON handler
	JSON bool `env:"JSON" default:"false"`

	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	Group = slog.Group

	config     LoggerConfig
	configLock sync.Mutex
	outputLock = new(sync.Mutex)
)

// Configure sets the process-wide logging configuration.
// Loggers obtained before the call keep their old handler.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) {
	configure(cfg, appName)

	GetLogger("infra.logging").With(Group("config",
		"app", appName,
		"output", cfg.Output,
		"level", cfg.Level,
		"filter", cfg.Filter,
		"json", cfg.JSON,
	)).DebugContext(ctx, "logging configured")
}

func configure(cfg LoggerConfig, appName string) {
	configLock.Lock()
	defer configLock.Unlock()

	config = cfg
	config.AppName = appName

	if cfg.OutputHandle == nil {
		config.OutputHandle = openOutput(cfg.Output)
	}

	slog.SetLogLoggerLevel(parseLogLevel(config.Level, LevelInfo))
}

func openOutput(output string) io.Writer {
	switch output {
	case "", "discard":
		return io.Discard
	case "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		panic(fmt.Errorf("open log file: %w", err))
	}

	return file
}

// GetLogLogger adapts logger for APIs that want a *log.Logger, such as http.Server.ErrorLog.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), level)
}

// GetLogger returns a logger tagged with name. Until Configure is called
// with a real output every logger discards its records.
func GetLogger(name string) Logger {
	cfg := snapshot()

	if cfg.OutputHandle == nil || cfg.OutputHandle == io.Discard {
		return NewNopLogger()
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLogLevel(cfg.Level, LevelInfo))

	var handler slog.Handler

	if cfg.JSON {
		//nolint:exhaustruct
		handler = slog.NewJSONHandler(cfg.OutputHandle, &slog.HandlerOptions{
			AddSource: true,
			Level:     levelVar,
		})
	} else {
		//nolint:exhaustruct
		handler = &ConsoleHandler{
			Output:    cfg.OutputHandle,
			Level:     levelVar,
			PkgLevels: cfg.pkgLevels(),
			mu:        outputLock,
		}
	}

	logger := slog.New(NewTracingHandler(handler))

	if cfg.AppName != "" {
		logger = logger.With("app", cfg.AppName)
	}

	return logger.With("logger", name)
}

func snapshot() LoggerConfig {
	configLock.Lock()
	defer configLock.Unlock()

	return config
}

func (cfg LoggerConfig) pkgLevels() map[string]slog.Level {
	levels := make(map[string]slog.Level)

	for _, entry := range strings.Split(cfg.Filter, ",") {
		name, level, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}

		levels[strings.TrimSpace(name)] = parseLogLevel(level, LevelDebug)
	}

	return levels
}

func parseLogLevel(s string, fallback Level) Level {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return fallback
	}

	return level
}
