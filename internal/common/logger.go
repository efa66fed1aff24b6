package common

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

const (
	ServiceName    = "rpgmaker-site"
	ServiceVersion = "1.0.0"
)

var (
	// Log is the app global logger
	Log = slog.New(tint.NewHandler(os.Stderr, nil))
)

// ParseLevel parses a log level name such as "debug" or "WARN".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return level, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// InitLogger initializes the app global logger. Records always go to stderr, and are also exported
// over OTLP when exporterEndpoint is set.
func InitLogger(serviceName, serviceVersion, serviceEnvironment, exporterEndpoint string, level slog.Level) (func(ctx context.Context) error, error) {

	var slogHandler slog.Handler = tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})

	shutdown := func(context.Context) error { return nil }

	if exporterEndpoint != "" {
		logExporter, err := otlploggrpc.New(context.Background(),
			otlploggrpc.WithEndpoint(exporterEndpoint),
			otlploggrpc.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("failed to otlploggrpc.New: %w", err)
		}

		lp := log.NewLoggerProvider(
			log.WithProcessor(
				log.NewBatchProcessor(logExporter),
			),
			log.WithResource(resource.NewWithAttributes(semconv.SchemaURL,
				semconv.ServiceNameKey.String(serviceName),
				semconv.ServiceVersionKey.String(serviceVersion),
				semconv.DeploymentEnvironmentNameKey.String(serviceEnvironment))),
		)

		slogHandler = slogmulti.Fanout(
			otelslog.NewHandler("github.com/somerandev/rpgmaker-site",
				otelslog.WithLoggerProvider(lp)),
			slogHandler,
		)
		shutdown = lp.Shutdown
	}

	Log = slog.New(slogHandler)
	slog.SetDefault(Log)

	return shutdown, nil
}
