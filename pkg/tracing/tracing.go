package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Config struct {
	// Exporter is "none" or "stdout".
	Exporter    string `yaml:"exporter" default:"none" validate:"oneof=none stdout"`
	ServiceName string `yaml:"service_name" default:"fincast"`
	// Output is stdout, stderr or a file path; used by the stdout exporter.
	Output string `yaml:"output" default:"stderr"`
}

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Init installs a global tracer provider. With the "none" exporter the
// global no-op provider stays in place and spans cost nothing.
func Init(ctx context.Context, cfg Config, environment string) (ShutdownFunc, error) {
	switch cfg.Exporter {
	case "", "none":
		return noop, nil
	case "stdout":
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}

	var (
		w       io.Writer
		closeFn func() error
	)
	switch cfg.Output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open trace output: %w", err)
		}
		w, closeFn = f, f.Close
	}

	tp, err := NewProvider(cfg.ServiceName, environment, w)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closeFn != nil {
			err = errors.Join(err, closeFn())
		}
		return err
	}, nil
}

// NewProvider builds a provider that writes finished spans as JSON to w.
func NewProvider(service, environment string, w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}
	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", service),
		attribute.String("deployment.environment", environment),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}
