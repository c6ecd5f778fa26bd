// Package telemetry exports traces, metrics, and logs from the sync core to
// an OTLP gRPC collector. The sync counters and spans recorded by the
// orchestrator stay no-ops unless [Setup] runs, so a device without a
// collector configured pays nothing.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// Config is the telemetry block of the app config, resolved by the caller.
type Config struct {
	// Endpoint is the gRPC host:port of the OTLP collector, e.g.
	// "localhost:4317".
	Endpoint string

	// Insecure disables TLS for the collector connection. Local collectors
	// without a certificate need this.
	Insecure bool

	// ServiceName overrides the service.name resource attribute. Defaults to
	// "petsync".
	ServiceName string

	// ServiceVersion is stamped onto every exported signal so collector-side
	// dashboards can split by app release.
	ServiceVersion string

	// Headers is attached as gRPC metadata to every export, typically an
	// Authorization bearer token.
	Headers map[string]string
}

// ShutdownFunc flushes pending telemetry and closes the collector
// connection. Call it with a fresh context; the run context is usually
// already cancelled by the time shutdown happens.
type ShutdownFunc func(context.Context) error

// Setup installs the global trace, metric, and log providers, all exporting
// over one shared gRPC connection to cfg.Endpoint. The returned ShutdownFunc
// is never nil, so callers can defer it unconditionally.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	res, err := buildResource(cfg)
	if err != nil {
		return noopShutdown, err
	}

	conn, err := dialCollector(cfg)
	if err != nil {
		return noopShutdown, err
	}

	// Providers shut down in reverse setup order, the connection last.
	var shutdowns []func(context.Context) error
	fail := func(err error) (ShutdownFunc, error) {
		for i := len(shutdowns) - 1; i >= 0; i-- {
			_ = shutdowns[i](ctx)
		}
		_ = conn.Close()
		return noopShutdown, err
	}

	tp, err := newTraceProvider(ctx, conn, res, cfg.Headers)
	if err != nil {
		return fail(err)
	}
	shutdowns = append(shutdowns, tp.Shutdown)
	otel.SetTracerProvider(tp)

	mp, err := newMeterProvider(ctx, conn, res, cfg.Headers)
	if err != nil {
		return fail(err)
	}
	shutdowns = append(shutdowns, mp.Shutdown)
	otel.SetMeterProvider(mp)

	lp, err := newLoggerProvider(ctx, conn, res, cfg.Headers)
	if err != nil {
		return fail(err)
	}
	shutdowns = append(shutdowns, lp.Shutdown)
	global.SetLoggerProvider(lp)

	return func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			if err := shutdowns[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing collector connection: %w", err))
		}
		return errors.Join(errs...)
	}, nil
}

// buildResource describes this petsync instance. Merging onto
// resource.Default keeps the SDK attributes without pinning their schema
// version to our semconv import.
func buildResource(cfg Config) (*resource.Resource, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "petsync"
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
		attribute.String("os.type", runtime.GOOS),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
	if err != nil {
		return nil, fmt.Errorf("describing telemetry resource: %w", err)
	}
	return res, nil
}

func dialCollector(cfg Config) (*grpc.ClientConn, error) {
	var creds credentials.TransportCredentials
	if cfg.Insecure {
		creds = insecure.NewCredentials()
	} else {
		creds = credentials.NewTLS(nil)
	}
	conn, err := grpc.NewClient(cfg.Endpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("dialling collector at %q: %w", cfg.Endpoint, err)
	}
	return conn, nil
}

func newTraceProvider(ctx context.Context, conn *grpc.ClientConn, res *resource.Resource, headers map[string]string) (*sdktrace.TracerProvider, error) {
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithGRPCConn(conn),
		otlptracegrpc.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}

func newMeterProvider(ctx context.Context, conn *grpc.ClientConn, res *resource.Resource, headers map[string]string) (*sdkmetric.MeterProvider, error) {
	exp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithGRPCConn(conn),
		otlpmetricgrpc.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	), nil
}

func newLoggerProvider(ctx context.Context, conn *grpc.ClientConn, res *resource.Resource, headers map[string]string) (*sdklog.LoggerProvider, error) {
	exp, err := otlploggrpc.New(ctx,
		otlploggrpc.WithGRPCConn(conn),
		otlploggrpc.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}
	return sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		sdklog.WithResource(res),
	), nil
}

func noopShutdown(context.Context) error { return nil }
