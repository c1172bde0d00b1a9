// Copyright 2026 The Internalize Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Config holds the OTLP metrics pipeline configuration
type Config struct {
	Enabled bool
	// Endpoint is host:port of an OTLP/HTTP collector. Empty uses the
	// OTEL_EXPORTER_OTLP_* environment variables.
	Endpoint       string
	Insecure       bool
	ServiceName    string
	ServiceVersion string
	// Interval between pushes; zero uses the SDK default of one minute.
	Interval time.Duration
}

// Meter holds the OpenTelemetry loader instruments. They mirror the
// Prometheus collectors for deployments that collect metrics over OTLP.
type Meter struct {
	provider *sdkmetric.MeterProvider

	rows     metric.Int64Counter
	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

// New installs a global meter provider pushing to the OTLP endpoint and
// creates the loader instruments on it. A disabled config returns nil; the
// Recorder then only feeds Prometheus.
func New(ctx context.Context, cfg Config) (*Meter, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var opts []otlpmetrichttp.Option
	if cfg.Endpoint != "" {
		opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	m, err := newMeter(provider, cfg.ServiceName)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}
	m.provider = provider
	return m, nil
}

func newMeter(provider metric.MeterProvider, name string) (*Meter, error) {
	m := provider.Meter(name)

	rows, err := m.Int64Counter("internalize.loader.rows",
		metric.WithDescription("Workbook rows processed by the loader"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter internalize.loader.rows: %w", err)
	}
	runs, err := m.Int64Counter("internalize.loader.runs",
		metric.WithDescription("Loader runs by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter internalize.loader.runs: %w", err)
	}
	duration, err := m.Float64Histogram("internalize.loader.duration",
		metric.WithDescription("Duration of loader runs"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram internalize.loader.duration: %w", err)
	}

	return &Meter{rows: rows, runs: runs, duration: duration}, nil
}

func (m *Meter) recordLoad(ctx context.Context, created, failed int, d time.Duration, result string) {
	m.rows.Add(ctx, int64(created), metric.WithAttributes(attribute.String("outcome", OutcomeCreated)))
	m.rows.Add(ctx, int64(failed), metric.WithAttributes(attribute.String("outcome", OutcomeFailed)))
	m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	m.duration.Record(ctx, d.Seconds())
}

// Shutdown flushes pending measurements. It is safe on a nil Meter.
func (m *Meter) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
