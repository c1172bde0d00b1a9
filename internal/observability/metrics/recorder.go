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
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "internalize"

// Row outcomes of a loader run
const (
	OutcomeCreated = "created"
	OutcomeFailed  = "failed"
)

// Recorder exposes application metrics on a private Prometheus registry and
// mirrors loader runs to the OpenTelemetry meter.
type Recorder struct {
	registry *prometheus.Registry

	rows         *prometheus.CounterVec
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	meter *Meter
}

// NewRecorder registers all collectors. meter may be nil.
func NewRecorder(meter *Meter) (*Recorder, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_rows_total",
			Help:      "Workbook rows processed by the loader",
		}, []string{"outcome"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_runs_total",
			Help:      "Loader runs by result",
		}, []string{"result"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loader_run_duration_seconds",
			Help:      "Duration of loader runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		meter: meter,
	}
	return r, nil
}

// ObserveLoad records one loader run.
func (r *Recorder) ObserveLoad(ctx context.Context, created, failed int, d time.Duration, aborted bool) {
	if r == nil {
		return
	}
	r.rows.WithLabelValues(OutcomeCreated).Add(float64(created))
	r.rows.WithLabelValues(OutcomeFailed).Add(float64(failed))
	result := "completed"
	if aborted {
		result = "aborted"
	}
	r.runs.WithLabelValues(result).Inc()
	r.runDuration.Observe(d.Seconds())

	if r.meter != nil {
		r.meter.recordLoad(ctx, created, failed, d, result)
	}
}

// ObserveHTTP records one HTTP request. route is the matched route pattern.
func (r *Recorder) ObserveHTTP(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

