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

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

// TestPurpose: Validates the JSON logger and trace correlation.
// Scope: Unit Test
// Expected: Records carry the service name and, inside a span, its trace and span IDs.
// Test Case ID: LOG-01
func TestInitLogger_TraceContext(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	log := InitLogger(Config{Level: "debug", Format: "json", ServiceName: "internalize", Output: &buf})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	log.InfoContext(ctx, "row saved", Row(3), ClientID(7))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "row saved", rec["msg"])
	assert.Equal(t, "internalize", rec["service"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", rec["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", rec["span_id"])
	assert.Equal(t, float64(3), rec["row"])
	assert.Same(t, log, slog.Default())
}

// TestPurpose: Validates level parsing.
// Scope: Unit Test
// Expected: Known names map to their level; anything else is info.
// Test Case ID: LOG-02
func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

// TestPurpose: Validates that credential attributes are redacted.
// Scope: Unit Test
// Security: Device passwords read from workbooks never reach the log
// Expected: password and enable_password are written as [REDACTED].
// Test Case ID: LOG-03
func TestInitLogger_RedactsCredentials(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	log := InitLogger(Config{Format: "json", ServiceName: "internalize", Output: &buf})
	log.Info("row decoded", slog.String("password", "s3cret"), slog.String("enable_password", "en4ble"), slog.String("username", "admin"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "[REDACTED]", rec["password"])
	assert.Equal(t, "[REDACTED]", rec["enable_password"])
	assert.Equal(t, "admin", rec["username"])
	assert.NotContains(t, buf.String(), "s3cret")
}

// TestPurpose: Validates that the fan-out handler feeds every enabled sink.
// Scope: Unit Test
// Expected: A warn record reaches both sinks; a debug record only the debug sink.
// Test Case ID: LOG-04
func TestFanout(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := fanout{
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}
	log := slog.New(h).With(Component("loader"))

	log.Debug("resolving place")
	log.Warn("row failed")

	assert.Contains(t, debugBuf.String(), "resolving place")
	assert.Contains(t, debugBuf.String(), "row failed")
	assert.NotContains(t, warnBuf.String(), "resolving place")
	assert.Contains(t, warnBuf.String(), "component=loader")
}
