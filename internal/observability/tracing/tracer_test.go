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

package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates that a disabled provider hands out non-recording tracers.
// Scope: Unit Test
// Expected: Spans are not recording and Shutdown succeeds.
// Test Case ID: OBS-TR-01
func TestProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{Enabled: false, ServiceName: "internalize"})
	require.NoError(t, err)

	_, span := p.Tracer("internalize/loader").Start(ctx, "loader.Save")
	defer span.End()
	assert.False(t, span.IsRecording())
	assert.NoError(t, p.Shutdown(ctx))
}

// TestPurpose: Validates sampling rate clamping.
// Scope: Unit Test
// Expected: Rates outside (0, 1] fall back to 1.
// Test Case ID: OBS-TR-02
func TestSamplingRate(t *testing.T) {
	assert.Equal(t, 1.0, samplingRate(0))
	assert.Equal(t, 1.0, samplingRate(-0.5))
	assert.Equal(t, 1.0, samplingRate(2))
	assert.Equal(t, 0.25, samplingRate(0.25))
}
