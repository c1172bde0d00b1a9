package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates case-insensitive business impact labels.
// Scope: Unit Test
// Expected: low/medium/high map to 0/1/2 in any case; unknown labels report absent.
// Test Case ID: INV-10
func TestParseBusinessImpact(t *testing.T) {
	tests := []struct {
		label string
		want  BusinessImpact
		ok    bool
	}{
		{"low", ImpactLow, true},
		{"Medium", ImpactMedium, true},
		{"high", ImpactHigh, true},
		{"High", ImpactHigh, true},
		{"HIGH", ImpactHigh, true},
		{" high ", ImpactHigh, true},
		{"critical", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseBusinessImpact(tt.label)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// TestPurpose: Validates the JSON form of business impact and status.
// Scope: Unit Test
// Expected: Both encode as lower-case names and decode from names or codes.
// Test Case ID: INV-11
func TestEnums_JSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Impact BusinessImpact `json:"impact"`
		Status Status         `json:"status"`
	}{ImpactMedium, StatusSent})
	require.NoError(t, err)
	assert.JSONEq(t, `{"impact":"medium","status":"sent"}`, string(out))

	var in struct {
		Impact BusinessImpact `json:"impact"`
		Status Status         `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"impact":"HIGH","status":"2"}`), &in))
	assert.Equal(t, ImpactHigh, in.Impact)
	assert.Equal(t, StatusApproved, in.Status)

	err = json.Unmarshal([]byte(`{"impact":"urgent"}`), &in)
	assert.True(t, errors.Is(err, ErrUnknownBusinessImpact), fmt.Sprint(err))
}

// TestPurpose: Validates status parsing from URL-style values.
// Scope: Unit Test
// Expected: Codes 0..2 and names parse; anything else fails with ErrUnknownStatus.
// Test Case ID: INV-12
func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{"0": StatusCreated, "1": StatusSent, "approved": StatusApproved} {
		got, err := ParseStatus(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseStatus("3")
	assert.ErrorIs(t, err, ErrUnknownStatus)
	_, err = ParseStatus("archived")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

// TestPurpose: Validates that every integrity error matches ErrIntegrity and keeps the driver message.
// Scope: Unit Test
// Expected: errors.Is holds through wrapping; unique violations are recognised.
// Test Case ID: INV-13
func TestIntegrityError(t *testing.T) {
	base := &IntegrityError{
		Code:       CodeUniqueViolation,
		Constraint: "unique_client_hostname_ip_description",
		Err:        errors.New(`duplicate key value violates unique constraint "unique_client_hostname_ip_description"`),
	}
	wrapped := fmt.Errorf("failed to create ci: %w", base)

	assert.ErrorIs(t, wrapped, ErrIntegrity)
	assert.True(t, IsUniqueViolation(wrapped))
	assert.Contains(t, wrapped.Error(), "unique constraint")
	assert.False(t, IsUniqueViolation(&IntegrityError{Code: CodeNotNullViolation}))
}
