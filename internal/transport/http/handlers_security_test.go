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

package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// AUTH API INPUT VALIDATION TESTS
// Category: Auth API - Input Validation & HTTP Behavior
// Type: Unit Test (UT)
// =============================================================================

// TestPurpose: Validates that registration rejects a missing email before reaching the service.
// Scope: Unit Test
// Security: Input sanitization boundary check
// Expected: Returns HTTP 400 Bad Request naming the email field.
// Test Case ID: REG-02
func TestAuth_Register_EmptyEmail_ReturnsBadRequest(t *testing.T) {
	h := createMinimalHandler(t)

	body, _ := json.Marshal(RegisterRequest{Username: "alice", Password: "validPassword123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Register(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code, "REG-02: empty email should return 400")
	assert.Contains(t, w.Body.String(), "Email")
}

// TestPurpose: Validates that passwords below the minimum length (8 chars) are rejected.
// Scope: Unit Test
// Security: Password strength validation (prevents weak credentials)
// Expected: Returns HTTP 400 Bad Request for short passwords.
// Test Case ID: REG-04
func TestAuth_Register_WeakPassword_ReturnsBadRequest(t *testing.T) {
	h := createMinimalHandler(t)

	body, _ := json.Marshal(RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "short"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code, "REG-04: short password should return 400")
}

// TestPurpose: Validates that empty request bodies for login are rejected with 400 Bad Request.
// Scope: Unit Test
// Security: Request body parsing and validation
// Expected: Returns HTTP 400 Bad Request for empty bodies.
// Test Case ID: LGN-05
func TestAuth_Login_EmptyBody_ReturnsBadRequest(t *testing.T) {
	h := createMinimalHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte{}))
	w := httptest.NewRecorder()

	h.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code, "LGN-05: Empty body should return 400 Bad Request")
}

// TestPurpose: Validates that malformed JSON in the login request is rejected safely.
// Scope: Unit Test
// Security: JSON parsing safety (prevents parser exploits)
// Expected: Returns HTTP 400 Bad Request for malformed JSON.
// Test Case ID: LGN-06B
func TestAuth_Login_MalformedJSON_ReturnsBadRequest(t *testing.T) {
	h := createMinimalHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{invalid_json}`)))
	w := httptest.NewRecorder()

	h.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code, "LGN-06B: Malformed JSON should return 400 Bad Request")
}

// =============================================================================
// SECURITY TESTS - Error Message Safety
// Category: Security - Error Handling
// Type: Unit Test (UT)
// =============================================================================

// TestPurpose: Validates that error responses do not leak sensitive internal details (stack traces, paths).
// Scope: Unit Test
// Security: Information disclosure prevention (CWE-209)
// Expected: Response body does not contain patterns like "panic", "/home/", "goroutine", etc.
// Test Case ID: SEC-02
func TestSecurity_ErrorHandling_NoSensitiveDataIsLeaked(t *testing.T) {
	h := createMinimalHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{invalid}`)))
	w := httptest.NewRecorder()

	h.Login(w, req)

	body := strings.ToLower(w.Body.String())
	for _, pattern := range []string{"panic", "/users/", "/home/", "goroutine", "runtime.", ".go:", "stack trace"} {
		assert.NotContains(t, body, pattern, "SEC-02 SECURITY: Response should not contain '%s'", pattern)
	}
}

// TestPurpose: Validates that JSON responses include the application/json Content-Type header.
// Scope: Unit Test
// Security: Prevents MIME sniffing attacks
// Expected: Content-Type header contains "application/json".
// Test Case ID: SEC-10
func TestSecurity_Headers_JSONContentTypeIsSet(t *testing.T) {
	h := createMinimalHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.HealthCheck(w, req)

	assert.Contains(t, w.Header().Get("Content-Type"), "application/json",
		"SEC-10: JSON responses must have application/json content type")
}

// TestPurpose: Validates that the health check endpoint returns valid JSON with the expected structure.
// Scope: Unit Test
// Expected: Returns 200 OK with valid JSON structure {"status": "healthy"}.
// Test Case ID: SEC-05B
func TestSecurity_HealthCheck_ReturnsValidJSON(t *testing.T) {
	h := createMinimalHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.HealthCheck(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Health response should be valid JSON")
	assert.Equal(t, "healthy", resp["status"])
}

// TestPurpose: Validates that protected routes reject anonymous callers.
// Scope: Unit Test
// Security: Authentication boundary
// Expected: Every inventory route answers 401 without a session cookie.
// Test Case ID: SEC-11
func TestSecurity_ProtectedRoutes_RequireSession(t *testing.T) {
	h := createMinimalHandler(t)
	router := NewRouter(h, nil, time.Minute)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/v1/places"},
		{http.MethodGet, "/api/v1/cis"},
		{http.MethodPost, "/api/v1/cis/upload"},
		{http.MethodPost, "/api/v1/packs"},
		{http.MethodPost, "/api/v1/clients"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

// TestPurpose: Validates that state-changing requests need the CSRF header.
// Scope: Unit Test
// Security: CSRF protection
// Expected: POST without X-CSRF-Token is 403; GET passes through.
// Test Case ID: SEC-12
func TestSecurity_CSRFMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := CSRFMiddleware(next)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/places", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/places", nil)
	req.Header.Set("X-CSRF-Token", "1")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/places", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

// TestPurpose: Validates per-IP rate limiting.
// Scope: Unit Test
// Security: Brute-force and abuse mitigation
// Expected: Requests beyond the burst are answered with 429; other IPs are unaffected.
// Test Case ID: SEC-13
func TestSecurity_RateLimit(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RateLimitMiddleware(NewRateLimiter(0.001, 1))(next)

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))

	disabled := RateLimitMiddleware(NewRateLimiter(0, 0))(next)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		disabled.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func createMinimalHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(Services{}, SessionConfig{
		CookieName:     "session_id",
		CookiePath:     "/",
		CookieSecure:   true,
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	}, 1<<20)
}
