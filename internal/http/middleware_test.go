package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/club-scheduler/internal/application"
	"github.com/example/club-scheduler/internal/logging"
	"github.com/example/club-scheduler/internal/ratelimit"
)

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without valid tokens", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name           string
			header         string
			validatorErr   error
			expectedStatus int
		}{
			{
				name:           "missing credentials",
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "non bearer scheme",
				header:         "Basic abc",
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "invalid token",
				header:         "Bearer malformed",
				validatorErr:   application.ErrUnauthorized,
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "store failure",
				header:         "Bearer transient",
				validatorErr:   errors.New("database is locked"),
				expectedStatus: http.StatusInternalServerError,
			},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				if tc.header != "" {
					req.Header.Set("Authorization", tc.header)
				}
				recorder := httptest.NewRecorder()

				handler := RequireAuth(fakeTokenValidator{err: tc.validatorErr}, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatal("next handler should not be called when authentication fails")
				}))
				handler.ServeHTTP(recorder, req)

				if recorder.Code != tc.expectedStatus {
					t.Fatalf("expected status %d, got %d", tc.expectedStatus, recorder.Code)
				}
				body := decodeEnvelope(t, recorder)
				if body.Success {
					t.Fatal("expected success=false")
				}
				if body.Message == "" {
					t.Fatal("expected localized message")
				}
			})
		}
	})

	t.Run("attaches authenticated principal to request context", func(t *testing.T) {
		t.Parallel()

		principal := application.Principal{UserID: 7, Name: "Kim", IsAdmin: true, IsApproved: true}
		validator := fakeTokenValidator{principal: principal, expectToken: "valid-token"}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "bearer valid-token")
		recorder := httptest.NewRecorder()

		var captured application.Principal
		handler := RequireAuth(validator, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				t.Fatal("expected principal in request context")
			}
			captured = p
			w.WriteHeader(http.StatusOK)
		}))
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if captured != principal {
			t.Fatalf("expected principal %+v, got %+v", principal, captured)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("assigns a uuid request id", func(t *testing.T) {
		t.Parallel()

		var seen string
		handler := RequestLogger(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
			if logging.FromContext(r.Context()) == nil {
				t.Fatal("expected request scoped logger")
			}
			w.WriteHeader(http.StatusNoContent)
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

		header := recorder.Header().Get(RequestIDHeader)
		if header == "" || header != seen {
			t.Fatalf("expected header to match context id, got header=%q context=%q", header, seen)
		}
		if _, err := uuid.Parse(header); err != nil {
			t.Fatalf("expected uuid request id, got %q: %v", header, err)
		}
	})

	t.Run("echoes a caller supplied request id", func(t *testing.T) {
		t.Parallel()

		handler := RequestLogger(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "trace-123")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if got := recorder.Header().Get(RequestIDHeader); got != "trace-123" {
			t.Fatalf("expected echoed request id, got %q", got)
		}
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("returns 429 once the bucket is empty", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		limiter := ratelimit.NewMemoryLimiter(2, time.Minute, func() time.Time { return now })
		handler := RateLimit(limiter, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		statuses := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.RemoteAddr = "192.0.2.10:5000"
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)
			statuses = append(statuses, recorder.Code)
		}

		if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK || statuses[2] != http.StatusTooManyRequests {
			t.Fatalf("unexpected statuses %v", statuses)
		}

		other := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		other.RemoteAddr = "192.0.2.11:5000"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, other)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected a different client to be allowed, got %d", recorder.Code)
		}
	})

	t.Run("lets requests through when the limiter fails", func(t *testing.T) {
		t.Parallel()

		handler := RateLimit(failingLimiter{}, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
	})
}

type fakeTokenValidator struct {
	principal   application.Principal
	err         error
	expectToken string
}

func (f fakeTokenValidator) ValidateToken(ctx context.Context, token string) (application.Principal, error) {
	if f.err != nil {
		return application.Principal{}, f.err
	}
	if f.expectToken != "" && token != f.expectToken {
		return application.Principal{}, application.ErrUnauthorized
	}
	return f.principal, nil
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []fieldError    `json:"errors"`
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) testEnvelope {
	t.Helper()

	var body testEnvelope
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode envelope: %v (body=%q)", err, recorder.Body.String())
	}
	return body
}
