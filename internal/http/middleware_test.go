package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/rental-dashboard/internal/application"
)

type fakeSessionValidator struct {
	principal application.Principal
	err       error
	tokens    []string
}

func (v *fakeSessionValidator) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	v.tokens = append(v.tokens, token)
	if v.err != nil {
		return application.Principal{}, v.err
	}
	return v.principal, nil
}

func TestRequireSessionMissingToken(t *testing.T) {
	validator := &fakeSessionValidator{}
	handler := RequireSession(validator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler ran without a token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if len(validator.tokens) != 0 {
		t.Errorf("validator called with tokens %v, want none", validator.tokens)
	}
}

func TestRequireSessionRejections(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantErrorCode string
	}{
		{name: "expired", err: application.ErrSessionExpired, wantStatus: http.StatusUnauthorized, wantErrorCode: "AUTH_SESSION_EXPIRED"},
		{name: "revoked", err: application.ErrSessionRevoked, wantStatus: http.StatusUnauthorized, wantErrorCode: "AUTH_SESSION_REVOKED"},
		{name: "unknown token", err: application.ErrNotFound, wantStatus: http.StatusUnauthorized},
		{name: "backend failure", err: context.DeadlineExceeded, wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			validator := &fakeSessionValidator{err: tc.err}
			handler := RequireSession(validator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("next handler ran despite validation failure")
			}))

			req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
			req.Header.Set("Authorization", "Bearer token-1")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantErrorCode != "" {
				var resp errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if resp.ErrorCode != tc.wantErrorCode {
					t.Errorf("error_code = %q, want %q", resp.ErrorCode, tc.wantErrorCode)
				}
			}
		})
	}
}

func TestRequireSessionInjectsPrincipal(t *testing.T) {
	validator := &fakeSessionValidator{principal: application.Principal{OperatorID: "op-1", IsAdmin: true}}

	var seen application.Principal
	var seenOK bool
	handler := RequireSession(validator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, seenOK = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "token-5"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if !seenOK || seen.OperatorID != "op-1" || !seen.IsAdmin {
		t.Errorf("principal in context = %+v (ok=%v), want op-1 admin", seen, seenOK)
	}
	if len(validator.tokens) != 1 || validator.tokens[0] != "token-5" {
		t.Errorf("validator tokens = %v, want [token-5]", validator.tokens)
	}
}

func TestRequireSessionPrefersBearerHeaderOverCookie(t *testing.T) {
	validator := &fakeSessionValidator{principal: application.Principal{OperatorID: "op-1"}}
	handler := RequireSession(validator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if len(validator.tokens) != 1 || validator.tokens[0] != "header-token" {
		t.Errorf("validator tokens = %v, want [header-token]", validator.tokens)
	}
}

func TestRequestLoggerAttachesContextLogger(t *testing.T) {
	var hadLogger bool
	handler := RequestLogger(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hadLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if !hadLogger {
		t.Error("request scoped logger missing from context")
	}
}
