package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"telenonym/internal/telegram"

	"go.uber.org/zap"
)

const testBotToken = "1234567890:TEST-TOKEN"

func signedHeader(t *testing.T, bridge *telegram.Bridge, userJSON string) string {
	t.Helper()

	values := url.Values{}
	values.Set("user", userJSON)
	values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
	values.Set("hash", bridge.Sign(values))
	return values.Encode()
}

func echoUserHandler(t *testing.T, gotID *int64) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			t.Error("User missing from context")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		*gotID = user.ID
		w.WriteHeader(http.StatusOK)
	})
}

func TestTelegramAuthValidInitData(t *testing.T) {
	bridge := telegram.NewBridge(testBotToken, 0)
	var gotID int64
	handler := TelegramAuthMiddleware(bridge, false, zap.NewNop())(echoUserHandler(t, &gotID))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(InitDataHeader, signedHeader(t, bridge, `{"id":987654321,"first_name":"Alice"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if gotID != 987654321 {
		t.Errorf("Expected user 987654321 in context, got %d", gotID)
	}
}

func TestTelegramAuthMissingInitDataInProduction(t *testing.T) {
	bridge := telegram.NewBridge(testBotToken, 0)
	handler := TelegramAuthMiddleware(bridge, false, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not run without init data")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestTelegramAuthInvalidSignatureInProduction(t *testing.T) {
	bridge := telegram.NewBridge(testBotToken, 0)
	handler := TelegramAuthMiddleware(bridge, false, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not run with a bad signature")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(InitDataHeader, "user=%7B%22id%22%3A1%7D&auth_date=1700000000&hash=deadbeef")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestTelegramAuthDevelopmentFallback(t *testing.T) {
	bridge := telegram.NewBridge(testBotToken, 0)
	var gotID int64
	handler := TelegramAuthMiddleware(bridge, true, zap.NewNop())(echoUserHandler(t, &gotID))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with dev fallback, got %d", rec.Code)
	}
	if gotID != telegram.TestUser().ID {
		t.Errorf("Expected the synthetic test identity, got %d", gotID)
	}
}
