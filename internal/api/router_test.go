package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"family_ledger/internal/app/service"
	"family_ledger/internal/app/session"
	"family_ledger/internal/common/security"
	"family_ledger/internal/domain/repository"
	"family_ledger/internal/platform/config"

	_ "modernc.org/sqlite"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	config.AppConfig = &config.Config{
		JWTKey:               []byte("test-secret"),
		JWTExp:               time.Hour,
		AdminManagesUsers:    true,
		BlockDeleteWithDebts: true,
	}
	security.InitJWT()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := repository.Migrate(context.Background(), db, "sqlite"); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	userRepo := repository.NewSqliteUserRepository(db)
	debtRepo := repository.NewSqliteDebtRepository(db)
	sessions := session.NewMemoryStore()

	return NewRouter(
		service.NewAuthService(userRepo, sessions),
		service.NewDebtService(debtRepo),
		service.NewUserService(userRepo, debtRepo, sessions),
		sessions,
		"",
	)
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()

	rec := doRequest(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d %s", username, rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Token
}

func TestLoginEndpoint(t *testing.T) {
	router := newTestRouter(t)

	t.Run("seeded owner", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/login", "", map[string]string{
			"username": "admin", "password": "admin123",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			Role     string `json:"role"`
			Token    string `json:"token"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ID != 1 || resp.Role != "owner" {
			t.Errorf("unexpected session %+v", resp)
		}
		if strings.Contains(rec.Body.String(), "password") {
			t.Errorf("credential material in response: %s", rec.Body.String())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/login", "", map[string]string{
			"username": "admin", "password": "wrong",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Неверный логин или пароль") {
			t.Errorf("unexpected error body: %s", rec.Body.String())
		}
	})

	t.Run("no token means no access", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/debts", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestDebtEndpoints(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "admin", "admin123")

	var debtID int64

	t.Run("create", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/debts", token, map[string]interface{}{
			"from_user": "A", "to_user": "B", "amount": 100, "paid": 30,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		var debt struct {
			ID        int64   `json:"id"`
			Remaining float64 `json:"remaining"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &debt); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if debt.Remaining != 70 {
			t.Errorf("remaining = %v, want 70", debt.Remaining)
		}
		debtID = debt.ID
	})

	t.Run("validation error surfaces as 400", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/debts", token, map[string]interface{}{
			"from_user": "", "to_user": "B", "amount": 5,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("list shows the created debt", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/debts", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"remaining":70`) {
			t.Errorf("remaining missing from %s", rec.Body.String())
		}
	})

	t.Run("update preserves created_at", func(t *testing.T) {
		get := doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/debts/%d", debtID), token, nil)
		var before struct {
			CreatedAt time.Time `json:"created_at"`
		}
		if err := json.Unmarshal(get.Body.Bytes(), &before); err != nil {
			t.Fatalf("decode response: %v", err)
		}

		rec := doRequest(t, router, http.MethodPut, fmt.Sprintf("/api/debts/%d", debtID), token, map[string]interface{}{
			"from_user": "A", "to_user": "B", "amount": 100, "paid": 100,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var after struct {
			ID        int64     `json:"id"`
			CreatedAt time.Time `json:"created_at"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if after.ID != debtID || !after.CreatedAt.Equal(before.CreatedAt) {
			t.Errorf("identity not preserved: %+v vs %+v", after, before)
		}
	})

	t.Run("delete then 404", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/debts/%d", debtID), token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		rec = doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/debts/%d", debtID), token, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("bad id is 400", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/debts/abc", token, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestRoleGating(t *testing.T) {
	router := newTestRouter(t)
	ownerToken := login(t, router, "admin", "admin123")

	// Create a plain user and sign in as them.
	rec := doRequest(t, router, http.MethodPost, "/api/users", ownerToken, map[string]string{
		"username": "vanya", "password": "pw12345", "role": "user",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user failed: %d %s", rec.Code, rec.Body.String())
	}
	userToken := login(t, router, "vanya", "pw12345")

	t.Run("plain user may read debts", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/debts", userToken, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("plain user may not mutate debts", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/debts", userToken, map[string]interface{}{
			"from_user": "A", "to_user": "B", "amount": 1,
		})
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("plain user may not see user management", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/users", userToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("bootstrap account cannot be deleted", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/api/users/1", ownerToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("listed users never include passwords", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/users", ownerToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "password") || strings.Contains(rec.Body.String(), "$2a$") {
			t.Errorf("credential material in listing: %s", rec.Body.String())
		}
	})
}

func TestSelfDowngradeTakesEffectImmediately(t *testing.T) {
	router := newTestRouter(t)
	ownerToken := login(t, router, "admin", "admin123")

	rec := doRequest(t, router, http.MethodPost, "/api/users", ownerToken, map[string]string{
		"username": "lena", "password": "pw12345", "role": "admin",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user failed: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	adminToken := login(t, router, "lena", "pw12345")

	// Admin-equivalent before the downgrade.
	if rec := doRequest(t, router, http.MethodGet, "/api/users", adminToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("pre-downgrade status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPut, fmt.Sprintf("/api/users/%d", created.ID), adminToken, map[string]string{
		"username": "lena", "role": "user",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("self-downgrade failed: %d %s", rec.Code, rec.Body.String())
	}

	// Same token, next request: the refreshed projection already applies.
	if rec := doRequest(t, router, http.MethodGet, "/api/users", adminToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("post-downgrade status = %d, want 403", rec.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "admin", "admin123")

	if rec := doRequest(t, router, http.MethodGet, "/api/session", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("session status = %d", rec.Code)
	}

	if rec := doRequest(t, router, http.MethodPost, "/api/logout", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}

	// The JWT is still well-formed but the session behind it is gone.
	if rec := doRequest(t, router, http.MethodGet, "/api/session", token, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("post-logout status = %d, want 401", rec.Code)
	}
}

func TestUserDeleteConflictOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "admin", "admin123")

	rec := doRequest(t, router, http.MethodPost, "/api/users", token, map[string]string{
		"username": "boris", "password": "pw12345",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user failed: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/debts", token, map[string]interface{}{
		"from_user": "boris", "to_user": "X", "amount": 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create debt failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), token, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 (%s)", rec.Code, rec.Body.String())
	}
}
