package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nassets/internal/auth"
	"nassets/internal/budget"
	"nassets/internal/config"
	"nassets/internal/core"
	"nassets/internal/ledger"
	"nassets/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{
		Port:                   "0",
		JWTSecret:              "test-secret",
		TokenLifetime:          time.Hour,
		LoginRequestsPerMinute: 1000,
	}
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenLifetime)
	srv := NewServer(cfg, repo, ledger.NewService(repo, nil), budget.NewService(repo), tokens)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, rawurl, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, rawurl, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, rawurl, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func registerAndLogin(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()

	resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": "Str0ng!pass",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d, body %s", resp.StatusCode, data)
	}

	form := url.Values{"username": {username}, "password": {"Str0ng!pass"}}
	loginResp, err := http.Post(ts.URL+"/api/auth/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", loginResp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(loginResp.Body).Decode(&tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if tok.TokenType != "bearer" || tok.AccessToken == "" {
		t.Fatalf("token response: %+v", tok)
	}
	return tok.AccessToken
}

func TestRegisterLoginMe(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/api/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: status %d, body %s", resp.StatusCode, data)
	}
	var user core.User
	if err := json.Unmarshal(data, &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("username = %q, want alice", user.Username)
	}
	if strings.Contains(string(data), "hashed_password") {
		t.Error("response leaks the password hash")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ts := newTestServer(t)
	registerAndLogin(t, ts, "alice")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"username": "alice",
		"password": "Str0ng!pass",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate register: status %d, want 400", resp.StatusCode)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", map[string]string{
		"email":    "bob@example.com",
		"username": "bob",
		"password": "weak",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("weak password: status %d, want 422", resp.StatusCode)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	registerAndLogin(t, ts, "alice")

	form := url.Values{"username": {"alice"}, "password": {"Wrong!pass1"}}
	resp, err := http.Post(ts.URL+"/api/auth/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password login: status %d, want 401", resp.StatusCode)
	}
}

func TestProtectedRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/incomes", "/api/auth/me", "/api/budget/summary?year=2024&month=1"} {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status %d, want 401", path, resp.StatusCode)
		}
	}

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/incomes", "bogus-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET with bogus token: status %d, want 401", resp.StatusCode)
	}
}

func TestIncomeCRUD(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/incomes", token, map[string]any{
		"title":           "salary",
		"amount":          3000,
		"date":            "2024-01-01",
		"recurrence_type": "monthly",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create income: status %d, body %s", resp.StatusCode, data)
	}
	var created core.Income
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode income: %v", err)
	}
	if created.ID == 0 || created.Title != "salary" {
		t.Fatalf("created income: %+v", created)
	}

	resp, data = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/incomes/%d", ts.URL, created.ID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get income: status %d, body %s", resp.StatusCode, data)
	}

	resp, data = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/incomes/%d", ts.URL, created.ID), token, map[string]any{
		"amount": 3200,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update income: status %d, body %s", resp.StatusCode, data)
	}
	var updated core.Income
	if err := json.Unmarshal(data, &updated); err != nil {
		t.Fatalf("decode income: %v", err)
	}
	if updated.Amount != 3200 || updated.Title != "salary" {
		t.Errorf("patched income: %+v", updated)
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/incomes/%d", ts.URL, created.ID), token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete income: status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/incomes/%d", ts.URL, created.ID), token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted income: status %d, want 404", resp.StatusCode)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/expenses", token, map[string]any{
		"title":  "",
		"amount": 50,
		"date":   "2024-01-05",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("empty title: status %d, want 422", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/expenses", token, map[string]any{
		"title":  "groceries",
		"amount": -1,
		"date":   "2024-01-05",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("negative amount: status %d, want 422", resp.StatusCode)
	}
}

func TestSavingLedgerThroughAPI(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/assets", token, map[string]any{
		"name":        "house deposit",
		"amount":      20000,
		"contributed": 9999,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create asset: status %d, body %s", resp.StatusCode, data)
	}
	var asset core.Asset
	if err := json.Unmarshal(data, &asset); err != nil {
		t.Fatalf("decode asset: %v", err)
	}
	if asset.Contributed != 0 {
		t.Errorf("new asset contributed = %v, want 0 regardless of payload", asset.Contributed)
	}

	resp, data = doJSON(t, http.MethodPost, ts.URL+"/api/savings", token, map[string]any{
		"asset_id": asset.ID,
		"title":    "deposit",
		"amount":   500,
		"date":     "2024-01-15",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create saving: status %d, body %s", resp.StatusCode, data)
	}
	var sv core.Saving
	if err := json.Unmarshal(data, &sv); err != nil {
		t.Fatalf("decode saving: %v", err)
	}

	_, data = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/assets/%d", ts.URL, asset.ID), token, nil)
	if err := json.Unmarshal(data, &asset); err != nil {
		t.Fatalf("decode asset: %v", err)
	}
	if asset.Contributed != 500 {
		t.Errorf("contributed = %v, want 500 after linked saving", asset.Contributed)
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/savings/%d", ts.URL, sv.ID), token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete saving: status %d", resp.StatusCode)
	}
	_, data = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/assets/%d", ts.URL, asset.ID), token, nil)
	if err := json.Unmarshal(data, &asset); err != nil {
		t.Fatalf("decode asset: %v", err)
	}
	if asset.Contributed != 0 {
		t.Errorf("contributed = %v, want 0 after saving deleted", asset.Contributed)
	}
}

func TestSavingMissingAsset(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/savings", token, map[string]any{
		"asset_id": 9999,
		"title":    "deposit",
		"amount":   500,
		"date":     "2024-01-15",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("saving with missing asset: status %d, want 404", resp.StatusCode)
	}
}

func TestUserIsolation(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := registerAndLogin(t, ts, "alice")
	bobToken := registerAndLogin(t, ts, "bob")

	_, data := doJSON(t, http.MethodPost, ts.URL+"/api/expenses", aliceToken, map[string]any{
		"title":  "rent",
		"amount": 900,
		"date":   "2024-01-01",
	})
	var e core.Expense
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("decode expense: %v", err)
	}

	// Bob cannot see, modify or delete Alice's record; the response is
	// indistinguishable from a nonexistent id.
	resp, _ := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/expenses/%d", ts.URL, e.ID), bobToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cross-user get: status %d, want 404", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/expenses/%d", ts.URL, e.ID), bobToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cross-user delete: status %d, want 404", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/expenses/%d", ts.URL, e.ID), aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("owner get after cross-user delete attempt: status %d, want 200", resp.StatusCode)
	}
}

func TestBudgetSummaryEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	doJSON(t, http.MethodPost, ts.URL+"/api/incomes", token, map[string]any{
		"title": "salary", "amount": 3000, "date": "2024-01-01", "recurrence_type": "monthly",
	})
	doJSON(t, http.MethodPost, ts.URL+"/api/expenses", token, map[string]any{
		"title": "groceries", "amount": 50, "date": "2024-01-05", "recurrence_type": "weekly",
	})

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/api/budget/summary?year=2024&month=1", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: status %d, body %s", resp.StatusCode, data)
	}
	var sum struct {
		TotalIncome   float64                    `json:"total_income"`
		TotalExpenses float64                    `json:"total_expenses"`
		Remaining     float64                    `json:"remaining"`
		DailyBalance  map[string]json.RawMessage `json:"daily_balance"`
	}
	if err := json.Unmarshal(data, &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.TotalIncome != 3000 || sum.TotalExpenses != 200 || sum.Remaining != 2800 {
		t.Errorf("summary totals: %+v", sum)
	}
	if len(sum.DailyBalance) != 31 {
		t.Errorf("daily_balance has %d entries, want 31", len(sum.DailyBalance))
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/budget/summary?year=2024&month=13", token, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("summary month 13: status %d, want 422", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/budget/summary", token, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("summary without params: status %d, want 422", resp.StatusCode)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	doJSON(t, http.MethodPost, ts.URL+"/api/expenses", token, map[string]any{
		"title": "groceries", "amount": 50, "date": "2024-01-05", "recurrence_type": "weekly",
	})

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/api/calendar?year=2024&month=1", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("calendar: status %d, body %s", resp.StatusCode, data)
	}
	var cal struct {
		Expenses []struct {
			OccurrenceDate string `json:"occurrence_date"`
			IsRecurring    bool   `json:"is_recurring"`
		} `json:"expenses"`
		Incomes []any `json:"incomes"`
	}
	if err := json.Unmarshal(data, &cal); err != nil {
		t.Fatalf("decode calendar: %v", err)
	}
	if len(cal.Expenses) != 4 {
		t.Fatalf("calendar expenses: %d occurrences, want 4", len(cal.Expenses))
	}
	if cal.Expenses[0].OccurrenceDate != "2024-01-05" || !cal.Expenses[0].IsRecurring {
		t.Errorf("first occurrence: %+v", cal.Expenses[0])
	}
	if cal.Incomes == nil {
		t.Error("incomes must serialize as [] not null")
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health: status %d, body %s", resp.StatusCode, data)
	}
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("root: status %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("responses should carry a request id")
	}
}
