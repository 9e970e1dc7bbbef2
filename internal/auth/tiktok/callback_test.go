package tiktok

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/cliprally/cliprally/internal/db/models"
	"github.com/cliprally/cliprally/internal/upstream"
)

func newCallbackTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := database.AutoMigrate(&models.LinkedAccount{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func callbackRequest(code, state string) *http.Request {
	q := url.Values{}
	if code != "" {
		q.Set("code", code)
	}
	if state != "" {
		q.Set("state", state)
	}
	return httptest.NewRequest(http.MethodGet, "/auth/tiktok/callback?"+q.Encode(), nil)
}

func TestHandleCallback_LinksAccountAndElectsPrimary(t *testing.T) {
	database := newCallbackTestDB(t)
	handler := HandleCallback(database, MockExchanger{}, upstream.MockAPI{})

	state := EncodeState(NewState("verifier-1", "user-42"))
	rec := httptest.NewRecorder()
	handler(rec, callbackRequest("good-code", state))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var account models.LinkedAccount
	if err := database.Where("user_id = ?", "user-42").First(&account).Error; err != nil {
		t.Fatalf("account not saved: %v", err)
	}
	if account.ExternalID != "mock-open-id" {
		t.Fatalf("unexpected external id: %s", account.ExternalID)
	}
	if !account.IsPrimary {
		t.Fatal("first linked account must be primary")
	}
	if account.ExpiresAt.IsZero() {
		t.Fatal("stored access token must carry an expiry")
	}
}

func TestHandleCallback_RelinkPreservesIDAndPrimary(t *testing.T) {
	database := newCallbackTestDB(t)
	handler := HandleCallback(database, MockExchanger{}, upstream.MockAPI{})
	state := EncodeState(NewState("verifier-1", "user-42"))

	rec := httptest.NewRecorder()
	handler(rec, callbackRequest("first-code", state))

	var before models.LinkedAccount
	if err := database.Where("user_id = ?", "user-42").First(&before).Error; err != nil {
		t.Fatalf("first link: %v", err)
	}

	rec = httptest.NewRecorder()
	handler(rec, callbackRequest("second-code", state))

	var accounts []models.LinkedAccount
	database.Where("user_id = ?", "user-42").Find(&accounts)
	if len(accounts) != 1 {
		t.Fatalf("relink created a duplicate row: %d", len(accounts))
	}
	if accounts[0].ID != before.ID {
		t.Fatalf("relink rotated the account UUID: %s != %s", accounts[0].ID, before.ID)
	}
	if accounts[0].AccessToken == before.AccessToken {
		t.Fatal("relink should persist the new token pair")
	}
	if !accounts[0].CreatedAt.Equal(before.CreatedAt) || accounts[0].CreatedAt.IsZero() {
		t.Fatalf("relink changed CreatedAt: before=%s after=%s", before.CreatedAt, accounts[0].CreatedAt)
	}
}

func TestHandleCallback_MissingCodeNoErrorIsError(t *testing.T) {
	database := newCallbackTestDB(t)
	handler := HandleCallback(database, MockExchanger{}, upstream.MockAPI{})

	rec := httptest.NewRecorder()
	handler(rec, callbackRequest("", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCallback_PlatformErrorParam(t *testing.T) {
	database := newCallbackTestDB(t)
	handler := HandleCallback(database, MockExchanger{}, upstream.MockAPI{})

	req := httptest.NewRequest(http.MethodGet, "/auth/tiktok/callback?error=access_denied", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCallback_CorruptStateStillExchanges(t *testing.T) {
	database := newCallbackTestDB(t)
	handler := HandleCallback(database, MockExchanger{}, upstream.MockAPI{})

	rec := httptest.NewRecorder()
	handler(rec, callbackRequest("good-code", "!!!garbage!!!"))
	if rec.Code != http.StatusOK {
		t.Fatalf("corrupt state must degrade, not abort: %d", rec.Code)
	}

	var account models.LinkedAccount
	if err := database.Where("user_id = ?", "local").First(&account).Error; err != nil {
		t.Fatalf("account not saved under fallback user: %v", err)
	}
}

func TestHandleCallback_BadCodeSurfacesExchangeFailure(t *testing.T) {
	database := newCallbackTestDB(t)
	handler := HandleCallback(database, MockExchanger{}, upstream.MockAPI{})

	state := EncodeState(NewState("verifier-1", "user-42"))
	rec := httptest.NewRecorder()
	handler(rec, callbackRequest("bad-code", state))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
