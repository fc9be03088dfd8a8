package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/infrastructure/db/memory"
)

var testCookie = SessionConfig{Cookie: "console_sid", MaxAge: time.Hour}

func TestSession_IssuesVisitorCookie(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var visitor string
	handler := Session(memory.NewStore(), testCookie, zerolog.Nop())(func(c echo.Context) error {
		visitor, _ = c.Get(KeyVisitor).(string)
		if SessionOf(c) == nil {
			t.Fatalf("session store not set")
		}
		if SessionOf(c).Snapshot().Authenticated() {
			t.Fatalf("fresh visitor should be anonymous")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if _, err := uuid.FromString(visitor); err != nil {
		t.Fatalf("visitor id is not a uuid: %q", visitor)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "console_sid" || cookies[0].Value != visitor {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
	if !cookies[0].HttpOnly || cookies[0].SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie should be HttpOnly and SameSite=Lax: %+v", cookies[0])
	}
}

func TestSession_RestoresPersistedSession(t *testing.T) {
	kv := memory.NewStore()
	visitor := uuid.Must(uuid.NewV4()).String()
	ctx := context.Background()
	_ = kv.Set(ctx, visitor+":user", `{"_id":"u1","rol":"admin","nombre":"Root"}`)
	_ = kv.Set(ctx, visitor+":token", "tok")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "console_sid", Value: visitor})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Session(kv, testCookie, zerolog.Nop())(func(c echo.Context) error {
		if got := c.Get(KeyVisitor); got != visitor {
			t.Fatalf("expected visitor %s, got %v", visitor, got)
		}
		id := SessionOf(c).Identity()
		if id == nil || id.Role != domain.RoleAdmin || SessionOf(c).Token() != "tok" {
			t.Fatalf("session not restored: %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestSession_ReplacesMalformedCookie(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "console_sid", Value: "../../etc"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Session(memory.NewStore(), testCookie, zerolog.Nop())(func(c echo.Context) error {
		if c.Get(KeyVisitor) == "../../etc" {
			t.Fatalf("malformed cookie must not be used as visitor id")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}
