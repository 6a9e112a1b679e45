package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"tradecore/internal/domain/actor"
)

func TestActor_ReadsHeaders(t *testing.T) {
	e := echo.New()
	var got actor.Actor
	e.Use(Actor())
	e.POST("/x", func(c echo.Context) error {
		got = ActorFrom(c)
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(HeaderUserName, " bob ")
	req.Header.Set(HeaderUserRole, "risk")
	e.ServeHTTP(httptest.NewRecorder(), req)

	if got.Name != "bob" || got.Role != "RISK" {
		t.Fatalf("actor = %+v", got)
	}
}

func TestActorFrom_EmptyWithoutMiddleware(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if a := ActorFrom(c); a.Name != "" || a.Require() == nil {
		t.Fatalf("expected empty actor, got %+v", a)
	}
}

func TestLoggerChain_WritesAccessLogAndContextLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	e := echo.New()
	e.Use(WithLogger(log), Actor(), AccessLog(log))
	e.GET("/x", func(c echo.Context) error {
		zerolog.Ctx(c.Request().Context()).Info().Msg("inside")
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "r-1")
	req.Header.Set(HeaderUserName, "alice")
	e.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{`"message":"inside"`, `"request_id":"r-1"`, `"actor":"alice"`, `"status":204`, `"message":"request"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}
