package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"tradecore/internal/domain/actor"
)

const (
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"

	actorKey = "actor"
)

// Actor reads the caller identity from headers. Missing headers yield an empty actor;
// operations that need one reject it themselves.
func Actor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a := actor.New(c.Request().Header.Get(HeaderUserName), c.Request().Header.Get(HeaderUserRole))
			c.Set(actorKey, a)
			if a.Name != "" {
				ctx := c.Request().Context()
				l := zerolog.Ctx(ctx).With().Str("actor", a.Name).Logger()
				c.SetRequest(c.Request().WithContext(l.WithContext(ctx)))
			}
			return next(c)
		}
	}
}

// ActorFrom returns the identity stored by Actor, or an empty one.
func ActorFrom(c echo.Context) actor.Actor {
	if a, ok := c.Get(actorKey).(actor.Actor); ok {
		return a
	}
	return actor.Actor{}
}
