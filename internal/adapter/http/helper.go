package http

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"tradecore/internal/adapter/middleware"
	"tradecore/internal/domain/actor"
)

// flexString accepts a JSON string, number or bool. Rule values arrive in all three shapes.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*s = ""
	case float64:
		*s = flexString(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*s = flexString(strconv.FormatBool(x))
	default:
		return fmt.Errorf("unsupported value %s", string(b))
	}
	return nil
}

func parseID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// requireActor writes 401 when the caller sent no identity.
func requireActor(c echo.Context) (actor.Actor, bool, error) {
	a := middleware.ActorFrom(c)
	if err := a.Require(); err != nil {
		return a, false, respondError(c, err)
	}
	return a, true, nil
}
