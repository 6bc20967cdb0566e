package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kubecostopt/costopt-backend/internal/types"
)

const dateLayout = "2006-01-02"

// apiError translates engine errors to the HTTP surface: unknown
// resources map to 404, bad transitions to 409 and telemetry outages
// to 503. Everything else is a plain 500.
func apiError(c echo.Context, err error) error {
	switch {
	case types.IsNotFound(err):
		return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": err.Error()})
	case types.IsInvalidState(err):
		return c.JSON(http.StatusConflict, echo.Map{"status": "error", "message": err.Error()})
	case types.IsUpstreamUnavailable(err):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "error", "message": err.Error()})
	default:
		log.Error("unhandled error serving request", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "internal error"})
	}
}

// ParseResolvedParam maps the optional ?resolved= query value onto the
// tri-state alert filter: nil when absent, otherwise the boolean.
func ParseResolvedParam(value string) (*bool, error) {
	switch value {
	case "":
		return nil, nil
	case "true":
		resolved := true
		return &resolved, nil
	case "false":
		resolved := false
		return &resolved, nil
	default:
		return nil, fmt.Errorf("invalid resolved value %q, expected true or false", value)
	}
}
