package http

import (
	"time"

	"github.com/labstack/echo/v4"

	xutil "Sentinel/pkg/util"
)

// QueryInt reads an integer query param, falling back to def and clamping to [lo, hi].
func QueryInt(c echo.Context, name string, def, lo, hi int) int {
	return xutil.ClampInt(xutil.ParseIntDefault(c.QueryParam(name), def), lo, hi)
}

// QueryTime reads a time query param in any form util.ParseTime accepts.
func QueryTime(c echo.Context, name string, def time.Time) time.Time {
	return xutil.ParseTimeDefault(c.QueryParam(name), def)
}
