package utils

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"pasarbuku/pkg/errors"
)

const (
	defaultTake = 20
	maxTake     = 100
)

// CursorParams represents timestamp-cursor pagination parameters for
// message history queries: the newest `Take` messages strictly before
// `Before`, or the newest overall when `Before` is zero.
type CursorParams struct {
	Take   int
	Before time.Time
}

// GetCursorParams extracts `take` and `before` query parameters from a request.
// A malformed cursor is a client error, not something to silently ignore.
func GetCursorParams(c echo.Context) (CursorParams, error) {
	params := CursorParams{Take: defaultTake}

	if takeStr := c.QueryParam("take"); takeStr != "" {
		take, err := strconv.Atoi(takeStr)
		if err != nil || take <= 0 {
			return params, errors.BadRequest("take must be a positive integer", err)
		}
		if take > maxTake {
			take = maxTake
		}
		params.Take = take
	}

	if beforeStr := c.QueryParam("before"); beforeStr != "" {
		before, err := time.Parse(time.RFC3339, beforeStr)
		if err != nil {
			return params, errors.BadRequest("before must be an RFC3339 timestamp", err)
		}
		params.Before = before
	}

	return params, nil
}
