package router

import (
	"github.com/labstack/echo/v4"

	"pasarbuku/internal/adapter/api/handler"
)

func SetupDevRouter(e *echo.Echo, devTokenHandler *handler.DevTokenHandler, environment string) {
	if environment != "development" {
		return
	}

	e.POST("/v1/dev/token", devTokenHandler.MintToken)
}
