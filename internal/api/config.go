package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerConfigEndpoints(rest *echo.Echo, reload ReloadFunc) {
	group := rest.Group("/config")

	group.POST("/reload/", func(c echo.Context) error {
		if err := reload(); err != nil {
			return returnError(c, err)
		}
		return c.JSONPretty(http.StatusOK, &Result{
			Name:    "Ok",
			Message: "Configuration reload scheduled",
		}, indentationChar)
	})
}
