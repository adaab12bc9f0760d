package api

import (
	"net/http"

	"github.com/Mosical/pico-venti/internal/controller"
	"github.com/labstack/echo/v4"
)

func registerSnapshotEndpoints(rest *echo.Echo, ctl *controller.Controller) {
	group := rest.Group("/snapshot")

	group.GET("/", func(c echo.Context) error {
		snapshot := ctl.Snapshot()
		if snapshot == nil {
			// no cycle has completed yet
			return c.NoContent(http.StatusNoContent)
		}
		return c.JSONPretty(http.StatusOK, snapshot, indentationChar)
	})
}
