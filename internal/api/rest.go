package api

import (
	"net/http"

	"github.com/Mosical/pico-venti/internal/controller"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	urlParamId      = "id"
	indentationChar = "  "
)

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
)

// ReloadFunc triggers a configuration reload; it returns an error when
// the new configuration is rejected and the running one is kept.
type ReloadFunc func() error

func CreateRestService(ctl *controller.Controller, reload ReloadFunc) *echo.Echo {
	echoRest := echo.New()
	echoRest.HideBanner = true

	// Root level middleware
	echoRest.Pre(middleware.AddTrailingSlash())

	echoRest.Use(middleware.Secure())
	echoRest.Use(middleware.Recover())
	echoRest.Use(echoprometheus.NewMiddleware("pico_venti_api"))

	echoRest.GET("/alive/", isAlive)

	registerSensorEndpoints(echoRest)
	registerCurveEndpoints(echoRest)
	registerFanEndpoints(echoRest)
	registerSnapshotEndpoints(echoRest, ctl)
	registerConfigEndpoints(echoRest, reload)

	return echoRest
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// return a "not found" message
func returnNotFound(c echo.Context, id string) (err error) {
	return c.JSONPretty(http.StatusNotFound, &Result{
		Name:    "Not found",
		Message: "No item with id '" + id + "' found",
	}, indentationChar)
}

// return the error message of an error
func returnError(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusInternalServerError, &Result{
		Name:    "Unknown Error",
		Message: e.Error(),
	}, indentationChar)
}
