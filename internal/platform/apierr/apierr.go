// Package apierr translates service errors into HTTP responses.
package apierr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/store"
)

// ErrConflict marks results that were discarded because the state they were
// computed for changed while they were being fetched.
var ErrConflict = errors.New("conflict")

// ErrUpstream marks failures of a remote dependency.
var ErrUpstream = errors.New("upstream failure")

// From maps err to an *echo.HTTPError. notFound is the message used for
// store.ErrNotFound.
func From(err error, notFound string) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var fe form.Errors
	switch {
	case errors.As(err, &fe):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]any{"errors": fe})
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrUnknownField):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// Invalid returns a single-field validation error.
func Invalid(field, msg string) error {
	return form.Errors{field: msg}
}

// Handler is an echo.HTTPErrorHandler that logs server errors and writes
// nothing for requests whose context is already done.
func Handler(e *echo.Echo, logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Request().Context().Err() != nil {
			logger.Debug().Err(err).Str("path", c.Path()).Msg("request cancelled")
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		} else if he == nil {
			logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
