package presenter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/trace"

	"github.com/folioworks/portfolio/internal/domain"
	"github.com/folioworks/portfolio/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

// Cached writes payload with an ETag derived from the encoded body and
// answers 304 when the client already holds it.
func Cached(c echo.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return InternalError(c, err)
	}

	etag := fmt.Sprintf(`"%016x"`, xxh3.Hash(body))
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set("ETag", etag)

	if match := c.Request().Header.Get("If-None-Match"); match != "" && match == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, body)
}

func BadRequest(c echo.Context, err error) error {
	slog.DebugContext(c.Request().Context(), "bad request", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.DebugContext(c.Request().Context(), "bad request", slog.String("error", msg), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

// TooManyRequests tells the client how long to wait before retrying.
func TooManyRequests(c echo.Context, retryAfterSeconds int) error {
	c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "Too many attempts. Try again later."})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func Conflict(c echo.Context, msg string) error {
	return c.JSON(http.StatusConflict, errorResponse{Error: msg})
}

func InternalError(c echo.Context, err error) error {
	ctx := c.Request().Context()
	trace.SpanFromContext(ctx).RecordError(err)
	slog.ErrorContext(
		ctx,
		"internal error",
		slog.String("error", err.Error()),
		slog.String("module", "rest"),
	)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
}

// Error maps domain and service errors to responses.
func Error(c echo.Context, err error) error {
	var limited *service.RateLimitedError
	switch {
	case errors.As(err, &limited):
		return TooManyRequests(c, limited.RetryAfterSeconds)
	case errors.Is(err, service.ErrInvalidPassword):
		return Unauthorized(c, "Invalid password")
	case errors.Is(err, domain.ErrNotFound):
		return NotFound(c, "Content not found")
	case errors.Is(err, domain.ErrConflict):
		return Conflict(c, "Content already exists")
	case errors.Is(err, domain.ErrInvalidInput):
		return BadRequest(c, err)
	case errors.Is(err, domain.ErrReadOnly):
		return c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: "Content source is read-only"})
	}
	return InternalError(c, err)
}
