package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/basediff/basediff/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func BadRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func InternalError(c echo.Context, err error) error {
	slog.Error("internal error", slog.String("error", err.Error()))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// FromError maps a domain error kind to its response. No raw internal
// error ever crosses the boundary without a kind.
func FromError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error(), Kind: "not_found"})
	case errors.Is(err, domain.ErrMalformedInput):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "malformed_input"})
	case errors.Is(err, domain.ErrLimitExceeded):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "limit_exceeded"})
	case errors.Is(err, domain.ErrStorage):
		slog.Error("storage error", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "storage"})
	default:
		return InternalError(c, err)
	}
}
