package handler

import (
    "errors"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/service"
)

// respondError maps service-layer errors onto HTTP responses so every
// handler reports failures the same way.  Unknown errors become a 500
// and are logged; the response body never leaks internals.
func respondError(c echo.Context, err error) error {
    var invalid *service.InvalidInputError
    if errors.As(err, &invalid) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": invalid.Msg})
    }
    var notFound *service.NotFoundError
    if errors.As(err, &notFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": notFound.Error()})
    }
    var conflict *service.ConflictError
    if errors.As(err, &conflict) {
        body := echo.Map{"error": conflict.Reason}
        if len(conflict.SeatIDs) > 0 {
            body["seat_ids"] = conflict.SeatIDs
        }
        return c.JSON(http.StatusConflict, body)
    }
    if errors.Is(err, service.ErrHoldExpired) {
        return c.JSON(http.StatusGone, echo.Map{"error": "hold has expired"})
    }
    if errors.Is(err, service.ErrForbidden) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    log.Printf("handler: internal error: %v", err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
