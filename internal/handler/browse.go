package handler

import (
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// BrowseHandler serves the read-heavy browse surface: event listings,
// event detail with conditional request support, per-section
// availability and event creation.
type BrowseHandler struct {
    svc       *service.BrowseService
    detailTTL time.Duration
}

// NewBrowseHandler constructs a BrowseHandler.  detailTTL drives the
// Cache-Control max-age on detail responses.
func NewBrowseHandler(svc *service.BrowseService, detailTTL time.Duration) *BrowseHandler {
    if svc == nil {
        panic("nil service passed to NewBrowseHandler")
    }
    if detailTTL <= 0 {
        detailTTL = 10 * time.Second
    }
    return &BrowseHandler{svc: svc, detailTTL: detailTTL}
}

// ListEvents handles GET /v1/events with optional category, venue_id,
// date_from, date_to and status filters.  X-Cache reports whether the
// response came from the listing cache.
func (h *BrowseHandler) ListEvents(c echo.Context) error {
    body, hit, err := h.svc.ListEvents(c.Request().Context(),
        c.QueryParam("category"),
        c.QueryParam("venue_id"),
        c.QueryParam("date_from"),
        c.QueryParam("date_to"),
        c.QueryParam("status"),
    )
    if err != nil {
        return respondError(c, err)
    }
    if hit {
        c.Response().Header().Set("X-Cache", "HIT")
    } else {
        c.Response().Header().Set("X-Cache", "MISS")
    }
    return c.JSONBlob(http.StatusOK, body)
}

// GetEvent handles GET /v1/events/:id.  The response carries an ETag
// over the mutable event fields; a matching If-None-Match yields 304
// without a body.
func (h *BrowseHandler) GetEvent(c echo.Context) error {
    body, etag, hit, err := h.svc.GetEventDetail(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    header := c.Response().Header()
    header.Set("ETag", etag)
    header.Set("Cache-Control", fmt.Sprintf("max-age=%d", int(h.detailTTL.Seconds())))
    if hit {
        header.Set("X-Cache", "HIT")
    } else {
        header.Set("X-Cache", "MISS")
    }
    if match := c.Request().Header.Get("If-None-Match"); match != "" && match == etag {
        return c.NoContent(http.StatusNotModified)
    }
    return c.JSONBlob(http.StatusOK, body)
}

// Availability handles GET /v1/events/:id/availability with live
// per-section counts; this path is never cached.
func (h *BrowseHandler) Availability(c echo.Context) error {
    sections, err := h.svc.Availability(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "event_id": c.Param("id"),
        "sections": sections,
    })
}

// CreateEvent handles POST /v1/events.
func (h *BrowseHandler) CreateEvent(c echo.Context) error {
    var body struct {
        Name     string `json:"name"`
        Category string `json:"category"`
        VenueID  string `json:"venue_id"`
        Date     string `json:"date"`
        Status   string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    date, err := time.Parse(time.RFC3339, body.Date)
    if err != nil {
        if date, err = time.Parse("2006-01-02", body.Date); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be RFC3339 or YYYY-MM-DD"})
        }
    }
    ev := &model.Event{
        Name:     body.Name,
        Category: body.Category,
        VenueID:  body.VenueID,
        Date:     date,
        Status:   body.Status,
    }
    created, err := h.svc.CreateEvent(c.Request().Context(), ev)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "event_id": created.ID,
        "name":     created.Name,
        "category": created.Category,
        "venue_id": created.VenueID,
        "date":     created.Date.UTC().Format(time.RFC3339),
        "status":   created.Status,
    })
}
