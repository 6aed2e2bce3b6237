package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/service"
)

// WaitlistHandler lets users queue for sold-out events.
type WaitlistHandler struct {
    svc *service.WaitlistService
}

// NewWaitlistHandler constructs a WaitlistHandler.
func NewWaitlistHandler(svc *service.WaitlistService) *WaitlistHandler {
    if svc == nil {
        panic("nil service passed to NewWaitlistHandler")
    }
    return &WaitlistHandler{svc: svc}
}

// Join handles POST /v1/events/:id/waitlist.  One active entry per
// owner per event; joining twice is a conflict.  An optional
// section_id narrows the entry to one section.
func (h *WaitlistHandler) Join(c echo.Context) error {
    var body struct {
        OwnerID   string  `json:"owner_id"`
        Email     string  `json:"email"`
        SectionID *string `json:"section_id"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    entry, err := h.svc.Join(c.Request().Context(), c.Param("id"), body.OwnerID, body.Email, body.SectionID)
    if err != nil {
        return respondError(c, err)
    }
    resp := echo.Map{
        "entry_id":  entry.ID,
        "event_id":  entry.EventID,
        "owner_id":  entry.OwnerID,
        "joined_at": entry.JoinedAt.UTC().Format(time.RFC3339),
    }
    if entry.SectionID != nil {
        resp["section_id"] = *entry.SectionID
    }
    return c.JSON(http.StatusCreated, resp)
}
