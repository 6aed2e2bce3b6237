package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// ReservationHandler exposes seat holds over HTTP: claiming seats,
// inspecting and releasing holds, and reading seat state.  Ownership
// is the caller-supplied owner id; authentication is out of scope and
// handled upstream when deployed.
type ReservationHandler struct {
    svc *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
    if svc == nil {
        panic("nil service passed to NewReservationHandler")
    }
    return &ReservationHandler{svc: svc}
}

func holdJSON(h *model.Hold) echo.Map {
    return echo.Map{
        "hold_id":    h.ID,
        "event_id":   h.EventID,
        "seat_ids":   h.SeatIDs,
        "owner_id":   h.OwnerID,
        "status":     h.Status,
        "expires_at": h.ExpiresAt.UTC().Format(time.RFC3339),
        "created_at": h.CreatedAt.UTC().Format(time.RFC3339),
    }
}

func seatJSON(s *model.Seat) echo.Map {
    m := echo.Map{
        "seat_id":     s.ID,
        "event_id":    s.EventID,
        "section_id":  s.SectionID,
        "row":         s.RowLabel,
        "seat_number": s.SeatNumber,
        "status":      s.Status,
    }
    if s.HoldID != nil {
        m["hold_id"] = *s.HoldID
    }
    if s.HoldExpiry != nil {
        m["hold_expiry"] = s.HoldExpiry.UTC().Format(time.RFC3339)
    }
    if s.PurchaseID != nil {
        m["purchase_id"] = *s.PurchaseID
    }
    return m
}

// ClaimSeats handles POST /v1/holds.  The body names the event, the
// seats and the owner; on success the seats are held for the
// configured duration and a 201 carries the hold.  Losing a claim race
// returns 409 with the seats that were lost.
func (h *ReservationHandler) ClaimSeats(c echo.Context) error {
    var body struct {
        EventID string   `json:"event_id"`
        SeatIDs []string `json:"seat_ids"`
        OwnerID string   `json:"owner_id"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    hold, err := h.svc.ClaimSeats(c.Request().Context(), body.EventID, body.SeatIDs, body.OwnerID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, holdJSON(hold))
}

// GetHold handles GET /v1/holds/:id.  A lapsed hold is expired on the
// way out and reported with status "expired".
func (h *ReservationHandler) GetHold(c echo.Context) error {
    hold, err := h.svc.GetHold(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, holdJSON(hold))
}

// ReleaseHold handles DELETE /v1/holds/:id.  The owner id comes from
// the owner_id query parameter or the X-Owner-ID header; releasing
// someone else's hold is forbidden.  Releasing a hold that already
// ended is a no-op success.
func (h *ReservationHandler) ReleaseHold(c echo.Context) error {
    owner := c.QueryParam("owner_id")
    if owner == "" {
        owner = c.Request().Header.Get("X-Owner-ID")
    }
    if strings.TrimSpace(owner) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner_id is required"})
    }
    released, err := h.svc.ReleaseHold(c.Request().Context(), c.Param("id"), owner)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"released_seat_ids": released})
}

// GetSeat handles GET /v1/seats/:id and always reflects lazy expiry:
// a seat under a lapsed hold reads back as available.
func (h *ReservationHandler) GetSeat(c echo.Context) error {
    seat, err := h.svc.GetSeat(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, seatJSON(seat))
}

// ListSeats handles GET /v1/events/:id/seats.
func (h *ReservationHandler) ListSeats(c echo.Context) error {
    seats, err := h.svc.ListSeats(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    out := make([]echo.Map, 0, len(seats))
    for i := range seats {
        out = append(out, seatJSON(&seats[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"seats": out, "count": len(out)})
}

// ReleaseExpired handles POST /v1/events/:id/release-expired, an
// operational endpoint forcing the expired-hold sweep for one event
// without waiting for the scheduled run.
func (h *ReservationHandler) ReleaseExpired(c echo.Context) error {
    released, err := h.svc.SweepExpired(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "released_seat_ids": released,
        "count":             len(released),
    })
}
