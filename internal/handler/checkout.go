package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// CheckoutHandler converts holds into purchases and cancels purchases.
type CheckoutHandler struct {
    svc *service.CheckoutService
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(svc *service.CheckoutService) *CheckoutHandler {
    if svc == nil {
        panic("nil service passed to NewCheckoutHandler")
    }
    return &CheckoutHandler{svc: svc}
}

func purchaseJSON(p *model.Purchase) echo.Map {
    return echo.Map{
        "purchase_id":       p.ID,
        "event_id":          p.EventID,
        "owner_id":          p.OwnerID,
        "seat_ids":          p.SeatIDs,
        "total_price_cents": p.TotalPriceCents,
        "status":            p.Status,
        "created_at":        p.CreatedAt.UTC().Format(time.RFC3339),
    }
}

// Purchase handles POST /v1/purchases.  The body names the hold and
// its owner; the price is computed at commit time from current section
// prices.  An expired hold yields 410, someone else's hold 403.
func (h *CheckoutHandler) Purchase(c echo.Context) error {
    var body struct {
        HoldID  string `json:"hold_id"`
        OwnerID string `json:"owner_id"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.HoldID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "hold_id is required"})
    }
    if body.OwnerID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner_id is required"})
    }
    purchase, err := h.svc.Purchase(c.Request().Context(), body.HoldID, body.OwnerID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, purchaseJSON(purchase))
}

// GetPurchase handles GET /v1/purchases/:id.
func (h *CheckoutHandler) GetPurchase(c echo.Context) error {
    purchase, err := h.svc.GetPurchase(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, purchaseJSON(purchase))
}

// Cancel handles POST /v1/purchases/:id/cancel.  Cancelling returns
// the seats to the pool and notifies the waitlist; cancelling twice is
// a conflict.
func (h *CheckoutHandler) Cancel(c echo.Context) error {
    released, err := h.svc.Cancel(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "status":            model.PurchaseCancelled,
        "released_seat_ids": released,
    })
}
