// Package router maps URLs onto handlers.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/handler"
)

// RegisterRoutes wires every endpoint onto the Echo instance.  The API
// is unauthenticated; ownership of holds and purchases is asserted by
// owner ids supplied in requests, and any real deployment puts an auth
// layer in front.
func RegisterRoutes(e *echo.Echo, browse *handler.BrowseHandler, res *handler.ReservationHandler, checkout *handler.CheckoutHandler, waitlist *handler.WaitlistHandler) {
    // Liveness probe for load balancers.
    e.GET("/healthz", handler.Health)

    v1 := e.Group("/v1")

    // Browse surface: cached listing and detail, live availability.
    v1.GET("/events", browse.ListEvents)
    v1.POST("/events", browse.CreateEvent)
    v1.GET("/events/:id", browse.GetEvent)
    v1.GET("/events/:id/availability", browse.Availability)

    // Seat state and holds.
    v1.GET("/seats/:id", res.GetSeat)
    v1.GET("/events/:id/seats", res.ListSeats)
    v1.POST("/holds", res.ClaimSeats)
    v1.GET("/holds/:id", res.GetHold)
    v1.DELETE("/holds/:id", res.ReleaseHold)
    // Operational: force the expired-hold sweep for one event.
    v1.POST("/events/:id/release-expired", res.ReleaseExpired)

    // Checkout.
    v1.POST("/purchases", checkout.Purchase)
    v1.GET("/purchases/:id", checkout.GetPurchase)
    v1.POST("/purchases/:id/cancel", checkout.Cancel)

    // Waitlist.
    v1.POST("/events/:id/waitlist", waitlist.Join)
}
