// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jomarip/beach-resort-booking/internal/handler"
	"github.com/jomarip/beach-resort-booking/internal/middleware"
)

// Handlers collects every handler the router mounts.
type Handlers struct {
	Auth           *handler.AuthHandler
	Accommodations *handler.AccommodationHandler
	Availability   *handler.AvailabilityHandler
	Bookings       *handler.BookingHandler
	Rebookings     *handler.RebookingHandler
	Payments       *handler.PaymentHandler
	Refunds        *handler.RefundHandler
}

// RegisterPublic mounts unauthenticated routes: health, the cached
// accommodation catalogue, the rate-limited availability check and the
// public guest booking form.
func RegisterPublic(e *echo.Echo, h Handlers, rateLimit, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/accommodations", h.Accommodations.List, cache)
	e.GET("/v1/accommodations/:id", h.Accommodations.Get, cache)
	e.POST("/v1/availability/check", h.Availability.Check, rateLimit)
	e.POST("/v1/bookings", h.Bookings.CreateGuest, rateLimit)
}

// RegisterAuth mounts the session endpoints.  Register, login and
// refresh are open (rate limited); logout and the profile require a
// token.
func RegisterAuth(e *echo.Echo, h Handlers, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", rateLimit)
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)

	p := e.Group("/v1/auth", middleware.JWTAuth(jwtSecret))
	p.POST("/logout", h.Auth.Logout)
	p.GET("/me", h.Auth.Me)
}

// RegisterStaff mounts the front-desk surface: bookings, rebookings,
// payments and refunds.  All routes require the STAFF or ADMIN role.
func RegisterStaff(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin),
	)

	// ---- Bookings ----
	g.POST("/bookings", h.Bookings.CreateWalkIn)
	g.GET("/bookings", h.Bookings.List)
	g.GET("/bookings/:id", h.Bookings.Get)
	g.PUT("/bookings/:id", h.Bookings.Update)
	g.PATCH("/bookings/:id/status", h.Bookings.UpdateStatus)

	// ---- Rebookings ----
	g.POST("/bookings/:id/rebookings", h.Rebookings.Create)
	g.GET("/bookings/:id/rebookings", h.Rebookings.ListByBooking)
	g.GET("/rebookings/:id", h.Rebookings.Get)
	g.POST("/rebookings/:id/approve", h.Rebookings.Approve)
	g.POST("/rebookings/:id/complete", h.Rebookings.Complete)
	g.POST("/rebookings/:id/cancel", h.Rebookings.Cancel)

	// ---- Ledger ----
	g.POST("/bookings/:id/payments", h.Payments.Create)
	g.GET("/bookings/:id/payments", h.Payments.ListByBooking)
	g.DELETE("/payments/:id", h.Payments.Delete)
	g.POST("/payments/:id/refunds", h.Refunds.Create)
	g.PUT("/refunds/:id", h.Refunds.Update)
	g.DELETE("/refunds/:id", h.Refunds.Delete)
}

// RegisterAdmin mounts accommodation management and staff provisioning.
func RegisterAdmin(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)
	g.POST("/accommodations", h.Accommodations.Create)
	g.PUT("/accommodations/:id", h.Accommodations.Update)
	g.DELETE("/accommodations/:id", h.Accommodations.Delete)
	g.POST("/staff", h.Auth.CreateStaff)
}

// RegisterCustomer mounts the signed-in customer surface.
func RegisterCustomer(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group(
		"/v1/my",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleCustomer),
	)
	g.POST("/bookings", h.Bookings.CreateMine)
	g.GET("/bookings", h.Bookings.ListMine)
	g.GET("/bookings/:id", h.Bookings.GetMine)
	g.POST("/bookings/:id/rebookings", h.Rebookings.RequestMine)
}
