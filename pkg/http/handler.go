package http

import "github.com/labstack/echo/v4"

// Handler registers its routes on an Echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// Handlers registers every handler in order.
type Handlers []Handler

func (hs Handlers) RegisterRoutes(e *echo.Echo) {
	for _, h := range hs {
		h.RegisterRoutes(e)
	}
}
