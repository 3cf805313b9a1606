package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Bebenbaven/YTcommentGETer/internal/handlers"
)

func New(h *handlers.Handler) *echo.Echo {
	router := echo.New()
	router.HideBanner = true
	router.Use(middleware.Logger())
	router.Use(middleware.Recover())
	router.POST("/api/jobs", h.AddJob)
	router.POST("/api/score", h.Score)
	return router
}
