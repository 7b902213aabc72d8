package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // echo provides routing

	"github.com/iliyamo/cinema-schedule-api/internal/handler" // handlers implement the catalog operations
)

// RegisterRoutes wires the health check and the movie and schedule resources.
func RegisterRoutes(e *echo.Echo, movies *handler.MovieHandler, schedules *handler.ScheduleHandler) {
	e.GET("/healthz", handler.Health)

	// /movies/page/:page keeps the page form apart from /movies/:id
	e.GET("/movies", movies.HandleList)
	e.GET("/movies/page/:page", movies.HandleList)
	e.POST("/movies", movies.HandleCreate)
	e.GET("/movies/:id", movies.HandleFind)
	e.PUT("/movies", movies.HandleModify)
	e.PUT("/movies/:id", movies.HandleModify)
	e.DELETE("/movies/:id", movies.HandleDelete)

	e.GET("/movies/:movieId/schedules", schedules.HandleList)
	e.GET("/movies/:movieId/schedules/:page", schedules.HandleList)
	e.POST("/schedules", schedules.HandleCreate)
	e.GET("/schedules/:id", schedules.HandleFind)
	e.PUT("/schedules", schedules.HandleModify)
	e.PUT("/schedules/:id", schedules.HandleModify)
	e.DELETE("/schedules/:id", schedules.HandleDelete)
}
