package analytics

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the analytics routes on the given group, typically /api/v1.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/analytics/stats", h.stats)
}

func (h *Handler) stats(c echo.Context) error {
	agg, err := h.svc.Stats(c.Request().Context(), c.QueryParam("fromDate"), c.QueryParam("toDate"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRange):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNoData):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, agg)
}
