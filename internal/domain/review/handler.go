package review

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medibook/medibook/internal/domain/doctor"
	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/reviews", h.Submit, auth.RequireRole(auth.RolePatient))
	api.DELETE("/reviews/:id", h.Delete)
	api.GET("/doctors/:id/reviews", h.ListByDoctor)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return uid, nil
}

type submitRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Rating   int       `json:"rating"`
	Comment  string    `json:"comment"`
}

func (h *Handler) Submit(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rv, err := h.svc.Submit(c.Request().Context(), uid, req.DoctorID, req.Rating, req.Comment)
	switch {
	case errors.Is(err, doctor.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	case errors.Is(err, ErrAlreadyReviewed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rv)
}

func (h *Handler) Delete(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	role := auth.RoleFromContext(c.Request().Context())
	err = h.svc.Delete(c.Request().Context(), id, uid, role)
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "review not found")
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case err != nil:
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByDoctor(c.Request().Context(), doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
