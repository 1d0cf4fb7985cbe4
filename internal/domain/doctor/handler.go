package doctor

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api, admin *echo.Group) {
	api.GET("/doctors", h.Search)
	api.GET("/doctors/:id", h.Get)
	api.GET("/doctors/:id/availability", h.CheckAvailability)

	doctorGroup := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctorGroup.POST("/doctors", h.CreateProfile)
	doctorGroup.GET("/doctors/me", h.GetOwn)
	doctorGroup.PUT("/doctors/me", h.UpdateSpeciality)
	doctorGroup.PUT("/doctors/me/schedule", h.UpdateSchedule)
	doctorGroup.POST("/doctors/me/leave", h.AddLeave)

	admin.PATCH("/doctors/:id/approve", h.Approve)
	admin.DELETE("/doctors/:id", h.Delete)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return uid, nil
}

type createProfileRequest struct {
	Speciality string       `json:"speciality"`
	Clocks     WeeklyClocks `json:"clocks"`
}

func (h *Handler) CreateProfile(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	var req createProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.CreateProfile(c.Request().Context(), uid, req.Speciality, req.Clocks)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// CheckAvailability answers whether a doctor's schedule admits a slot at
// ?date=YYYY-MM-DD&start=HH:mm. Existing bookings are not consulted; the
// booking endpoint remains the authority on slot conflicts.
func (h *Handler) CheckAvailability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be a YYYY-MM-DD value")
	}
	available, err := h.svc.CheckSlot(c.Request().Context(), id, date, c.QueryParam("start"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"available": available})
}

func (h *Handler) GetOwn(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetByUser(c.Request().Context(), uid)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor profile not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Search(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := SearchParams{Speciality: c.QueryParam("speciality")}
	if minRating := c.QueryParam("min_rating"); minRating != "" {
		r, err := strconv.ParseFloat(minRating, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid min_rating")
		}
		params.MinRating = r
	}

	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateSpecialityRequest struct {
	Speciality string `json:"speciality"`
}

func (h *Handler) UpdateSpeciality(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	var req updateSpecialityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.UpdateSpeciality(c.Request().Context(), uid, req.Speciality)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor profile not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

type updateScheduleRequest struct {
	Clocks WeeklyClocks `json:"clocks"`
}

func (h *Handler) UpdateSchedule(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	var req updateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.UpdateSchedule(c.Request().Context(), uid, req.Clocks)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor profile not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) AddLeave(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	var leave LeaveRange
	if err := c.Bind(&leave); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.AddLeave(c.Request().Context(), uid, leave)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor profile not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Approve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Approve(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "approved"})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
