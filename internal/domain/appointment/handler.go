package appointment

import (
	"errors"
	"net/http"
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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Book, auth.RequireRole(auth.RolePatient))
	api.GET("/appointments/patient", h.ListOwn)
	api.GET("/appointments/doctor", h.ListForDoctor, auth.RequireRole(auth.RoleDoctor))
	api.GET("/appointments/:id", h.Get)
	api.PATCH("/appointments/:id/cancel", h.Cancel)
	api.PATCH("/appointments/:id/status", h.UpdateStatus, auth.RequireRole(auth.RoleDoctor))
}

// rejectResponse is the body returned for every booking-rule rejection.
type rejectResponse struct {
	Code    RejectCode `json:"code"`
	Message string     `json:"message"`
}

// respondErr translates a rejection into its HTTP shape and passes anything
// else through for the global error handler to turn into a 500.
func respondErr(c echo.Context, err error) error {
	var rej *RejectError
	if errors.As(err, &rej) {
		return c.JSON(rej.HTTPStatus(), rejectResponse{Code: rej.Code, Message: rej.Message})
	}
	return err
}

func callerID(c echo.Context) (uuid.UUID, error) {
	uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return uid, nil
}

type bookRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Start    string    `json:"start"`
	Notes    string    `json:"notes"`
}

func (h *Handler) Book(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	booking := BookingRequest{
		PatientID: uid,
		DoctorID:  req.DoctorID,
		Start:     req.Start,
		Notes:     req.Notes,
	}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, rejectResponse{
				Code:    CodeMissingDate,
				Message: "date must be a YYYY-MM-DD value",
			})
		}
		booking.Date = d
	}

	a, err := h.svc.Book(c.Request().Context(), booking)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	role := auth.RoleFromContext(c.Request().Context())
	a, err := h.svc.Get(c.Request().Context(), id, uid, role)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	role := auth.RoleFromContext(c.Request().Context())
	a, err := h.svc.Cancel(c.Request().Context(), id, uid, role)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), id, uid, req.Status)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListOwn(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForPatient(c.Request().Context(), uid, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListForDoctor(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForDoctorUser(c.Request().Context(), uid, pg.Limit, pg.Offset)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
