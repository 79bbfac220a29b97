package appointment

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/bookmed-api/internal/middleware"
	"github.com/jwalitptl/bookmed-api/internal/model"
	"github.com/jwalitptl/bookmed-api/internal/service/appointment"
	apperrors "github.com/jwalitptl/bookmed-api/pkg/errors"
	"github.com/jwalitptl/bookmed-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the appointment endpoints. Status mutations need
// an authenticated actor for the transition policy; reads and booking
// stay open like the rest of the API.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", auth.Authenticate(), h.UpdateAppointment)
		appointments.DELETE("/:id", auth.Authenticate(), h.CancelAppointment)
		appointments.GET("/doctor/:id", h.ListForDoctor)
		appointments.GET("/patient/:id", h.ListForPatient)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid request body"))
		return
	}

	apt, err := h.service.CreateAppointment(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, apt, "appointment booked successfully")
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NotFound("appointment not found"))
		return
	}

	apt, err := h.service.GetAppointment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NotFound("appointment not found"))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid request body"))
		return
	}

	apt, err := h.service.UpdateStatus(c.Request.Context(), id, middleware.CurrentActor(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NotFound("appointment not found"))
		return
	}

	apt, err := h.service.CancelAppointment(c.Request.Context(), id, middleware.CurrentActor(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

// ListAppointments is the global listing, narrowed by any combination of
// doctorId, patientId, status and date query parameters.
func (h *Handler) ListAppointments(c *gin.Context) {
	filters, err := bindListFilters(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if v := c.Query("doctorId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid doctor ID"))
			return
		}
		filters.DoctorID = id
	}

	if v := c.Query("patientId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid patient ID"))
			return
		}
		filters.PatientID = id
	}

	appointments, total, err := h.service.ListAppointments(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPagination(c, appointments, filters.Page, filters.Limit, total)
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NotFound("doctor not found"))
		return
	}

	filters, err := bindListFilters(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointments, total, err := h.service.ListForDoctor(c.Request.Context(), id, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPagination(c, appointments, filters.Page, filters.Limit, total)
}

func (h *Handler) ListForPatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NotFound("patient not found"))
		return
	}

	filters, err := bindListFilters(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointments, total, err := h.service.ListForPatient(c.Request.Context(), id, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPagination(c, appointments, filters.Page, filters.Limit, total)
}

func bindListFilters(c *gin.Context) (*model.AppointmentFilters, error) {
	var filters model.AppointmentFilters
	if err := c.ShouldBindQuery(&filters.PageRequest); err != nil {
		return nil, apperrors.Validation("invalid query parameters")
	}
	filters.Normalize()

	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
	}

	if dateStr := c.Query("date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, apperrors.Validation("invalid date format, expected YYYY-MM-DD")
		}
		filters.Date = &date
	}

	return &filters, nil
}
