package doctor

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/bookmed-api/internal/model"
	"github.com/jwalitptl/bookmed-api/internal/service/directory"
	apperrors "github.com/jwalitptl/bookmed-api/pkg/errors"
	"github.com/jwalitptl/bookmed-api/pkg/httputil"
)

type Handler struct {
	svc *directory.Service
}

func NewHandler(svc *directory.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/doctors", h.ListDoctors)
	r.GET("/doctors/:id", h.GetDoctor)
	r.GET("/specializations", h.ListSpecializations)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	var filters model.DoctorFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid query parameters"))
		return
	}

	doctors, total, err := h.svc.FindDoctors(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPagination(c, doctors, filters.Page, filters.Limit, total)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NotFound("doctor not found"))
		return
	}

	doctor, err := h.svc.GetDoctor(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doctor)
}

func (h *Handler) ListSpecializations(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.svc.ListSpecializations(c.Request.Context()))
}
