package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/records-api/internal/handler"
	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/query"
	"github.com/jwalitptl/records-api/internal/service/patient"
	"github.com/jwalitptl/records-api/pkg/httputil"
)

type Handler struct {
	service patient.PatientService
}

func NewHandler(service patient.PatientService) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.CreatePatient)
		patients.GET("", h.ListPatients)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id", h.UpdatePatient)
		patients.DELETE("/:id", h.DeletePatient)
	}
}

type listParams struct {
	Skip      int    `form:"skip,default=0"`
	Limit     int    `form:"limit,default=50"`
	SortBy    string `form:"sort_by,default=id"`
	SortOrder string `form:"sort_order,default=asc"`
	Search    string `form:"search"`
}

func (p listParams) query() (query.PatientQuery, error) {
	w, err := query.NewWindow(p.Skip, p.Limit)
	if err != nil {
		return query.PatientQuery{}, err
	}
	sort, err := query.ParsePatientSortField(p.SortBy)
	if err != nil {
		return query.PatientQuery{}, err
	}
	dir, err := query.ParseDirection(p.SortOrder)
	if err != nil {
		return query.PatientQuery{}, err
	}
	return query.PatientQuery{Search: p.Search, Sort: sort, Direction: dir, Window: w}, nil
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.PatientCreate
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	patient, err := h.service.CreatePatient(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patient)
}

func (h *Handler) ListPatients(c *gin.Context) {
	var params listParams
	if err := handler.BindQuery(c, &params); err != nil {
		handler.Fail(c, err)
		return
	}

	q, err := params.query()
	if err != nil {
		handler.Fail(c, err)
		return
	}

	page, err := h.service.ListPatients(c.Request.Context(), q)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, page)
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	patient, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patient)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req model.PatientUpdate
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	patient, err := h.service.UpdatePatient(c.Request.Context(), id, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patient)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	if err := h.service.DeletePatient(c.Request.Context(), id); err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithMessage(c, handler.PatientDeleted)
}
