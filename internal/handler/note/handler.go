package note

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/records-api/internal/handler"
	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/query"
	"github.com/jwalitptl/records-api/internal/service/note"
	"github.com/jwalitptl/records-api/pkg/errors"
	"github.com/jwalitptl/records-api/pkg/httputil"
)

// UploadRoute is the route template of the multipart upload endpoint.
const UploadRoute = "/patients/:id/notes/upload"

type Handler struct {
	service note.NoteService
}

func NewHandler(service note.NoteService) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients/:id")
	{
		patients.POST("/notes", h.CreateNote)
		patients.GET("/notes", h.ListNotes)
		patients.GET("/notes/:note_id", h.GetNote)
		patients.PUT("/notes/:note_id", h.UpdateNote)
		patients.DELETE("/notes/:note_id", h.DeleteNote)
		patients.POST("/notes/upload", h.UploadNote)
		patients.GET("/summary", h.GetSummary)
	}
}

type listParams struct {
	Skip      int    `form:"skip,default=0"`
	Limit     int    `form:"limit,default=50"`
	SortBy    string `form:"sort_by,default=timestamp"`
	SortOrder string `form:"sort_order,default=desc"`
}

func (p listParams) query(patientID int64) (query.NoteQuery, error) {
	w, err := query.NewWindow(p.Skip, p.Limit)
	if err != nil {
		return query.NoteQuery{}, err
	}
	sort, err := query.ParseNoteSortField(p.SortBy)
	if err != nil {
		return query.NoteQuery{}, err
	}
	dir, err := query.ParseDirection(p.SortOrder)
	if err != nil {
		return query.NoteQuery{}, err
	}
	return query.NoteQuery{PatientID: patientID, Sort: sort, Direction: dir, Window: w}, nil
}

func ids(c *gin.Context) (int64, int64, error) {
	patientID, err := handler.ParseID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	noteID, err := handler.ParseID(c, "note_id")
	if err != nil {
		return 0, 0, err
	}
	return patientID, noteID, nil
}

func (h *Handler) CreateNote(c *gin.Context) {
	patientID, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req model.NoteCreate
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	n, err := h.service.CreateNote(c.Request.Context(), patientID, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, n)
}

// UploadNote reads the multipart "file" field as the note content. The note
// type comes from the note_type query parameter, or the form field of the
// same name.
func (h *Handler) UploadNote(c *gin.Context) {
	patientID, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		handler.Fail(c, errors.BadRequest("file: field required", err))
		return
	}

	f, err := fh.Open()
	if err != nil {
		handler.Fail(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		handler.Fail(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	noteType := c.Query("note_type")
	if noteType == "" {
		noteType = c.PostForm("note_type")
	}

	n, err := h.service.UploadNote(c.Request.Context(), patientID, content, noteType)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, n)
}

func (h *Handler) ListNotes(c *gin.Context) {
	patientID, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var params listParams
	if err := handler.BindQuery(c, &params); err != nil {
		handler.Fail(c, err)
		return
	}

	q, err := params.query(patientID)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	page, err := h.service.ListNotes(c.Request.Context(), q)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, page)
}

func (h *Handler) GetNote(c *gin.Context) {
	patientID, noteID, err := ids(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	n, err := h.service.GetNote(c.Request.Context(), patientID, noteID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, n)
}

func (h *Handler) UpdateNote(c *gin.Context) {
	patientID, noteID, err := ids(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req model.NoteUpdate
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	n, err := h.service.UpdateNote(c.Request.Context(), patientID, noteID, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, n)
}

func (h *Handler) DeleteNote(c *gin.Context) {
	patientID, noteID, err := ids(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	if err := h.service.DeleteNote(c.Request.Context(), patientID, noteID); err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithMessage(c, handler.NoteDeleted)
}

func (h *Handler) GetSummary(c *gin.Context) {
	patientID, err := handler.ParseID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	s, err := h.service.Summarize(c.Request.Context(), patientID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, s)
}
