// Package query holds the list-query vocabulary shared by the patient and
// note collections: enumerated sort keys, sort direction, the page window
// and the page metadata derived from a total.
package query

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/records-api/pkg/errors"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Ascending, Descending:
		return Direction(s), nil
	default:
		return "", errors.BadRequest("Invalid sort order. Use 'asc' or 'desc'", nil)
	}
}

type PatientSortField string

const (
	PatientSortID                  PatientSortField = "id"
	PatientSortName                PatientSortField = "name"
	PatientSortDateOfBirth         PatientSortField = "date_of_birth"
	PatientSortMedicalRecordNumber PatientSortField = "medical_record_number"
	PatientSortCreatedAt           PatientSortField = "created_at"
)

// PatientSortFields lists the allowed patient sort keys in display order.
var PatientSortFields = []PatientSortField{
	PatientSortID,
	PatientSortName,
	PatientSortDateOfBirth,
	PatientSortMedicalRecordNumber,
	PatientSortCreatedAt,
}

func ParsePatientSortField(s string) (PatientSortField, error) {
	for _, f := range PatientSortFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", invalidSortField(PatientSortFields)
}

type NoteSortField string

const (
	NoteSortID        NoteSortField = "id"
	NoteSortTimestamp NoteSortField = "timestamp"
	NoteSortCreatedAt NoteSortField = "created_at"
	NoteSortUpdatedAt NoteSortField = "updated_at"
	NoteSortNoteType  NoteSortField = "note_type"
)

// NoteSortFields lists the allowed note sort keys in display order.
var NoteSortFields = []NoteSortField{
	NoteSortID,
	NoteSortTimestamp,
	NoteSortCreatedAt,
	NoteSortUpdatedAt,
	NoteSortNoteType,
}

func ParseNoteSortField(s string) (NoteSortField, error) {
	for _, f := range NoteSortFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", invalidSortField(NoteSortFields)
}

func invalidSortField[T ~string](valid []T) error {
	names := make([]string, len(valid))
	for i, f := range valid {
		names[i] = string(f)
	}
	return errors.BadRequest(fmt.Sprintf("Invalid sort field. Valid fields: %s", strings.Join(names, ", ")), nil)
}

// Window selects a slice of an ordered result. The zero Window is not
// valid; use NewWindow or All.
type Window struct {
	Skip  int
	Limit int
	all   bool
}

func NewWindow(skip, limit int) (Window, error) {
	if skip < 0 {
		return Window{}, errors.BadRequest("skip must be greater than or equal to 0", nil)
	}
	if limit < 1 || limit > MaxLimit {
		return Window{}, errors.BadRequest(fmt.Sprintf("limit must be between 1 and %d", MaxLimit), nil)
	}
	return Window{Skip: skip, Limit: limit}, nil
}

// All is the unbounded window. It is not reachable from request parameters.
func All() Window {
	return Window{all: true}
}

func (w Window) Unbounded() bool {
	return w.all
}

// Bounds returns the [start, end) indexes of the window over n items.
func (w Window) Bounds(n int) (int, int) {
	start := w.Skip
	if start > n {
		start = n
	}
	if w.all {
		return start, n
	}
	end := start + w.Limit
	if end > n {
		end = n
	}
	return start, end
}

// Meta derives page metadata from the pre-pagination total.
type Meta struct {
	Page  int
	Size  int
	Pages int
}

func (w Window) Meta(total int) Meta {
	if w.all {
		pages := 1
		if total == 0 {
			pages = 0
		}
		return Meta{Page: 1, Size: total, Pages: pages}
	}
	return Meta{
		Page:  w.Skip/w.Limit + 1,
		Size:  w.Limit,
		Pages: (total + w.Limit - 1) / w.Limit,
	}
}

type PatientQuery struct {
	Search    string
	Sort      PatientSortField
	Direction Direction
	Window    Window
}

type NoteQuery struct {
	PatientID int64
	Sort      NoteSortField
	Direction Direction
	Window    Window
}
