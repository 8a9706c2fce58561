package query

import (
	"fmt"
	"strings"
)

var patientColumns = map[PatientSortField]string{
	PatientSortID:                  "id",
	PatientSortName:                "name",
	PatientSortDateOfBirth:         "date_of_birth",
	PatientSortMedicalRecordNumber: "medical_record_number",
	PatientSortCreatedAt:           "created_at",
}

var noteColumns = map[NoteSortField]string{
	NoteSortID:        "id",
	NoteSortTimestamp: `"timestamp"`,
	NoteSortCreatedAt: "created_at",
	NoteSortUpdatedAt: "updated_at",
	NoteSortNoteType:  "note_type",
}

// Column returns the SQL column for f. Unknown fields map to id.
func (f PatientSortField) Column() string {
	if c, ok := patientColumns[f]; ok {
		return c
	}
	return "id"
}

// Column returns the SQL column for f. Unknown fields map to id.
func (f NoteSortField) Column() string {
	if c, ok := noteColumns[f]; ok {
		return c
	}
	return "id"
}

// OrderBy renders an ORDER BY list for column with an id tie-break. Nulls
// come first ascending and last descending, matching the in-memory order.
func OrderBy(column string, d Direction) string {
	if d == Descending {
		return fmt.Sprintf("%s DESC NULLS LAST, id ASC", column)
	}
	return fmt.Sprintf("%s ASC NULLS FIRST, id ASC", column)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern builds a substring pattern for ILIKE ... ESCAPE '\' in which
// the search term matches literally.
func LikePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

// LimitOffset renders the LIMIT/OFFSET clause for w, appending its values
// to args with placeholders numbered after the existing ones.
func (w Window) LimitOffset(args []interface{}) (string, []interface{}) {
	if w.all {
		args = append(args, w.Skip)
		return fmt.Sprintf(" OFFSET $%d", len(args)), args
	}
	args = append(args, w.Limit, w.Skip)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}
