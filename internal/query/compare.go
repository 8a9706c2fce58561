package query

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/jwalitptl/records-api/internal/model"
)

var patientComparators = map[PatientSortField]func(a, b *model.Patient) int{
	PatientSortID: func(a, b *model.Patient) int { return cmp.Compare(a.ID, b.ID) },
	PatientSortName: func(a, b *model.Patient) int {
		return strings.Compare(a.Name, b.Name)
	},
	PatientSortDateOfBirth: func(a, b *model.Patient) int {
		return a.DateOfBirth.Compare(b.DateOfBirth.Time)
	},
	PatientSortMedicalRecordNumber: func(a, b *model.Patient) int {
		return strings.Compare(a.MedicalRecordNumber, b.MedicalRecordNumber)
	},
	PatientSortCreatedAt: func(a, b *model.Patient) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	},
}

var noteComparators = map[NoteSortField]func(a, b *model.Note) int{
	NoteSortID: func(a, b *model.Note) int { return cmp.Compare(a.ID, b.ID) },
	NoteSortTimestamp: func(a, b *model.Note) int {
		return a.Timestamp.Compare(b.Timestamp)
	},
	NoteSortCreatedAt: func(a, b *model.Note) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	},
	NoteSortUpdatedAt: func(a, b *model.Note) int {
		return compareNullable(a.UpdatedAt, b.UpdatedAt)
	},
	NoteSortNoteType: func(a, b *model.Note) int {
		return strings.Compare(a.NoteType, b.NoteType)
	},
}

// nil sorts before any value.
func compareNullable(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

func directed(c int, d Direction) int {
	if d == Descending {
		return -c
	}
	return c
}

// SortPatients orders ps in place by f and d, ties broken by id ascending.
func SortPatients(ps []*model.Patient, f PatientSortField, d Direction) {
	by, ok := patientComparators[f]
	if !ok {
		by = patientComparators[PatientSortID]
	}
	slices.SortFunc(ps, func(a, b *model.Patient) int {
		if c := directed(by(a, b), d); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortNotes orders ns in place by f and d, ties broken by id ascending.
func SortNotes(ns []*model.Note, f NoteSortField, d Direction) {
	by, ok := noteComparators[f]
	if !ok {
		by = noteComparators[NoteSortID]
	}
	slices.SortFunc(ns, func(a, b *model.Note) int {
		if c := directed(by(a, b), d); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// MatchesName reports whether name contains search, ignoring case. An
// empty search matches everything.
func MatchesName(name, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(search))
}
