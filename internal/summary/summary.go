// Package summary renders the textual summary of a patient's clinical notes.
package summary

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jwalitptl/records-api/internal/model"
)

const (
	NoNotes         = "No clinical notes available for this patient."
	timelineLayout  = "2006-01-02 15:04"
	secondsPerDay   = 24 * 60 * 60
	daysPerYear     = 365
	timelineHeading = "Clinical Timeline:"
)

// Age is whole years between dob and today using a fixed 365-day year.
// Both are taken as calendar dates.
func Age(dob model.Date, today time.Time) int {
	from := time.Date(dob.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
	to := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
	return floorDiv(int(to-from), daysPerYear)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Synthesize builds the summary for p, listing notes oldest first. The
// caller's slice is left in its original order.
func Synthesize(p *model.Patient, notes []*model.Note, today time.Time) model.Summary {
	info := fmt.Sprintf("Name: %s, Age: %d, MRN: %s", p.Name, Age(p.DateOfBirth, today), p.MedicalRecordNumber)

	if len(notes) == 0 {
		return model.Summary{PatientInfo: info, Summary: NoNotes}
	}

	ordered := slices.Clone(notes)
	slices.SortStableFunc(ordered, func(a, b *model.Note) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	plural := "s"
	if len(ordered) == 1 {
		plural = ""
	}

	lines := make([]string, 0, len(ordered)+3)
	lines = append(lines,
		fmt.Sprintf("Patient has %d clinical note%s.", len(ordered), plural),
		"",
		timelineHeading,
	)
	for _, n := range ordered {
		lines = append(lines, fmt.Sprintf("  %s (%s): %s", n.Timestamp.UTC().Format(timelineLayout), n.NoteType, n.Content))
	}

	return model.Summary{PatientInfo: info, Summary: strings.Join(lines, "\n")}
}
