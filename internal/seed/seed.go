// Package seed loads the sample dataset used for demos and local testing.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
)

type sampleNote struct {
	at       time.Time
	content  string
	noteType string
}

type samplePatient struct {
	patient model.Patient
	notes   []sampleNote
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func samples() []samplePatient {
	return []samplePatient{
		{
			patient: model.Patient{Name: "John Doe", DateOfBirth: model.NewDate(1985, time.June, 15), MedicalRecordNumber: "MRN001"},
			notes: []sampleNote{
				{at(2024, time.January, 15, 10, 30), "Patient presented with chief complaint of persistent cough and mild fever for 3 days. No shortness of breath reported. Vital signs stable.", "admission"},
				{at(2024, time.January, 16, 14, 20), "Patient's condition improved. Cough reduced significantly. Temperature returned to normal. Discharge planned for tomorrow.", "progress"},
				{at(2024, time.January, 17, 9, 15), "Patient discharged with instructions to continue medication for 5 more days. Follow-up appointment scheduled in 2 weeks.", "discharge"},
			},
		},
		{
			patient: model.Patient{Name: "Jane Smith", DateOfBirth: model.NewDate(1990, time.November, 3), MedicalRecordNumber: "MRN002"},
			notes: []sampleNote{
				{at(2024, time.February, 10, 11, 45), "Routine checkup. Patient reports occasional headaches and fatigue. Blood pressure slightly elevated at 142/90.", "checkup"},
				{at(2024, time.February, 20, 16, 30), "Follow-up on blood pressure medication. Patient reports improvement in symptoms. Blood pressure now 130/85.", "follow-up"},
			},
		},
		{
			patient: model.Patient{Name: "Robert Johnson", DateOfBirth: model.NewDate(1978, time.March, 22), MedicalRecordNumber: "MRN003"},
			notes: []sampleNote{
				{at(2024, time.March, 5, 13, 10), "Patient admitted for observation after minor car accident. Conscious and alert. No visible injuries except minor bruising on left arm.", "admission"},
				{at(2024, time.March, 6, 10, 0), "Patient doing well. No complications observed. Discharged with recommendation for follow-up in 1 week to ensure no delayed symptoms.", "discharge"},
			},
		},
	}
}

// Result reports what Run inserted.
type Result struct {
	Patients int
	Notes    int
	Skipped  bool
}

// Run inserts the sample patients and notes in one transaction. It does
// nothing when any patient already exists.
func Run(ctx context.Context, store repository.Store, logger *zerolog.Logger) (Result, error) {
	var res Result

	err := store.WithTx(ctx, func(ctx context.Context) error {
		n, err := store.Patients().Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			res.Skipped = true
			return nil
		}

		for _, s := range samples() {
			p := s.patient
			if err := store.Patients().Create(ctx, &p); err != nil {
				return fmt.Errorf("failed to seed patient %s: %w", p.MedicalRecordNumber, err)
			}
			res.Patients++

			for _, sn := range s.notes {
				note := &model.Note{
					PatientID: p.ID,
					Timestamp: sn.at,
					Content:   sn.content,
					NoteType:  sn.noteType,
				}
				if err := store.Notes().Create(ctx, note); err != nil {
					return fmt.Errorf("failed to seed note for %s: %w", p.MedicalRecordNumber, err)
				}
				res.Notes++
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if res.Skipped {
		logger.Info().Msg("Database already has data, skipping seed")
	} else {
		logger.Info().Int("patients", res.Patients).Int("notes", res.Notes).Msg("Seeded sample data")
	}
	return res, nil
}
