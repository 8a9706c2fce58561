package model

import "time"

const DefaultNoteType = "general"

type Note struct {
	Base
	PatientID int64     `db:"patient_id" json:"patient_id"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	Content   string    `db:"content" json:"content"`
	NoteType  string    `db:"note_type" json:"note_type"`
}

type NoteCreate struct {
	PatientID int64      `json:"patient_id" binding:"required"`
	Content   string     `json:"content" binding:"required,notblank"`
	Timestamp *Timestamp `json:"timestamp"`
	NoteType  *string    `json:"note_type"`
}

type NoteUpdate struct {
	Content  *string `json:"content" binding:"omitempty,notblank"`
	NoteType *string `json:"note_type"`
}

type NotePage struct {
	Notes []*Note `json:"notes"`
	PageMeta
}

type Summary struct {
	PatientInfo string `json:"patient_info"`
	Summary     string `json:"summary"`
}
