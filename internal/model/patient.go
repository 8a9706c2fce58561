package model

type Patient struct {
	Base
	Name                string `db:"name" json:"name"`
	DateOfBirth         Date   `db:"date_of_birth" json:"date_of_birth"`
	MedicalRecordNumber string `db:"medical_record_number" json:"medical_record_number"`
}

type PatientCreate struct {
	Name                string `json:"name" binding:"required,notblank"`
	DateOfBirth         *Date  `json:"date_of_birth" binding:"required"`
	MedicalRecordNumber string `json:"medical_record_number" binding:"required,notblank"`
}

// PatientUpdate is a partial update; nil fields are left unchanged. The
// medical record number is immutable.
type PatientUpdate struct {
	Name        *string `json:"name" binding:"omitempty,notblank"`
	DateOfBirth *Date   `json:"date_of_birth"`
}

type PatientPage struct {
	Patients []*Patient `json:"patients"`
	PageMeta
}
