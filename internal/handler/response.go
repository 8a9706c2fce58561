package handler

const (
	PatientDeleted = "Patient deleted successfully"
	NoteDeleted    = "Note deleted successfully"
)

type HealthResponse struct {
	Status string `json:"status"`
}
