package repository

import (
	"database/sql"
	"errors"
	"fmt"

	apperrors "clinicbooking/internal/errors"
)

// PatientContact is the slice of a patient profile the notifier needs.
type PatientContact struct {
	ID    int
	Name  string
	Email string
	Phone string
}

type PatientRepository interface {
	GetContact(patientID int) (*PatientContact, error)
}

type patientRepository struct {
	DB *sql.DB
}

func NewPatientRepository(database *sql.DB) PatientRepository {
	return &patientRepository{DB: database}
}

func (r *patientRepository) GetContact(patientID int) (*PatientContact, error) {
	var c PatientContact
	err := r.DB.QueryRow(
		`SELECT id, name, email, phone FROM patients WHERE id = $1`, patientID,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("patient %d: %w", patientID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying patient contact: %w", err)
	}
	return &c, nil
}
