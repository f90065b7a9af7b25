package postgres

import (
	"context"
	"database/sql"

	"contractor-matching/internal/models"
)

const selectServiceRequest = `
	SELECT id, client_id, service_type, location_lat, location_lng,
	       preferred_start_date, estimated_hours, special_requirements,
	       client_preferences, status, status_version, assigned_contractor_id, created_at
	FROM service_requests
	WHERE id = $1`

func (s *Store) GetServiceRequest(ctx context.Context, id string) (*models.ServiceRequest, error) {
	var (
		r            models.ServiceRequest
		lat, lng     sql.NullFloat64
		requirements []byte
		preferences  []byte
		assigned     sql.NullString
	)

	err := s.db.QueryRowContext(ctx, selectServiceRequest, id).Scan(
		&r.ID, &r.ClientID, &r.ServiceType, &lat, &lng,
		&r.PreferredStart, &r.EstimatedHours, &requirements,
		&preferences, &r.Status, &r.StatusVersion, &assigned, &r.CreatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}

	r.Location = point(lat, lng)
	r.AssignedContractorID = assigned.String
	if err := decodeJSON(requirements, &r.SpecialRequirements, "special_requirements"); err != nil {
		return nil, err
	}
	if err := decodeJSON(preferences, &r.Preferences, "client_preferences"); err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertServiceRequest is used by matchctl and tests to seed requests.
func (s *Store) InsertServiceRequest(ctx context.Context, r *models.ServiceRequest) error {
	lat, lng := nullable(r.Location)
	requirements, err := encodeJSON(r.SpecialRequirements)
	if err != nil {
		return err
	}
	preferences, err := encodeJSON(r.Preferences)
	if err != nil {
		return err
	}
	status := r.Status
	if status == "" {
		status = models.RequestPending
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO service_requests (id, client_id, service_type, location_lat, location_lng,
			preferred_start_date, estimated_hours, special_requirements, client_preferences, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.ClientID, r.ServiceType, lat, lng,
		r.PreferredStart, r.EstimatedHours, requirements, preferences, status,
	)
	return translate(err)
}
