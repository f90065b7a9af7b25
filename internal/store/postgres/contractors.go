package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"contractor-matching/internal/models"
)

const contractorColumns = `
	id, first_name, last_name, gender, experience_level, certifications,
	certified_services, special_skills, languages, availability,
	service_area_lat, service_area_lng, hourly_rate, rating, completed_jobs,
	status, background_check_status, insurance_status`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContractor(row rowScanner) (*models.Contractor, error) {
	var (
		c                                         models.Contractor
		certs, services, skills, languages, avail []byte
		lat, lng, rating                          sql.NullFloat64
	)

	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Gender, &c.ExperienceLevel, &certs,
		&services, &skills, &languages, &avail,
		&lat, &lng, &c.HourlyRate, &rating, &c.CompletedJobs,
		&c.Status, &c.BackgroundCheck, &c.Insurance,
	)
	if err != nil {
		return nil, translate(err)
	}

	c.ServiceArea = point(lat, lng)
	if rating.Valid {
		r := rating.Float64
		c.Rating = &r
	}

	for _, col := range []struct {
		name string
		raw  []byte
		dst  interface{}
	}{
		{"certifications", certs, &c.Certifications},
		{"certified_services", services, &c.CertifiedServices},
		{"special_skills", skills, &c.SpecialSkills},
		{"languages", languages, &c.Languages},
		{"availability", avail, &c.Availability},
	} {
		if err := decodeJSON(col.raw, col.dst, col.name); err != nil {
			return nil, fmt.Errorf("contractor %s: %w: %w", c.ID, errUndecodable, err)
		}
	}
	return &c, nil
}

func (s *Store) GetContractor(ctx context.Context, id string) (*models.Contractor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contractorColumns+` FROM contractors WHERE id = $1`, id)
	return scanContractor(row)
}

// ListContractors pushes the status gates and, when it is safe, a bounding
// box around the origin down to SQL. Contractors without a service area are
// always returned. A row whose JSON columns do not decode is skipped with a
// warning.
func (s *Store) ListContractors(ctx context.Context, q models.ContractorQuery) ([]*models.Contractor, error) {
	query, args := listContractorsQuery(q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contractors: %w", err)
	}
	defer rows.Close()

	var out []*models.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if errors.Is(err, errUndecodable) {
			s.logger.Warn("skipping undecodable contractor row", map[string]interface{}{"error": err.Error()})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list contractors: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contractors: %w", err)
	}
	return out, nil
}

func listContractorsQuery(q models.ContractorQuery) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Status != "" {
		where = append(where, "status = "+arg(string(q.Status)))
	}
	if q.BackgroundCheck != "" {
		where = append(where, "background_check_status = "+arg(string(q.BackgroundCheck)))
	}
	if q.Insurance != "" {
		where = append(where, "insurance_status = "+arg(string(q.Insurance)))
	}
	if q.Origin != nil {
		if b, ok := boundingBox(*q.Origin, q.MaxDistanceMiles); ok {
			where = append(where, fmt.Sprintf(
				"(service_area_lat IS NULL OR service_area_lng IS NULL OR (service_area_lat BETWEEN %s AND %s AND service_area_lng BETWEEN %s AND %s))",
				arg(b.minLat), arg(b.maxLat), arg(b.minLng), arg(b.maxLng),
			))
		}
	}

	query := `SELECT ` + contractorColumns + ` FROM contractors`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY id", args
}

// UpsertContractor is used by matchctl and tests to seed contractors.
func (s *Store) UpsertContractor(ctx context.Context, c *models.Contractor) error {
	lat, lng := nullable(c.ServiceArea)
	var rating sql.NullFloat64
	if c.Rating != nil {
		rating = sql.NullFloat64{Float64: *c.Rating, Valid: true}
	}

	encoded := make([][]byte, 0, 5)
	for _, v := range []interface{}{c.Certifications, c.CertifiedServices, c.SpecialSkills, c.Languages, c.Availability} {
		raw, err := encodeJSON(v)
		if err != nil {
			return fmt.Errorf("contractor %s: %w", c.ID, err)
		}
		encoded = append(encoded, raw)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contractors (`+contractorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			gender = EXCLUDED.gender,
			experience_level = EXCLUDED.experience_level,
			certifications = EXCLUDED.certifications,
			certified_services = EXCLUDED.certified_services,
			special_skills = EXCLUDED.special_skills,
			languages = EXCLUDED.languages,
			availability = EXCLUDED.availability,
			service_area_lat = EXCLUDED.service_area_lat,
			service_area_lng = EXCLUDED.service_area_lng,
			hourly_rate = EXCLUDED.hourly_rate,
			rating = EXCLUDED.rating,
			completed_jobs = EXCLUDED.completed_jobs,
			status = EXCLUDED.status,
			background_check_status = EXCLUDED.background_check_status,
			insurance_status = EXCLUDED.insurance_status`,
		c.ID, c.FirstName, c.LastName, c.Gender, c.ExperienceLevel, encoded[0],
		encoded[1], encoded[2], encoded[3], encoded[4],
		lat, lng, c.HourlyRate, rating, c.CompletedJobs,
		string(c.Status), string(c.BackgroundCheck), string(c.Insurance),
	)
	return translate(err)
}
