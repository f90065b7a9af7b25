package postgres

// Schema creates every table the service reads or writes. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS service_requests (
	id                     TEXT PRIMARY KEY,
	client_id              TEXT NOT NULL,
	service_type           TEXT NOT NULL,
	location_lat           DOUBLE PRECISION,
	location_lng           DOUBLE PRECISION,
	preferred_start_date   TIMESTAMPTZ NOT NULL,
	estimated_hours        DOUBLE PRECISION NOT NULL DEFAULT 0,
	special_requirements   JSONB NOT NULL DEFAULT '[]',
	client_preferences     JSONB NOT NULL DEFAULT '{}',
	status                 TEXT NOT NULL DEFAULT 'pending',
	status_version         BIGINT NOT NULL DEFAULT 0,
	assigned_contractor_id TEXT,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contractors (
	id                      TEXT PRIMARY KEY,
	first_name              TEXT NOT NULL DEFAULT '',
	last_name               TEXT NOT NULL DEFAULT '',
	gender                  TEXT NOT NULL DEFAULT '',
	experience_level        TEXT NOT NULL DEFAULT '',
	certifications          JSONB NOT NULL DEFAULT '[]',
	certified_services      JSONB NOT NULL DEFAULT '[]',
	special_skills          JSONB NOT NULL DEFAULT '[]',
	languages               JSONB NOT NULL DEFAULT '[]',
	availability            JSONB,
	service_area_lat        DOUBLE PRECISION,
	service_area_lng        DOUBLE PRECISION,
	hourly_rate             DOUBLE PRECISION NOT NULL DEFAULT 0,
	rating                  DOUBLE PRECISION,
	completed_jobs          INTEGER NOT NULL DEFAULT 0,
	status                  TEXT NOT NULL,
	background_check_status TEXT NOT NULL,
	insurance_status        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS contractors_eligibility_idx
	ON contractors (status, background_check_status, insurance_status);

CREATE TABLE IF NOT EXISTS contractor_assignments (
	id                 TEXT PRIMARY KEY,
	service_request_id TEXT NOT NULL REFERENCES service_requests (id),
	contractor_id      TEXT NOT NULL REFERENCES contractors (id),
	assigned_by        TEXT NOT NULL,
	assigned_at        TIMESTAMPTZ NOT NULL,
	status             TEXT NOT NULL,
	revoked_by         TEXT,
	revoked_at         TIMESTAMPTZ,
	revoke_reason      TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS contractor_assignments_one_active
	ON contractor_assignments (service_request_id) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS audit_log (
	id            TEXT PRIMARY KEY,
	event_type    TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id   TEXT NOT NULL,
	actor_id      TEXT NOT NULL,
	details       JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL
);
`
