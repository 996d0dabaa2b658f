package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"manifestgate/internal/domain"
)

// Postgres implements every store interface on one *sql.DB. Collection-valued
// columns use JSONB; string lists use text[].
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Open connects and verifies the DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (p *Postgres) SaveCrewMember(ctx context.Context, m domain.CrewMember) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO crew_members (id, first_name, last_name, nationality, date_of_birth, role, vessel_id, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			nationality = EXCLUDED.nationality,
			date_of_birth = EXCLUDED.date_of_birth,
			role = EXCLUDED.role,
			vessel_id = EXCLUDED.vessel_id,
			deleted_at = EXCLUDED.deleted_at,
			updated_at = EXCLUDED.updated_at`,
		m.ID, m.FirstName, m.LastName, m.Nationality, m.DateOfBirth, string(m.Role),
		m.VesselID, m.DeletedAt, m.CreatedAt, m.UpdatedAt)
	return err
}

func (p *Postgres) FindCrewMember(ctx context.Context, id uuid.UUID) (domain.CrewMember, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, nationality, date_of_birth, role, vessel_id, deleted_at, created_at, updated_at
		FROM crew_members WHERE id = $1`, id)
	return scanCrewMember(row)
}

func (p *Postgres) ListCrewByVessel(ctx context.Context, vesselID uuid.UUID) ([]domain.CrewMember, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, nationality, date_of_birth, role, vessel_id, deleted_at, created_at, updated_at
		FROM crew_members WHERE vessel_id = $1 ORDER BY last_name, first_name`, vesselID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CrewMember
	for rows.Next() {
		m, err := scanCrewMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCrewMember(row rowScanner) (domain.CrewMember, error) {
	var m domain.CrewMember
	var role string
	err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Nationality, &m.DateOfBirth,
		&role, &m.VesselID, &m.DeletedAt, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CrewMember{}, ErrNotFound
	}
	if err != nil {
		return domain.CrewMember{}, err
	}
	m.Role = domain.Rank(role)
	return m, nil
}

func (p *Postgres) SaveCertification(ctx context.Context, c domain.Certification) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO certifications (id, crew_member_id, type, issue_date, expiry_date, status, revocation_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			revocation_reason = EXCLUDED.revocation_reason,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.CrewMemberID, string(c.Type), c.IssueDate, c.ExpiryDate,
		string(c.Status), c.RevocationReason, c.CreatedAt, c.UpdatedAt)
	return err
}

func (p *Postgres) FindCertification(ctx context.Context, id uuid.UUID) (domain.Certification, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, crew_member_id, type, issue_date, expiry_date, status, revocation_reason, created_at, updated_at
		FROM certifications WHERE id = $1`, id)
	return scanCertification(row)
}

func (p *Postgres) ListCertificationsByCrewMember(ctx context.Context, crewMemberID uuid.UUID) ([]domain.Certification, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, crew_member_id, type, issue_date, expiry_date, status, revocation_reason, created_at, updated_at
		FROM certifications WHERE crew_member_id = $1 ORDER BY expiry_date`, crewMemberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Certification
	for rows.Next() {
		c, err := scanCertification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCertification(row rowScanner) (domain.Certification, error) {
	var c domain.Certification
	var certType, status string
	err := row.Scan(&c.ID, &c.CrewMemberID, &certType, &c.IssueDate, &c.ExpiryDate,
		&status, &c.RevocationReason, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Certification{}, ErrNotFound
	}
	if err != nil {
		return domain.Certification{}, err
	}
	c.Type = domain.CertificationType(certType)
	c.Status = domain.CertificationStatus(status)
	return c, nil
}

func (p *Postgres) SaveVessel(ctx context.Context, v domain.Vessel) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO vessels (id, name, imo_number, type, gross_tonnage, home_flag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			gross_tonnage = EXCLUDED.gross_tonnage,
			home_flag = EXCLUDED.home_flag,
			updated_at = EXCLUDED.updated_at`,
		v.ID, v.Name, v.IMONumber, string(v.Type), v.GrossTonnage, v.HomeFlag, v.CreatedAt, v.UpdatedAt)
	return err
}

func (p *Postgres) FindVessel(ctx context.Context, id uuid.UUID) (domain.Vessel, error) {
	var v domain.Vessel
	var vesselType string
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, imo_number, type, gross_tonnage, home_flag, created_at, updated_at
		FROM vessels WHERE id = $1`, id).
		Scan(&v.ID, &v.Name, &v.IMONumber, &vesselType, &v.GrossTonnage, &v.HomeFlag, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Vessel{}, ErrNotFound
	}
	if err != nil {
		return domain.Vessel{}, err
	}
	v.Type = domain.VesselType(vesselType)
	return v, nil
}

func (p *Postgres) SaveManningDocument(ctx context.Context, doc domain.SafeManningDocument) error {
	roles, err := json.Marshal(doc.Roles)
	if err != nil {
		return fmt.Errorf("marshal manning roles: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO manning_documents (id, vessel_id, issued_at, issuer, roles)
		VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.VesselID, doc.IssuedAt, doc.Issuer, roles)
	return err
}

func (p *Postgres) LatestManningDocument(ctx context.Context, vesselID uuid.UUID) (domain.SafeManningDocument, error) {
	var doc domain.SafeManningDocument
	var roles []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT id, vessel_id, issued_at, issuer, roles
		FROM manning_documents WHERE vessel_id = $1
		ORDER BY issued_at DESC LIMIT 1`, vesselID).
		Scan(&doc.ID, &doc.VesselID, &doc.IssuedAt, &doc.Issuer, &roles)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SafeManningDocument{}, ErrNotFound
	}
	if err != nil {
		return domain.SafeManningDocument{}, err
	}
	if err := json.Unmarshal(roles, &doc.Roles); err != nil {
		return domain.SafeManningDocument{}, fmt.Errorf("unmarshal manning roles: %w", err)
	}
	return doc, nil
}

func (p *Postgres) SaveSailing(ctx context.Context, s domain.Sailing) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO sailings (id, vessel_id, departure_port, arrival_port, departure_time, route_ports)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			departure_time = EXCLUDED.departure_time,
			route_ports = EXCLUDED.route_ports`,
		s.ID, s.VesselID, s.DeparturePort, s.ArrivalPort, s.DepartureTime, pq.Array(s.RoutePorts))
	return err
}

func (p *Postgres) FindSailing(ctx context.Context, id uuid.UUID) (domain.Sailing, error) {
	var s domain.Sailing
	err := p.db.QueryRowContext(ctx, `
		SELECT id, vessel_id, departure_port, arrival_port, departure_time, route_ports
		FROM sailings WHERE id = $1`, id).
		Scan(&s.ID, &s.VesselID, &s.DeparturePort, &s.ArrivalPort, &s.DepartureTime, pq.Array(&s.RoutePorts))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sailing{}, ErrNotFound
	}
	return s, err
}

func (p *Postgres) SavePassenger(ctx context.Context, pax domain.Passenger) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO passengers (id, sailing_id, family_name, given_name, nationality, date_of_birth, gender,
			document_type, document_number, document_expiry, port_of_embarkation, port_of_debarkation,
			status, consent_at, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			family_name = EXCLUDED.family_name,
			given_name = EXCLUDED.given_name,
			nationality = EXCLUDED.nationality,
			document_type = EXCLUDED.document_type,
			document_number = EXCLUDED.document_number,
			document_expiry = EXCLUDED.document_expiry,
			port_of_embarkation = EXCLUDED.port_of_embarkation,
			port_of_debarkation = EXCLUDED.port_of_debarkation,
			status = EXCLUDED.status,
			deleted_at = EXCLUDED.deleted_at,
			updated_at = EXCLUDED.updated_at`,
		pax.ID, pax.SailingID, pax.FamilyName, pax.GivenName, pax.Nationality, pax.DateOfBirth, pax.Gender,
		string(pax.DocumentType), pax.DocumentNumber, pax.DocumentExpiry, pax.PortOfEmbarkation, pax.PortOfDebarkation,
		string(pax.Status), pax.ConsentAt, pax.DeletedAt, pax.CreatedAt, pax.UpdatedAt)
	return err
}

func (p *Postgres) FindPassenger(ctx context.Context, id uuid.UUID) (domain.Passenger, error) {
	row := p.db.QueryRowContext(ctx, passengerSelect+` WHERE id = $1`, id)
	return scanPassenger(row)
}

func (p *Postgres) ListPassengersBySailing(ctx context.Context, sailingID uuid.UUID) ([]domain.Passenger, error) {
	rows, err := p.db.QueryContext(ctx, passengerSelect+` WHERE sailing_id = $1 ORDER BY family_name, given_name`, sailingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Passenger
	for rows.Next() {
		pax, err := scanPassenger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pax)
	}
	return out, rows.Err()
}

const passengerSelect = `
	SELECT id, sailing_id, family_name, given_name, nationality, date_of_birth, gender,
		document_type, document_number, document_expiry, port_of_embarkation, port_of_debarkation,
		status, consent_at, deleted_at, created_at, updated_at
	FROM passengers`

func scanPassenger(row rowScanner) (domain.Passenger, error) {
	var pax domain.Passenger
	var docType, status string
	err := row.Scan(&pax.ID, &pax.SailingID, &pax.FamilyName, &pax.GivenName, &pax.Nationality,
		&pax.DateOfBirth, &pax.Gender, &docType, &pax.DocumentNumber, &pax.DocumentExpiry,
		&pax.PortOfEmbarkation, &pax.PortOfDebarkation, &status, &pax.ConsentAt, &pax.DeletedAt,
		&pax.CreatedAt, &pax.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Passenger{}, ErrNotFound
	}
	if err != nil {
		return domain.Passenger{}, err
	}
	pax.DocumentType = domain.IdentityDocumentType(docType)
	pax.Status = domain.PassengerStatus(status)
	return pax, nil
}

func (p *Postgres) SaveManifest(ctx context.Context, m domain.Manifest) error {
	passengerIDs, validationErrors, err := marshalManifestLists(m)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO manifests (id, sailing_id, status, validation_status, passenger_ids, validation_errors,
			approved_by, approved_at, approval_notes, submitted_by, submitted_at,
			rejected_by, rejected_at, rejection_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		m.ID, m.SailingID, string(m.Status), string(m.ValidationStatus), passengerIDs, validationErrors,
		m.ApprovedBy, m.ApprovedAt, m.ApprovalNotes, m.SubmittedBy, m.SubmittedAt,
		m.RejectedBy, m.RejectedAt, m.RejectionReason, m.CreatedAt, m.UpdatedAt)
	return err
}

func (p *Postgres) FindManifest(ctx context.Context, id uuid.UUID) (domain.Manifest, error) {
	row := p.db.QueryRowContext(ctx, manifestSelect+` WHERE id = $1`, id)
	return scanManifest(row)
}

func (p *Postgres) ListManifestsByPassenger(ctx context.Context, passengerID uuid.UUID) ([]domain.Manifest, error) {
	rows, err := p.db.QueryContext(ctx, manifestSelect+` WHERE passenger_ids @> $1 ORDER BY created_at DESC`,
		fmt.Sprintf(`["%s"]`, passengerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Manifest
	for rows.Next() {
		m, err := scanManifest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *Postgres) ListManifestsBySailing(ctx context.Context, sailingID uuid.UUID) ([]domain.Manifest, error) {
	rows, err := p.db.QueryContext(ctx, manifestSelect+` WHERE sailing_id = $1 ORDER BY created_at DESC`, sailingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Manifest
	for rows.Next() {
		m, err := scanManifest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateManifestConditional is the optimistic-lock write behind every state
// transition: the row only changes while its status still matches what the
// caller read.
func (p *Postgres) UpdateManifestConditional(ctx context.Context, m domain.Manifest, expected domain.ManifestStatus) error {
	passengerIDs, validationErrors, err := marshalManifestLists(m)
	if err != nil {
		return err
	}
	result, err := p.db.ExecContext(ctx, `
		UPDATE manifests SET
			status = $1, validation_status = $2, passenger_ids = $3, validation_errors = $4,
			approved_by = $5, approved_at = $6, approval_notes = $7,
			submitted_by = $8, submitted_at = $9,
			rejected_by = $10, rejected_at = $11, rejection_reason = $12, updated_at = $13
		WHERE id = $14 AND status = $15`,
		string(m.Status), string(m.ValidationStatus), passengerIDs, validationErrors,
		m.ApprovedBy, m.ApprovedAt, m.ApprovalNotes, m.SubmittedBy, m.SubmittedAt,
		m.RejectedBy, m.RejectedAt, m.RejectionReason, m.UpdatedAt,
		m.ID, string(expected))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

const manifestSelect = `
	SELECT id, sailing_id, status, validation_status, passenger_ids, validation_errors,
		approved_by, approved_at, approval_notes, submitted_by, submitted_at,
		rejected_by, rejected_at, rejection_reason, created_at, updated_at
	FROM manifests`

func marshalManifestLists(m domain.Manifest) ([]byte, []byte, error) {
	passengerIDs, err := json.Marshal(m.PassengerIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal passenger ids: %w", err)
	}
	validationErrors, err := json.Marshal(m.ValidationErrors)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal validation errors: %w", err)
	}
	return passengerIDs, validationErrors, nil
}

func scanManifest(row rowScanner) (domain.Manifest, error) {
	var m domain.Manifest
	var status, validationStatus string
	var passengerIDs, validationErrors []byte
	err := row.Scan(&m.ID, &m.SailingID, &status, &validationStatus, &passengerIDs, &validationErrors,
		&m.ApprovedBy, &m.ApprovedAt, &m.ApprovalNotes, &m.SubmittedBy, &m.SubmittedAt,
		&m.RejectedBy, &m.RejectedAt, &m.RejectionReason, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Manifest{}, ErrNotFound
	}
	if err != nil {
		return domain.Manifest{}, err
	}
	m.Status = domain.ManifestStatus(status)
	m.ValidationStatus = domain.ValidationStatus(validationStatus)
	if err := json.Unmarshal(passengerIDs, &m.PassengerIDs); err != nil {
		return domain.Manifest{}, fmt.Errorf("unmarshal passenger ids: %w", err)
	}
	if err := json.Unmarshal(validationErrors, &m.ValidationErrors); err != nil {
		return domain.Manifest{}, fmt.Errorf("unmarshal validation errors: %w", err)
	}
	return m, nil
}

func (p *Postgres) SaveUser(ctx context.Context, u domain.User) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (id, external_subject, email, first_name, last_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			external_subject = EXCLUDED.external_subject,
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at`,
		u.ID, u.ExternalSubject, u.Email, u.FirstName, u.LastName, u.Role, u.CreatedAt, u.UpdatedAt)
	return err
}

func (p *Postgres) FindUserBySubject(ctx context.Context, subject string) (domain.User, error) {
	row := p.db.QueryRowContext(ctx, userSelect+` WHERE external_subject = $1`, subject)
	return scanUser(row)
}

func (p *Postgres) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := p.db.QueryRowContext(ctx, userSelect+` WHERE email = $1`, email)
	return scanUser(row)
}

const userSelect = `
	SELECT id, external_subject, email, first_name, last_name, role, created_at, updated_at
	FROM users`

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.ExternalSubject, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	return u, err
}

// AppendAuditEntry is insert-only. No update or delete statement for
// audit_log exists in this codebase.
func (p *Postgres) AppendAuditEntry(ctx context.Context, e domain.AuditLogEntry) error {
	before, err := json.Marshal(e.Before)
	if err != nil {
		return fmt.Errorf("marshal audit before: %w", err)
	}
	after, err := json.Marshal(e.After)
	if err != nil {
		return fmt.Errorf("marshal audit after: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, entity_type, entity_id, action, actor_id, actor_name, actor_role,
			occurred_at, before, after, changed_fields, reason, client_ip, device, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID, string(e.EntityType), e.EntityID, string(e.Action), e.ActorID, e.ActorName, e.ActorRole,
		e.Timestamp, before, after, pq.Array(e.ChangedFields), e.Reason, e.ClientIP, e.Device, e.RequestID)
	return err
}

func (p *Postgres) ListAuditByEntity(ctx context.Context, entityType domain.AuditEntityType, entityID string) ([]domain.AuditLogEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, action, actor_id, actor_name, actor_role,
			occurred_at, before, after, changed_fields, reason, client_ip, device, request_id
		FROM audit_log WHERE entity_type = $1 AND entity_id = $2
		ORDER BY id`, string(entityType), entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditLogEntry
	for rows.Next() {
		var e domain.AuditLogEntry
		var entType, action string
		var before, after []byte
		var changed []string
		if err := rows.Scan(&e.ID, &entType, &e.EntityID, &action, &e.ActorID, &e.ActorName, &e.ActorRole,
			&e.Timestamp, &before, &after, pq.Array(&changed), &e.Reason, &e.ClientIP, &e.Device, &e.RequestID); err != nil {
			return nil, err
		}
		e.EntityType = domain.AuditEntityType(entType)
		e.Action = domain.AuditAction(action)
		e.ChangedFields = changed
		if len(before) > 0 {
			if err := json.Unmarshal(before, &e.Before); err != nil {
				return nil, fmt.Errorf("unmarshal audit before: %w", err)
			}
		}
		if len(after) > 0 {
			if err := json.Unmarshal(after, &e.After); err != nil {
				return nil, fmt.Errorf("unmarshal audit after: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
