package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manifestgate/internal/domain"
)

func newMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func TestPostgres_UpdateManifestConditional_Conflict(t *testing.T) {
	store, mock := newMock(t)

	manifest := domain.Manifest{
		ID:               uuid.New(),
		SailingID:        uuid.New(),
		Status:           domain.ManifestApproved,
		ValidationStatus: domain.ValidationValid,
	}

	// Zero rows affected means the stored status moved underneath us.
	mock.ExpectExec(`UPDATE manifests SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateManifestConditional(context.Background(), manifest, domain.ManifestPending)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateManifestConditional_Applies(t *testing.T) {
	store, mock := newMock(t)

	manifest := domain.Manifest{ID: uuid.New(), SailingID: uuid.New(), Status: domain.ManifestPending}
	mock.ExpectExec(`UPDATE manifests SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateManifestConditional(context.Background(), manifest, domain.ManifestDraft)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindCrewMember_NotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(`(?s)SELECT .* FROM crew_members WHERE id`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "nationality", "date_of_birth",
			"role", "vessel_id", "deleted_at", "created_at", "updated_at",
		}))

	_, err := store.FindCrewMember(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindCrewMember(t *testing.T) {
	store, mock := newMock(t)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT .* FROM crew_members WHERE id`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "nationality", "date_of_birth",
			"role", "vessel_id", "deleted_at", "created_at", "updated_at",
		}).AddRow(id, "Anja", "Saarinen", "FI", now, "MASTER", nil, nil, now, now))

	member, err := store.FindCrewMember(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.RankMaster, member.Role)
	assert.Nil(t, member.VesselID)
	assert.False(t, member.Deleted())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendAuditEntry(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.AppendAuditEntry(context.Background(), domain.AuditLogEntry{
		ID:         "01J0000000000000000000000",
		EntityType: domain.EntityManifest,
		EntityID:   uuid.NewString(),
		Action:     domain.ActionApprove,
		ActorID:    uuid.New(),
		Timestamp:  time.Now(),
		After:      map[string]any{"status": "APPROVED"},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindManifest_RoundTrip(t *testing.T) {
	store, mock := newMock(t)

	id := uuid.New()
	sailingID := uuid.New()
	paxID := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT .* FROM manifests WHERE id`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "sailing_id", "status", "validation_status", "passenger_ids", "validation_errors",
			"approved_by", "approved_at", "approval_notes", "submitted_by", "submitted_at",
			"rejected_by", "rejected_at", "rejection_reason", "created_at", "updated_at",
		}).AddRow(id, sailingID, "DRAFT", "VALID", []byte(`["`+paxID.String()+`"]`), []byte(`[]`),
			nil, nil, "", nil, nil, nil, nil, "", now, now))

	m, err := store.FindManifest(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.ManifestDraft, m.Status)
	require.Len(t, m.PassengerIDs, 1)
	assert.Equal(t, paxID, m.PassengerIDs[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}
