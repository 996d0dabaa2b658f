package manifest

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manifestgate/internal/audit"
	"manifestgate/internal/domain"
	"manifestgate/internal/storage"
	pkgerrors "manifestgate/pkg/errors"
	"manifestgate/pkg/requestcontext"
)

type lifecycleFixture struct {
	svc        *Service
	manifests  *storage.InMemoryManifestStore
	passengers *storage.InMemoryPassengerStore
	sailings   *storage.InMemorySailingStore
	audits     *storage.InMemoryAuditStore
	ctx        context.Context
	sailing    domain.Sailing
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	manifests := storage.NewInMemoryManifestStore()
	passengers := storage.NewInMemoryPassengerStore()
	sailings := storage.NewInMemorySailingStore()
	audits := storage.NewInMemoryAuditStore()
	ledger := audit.NewLedger(audits, storage.NewInMemoryUserStore(), log, nil)

	sailing := domain.Sailing{
		ID:            uuid.New(),
		VesselID:      uuid.New(),
		DeparturePort: "SESTO",
		ArrivalPort:   "FIHEL",
		DepartureTime: sailingDate,
		RoutePorts:    []string{"SESTO", "FIHEL"},
	}
	require.NoError(t, sailings.SaveSailing(context.Background(), sailing))

	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 6, 25, 8, 0, 0, 0, time.UTC))
	ctx = requestcontext.WithPrincipal(ctx, domain.Principal{Subject: "officer-7", Email: "officer@ferryline.example"})

	return &lifecycleFixture{
		svc:        NewService(manifests, passengers, sailings, Validator{}, ledger, nil),
		manifests:  manifests,
		passengers: passengers,
		sailings:   sailings,
		audits:     audits,
		ctx:        ctx,
		sailing:    sailing,
	}
}

func (f *lifecycleFixture) addPassenger(t *testing.T, mutate func(*domain.Passenger)) domain.Passenger {
	t.Helper()
	p := validPassenger()
	p.SailingID = f.sailing.ID
	if mutate != nil {
		mutate(&p)
	}
	require.NoError(t, f.passengers.SavePassenger(context.Background(), p))
	return p
}

func TestService_Generate(t *testing.T) {
	f := newLifecycleFixture(t)
	zulu := f.addPassenger(t, func(p *domain.Passenger) { p.FamilyName = "Zetterberg" })
	alpha := f.addPassenger(t, func(p *domain.Passenger) { p.FamilyName = "Aalto" })
	f.addPassenger(t, func(p *domain.Passenger) { p.Status = domain.PassengerCancelled })
	now := time.Now()
	f.addPassenger(t, func(p *domain.Passenger) { p.DeletedAt = &now })

	m, err := f.svc.Generate(f.ctx, f.sailing.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.ManifestDraft, m.Status)
	assert.Equal(t, domain.ValidationValid, m.ValidationStatus)
	require.Len(t, m.PassengerIDs, 2)
	assert.Equal(t, alpha.ID, m.PassengerIDs[0], "passengers ordered by family name")
	assert.Equal(t, zulu.ID, m.PassengerIDs[1])

	entries := f.audits.All()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionCreate, entries[0].Action)
}

func TestService_Generate_AttachesValidationErrors(t *testing.T) {
	f := newLifecycleFixture(t)
	f.addPassenger(t, func(p *domain.Passenger) { p.ConsentAt = nil })

	m, err := f.svc.Generate(f.ctx, f.sailing.ID)
	require.NoError(t, err, "validation failures attach, they do not block generation")

	assert.Equal(t, domain.ValidationInvalid, m.ValidationStatus)
	require.Len(t, m.ValidationErrors, 1)
	assert.Equal(t, "consentAt", m.ValidationErrors[0].Field)
}

func TestService_Generate_UnknownSailing(t *testing.T) {
	f := newLifecycleFixture(t)
	_, err := f.svc.Generate(f.ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestService_SubmitForReview(t *testing.T) {
	f := newLifecycleFixture(t)
	f.addPassenger(t, nil)
	m, err := f.svc.Generate(f.ctx, f.sailing.ID)
	require.NoError(t, err)

	m, err = f.svc.SubmitForReview(f.ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ManifestPending, m.Status)

	_, err = f.svc.SubmitForReview(f.ctx, m.ID)
	assert.Equal(t, pkgerrors.CodeInvalidState, pkgerrors.CodeOf(err), "PENDING cannot be submitted for review again")
}

func TestService_Approve(t *testing.T) {
	f := newLifecycleFixture(t)
	f.addPassenger(t, nil)
	m, err := f.svc.Generate(f.ctx, f.sailing.ID)
	require.NoError(t, err)

	m, err = f.svc.Approve(f.ctx, m.ID, "checked against counter list")
	require.NoError(t, err)

	assert.Equal(t, domain.ManifestApproved, m.Status)
	require.NotNil(t, m.ApprovedBy)
	require.NotNil(t, m.ApprovedAt)
	assert.Equal(t, time.Date(2026, 6, 25, 8, 0, 0, 0, time.UTC), *m.ApprovedAt)
	assert.Equal(t, "checked against counter list", m.ApprovalNotes)

	entries := f.audits.All()
	require.Len(t, entries, 2) // CREATE then APPROVE
	assert.Equal(t, domain.ActionApprove, entries[1].Action)
	assert.Equal(t, "checked against counter list", entries[1].Reason)
}

func TestService_Approve_GatesOnValidationErrors(t *testing.T) {
	f := newLifecycleFixture(t)
	p := f.addPassenger(t, nil)
	m, err := f.svc.Generate(f.ctx, f.sailing.ID)
	require.NoError(t, err)

	// Passenger record degrades after generation; approval must re-check.
	p.ConsentAt = nil
	require.NoError(t, f.passengers.SavePassenger(context.Background(), p))

	_, err = f.svc.Approve(f.ctx, m.ID, "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeComplianceGate, pkgerrors.CodeOf(err))
	violations := pkgerrors.ViolationsOf(err)
	require.Len(t, violations, 1)
	assert.Equal(t, "consentAt", violations[0].Field)

	stored, err := f.manifests.FindManifest(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ManifestDraft, stored.Status, "failed approval leaves the status alone")
	assert.Equal(t, domain.ValidationInvalid, stored.ValidationStatus)
}

func TestService_Approve_WrongState(t *testing.T) {
	f := newLifecycleFixture(t)
	f.addPassenger(t, nil)
	m, err := f.svc.Generate(f.ctx, f.sailing.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, m.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, m.ID, "second signature")
	assert.Equal(t, pkgerrors.CodeInvalidState, pkgerrors.CodeOf(err))
}

func TestService_Approve_LostRace(t *testing.T) {
	f := newLifecycleFixture(t)
	f.addPassenger(t, nil)
	m, err := f.svc.Generate(f.ctx, f.sailing.ID)
	require.NoError(t, err)

	// Another instance rejects between our read and our write.
	stored, err := f.manifests.FindManifest(context.Background(), m.ID)
	require.NoError(t, err)
	stored.Status = domain.ManifestRejected
	require.NoError(t, f.manifests.UpdateManifestConditional(context.Background(), stored, domain.ManifestDraft))

	_, err = f.svc.Approve(f.ctx, m.ID, "")
	assert.Equal(t, pkgerrors.CodeInvalidState, pkgerrors.CodeOf(err))
}

func TestService_Submit(t *testing.T) {
	f := newLifecycleFixture(t)
	f.addPassenger(t, nil)
	m, err := f.svc.Generate(f.ctx, f.sailing.ID)
	require.NoError(t, err)

	_, err = f.svc.Submit(f.ctx, m.ID)
	assert.Equal(t, pkgerrors.CodeInvalidState, pkgerrors.CodeOf(err), "DRAFT cannot be submitted")

	_, err = f.svc.Approve(f.ctx, m.ID, "")
	require.NoError(t, err)

	m, err = f.svc.Submit(f.ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ManifestSubmitted, m.Status)
	require.NotNil(t, m.SubmittedBy)
	require.NotNil(t, m.SubmittedAt)

	_, err = f.svc.Submit(f.ctx, m.ID)
	assert.Equal(t, pkgerrors.CodeInvalidState, pkgerrors.CodeOf(err), "SUBMITTED is terminal")
}

func TestService_Reject(t *testing.T) {
	f := newLifecycleFixture(t)
	f.addPassenger(t, nil)
	m, err := f.svc.Generate(f.ctx, f.sailing.ID)
	require.NoError(t, err)

	_, err = f.svc.Reject(f.ctx, m.ID, "")
	assert.Equal(t, pkgerrors.CodeBadRequest, pkgerrors.CodeOf(err), "reason is mandatory")

	m, err = f.svc.Reject(f.ctx, m.ID, "duplicate of earlier manifest")
	require.NoError(t, err)
	assert.Equal(t, domain.ManifestRejected, m.Status)
	assert.Equal(t, "duplicate of earlier manifest", m.RejectionReason)
	require.NotNil(t, m.RejectedBy)

	entries := f.audits.All()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionReject, entries[1].Action)
	assert.Equal(t, "duplicate of earlier manifest", entries[1].Reason)
}

func TestService_Reject_Approved(t *testing.T) {
	f := newLifecycleFixture(t)
	f.addPassenger(t, nil)
	m, err := f.svc.Generate(f.ctx, f.sailing.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(f.ctx, m.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Reject(f.ctx, m.ID, "too late")
	assert.Equal(t, pkgerrors.CodeInvalidState, pkgerrors.CodeOf(err))
}
