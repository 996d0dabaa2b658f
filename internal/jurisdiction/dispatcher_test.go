package jurisdiction

import (
	"context"
	"errors"
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

type fixture struct {
	sailings  *storage.InMemorySailingStore
	vessels   *storage.InMemoryVesselStore
	crew      *storage.InMemoryCrewStore
	manifests *storage.InMemoryManifestStore
	certs     *storage.InMemoryCertificationStore
	audits    *storage.InMemoryAuditStore
	ledger    *audit.Ledger
	ctx       context.Context
	sailing   domain.Sailing
	vessel    domain.Vessel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		sailings:  storage.NewInMemorySailingStore(),
		vessels:   storage.NewInMemoryVesselStore(),
		crew:      storage.NewInMemoryCrewStore(),
		manifests: storage.NewInMemoryManifestStore(),
		certs:     storage.NewInMemoryCertificationStore(),
		audits:    storage.NewInMemoryAuditStore(),
	}
	f.ledger = audit.NewLedger(f.audits, storage.NewInMemoryUserStore(), log, nil)

	f.vessel = domain.Vessel{ID: uuid.New(), Name: "MS Aurora", GrossTonnage: 300, HomeFlag: "SE"}
	require.NoError(t, f.vessels.SaveVessel(context.Background(), f.vessel))

	f.sailing = domain.Sailing{
		ID:            uuid.New(),
		VesselID:      f.vessel.ID,
		DeparturePort: "SESTO",
		ArrivalPort:   "FIHEL",
		DepartureTime: time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC),
		RoutePorts:    []string{"SESTO", "FIHEL"},
	}
	require.NoError(t, f.sailings.SaveSailing(context.Background(), f.sailing))

	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 6, 25, 8, 0, 0, 0, time.UTC))
	f.ctx = requestcontext.WithPrincipal(ctx, domain.Principal{Subject: "dispatcher-test"})
	return f
}

func (f *fixture) dispatcher(evaluators ...Evaluator) *Dispatcher {
	return NewDispatcher(f.sailings, f.vessels, f.crew, f.manifests, f.ledger, evaluators...)
}

func (f *fixture) addCrew(t *testing.T, role domain.Rank) domain.CrewMember {
	t.Helper()
	id := f.vessel.ID
	member := domain.CrewMember{ID: uuid.New(), FirstName: "Test", LastName: string(role), Role: role, VesselID: &id}
	require.NoError(t, f.crew.SaveCrewMember(context.Background(), member))
	return member
}

func (f *fixture) fullSmallCrew(t *testing.T) {
	t.Helper()
	f.addCrew(t, domain.RankMaster)
	f.addCrew(t, domain.RankAbleSeaman)
	f.addCrew(t, domain.RankAbleSeaman)
	f.addCrew(t, domain.RankChiefEngineer)
}

type stubEvaluator struct {
	name     string
	triggers []string
	record   Record
	err      error
	delay    time.Duration
}

func (s *stubEvaluator) Name() string           { return s.name }
func (s *stubEvaluator) TriggerPorts() []string { return s.triggers }

func (s *stubEvaluator) Evaluate(context.Context, Subject) (Record, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.record, s.err
}

func TestDispatcher_RunsBaseAndTriggered(t *testing.T) {
	f := newFixture(t)
	d := f.dispatcher(
		&stubEvaluator{name: "BASE", record: Record{Jurisdiction: "BASE", Status: StatusCompliant}},
		&stubEvaluator{name: "HELSINKI", triggers: []string{"FIHEL"}, record: Record{Jurisdiction: "HELSINKI", Status: StatusCompliant}},
		&stubEvaluator{name: "TALLINN", triggers: []string{"EETLL"}, record: Record{Jurisdiction: "TALLINN", Status: StatusCompliant}},
	)

	records, err := d.Dispatch(f.ctx, f.sailing.ID)
	require.NoError(t, err)

	require.Len(t, records, 2, "TALLINN's trigger port is not on the route")
	assert.Equal(t, "BASE", records[0].Jurisdiction)
	assert.Equal(t, "HELSINKI", records[1].Jurisdiction)
}

func TestDispatcher_OrderIsStable(t *testing.T) {
	f := newFixture(t)
	d := f.dispatcher(
		&stubEvaluator{name: "SLOW", delay: 30 * time.Millisecond, record: Record{Jurisdiction: "SLOW", Status: StatusCompliant}},
		&stubEvaluator{name: "FAST", record: Record{Jurisdiction: "FAST", Status: StatusWarning}},
	)

	records, err := d.Dispatch(f.ctx, f.sailing.ID)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "SLOW", records[0].Jurisdiction, "results follow registration order, not finish order")
	assert.Equal(t, "FAST", records[1].Jurisdiction)
}

func TestDispatcher_FailureDoesNotShortCircuit(t *testing.T) {
	f := newFixture(t)
	d := f.dispatcher(
		&stubEvaluator{name: "BROKEN", err: errors.New("registry unreachable")},
		&stubEvaluator{name: "HEALTHY", record: Record{Jurisdiction: "HEALTHY", Status: StatusCompliant}},
	)

	records, err := d.Dispatch(f.ctx, f.sailing.ID)
	require.NoError(t, err, "one regime's failure is its own verdict")

	require.Len(t, records, 2)
	assert.Equal(t, StatusNonCompliant, records[0].Status)
	assert.Contains(t, records[0].Findings[0], "registry unreachable")
	assert.Equal(t, StatusCompliant, records[1].Status)
}

func TestDispatcher_AuditsEveryDispatch(t *testing.T) {
	f := newFixture(t)
	d := f.dispatcher(&stubEvaluator{name: "BASE", record: Record{Jurisdiction: "BASE", Status: StatusNonCompliant}})

	_, err := d.Dispatch(f.ctx, f.sailing.ID)
	require.NoError(t, err)

	entries := f.audits.All()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionEvaluate, entries[0].Action)
	assert.Equal(t, 1, entries[0].After["nonCompliant"])
}

func TestDispatcher_UnknownSailing(t *testing.T) {
	f := newFixture(t)
	d := f.dispatcher()
	_, err := d.Dispatch(f.ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestFlagState(t *testing.T) {
	f := newFixture(t)
	flag := NewFlagState(f.vessels)

	t.Run("undermanned vessel is non-compliant", func(t *testing.T) {
		d := f.dispatcher(flag)
		records, err := d.Dispatch(f.ctx, f.sailing.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, StatusNonCompliant, records[0].Status)
		assert.NotEmpty(t, records[0].Findings)
	})

	t.Run("full crew passes", func(t *testing.T) {
		f.fullSmallCrew(t)
		d := f.dispatcher(flag)
		records, err := d.Dispatch(f.ctx, f.sailing.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompliant, records[0].Status)
	})
}

func TestPassengerData(t *testing.T) {
	f := newFixture(t)
	apis := NewPassengerData([]string{"FIHEL"})

	t.Run("no manifest", func(t *testing.T) {
		records, err := f.dispatcher(apis).Dispatch(f.ctx, f.sailing.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, StatusNonCompliant, records[0].Status)
	})

	t.Run("approved and valid manifest", func(t *testing.T) {
		require.NoError(t, f.manifests.SaveManifest(context.Background(), domain.Manifest{
			ID:               uuid.New(),
			SailingID:        f.sailing.ID,
			Status:           domain.ManifestApproved,
			ValidationStatus: domain.ValidationValid,
		}))
		records, err := f.dispatcher(apis).Dispatch(f.ctx, f.sailing.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompliant, records[0].Status)
	})
}

func TestPassengerData_DraftManifestWarns(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manifests.SaveManifest(context.Background(), domain.Manifest{
		ID:               uuid.New(),
		SailingID:        f.sailing.ID,
		Status:           domain.ManifestDraft,
		ValidationStatus: domain.ValidationValid,
	}))

	records, err := f.dispatcher(NewPassengerData(nil)).Dispatch(f.ctx, f.sailing.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, StatusWarning, records[0].Status)
}

func TestCrewCertificates(t *testing.T) {
	f := newFixture(t)
	member := f.addCrew(t, domain.RankMotorman)
	regime := NewCrewCertificates([]string{"FIHEL"}, f.certs)

	t.Run("missing required certificates", func(t *testing.T) {
		records, err := f.dispatcher(regime).Dispatch(f.ctx, f.sailing.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, StatusNonCompliant, records[0].Status)
	})

	t.Run("current certificates pass", func(t *testing.T) {
		expiry := time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC)
		for _, certType := range []domain.CertificationType{
			domain.CertBasicSafetyTraining, domain.CertMedicalFitness,
		} {
			require.NoError(t, f.certs.SaveCertification(context.Background(), domain.Certification{
				ID:           uuid.New(),
				CrewMemberID: member.ID,
				Type:         certType,
				Status:       domain.CertStatusValid,
				IssueDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				ExpiryDate:   expiry,
			}))
		}
		records, err := f.dispatcher(regime).Dispatch(f.ctx, f.sailing.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompliant, records[0].Status)
	})
}
