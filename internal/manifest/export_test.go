package manifest

import (
	"encoding/csv"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manifestgate/internal/audit"
	"manifestgate/internal/crypto"
	"manifestgate/internal/domain"
	"manifestgate/internal/storage"
	pkgerrors "manifestgate/pkg/errors"
)

func newExportFixture(t *testing.T) (*ExportService, *lifecycleFixture, *crypto.Cipher) {
	t.Helper()
	f := newLifecycleFixture(t)

	cipher, err := crypto.New(strings.Repeat("ab", 32))
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	ledger := audit.NewLedger(f.audits, storage.NewInMemoryUserStore(), log, nil)

	exp := NewExportService(f.manifests, f.passengers, f.sailings, cipher, ledger, nil)
	return exp, f, cipher
}

func (f *lifecycleFixture) approvedManifest(t *testing.T) domain.Manifest {
	t.Helper()
	m, err := f.svc.Generate(f.ctx, f.sailing.ID)
	require.NoError(t, err)
	m, err = f.svc.Approve(f.ctx, m.ID, "")
	require.NoError(t, err)
	return m
}

func TestExportService_CSV(t *testing.T) {
	exp, f, cipher := newExportFixture(t)
	number, err := cipher.Encrypt("P1234567")
	require.NoError(t, err)
	f.addPassenger(t, func(p *domain.Passenger) {
		p.DocumentNumber = number
	})
	m := f.approvedManifest(t)

	before := len(f.audits.All())
	res, err := exp.Export(f.ctx, ExportRequest{ManifestID: m.ID, Format: domain.ExportCSV, Jurisdiction: "FI"})
	require.NoError(t, err)

	assert.Equal(t, "text/csv", res.ContentType)
	assert.Equal(t, 1, res.Records)

	records, err := csv.NewReader(strings.NewReader(string(res.Data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "family_name", records[0][0])
	assert.Contains(t, records[1], "P1234567", "export carries the plaintext document number")

	entries := f.audits.All()
	require.Len(t, entries, before+1)
	last := entries[len(entries)-1]
	assert.Equal(t, domain.ActionDataExport, last.Action)
	assert.Equal(t, true, last.After["success"])
	assert.Contains(t, last.Reason, "FI")
}

func TestExportService_XML(t *testing.T) {
	exp, f, cipher := newExportFixture(t)
	number, err := cipher.Encrypt("P7654321")
	require.NoError(t, err)
	f.addPassenger(t, func(p *domain.Passenger) { p.DocumentNumber = number })
	m := f.approvedManifest(t)

	res, err := exp.Export(f.ctx, ExportRequest{ManifestID: m.ID, Format: domain.ExportXML, Jurisdiction: "EE"})
	require.NoError(t, err)

	assert.Equal(t, "application/xml", res.ContentType)
	assert.Contains(t, string(res.Data), "<PassengerManifest")
	assert.Contains(t, string(res.Data), "<DocumentNumber>P7654321</DocumentNumber>")
}

func TestExportService_RejectsDraft(t *testing.T) {
	exp, f, _ := newExportFixture(t)
	f.addPassenger(t, nil)
	m, err := f.svc.Generate(f.ctx, f.sailing.ID)
	require.NoError(t, err)

	_, err = exp.Export(f.ctx, ExportRequest{ManifestID: m.ID, Format: domain.ExportCSV})
	assert.Equal(t, pkgerrors.CodeInvalidState, pkgerrors.CodeOf(err))

	entries := f.audits.All()
	last := entries[len(entries)-1]
	assert.Equal(t, domain.ActionDataExport, last.Action, "failed exports are audited too")
	assert.Equal(t, false, last.After["success"])
}

func TestExportService_InvalidFormat(t *testing.T) {
	exp, f, _ := newExportFixture(t)
	f.addPassenger(t, nil)
	m := f.approvedManifest(t)

	_, err := exp.Export(f.ctx, ExportRequest{ManifestID: m.ID, Format: "docx"})
	assert.Equal(t, pkgerrors.CodeBadRequest, pkgerrors.CodeOf(err))

	_, err = exp.Export(f.ctx, ExportRequest{ManifestID: m.ID, Format: domain.ExportPDF})
	assert.Equal(t, pkgerrors.CodeBadRequest, pkgerrors.CodeOf(err), "no PDF renderer registered")
}
