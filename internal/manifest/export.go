package manifest

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/google/uuid"

	"manifestgate/internal/audit"
	"manifestgate/internal/crypto"
	"manifestgate/internal/domain"
	"manifestgate/internal/platform/metrics"
	"manifestgate/internal/storage"
	pkgerrors "manifestgate/pkg/errors"
)

// ExportRequest describes one export of a manifest for handover to an
// authority. Jurisdiction is free-form context recorded on the audit trail.
type ExportRequest struct {
	ManifestID   uuid.UUID
	Format       domain.ExportFormat
	Jurisdiction string
}

// ExportResult carries the rendered document.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	Records     int
}

// Renderer turns a manifest's passenger rows into one output encoding.
type Renderer interface {
	Render(sailing domain.Sailing, rows []ExportRow) ([]byte, error)
	ContentType() string
}

// ExportRow is one passenger line as it appears on the handed-over document.
// DocumentNumber is plaintext here: exports exist to give the authority the
// real numbers, and every export is written to the ledger.
type ExportRow struct {
	FamilyName        string
	GivenName         string
	Nationality       string
	DateOfBirth       string
	DocumentType      string
	DocumentNumber    string
	DocumentExpiry    string
	PortOfEmbarkation string
	PortOfDebarkation string
}

// ExportService renders manifests for handover. Every call lands on the
// audit ledger with the record count, including calls that fail.
type ExportService struct {
	manifests  storage.ManifestStore
	passengers storage.PassengerStore
	sailings   storage.SailingStore
	cipher     *crypto.Cipher
	ledger     *audit.Ledger
	metrics    *metrics.Metrics
	renderers  map[domain.ExportFormat]Renderer
}

func NewExportService(
	manifests storage.ManifestStore,
	passengers storage.PassengerStore,
	sailings storage.SailingStore,
	cipher *crypto.Cipher,
	ledger *audit.Ledger,
	m *metrics.Metrics,
) *ExportService {
	return &ExportService{
		manifests:  manifests,
		passengers: passengers,
		sailings:   sailings,
		cipher:     cipher,
		ledger:     ledger,
		metrics:    m,
		renderers: map[domain.ExportFormat]Renderer{
			domain.ExportCSV: csvRenderer{},
			domain.ExportXML: xmlRenderer{},
		},
	}
}

// RegisterRenderer plugs in an additional output encoding, such as a PDF or
// XLSX renderer provided by the deployment.
func (s *ExportService) RegisterRenderer(format domain.ExportFormat, r Renderer) {
	s.renderers[format] = r
}

// Export renders the manifest in the requested format. Only APPROVED and
// SUBMITTED manifests may leave the system.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (ExportResult, error) {
	result, records, err := s.export(ctx, req)

	entry := audit.Entry{
		EntityType: domain.EntityManifest,
		EntityID:   req.ManifestID.String(),
		Action:     domain.ActionDataExport,
		Reason:     fmt.Sprintf("manifest export, jurisdiction %q", req.Jurisdiction),
		After: map[string]any{
			"format":  string(req.Format),
			"records": records,
			"success": err == nil,
		},
	}
	if err != nil {
		entry.After["error"] = err.Error()
	}
	s.ledger.Log(ctx, entry)

	if err == nil && s.metrics != nil {
		s.metrics.ObserveExport(string(req.Format))
	}
	return result, err
}

func (s *ExportService) export(ctx context.Context, req ExportRequest) (ExportResult, int, error) {
	if !domain.ValidExportFormat(req.Format) {
		return ExportResult{}, 0, pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid export request", []pkgerrors.Violation{{
			Field: "format", Code: "UNSUPPORTED_FORMAT",
			Message: fmt.Sprintf("format %q is not one of csv, xml, pdf, xlsx", req.Format),
		}})
	}
	renderer, ok := s.renderers[req.Format]
	if !ok {
		return ExportResult{}, 0, pkgerrors.New(pkgerrors.CodeBadRequest,
			fmt.Sprintf("no renderer configured for format %q", req.Format))
	}

	manifest, err := s.manifests.FindManifest(ctx, req.ManifestID)
	if err != nil {
		return ExportResult{}, 0, pkgerrors.New(pkgerrors.CodeNotFound, "manifest not found")
	}
	if !manifest.Frozen() {
		return ExportResult{}, 0, pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("manifest is %s, export requires APPROVED or SUBMITTED", manifest.Status))
	}
	sailing, err := s.sailings.FindSailing(ctx, manifest.SailingID)
	if err != nil {
		return ExportResult{}, 0, pkgerrors.New(pkgerrors.CodeNotFound, "sailing not found")
	}

	rows := make([]ExportRow, 0, len(manifest.PassengerIDs))
	for _, id := range manifest.PassengerIDs {
		p, err := s.passengers.FindPassenger(ctx, id)
		if err != nil {
			return ExportResult{}, 0, err
		}
		number, err := s.cipher.Decrypt(p.DocumentNumber)
		if err != nil {
			return ExportResult{}, 0, pkgerrors.New(pkgerrors.CodeInternal,
				fmt.Sprintf("passenger %s document number could not be decrypted", p.ID))
		}
		rows = append(rows, ExportRow{
			FamilyName:        p.FamilyName,
			GivenName:         p.GivenName,
			Nationality:       p.Nationality,
			DateOfBirth:       p.DateOfBirth.Format("2006-01-02"),
			DocumentType:      string(p.DocumentType),
			DocumentNumber:    number,
			DocumentExpiry:    formatDate(p.DocumentExpiry),
			PortOfEmbarkation: p.PortOfEmbarkation,
			PortOfDebarkation: p.PortOfDebarkation,
		})
	}

	data, err := renderer.Render(sailing, rows)
	if err != nil {
		return ExportResult{}, len(rows), err
	}
	return ExportResult{
		Filename:    fmt.Sprintf("manifest-%s.%s", manifest.ID, req.Format),
		ContentType: renderer.ContentType(),
		Data:        data,
		Records:     len(rows),
	}, len(rows), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

type csvRenderer struct{}

func (csvRenderer) ContentType() string { return "text/csv" }

func (csvRenderer) Render(sailing domain.Sailing, rows []ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{
		"family_name", "given_name", "nationality", "date_of_birth",
		"document_type", "document_number", "document_expiry",
		"port_of_embarkation", "port_of_debarkation",
	}); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.FamilyName, r.GivenName, r.Nationality, r.DateOfBirth,
			r.DocumentType, r.DocumentNumber, r.DocumentExpiry,
			r.PortOfEmbarkation, r.PortOfDebarkation,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

type xmlRenderer struct{}

func (xmlRenderer) ContentType() string { return "application/xml" }

type xmlManifest struct {
	XMLName       xml.Name `xml:"PassengerManifest"`
	SailingID     string   `xml:"sailingId,attr"`
	DepartureTime string   `xml:"departureTime,attr"`
	Passengers    []xmlPassenger
}

type xmlPassenger struct {
	XMLName           xml.Name `xml:"Passenger"`
	FamilyName        string   `xml:"FamilyName"`
	GivenName         string   `xml:"GivenName"`
	Nationality       string   `xml:"Nationality"`
	DateOfBirth       string   `xml:"DateOfBirth"`
	DocumentType      string   `xml:"DocumentType"`
	DocumentNumber    string   `xml:"DocumentNumber"`
	DocumentExpiry    string   `xml:"DocumentExpiry,omitempty"`
	PortOfEmbarkation string   `xml:"PortOfEmbarkation"`
	PortOfDebarkation string   `xml:"PortOfDebarkation"`
}

func (xmlRenderer) Render(sailing domain.Sailing, rows []ExportRow) ([]byte, error) {
	doc := xmlManifest{
		SailingID:     sailing.ID.String(),
		DepartureTime: sailing.DepartureTime.UTC().Format(time.RFC3339),
	}
	for _, r := range rows {
		doc.Passengers = append(doc.Passengers, xmlPassenger{
			FamilyName:        r.FamilyName,
			GivenName:         r.GivenName,
			Nationality:       r.Nationality,
			DateOfBirth:       r.DateOfBirth,
			DocumentType:      r.DocumentType,
			DocumentNumber:    r.DocumentNumber,
			DocumentExpiry:    r.DocumentExpiry,
			PortOfEmbarkation: r.PortOfEmbarkation,
			PortOfDebarkation: r.PortOfDebarkation,
		})
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
