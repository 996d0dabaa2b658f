package jurisdiction

import (
	"context"
	"fmt"

	"manifestgate/internal/certification"
	"manifestgate/internal/domain"
	"manifestgate/internal/manning"
	"manifestgate/internal/storage"
	"manifestgate/pkg/requestcontext"
)

// FlagState is the base regime: the vessel's flag administration. It claims
// every sailing and judges safe manning.
type FlagState struct {
	vessels storage.VesselStore
}

func NewFlagState(vessels storage.VesselStore) *FlagState {
	return &FlagState{vessels: vessels}
}

func (f *FlagState) Name() string { return "FLAG_STATE" }

func (f *FlagState) TriggerPorts() []string { return nil }

func (f *FlagState) Evaluate(ctx context.Context, subject Subject) (Record, error) {
	in := manning.Input{Crew: subject.Crew, GrossTonnage: subject.Vessel.GrossTonnage}
	if doc, err := f.vessels.LatestManningDocument(ctx, subject.Vessel.ID); err == nil {
		in.Document = &doc
	}
	result := manning.Evaluate(in)

	record := Record{Jurisdiction: f.Name(), Status: StatusCompliant}
	for _, v := range result.Errors {
		record.Findings = append(record.Findings, v.Message)
	}
	record.Findings = append(record.Findings, result.Warnings...)
	switch {
	case len(result.Errors) > 0:
		record.Status = StatusNonCompliant
	case len(result.Warnings) > 0:
		record.Status = StatusWarning
	}
	return record, nil
}

// PassengerData models an advance-passenger-information regime: ports that
// require the full validated passenger list before arrival.
type PassengerData struct {
	ports []string
}

func NewPassengerData(triggerPorts []string) *PassengerData {
	return &PassengerData{ports: triggerPorts}
}

func (p *PassengerData) Name() string { return "PASSENGER_DATA" }

func (p *PassengerData) TriggerPorts() []string { return p.ports }

func (p *PassengerData) Evaluate(_ context.Context, subject Subject) (Record, error) {
	record := Record{Jurisdiction: p.Name(), Status: StatusCompliant}

	if subject.Manifest == nil {
		record.Status = StatusNonCompliant
		record.Findings = append(record.Findings, "no manifest has been generated for the sailing")
		return record, nil
	}
	m := subject.Manifest
	if m.ValidationStatus != domain.ValidationValid {
		record.Status = StatusNonCompliant
		record.Findings = append(record.Findings,
			fmt.Sprintf("manifest has %d unresolved validation errors", len(m.ValidationErrors)))
	}
	switch m.Status {
	case domain.ManifestApproved, domain.ManifestSubmitted:
	case domain.ManifestRejected:
		record.Status = StatusNonCompliant
		record.Findings = append(record.Findings, "manifest was rejected")
	default:
		if record.Status == StatusCompliant {
			record.Status = StatusWarning
		}
		record.Findings = append(record.Findings,
			fmt.Sprintf("manifest is still %s, approval required before arrival", m.Status))
	}
	return record, nil
}

// CrewCertificates models a port-state regime that inspects every active
// crew member's certification standing.
type CrewCertificates struct {
	ports []string
	certs storage.CertificationStore
}

func NewCrewCertificates(triggerPorts []string, certs storage.CertificationStore) *CrewCertificates {
	return &CrewCertificates{ports: triggerPorts, certs: certs}
}

func (c *CrewCertificates) Name() string { return "CREW_CERTIFICATES" }

func (c *CrewCertificates) TriggerPorts() []string { return c.ports }

func (c *CrewCertificates) Evaluate(ctx context.Context, subject Subject) (Record, error) {
	record := Record{Jurisdiction: c.Name(), Status: StatusCompliant}
	ref := requestcontext.Now(ctx)

	for _, member := range subject.Crew {
		if member.Deleted() {
			continue
		}
		certs, err := c.certs.ListCertificationsByCrewMember(ctx, member.ID)
		if err != nil {
			return Record{}, err
		}
		member.Certifications = certs
		result := certification.Evaluate(member, ref)
		for _, finding := range result.Findings {
			msg := fmt.Sprintf("%s: %s", member.FullName(), finding.Message)
			record.Findings = append(record.Findings, msg)
			switch finding.Severity {
			case domain.SeverityError:
				record.Status = StatusNonCompliant
			case domain.SeverityCritical, domain.SeverityWarning:
				if record.Status == StatusCompliant {
					record.Status = StatusWarning
				}
			}
		}
	}
	return record, nil
}
