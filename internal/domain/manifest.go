package domain

import (
	"time"

	"github.com/google/uuid"
)

// ManifestStatus is the lifecycle state. Passenger entries freeze once the
// manifest reaches APPROVED and stay frozen through SUBMITTED.
type ManifestStatus string

const (
	ManifestDraft     ManifestStatus = "DRAFT"
	ManifestPending   ManifestStatus = "PENDING"
	ManifestApproved  ManifestStatus = "APPROVED"
	ManifestSubmitted ManifestStatus = "SUBMITTED"
	ManifestRejected  ManifestStatus = "REJECTED"
)

// ValidationStatus summarizes the field validator's verdict on a manifest.
type ValidationStatus string

const (
	ValidationValid   ValidationStatus = "VALID"
	ValidationInvalid ValidationStatus = "INVALID"
)

// Severity grades validation and certification findings. Only ERROR-level
// findings gate transitions; WARNING and CRITICAL are advisory tiers.
type Severity string

const (
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// ManifestValidationError is one recorded validation failure. Failures are
// data on the manifest, not exceptions: the operator sees and fixes them.
type ManifestValidationError struct {
	PassengerID uuid.UUID
	Field       string
	Message     string
	Severity    Severity
}

// Manifest is the passenger list prepared for one sailing.
type Manifest struct {
	ID               uuid.UUID
	SailingID        uuid.UUID
	Status           ManifestStatus
	ValidationStatus ValidationStatus
	PassengerIDs     []uuid.UUID // ordered as generated
	ValidationErrors []ManifestValidationError
	ApprovedBy       *uuid.UUID
	ApprovedAt       *time.Time
	ApprovalNotes    string
	SubmittedBy      *uuid.UUID
	SubmittedAt      *time.Time
	RejectedBy       *uuid.UUID
	RejectedAt       *time.Time
	RejectionReason  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Frozen reports whether the passenger set is immutable in the current state.
func (m Manifest) Frozen() bool {
	return m.Status == ManifestApproved || m.Status == ManifestSubmitted
}

// ExportFormat enumerates the supported manifest export encodings.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXML  ExportFormat = "xml"
	ExportPDF  ExportFormat = "pdf"
	ExportXLSX ExportFormat = "xlsx"
)

// ValidExportFormat reports membership in the closed format set.
func ValidExportFormat(f ExportFormat) bool {
	switch f {
	case ExportCSV, ExportXML, ExportPDF, ExportXLSX:
		return true
	}
	return false
}
