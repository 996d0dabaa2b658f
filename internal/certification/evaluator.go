// Package certification validates certificate freshness and required-type
// coverage for assigned crew roles, and owns the certificate intake rules.
package certification

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"manifestgate/internal/domain"
)

const (
	// Expiry inside these windows is reported as tiered severities; only a
	// certificate already past the reference date blocks compliance.
	criticalWindow = 7 * 24 * time.Hour
	warningWindow  = 30 * 24 * time.Hour
)

// Violation codes surfaced by Evaluate.
const (
	ViolationCertExpired     = "CERT_EXPIRED"
	ViolationCertExpiring    = "CERT_EXPIRING"
	ViolationCertMissing     = "MISSING_REQUIRED_CERTIFICATE"
	ViolationCertNotUsable   = "CERT_NOT_USABLE"
)

// requiredByRole maps each assigned rank to the certificate types that must
// be present and current. Data, not conditionals: new ranks are table rows.
var requiredByRole = map[domain.Rank][]domain.CertificationType{
	domain.RankMaster: {
		domain.CertCertificateOfCompetency, domain.CertBasicSafetyTraining,
		domain.CertMedicalFitness, domain.CertGMDSSOperator, domain.CertCrowdManagement,
	},
	domain.RankChiefOfficer: {
		domain.CertCertificateOfCompetency, domain.CertBasicSafetyTraining,
		domain.CertMedicalFitness, domain.CertCrowdManagement,
	},
	domain.RankSecondOfficer: {
		domain.CertCertificateOfCompetency, domain.CertBasicSafetyTraining,
		domain.CertMedicalFitness, domain.CertCrowdManagement,
	},
	domain.RankThirdOfficer: {
		domain.CertCertificateOfCompetency, domain.CertBasicSafetyTraining,
		domain.CertMedicalFitness, domain.CertCrowdManagement,
	},
	domain.RankBosun: {
		domain.CertBasicSafetyTraining, domain.CertMedicalFitness, domain.CertSecurityAwareness,
	},
	domain.RankAbleSeaman: {
		domain.CertBasicSafetyTraining, domain.CertMedicalFitness, domain.CertSecurityAwareness,
	},
	domain.RankOrdinarySeaman: {
		domain.CertBasicSafetyTraining, domain.CertMedicalFitness, domain.CertSecurityAwareness,
	},
	domain.RankChiefEngineer: {
		domain.CertCertificateOfCompetency, domain.CertBasicSafetyTraining,
		domain.CertMedicalFitness, domain.CertEngineRoomResource, domain.CertAdvancedFirefighting,
	},
	domain.RankSecondEngineer: {
		domain.CertCertificateOfCompetency, domain.CertBasicSafetyTraining,
		domain.CertMedicalFitness, domain.CertEngineRoomResource,
	},
	domain.RankThirdEngineer: {
		domain.CertCertificateOfCompetency, domain.CertBasicSafetyTraining,
		domain.CertMedicalFitness, domain.CertEngineRoomResource,
	},
	domain.RankMotorman: {
		domain.CertBasicSafetyTraining, domain.CertMedicalFitness,
	},
	domain.RankChiefSteward: {
		domain.CertBasicSafetyTraining, domain.CertMedicalFitness, domain.CertCrowdManagement,
	},
	domain.RankSteward: {
		domain.CertBasicSafetyTraining, domain.CertMedicalFitness, domain.CertCrowdManagement,
	},
	domain.RankCook: {
		domain.CertBasicSafetyTraining, domain.CertMedicalFitness, domain.CertFoodHygiene,
	},
}

// RequiredTypes exposes the required-certificate table for a role.
func RequiredTypes(role domain.Rank) []domain.CertificationType {
	row := requiredByRole[role]
	out := make([]domain.CertificationType, len(row))
	copy(out, row)
	return out
}

// Finding is a single evaluation observation. Severity ERROR blocks
// compliance; CRITICAL and WARNING are advisory expiry tiers.
type Finding struct {
	CertificationID uuid.UUID
	Type            domain.CertificationType
	Severity        domain.Severity
	Code            string
	Message         string
}

// Result aggregates findings for one crew member.
type Result struct {
	Compliant bool
	Findings  []Finding
}

// Errors filters the blocking findings.
func (r Result) Errors() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == domain.SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// Evaluate checks every held certificate against the reference date and the
// required-type coverage for the member's assigned role. Pure function; the
// caller supplies the clock.
func Evaluate(member domain.CrewMember, ref time.Time) Result {
	result := Result{Compliant: true}

	usableCurrent := map[domain.CertificationType]bool{}
	for _, cert := range member.Certifications {
		if cert.Status == domain.CertStatusRevoked {
			result.Findings = append(result.Findings, Finding{
				CertificationID: cert.ID,
				Type:            cert.Type,
				Severity:        domain.SeverityError,
				Code:            ViolationCertNotUsable,
				Message:         fmt.Sprintf("certificate %s is revoked", cert.Type),
			})
			result.Compliant = false
			continue
		}

		switch remaining := cert.ExpiryDate.Sub(ref); {
		case remaining <= 0:
			result.Findings = append(result.Findings, Finding{
				CertificationID: cert.ID,
				Type:            cert.Type,
				Severity:        domain.SeverityError,
				Code:            ViolationCertExpired,
				Message:         fmt.Sprintf("certificate %s expired on %s", cert.Type, cert.ExpiryDate.Format("2006-01-02")),
			})
			result.Compliant = false
		case remaining <= criticalWindow:
			usableCurrent[cert.Type] = true
			result.Findings = append(result.Findings, Finding{
				CertificationID: cert.ID,
				Type:            cert.Type,
				Severity:        domain.SeverityCritical,
				Code:            ViolationCertExpiring,
				Message:         fmt.Sprintf("certificate %s expires within 7 days (%s)", cert.Type, cert.ExpiryDate.Format("2006-01-02")),
			})
		case remaining <= warningWindow:
			usableCurrent[cert.Type] = true
			result.Findings = append(result.Findings, Finding{
				CertificationID: cert.ID,
				Type:            cert.Type,
				Severity:        domain.SeverityWarning,
				Code:            ViolationCertExpiring,
				Message:         fmt.Sprintf("certificate %s expires within 30 days (%s)", cert.Type, cert.ExpiryDate.Format("2006-01-02")),
			})
		default:
			usableCurrent[cert.Type] = true
		}
	}

	for _, required := range requiredByRole[member.Role] {
		if usableCurrent[required] {
			continue
		}
		result.Findings = append(result.Findings, Finding{
			Type:     required,
			Severity: domain.SeverityError,
			Code:     ViolationCertMissing,
			Message:  fmt.Sprintf("role %s requires a current %s certificate", member.Role, required),
		})
		result.Compliant = false
	}

	return result
}
