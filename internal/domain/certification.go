package domain

import (
	"time"

	"github.com/google/uuid"
)

// CertificationType identifies an STCW (or flag-equivalent) certificate class.
type CertificationType string

const (
	CertBasicSafetyTraining     CertificationType = "STCW_BASIC_SAFETY_TRAINING"
	CertCertificateOfCompetency CertificationType = "CERTIFICATE_OF_COMPETENCY"
	CertMedicalFitness          CertificationType = "MEDICAL_FITNESS"
	CertMedicalFirstAid         CertificationType = "MEDICAL_FIRST_AID"
	CertAdvancedFirefighting    CertificationType = "ADVANCED_FIREFIGHTING"
	CertGMDSSOperator           CertificationType = "GMDSS_OPERATOR"
	CertCrowdManagement         CertificationType = "CROWD_MANAGEMENT"
	CertSecurityAwareness       CertificationType = "SECURITY_AWARENESS"
	CertEngineRoomResource      CertificationType = "ENGINE_ROOM_RESOURCE_MGMT"
	CertFoodHygiene             CertificationType = "FOOD_HYGIENE"
)

// CertificationStatus tracks the verification lifecycle of a certificate.
// Revocation is terminal.
type CertificationStatus string

const (
	CertStatusValid               CertificationStatus = "VALID"
	CertStatusPendingVerification CertificationStatus = "PENDING_VERIFICATION"
	CertStatusRevoked             CertificationStatus = "REVOKED"
	CertStatusExpired             CertificationStatus = "EXPIRED"
)

// Certification is a certificate held by a crew member. ExpiryDate must be
// strictly in the future at creation time; that rule lives in the
// certification service, not here.
type Certification struct {
	ID               uuid.UUID
	CrewMemberID     uuid.UUID
	Type             CertificationType
	IssueDate        time.Time
	ExpiryDate       time.Time
	Status           CertificationStatus
	RevocationReason string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ExpiredAt reports whether the certificate is past expiry relative to the
// reference instant.
func (c Certification) ExpiredAt(ref time.Time) bool {
	return !c.ExpiryDate.After(ref)
}
