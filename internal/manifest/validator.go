// Package manifest owns the passenger-list validator, the manifest lifecycle
// state machine, and the audited export path.
package manifest

import (
	"fmt"
	"time"

	"manifestgate/internal/domain"
)

// Validator checks the IMO FAL Form 5 fields of each passenger against the
// sailing. Failures become ManifestValidationError rows on the manifest, not
// errors: the manifest is still created so operators can see and fix them.
type Validator struct {
	// MinimumAge in whole years at the sailing date; zero disables the floor.
	MinimumAge int
}

// Validate returns every finding across the passenger list. The list is
// complete, never truncated to the first failing passenger or field.
func (v Validator) Validate(passengers []domain.Passenger, sailingDate time.Time) []domain.ManifestValidationError {
	var errs []domain.ManifestValidationError
	for _, p := range passengers {
		errs = append(errs, v.validatePassenger(p, sailingDate)...)
	}
	return errs
}

func (v Validator) validatePassenger(p domain.Passenger, sailingDate time.Time) []domain.ManifestValidationError {
	var errs []domain.ManifestValidationError

	missing := func(field, label string) {
		errs = append(errs, domain.ManifestValidationError{
			PassengerID: p.ID,
			Field:       field,
			Message:     label + " is required",
			Severity:    domain.SeverityError,
		})
	}

	if p.FamilyName == "" {
		missing("familyName", "family name")
	}
	if p.GivenName == "" {
		missing("givenName", "given name")
	}
	if p.Nationality == "" {
		missing("nationality", "nationality")
	}
	if p.DateOfBirth.IsZero() {
		missing("dateOfBirth", "date of birth")
	}
	if p.DocumentType == "" {
		missing("documentType", "identity document type")
	}
	if p.DocumentNumber == "" {
		missing("documentNumber", "identity document number")
	}
	if p.PortOfEmbarkation == "" {
		missing("portOfEmbarkation", "port of embarkation")
	}
	if p.PortOfDebarkation == "" {
		missing("portOfDebarkation", "port of debarkation")
	}

	if p.DocumentExpiry.IsZero() {
		missing("documentExpiry", "identity document expiry")
	} else if !p.DocumentExpiry.After(sailingDate) {
		errs = append(errs, domain.ManifestValidationError{
			PassengerID: p.ID,
			Field:       "documentExpiry",
			Message: fmt.Sprintf("identity document expires %s, on or before the sailing date",
				p.DocumentExpiry.Format("2006-01-02")),
			Severity: domain.SeverityError,
		})
	}

	if p.ConsentAt == nil {
		errs = append(errs, domain.ManifestValidationError{
			PassengerID: p.ID,
			Field:       "consentAt",
			Message:     "data-processing consent is not recorded",
			Severity:    domain.SeverityError,
		})
	}

	if v.MinimumAge > 0 && !p.DateOfBirth.IsZero() {
		if yearsBetween(p.DateOfBirth, sailingDate) < v.MinimumAge {
			errs = append(errs, domain.ManifestValidationError{
				PassengerID: p.ID,
				Field:       "dateOfBirth",
				Message:     fmt.Sprintf("passenger is under the minimum unaccompanied age of %d", v.MinimumAge),
				Severity:    domain.SeverityError,
			})
		}
	}

	return errs
}

func yearsBetween(birth, at time.Time) int {
	years := at.Year() - birth.Year()
	anniversary := birth.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return years
}
