package manifest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manifestgate/internal/domain"
)

var sailingDate = time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)

func validPassenger() domain.Passenger {
	consent := time.Date(2026, 6, 20, 10, 0, 0, 0, time.UTC)
	return domain.Passenger{
		ID:                uuid.New(),
		SailingID:         uuid.New(),
		FamilyName:        "Lindqvist",
		GivenName:         "Maja",
		Nationality:       "SE",
		DateOfBirth:       time.Date(1991, 3, 14, 0, 0, 0, 0, time.UTC),
		DocumentType:      domain.DocPassport,
		DocumentNumber:    "ciphertext",
		DocumentExpiry:    time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC),
		PortOfEmbarkation: "SESTO",
		PortOfDebarkation: "FIHEL",
		Status:            domain.PassengerCheckedIn,
		ConsentAt:         &consent,
	}
}

func fieldsOf(errs []domain.ManifestValidationError) []string {
	var fields []string
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestValidator_ValidPassenger(t *testing.T) {
	errs := Validator{}.Validate([]domain.Passenger{validPassenger()}, sailingDate)
	assert.Empty(t, errs)
}

func TestValidator_RequiredFields(t *testing.T) {
	p := validPassenger()
	p.FamilyName = ""
	p.GivenName = ""
	p.Nationality = ""
	p.DateOfBirth = time.Time{}
	p.DocumentType = ""
	p.DocumentNumber = ""
	p.DocumentExpiry = time.Time{}
	p.PortOfEmbarkation = ""
	p.PortOfDebarkation = ""
	p.ConsentAt = nil

	errs := Validator{}.Validate([]domain.Passenger{p}, sailingDate)

	fields := fieldsOf(errs)
	for _, want := range []string{
		"familyName", "givenName", "nationality", "dateOfBirth",
		"documentType", "documentNumber", "documentExpiry",
		"portOfEmbarkation", "portOfDebarkation", "consentAt",
	} {
		assert.Contains(t, fields, want)
	}
	for _, e := range errs {
		assert.Equal(t, domain.SeverityError, e.Severity)
		assert.Equal(t, p.ID, e.PassengerID)
	}
}

func TestValidator_DocumentExpiry(t *testing.T) {
	t.Run("expires day of sailing", func(t *testing.T) {
		p := validPassenger()
		p.DocumentExpiry = sailingDate
		errs := Validator{}.Validate([]domain.Passenger{p}, sailingDate)
		require.Len(t, errs, 1)
		assert.Equal(t, "documentExpiry", errs[0].Field)
	})

	t.Run("expired before sailing", func(t *testing.T) {
		p := validPassenger()
		p.DocumentExpiry = sailingDate.AddDate(0, -1, 0)
		errs := Validator{}.Validate([]domain.Passenger{p}, sailingDate)
		require.Len(t, errs, 1)
		assert.Equal(t, "documentExpiry", errs[0].Field)
	})

	t.Run("expires after sailing", func(t *testing.T) {
		p := validPassenger()
		p.DocumentExpiry = sailingDate.AddDate(0, 0, 1)
		errs := Validator{}.Validate([]domain.Passenger{p}, sailingDate)
		assert.Empty(t, errs)
	})
}

func TestValidator_MinimumAge(t *testing.T) {
	v := Validator{MinimumAge: 16}

	t.Run("under the floor", func(t *testing.T) {
		p := validPassenger()
		p.DateOfBirth = sailingDate.AddDate(-16, 0, 1) // 16th birthday is tomorrow
		errs := v.Validate([]domain.Passenger{p}, sailingDate)
		require.Len(t, errs, 1)
		assert.Equal(t, "dateOfBirth", errs[0].Field)
	})

	t.Run("birthday on sailing day", func(t *testing.T) {
		p := validPassenger()
		p.DateOfBirth = time.Date(2010, 7, 1, 0, 0, 0, 0, time.UTC)
		errs := v.Validate([]domain.Passenger{p}, sailingDate)
		assert.Empty(t, errs)
	})

	t.Run("zero disables the floor", func(t *testing.T) {
		p := validPassenger()
		p.DateOfBirth = sailingDate.AddDate(-3, 0, 0)
		errs := Validator{}.Validate([]domain.Passenger{p}, sailingDate)
		assert.Empty(t, errs)
	})
}

func TestValidator_CollectsAcrossPassengers(t *testing.T) {
	first := validPassenger()
	first.FamilyName = ""
	second := validPassenger()
	second.ConsentAt = nil
	third := validPassenger()

	errs := Validator{}.Validate([]domain.Passenger{first, second, third}, sailingDate)

	require.Len(t, errs, 2)
	assert.Equal(t, first.ID, errs[0].PassengerID)
	assert.Equal(t, second.ID, errs[1].PassengerID)
}
