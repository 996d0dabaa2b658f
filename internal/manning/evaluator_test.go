package manning

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manifestgate/internal/domain"
)

func crewWith(ranks ...domain.Rank) []domain.CrewMember {
	crew := make([]domain.CrewMember, 0, len(ranks))
	for _, rank := range ranks {
		crew = append(crew, domain.CrewMember{ID: uuid.New(), Role: rank})
	}
	return crew
}

func docWith(roles ...domain.SafeManningRole) *domain.SafeManningDocument {
	return &domain.SafeManningDocument{
		ID:       uuid.New(),
		VesselID: uuid.New(),
		IssuedAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Roles:    roles,
	}
}

func TestEvaluate_CompliantWhenEveryRoleFulfillable(t *testing.T) {
	result := Evaluate(Input{
		Crew: crewWith(domain.RankMaster, domain.RankAbleSeaman, domain.RankAbleSeaman, domain.RankChiefEngineer),
		Document: docWith(
			domain.SafeManningRole{Role: domain.RankMaster, MinimumCount: 1},
			domain.SafeManningRole{Role: domain.RankAbleSeaman, MinimumCount: 2},
			domain.SafeManningRole{Role: domain.RankChiefEngineer, MinimumCount: 1},
		),
	})

	assert.True(t, result.Compliant)
	assert.Empty(t, result.Errors)
	// The master counts toward the able-seaman slot through substitution, on
	// top of the two rated seamen.
	assert.Equal(t, 3, result.FulfillableByRole[domain.RankAbleSeaman])
	assert.Equal(t, 2, result.ActualByRole[domain.RankAbleSeaman])
}

func TestEvaluate_ShortRoleProducesErrorWithBothCounts(t *testing.T) {
	result := Evaluate(Input{
		Crew: crewWith(domain.RankMaster, domain.RankAbleSeaman),
		Document: docWith(
			domain.SafeManningRole{Role: domain.RankMaster, MinimumCount: 1},
			domain.SafeManningRole{Role: domain.RankAbleSeaman, MinimumCount: 3},
		),
	})

	assert.False(t, result.Compliant)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ViolationInsufficientCrew, result.Errors[0].Code)
	assert.Equal(t, string(domain.RankAbleSeaman), result.Errors[0].Field)
	assert.Contains(t, result.Errors[0].Message, "requires 3")
	assert.Contains(t, result.Errors[0].Message, "fulfillable 2")
}

func TestEvaluate_AllShortRolesReported(t *testing.T) {
	// Compliance-gate errors carry the full list, never just the first.
	result := Evaluate(Input{
		Crew: crewWith(domain.RankOrdinarySeaman),
		Document: docWith(
			domain.SafeManningRole{Role: domain.RankMaster, MinimumCount: 1},
			domain.SafeManningRole{Role: domain.RankChiefEngineer, MinimumCount: 1},
			domain.SafeManningRole{Role: domain.RankCook, MinimumCount: 1},
		),
	})

	assert.False(t, result.Compliant)
	assert.Len(t, result.Errors, 3)
}

func TestEvaluate_SubstitutionCountsUpward(t *testing.T) {
	// A chief officer fills an able-seaman slot; the reverse never holds.
	result := Evaluate(Input{
		Crew: crewWith(domain.RankChiefOfficer),
		Document: docWith(
			domain.SafeManningRole{Role: domain.RankAbleSeaman, MinimumCount: 1},
		),
	})
	assert.True(t, result.Compliant)
	assert.Equal(t, 0, result.ActualByRole[domain.RankAbleSeaman])
	assert.Equal(t, 1, result.FulfillableByRole[domain.RankAbleSeaman])
	assert.NotEmpty(t, result.Warnings, "substitution-only fulfilment should warn")
}

func TestEvaluate_MemberCountsTowardMultipleRoles(t *testing.T) {
	// No slot exclusivity: one master counts for both requirements.
	result := Evaluate(Input{
		Crew: crewWith(domain.RankMaster),
		Document: docWith(
			domain.SafeManningRole{Role: domain.RankMaster, MinimumCount: 1},
			domain.SafeManningRole{Role: domain.RankChiefOfficer, MinimumCount: 1},
		),
	})
	assert.True(t, result.Compliant)
	assert.Equal(t, 1, result.FulfillableByRole[domain.RankMaster])
	assert.Equal(t, 1, result.FulfillableByRole[domain.RankChiefOfficer])
}

func TestEvaluate_SoftDeletedCrewExcluded(t *testing.T) {
	deletedAt := time.Now()
	crew := crewWith(domain.RankMaster)
	crew[0].DeletedAt = &deletedAt

	result := Evaluate(Input{
		Crew:     crew,
		Document: docWith(domain.SafeManningRole{Role: domain.RankMaster, MinimumCount: 1}),
	})
	assert.False(t, result.Compliant)
	assert.Equal(t, 0, result.FulfillableByRole[domain.RankMaster])
}

func TestEvaluate_DuplicateRolesMergeWithMax(t *testing.T) {
	result := Evaluate(Input{
		Crew: crewWith(domain.RankAbleSeaman, domain.RankAbleSeaman),
		Document: docWith(
			domain.SafeManningRole{Role: domain.RankAbleSeaman, MinimumCount: 1},
			domain.SafeManningRole{Role: domain.RankAbleSeaman, MinimumCount: 3},
			domain.SafeManningRole{Role: domain.RankAbleSeaman, MinimumCount: 2},
		),
	})

	assert.Equal(t, 3, result.Required[domain.RankAbleSeaman])
	assert.False(t, result.Compliant)
}

func TestEvaluate_ZeroRequirementsIsVacuouslyCompliant(t *testing.T) {
	result := Evaluate(Input{
		Crew:     crewWith(domain.RankMaster),
		Document: docWith(),
	})

	assert.True(t, result.Compliant)
	assert.Empty(t, result.Required)
	assert.Empty(t, result.Errors)
}

func TestEvaluate_MissingBothInputsIsAnError(t *testing.T) {
	result := Evaluate(Input{Crew: crewWith(domain.RankMaster)})

	assert.False(t, result.Compliant)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ViolationMissingInput, result.Errors[0].Code)
}

func TestEvaluate_DocumentTakesPrecedenceOverTonnage(t *testing.T) {
	// The fallback table for a large vessel would demand far more crew; the
	// authoritative document wins.
	result := Evaluate(Input{
		Crew:         crewWith(domain.RankMaster),
		GrossTonnage: 9000,
		Document:     docWith(domain.SafeManningRole{Role: domain.RankMaster, MinimumCount: 1}),
	})
	assert.True(t, result.Compliant)
	assert.Len(t, result.Required, 1)
}

func TestEvaluate_TonnageBuckets(t *testing.T) {
	tests := []struct {
		name      string
		tonnage   float64
		wantRoles int
	}{
		{name: "under 500GT", tonnage: 499, wantRoles: len(fallbackSmall)},
		{name: "exactly 500GT uses medium table", tonnage: 500, wantRoles: len(fallbackMedium)},
		{name: "3000GT still medium", tonnage: 3000, wantRoles: len(fallbackMedium)},
		{name: "over 3000GT", tonnage: 3001, wantRoles: len(fallbackLarge)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(Input{Crew: nil, GrossTonnage: tt.tonnage})
			assert.Len(t, result.Required, tt.wantRoles)
		})
	}
}
