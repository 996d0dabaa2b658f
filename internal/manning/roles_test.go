package manning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"manifestgate/internal/domain"
)

// deck, engine, and steward chains ordered senior to junior. Tests walk these
// instead of re-stating the whole substitution table.
var (
	deckChain = []domain.Rank{
		domain.RankMaster, domain.RankChiefOfficer, domain.RankSecondOfficer,
		domain.RankThirdOfficer, domain.RankBosun, domain.RankAbleSeaman,
		domain.RankOrdinarySeaman,
	}
	engineChain = []domain.Rank{
		domain.RankChiefEngineer, domain.RankSecondEngineer,
		domain.RankThirdEngineer, domain.RankMotorman,
	}
)

func TestRoleMatches_Reflexive(t *testing.T) {
	for _, rank := range domain.Ranks() {
		assert.True(t, RoleMatches(rank, rank), "rank %s must satisfy its own requirement", rank)
	}
}

func TestRoleMatches_SeniorSatisfiesJunior(t *testing.T) {
	for _, chain := range [][]domain.Rank{deckChain, engineChain} {
		for i, senior := range chain {
			for _, junior := range chain[i+1:] {
				assert.True(t, RoleMatches(senior, junior),
					"%s should satisfy a requirement for %s", senior, junior)
			}
		}
	}
}

func TestRoleMatches_NeverFlowsDownward(t *testing.T) {
	for _, chain := range [][]domain.Rank{deckChain, engineChain} {
		for i, senior := range chain {
			for _, junior := range chain[i+1:] {
				assert.False(t, RoleMatches(junior, senior),
					"%s must never satisfy a requirement for %s", junior, senior)
			}
		}
	}
}

func TestRoleMatches_DepartmentsNeverCross(t *testing.T) {
	for _, deck := range deckChain {
		for _, engine := range engineChain {
			assert.False(t, RoleMatches(deck, engine))
			assert.False(t, RoleMatches(engine, deck))
		}
	}
	// A master cannot stand in for catering ratings either.
	assert.False(t, RoleMatches(domain.RankMaster, domain.RankCook))
	assert.False(t, RoleMatches(domain.RankChiefSteward, domain.RankAbleSeaman))
}

func TestRoleMatches_StewardDepartment(t *testing.T) {
	assert.True(t, RoleMatches(domain.RankChiefSteward, domain.RankSteward))
	assert.True(t, RoleMatches(domain.RankChiefSteward, domain.RankCook))
	assert.False(t, RoleMatches(domain.RankSteward, domain.RankChiefSteward))
	assert.False(t, RoleMatches(domain.RankCook, domain.RankSteward))
}

func TestRoleMatches_UnknownRank(t *testing.T) {
	assert.False(t, RoleMatches(domain.Rank("HARBOUR_PILOT"), domain.RankMaster))
	assert.False(t, RoleMatches(domain.RankMaster, domain.Rank("HARBOUR_PILOT")))
}

func TestSatisfyingRanks_EveryRankHasARow(t *testing.T) {
	for _, rank := range domain.Ranks() {
		row := SatisfyingRanks(rank)
		assert.NotEmpty(t, row, "rank %s has no substitution row", rank)
		assert.Equal(t, rank, row[0], "a row must start with the rank itself")
	}
}
