package content_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tta-core/internal/content"
	"github.com/KirkDiggler/tta-core/internal/entities"
)

type LibraryTestSuite struct {
	suite.Suite
	lib *content.Library
}

func (s *LibraryTestSuite) SetupTest() {
	lib, err := content.NewLibrary()
	s.Require().NoError(err)
	s.lib = lib
}

func (s *LibraryTestSuite) TestEmbeddedCatalogueLoads() {
	s.NotEmpty(s.lib.Abilities())
	for _, a := range s.lib.Abilities() {
		s.NoError(a.Validate(), "ability %s", a.ID)
	}
}

func (s *LibraryTestSuite) TestLookupByID() {
	fireball, ok := s.lib.Ability("ability_fireball")
	s.Require().True(ok)
	s.Equal("Fireball", fireball.Name)
	s.Equal(entities.SourceMagic, fireball.Source)
	s.Equal(entities.MechanismSlots, fireball.Mechanism)
	s.Equal(3, fireball.MechanismDetails.SlotLevel)
	s.Require().NotNil(fireball.Damage)
	s.Equal("8d6", fireball.Damage.Dice)
	s.Equal(entities.DEX, fireball.Damage.SaveAbility)
	s.True(fireball.Damage.HalfOnSave)
	s.Equal(entities.TargetAreaSphere, fireball.Targeting.Type)
	s.Equal(20, fireball.Targeting.AreaFt)

	_, ok = s.lib.Ability("ability_wish")
	s.False(ok)
}

func (s *LibraryTestSuite) TestEveryMechanismRepresented() {
	seen := map[entities.Mechanism]bool{}
	for _, a := range s.lib.Abilities() {
		seen[a.Mechanism] = true
	}
	for _, m := range []entities.Mechanism{
		entities.MechanismSlots,
		entities.MechanismCooldown,
		entities.MechanismUsageDie,
		entities.MechanismStress,
		entities.MechanismMomentum,
		entities.MechanismFree,
	} {
		s.True(seen[m], "no ability uses mechanism %s", m)
	}
}

func (s *LibraryTestSuite) TestConditionAbilityConverts() {
	dart, ok := s.lib.Ability("ability_snare_dart")
	s.Require().True(ok)
	s.Require().NotNil(dart.Condition)
	s.Equal(entities.ConditionRestrained, dart.Condition.Condition)
	s.Equal(entities.DurationUntilSave, dart.Condition.DurationType)
	s.Equal(entities.STR, dart.Condition.SaveAbility)
	s.Equal(13, dart.Condition.SaveDC)
}

func (s *LibraryTestSuite) TestConcentrationModifierConverts() {
	bless, ok := s.lib.Ability("ability_bless")
	s.Require().True(ok)
	s.True(bless.RequiresConcentration)
	s.Require().Len(bless.Modifiers, 1)
	s.Equal("attack", bless.Modifiers[0].Stat)
	s.Equal("1d4", bless.Modifiers[0].Dice)
	s.Equal(entities.ModifierBonus, bless.Modifiers[0].Type)
	s.Equal(entities.TargetMultiple, bless.Targeting.Type)
	s.Equal(3, bless.Targeting.MaxCount)
}

func (s *LibraryTestSuite) TestRejectsDuplicateIDs() {
	_, err := content.ParseLibrary([]byte(`
abilities:
  - id: ability_dup
    name: First
    source: magic
    mechanism: free
    damage: {dice: 1d4}
    targeting: {type: single}
  - id: ability_dup
    name: Second
    source: magic
    mechanism: free
    damage: {dice: 1d4}
    targeting: {type: single}
`))
	s.Require().Error(err)
	s.Contains(err.Error(), "duplicate ability id")
}

func (s *LibraryTestSuite) TestRejectsInvalidAbility() {
	// no effect block at all
	_, err := content.ParseLibrary([]byte(`
abilities:
  - id: ability_empty
    name: Empty
    source: magic
    mechanism: free
    targeting: {type: single}
`))
	s.Require().Error(err)
	s.Contains(err.Error(), "ability_empty")
}

func (s *LibraryTestSuite) TestRejectsMalformedYAML() {
	_, err := content.ParseLibrary([]byte("abilities: [unclosed"))
	s.Error(err)
}

func TestLibrarySuite(t *testing.T) {
	suite.Run(t, new(LibraryTestSuite))
}
