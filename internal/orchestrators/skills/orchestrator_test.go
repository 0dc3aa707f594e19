package skills_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tta-core/internal/dice"
	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/skills"
)

type OrchestratorTestSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
}

// newService builds a skills service whose d20s and damage dice come out in
// the scripted order
func (s *OrchestratorTestSuite) newService(rolls ...int) skills.Service {
	roller, err := dice.NewRoller(&dice.RollerConfig{
		Provider: dice.NewScriptedProvider(rolls...),
	})
	s.Require().NoError(err)

	svc, err := skills.NewOrchestrator(&skills.Config{Roller: roller})
	s.Require().NoError(err)
	return svc
}

func fighter() *entities.Entity {
	return &entities.Entity{
		ID:         "ent_fighter",
		UniverseID: "uni_prime",
		Type:       entities.EntityCharacter,
		Name:       "Brennan",
		Character: &entities.CharacterStats{
			HP: 24, HPMax: 24, AC: 16, Level: 3,
			Abilities: map[entities.AbilityScore]int{
				entities.STR: 16, entities.DEX: 12, entities.CON: 14,
				entities.INT: 10, entities.WIS: 10, entities.CHA: 12,
			},
			SkillProfs:  []string{"athletics", "intimidation"},
			SaveProfs:   []entities.AbilityScore{entities.STR, entities.CON},
			WeaponProfs: []string{"longsword"},
		},
	}
}

func longsword() *entities.Entity {
	return &entities.Entity{
		ID:         "itm_longsword",
		UniverseID: "uni_prime",
		Type:       entities.EntityItem,
		Name:       "longsword",
		Item: &entities.ItemStats{
			DamageDice: "1d8",
			DamageType: "slashing",
			Active:     true,
		},
	}
}

func target(ac int) *entities.Entity {
	return &entities.Entity{
		ID:         "ent_bandit",
		UniverseID: "uni_prime",
		Type:       entities.EntityCharacter,
		Name:       "Bandit",
		Character: &entities.CharacterStats{
			HP: 11, HPMax: 11, AC: ac, Level: 1,
			Abilities: map[entities.AbilityScore]int{
				entities.STR: 11, entities.DEX: 12, entities.CON: 12,
				entities.INT: 10, entities.WIS: 10, entities.CHA: 10,
			},
		},
	}
}

func (s *OrchestratorTestSuite) TestCriticalAttack() {
	// STR 16 (+3), proficient (+2), longsword 1d8 vs AC 14.
	// Natural 20 crits: damage dice rolled twice, 5 and 7, plus 3.
	svc := s.newService(20, 5, 7)

	out, err := svc.Attack(s.ctx, &skills.AttackInput{
		Attacker: fighter(),
		Target:   target(14),
		Weapon:   longsword(),
	})
	s.Require().NoError(err)

	s.True(out.Hit)
	s.True(out.Critical)
	s.False(out.Fumble)
	s.Equal(20, out.AttackRoll)
	s.Equal(25, out.TotalAttack)
	s.Equal(15, out.Damage)
	s.Equal("slashing", out.DamageType)
	s.Equal(entities.OutcomeStrongHit, out.Outcome)
}

func (s *OrchestratorTestSuite) TestNaturalOneMissesDespiteTotal() {
	svc := s.newService(1)

	out, err := svc.Attack(s.ctx, &skills.AttackInput{
		Attacker: fighter(),
		Target:   target(2),
		Weapon:   longsword(),
	})
	s.Require().NoError(err)

	s.False(out.Hit)
	s.True(out.Fumble)
	s.Zero(out.Damage)
	s.Equal(entities.OutcomeMiss, out.Outcome)
}

func (s *OrchestratorTestSuite) TestNaturalTwentyHitsDespiteAC() {
	svc := s.newService(20, 3, 3)

	out, err := svc.Attack(s.ctx, &skills.AttackInput{
		Attacker: fighter(),
		Target:   target(30),
		Weapon:   longsword(),
	})
	s.Require().NoError(err)
	s.True(out.Hit)
	s.True(out.Critical)
}

func (s *OrchestratorTestSuite) TestCoverRaisesAC() {
	// Roll 10 + 5 = 15 vs AC 14: hit without cover, miss behind half cover
	svc := s.newService(10, 4)
	out, err := svc.Attack(s.ctx, &skills.AttackInput{
		Attacker: fighter(),
		Target:   target(14),
		Weapon:   longsword(),
	})
	s.Require().NoError(err)
	s.True(out.Hit)

	svc = s.newService(10)
	out, err = svc.Attack(s.ctx, &skills.AttackInput{
		Attacker: fighter(),
		Target:   target(14),
		Weapon:   longsword(),
		Cover:    skills.CoverHalf,
	})
	s.Require().NoError(err)
	s.False(out.Hit)
	s.Equal(16, out.TargetAC)
}

func (s *OrchestratorTestSuite) TestParalyzedTargetAutoCritsOnMeleeHit() {
	svc := s.newService(10, 4, 4)

	out, err := svc.Attack(s.ctx, &skills.AttackInput{
		Attacker:         fighter(),
		Target:           target(10),
		Weapon:           longsword(),
		TargetConditions: []entities.ConditionType{entities.ConditionParalyzed},
		// paralyzed also grants advantage; cancel it to keep one scripted d20
		Advantage: entities.Disadvantage,
	})
	s.Require().NoError(err)
	s.True(out.Hit)
	s.True(out.Critical)
	s.Equal(11, out.Damage)
}

func (s *OrchestratorTestSuite) TestAdvantageKeepsHighest() {
	svc := s.newService(3, 17)

	out, err := svc.Attack(s.ctx, &skills.AttackInput{
		Attacker:  fighter(),
		Target:    target(14),
		Weapon:    longsword(),
		Advantage: entities.Advantage,
	})
	s.Require().NoError(err)
	s.Equal(17, out.AttackRoll)
	s.True(out.Hit)
}

func (s *OrchestratorTestSuite) TestBlessAddsAttackDice() {
	// Roll 8 +5 = 13 vs AC 14 misses; with bless d4 = 2 it hits
	svc := s.newService(8, 2, 6)

	out, err := svc.Attack(s.ctx, &skills.AttackInput{
		Attacker:        fighter(),
		Target:          target(14),
		Weapon:          longsword(),
		AttackBonusDice: []string{"1d4"},
	})
	s.Require().NoError(err)
	s.True(out.Hit)
	s.Equal(15, out.TotalAttack)
}

func (s *OrchestratorTestSuite) TestPersuasionMissBand() {
	// CHA +1, not proficient, DC 15, d20 = 5: total 6, margin -9, MISS
	svc := s.newService(5)

	out, err := svc.Check(s.ctx, &skills.CheckInput{
		Entity: fighter(),
		Skill:  "persuasion",
		DC:     15,
	})
	s.Require().NoError(err)

	s.False(out.Success)
	s.Equal(5, out.Roll)
	s.Equal(6, out.Total)
	s.Equal(-9, out.Margin)
	s.Equal(entities.OutcomeMiss, out.Outcome)
}

func (s *OrchestratorTestSuite) TestProficientCheckStrongHit() {
	// athletics: STR +3, proficiency +2, roll 15 vs DC 15 -> margin 5
	svc := s.newService(15)

	out, err := svc.Check(s.ctx, &skills.CheckInput{
		Entity: fighter(),
		Skill:  "athletics",
		DC:     15,
	})
	s.Require().NoError(err)
	s.True(out.Success)
	s.Equal(20, out.Total)
	s.Equal(entities.OutcomeStrongHit, out.Outcome)
}

func (s *OrchestratorTestSuite) TestUnknownSkillIsBadInput() {
	svc := s.newService(10)

	_, err := svc.Check(s.ctx, &skills.CheckInput{
		Entity: fighter(),
		Skill:  "basketweaving",
		DC:     10,
	})
	s.True(errors.IsBadInput(err))
}

func (s *OrchestratorTestSuite) TestSaveProficiency() {
	// CON save: +2 mod, +2 proficiency, roll 10 vs DC 14
	svc := s.newService(10)

	out, err := svc.Save(s.ctx, &skills.SaveInput{
		Entity:  fighter(),
		Ability: entities.CON,
		DC:      14,
	})
	s.Require().NoError(err)
	s.True(out.Success)
	s.Equal(14, out.Total)
}

func (s *OrchestratorTestSuite) TestParalyzedAutoFailsDexSave() {
	svc := s.newService(20)

	out, err := svc.Save(s.ctx, &skills.SaveInput{
		Entity:     fighter(),
		Ability:    entities.DEX,
		DC:         10,
		Conditions: []entities.ConditionType{entities.ConditionParalyzed},
	})
	s.Require().NoError(err)
	s.False(out.Success)
	s.True(out.AutoFail)
}

func (s *OrchestratorTestSuite) TestStressPenaltyAppliesToSaves() {
	// WIS save +0, stress 4 gives -1: roll 11 vs DC 11 fails
	hero := fighter()
	hero.Character.Resources = &entities.ResourcePool{
		Pool: &entities.StressMomentumPool{Stress: 4, StressMax: 10, MomentumMax: 5},
	}
	svc := s.newService(11)

	out, err := svc.Save(s.ctx, &skills.SaveInput{
		Entity:  hero,
		Ability: entities.WIS,
		DC:      11,
	})
	s.Require().NoError(err)
	s.False(out.Success)
	s.Equal(10, out.Total)
}

func (s *OrchestratorTestSuite) TestSkillAbilityTable() {
	ability, ok := skills.SkillAbility("stealth")
	s.True(ok)
	s.Equal(entities.DEX, ability)

	ability, ok = skills.SkillAbility("religion")
	s.True(ok)
	s.Equal(entities.INT, ability)

	_, ok = skills.SkillAbility("piloting")
	s.False(ok)
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
