package resources_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tta-core/internal/dice"
	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/resources"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/skills"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

type OrchestratorTestSuite struct {
	suite.Suite
	ctx  context.Context
	repo truth.Repository
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = truth.NewInMemory()
}

func (s *OrchestratorTestSuite) newService(rolls ...int) resources.Service {
	return s.newServiceWithConfig(&resources.Config{}, rolls...)
}

func (s *OrchestratorTestSuite) newServiceWithConfig(cfg *resources.Config, rolls ...int) resources.Service {
	roller, err := dice.NewRoller(&dice.RollerConfig{
		Provider: dice.NewScriptedProvider(rolls...),
	})
	s.Require().NoError(err)

	skillSvc, err := skills.NewOrchestrator(&skills.Config{Roller: roller})
	s.Require().NoError(err)

	cfg.Roller = roller
	cfg.Skills = skillSvc
	cfg.TruthRepo = s.repo
	cfg.IDGen = idgen.NewSequential("res")

	svc, err := resources.NewOrchestrator(cfg)
	s.Require().NoError(err)
	return svc
}

func (s *OrchestratorTestSuite) character(id string, level int) *entities.Entity {
	e := &entities.Entity{
		ID:         id,
		UniverseID: "uni_prime",
		Type:       entities.EntityCharacter,
		Name:       id,
		Character: &entities.CharacterStats{
			HP: 20, HPMax: 20, AC: 14, Level: level,
			HitDieType: "d10", HitDiceMax: level, HitDiceCurrent: level,
			Abilities: map[entities.AbilityScore]int{
				entities.STR: 14, entities.DEX: 12, entities.CON: 14,
				entities.INT: 10, entities.WIS: 10, entities.CHA: 10,
			},
			Resources: &entities.ResourcePool{
				Pool:      &entities.StressMomentumPool{StressMax: 10, MomentumMax: 5},
				Solo:      &entities.SoloCombatState{},
				DefyDeath: &entities.DefyDeathState{},
				UsageDice: map[string]*entities.UsageDie{},
				Cooldowns: map[string]*entities.CooldownTracker{},
			},
		},
	}
	_, err := s.repo.SaveEntity(s.ctx, &truth.SaveEntityInput{Entity: e})
	s.Require().NoError(err)
	return e
}

func (s *OrchestratorTestSuite) mook(id string, hitDice, hp int) *entities.Entity {
	e := &entities.Entity{
		ID:         id,
		UniverseID: "uni_prime",
		Type:       entities.EntityCharacter,
		Name:       id,
		Character: &entities.CharacterStats{
			HP: hp, HPMax: hp, AC: 13, Level: hitDice, HitDice: hitDice,
			Abilities: map[entities.AbilityScore]int{
				entities.STR: 10, entities.DEX: 10, entities.CON: 10,
				entities.INT: 10, entities.WIS: 10, entities.CHA: 10,
			},
		},
	}
	_, err := s.repo.SaveEntity(s.ctx, &truth.SaveEntityInput{Entity: e})
	s.Require().NoError(err)
	return e
}

func torch() *entities.UsageDie {
	return &entities.UsageDie{Name: "torch", Current: entities.UsageD6, Initial: entities.UsageD6}
}

func (s *OrchestratorTestSuite) TestUsageDieDegradesOnLow() {
	svc := s.newService(2)
	hero := s.character("ent_hero", 3)
	hero.Character.Resources.UsageDice["torch"] = torch()

	out, err := svc.RollUsageDie(s.ctx, &resources.UsageDieInput{
		UniverseID: "uni_prime", Entity: hero, Name: "torch",
	})
	s.Require().NoError(err)

	s.Equal(2, out.Roll)
	s.True(out.Degraded)
	s.False(out.Depleted)
	s.Equal(entities.UsageD4, hero.Character.Resources.UsageDice["torch"].Current)
}

func (s *OrchestratorTestSuite) TestUsageDieSurvivesHighRoll() {
	svc := s.newService(5)
	hero := s.character("ent_hero", 3)
	hero.Character.Resources.UsageDice["torch"] = torch()

	out, err := svc.RollUsageDie(s.ctx, &resources.UsageDieInput{
		UniverseID: "uni_prime", Entity: hero, Name: "torch",
	})
	s.Require().NoError(err)

	s.False(out.Degraded)
	s.Equal(entities.UsageD6, hero.Character.Resources.UsageDice["torch"].Current)
}

func (s *OrchestratorTestSuite) TestDepletedUsageDieCannotRoll() {
	svc := s.newService()
	hero := s.character("ent_hero", 3)
	spent := torch()
	spent.Current = entities.UsageDepleted
	hero.Character.Resources.UsageDice["torch"] = spent

	_, err := svc.RollUsageDie(s.ctx, &resources.UsageDieInput{
		UniverseID: "uni_prime", Entity: hero, Name: "torch",
	})
	s.Require().Error(err)
	s.True(errors.IsInsufficientResource(err))
}

// A degraded torch survives a short rest unchanged and only a long rest
// restores it to full size.
func (s *OrchestratorTestSuite) TestUsageDieRestoredOnlyByLongRest() {
	// torch d6 rolls 2 and degrades to d4
	svc := s.newService(2)
	hero := s.character("ent_hero", 3)
	hero.Character.Resources.UsageDice["torch"] = torch()

	_, err := svc.RollUsageDie(s.ctx, &resources.UsageDieInput{
		UniverseID: "uni_prime", Entity: hero, Name: "torch",
	})
	s.Require().NoError(err)
	s.Equal(entities.UsageD4, hero.Character.Resources.UsageDice["torch"].Current)

	_, err = svc.TakeRest(s.ctx, &resources.RestInput{
		UniverseID: "uni_prime", Entity: hero, Kind: entities.RestShort,
	})
	s.Require().NoError(err)
	s.Equal(entities.UsageD4, hero.Character.Resources.UsageDice["torch"].Current)

	_, err = svc.TakeRest(s.ctx, &resources.RestInput{
		UniverseID: "uni_prime", Entity: hero, Kind: entities.RestLong,
	})
	s.Require().NoError(err)
	s.Equal(entities.UsageD6, hero.Character.Resources.UsageDice["torch"].Current)
}

func (s *OrchestratorTestSuite) TestCooldownUseAndRecharge() {
	svc := s.newService(5)
	hero := s.character("ent_hero", 3)
	hero.Character.Resources.Cooldowns["breath"] = &entities.CooldownTracker{
		Name: "breath", CurrentUses: 1, MaxUses: 1, RechargeOn: []int{5, 6},
	}

	used, err := svc.UseCooldown(s.ctx, &resources.UseCooldownInput{
		UniverseID: "uni_prime", Entity: hero, Name: "breath",
	})
	s.Require().NoError(err)
	s.Equal(0, used.Remaining)

	_, err = svc.UseCooldown(s.ctx, &resources.UseCooldownInput{
		UniverseID: "uni_prime", Entity: hero, Name: "breath",
	})
	s.Require().Error(err)
	s.True(errors.IsInsufficientResource(err))

	recharged, err := svc.TryRecharge(s.ctx, &resources.RechargeInput{
		UniverseID: "uni_prime", Entity: hero, Name: "breath",
	})
	s.Require().NoError(err)
	s.Equal(5, recharged.Roll)
	s.True(recharged.Recharged)
	s.Equal(1, recharged.Remaining)
}

func (s *OrchestratorTestSuite) TestRechargeSkippedWhenFull() {
	svc := s.newService()
	hero := s.character("ent_hero", 3)
	hero.Character.Resources.Cooldowns["breath"] = &entities.CooldownTracker{
		Name: "breath", CurrentUses: 1, MaxUses: 1, RechargeOn: []int{5, 6},
	}

	out, err := svc.TryRecharge(s.ctx, &resources.RechargeInput{
		UniverseID: "uni_prime", Entity: hero, Name: "breath",
	})
	s.Require().NoError(err)
	s.Equal(0, out.Roll)
	s.False(out.Recharged)
}

func (s *OrchestratorTestSuite) TestBreakingPointFiresExactlyOnce() {
	svc := s.newService()
	hero := s.character("ent_hero", 3)

	out, err := svc.AddStress(s.ctx, &resources.AddStressInput{
		UniverseID: "uni_prime", Entity: hero, Amount: 10,
	})
	s.Require().NoError(err)
	s.Equal(10, out.Stress)
	s.True(out.BreakingPoint)
	s.Len(out.EventIDs, 1)

	// Already at max; the latch keeps the event from firing again
	again, err := svc.AddStress(s.ctx, &resources.AddStressInput{
		UniverseID: "uni_prime", Entity: hero, Amount: 3,
	})
	s.Require().NoError(err)
	s.Equal(0, again.Applied)
	s.False(again.BreakingPoint)
	s.Empty(again.EventIDs)

	log, err := s.repo.ListEvents(s.ctx, &truth.ListEventsInput{UniverseID: "uni_prime"})
	s.Require().NoError(err)
	count := 0
	for _, evt := range log.Events {
		if evt.Type == entities.EventBreakingPoint {
			count++
		}
	}
	s.Equal(1, count)
}

func (s *OrchestratorTestSuite) TestBreakingPointLatchClearsOnLongRest() {
	svc := s.newService()
	hero := s.character("ent_hero", 3)

	first, err := svc.AddStress(s.ctx, &resources.AddStressInput{
		UniverseID: "uni_prime", Entity: hero, Amount: 10,
	})
	s.Require().NoError(err)
	s.True(first.BreakingPoint)

	_, err = svc.TakeRest(s.ctx, &resources.RestInput{
		UniverseID: "uni_prime", Entity: hero, Kind: entities.RestLong,
	})
	s.Require().NoError(err)
	s.Equal(0, hero.Character.Resources.Pool.Stress)
	s.False(hero.Character.Resources.Pool.BreakingPointHit)

	second, err := svc.AddStress(s.ctx, &resources.AddStressInput{
		UniverseID: "uni_prime", Entity: hero, Amount: 10,
	})
	s.Require().NoError(err)
	s.True(second.BreakingPoint)
}

func (s *OrchestratorTestSuite) TestSpendSlotForAbility() {
	svc := s.newService()
	hero := s.character("ent_hero", 3)
	hero.Character.Resources.SpellSlots = map[int]*entities.SpellSlotLevel{
		1: {Current: 1, Max: 2},
	}
	ability := &entities.Ability{
		ID: "abl_shield", Name: "Shield",
		Mechanism:        entities.MechanismSlots,
		MechanismDetails: entities.MechanismDetails{SlotLevel: 1},
	}

	out, err := svc.SpendForAbility(s.ctx, &resources.SpendInput{
		UniverseID: "uni_prime", Entity: hero, Ability: ability,
	})
	s.Require().NoError(err)
	s.Equal(entities.MechanismSlots, out.Mechanism)
	s.Equal(0, hero.Character.Resources.SpellSlots[1].Current)

	_, err = svc.SpendForAbility(s.ctx, &resources.SpendInput{
		UniverseID: "uni_prime", Entity: hero, Ability: ability,
	})
	s.Require().Error(err)
	s.True(errors.IsInsufficientResource(err))
}

func (s *OrchestratorTestSuite) TestSpendMomentumForAbility() {
	svc := s.newService()
	hero := s.character("ent_hero", 3)
	hero.Character.Resources.Pool.Momentum = 2
	ability := &entities.Ability{
		ID: "abl_surge", Name: "Surge",
		Mechanism:        entities.MechanismMomentum,
		MechanismDetails: entities.MechanismDetails{MomentumCost: 2},
	}

	out, err := svc.SpendForAbility(s.ctx, &resources.SpendInput{
		UniverseID: "uni_prime", Entity: hero, Ability: ability,
	})
	s.Require().NoError(err)
	s.Equal("2 momentum", out.Detail)
	s.Equal(0, hero.Character.Resources.Pool.Momentum)
}

func (s *OrchestratorTestSuite) TestShortRestSpendsHitDice() {
	// two hit dice roll 7 and 3, CON +2 each; then stress relief rolls 3
	svc := s.newService(7, 3, 3)
	hero := s.character("ent_hero", 3)
	hero.Character.HP = 5
	hero.Character.Resources.Pool.Stress = 5

	out, err := svc.TakeRest(s.ctx, &resources.RestInput{
		UniverseID: "uni_prime", Entity: hero, Kind: entities.RestShort, HitDice: 2,
	})
	s.Require().NoError(err)

	s.Equal(14, out.HPRecovered) // (7+2) + (3+2)
	s.Equal(2, out.HitDiceSpent)
	s.Equal(19, hero.Character.HP)
	s.Equal(1, hero.Character.HitDiceCurrent)
	s.Equal(3, out.StressRelieved)
	s.Equal(2, hero.Character.Resources.Pool.Stress)
}

func (s *OrchestratorTestSuite) TestShortRestCapsAtAvailableHitDice() {
	svc := s.newService(4)
	hero := s.character("ent_hero", 3)
	hero.Character.HP = 10
	hero.Character.HitDiceCurrent = 1

	out, err := svc.TakeRest(s.ctx, &resources.RestInput{
		UniverseID: "uni_prime", Entity: hero, Kind: entities.RestShort, HitDice: 5,
	})
	s.Require().NoError(err)
	s.Equal(1, out.HitDiceSpent)
	s.Equal(0, hero.Character.HitDiceCurrent)
}

func (s *OrchestratorTestSuite) TestLongRestRestoresEverything() {
	svc := s.newService()
	hero := s.character("ent_hero", 6)
	hero.Character.HP = 5
	hero.Character.HitDiceCurrent = 0
	hero.Character.Exhaustion = 2
	hero.Character.Resources.Pool.Stress = 6
	hero.Character.Resources.SpellSlots = map[int]*entities.SpellSlotLevel{
		1: {Current: 0, Max: 3},
	}
	hero.Character.Resources.DefyDeath.UsesThisRest = 2

	out, err := svc.TakeRest(s.ctx, &resources.RestInput{
		UniverseID: "uni_prime", Entity: hero, Kind: entities.RestLong,
	})
	s.Require().NoError(err)

	s.Equal(15, out.HPRecovered)
	s.Equal(20, hero.Character.HP)
	s.Equal(3, hero.Character.HitDiceCurrent) // half of six back
	s.Equal(6, out.StressRelieved)
	s.Equal(0, hero.Character.Resources.Pool.Stress)
	s.Equal(3, out.SlotsRestored[1])
	s.Equal(0, hero.Character.Resources.DefyDeath.UsesThisRest)
	s.Equal(1, hero.Character.Exhaustion)
}

func (s *OrchestratorTestSuite) TestLongRestReturnsAtLeastOneHitDie() {
	svc := s.newService()
	hero := s.character("ent_hero", 1)
	hero.Character.HitDiceCurrent = 0

	_, err := svc.TakeRest(s.ctx, &resources.RestInput{
		UniverseID: "uni_prime", Entity: hero, Kind: entities.RestLong,
	})
	s.Require().NoError(err)
	s.Equal(1, hero.Character.HitDiceCurrent)
}

// A sixth-level fighter's d8 fray die lands on the one-hit-die goblin, not
// the four-hit-die hobgoblin, and a 7 kills it outright.
func (s *OrchestratorTestSuite) TestFrayDieKillsLowestHitDiceEnemy() {
	svc := s.newService(7)
	hero := s.character("ent_hero", 6)
	goblin := s.mook("ent_goblin", 1, 7)
	hobgoblin := s.mook("ent_hobgoblin", 4, 11)

	out, err := svc.StartSoloRound(s.ctx, &resources.SoloRoundInput{
		UniverseID: "uni_prime",
		Actor:      hero,
		Enemies:    []*entities.Entity{hobgoblin, goblin},
		Round:      1,
	})
	s.Require().NoError(err)

	s.Equal(1, out.MomentumGained)
	s.Equal("1d8", out.FrayDie)
	s.Equal(7, out.FrayRoll)
	s.Equal("ent_goblin", out.FrayTargetID)
	s.True(out.FrayKill)
	s.Equal(0, goblin.Character.HP)
	s.True(goblin.Character.Dead)
	s.Equal(11, hobgoblin.Character.HP)
	s.Require().Len(out.EventIDs, 1)

	evt, err := s.repo.GetEvent(s.ctx, &truth.GetEventInput{EventID: out.EventIDs[0]})
	s.Require().NoError(err)
	s.Equal(entities.EventCombatRound, evt.Event.Type)
	s.Equal(entities.OutcomeHit, evt.Event.Outcome)
	s.Equal("ent_goblin", evt.Event.TargetID)
	s.Equal(true, evt.Event.Payload["target_death"])
}

func (s *OrchestratorTestSuite) TestFraySkipsEnemiesAboveActorLevel() {
	svc := s.newService(6)
	hero := s.character("ent_hero", 3)
	ogre := s.mook("ent_ogre", 7, 30)

	out, err := svc.StartSoloRound(s.ctx, &resources.SoloRoundInput{
		UniverseID: "uni_prime",
		Actor:      hero,
		Enemies:    []*entities.Entity{ogre},
		Round:      1,
	})
	s.Require().NoError(err)
	s.Empty(out.FrayTargetID)
	s.Equal(30, ogre.Character.HP)
}

func (s *OrchestratorTestSuite) TestSoloRoundResetsActionEconomy() {
	svc := s.newService(3)
	hero := s.character("ent_hero", 2)
	solo := hero.Character.Resources.Solo
	solo.ActionUsed = true
	solo.BonusUsed = true
	solo.HeroicUsed = true
	solo.DamageThisRound = 9

	_, err := svc.StartSoloRound(s.ctx, &resources.SoloRoundInput{
		UniverseID: "uni_prime", Actor: hero, Round: 2,
	})
	s.Require().NoError(err)
	s.Equal(2, solo.Round)
	s.False(solo.ActionUsed)
	s.False(solo.BonusUsed)
	s.False(solo.HeroicUsed)
	s.Equal(0, solo.DamageThisRound)
}

func (s *OrchestratorTestSuite) TestDefyDeathSuccess() {
	// CON save d20 = 15, +2 CON = 17 vs DC 10 + 4 damage = 14
	svc := s.newService(15)
	hero := s.character("ent_hero", 4)
	hero.Character.HP = 2
	hero.Character.Resources.Solo.DamageThisRound = 4

	out, err := svc.DefyDeath(s.ctx, &resources.DefyDeathInput{
		UniverseID: "uni_prime", Entity: hero,
	})
	s.Require().NoError(err)

	s.True(out.Attempted)
	s.True(out.Success)
	s.Equal(14, out.DC)
	s.Equal(2, out.UsesRemaining)
	s.Equal(1, hero.Character.HP)
	s.Equal(1, hero.Character.Exhaustion)
	s.NotEmpty(out.EventID)
}

func (s *OrchestratorTestSuite) TestDefyDeathDCEscalatesWithUses() {
	// second use this rest: DC 10 + 4 damage + 5 = 19; d20 = 15 + 2 fails
	svc := s.newService(15)
	hero := s.character("ent_hero", 4)
	hero.Character.HP = 2
	hero.Character.Resources.Solo.DamageThisRound = 4
	hero.Character.Resources.DefyDeath.UsesThisRest = 1

	out, err := svc.DefyDeath(s.ctx, &resources.DefyDeathInput{
		UniverseID: "uni_prime", Entity: hero,
	})
	s.Require().NoError(err)

	s.True(out.Attempted)
	s.False(out.Success)
	s.Equal(19, out.DC)
	s.Equal(0, hero.Character.HP)
}

func (s *OrchestratorTestSuite) TestDefyDeathIncludesIncomingDamage() {
	svc := s.newService(20)
	hero := s.character("ent_hero", 4)
	hero.Character.Resources.Solo.DamageThisRound = 3

	out, err := svc.DefyDeath(s.ctx, &resources.DefyDeathInput{
		UniverseID: "uni_prime", Entity: hero, IncomingDamage: 6,
	})
	s.Require().NoError(err)
	s.Equal(19, out.DC) // 10 + 3 + 6
}

func (s *OrchestratorTestSuite) TestDefyDeathExhaustedWithoutRolling() {
	svc := s.newService()
	hero := s.character("ent_hero", 4)
	hero.Character.Resources.DefyDeath.UsesThisRest = 3

	out, err := svc.DefyDeath(s.ctx, &resources.DefyDeathInput{
		UniverseID: "uni_prime", Entity: hero,
	})
	s.Require().NoError(err)
	s.False(out.Attempted)
	s.Nil(out.Save)
	s.Empty(out.EventID)
}

func (s *OrchestratorTestSuite) TestHeroicActionCostsMomentum() {
	svc := s.newService()
	hero := s.character("ent_hero", 4)
	hero.Character.Resources.Pool.Momentum = 2

	out, err := svc.HeroicAction(s.ctx, &resources.HeroicActionInput{
		UniverseID: "uni_prime", Entity: hero,
	})
	s.Require().NoError(err)
	s.Equal(resources.HeroicCostMomentum, out.Cost)
	s.Equal(1, hero.Character.Resources.Pool.Momentum)
	s.True(hero.Character.Resources.Solo.HeroicUsed)

	_, err = svc.HeroicAction(s.ctx, &resources.HeroicActionInput{
		UniverseID: "uni_prime", Entity: hero,
	})
	s.Require().Error(err)
	s.True(errors.IsRuleViolation(err))
}

func (s *OrchestratorTestSuite) TestHeroicActionWithoutMomentumFails() {
	svc := s.newService()
	hero := s.character("ent_hero", 4)

	_, err := svc.HeroicAction(s.ctx, &resources.HeroicActionInput{
		UniverseID: "uni_prime", Entity: hero,
	})
	s.Require().Error(err)
	s.True(errors.IsInsufficientResource(err))
}

func (s *OrchestratorTestSuite) TestHeroicActionStressMode() {
	// 1d4 = 3 stress
	svc := s.newServiceWithConfig(&resources.Config{HeroicCost: resources.HeroicCostStress}, 3)
	hero := s.character("ent_hero", 4)

	out, err := svc.HeroicAction(s.ctx, &resources.HeroicActionInput{
		UniverseID: "uni_prime", Entity: hero,
	})
	s.Require().NoError(err)
	s.Equal(resources.HeroicCostStress, out.Cost)
	s.Equal(3, out.StressTaken)
	s.Equal(3, hero.Character.Resources.Pool.Stress)
}

func TestFrayDieScalesWithLevel(t *testing.T) {
	cases := map[int]string{
		1: "1d6", 4: "1d6",
		5: "1d8", 8: "1d8",
		9: "1d10", 12: "1d10",
		13: "1d12", 20: "1d12",
	}
	for level, want := range cases {
		if got := resources.FrayDie(level); got != want {
			t.Errorf("FrayDie(%d) = %s, want %s", level, got, want)
		}
	}
}

func TestValidationErrors(t *testing.T) {
	_, err := resources.NewOrchestrator(&resources.Config{})
	if err == nil {
		t.Fatal("expected validation error for empty config")
	}
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
