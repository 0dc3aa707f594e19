package npc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/npc"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	"github.com/KirkDiggler/tta-core/internal/repositories/graph"
)

type OrchestratorTestSuite struct {
	suite.Suite
	ctx       context.Context
	graphRepo graph.Repository
	svc       npc.Service
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.graphRepo = graph.NewInMemory()

	svc, err := npc.NewOrchestrator(&npc.Config{
		GraphRepo: s.graphRepo,
		IDGen:     idgen.NewSequential("mem"),
	})
	s.Require().NoError(err)
	s.svc = svc
}

func (s *OrchestratorTestSuite) npcEntity(traits entities.PersonalityTraits, motivations ...entities.Motivation) *entities.Entity {
	return &entities.Entity{
		ID:         "ent_npc",
		UniverseID: "uni_prime",
		Type:       entities.EntityCharacter,
		Name:       "Guard",
		Character: &entities.CharacterStats{
			HP: 10, HPMax: 10, AC: 12, Level: 1,
			Abilities: map[entities.AbilityScore]int{
				entities.STR: 10, entities.DEX: 10, entities.CON: 10,
				entities.INT: 10, entities.WIS: 10, entities.CHA: 10,
			},
			NPC: &entities.NPCProfile{
				EntityID:    "ent_npc",
				Traits:      traits,
				Motivations: motivations,
			},
		},
	}
}

func neutralTraits() entities.PersonalityTraits {
	return entities.PersonalityTraits{
		Openness: 50, Conscientiousness: 50, Extraversion: 50,
		Agreeableness: 50, Neuroticism: 50,
	}
}

func (s *OrchestratorTestSuite) TestVengefulNPCAttacks() {
	e := s.npcEntity(neutralTraits(), entities.MotivationRevenge)

	out, err := s.svc.DecideAction(s.ctx, &npc.DecideInput{
		UniverseID: "uni_prime",
		NPC:        e,
		TargetID:   "ent_hero",
	})
	s.Require().NoError(err)
	s.Equal(entities.ActionAttack, out.Action)
	s.Len(out.Scores, len(entities.AllNPCActions()))
}

func (s *OrchestratorTestSuite) TestSurvivalInDangerFlees() {
	traits := neutralTraits()
	traits.Neuroticism = 90
	e := s.npcEntity(traits, entities.MotivationSurvival)

	out, err := s.svc.DecideAction(s.ctx, &npc.DecideInput{
		UniverseID:  "uni_prime",
		NPC:         e,
		TargetID:    "ent_hero",
		DangerLevel: 15,
	})
	s.Require().NoError(err)
	s.Equal(entities.ActionFlee, out.Action)
}

func (s *OrchestratorTestSuite) TestTrustedTargetGetsHelp() {
	traits := neutralTraits()
	traits.Agreeableness = 80
	e := s.npcEntity(traits, entities.MotivationDuty)

	out, err := s.svc.DecideAction(s.ctx, &npc.DecideInput{
		UniverseID: "uni_prime",
		NPC:        e,
		TargetID:   "ent_hero",
		Relationships: []*entities.Relationship{{
			ID: "rel_1", UniverseID: "uni_prime",
			FromID: e.ID, ToID: "ent_hero",
			Type: entities.RelKnows, Trust: 0.9,
		}},
	})
	s.Require().NoError(err)
	s.Equal(entities.ActionAssist, out.Action)
}

// With no direct history, faction standing acts as the trust prior.
func (s *OrchestratorTestSuite) TestFactionStandingColorsStrangers() {
	attackScore := func(reputation int) float64 {
		e := s.npcEntity(neutralTraits(), entities.MotivationPower)
		out, err := s.svc.DecideAction(s.ctx, &npc.DecideInput{
			UniverseID:       "uni_prime",
			NPC:              e,
			TargetID:         "ent_stranger",
			TargetReputation: reputation,
		})
		s.Require().NoError(err)
		for _, sc := range out.Scores {
			if sc.Action == entities.ActionAttack {
				return sc.Total
			}
		}
		return 0
	}

	s.Less(attackScore(0), attackScore(-50))
	s.Less(attackScore(50), attackScore(0))
}

func (s *OrchestratorTestSuite) TestDirectHistoryOutweighsStanding() {
	e := s.npcEntity(neutralTraits(), entities.MotivationDuty)

	out, err := s.svc.DecideAction(s.ctx, &npc.DecideInput{
		UniverseID:       "uni_prime",
		NPC:              e,
		TargetID:         "ent_hero",
		TargetReputation: -80,
		Relationships: []*entities.Relationship{{
			ID: "rel_1", UniverseID: "uni_prime",
			FromID: e.ID, ToID: "ent_hero",
			Type: entities.RelKnows, Trust: 0.9,
		}},
	})
	s.Require().NoError(err)
	s.Equal(entities.ActionAssist, out.Action)
}

func (s *OrchestratorTestSuite) TestFearedTargetDiscouragesAttack() {
	e := s.npcEntity(neutralTraits(), entities.MotivationPower)

	baseline, err := s.svc.DecideAction(s.ctx, &npc.DecideInput{
		UniverseID: "uni_prime", NPC: e, TargetID: "ent_dragon",
	})
	s.Require().NoError(err)

	afraid, err := s.svc.DecideAction(s.ctx, &npc.DecideInput{
		UniverseID: "uni_prime", NPC: e, TargetID: "ent_dragon",
		Relationships: []*entities.Relationship{{
			ID: "rel_1", UniverseID: "uni_prime",
			FromID: e.ID, ToID: "ent_dragon",
			Type: entities.RelFears, Strength: 1.0,
		}},
	})
	s.Require().NoError(err)

	attackScore := func(out *npc.DecideOutput) float64 {
		for _, sc := range out.Scores {
			if sc.Action == entities.ActionAttack {
				return sc.Total
			}
		}
		return 0
	}
	s.Less(attackScore(afraid), attackScore(baseline))
}

func (s *OrchestratorTestSuite) TestWoundsRaiseAttackRisk() {
	attackScore := func(hp int) npc.ActionScore {
		e := s.npcEntity(neutralTraits(), entities.MotivationPower)
		e.Character.HP = hp
		out, err := s.svc.DecideAction(s.ctx, &npc.DecideInput{
			UniverseID: "uni_prime", NPC: e, TargetID: "ent_hero",
		})
		s.Require().NoError(err)
		for _, sc := range out.Scores {
			if sc.Action == entities.ActionAttack {
				return sc
			}
		}
		s.FailNow("attack not scored")
		return npc.ActionScore{}
	}

	healthy := attackScore(10)
	wounded := attackScore(3) // under half

	s.InDelta(healthy.Risk+0.3, wounded.Risk, 0.001)
	s.Less(wounded.Total, healthy.Total)
}

// Flee and leave score identically for an incurious loner with no
// motivations; the lowest action id wins.
func (s *OrchestratorTestSuite) TestTieBreaksToLowestActionID() {
	e := s.npcEntity(entities.PersonalityTraits{
		Openness: 10, Conscientiousness: 10, Extraversion: 50,
		Agreeableness: 50, Neuroticism: 50,
	})

	out, err := s.svc.DecideAction(s.ctx, &npc.DecideInput{
		UniverseID: "uni_prime",
		NPC:        e,
	})
	s.Require().NoError(err)

	var flee, leave float64
	for _, sc := range out.Scores {
		switch sc.Action {
		case entities.ActionFlee:
			flee = sc.Total
		case entities.ActionLeave:
			leave = sc.Total
		}
	}
	s.InDelta(flee, leave, 0.0001)
	s.Equal(entities.ActionFlee, out.Action)
}

func (s *OrchestratorTestSuite) TestMissingProfileRejected() {
	e := s.npcEntity(neutralTraits())
	e.Character.NPC = nil

	_, err := s.svc.DecideAction(s.ctx, &npc.DecideInput{
		UniverseID: "uni_prime", NPC: e,
	})
	s.Require().Error(err)
}

func (s *OrchestratorTestSuite) TestFormMemoryFromCombat() {
	out, err := s.svc.FormMemory(s.ctx, &npc.FormMemoryInput{
		UniverseID: "uni_prime",
		NPCID:      "ent_npc",
		Event: &entities.Event{
			ID: "evt_1", UniverseID: "uni_prime",
			Type: entities.EventCombatRound, ActorID: "ent_hero",
			TargetID: "ent_npc", Outcome: entities.OutcomeStrongHit,
		},
		Summary: "the hero struck me down",
	})
	s.Require().NoError(err)

	s.True(out.Formed)
	s.InDelta(1.0, out.Salience, 0.001) // 0.5 + target +0.3 + combat +0.3, capped

	memories, err := s.graphRepo.ListMemories(s.ctx, &graph.ListMemoriesInput{
		UniverseID: "uni_prime", NPCID: "ent_npc",
	})
	s.Require().NoError(err)
	s.Require().Len(memories.Memories, 1)
	s.Equal("the hero struck me down", memories.Memories[0].Summary)
}

func (s *OrchestratorTestSuite) TestValidationErrors() {
	_, err := npc.NewOrchestrator(&npc.Config{})
	s.Require().Error(err)
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
