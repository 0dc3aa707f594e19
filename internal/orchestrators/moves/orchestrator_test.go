package moves_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/tta-core/internal/clients/llm"
	llmmock "github.com/KirkDiggler/tta-core/internal/clients/llm/mock"
	"github.com/KirkDiggler/tta-core/internal/dice"
	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/moves"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	"github.com/KirkDiggler/tta-core/internal/repositories/graph"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

type OrchestratorTestSuite struct {
	suite.Suite
	ctx       context.Context
	truthRepo truth.Repository
	graphRepo graph.Repository
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.truthRepo = truth.NewInMemory()
	s.graphRepo = graph.NewInMemory()
}

func (s *OrchestratorTestSuite) newService(client llm.Client, rolls ...int) moves.Service {
	return s.newServiceWithGraph(client, s.graphRepo, rolls...)
}

func (s *OrchestratorTestSuite) newServiceWithGraph(client llm.Client, graphRepo graph.Repository, rolls ...int) moves.Service {
	roller, err := dice.NewRoller(&dice.RollerConfig{
		Provider: dice.NewScriptedProvider(rolls...),
	})
	s.Require().NoError(err)

	svc, err := moves.NewOrchestrator(&moves.Config{
		Roller:    roller,
		TruthRepo: s.truthRepo,
		GraphRepo: graphRepo,
		IDGen:     idgen.NewSequential("mv"),
		LLM:       client,
	})
	s.Require().NoError(err)
	return svc
}

func (s *OrchestratorTestSuite) actor() *entities.Entity {
	e := &entities.Entity{
		ID:         "ent_hero",
		UniverseID: "uni_prime",
		Type:       entities.EntityCharacter,
		Name:       "Hero",
		Character: &entities.CharacterStats{
			HP: 20, HPMax: 20, AC: 14, Level: 3,
			Abilities: map[entities.AbilityScore]int{
				entities.STR: 12, entities.DEX: 12, entities.CON: 12,
				entities.INT: 10, entities.WIS: 10, entities.CHA: 12,
			},
			Resources: &entities.ResourcePool{
				Pool: &entities.StressMomentumPool{StressMax: 10, Momentum: 3, MomentumMax: 5},
				Solo: &entities.SoloCombatState{},
			},
		},
	}
	_, err := s.truthRepo.SaveEntity(s.ctx, &truth.SaveEntityInput{Entity: e})
	s.Require().NoError(err)
	return e
}

func (s *OrchestratorTestSuite) tavern() *entities.Entity {
	e := &entities.Entity{
		ID:         "ent_tavern",
		UniverseID: "uni_prime",
		Type:       entities.EntityLocation,
		Name:       "The Rusty Flagon",
		Location:   &entities.LocationStats{DangerLevel: 3, Kind: "tavern"},
	}
	_, err := s.truthRepo.SaveEntity(s.ctx, &truth.SaveEntityInput{Entity: e})
	s.Require().NoError(err)
	return e
}

// Low danger with no prior warnings selects the first soft move.
func TestSelectMoveLowDanger(t *testing.T) {
	out := moves.SelectMove(&moves.SelectInput{DangerLevel: 3})
	if out.Move != entities.MoveShowDanger || out.IsHard {
		t.Fatalf("got %s hard=%v, want SHOW_DANGER soft", out.Move, out.IsHard)
	}
}

func TestSelectMoveEscalation(t *testing.T) {
	if out := moves.SelectMove(&moves.SelectInput{DangerLevel: 12}); !out.IsHard {
		t.Errorf("danger 12 should select a hard move, got %s", out.Move)
	}
	if out := moves.SelectMove(&moves.SelectInput{DangerLevel: 3, RecentSoftMoves: 2}); !out.IsHard {
		t.Errorf("two warnings should escalate, got %s", out.Move)
	}
	out := moves.SelectMove(&moves.SelectInput{DangerLevel: 15, InCombat: true})
	if out.Move != entities.MoveDealDamage {
		t.Errorf("combat hard move should be DEAL_DAMAGE, got %s", out.Move)
	}
}

func TestSelectMoveSoftRotation(t *testing.T) {
	second := moves.SelectMove(&moves.SelectInput{DangerLevel: 3, RecentSoftMoves: 1})
	if second.Move != entities.MoveOfferOpportunity {
		t.Errorf("second warning should be OFFER_OPPORTUNITY, got %s", second.Move)
	}
}

func (s *OrchestratorTestSuite) TestShowDangerIsNarrativeOnly() {
	svc := s.newService(nil, 1)
	out, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID:  "uni_prime",
		Move:        entities.MoveShowDanger,
		Actor:       s.actor(),
		Location:    s.tavern(),
		DangerLevel: 3,
	})
	s.Require().NoError(err)

	s.True(out.Success)
	s.NotEmpty(out.Narrative)
	s.Empty(out.EntitiesCreated)
	s.Require().Len(out.EventIDs, 1)

	evt, err := s.truthRepo.GetEvent(s.ctx, &truth.GetEventInput{EventID: out.EventIDs[0]})
	s.Require().NoError(err)
	s.Equal(entities.EventGMMove, evt.Event.Type)
	s.Equal("SHOW_DANGER", evt.Event.Payload["move"])
}

func (s *OrchestratorTestSuite) TestIntroduceNPCFromTemplates() {
	// all-ones script picks the first template entry and minimum traits
	svc := s.newService(nil, 1, 1, 1, 1, 1, 1, 1, 1, 1)
	tavern := s.tavern()

	out, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID:  "uni_prime",
		Move:        entities.MoveIntroduceNPC,
		Actor:       s.actor(),
		Location:    tavern,
		DangerLevel: 3,
	})
	s.Require().NoError(err)

	s.True(out.Success)
	s.True(out.UsedFallback)
	s.Require().Len(out.EntitiesCreated, 1)

	got, err := s.truthRepo.GetEntity(s.ctx, &truth.GetEntityInput{
		UniverseID: "uni_prime", EntityID: out.EntitiesCreated[0],
	})
	s.Require().NoError(err)
	s.Equal("Greta", got.Entity.Name)
	s.Equal(13, got.Entity.Character.HPMax) // 10 + danger
	s.Require().NotNil(got.Entity.Character.NPC)
	s.Equal(50, got.Entity.Character.NPC.Traits.Extraversion) // range minimum
	s.Contains(got.Entity.Character.NPC.Motivations, entities.MotivationWealth)

	rels, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: "uni_prime", FromID: out.EntitiesCreated[0], Type: entities.RelLocatedIn,
	})
	s.Require().NoError(err)
	s.Require().Len(rels.Relationships, 1)
	s.Equal(tavern.ID, rels.Relationships[0].ToID)
}

func (s *OrchestratorTestSuite) TestIntroduceNPCUsesModelReply() {
	client := llm.NewStatic(&llm.StaticConfig{StructuredReplies: []string{
		`{"name": "Vex the Quiet", "description": "a hooded courier", "role": "traveler",
		  "traits": {"openness": 70, "conscientiousness": 60, "extraversion": 20, "agreeableness": 45, "neuroticism": 55},
		  "motivations": ["duty", "safety"], "speech_style": "terse"}`,
	}})
	svc := s.newService(client)

	out, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID:  "uni_prime",
		Move:        entities.MoveIntroduceNPC,
		Actor:       s.actor(),
		Location:    s.tavern(),
		DangerLevel: 3,
	})
	s.Require().NoError(err)

	s.False(out.UsedFallback)
	got, err := s.truthRepo.GetEntity(s.ctx, &truth.GetEntityInput{
		UniverseID: "uni_prime", EntityID: out.EntitiesCreated[0],
	})
	s.Require().NoError(err)
	s.Equal("Vex the Quiet", got.Entity.Name)
	s.Equal(20, got.Entity.Character.NPC.Traits.Extraversion)
	s.Equal([]entities.Motivation{entities.MotivationDuty, entities.MotivationSafety},
		got.Entity.Character.NPC.Motivations)
}

func (s *OrchestratorTestSuite) TestIntroduceNPCFallsBackOnModelFailure() {
	// empty reply queue surfaces a timeout, so templates fill in
	client := llm.NewStatic(&llm.StaticConfig{})
	svc := s.newService(client, 1, 1, 1, 1, 1, 1, 1, 1, 1)

	out, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID:  "uni_prime",
		Move:        entities.MoveIntroduceNPC,
		Actor:       s.actor(),
		Location:    s.tavern(),
		DangerLevel: 3,
	})
	s.Require().NoError(err)
	s.True(out.UsedFallback)
	s.Len(out.EntitiesCreated, 1)
}

func (s *OrchestratorTestSuite) TestIntroduceNPCModelErrorFallsBack() {
	ctrl := gomock.NewController(s.T())
	client := llmmock.NewMockClient(ctrl)
	client.EXPECT().
		GenerateStructured(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.Timeout("model deadline expired"))

	svc := s.newService(client, 1, 1, 1, 1, 1, 1, 1, 1, 1)

	out, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID:  "uni_prime",
		Move:        entities.MoveIntroduceNPC,
		Actor:       s.actor(),
		Location:    s.tavern(),
		DangerLevel: 3,
	})
	s.Require().NoError(err)
	s.True(out.UsedFallback)
	s.Len(out.EntitiesCreated, 1)
}

func (s *OrchestratorTestSuite) TestDealDamageScalesAndResets() {
	// danger 3 rolls 1d4; scripted 3
	svc := s.newService(nil, 3)
	hero := s.actor()

	out, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID:  "uni_prime",
		Move:        entities.MoveDealDamage,
		Actor:       hero,
		DangerLevel: 3,
	})
	s.Require().NoError(err)

	s.Equal(17, hero.Character.HP)
	s.Equal(0, hero.Character.Resources.Pool.Momentum)
	s.Equal(3, hero.Character.Resources.Solo.DamageThisRound)
	s.Equal([]string{"ent_hero"}, out.EntitiesModified)
}

func (s *OrchestratorTestSuite) TestTakeAwayWithEmptyInventory() {
	svc := s.newService(nil)
	out, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID: "uni_prime",
		Move:       entities.MoveTakeAway,
		Actor:      s.actor(),
	})
	s.Require().NoError(err)
	s.True(out.Success)
	s.Empty(out.EntitiesModified)
}

func (s *OrchestratorTestSuite) TestTakeAwayMarksItemLost() {
	svc := s.newService(nil, 1)
	hero := s.actor()

	sword := &entities.Entity{
		ID:         "ent_sword",
		UniverseID: "uni_prime",
		Type:       entities.EntityItem,
		Name:       "longsword",
		Item:       &entities.ItemStats{DamageDice: "1d8", Active: true},
	}
	_, err := s.truthRepo.SaveEntity(s.ctx, &truth.SaveEntityInput{Entity: sword})
	s.Require().NoError(err)
	_, err = s.graphRepo.UpsertNode(s.ctx, &graph.UpsertNodeInput{Node: &graph.Node{
		ID: sword.ID, UniverseID: "uni_prime", Name: sword.Name, Type: entities.EntityItem,
	}})
	s.Require().NoError(err)
	_, err = s.graphRepo.CreateRelationship(s.ctx, &graph.CreateRelationshipInput{
		Relationship: &entities.Relationship{
			ID: "rel_carries", UniverseID: "uni_prime",
			FromID: hero.ID, ToID: sword.ID, Type: entities.RelCarries,
		},
	})
	s.Require().NoError(err)

	out, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID: "uni_prime",
		Move:       entities.MoveTakeAway,
		Actor:      hero,
		Inventory:  []*entities.Entity{sword},
	})
	s.Require().NoError(err)

	s.True(sword.Item.Lost)
	s.False(sword.Item.Active)
	s.Equal([]string{"ent_sword"}, out.EntitiesModified)

	rels, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: "uni_prime", FromID: hero.ID, Type: entities.RelCarries,
	})
	s.Require().NoError(err)
	s.Empty(rels.Relationships)

	log, err := s.truthRepo.ListEvents(s.ctx, &truth.ListEventsInput{UniverseID: "uni_prime"})
	s.Require().NoError(err)
	var lost bool
	for _, evt := range log.Events {
		if evt.Type == entities.EventItemLost {
			lost = true
		}
	}
	s.True(lost)
}

func (s *OrchestratorTestSuite) TestCaptureRelocatesActor() {
	svc := s.newService(nil, 1)
	hero := s.actor()

	out, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID:  "uni_prime",
		Move:        entities.MoveCapture,
		Actor:       hero,
		Location:    s.tavern(),
		DangerLevel: 8,
	})
	s.Require().NoError(err)

	s.Require().Len(out.EntitiesCreated, 1)
	s.Equal(out.EntitiesCreated[0], out.NewLocationID)
	s.Len(out.RelationshipsCreated, 2)

	located, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: "uni_prime", FromID: hero.ID, Type: entities.RelLocatedIn,
	})
	s.Require().NoError(err)
	s.Require().Len(located.Relationships, 1)
	s.Equal(out.NewLocationID, located.Relationships[0].ToID)

	trapped, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: "uni_prime", FromID: hero.ID, Type: entities.RelTrappedIn,
	})
	s.Require().NoError(err)
	s.Len(trapped.Relationships, 1)
}

func (s *OrchestratorTestSuite) TestChangeEnvironmentLowDangerIsAtmosphere() {
	svc := s.newService(nil, 1)
	out, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID:  "uni_prime",
		Move:        entities.MoveChangeEnvironment,
		Actor:       s.actor(),
		Location:    s.tavern(),
		DangerLevel: 2,
	})
	s.Require().NoError(err)
	s.Empty(out.EntitiesCreated)
	s.NotEmpty(out.Narrative)
}

func (s *OrchestratorTestSuite) TestChangeEnvironmentCreatesFeature() {
	svc := s.newService(nil, 1)
	tavern := s.tavern()

	out, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID:  "uni_prime",
		Move:        entities.MoveChangeEnvironment,
		Actor:       s.actor(),
		Location:    tavern,
		DangerLevel: 8,
	})
	s.Require().NoError(err)

	s.Require().Len(out.EntitiesCreated, 1)
	rels, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: "uni_prime", FromID: tavern.ID, Type: entities.RelContains,
	})
	s.Require().NoError(err)
	s.Require().Len(rels.Relationships, 1)
	s.Equal(out.EntitiesCreated[0], rels.Relationships[0].ToID)
}

func (s *OrchestratorTestSuite) TestSeparateThemRemovesNPCFromLocation() {
	svc := s.newService(nil, 1)
	hero := s.actor()
	tavern := s.tavern()

	npc := &entities.Entity{
		ID: "ent_barkeep", UniverseID: "uni_prime",
		Type: entities.EntityCharacter, Name: "Barkeep",
	}
	_, err := s.graphRepo.UpsertNode(s.ctx, &graph.UpsertNodeInput{Node: &graph.Node{
		ID: npc.ID, UniverseID: "uni_prime", Name: npc.Name, Type: entities.EntityCharacter,
	}})
	s.Require().NoError(err)
	_, err = s.graphRepo.CreateRelationship(s.ctx, &graph.CreateRelationshipInput{
		Relationship: &entities.Relationship{
			ID: "rel_loc", UniverseID: "uni_prime",
			FromID: npc.ID, ToID: tavern.ID, Type: entities.RelLocatedIn,
		},
	})
	s.Require().NoError(err)

	out, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID: "uni_prime",
		Move:       entities.MoveSeparateThem,
		Actor:      hero,
		Location:   tavern,
		Present:    []*entities.Entity{npc},
	})
	s.Require().NoError(err)

	s.Equal([]string{"ent_barkeep"}, out.EntitiesModified)
	rels, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: "uni_prime", FromID: npc.ID, Type: entities.RelLocatedIn,
	})
	s.Require().NoError(err)
	s.Empty(rels.Relationships)
}

// failingGraph breaks edge writes so the compensating delete path runs
type failingGraph struct {
	graph.Repository
}

func (f *failingGraph) CreateRelationship(ctx context.Context, input *graph.CreateRelationshipInput) (*graph.CreateRelationshipOutput, error) {
	return nil, errors.RepoError("edge write refused")
}

func (s *OrchestratorTestSuite) TestPartialPersistCompensates() {
	svc := s.newServiceWithGraph(nil, &failingGraph{Repository: s.graphRepo}, 1, 1, 1, 1, 1, 1, 1, 1, 1)

	_, err := svc.Execute(s.ctx, &moves.ExecuteInput{
		UniverseID:  "uni_prime",
		Move:        entities.MoveIntroduceNPC,
		Actor:       s.actor(),
		Location:    s.tavern(),
		DangerLevel: 3,
	})
	s.Require().Error(err)

	// The node created before the failed edge write must be gone
	_, getErr := s.graphRepo.GetNode(s.ctx, &graph.GetNodeInput{NodeID: "mv_1"})
	s.True(errors.IsNotFound(getErr))
}

func (s *OrchestratorTestSuite) TestValidationErrors() {
	_, err := moves.NewOrchestrator(&moves.Config{})
	s.Require().Error(err)
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
