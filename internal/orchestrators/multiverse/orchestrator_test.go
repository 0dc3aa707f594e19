package multiverse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/multiverse"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	"github.com/KirkDiggler/tta-core/internal/repositories/graph"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

type OrchestratorTestSuite struct {
	suite.Suite
	ctx       context.Context
	truthRepo truth.Repository
	graphRepo graph.Repository
	svc       multiverse.Service
	prime     *entities.Universe
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.truthRepo = truth.NewInMemory()
	s.graphRepo = graph.NewInMemory()

	svc, err := multiverse.NewOrchestrator(&multiverse.Config{
		TruthRepo: s.truthRepo,
		GraphRepo: s.graphRepo,
		IDGen:     idgen.NewSequential("mv"),
	})
	s.Require().NoError(err)
	s.svc = svc

	prime, err := s.svc.CreatePrime(s.ctx, &multiverse.CreatePrimeInput{Name: "Prime Material"})
	s.Require().NoError(err)
	s.prime = prime.Universe
}

func (s *OrchestratorTestSuite) saveCharacter(id, name string, hp int) *entities.Entity {
	e := &entities.Entity{
		ID:         id,
		UniverseID: s.prime.ID,
		Type:       entities.EntityCharacter,
		Name:       name,
		Version:    1,
		Character: &entities.CharacterStats{
			HP: hp, HPMax: hp, AC: 15, Level: 5,
			Abilities: map[entities.AbilityScore]int{
				entities.STR: 14, entities.DEX: 12, entities.CON: 14,
				entities.INT: 10, entities.WIS: 10, entities.CHA: 10,
			},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	_, err := s.truthRepo.SaveEntity(s.ctx, &truth.SaveEntityInput{Entity: e})
	s.Require().NoError(err)
	return e
}

func (s *OrchestratorTestSuite) fork(name string) *entities.Universe {
	out, err := s.svc.ForkUniverse(s.ctx, &multiverse.ForkUniverseInput{
		ParentID: s.prime.ID,
		Name:     name,
		Reason:   "what if",
		ActorID:  "ent_hero",
	})
	s.Require().NoError(err)
	return out.Universe
}

func (s *OrchestratorTestSuite) TestForkComputesDepthAndCopiesState() {
	s.saveCharacter("ent_king", "The King", 25)

	out, err := s.svc.ForkUniverse(s.ctx, &multiverse.ForkUniverseInput{
		ParentID: s.prime.ID,
		Name:     "Regicide Timeline",
		Reason:   "what if the king died",
		ActorID:  "ent_hero",
	})
	s.Require().NoError(err)

	child := out.Universe
	s.Equal(s.prime.ID, child.ParentID)
	s.Equal(1, child.Depth)
	s.Equal("regicide-timeline", child.Branch)

	// Branch copy makes the child immediately queryable
	copied, err := s.truthRepo.GetEntity(s.ctx, &truth.GetEntityInput{
		UniverseID: child.ID,
		EntityID:   "ent_king",
	})
	s.Require().NoError(err)
	s.Equal(25, copied.Entity.Character.HP)

	// FORK events land on both sides and cross-reference each other
	parentEvt, err := s.truthRepo.GetEvent(s.ctx, &truth.GetEventInput{EventID: out.ParentEventID})
	s.Require().NoError(err)
	s.Equal(entities.EventFork, parentEvt.Event.Type)
	s.Equal(s.prime.ID, parentEvt.Event.UniverseID)
	s.Equal(child.ID, parentEvt.Event.Payload["child_universe_id"])
	s.Equal(out.ChildEventID, parentEvt.Event.Payload["sibling_event_id"])

	childEvt, err := s.truthRepo.GetEvent(s.ctx, &truth.GetEventInput{EventID: out.ChildEventID})
	s.Require().NoError(err)
	s.Equal(child.ID, childEvt.Event.UniverseID)
	s.Equal(s.prime.ID, childEvt.Event.Payload["parent_universe_id"])
	s.Equal(out.ParentEventID, childEvt.Event.Payload["sibling_event_id"])
}

func (s *OrchestratorTestSuite) TestForkCopiesRelationshipEdges() {
	hero := s.saveCharacter("ent_hero", "Kira", 30)
	king := s.saveCharacter("ent_king", "The King", 25)
	for _, rel := range []*entities.Relationship{
		{ID: "rel_hero_loc", FromID: hero.ID, ToID: "loc_hall", Type: entities.RelLocatedIn},
		{ID: "rel_king_loc", FromID: king.ID, ToID: "loc_hall", Type: entities.RelLocatedIn},
		{ID: "rel_hero_sword", FromID: hero.ID, ToID: "ent_sword", Type: entities.RelWields},
	} {
		rel.UniverseID = s.prime.ID
		_, err := s.graphRepo.CreateRelationship(s.ctx, &graph.CreateRelationshipInput{Relationship: rel})
		s.Require().NoError(err)
	}

	child := s.fork("Branch A")

	// The forked scene is immediately populated
	present, err := s.graphRepo.EntitiesAtLocation(s.ctx, &graph.EntitiesAtLocationInput{
		UniverseID: child.ID,
		LocationID: "loc_hall",
	})
	s.Require().NoError(err)
	s.ElementsMatch([]string{hero.ID, king.ID}, present.EntityIDs)

	// Copies are child-scoped rows with fresh ids
	copied, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: child.ID,
		FromID:     hero.ID,
	})
	s.Require().NoError(err)
	s.Require().Len(copied.Relationships, 2)
	for _, rel := range copied.Relationships {
		s.Equal(child.ID, rel.UniverseID)
		s.NotContains([]string{"rel_hero_loc", "rel_king_loc", "rel_hero_sword"}, rel.ID)
	}

	// The parent's edges are untouched
	parentRels, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: s.prime.ID,
	})
	s.Require().NoError(err)
	s.Len(parentRels.Relationships, 3)
}

func (s *OrchestratorTestSuite) TestForkFromArchivedUniverseRejected() {
	child := s.fork("Dead End")
	_, err := s.svc.ArchiveUniverse(s.ctx, &multiverse.ArchiveUniverseInput{UniverseID: child.ID})
	s.Require().NoError(err)

	_, err = s.svc.ForkUniverse(s.ctx, &multiverse.ForkUniverseInput{
		ParentID: child.ID,
		Name:     "Too Late",
	})
	s.Require().Error(err)
	s.True(errors.IsRuleViolation(err))
}

func (s *OrchestratorTestSuite) TestForkWithoutMutationsLeavesStatesEqual() {
	king := s.saveCharacter("ent_king", "The King", 25)
	child := s.fork("Quiet Branch")

	inParent, err := s.svc.GetEntity(s.ctx, &multiverse.GetEntityInput{
		UniverseID: s.prime.ID, EntityID: king.ID,
	})
	s.Require().NoError(err)
	inChild, err := s.svc.GetEntity(s.ctx, &multiverse.GetEntityInput{
		UniverseID: child.ID, EntityID: king.ID,
	})
	s.Require().NoError(err)

	s.Equal(inParent.Entity.Character, inChild.Entity.Character)
	s.False(inChild.IsVariant)
}

func (s *OrchestratorTestSuite) TestForkThenDiverge() {
	king := s.saveCharacter("ent_king", "The King", 25)
	child := s.fork("Regicide Timeline")

	variant, err := s.svc.EnsureVariant(s.ctx, &multiverse.EnsureVariantInput{
		UniverseID: child.ID,
		EntityID:   king.ID,
	})
	s.Require().NoError(err)
	s.True(variant.Created)
	s.NotEmpty(variant.VariantNodeID)

	// Kill the king in the child only
	resolved, err := s.svc.GetEntity(s.ctx, &multiverse.GetEntityInput{
		UniverseID: child.ID, EntityID: king.ID,
	})
	s.Require().NoError(err)
	mutated := resolved.Entity
	_, err = s.truthRepo.AppendEvent(s.ctx, &truth.AppendEventInput{Event: &entities.Event{
		ID: "evt_regicide", UniverseID: child.ID,
		Type: entities.EventCombatRound, Outcome: entities.OutcomeHit,
		ActorID: "ent_hero", TargetID: king.ID,
		GameTime: time.Now(), RecordedAt: time.Now(),
	}})
	s.Require().NoError(err)
	mutated.Character.HP = 0
	mutated.Character.Dead = true
	mutated.Version++
	_, err = s.truthRepo.SaveEntity(s.ctx, &truth.SaveEntityInput{Entity: mutated})
	s.Require().NoError(err)

	// The parent timeline is untouched
	inParent, err := s.svc.GetEntity(s.ctx, &multiverse.GetEntityInput{
		UniverseID: s.prime.ID, EntityID: king.ID,
	})
	s.Require().NoError(err)
	s.Equal(25, inParent.Entity.Character.HP)
	s.False(inParent.Entity.Character.Dead)

	// The child sees the variant
	inChild, err := s.svc.GetEntity(s.ctx, &multiverse.GetEntityInput{
		UniverseID: child.ID, EntityID: king.ID,
	})
	s.Require().NoError(err)
	s.Equal(0, inChild.Entity.Character.HP)
	s.True(inChild.IsVariant)

	// The variant node points back at the canonical
	edges, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: child.ID,
		FromID:     variant.VariantNodeID,
		Type:       entities.RelVariantOf,
	})
	s.Require().NoError(err)
	s.Require().Len(edges.Relationships, 1)
	s.Equal(king.ID, edges.Relationships[0].ToID)
}

func (s *OrchestratorTestSuite) TestEnsureVariantIdempotent() {
	king := s.saveCharacter("ent_king", "The King", 25)
	child := s.fork("Branch A")

	first, err := s.svc.EnsureVariant(s.ctx, &multiverse.EnsureVariantInput{
		UniverseID: child.ID, EntityID: king.ID,
	})
	s.Require().NoError(err)
	s.True(first.Created)

	second, err := s.svc.EnsureVariant(s.ctx, &multiverse.EnsureVariantInput{
		UniverseID: child.ID, EntityID: king.ID,
	})
	s.Require().NoError(err)
	s.False(second.Created)
	s.Equal(first.VariantNodeID, second.VariantNodeID)
}

func (s *OrchestratorTestSuite) TestEnsureVariantSkipsRootUniverse() {
	king := s.saveCharacter("ent_king", "The King", 25)

	out, err := s.svc.EnsureVariant(s.ctx, &multiverse.EnsureVariantInput{
		UniverseID: s.prime.ID, EntityID: king.ID,
	})
	s.Require().NoError(err)
	s.False(out.Created)
	s.Empty(out.VariantNodeID)
}

func (s *OrchestratorTestSuite) TestWorldTravelCopiesCharacterAndGear() {
	hero := s.saveCharacter("ent_hero", "Kira", 30)
	sword := &entities.Entity{
		ID: "ent_sword", UniverseID: s.prime.ID,
		Type: entities.EntityItem, Name: "Longsword", Version: 1,
		Item: &entities.ItemStats{DamageDice: "1d8", Active: true},
	}
	_, err := s.truthRepo.SaveEntity(s.ctx, &truth.SaveEntityInput{Entity: sword})
	s.Require().NoError(err)
	_, err = s.graphRepo.CreateRelationship(s.ctx, &graph.CreateRelationshipInput{Relationship: &entities.Relationship{
		ID: "rel_carries", UniverseID: s.prime.ID,
		FromID: hero.ID, ToID: sword.ID, Type: entities.RelCarries,
	}})
	s.Require().NoError(err)
	_, err = s.graphRepo.CreateRelationship(s.ctx, &graph.CreateRelationshipInput{Relationship: &entities.Relationship{
		ID: "rel_knows", UniverseID: s.prime.ID,
		FromID: hero.ID, ToID: "ent_king", Type: entities.RelKnows, Trust: 0.8,
	}})
	s.Require().NoError(err)

	dest := s.fork("Feywild")
	out, err := s.svc.WorldTravel(s.ctx, &multiverse.WorldTravelInput{
		TravelerID:     hero.ID,
		FromUniverseID: s.prime.ID,
		ToUniverseID:   dest.ID,
	})
	s.Require().NoError(err)

	s.NotEqual(hero.ID, out.TravelerCopyID)
	s.Equal(1, out.ItemsTransferred)

	arrived, err := s.truthRepo.GetEntity(s.ctx, &truth.GetEntityInput{
		UniverseID: dest.ID, EntityID: out.TravelerCopyID,
	})
	s.Require().NoError(err)
	s.Equal(hero.ID, arrived.Entity.CanonicalID)
	s.Equal(30, arrived.Entity.Character.HP)

	portal, err := s.truthRepo.GetEntityByName(s.ctx, &truth.GetEntityByNameInput{
		UniverseID: dest.ID, Name: multiverse.DefaultPortalName,
	})
	s.Require().NoError(err)
	s.Equal(out.PortalLocationID, portal.Entity.ID)

	located, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: dest.ID, FromID: out.TravelerCopyID, Type: entities.RelLocatedIn,
	})
	s.Require().NoError(err)
	s.Require().Len(located.Relationships, 1)
	s.Equal(out.PortalLocationID, located.Relationships[0].ToID)

	carries, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: dest.ID, FromID: out.TravelerCopyID, Type: entities.RelCarries,
	})
	s.Require().NoError(err)
	s.Len(carries.Relationships, 1)

	// Relationships are universe-local: KNOWS stays behind
	knows, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: dest.ID, FromID: out.TravelerCopyID, Type: entities.RelKnows,
	})
	s.Require().NoError(err)
	s.Empty(knows.Relationships)

	// WORLD_TRAVEL recorded in both universes
	srcEvt, err := s.truthRepo.GetEvent(s.ctx, &truth.GetEventInput{EventID: out.SourceEventID})
	s.Require().NoError(err)
	s.Equal(entities.EventWorldTravel, srcEvt.Event.Type)
	s.Equal(s.prime.ID, srcEvt.Event.UniverseID)

	destEvt, err := s.truthRepo.GetEvent(s.ctx, &truth.GetEventInput{EventID: out.DestEventID})
	s.Require().NoError(err)
	s.Equal(entities.EventWorldTravel, destEvt.Event.Type)
	s.Equal(dest.ID, destEvt.Event.UniverseID)
}

func (s *OrchestratorTestSuite) TestWorldTravelRejectsNonCharacters() {
	sword := &entities.Entity{
		ID: "ent_sword", UniverseID: s.prime.ID,
		Type: entities.EntityItem, Name: "Longsword", Version: 1,
		Item: &entities.ItemStats{Active: true},
	}
	_, err := s.truthRepo.SaveEntity(s.ctx, &truth.SaveEntityInput{Entity: sword})
	s.Require().NoError(err)

	dest := s.fork("Feywild")
	_, err = s.svc.WorldTravel(s.ctx, &multiverse.WorldTravelInput{
		TravelerID:     sword.ID,
		FromUniverseID: s.prime.ID,
		ToUniverseID:   dest.ID,
	})
	s.Require().Error(err)
	s.True(errors.IsInvalidTarget(err))
}

func (s *OrchestratorTestSuite) TestWorldTravelWithinOneUniverseRejected() {
	_, err := s.svc.WorldTravel(s.ctx, &multiverse.WorldTravelInput{
		TravelerID:     "ent_hero",
		FromUniverseID: s.prime.ID,
		ToUniverseID:   s.prime.ID,
	})
	s.Require().Error(err)
	s.True(errors.IsBadInput(err))
}

func (s *OrchestratorTestSuite) TestLineageRunsRootFirst() {
	a := s.fork("Branch A")
	b, err := s.svc.ForkUniverse(s.ctx, &multiverse.ForkUniverseInput{
		ParentID: a.ID,
		Name:     "Branch B",
	})
	s.Require().NoError(err)

	lineage, err := s.svc.Lineage(s.ctx, &multiverse.LineageInput{UniverseID: b.Universe.ID})
	s.Require().NoError(err)
	s.Require().Len(lineage.Universes, 3)
	s.Equal(s.prime.ID, lineage.Universes[0].ID)
	s.Equal(a.ID, lineage.Universes[1].ID)
	s.Equal(b.Universe.ID, lineage.Universes[2].ID)
	s.Equal(2, b.Universe.Depth)
}

func (s *OrchestratorTestSuite) TestArchiveRootRejected() {
	_, err := s.svc.ArchiveUniverse(s.ctx, &multiverse.ArchiveUniverseInput{UniverseID: s.prime.ID})
	s.Require().Error(err)
	s.True(errors.IsRuleViolation(err))
}

func (s *OrchestratorTestSuite) TestValidationErrors() {
	_, err := multiverse.NewOrchestrator(&multiverse.Config{})
	s.Require().Error(err)

	_, err = multiverse.NewOrchestrator(&multiverse.Config{TruthRepo: s.truthRepo})
	s.Require().Error(err)
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
