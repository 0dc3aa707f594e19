package content_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tta-core/internal/content"
	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/multiverse"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	"github.com/KirkDiggler/tta-core/internal/repositories/graph"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

type SeedTestSuite struct {
	suite.Suite
	ctx       context.Context
	truthRepo truth.Repository
	graphRepo graph.Repository
	seeder    *content.Seeder
	result    *content.SeedResult
}

func (s *SeedTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.truthRepo = truth.NewInMemory()
	s.graphRepo = graph.NewInMemory()

	mv, err := multiverse.NewOrchestrator(&multiverse.Config{
		TruthRepo: s.truthRepo,
		GraphRepo: s.graphRepo,
		IDGen:     idgen.NewSequential("mv"),
	})
	s.Require().NoError(err)

	seeder, err := content.NewSeeder(&content.SeedConfig{
		TruthRepo:  s.truthRepo,
		GraphRepo:  s.graphRepo,
		Multiverse: mv,
	})
	s.Require().NoError(err)
	s.seeder = seeder

	result, err := s.seeder.Seed(s.ctx)
	s.Require().NoError(err)
	s.result = result
}

func (s *SeedTestSuite) TestPrimeUniverseCreated() {
	got, err := s.truthRepo.GetUniverse(s.ctx, &truth.GetUniverseInput{
		UniverseID: s.result.UniverseID,
	})
	s.Require().NoError(err)
	s.True(got.Universe.IsPrime())
	s.Equal("Prime Material", got.Universe.Name)
}

func (s *SeedTestSuite) TestHeroSeededWithResources() {
	s.Equal("ent_hero", s.result.HeroID)
	s.Equal("loc_square", s.result.LocationID)

	got, err := s.truthRepo.GetEntity(s.ctx, &truth.GetEntityInput{
		UniverseID: s.result.UniverseID,
		EntityID:   "ent_hero",
	})
	s.Require().NoError(err)

	hero := got.Entity
	s.Equal("Asha", hero.Name)
	s.Require().NotNil(hero.Character)
	s.Equal(24, hero.Character.HP)
	s.Equal(16, hero.Character.Abilities[entities.STR])
	s.Contains(hero.Character.WeaponProfs, "Longsword")
	s.Contains(hero.Character.AbilityIDs, "ability_cure_wounds")

	pool := hero.Character.Resources
	s.Require().NotNil(pool)
	s.Equal(3, pool.SpellSlots[1].Max)
	s.Equal(3, pool.SpellSlots[1].Current)
	s.Equal(1, pool.Cooldowns["second_wind"].MaxUses)
	s.Equal(10, pool.Pool.StressMax)
}

func (s *SeedTestSuite) TestHeroPlacedAndEquipped() {
	rels, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: s.result.UniverseID,
		FromID:     "ent_hero",
	})
	s.Require().NoError(err)

	byType := map[entities.RelationshipType][]string{}
	for _, r := range rels.Relationships {
		byType[r.Type] = append(byType[r.Type], r.ToID)
	}
	s.Equal([]string{"loc_square"}, byType[entities.RelLocatedIn])
	s.Equal([]string{"ent_sword"}, byType[entities.RelWields])
	s.Equal([]string{"ent_potion"}, byType[entities.RelCarries])
}

func (s *SeedTestSuite) TestGroundItemPlacedViaContains() {
	rels, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: s.result.UniverseID,
		FromID:     "loc_tavern",
		Type:       entities.RelContains,
	})
	s.Require().NoError(err)
	s.Require().Len(rels.Relationships, 1)
	s.Equal("ent_lantern", rels.Relationships[0].ToID)
}

func (s *SeedTestSuite) TestNPCKnowsHero() {
	rels, err := s.graphRepo.ListRelationships(s.ctx, &graph.ListRelationshipsInput{
		UniverseID: s.result.UniverseID,
		FromID:     "ent_captain",
		Type:       entities.RelKnows,
	})
	s.Require().NoError(err)
	s.Require().Len(rels.Relationships, 1)
	s.Equal("ent_hero", rels.Relationships[0].ToID)
	s.InDelta(0.3, rels.Relationships[0].Trust, 0.001)

	got, err := s.truthRepo.GetEntity(s.ctx, &truth.GetEntityInput{
		UniverseID: s.result.UniverseID,
		EntityID:   "ent_captain",
	})
	s.Require().NoError(err)
	s.Require().NotNil(got.Entity.Character.NPC)
	s.Equal(80, got.Entity.Character.NPC.Traits.Conscientiousness)
	s.Contains(got.Entity.Character.NPC.Motivations, entities.MotivationDuty)
}

func (s *SeedTestSuite) TestQuestsSeededAvailable() {
	got, err := s.truthRepo.ListQuests(s.ctx, &truth.ListQuestsInput{
		UniverseID: s.result.UniverseID,
		Status:     entities.QuestAvailable,
	})
	s.Require().NoError(err)
	s.Len(got.Quests, 2)

	bounty, err := s.truthRepo.GetQuest(s.ctx, &truth.GetQuestInput{QuestID: "quest_bounty"})
	s.Require().NoError(err)
	s.Equal("ent_captain", bounty.Quest.GiverID)
	s.Require().Len(bounty.Quest.Objectives, 2)
	s.Equal(entities.ObjectiveKill, bounty.Quest.Objectives[0].Kind)
	s.Equal("ent_bandit", bounty.Quest.Objectives[0].TargetID)
	s.Equal(25, bounty.Quest.Reward.Reputation["fac_guard"])
	s.Equal("quest_camp", bounty.Quest.NextQuestID)

	// the follow-up stays hidden until the bounty completes
	camp, err := s.truthRepo.GetQuest(s.ctx, &truth.GetQuestInput{QuestID: "quest_camp"})
	s.Require().NoError(err)
	s.Equal(entities.QuestLocked, camp.Quest.Status)
}

func (s *SeedTestSuite) TestSeededAbilitiesExistInCatalogue() {
	lib, err := content.NewLibrary()
	s.Require().NoError(err)

	got, err := s.truthRepo.GetEntity(s.ctx, &truth.GetEntityInput{
		UniverseID: s.result.UniverseID,
		EntityID:   s.result.HeroID,
	})
	s.Require().NoError(err)
	for _, id := range got.Entity.Character.AbilityIDs {
		_, ok := lib.Ability(id)
		s.True(ok, "hero references unknown ability %s", id)
	}
}

func (s *SeedTestSuite) TestRejectsWorldWithoutPlayer() {
	_, err := s.seeder.SeedFrom(s.ctx, []byte(`
universe:
  name: Empty World
locations:
  - id: loc_void
    name: The Void
`))
	s.Require().Error(err)
	s.Contains(err.Error(), "no player character")
}

func (s *SeedTestSuite) TestValidationErrors() {
	_, err := content.NewSeeder(&content.SeedConfig{})
	s.Error(err)
}

func TestSeedSuite(t *testing.T) {
	suite.Run(t, new(SeedTestSuite))
}
