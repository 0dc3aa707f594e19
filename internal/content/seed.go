package content

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/multiverse"
	"github.com/KirkDiggler/tta-core/internal/pkg/clock"
	"github.com/KirkDiggler/tta-core/internal/repositories/graph"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

//go:embed world.yaml
var defaultWorld []byte

// SeedConfig holds the dependencies for the world seeder
type SeedConfig struct {
	TruthRepo  truth.Repository
	GraphRepo  graph.Repository
	Multiverse multiverse.Service
	Clock      clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *SeedConfig) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.TruthRepo == nil {
		vb.RequiredField("TruthRepo")
	}
	if c.GraphRepo == nil {
		vb.RequiredField("GraphRepo")
	}
	if c.Multiverse == nil {
		vb.RequiredField("Multiverse")
	}
	return vb.Build()
}

// Seeder loads a YAML world definition into empty repositories
type Seeder struct {
	truthRepo truth.Repository
	graphRepo graph.Repository
	mv        multiverse.Service
	clock     clock.Clock
}

// NewSeeder creates a seeder with the given configuration
func NewSeeder(cfg *SeedConfig) (*Seeder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	return &Seeder{
		truthRepo: cfg.TruthRepo,
		graphRepo: cfg.GraphRepo,
		mv:        cfg.Multiverse,
		clock:     c,
	}, nil
}

// SeedResult reports what a seed run created
type SeedResult struct {
	UniverseID string
	// HeroID is the entity flagged player: true in the world definition
	HeroID     string
	LocationID string
	Entities   int
	Quests     int
}

// Seed loads the embedded default world
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	return s.SeedFrom(ctx, defaultWorld)
}

// SeedFrom loads a world definition from YAML. The prime universe is created
// first; every entity, edge, and quest lands in it.
func (s *Seeder) SeedFrom(ctx context.Context, data []byte) (*SeedResult, error) {
	var doc worldDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing world definition")
	}
	if doc.Universe.Name == "" {
		return nil, errors.BadInput("world defines no universe name")
	}

	prime, err := s.mv.CreatePrime(ctx, &multiverse.CreatePrimeInput{Name: doc.Universe.Name})
	if err != nil {
		return nil, errors.Wrap(err, "creating prime universe")
	}
	universeID := prime.Universe.ID

	result := &SeedResult{UniverseID: universeID}

	for _, l := range doc.Locations {
		if err := s.saveEntity(ctx, l.toEntity(universeID)); err != nil {
			return nil, errors.Wrapf(err, "seeding location %q", l.ID)
		}
		result.Entities++
	}

	for _, it := range doc.Items {
		if err := s.saveEntity(ctx, it.toEntity(universeID)); err != nil {
			return nil, errors.Wrapf(err, "seeding item %q", it.ID)
		}
		if it.Location != "" {
			if err := s.edge(ctx, universeID, it.Location, it.ID, entities.RelContains, 0); err != nil {
				return nil, errors.Wrapf(err, "placing item %q", it.ID)
			}
		}
		result.Entities++
	}

	for _, f := range doc.Factions {
		if err := s.saveEntity(ctx, f.toEntity(universeID)); err != nil {
			return nil, errors.Wrapf(err, "seeding faction %q", f.ID)
		}
		result.Entities++
	}

	for _, ch := range doc.Characters {
		if err := s.seedCharacter(ctx, universeID, &ch); err != nil {
			return nil, errors.Wrapf(err, "seeding character %q", ch.ID)
		}
		if ch.Player {
			if result.HeroID != "" {
				return nil, errors.BadInputf("more than one player character: %q and %q", result.HeroID, ch.ID)
			}
			result.HeroID = ch.ID
			result.LocationID = ch.Location
		}
		result.Entities++
	}
	if result.HeroID == "" {
		return nil, errors.BadInput("world defines no player character")
	}

	now := s.clock.Now()
	for _, q := range doc.Quests {
		quest := q.toEntity(universeID)
		quest.CreatedAt = now
		quest.UpdatedAt = now
		if _, err := s.truthRepo.SaveQuest(ctx, &truth.SaveQuestInput{Quest: quest}); err != nil {
			return nil, errors.Wrapf(err, "seeding quest %q", q.ID)
		}
		result.Quests++
	}

	slog.Info("seeded world",
		"universe_id", universeID,
		"hero_id", result.HeroID,
		"entities", result.Entities,
		"quests", result.Quests)

	return result, nil
}

func (s *Seeder) seedCharacter(ctx context.Context, universeID string, ch *characterDef) error {
	if err := s.saveEntity(ctx, ch.toEntity(universeID)); err != nil {
		return err
	}
	if ch.Location != "" {
		if err := s.edge(ctx, universeID, ch.ID, ch.Location, entities.RelLocatedIn, 0); err != nil {
			return err
		}
	}
	for _, itemID := range ch.Wields {
		if err := s.edge(ctx, universeID, ch.ID, itemID, entities.RelWields, 0); err != nil {
			return err
		}
	}
	for _, itemID := range ch.Carries {
		if err := s.edge(ctx, universeID, ch.ID, itemID, entities.RelCarries, 0); err != nil {
			return err
		}
	}
	for _, itemID := range ch.Wears {
		if err := s.edge(ctx, universeID, ch.ID, itemID, entities.RelWears, 0); err != nil {
			return err
		}
	}
	for _, k := range ch.Knows {
		if err := s.edge(ctx, universeID, ch.ID, k.Target, entities.RelKnows, k.Trust); err != nil {
			return err
		}
	}
	return nil
}

// saveEntity writes to the truth store and mirrors the node into the graph
func (s *Seeder) saveEntity(ctx context.Context, e *entities.Entity) error {
	now := s.clock.Now()
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.truthRepo.SaveEntity(ctx, &truth.SaveEntityInput{Entity: e}); err != nil {
		return err
	}
	_, err := s.graphRepo.UpsertNode(ctx, &graph.UpsertNodeInput{Node: &graph.Node{
		ID:         e.ID,
		UniverseID: e.UniverseID,
		Name:       e.Name,
		Type:       e.Type,
	}})
	return err
}

func (s *Seeder) edge(ctx context.Context, universeID, from, to string, relType entities.RelationshipType, trust float64) error {
	_, err := s.graphRepo.CreateRelationship(ctx, &graph.CreateRelationshipInput{
		Relationship: &entities.Relationship{
			ID:         fmt.Sprintf("rel_%s_%s_%s", strings.ToLower(string(relType)), from, to),
			UniverseID: universeID,
			FromID:     from,
			ToID:       to,
			Type:       relType,
			Trust:      trust,
			CreatedAt:  s.clock.Now(),
		},
	})
	return err
}

// YAML document shapes. These convert to entities rather than being stored
// directly.

type worldDoc struct {
	Universe struct {
		Name string `yaml:"name"`
	} `yaml:"universe"`
	Locations  []locationDef  `yaml:"locations"`
	Items      []itemDef      `yaml:"items"`
	Factions   []factionDef   `yaml:"factions"`
	Characters []characterDef `yaml:"characters"`
	Quests     []questDef     `yaml:"quests"`
}

type locationDef struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	DangerLevel int               `yaml:"danger_level"`
	Kind        string            `yaml:"kind"`
	Exits       map[string]string `yaml:"exits"`
}

func (d *locationDef) toEntity(universeID string) *entities.Entity {
	return &entities.Entity{
		ID:          d.ID,
		UniverseID:  universeID,
		Type:        entities.EntityLocation,
		Name:        d.Name,
		Description: d.Description,
		Location: &entities.LocationStats{
			Exits:       d.Exits,
			DangerLevel: d.DangerLevel,
			Kind:        d.Kind,
		},
	}
}

type itemDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	DamageDice  string `yaml:"damage_dice"`
	DamageType  string `yaml:"damage_type"`
	Finesse     bool   `yaml:"finesse"`
	Ranged      bool   `yaml:"ranged"`
	ArmorClass  int    `yaml:"armor_class"`
	Weight      int    `yaml:"weight"`
	Value       int    `yaml:"value"`
	// Location places the item on the ground via a CONTAINS edge; items
	// listed in a character's wields or carries omit it
	Location string `yaml:"location"`
}

func (d *itemDef) toEntity(universeID string) *entities.Entity {
	return &entities.Entity{
		ID:          d.ID,
		UniverseID:  universeID,
		Type:        entities.EntityItem,
		Name:        d.Name,
		Description: d.Description,
		Item: &entities.ItemStats{
			DamageDice: d.DamageDice,
			DamageType: d.DamageType,
			Finesse:    d.Finesse,
			Ranged:     d.Ranged,
			ArmorClass: d.ArmorClass,
			Weight:     d.Weight,
			Value:      d.Value,
			Active:     true,
		},
	}
}

type factionDef struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Disposition int      `yaml:"disposition"`
	Rivals      []string `yaml:"rivals"`
	Allies      []string `yaml:"allies"`
}

func (d *factionDef) toEntity(universeID string) *entities.Entity {
	return &entities.Entity{
		ID:          d.ID,
		UniverseID:  universeID,
		Type:        entities.EntityFaction,
		Name:        d.Name,
		Description: d.Description,
		Faction: &entities.FactionStats{
			Disposition: d.Disposition,
			Rivals:      d.Rivals,
			Allies:      d.Allies,
		},
	}
}

type characterDef struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Player      bool           `yaml:"player"`
	Location    string         `yaml:"location"`
	HP          int            `yaml:"hp"`
	HPMax       int            `yaml:"hp_max"`
	AC          int            `yaml:"ac"`
	Level       int            `yaml:"level"`
	Scores      map[string]int `yaml:"scores"`
	SkillProfs  []string       `yaml:"skill_profs"`
	WeaponProfs []string       `yaml:"weapon_profs"`
	HitDieType  string         `yaml:"hit_die_type"`
	HitDice     int            `yaml:"hit_dice"`
	AbilityIDs  []string       `yaml:"ability_ids"`
	Resources   *resourcesDef  `yaml:"resources"`
	NPC         *npcDef        `yaml:"npc"`
	Wields      []string       `yaml:"wields"`
	Carries     []string       `yaml:"carries"`
	Wears       []string       `yaml:"wears"`
	Knows       []knowsDef     `yaml:"knows"`
}

type knowsDef struct {
	Target string  `yaml:"target"`
	Trust  float64 `yaml:"trust"`
}

type npcDef struct {
	Traits struct {
		Openness          int `yaml:"openness"`
		Conscientiousness int `yaml:"conscientiousness"`
		Extraversion      int `yaml:"extraversion"`
		Agreeableness     int `yaml:"agreeableness"`
		Neuroticism       int `yaml:"neuroticism"`
	} `yaml:"traits"`
	Motivations []string `yaml:"motivations"`
	Faction     string   `yaml:"faction"`
}

type resourcesDef struct {
	// Slots maps spell slot level to maximum count
	Slots       map[int]int   `yaml:"slots"`
	Cooldowns   []cooldownDef `yaml:"cooldowns"`
	UsageDice   []usageDieDef `yaml:"usage_dice"`
	StressMax   int           `yaml:"stress_max"`
	MomentumMax int           `yaml:"momentum_max"`
}

type cooldownDef struct {
	Name      string `yaml:"name"`
	MaxUses   int    `yaml:"max_uses"`
	RestoreOn string `yaml:"restore_on"`
}

type usageDieDef struct {
	Name string `yaml:"name"`
	Die  string `yaml:"die"`
}

func (d *characterDef) toEntity(universeID string) *entities.Entity {
	scores := make(map[entities.AbilityScore]int, len(d.Scores))
	for name, value := range d.Scores {
		scores[entities.AbilityScore(name)] = value
	}

	stats := &entities.CharacterStats{
		HP:             d.HP,
		HPMax:          d.HPMax,
		AC:             d.AC,
		Level:          d.Level,
		Abilities:      scores,
		SkillProfs:     d.SkillProfs,
		WeaponProfs:    d.WeaponProfs,
		HitDieType:     d.HitDieType,
		HitDiceMax:     d.HitDice,
		HitDiceCurrent: d.HitDice,
		AbilityIDs:     d.AbilityIDs,
	}

	if d.Resources != nil {
		stats.Resources = d.Resources.toPool()
	}

	if d.NPC != nil {
		profile := &entities.NPCProfile{
			EntityID:  d.ID,
			FactionID: d.NPC.Faction,
			Traits: entities.PersonalityTraits{
				Openness:          d.NPC.Traits.Openness,
				Conscientiousness: d.NPC.Traits.Conscientiousness,
				Extraversion:      d.NPC.Traits.Extraversion,
				Agreeableness:     d.NPC.Traits.Agreeableness,
				Neuroticism:       d.NPC.Traits.Neuroticism,
			},
		}
		for _, m := range d.NPC.Motivations {
			profile.Motivations = append(profile.Motivations, entities.Motivation(m))
		}
		stats.NPC = profile
	}

	return &entities.Entity{
		ID:          d.ID,
		UniverseID:  universeID,
		Type:        entities.EntityCharacter,
		Name:        d.Name,
		Description: d.Description,
		Character:   stats,
	}
}

func (d *resourcesDef) toPool() *entities.ResourcePool {
	pool := &entities.ResourcePool{}
	if len(d.Slots) > 0 {
		pool.SpellSlots = make(map[int]*entities.SpellSlotLevel, len(d.Slots))
		for level, count := range d.Slots {
			pool.SpellSlots[level] = &entities.SpellSlotLevel{Current: count, Max: count}
		}
	}
	if len(d.Cooldowns) > 0 {
		pool.Cooldowns = make(map[string]*entities.CooldownTracker, len(d.Cooldowns))
		for _, cd := range d.Cooldowns {
			pool.Cooldowns[cd.Name] = &entities.CooldownTracker{
				Name:        cd.Name,
				CurrentUses: cd.MaxUses,
				MaxUses:     cd.MaxUses,
				RestoreOn:   entities.RestKind(cd.RestoreOn),
			}
		}
	}
	if len(d.UsageDice) > 0 {
		pool.UsageDice = make(map[string]*entities.UsageDie, len(d.UsageDice))
		for _, ud := range d.UsageDice {
			pool.UsageDice[ud.Name] = &entities.UsageDie{
				Name:    ud.Name,
				Current: entities.UsageDieStep(ud.Die),
				Initial: entities.UsageDieStep(ud.Die),
			}
		}
	}
	if d.StressMax > 0 || d.MomentumMax > 0 {
		pool.Pool = &entities.StressMomentumPool{
			StressMax:   d.StressMax,
			MomentumMax: d.MomentumMax,
		}
	}
	return pool
}

type questDef struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Giver       string         `yaml:"giver"`
	Status      string         `yaml:"status"`
	Objectives  []objectiveDef `yaml:"objectives"`
	Reward      *rewardDef     `yaml:"reward"`
	Next        string         `yaml:"next"`
}

type objectiveDef struct {
	Kind     string `yaml:"kind"`
	Target   string `yaml:"target"`
	Required int    `yaml:"required"`
}

type rewardDef struct {
	Gold       int            `yaml:"gold"`
	ItemIDs    []string       `yaml:"item_ids"`
	Reputation map[string]int `yaml:"reputation"`
}

func (d *questDef) toEntity(universeID string) *entities.Quest {
	q := &entities.Quest{
		ID:          d.ID,
		UniverseID:  universeID,
		GiverID:     d.Giver,
		Name:        d.Name,
		Description: d.Description,
		Status:      entities.QuestStatus(d.Status),
		NextQuestID: d.Next,
	}
	if q.Status == "" {
		q.Status = entities.QuestAvailable
	}
	for _, o := range d.Objectives {
		q.Objectives = append(q.Objectives, entities.QuestObjective{
			Kind:     entities.ObjectiveKind(o.Kind),
			TargetID: o.Target,
			Required: o.Required,
		})
	}
	if d.Reward != nil {
		q.Reward = &entities.QuestReward{
			Gold:       d.Reward.Gold,
			ItemIDs:    d.Reward.ItemIDs,
			Reputation: d.Reward.Reputation,
		}
	}
	return q
}
