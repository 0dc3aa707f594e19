package entities

import (
	"time"

	"github.com/KirkDiggler/tta-core/internal/errors"
)

// EntityType discriminates the polymorphic entity variants
type EntityType string

// Entity variants
const (
	EntityCharacter EntityType = "character"
	EntityLocation  EntityType = "location"
	EntityItem      EntityType = "item"
	EntityFaction   EntityType = "faction"
	EntityObject    EntityType = "object"
)

// AbilityScore names the six core scores
type AbilityScore string

// The six ability scores
const (
	STR AbilityScore = "STR"
	DEX AbilityScore = "DEX"
	CON AbilityScore = "CON"
	INT AbilityScore = "INT"
	WIS AbilityScore = "WIS"
	CHA AbilityScore = "CHA"
)

// Entity is a polymorphic world record. Exactly one of the per-variant stat
// substructures is populated, selected by Type. Entities are never deleted:
// death and item loss are state flags plus an event.
type Entity struct {
	ID          string     `json:"id"`
	UniverseID  string     `json:"universe_id"`
	Type        EntityType `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Version     int64      `json:"version"`

	// CanonicalID points at the origin entity when this record is a
	// universe-local variant
	CanonicalID string `json:"canonical_id,omitempty"`

	Character *CharacterStats `json:"character,omitempty"`
	Location  *LocationStats  `json:"location,omitempty"`
	Item      *ItemStats      `json:"item,omitempty"`
	Faction   *FactionStats   `json:"faction,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CharacterStats holds the rules-facing state of a character or NPC
type CharacterStats struct {
	HP               int                  `json:"hp"`
	HPMax            int                  `json:"hp_max"`
	HPTemp           int                  `json:"hp_temp,omitempty"`
	AC               int                  `json:"ac"`
	Level            int                  `json:"level"`
	Abilities        map[AbilityScore]int `json:"abilities"`
	SkillProfs       []string             `json:"skill_profs,omitempty"`
	SaveProfs        []AbilityScore       `json:"save_profs,omitempty"`
	WeaponProfs      []string             `json:"weapon_profs,omitempty"`
	HitDieType       string               `json:"hit_die_type,omitempty"`
	HitDiceMax       int                  `json:"hit_dice_max,omitempty"`
	HitDiceCurrent   int                  `json:"hit_dice_current,omitempty"`
	HitDice          int                  `json:"hit_dice,omitempty"` // monster HD rating for fray targeting
	DeathSaveSuccess int                  `json:"death_save_success,omitempty"`
	DeathSaveFailure int                  `json:"death_save_failure,omitempty"`
	Exhaustion       int                  `json:"exhaustion,omitempty"`
	Dead             bool                 `json:"dead,omitempty"`
	Reputation       map[string]int       `json:"reputation,omitempty"` // faction id -> standing
	Resources        *ResourcePool        `json:"resources,omitempty"`
	AbilityIDs       []string             `json:"ability_ids,omitempty"`
	NPC              *NPCProfile          `json:"npc,omitempty"`

	// Conditions and Effects persist with the entity so the repositories,
	// not process memory, own them
	Conditions []ConditionInstance `json:"conditions,omitempty"`
	Effects    []ActiveEffect      `json:"effects,omitempty"`

	// LastTickedRound makes the round tick idempotent: ticking the same
	// round twice is a no-op
	LastTickedRound int `json:"last_ticked_round,omitempty"`
}

// HasCondition reports whether a condition is currently on the character
func (c *CharacterStats) HasCondition(condition ConditionType) bool {
	for i := range c.Conditions {
		if c.Conditions[i].Condition == condition {
			return true
		}
	}
	return false
}

// ConditionTypes returns the currently applied condition types
func (c *CharacterStats) ConditionTypes() []ConditionType {
	out := make([]ConditionType, 0, len(c.Conditions))
	for i := range c.Conditions {
		out = append(out, c.Conditions[i].Condition)
	}
	return out
}

// LocationStats holds location state. Exits form a directed graph that may
// be non-symmetric.
type LocationStats struct {
	Exits       map[string]string `json:"exits,omitempty"` // direction -> destination entity id
	DangerLevel int               `json:"danger_level"`
	Kind        string            `json:"kind,omitempty"` // tavern, dungeon, market, forest
}

// ItemStats holds item state
type ItemStats struct {
	Weight     int    `json:"weight,omitempty"`
	Value      int    `json:"value,omitempty"`
	DamageDice string `json:"damage_dice,omitempty"`
	DamageType string `json:"damage_type,omitempty"`
	Finesse    bool   `json:"finesse,omitempty"`
	Ranged     bool   `json:"ranged,omitempty"`
	ArmorClass int    `json:"armor_class,omitempty"`
	Active     bool   `json:"active"`
	Lost       bool   `json:"lost,omitempty"`
}

// FactionStats holds faction state
type FactionStats struct {
	Disposition int      `json:"disposition,omitempty"` // baseline stance toward strangers
	Rivals      []string `json:"rivals,omitempty"`
	Allies      []string `json:"allies,omitempty"`
}

// Validate enforces the structural invariants of an entity
func (e *Entity) Validate() error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("id", e.ID, vb)
	errors.ValidateRequired("universe_id", e.UniverseID, vb)
	errors.ValidateRequired("name", e.Name, vb)

	switch e.Type {
	case EntityCharacter:
		if e.Character == nil {
			vb.RequiredField("character")
			break
		}
		c := e.Character
		if c.HP < 0 || c.HP > c.HPMax {
			vb.Fieldf("character.hp", "must be within [0, %d]", c.HPMax)
		}
		if c.Level < 1 {
			vb.Field("character.level", "must be at least 1")
		}
		for score, value := range c.Abilities {
			if value < 1 || value > 30 {
				vb.Fieldf("character.abilities."+string(score), "must be between 1 and 30, got %d", value)
			}
		}
	case EntityLocation:
		if e.Location == nil {
			vb.RequiredField("location")
			break
		}
		if e.Location.DangerLevel < 0 || e.Location.DangerLevel > 20 {
			vb.Field("location.danger_level", "must be between 0 and 20")
		}
	case EntityItem:
		if e.Item == nil {
			vb.RequiredField("item")
		}
	case EntityFaction, EntityObject:
		// no per-variant invariants
	default:
		vb.Fieldf("type", "unknown entity type %q", e.Type)
	}

	return vb.Build()
}

// AbilityModifier returns the modifier for one of this character's scores
func (c *CharacterStats) AbilityModifier(score AbilityScore) int {
	return AbilityModifier(c.Abilities[score])
}

// AbilityModifier converts a raw ability score to its modifier
func AbilityModifier(score int) int {
	// floor((score-10)/2), correct for odd scores below 10
	if score >= 10 {
		return (score - 10) / 2
	}
	return -((11 - score) / 2)
}

// ProficiencyBonus returns the bonus for a character level
func ProficiencyBonus(level int) int {
	switch {
	case level >= 17:
		return 6
	case level >= 13:
		return 5
	case level >= 9:
		return 4
	case level >= 5:
		return 3
	default:
		return 2
	}
}

// IsProficientSkill reports whether the character is proficient in a skill
func (c *CharacterStats) IsProficientSkill(skill string) bool {
	for _, s := range c.SkillProfs {
		if s == skill {
			return true
		}
	}
	return false
}

// IsProficientSave reports whether the character is proficient in a save
func (c *CharacterStats) IsProficientSave(score AbilityScore) bool {
	for _, s := range c.SaveProfs {
		if s == score {
			return true
		}
	}
	return false
}

// IsProficientWeapon reports whether the character is proficient with a weapon
func (c *CharacterStats) IsProficientWeapon(weapon string) bool {
	for _, w := range c.WeaponProfs {
		if w == weapon {
			return true
		}
	}
	return false
}
