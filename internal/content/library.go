// Package content holds the shipped game data: the ability library and the
// starter world seed, both defined in YAML and embedded in the binary.
package content

import (
	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
)

//go:embed abilities.yaml
var defaultAbilities []byte

// abilityDef is the YAML shape of one ability; it converts to
// entities.Ability and is validated on load
type abilityDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Source      string `yaml:"source"`
	Subtype     string `yaml:"subtype"`
	Mechanism   string `yaml:"mechanism"`

	MechanismDetails struct {
		SlotLevel    int    `yaml:"slot_level"`
		CooldownName string `yaml:"cooldown_name"`
		UsageDieName string `yaml:"usage_die_name"`
		StressCost   int    `yaml:"stress_cost"`
		MomentumCost int    `yaml:"momentum_cost"`
	} `yaml:"mechanism_details"`

	Damage *struct {
		Dice        string `yaml:"dice"`
		Type        string `yaml:"type"`
		SaveAbility string `yaml:"save_ability"`
		SaveDC      int    `yaml:"save_dc"`
		HalfOnSave  bool   `yaml:"half_on_save"`
	} `yaml:"damage"`

	Healing *struct {
		Dice     string `yaml:"dice"`
		Flat     int    `yaml:"flat"`
		Modifier string `yaml:"modifier"`
	} `yaml:"healing"`

	Condition *struct {
		Condition    string `yaml:"condition"`
		DurationType string `yaml:"duration_type"`
		Duration     int    `yaml:"duration"`
		SaveAbility  string `yaml:"save_ability"`
		SaveDC       int    `yaml:"save_dc"`
	} `yaml:"condition"`

	Modifiers []struct {
		Stat         string `yaml:"stat"`
		Value        int    `yaml:"value"`
		Dice         string `yaml:"dice"`
		Type         string `yaml:"type"`
		DurationType string `yaml:"duration_type"`
		Duration     int    `yaml:"duration"`
	} `yaml:"modifiers"`

	Targeting struct {
		Type     string `yaml:"type"`
		RangeFt  int    `yaml:"range_ft"`
		AreaFt   int    `yaml:"area_ft"`
		MaxCount int    `yaml:"max_count"`
	} `yaml:"targeting"`

	ActionCost            string `yaml:"action_cost"`
	RequiresConcentration bool   `yaml:"requires_concentration"`
}

func (d *abilityDef) toEntity() *entities.Ability {
	a := &entities.Ability{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Source:      entities.AbilitySource(d.Source),
		Subtype:     d.Subtype,
		Mechanism:   entities.Mechanism(d.Mechanism),
		MechanismDetails: entities.MechanismDetails{
			SlotLevel:    d.MechanismDetails.SlotLevel,
			CooldownName: d.MechanismDetails.CooldownName,
			UsageDieName: d.MechanismDetails.UsageDieName,
			StressCost:   d.MechanismDetails.StressCost,
			MomentumCost: d.MechanismDetails.MomentumCost,
		},
		Targeting: entities.Targeting{
			Type:     entities.TargetingType(d.Targeting.Type),
			RangeFt:  d.Targeting.RangeFt,
			AreaFt:   d.Targeting.AreaFt,
			MaxCount: d.Targeting.MaxCount,
		},
		ActionCost:            entities.ActionCost(d.ActionCost),
		RequiresConcentration: d.RequiresConcentration,
	}
	if d.Damage != nil {
		a.Damage = &entities.DamageEffect{
			Dice:        d.Damage.Dice,
			Type:        d.Damage.Type,
			SaveAbility: entities.AbilityScore(d.Damage.SaveAbility),
			SaveDC:      d.Damage.SaveDC,
			HalfOnSave:  d.Damage.HalfOnSave,
		}
	}
	if d.Healing != nil {
		a.Healing = &entities.HealingEffect{
			Dice:     d.Healing.Dice,
			Flat:     d.Healing.Flat,
			Modifier: entities.AbilityScore(d.Healing.Modifier),
		}
	}
	if d.Condition != nil {
		a.Condition = &entities.ConditionEffect{
			Condition:    entities.ConditionType(d.Condition.Condition),
			DurationType: entities.DurationType(d.Condition.DurationType),
			Duration:     d.Condition.Duration,
			SaveAbility:  entities.AbilityScore(d.Condition.SaveAbility),
			SaveDC:       d.Condition.SaveDC,
		}
	}
	for _, m := range d.Modifiers {
		a.Modifiers = append(a.Modifiers, entities.ModifierEffect{
			Stat:         m.Stat,
			Value:        m.Value,
			Dice:         m.Dice,
			Type:         entities.ModifierType(m.Type),
			DurationType: entities.DurationType(m.DurationType),
			Duration:     m.Duration,
		})
	}
	return a
}

type abilityDoc struct {
	Abilities []abilityDef `yaml:"abilities"`
}

// Library is an in-memory, read-only ability catalogue keyed by id
type Library struct {
	byID  map[string]*entities.Ability
	order []string
}

// NewLibrary loads the embedded default ability catalogue
func NewLibrary() (*Library, error) {
	return ParseLibrary(defaultAbilities)
}

// ParseLibrary builds a library from YAML, validating every ability
func ParseLibrary(data []byte) (*Library, error) {
	var doc abilityDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing ability catalogue")
	}

	lib := &Library{byID: make(map[string]*entities.Ability, len(doc.Abilities))}
	for i := range doc.Abilities {
		a := doc.Abilities[i].toEntity()
		if err := a.Validate(); err != nil {
			return nil, errors.Wrapf(err, "ability %q", a.ID)
		}
		if _, dup := lib.byID[a.ID]; dup {
			return nil, errors.BadInputf("duplicate ability id %q", a.ID)
		}
		lib.byID[a.ID] = a
		lib.order = append(lib.order, a.ID)
	}
	return lib, nil
}

// Ability looks up one ability by id
func (l *Library) Ability(id string) (*entities.Ability, bool) {
	a, ok := l.byID[id]
	return a, ok
}

// Abilities returns the catalogue in declaration order
func (l *Library) Abilities() []*entities.Ability {
	out := make([]*entities.Ability, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}
