package entities

import "github.com/KirkDiggler/tta-core/internal/errors"

// AbilitySource is where an ability's power comes from
type AbilitySource string

// Ability sources
const (
	SourceMagic   AbilitySource = "magic"
	SourceTech    AbilitySource = "tech"
	SourceMartial AbilitySource = "martial"
)

// Mechanism is how an ability is paid for
type Mechanism string

// Resource mechanisms
const (
	MechanismSlots    Mechanism = "slots"
	MechanismCooldown Mechanism = "cooldown"
	MechanismUsageDie Mechanism = "usage_die"
	MechanismStress   Mechanism = "stress"
	MechanismMomentum Mechanism = "momentum"
	MechanismFree     Mechanism = "free"
)

// TargetingType describes who an ability can hit
type TargetingType string

// Targeting types
const (
	TargetSelf       TargetingType = "self"
	TargetSingle     TargetingType = "single"
	TargetMultiple   TargetingType = "multiple"
	TargetAreaSphere TargetingType = "area_sphere"
	TargetAreaCone   TargetingType = "area_cone"
	TargetAreaLine   TargetingType = "area_line"
	TargetAreaCube   TargetingType = "area_cube"
)

// ActionCost is the action-economy slot an ability consumes
type ActionCost string

// Action costs
const (
	CostAction   ActionCost = "action"
	CostBonus    ActionCost = "bonus"
	CostReaction ActionCost = "reaction"
	CostFree     ActionCost = "free"
)

// MechanismDetails carries the per-mechanism parameters
type MechanismDetails struct {
	SlotLevel    int    `json:"slot_level,omitempty"`     // slots
	CooldownName string `json:"cooldown_name,omitempty"`  // cooldown
	UsageDieName string `json:"usage_die_name,omitempty"` // usage_die
	StressCost   int    `json:"stress_cost,omitempty"`    // stress
	MomentumCost int    `json:"momentum_cost,omitempty"`  // momentum
}

// DamageEffect is an ability's damage block
type DamageEffect struct {
	Dice        string       `json:"dice"`
	Type        string       `json:"type,omitempty"`
	SaveAbility AbilityScore `json:"save_ability,omitempty"`
	SaveDC      int          `json:"save_dc,omitempty"`
	HalfOnSave  bool         `json:"half_on_save,omitempty"`
}

// HealingEffect is an ability's healing block
type HealingEffect struct {
	Dice     string       `json:"dice,omitempty"`
	Flat     int          `json:"flat,omitempty"`
	Modifier AbilityScore `json:"modifier,omitempty"`
}

// ConditionEffect applies a condition with a duration
type ConditionEffect struct {
	Condition    ConditionType `json:"condition"`
	DurationType DurationType  `json:"duration_type"`
	Duration     int           `json:"duration,omitempty"`
	SaveAbility  AbilityScore  `json:"save_ability,omitempty"`
	SaveDC       int           `json:"save_dc,omitempty"`
}

// ModifierEffect applies a stat delta for a duration
type ModifierEffect struct {
	Stat         string       `json:"stat"`
	Value        int          `json:"value"`
	Dice         string       `json:"dice,omitempty"` // rolled per application, e.g. bless 1d4
	Type         ModifierType `json:"type"`
	DurationType DurationType `json:"duration_type"`
	Duration     int          `json:"duration,omitempty"`
}

// Targeting describes range and shape
type Targeting struct {
	Type     TargetingType `json:"type"`
	RangeFt  int           `json:"range_ft,omitempty"`
	AreaFt   int           `json:"area_ft,omitempty"`
	MaxCount int           `json:"max_count,omitempty"` // multiple
}

// Ability is the unified ability schema across magic, tech, and martial
// sources. At least one effect block must be present.
type Ability struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Source      AbilitySource `json:"source"`
	Subtype     string        `json:"subtype,omitempty"`

	Mechanism        Mechanism        `json:"mechanism"`
	MechanismDetails MechanismDetails `json:"mechanism_details"`

	Damage    *DamageEffect    `json:"damage,omitempty"`
	Healing   *HealingEffect   `json:"healing,omitempty"`
	Condition *ConditionEffect `json:"condition,omitempty"`
	Modifiers []ModifierEffect `json:"modifiers,omitempty"`

	Targeting  Targeting  `json:"targeting"`
	ActionCost ActionCost `json:"action_cost"`

	RequiresConcentration bool `json:"requires_concentration,omitempty"`
}

// Validate enforces the ability schema rules
func (a *Ability) Validate() error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("id", a.ID, vb)
	errors.ValidateRequired("name", a.Name, vb)
	errors.ValidateEnum("source", string(a.Source),
		[]string{string(SourceMagic), string(SourceTech), string(SourceMartial)}, vb)

	switch a.Mechanism {
	case MechanismSlots:
		if a.MechanismDetails.SlotLevel < 0 {
			vb.Field("mechanism_details.slot_level", "must be at least 0")
		}
	case MechanismCooldown:
		if a.MechanismDetails.CooldownName == "" {
			vb.RequiredField("mechanism_details.cooldown_name")
		}
	case MechanismUsageDie:
		if a.MechanismDetails.UsageDieName == "" {
			vb.RequiredField("mechanism_details.usage_die_name")
		}
	case MechanismStress, MechanismMomentum, MechanismFree:
		// no extra parameters required
	default:
		vb.Fieldf("mechanism", "unknown mechanism %q", a.Mechanism)
	}

	if a.Damage == nil && a.Healing == nil && a.Condition == nil && len(a.Modifiers) == 0 {
		vb.Field("effects", "at least one effect block is required")
	}

	switch a.Targeting.Type {
	case TargetAreaSphere, TargetAreaCone, TargetAreaLine, TargetAreaCube:
		if a.Targeting.AreaFt <= 0 {
			vb.RequiredField("targeting.area_ft")
		}
	case TargetSelf, TargetSingle, TargetMultiple:
		// no area required
	default:
		vb.Fieldf("targeting.type", "unknown targeting type %q", a.Targeting.Type)
	}

	return vb.Build()
}

// IsArea reports whether the ability hits an area rather than picked targets
func (a *Ability) IsArea() bool {
	switch a.Targeting.Type {
	case TargetAreaSphere, TargetAreaCone, TargetAreaLine, TargetAreaCube:
		return true
	}
	return false
}
