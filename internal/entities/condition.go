package entities

// ConditionType names a condition
type ConditionType string

// The SRD condition set plus engine extensions
const (
	ConditionBlinded       ConditionType = "blinded"
	ConditionCharmed       ConditionType = "charmed"
	ConditionDeafened      ConditionType = "deafened"
	ConditionFrightened    ConditionType = "frightened"
	ConditionGrappled      ConditionType = "grappled"
	ConditionIncapacitated ConditionType = "incapacitated"
	ConditionInvisible     ConditionType = "invisible"
	ConditionParalyzed     ConditionType = "paralyzed"
	ConditionPetrified     ConditionType = "petrified"
	ConditionPoisoned      ConditionType = "poisoned"
	ConditionProne         ConditionType = "prone"
	ConditionRestrained    ConditionType = "restrained"
	ConditionStunned       ConditionType = "stunned"
	ConditionUnconscious   ConditionType = "unconscious"
	ConditionExhaustion    ConditionType = "exhaustion"
	ConditionBurning       ConditionType = "burning"
	ConditionBleeding      ConditionType = "bleeding"
)

// DurationType describes how a condition or effect expires
type DurationType string

// Duration types
const (
	DurationRounds    DurationType = "rounds"
	DurationMinutes   DurationType = "minutes"
	DurationUntilSave DurationType = "until_save"
	DurationUntilRest DurationType = "until_rest"
	DurationPermanent DurationType = "permanent"
)

// ModifierType describes how a stat modifier combines
type ModifierType string

// Modifier types
const (
	ModifierBonus   ModifierType = "bonus"
	ModifierPenalty ModifierType = "penalty"
	ModifierSet     ModifierType = "set"
)

// ConditionInstance is a condition applied to an entity
type ConditionInstance struct {
	ID             string        `json:"id"`
	EntityID       string        `json:"entity_id"`
	Condition      ConditionType `json:"condition"`
	DurationType   DurationType  `json:"duration_type"`
	Remaining      int           `json:"remaining"`
	AppliedAtRound int           `json:"applied_at_round"`
	SaveAbility    AbilityScore  `json:"save_ability,omitempty"`
	SaveDC         int           `json:"save_dc,omitempty"`
	SourceID       string        `json:"source_id,omitempty"`       // ability or effect that applied it
	DamagePerTick  string        `json:"damage_per_tick,omitempty"` // DoT dice, e.g. burning 1d4
}

// ActiveEffect is a stat modifier applied to an entity for a duration
type ActiveEffect struct {
	ID             string       `json:"id"`
	EntityID       string       `json:"entity_id"`
	CasterID       string       `json:"caster_id,omitempty"`
	AbilityID      string       `json:"ability_id,omitempty"`
	Stat           string       `json:"stat"`
	Value          int          `json:"value"`
	Dice           string       `json:"dice,omitempty"`
	Type           ModifierType `json:"type"`
	DurationType   DurationType `json:"duration_type"`
	Remaining      int          `json:"remaining"`
	AppliedAtRound int          `json:"applied_at_round"`
	Concentration  bool         `json:"concentration,omitempty"`
}

// AdvantageState is the three-valued advantage outcome of condition math
type AdvantageState int

// Advantage states. Advantage and disadvantage from multiple sources do not
// stack; one of each cancels to normal.
const (
	Disadvantage AdvantageState = -1
	Normal       AdvantageState = 0
	Advantage    AdvantageState = 1
)

// Combine merges two advantage states under the no-stacking rule
func (a AdvantageState) Combine(b AdvantageState) AdvantageState {
	if a == b {
		return a
	}
	if a == Normal {
		return b
	}
	if b == Normal {
		return a
	}
	return Normal
}

// conditionDelta captures how a condition shifts attack math
type conditionDelta struct {
	ownAttacks        AdvantageState // the afflicted entity's own attacks
	incomingMelee     AdvantageState // attacks against it from adjacent melee
	incomingRanged    AdvantageState // ranged attacks against it
	autoCritMelee     bool           // melee hits are automatic criticals
	cannotAct         bool
	autoFailStrDexSav bool
}

var conditionDeltas = map[ConditionType]conditionDelta{
	ConditionBlinded:    {ownAttacks: Disadvantage, incomingMelee: Advantage, incomingRanged: Advantage},
	ConditionInvisible:  {ownAttacks: Advantage, incomingMelee: Disadvantage, incomingRanged: Disadvantage},
	ConditionFrightened: {ownAttacks: Disadvantage},
	ConditionPoisoned:   {ownAttacks: Disadvantage},
	ConditionProne:      {ownAttacks: Disadvantage, incomingMelee: Advantage, incomingRanged: Disadvantage},
	ConditionRestrained: {ownAttacks: Disadvantage, incomingMelee: Advantage, incomingRanged: Advantage},
	ConditionParalyzed: {
		incomingMelee: Advantage, incomingRanged: Advantage,
		autoCritMelee: true, cannotAct: true, autoFailStrDexSav: true,
	},
	ConditionStunned: {
		incomingMelee: Advantage, incomingRanged: Advantage,
		cannotAct: true, autoFailStrDexSav: true,
	},
	ConditionUnconscious: {
		incomingMelee: Advantage, incomingRanged: Advantage,
		autoCritMelee: true, cannotAct: true, autoFailStrDexSav: true,
	},
	ConditionPetrified: {
		incomingMelee: Advantage, incomingRanged: Advantage,
		cannotAct: true, autoFailStrDexSav: true,
	},
	ConditionIncapacitated: {cannotAct: true},
}

// OwnAttackState returns the advantage shift a condition puts on the
// afflicted entity's own attacks
func OwnAttackState(c ConditionType) AdvantageState {
	return conditionDeltas[c].ownAttacks
}

// IncomingAttackState returns the advantage shift for attacks against the
// afflicted entity
func IncomingAttackState(c ConditionType, ranged bool) AdvantageState {
	d := conditionDeltas[c]
	if ranged {
		return d.incomingRanged
	}
	return d.incomingMelee
}

// AutoCritOnMelee reports whether melee hits against the afflicted entity
// are automatic criticals
func AutoCritOnMelee(c ConditionType) bool {
	return conditionDeltas[c].autoCritMelee
}

// PreventsActions reports whether the condition stops the entity acting
func PreventsActions(c ConditionType) bool {
	return conditionDeltas[c].cannotAct
}

// AutoFailsStrDexSaves reports whether the condition auto-fails STR and DEX
// saving throws
func AutoFailsStrDexSaves(c ConditionType) bool {
	return conditionDeltas[c].autoFailStrDexSav
}
