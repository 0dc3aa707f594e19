package effects

import (
	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/skills"
)

// ApplyInput carries one ability application against a target set
type ApplyInput struct {
	UniverseID string
	Ability    *entities.Ability
	Caster     *entities.Entity
	Targets    []*entities.Entity
	Round      int
	// Overlay is the universe's physics configuration, nil for normal rules
	Overlay *entities.PhysicsOverlay
	// CausedByEventID threads the causal chain
	CausedByEventID string
}

// ApplyOutput reports what the ability did per target
type ApplyOutput struct {
	// Damage and Healing are keyed by target entity id
	Damage  map[string]int
	Healing map[string]int
	// Saves holds each target's save against the ability, when one was called
	Saves map[string]*skills.SaveOutput
	// ConditionsApplied is keyed by target entity id
	ConditionsApplied map[string]entities.ConditionType
	EffectsApplied    int
	// ConcentrationStarted is set when the caster began concentrating
	ConcentrationStarted bool
	EventIDs             []string
	Narrative            string
}

// TickInput advances one entity into a new combat round
type TickInput struct {
	UniverseID string
	Entity     *entities.Entity
	Round      int
}

// TickOutput reports what the round tick changed
type TickOutput struct {
	// Ticked is false when the entity was already ticked for this round
	Ticked            bool
	ConditionsExpired []entities.ConditionType
	ConditionsSaved   []entities.ConditionType
	EffectsExpired    int
	DamageOverTime    int
	EventIDs          []string
}

// ConcentrationInput checks whether damage breaks the entity's concentration
type ConcentrationInput struct {
	UniverseID      string
	Entity          *entities.Entity
	Damage          int
	Round           int
	CausedByEventID string
}

// ConcentrationOutput reports the save and its consequences
type ConcentrationOutput struct {
	// Concentrating is false when there was nothing to break
	Concentrating bool
	Broken        bool
	AbilityID     string
	Save          *skills.SaveOutput
	// EffectsRemoved counts concentration effects stripped across entities
	EffectsRemoved int
	EventID        string
}
