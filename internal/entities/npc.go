package entities

import "time"

// PersonalityTraits is the Big Five profile, each trait 0-100
type PersonalityTraits struct {
	Openness          int `json:"openness"`
	Conscientiousness int `json:"conscientiousness"`
	Extraversion      int `json:"extraversion"`
	Agreeableness     int `json:"agreeableness"`
	Neuroticism       int `json:"neuroticism"`
}

// Motivation is a driving goal for an NPC
type Motivation string

// Motivations, grouped loosely from self-preservation up to higher purpose
const (
	MotivationSurvival  Motivation = "survival"
	MotivationSafety    Motivation = "safety"
	MotivationWealth    Motivation = "wealth"
	MotivationPower     Motivation = "power"
	MotivationLove      Motivation = "love"
	MotivationBelonging Motivation = "belonging"
	MotivationRespect   Motivation = "respect"
	MotivationKnowledge Motivation = "knowledge"
	MotivationJustice   Motivation = "justice"
	MotivationDuty      Motivation = "duty"
	MotivationRevenge   Motivation = "revenge"
)

// NPCProfile is the decision-making profile attached to an NPC entity
type NPCProfile struct {
	EntityID    string            `json:"entity_id"`
	Traits      PersonalityTraits `json:"traits"`
	Motivations []Motivation      `json:"motivations"` // priority order
	// FactionID links the NPC to a faction whose standing colors first
	// impressions of strangers
	FactionID string `json:"faction_id,omitempty"`
}

// NPCMemory is a remembered event, stored in the graph store and keyed by
// NPC id and timestamp
type NPCMemory struct {
	ID         string    `json:"id"`
	NPCID      string    `json:"npc_id"`
	UniverseID string    `json:"universe_id"`
	EventID    string    `json:"event_id"`
	Summary    string    `json:"summary"`
	Salience   float64   `json:"salience"` // 0-1, how strongly it was formed
	FormedAt   time.Time `json:"formed_at"`
}

// NPCAction is the closed candidate set for NPC decisions. The numeric order
// is the deterministic tie-break: lowest wins.
type NPCAction int

// Candidate actions
const (
	ActionAttack NPCAction = iota
	ActionFlee
	ActionNegotiate
	ActionAssist
	ActionObserve
	ActionUseAbility
	ActionLeave
)

// String returns the action's label
func (a NPCAction) String() string {
	switch a {
	case ActionAttack:
		return "attack"
	case ActionFlee:
		return "flee"
	case ActionNegotiate:
		return "negotiate"
	case ActionAssist:
		return "assist"
	case ActionObserve:
		return "observe"
	case ActionUseAbility:
		return "use_ability"
	case ActionLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// AllNPCActions lists the candidate set in tie-break order
func AllNPCActions() []NPCAction {
	return []NPCAction{
		ActionAttack, ActionFlee, ActionNegotiate, ActionAssist,
		ActionObserve, ActionUseAbility, ActionLeave,
	}
}
