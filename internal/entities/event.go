package entities

import "time"

// EventType labels what happened
type EventType string

// Event types
const (
	EventCombatRound         EventType = "COMBAT_ROUND"
	EventDialogue            EventType = "DIALOGUE"
	EventTravel              EventType = "TRAVEL"
	EventWorldTravel         EventType = "WORLD_TRAVEL"
	EventItemTransfer        EventType = "ITEM_TRANSFER"
	EventItemLost            EventType = "ITEM_LOST"
	EventFork                EventType = "FORK"
	EventMerge               EventType = "MERGE"
	EventConditionApplied    EventType = "CONDITION_APPLIED"
	EventConditionRemoved    EventType = "CONDITION_REMOVED"
	EventConcentrationBroken EventType = "CONCENTRATION_BROKEN"
	EventResourceUsed        EventType = "RESOURCE_USED"
	EventBreakingPoint       EventType = "BREAKING_POINT"
	EventQuestUpdated        EventType = "QUEST_UPDATED"
	EventSkillCheck          EventType = "SKILL_CHECK"
	EventGMMove              EventType = "GM_MOVE"
	EventRest                EventType = "REST"
	EventDeath               EventType = "DEATH"
	EventDefyDeath           EventType = "DEFY_DEATH"
	EventEntityCreated       EventType = "ENTITY_CREATED"
	EventReputationChanged   EventType = "REPUTATION_CHANGED"
)

// Outcome labels how an event resolved
type Outcome string

// Outcomes
const (
	OutcomeHit       Outcome = "HIT"
	OutcomeMiss      Outcome = "MISS"
	OutcomeStrongHit Outcome = "STRONG_HIT"
	OutcomeWeakHit   Outcome = "WEAK_HIT"
	OutcomeSuccess   Outcome = "SUCCESS"
	OutcomeFail      Outcome = "FAIL"
	OutcomeNeutral   Outcome = "NEUTRAL"
)

// Event is an immutable record of a state change. Events are the sole
// mechanism by which state changes are recorded: the event is appended
// before the entity update, so the log is the ground truth. CausedByID
// references form a DAG per universe.
type Event struct {
	ID          string                 `json:"id"`
	UniverseID  string                 `json:"universe_id"`
	Type        EventType              `json:"type"`
	Outcome     Outcome                `json:"outcome,omitempty"`
	ActorID     string                 `json:"actor_id"`
	TargetID    string                 `json:"target_id,omitempty"`
	LocationID  string                 `json:"location_id,omitempty"`
	Roll        int                    `json:"roll,omitempty"`
	CausedByID  string                 `json:"caused_by_id,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	GameTime    time.Time              `json:"game_time"`
	RecordedAt  time.Time              `json:"recorded_at"`
	Description string                 `json:"description,omitempty"`
}
