package quests

import "github.com/KirkDiggler/tta-core/internal/entities"

// AcceptInput marks an available quest as taken
type AcceptInput struct {
	QuestID string
	// ActorID is who accepted, recorded on the QUEST_UPDATED event
	ActorID string
}

// AcceptOutput carries the activated quest
type AcceptOutput struct {
	Quest   *entities.Quest
	EventID string
}

// AbandonInput drops an active quest
type AbandonInput struct {
	QuestID string
	ActorID string
}

// AbandonOutput carries the abandoned quest
type AbandonOutput struct {
	Quest   *entities.Quest
	EventID string
}

// AdvanceInput feeds one recorded event through the active quests
type AdvanceInput struct {
	UniverseID string
	Event      *entities.Event
}

// QuestProgress reports what one event did to one quest
type QuestProgress struct {
	QuestID            string
	QuestName          string
	ObjectiveCompleted bool
	QuestCompleted     bool
	// UnlockedQuestID is the follow-up quest made available by completion
	UnlockedQuestID string
	Narrative       string
}

// AdvanceOutput lists every quest the event touched
type AdvanceOutput struct {
	Progressed []QuestProgress
	EventIDs   []string
}

// ListInput filters quests by universe and optional status
type ListInput struct {
	UniverseID string
	Status     entities.QuestStatus
}

// ListOutput carries the matched quests
type ListOutput struct {
	Quests []*entities.Quest
}

// ReputationInput applies faction standing deltas to a character
type ReputationInput struct {
	UniverseID string
	EntityID   string
	// Changes maps faction entity id to delta
	Changes         map[string]int
	Reason          string
	CausedByEventID string
}

// ReputationChange is one faction delta after application
type ReputationChange struct {
	FactionID   string
	FactionName string
	OldScore    int
	NewScore    int
	Delta       int
	Tier        string
}

// ReputationOutput carries the applied changes
type ReputationOutput struct {
	Changes []ReputationChange
	EventID string
}

// StandingsInput identifies whose standings to read
type StandingsInput struct {
	UniverseID string
	EntityID   string
}

// FactionStanding is one faction's view of a character
type FactionStanding struct {
	FactionID   string
	FactionName string
	Score       int
	Tier        string
}

// StandingsOutput carries all standings, as stored
type StandingsOutput struct {
	Standings []FactionStanding
}
