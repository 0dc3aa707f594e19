package entities

import "time"

// QuestStatus is the lifecycle state of a quest
type QuestStatus string

// Quest statuses
const (
	QuestLocked    QuestStatus = "locked"
	QuestAvailable QuestStatus = "available"
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
	QuestAbandoned QuestStatus = "abandoned"
)

// ObjectiveKind classifies what advances an objective
type ObjectiveKind string

// Objective kinds
const (
	ObjectiveKill    ObjectiveKind = "kill"
	ObjectiveAcquire ObjectiveKind = "acquire"
	ObjectiveReach   ObjectiveKind = "reach"
	ObjectiveTalk    ObjectiveKind = "talk"
)

// QuestObjective is one step of a quest
type QuestObjective struct {
	Kind     ObjectiveKind `json:"kind"`
	TargetID string        `json:"target_id"`
	Required int           `json:"required"`
	Progress int           `json:"progress"`
}

// Complete reports whether the objective has been satisfied
func (o *QuestObjective) Complete() bool {
	return o.Progress >= o.Required
}

// QuestReward describes what completing a quest grants
type QuestReward struct {
	Gold       int            `json:"gold,omitempty"`
	ItemIDs    []string       `json:"item_ids,omitempty"`
	Reputation map[string]int `json:"reputation,omitempty"` // faction id -> delta
}

// Quest is a multi-objective task with ordered objectives. Quests chain via
// NextQuestID.
type Quest struct {
	ID          string           `json:"id"`
	UniverseID  string           `json:"universe_id"`
	GiverID     string           `json:"giver_id,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Objectives  []QuestObjective `json:"objectives"`
	CurrentIdx  int              `json:"current_idx"`
	Status      QuestStatus      `json:"status"`
	Reward      *QuestReward     `json:"reward,omitempty"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	ParentID    string           `json:"parent_id,omitempty"`
	NextQuestID string           `json:"next_quest_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CurrentObjective returns the active objective, nil when the quest is done
func (q *Quest) CurrentObjective() *QuestObjective {
	if q.CurrentIdx < 0 || q.CurrentIdx >= len(q.Objectives) {
		return nil
	}
	return &q.Objectives[q.CurrentIdx]
}

// Advance moves to the next objective when the current one is complete.
// Returns true when the whole quest has been completed.
func (q *Quest) Advance() bool {
	obj := q.CurrentObjective()
	if obj == nil || !obj.Complete() {
		return false
	}
	q.CurrentIdx++
	if q.CurrentIdx >= len(q.Objectives) {
		q.Status = QuestCompleted
		return true
	}
	return false
}
