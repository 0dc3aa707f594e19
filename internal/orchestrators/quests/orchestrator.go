// Package quests tracks quest lifecycle and faction reputation. Quests are
// sequential: one objective is live at a time, and recorded events drive
// progress rather than direct mutation.
package quests

//go:generate mockgen -destination=mock/mock_service.go -package=questsmock github.com/KirkDiggler/tta-core/internal/orchestrators/quests Service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/pkg/clock"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

// Reputation tier thresholds
const (
	tierHonored    = 50
	tierFriendly   = 20
	tierNeutral    = -19
	tierUnfriendly = -49
)

// ReputationTier labels a standing score
func ReputationTier(score int) string {
	switch {
	case score >= tierHonored:
		return "Honored"
	case score >= tierFriendly:
		return "Friendly"
	case score >= tierNeutral:
		return "Neutral"
	case score >= tierUnfriendly:
		return "Unfriendly"
	default:
		return "Hostile"
	}
}

// Service defines the interface for quest and reputation tracking
type Service interface {
	// AcceptQuest activates an available quest
	AcceptQuest(ctx context.Context, input *AcceptInput) (*AcceptOutput, error)

	// AbandonQuest drops an active quest
	AbandonQuest(ctx context.Context, input *AbandonInput) (*AbandonOutput, error)

	// AdvanceFromEvent runs one event through every active quest in its
	// universe, updating objectives and granting rewards on completion
	AdvanceFromEvent(ctx context.Context, input *AdvanceInput) (*AdvanceOutput, error)

	// ListQuests returns quests filtered by status
	ListQuests(ctx context.Context, input *ListInput) (*ListOutput, error)

	// AdjustReputation applies faction standing deltas to a character
	AdjustReputation(ctx context.Context, input *ReputationInput) (*ReputationOutput, error)

	// Standings reads a character's faction standings
	Standings(ctx context.Context, input *StandingsInput) (*StandingsOutput, error)
}

// Config holds the dependencies for the quests orchestrator
type Config struct {
	TruthRepo truth.Repository
	IDGen     idgen.Generator
	Clock     clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.TruthRepo == nil {
		vb.RequiredField("TruthRepo")
	}
	if c.IDGen == nil {
		vb.RequiredField("IDGen")
	}
	return vb.Build()
}

type orchestrator struct {
	truthRepo truth.Repository
	idGen     idgen.Generator
	clock     clock.Clock
}

// NewOrchestrator creates a new quests orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	return &orchestrator{
		truthRepo: cfg.TruthRepo,
		idGen:     cfg.IDGen,
		clock:     c,
	}, nil
}

func (o *orchestrator) questEvent(q *entities.Quest, actorID, detail string) *entities.Event {
	now := o.clock.Now()
	return &entities.Event{
		ID:         o.idGen.Generate(),
		UniverseID: q.UniverseID,
		Type:       entities.EventQuestUpdated,
		ActorID:    actorID,
		Payload: map[string]interface{}{
			"quest_id": q.ID,
			"status":   string(q.Status),
			"detail":   detail,
		},
		GameTime:    now,
		RecordedAt:  now,
		Description: fmt.Sprintf("%s: %s", q.Name, detail),
	}
}

func (o *orchestrator) AcceptQuest(ctx context.Context, input *AcceptInput) (*AcceptOutput, error) {
	if input == nil || input.QuestID == "" {
		return nil, errors.BadInput("quest id is required")
	}
	got, err := o.truthRepo.GetQuest(ctx, &truth.GetQuestInput{QuestID: input.QuestID})
	if err != nil {
		return nil, err
	}
	q := got.Quest
	if q.Status != entities.QuestAvailable {
		return nil, errors.RuleViolationf("quest %s is %s, not available", q.Name, q.Status)
	}

	q.Status = entities.QuestActive
	q.UpdatedAt = o.clock.Now()
	if _, err := o.truthRepo.SaveQuest(ctx, &truth.SaveQuestInput{Quest: q}); err != nil {
		return nil, err
	}

	evt := o.questEvent(q, input.ActorID, "accepted")
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
		return nil, err
	}

	slog.Info("quest accepted", "quest_id", q.ID, "name", q.Name)
	return &AcceptOutput{Quest: q, EventID: evt.ID}, nil
}

func (o *orchestrator) AbandonQuest(ctx context.Context, input *AbandonInput) (*AbandonOutput, error) {
	if input == nil || input.QuestID == "" {
		return nil, errors.BadInput("quest id is required")
	}
	got, err := o.truthRepo.GetQuest(ctx, &truth.GetQuestInput{QuestID: input.QuestID})
	if err != nil {
		return nil, err
	}
	q := got.Quest
	if q.Status != entities.QuestActive {
		return nil, errors.RuleViolationf("quest %s is %s, not active", q.Name, q.Status)
	}

	q.Status = entities.QuestAbandoned
	q.UpdatedAt = o.clock.Now()
	if _, err := o.truthRepo.SaveQuest(ctx, &truth.SaveQuestInput{Quest: q}); err != nil {
		return nil, err
	}

	evt := o.questEvent(q, input.ActorID, "abandoned")
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
		return nil, err
	}
	return &AbandonOutput{Quest: q, EventID: evt.ID}, nil
}

// objectiveTarget extracts the id an event should be matched against for a
// given objective kind, and whether the event can progress that kind at all
func objectiveTarget(kind entities.ObjectiveKind, evt *entities.Event) (string, bool) {
	switch kind {
	case entities.ObjectiveKill:
		if evt.Type == entities.EventDeath {
			return evt.TargetID, true
		}
		if evt.Type == entities.EventCombatRound {
			if died, _ := evt.Payload["death"].(bool); died {
				return evt.TargetID, true
			}
		}
		return "", false
	case entities.ObjectiveAcquire:
		if evt.Type != entities.EventItemTransfer {
			return "", false
		}
		if itemID, ok := evt.Payload["item_id"].(string); ok {
			return itemID, true
		}
		return evt.TargetID, true
	case entities.ObjectiveReach:
		if evt.Type != entities.EventTravel {
			return "", false
		}
		if to, ok := evt.Payload["to"].(string); ok {
			return to, true
		}
		return evt.LocationID, true
	case entities.ObjectiveTalk:
		if evt.Type != entities.EventDialogue {
			return "", false
		}
		return evt.TargetID, true
	}
	return "", false
}

func (o *orchestrator) AdvanceFromEvent(ctx context.Context, input *AdvanceInput) (*AdvanceOutput, error) {
	if input == nil || input.UniverseID == "" || input.Event == nil {
		return nil, errors.BadInput("universe id and event are required")
	}

	active, err := o.truthRepo.ListQuests(ctx, &truth.ListQuestsInput{
		UniverseID: input.UniverseID,
		Status:     entities.QuestActive,
	})
	if err != nil {
		return nil, err
	}

	out := &AdvanceOutput{}
	for _, q := range active.Quests {
		obj := q.CurrentObjective()
		if obj == nil {
			continue
		}
		eventTarget, applies := objectiveTarget(obj.Kind, input.Event)
		if !applies {
			continue
		}
		if obj.TargetID != "" && obj.TargetID != eventTarget {
			continue
		}

		obj.Progress++
		progress := QuestProgress{QuestID: q.ID, QuestName: q.Name}
		if obj.Complete() {
			progress.ObjectiveCompleted = true
			progress.Narrative = fmt.Sprintf("Objective complete (%s).", obj.Kind)
			if q.Advance() {
				progress.QuestCompleted = true
				progress.Narrative = fmt.Sprintf("Quest completed: %s!", q.Name)
			}
		} else {
			progress.Narrative = fmt.Sprintf("Progress %d/%d.", obj.Progress, obj.Required)
		}

		q.UpdatedAt = o.clock.Now()
		if _, err := o.truthRepo.SaveQuest(ctx, &truth.SaveQuestInput{Quest: q}); err != nil {
			return nil, err
		}

		evt := o.questEvent(q, input.Event.ActorID, progress.Narrative)
		evt.CausedByID = input.Event.ID
		if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
			return nil, err
		}
		out.EventIDs = append(out.EventIDs, evt.ID)

		if progress.QuestCompleted && q.Reward != nil && len(q.Reward.Reputation) > 0 {
			rep, err := o.AdjustReputation(ctx, &ReputationInput{
				UniverseID:      input.UniverseID,
				EntityID:        input.Event.ActorID,
				Changes:         q.Reward.Reputation,
				Reason:          "quest reward: " + q.Name,
				CausedByEventID: evt.ID,
			})
			if err != nil {
				return nil, err
			}
			out.EventIDs = append(out.EventIDs, rep.EventID)
		}

		if progress.QuestCompleted && q.NextQuestID != "" {
			unlocked, err := o.unlockNext(ctx, q, input.Event.ActorID, evt.ID)
			if err != nil {
				return nil, err
			}
			if unlocked != "" {
				progress.UnlockedQuestID = q.NextQuestID
				out.EventIDs = append(out.EventIDs, unlocked)
			}
		}

		out.Progressed = append(out.Progressed, progress)
		slog.Debug("quest progressed",
			"quest_id", q.ID,
			"completed", progress.QuestCompleted,
			"event_id", input.Event.ID,
		)
	}
	return out, nil
}

// unlockNext flips a locked follow-up quest to available. Returns the id of
// the QUEST_UPDATED event, or empty when the next quest is missing or
// already unlocked.
func (o *orchestrator) unlockNext(ctx context.Context, q *entities.Quest, actorID, causedByID string) (string, error) {
	got, err := o.truthRepo.GetQuest(ctx, &truth.GetQuestInput{QuestID: q.NextQuestID})
	if err != nil {
		if errors.IsNotFound(err) {
			slog.Warn("next quest not found", "quest_id", q.ID, "next_quest_id", q.NextQuestID)
			return "", nil
		}
		return "", err
	}
	next := got.Quest
	if next.Status != entities.QuestLocked {
		return "", nil
	}

	next.Status = entities.QuestAvailable
	next.UpdatedAt = o.clock.Now()
	if _, err := o.truthRepo.SaveQuest(ctx, &truth.SaveQuestInput{Quest: next}); err != nil {
		return "", err
	}

	evt := o.questEvent(next, actorID, "unlocked")
	evt.CausedByID = causedByID
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
		return "", err
	}
	slog.Info("quest unlocked", "quest_id", next.ID, "unlocked_by", q.ID)
	return evt.ID, nil
}

func (o *orchestrator) ListQuests(ctx context.Context, input *ListInput) (*ListOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe id is required")
	}
	got, err := o.truthRepo.ListQuests(ctx, &truth.ListQuestsInput{
		UniverseID: input.UniverseID,
		Status:     input.Status,
	})
	if err != nil {
		return nil, err
	}
	return &ListOutput{Quests: got.Quests}, nil
}

func (o *orchestrator) factionName(ctx context.Context, universeID, factionID string) string {
	got, err := o.truthRepo.GetEntity(ctx, &truth.GetEntityInput{
		UniverseID: universeID,
		EntityID:   factionID,
	})
	if err != nil {
		return "Unknown Faction"
	}
	return got.Entity.Name
}

func (o *orchestrator) AdjustReputation(ctx context.Context, input *ReputationInput) (*ReputationOutput, error) {
	if input == nil || input.UniverseID == "" || input.EntityID == "" {
		return nil, errors.BadInput("universe id and entity id are required")
	}
	if len(input.Changes) == 0 {
		return nil, errors.BadInput("at least one reputation change is required")
	}

	got, err := o.truthRepo.GetEntity(ctx, &truth.GetEntityInput{
		UniverseID: input.UniverseID,
		EntityID:   input.EntityID,
	})
	if err != nil {
		return nil, err
	}
	e := got.Entity
	if e.Character == nil {
		return nil, errors.InvalidTargetf("entity %s has no character stats", e.ID)
	}
	if e.Character.Reputation == nil {
		e.Character.Reputation = make(map[string]int)
	}

	out := &ReputationOutput{}
	payload := map[string]interface{}{}
	for factionID, delta := range input.Changes {
		old := e.Character.Reputation[factionID]
		e.Character.Reputation[factionID] = old + delta
		out.Changes = append(out.Changes, ReputationChange{
			FactionID:   factionID,
			FactionName: o.factionName(ctx, input.UniverseID, factionID),
			OldScore:    old,
			NewScore:    old + delta,
			Delta:       delta,
			Tier:        ReputationTier(old + delta),
		})
		payload[factionID] = delta
	}

	now := o.clock.Now()
	evt := &entities.Event{
		ID:         o.idGen.Generate(),
		UniverseID: input.UniverseID,
		Type:       entities.EventReputationChanged,
		ActorID:    input.EntityID,
		CausedByID: input.CausedByEventID,
		Payload: map[string]interface{}{
			"changes": payload,
			"reason":  input.Reason,
		},
		GameTime:   now,
		RecordedAt: now,
	}
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
		return nil, err
	}

	e.Version++
	e.UpdatedAt = now
	if _, err := o.truthRepo.SaveEntity(ctx, &truth.SaveEntityInput{Entity: e}); err != nil {
		return nil, err
	}

	out.EventID = evt.ID
	slog.Info("reputation adjusted",
		"entity_id", input.EntityID,
		"factions", len(input.Changes),
	)
	return out, nil
}

func (o *orchestrator) Standings(ctx context.Context, input *StandingsInput) (*StandingsOutput, error) {
	if input == nil || input.UniverseID == "" || input.EntityID == "" {
		return nil, errors.BadInput("universe id and entity id are required")
	}
	got, err := o.truthRepo.GetEntity(ctx, &truth.GetEntityInput{
		UniverseID: input.UniverseID,
		EntityID:   input.EntityID,
	})
	if err != nil {
		return nil, err
	}
	if got.Entity.Character == nil {
		return nil, errors.InvalidTargetf("entity %s has no character stats", input.EntityID)
	}

	out := &StandingsOutput{}
	for factionID, score := range got.Entity.Character.Reputation {
		out.Standings = append(out.Standings, FactionStanding{
			FactionID:   factionID,
			FactionName: o.factionName(ctx, input.UniverseID, factionID),
			Score:       score,
			Tier:        ReputationTier(score),
		})
	}
	return out, nil
}
