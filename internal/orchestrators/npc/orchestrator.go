// Package npc implements personality-driven action selection. Scoring is a
// weighted sum over motivation fit, relationship alignment, personality
// consistency, and risk, with ties broken by the lowest action id so
// decisions are reproducible.
package npc

//go:generate mockgen -destination=mock/mock_service.go -package=npcmock github.com/KirkDiggler/tta-core/internal/orchestrators/npc Service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/pkg/clock"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	"github.com/KirkDiggler/tta-core/internal/repositories/graph"
)

// Factor weights. Motivation dominates; risk enters inverted so safe
// actions score higher.
const (
	weightMotivation   = 0.35
	weightRelationship = 0.25
	weightPersonality  = 0.25
	weightRisk         = 0.15
)

// memoryFloor is the importance below which an event leaves no memory
const memoryFloor = 0.3

// Service defines the interface for NPC decisions
type Service interface {
	// DecideAction scores the candidate set and returns the best action
	DecideAction(ctx context.Context, input *DecideInput) (*DecideOutput, error)

	// FormMemory stores a memory of an event when it matters enough
	FormMemory(ctx context.Context, input *FormMemoryInput) (*FormMemoryOutput, error)
}

// Config holds the dependencies for the NPC orchestrator
type Config struct {
	GraphRepo graph.Repository
	IDGen     idgen.Generator
	Clock     clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.GraphRepo == nil {
		vb.RequiredField("GraphRepo")
	}
	if c.IDGen == nil {
		vb.RequiredField("IDGen")
	}
	return vb.Build()
}

type orchestrator struct {
	graphRepo graph.Repository
	idGen     idgen.Generator
	clock     clock.Clock
}

// NewOrchestrator creates a new NPC orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	return &orchestrator{
		graphRepo: cfg.GraphRepo,
		idGen:     cfg.IDGen,
		clock:     c,
	}, nil
}

// motivationPreferences maps each motivation to the actions that serve it,
// best first
var motivationPreferences = map[entities.Motivation][]entities.NPCAction{
	entities.MotivationSurvival:  {entities.ActionFlee, entities.ActionObserve, entities.ActionLeave},
	entities.MotivationSafety:    {entities.ActionLeave, entities.ActionObserve, entities.ActionFlee},
	entities.MotivationWealth:    {entities.ActionNegotiate, entities.ActionObserve},
	entities.MotivationPower:     {entities.ActionAttack, entities.ActionUseAbility},
	entities.MotivationLove:      {entities.ActionAssist},
	entities.MotivationBelonging: {entities.ActionAssist, entities.ActionNegotiate},
	entities.MotivationRespect:   {entities.ActionNegotiate, entities.ActionAssist},
	entities.MotivationKnowledge: {entities.ActionObserve, entities.ActionNegotiate},
	entities.MotivationJustice:   {entities.ActionAttack, entities.ActionAssist},
	entities.MotivationDuty:      {entities.ActionAssist, entities.ActionObserve},
	entities.MotivationRevenge:   {entities.ActionAttack, entities.ActionUseAbility},
}

func scoreMotivation(action entities.NPCAction, motivations []entities.Motivation) float64 {
	score := 0.0
	for i, motivation := range motivations {
		weight := 1.0 / float64(i+1)
		for pos, preferred := range motivationPreferences[motivation] {
			if preferred == action {
				score += weight * (1.0 - 0.2*float64(pos))
				break
			}
		}
	}
	if score > 1 {
		return 1
	}
	return score
}

// trustScore maps a trust level in [-1, 1] onto an action's appeal. The
// second return is false when trust says nothing about the action.
func trustScore(action entities.NPCAction, trust float64) (float64, bool) {
	if trust >= 0 {
		switch action {
		case entities.ActionAssist, entities.ActionNegotiate:
			return 0.5 + 0.5*trust, true
		case entities.ActionAttack:
			return 0.5 - 0.4*trust, true
		}
	} else {
		switch action {
		case entities.ActionAttack, entities.ActionObserve:
			return 0.5 + 0.5*(-trust), true
		case entities.ActionAssist:
			return 0.5 - 0.4*(-trust), true
		}
	}
	return 0.5, false
}

func scoreRelationship(action entities.NPCAction, rels []*entities.Relationship, targetID string, reputation int) float64 {
	if targetID == "" {
		return 0.5
	}
	knowsTarget := false
	for _, rel := range rels {
		if rel.ToID != targetID {
			continue
		}
		switch rel.Type {
		case entities.RelKnows:
			knowsTarget = true
			if sc, ok := trustScore(action, rel.Trust); ok {
				return sc
			}
		case entities.RelFears:
			switch action {
			case entities.ActionFlee, entities.ActionLeave:
				return 0.5 + 0.5*rel.Strength
			case entities.ActionAttack, entities.ActionNegotiate:
				return 0.5 - 0.4*rel.Strength
			}
		}
	}

	// No direct history: faction standing stands in for trust
	if !knowsTarget && reputation != 0 {
		prior := float64(reputation) / 100
		if prior > 1 {
			prior = 1
		} else if prior < -1 {
			prior = -1
		}
		if sc, ok := trustScore(action, prior); ok {
			return sc
		}
	}
	return 0.5
}

func scorePersonality(action entities.NPCAction, traits entities.PersonalityTraits) float64 {
	score := 0.5
	delta := func(v int) float64 { return float64(v-50) / 200 }

	switch action {
	case entities.ActionNegotiate:
		score += delta(traits.Extraversion)
		score += delta(traits.Openness)
	case entities.ActionObserve:
		score += -delta(traits.Extraversion)
		score += delta(traits.Conscientiousness)
		score += delta(traits.Openness)
	case entities.ActionAssist:
		score += delta(traits.Agreeableness)
	case entities.ActionAttack:
		score += -delta(traits.Agreeableness)
	case entities.ActionFlee:
		score += delta(traits.Neuroticism)
	case entities.ActionLeave:
		score += -delta(traits.Extraversion)
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func assessRisk(action entities.NPCAction, input *DecideInput) float64 {
	var risk float64
	switch action {
	case entities.ActionAttack:
		risk = 0.5
	case entities.ActionUseAbility:
		risk = 0.4
	case entities.ActionAssist:
		risk = 0.3
	case entities.ActionNegotiate:
		risk = 0.2
	case entities.ActionFlee, entities.ActionLeave:
		risk = 0.1
	}

	c := input.NPC.Character
	if action == entities.ActionAttack && c.HPMax > 0 && float64(c.HP)/float64(c.HPMax) < 0.5 {
		risk += 0.3
	}
	risk += float64(input.DangerLevel) / 40

	// Danger presses harder on anxious NPCs: fleeing reads as safer to
	// them the higher the danger climbs
	if action == entities.ActionFlee && c.NPC != nil && c.NPC.Traits.Neuroticism > 50 {
		risk -= float64(input.DangerLevel) / 20 * float64(c.NPC.Traits.Neuroticism-50) / 100
	}

	if risk < 0 {
		return 0
	}
	if risk > 1 {
		return 1
	}
	return risk
}

func (o *orchestrator) DecideAction(ctx context.Context, input *DecideInput) (*DecideOutput, error) {
	if input == nil || input.NPC == nil || input.NPC.Character == nil {
		return nil, errors.BadInput("npc entity with character stats is required")
	}
	profile := input.NPC.Character.NPC
	if profile == nil {
		return nil, errors.InvalidTargetf("entity %s has no decision profile", input.NPC.ID)
	}

	out := &DecideOutput{TargetID: input.TargetID}
	best := -1.0
	for _, action := range entities.AllNPCActions() {
		score := ActionScore{
			Action:       action,
			Motivation:   scoreMotivation(action, profile.Motivations),
			Relationship: scoreRelationship(action, input.Relationships, input.TargetID, input.TargetReputation),
			Personality:  scorePersonality(action, profile.Traits),
			Risk:         assessRisk(action, input),
		}
		score.Total = weightMotivation*score.Motivation +
			weightRelationship*score.Relationship +
			weightPersonality*score.Personality +
			weightRisk*(1-score.Risk)
		out.Scores = append(out.Scores, score)

		// Strict greater keeps the lowest action id on a tie
		if score.Total > best {
			best = score.Total
			out.Action = action
		}
	}

	out.Reasoning = explain(out)
	slog.Debug("npc decision",
		"npc_id", input.NPC.ID,
		"action", out.Action.String(),
		"score", best,
	)
	return out, nil
}

func explain(out *DecideOutput) string {
	for _, s := range out.Scores {
		if s.Action != out.Action {
			continue
		}
		switch {
		case s.Motivation > 0.6:
			return fmt.Sprintf("chose %s: aligns with motivation", out.Action)
		case s.Risk < 0.2:
			return fmt.Sprintf("chose %s: low risk", out.Action)
		default:
			return fmt.Sprintf("chose %s", out.Action)
		}
	}
	return fmt.Sprintf("chose %s", out.Action)
}

// FormMemory weighs an event and stores it when important enough. Events
// aimed at the NPC, combat, and dialogue all raise the weight.
func (o *orchestrator) FormMemory(ctx context.Context, input *FormMemoryInput) (*FormMemoryOutput, error) {
	if input == nil || input.Event == nil || input.NPCID == "" {
		return nil, errors.BadInput("npc id and event are required")
	}

	importance := 0.5
	evt := input.Event
	if evt.TargetID == input.NPCID {
		importance += 0.3
	}
	switch evt.Type {
	case entities.EventCombatRound, entities.EventDeath, entities.EventDefyDeath:
		importance += 0.3
	case entities.EventDialogue, entities.EventSkillCheck:
		importance += 0.2
	}
	switch evt.Outcome {
	case entities.OutcomeStrongHit, entities.OutcomeMiss:
		importance += 0.2
	}
	if importance > 1 {
		importance = 1
	}
	if importance < memoryFloor {
		return &FormMemoryOutput{Formed: false, Salience: importance}, nil
	}

	summary := input.Summary
	if summary == "" {
		summary = string(evt.Type) + " event"
	}
	memory := &entities.NPCMemory{
		ID:         o.idGen.Generate(),
		NPCID:      input.NPCID,
		UniverseID: input.UniverseID,
		EventID:    evt.ID,
		Summary:    summary,
		Salience:   importance,
		FormedAt:   o.clock.Now(),
	}
	if _, err := o.graphRepo.SaveMemory(ctx, &graph.SaveMemoryInput{Memory: memory}); err != nil {
		return nil, err
	}
	return &FormMemoryOutput{Formed: true, MemoryID: memory.ID, Salience: importance}, nil
}
