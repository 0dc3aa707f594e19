// Package effects implements the effect pipeline: ability damage, healing,
// conditions, stat modifiers, concentration, and the per-round tick.
package effects

//go:generate mockgen -destination=mock/mock_service.go -package=effectsmock github.com/KirkDiggler/tta-core/internal/orchestrators/effects Service

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/tta-core/internal/dice"
	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/skills"
	"github.com/KirkDiggler/tta-core/internal/pkg/clock"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

// Service defines the interface for the effect pipeline
type Service interface {
	// ApplyAbilityEffects resolves an ability's damage, healing, conditions,
	// and modifiers against a target set
	ApplyAbilityEffects(ctx context.Context, input *ApplyInput) (*ApplyOutput, error)

	// TickCombatRound advances one entity into a round: durations decrement,
	// expired conditions drop, until-save conditions get their save, damage
	// over time lands. Idempotent per (entity, round).
	TickCombatRound(ctx context.Context, input *TickInput) (*TickOutput, error)

	// CheckConcentration rolls the CON save after damage and strips the
	// concentration effects on failure
	CheckConcentration(ctx context.Context, input *ConcentrationInput) (*ConcentrationOutput, error)
}

// Config holds the dependencies for the effects orchestrator
type Config struct {
	Roller    *dice.Roller
	Skills    skills.Service
	TruthRepo truth.Repository
	IDGen     idgen.Generator
	Clock     clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Roller == nil {
		vb.RequiredField("Roller")
	}
	if c.Skills == nil {
		vb.RequiredField("Skills")
	}
	if c.TruthRepo == nil {
		vb.RequiredField("TruthRepo")
	}
	if c.IDGen == nil {
		vb.RequiredField("IDGen")
	}
	return vb.Build()
}

type orchestrator struct {
	roller    *dice.Roller
	skills    skills.Service
	truthRepo truth.Repository
	idGen     idgen.Generator
	clock     clock.Clock
}

// NewOrchestrator creates a new effects orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &orchestrator{
		roller:    cfg.Roller,
		skills:    cfg.Skills,
		truthRepo: cfg.TruthRepo,
		idGen:     cfg.IDGen,
		clock:     c,
	}, nil
}

// newEvent builds an event stamped with the current time
func (o *orchestrator) newEvent(universeID string, eventType entities.EventType, actorID string) *entities.Event {
	now := o.clock.Now()
	return &entities.Event{
		ID:         o.idGen.Generate(),
		UniverseID: universeID,
		Type:       eventType,
		ActorID:    actorID,
		GameTime:   now,
		RecordedAt: now,
	}
}

// saveEntity bumps the version and persists. The event for the change must
// already be appended.
func (o *orchestrator) saveEntity(ctx context.Context, entity *entities.Entity) error {
	entity.Version++
	entity.UpdatedAt = o.clock.Now()
	_, err := o.truthRepo.SaveEntity(ctx, &truth.SaveEntityInput{Entity: entity})
	return err
}

// effectiveSaveDC applies the physics overlay's restricted-source shift
func effectiveSaveDC(dc int, ability *entities.Ability, overlay *entities.PhysicsOverlay) int {
	if overlay.RuleFor(ability.Source) != entities.SourceRestricted {
		return dc
	}
	shift := overlay.SaveDCShift
	if shift == 0 {
		shift = -2
	}
	return dc + shift
}

// applyDamage lands damage on a target: HP clamps at zero, momentum resets,
// and round damage accumulates for defy-death DCs
func applyDamage(target *entities.Entity, damage int) {
	c := target.Character
	c.HP -= damage
	if c.HP < 0 {
		c.HP = 0
	}
	if c.Resources != nil {
		if c.Resources.Pool != nil {
			c.Resources.Pool.ResetMomentum()
		}
		if c.Resources.Solo != nil {
			c.Resources.Solo.DamageThisRound += damage
		}
	}
}

func (o *orchestrator) ApplyAbilityEffects(ctx context.Context, input *ApplyInput) (*ApplyOutput, error) {
	if input == nil || input.Ability == nil || input.Caster == nil {
		return nil, errors.BadInput("ability and caster are required")
	}
	if input.Caster.Character == nil {
		return nil, errors.InvalidTargetf("caster %s has no character stats", input.Caster.ID)
	}
	for _, t := range input.Targets {
		if t.Character == nil {
			return nil, errors.InvalidTargetf("target %s has no character stats", t.ID)
		}
	}

	ability := input.Ability
	if input.Overlay.RuleFor(ability.Source) == entities.SourceForbidden {
		return nil, errors.RuleViolationf("%s abilities do not function in this universe", ability.Source)
	}

	out := &ApplyOutput{
		Damage:            make(map[string]int),
		Healing:           make(map[string]int),
		Saves:             make(map[string]*skills.SaveOutput),
		ConditionsApplied: make(map[string]entities.ConditionType),
	}

	var events []*entities.Event
	modified := make(map[string]*entities.Entity)
	touch := func(e *entities.Entity) { modified[e.ID] = e }

	if ability.Damage != nil {
		damageDice := ability.Damage.Dice
		if input.Overlay.RuleFor(ability.Source) == entities.SourceEnhanced {
			extra := input.Overlay.DamageDieBonus
			if extra == 0 {
				extra = 1
			}
			for i := 0; i < extra; i++ {
				damageDice += "+" + ability.Damage.Dice
			}
		}

		for _, target := range input.Targets {
			rolled, err := o.roller.RollNotation(damageDice)
			if err != nil {
				return nil, err
			}
			damage := rolled.Total

			if ability.Damage.SaveAbility != "" {
				save, err := o.skills.Save(ctx, &skills.SaveInput{
					Entity:     target,
					Ability:    ability.Damage.SaveAbility,
					DC:         effectiveSaveDC(ability.Damage.SaveDC, ability, input.Overlay),
					Conditions: target.Character.ConditionTypes(),
				})
				if err != nil {
					return nil, err
				}
				out.Saves[target.ID] = save
				if save.Success {
					if ability.Damage.HalfOnSave {
						damage /= 2
					} else {
						damage = 0
					}
				}
			}

			if damage > 0 {
				applyDamage(target, damage)
				out.Damage[target.ID] = damage
				touch(target)

				// a damaged concentrator saves or loses the effect; the
				// broken event joins this application's batch
				if _, err := o.breakConcentrationOnDamage(ctx, input.UniverseID, target, damage, input.Round, input.CausedByEventID, &events, modified); err != nil {
					return nil, err
				}
			}
		}
	}

	if ability.Healing != nil {
		healing := ability.Healing.Flat
		if ability.Healing.Dice != "" {
			rolled, err := o.roller.RollNotation(ability.Healing.Dice)
			if err != nil {
				return nil, err
			}
			healing += rolled.Total
		}
		if ability.Healing.Modifier != "" {
			healing += input.Caster.Character.AbilityModifier(ability.Healing.Modifier)
		}
		for _, target := range input.Targets {
			c := target.Character
			applied := healing
			if c.HP+applied > c.HPMax {
				applied = c.HPMax - c.HP
			}
			if applied > 0 {
				c.HP += applied
				out.Healing[target.ID] = applied
				touch(target)
			}
		}
	}

	if ability.Condition != nil {
		for _, target := range input.Targets {
			negated := false
			if ability.Condition.SaveAbility != "" {
				save, err := o.skills.Save(ctx, &skills.SaveInput{
					Entity:     target,
					Ability:    ability.Condition.SaveAbility,
					DC:         effectiveSaveDC(ability.Condition.SaveDC, ability, input.Overlay),
					Conditions: target.Character.ConditionTypes(),
				})
				if err != nil {
					return nil, err
				}
				out.Saves[target.ID] = save
				negated = save.Success
			}
			if negated {
				continue
			}

			target.Character.Conditions = append(target.Character.Conditions, entities.ConditionInstance{
				ID:             o.idGen.Generate(),
				EntityID:       target.ID,
				Condition:      ability.Condition.Condition,
				DurationType:   ability.Condition.DurationType,
				Remaining:      ability.Condition.Duration,
				AppliedAtRound: input.Round,
				SaveAbility:    ability.Condition.SaveAbility,
				SaveDC:         ability.Condition.SaveDC,
				SourceID:       ability.ID,
			})
			out.ConditionsApplied[target.ID] = ability.Condition.Condition
			touch(target)

			evt := o.newEvent(input.UniverseID, entities.EventConditionApplied, input.Caster.ID)
			evt.TargetID = target.ID
			evt.CausedByID = input.CausedByEventID
			evt.Payload = map[string]interface{}{
				"condition":  string(ability.Condition.Condition),
				"ability_id": ability.ID,
			}
			events = append(events, evt)
		}
	}

	// Prior concentration drops before the new effects land, so a caster
	// cannot sustain two concentration abilities even for an instant
	if ability.RequiresConcentration {
		if _, err := o.dropConcentration(ctx, input.UniverseID, input.Caster, input.Targets, &events, modified); err != nil {
			return nil, err
		}
	}

	for _, mod := range ability.Modifiers {
		for _, target := range input.Targets {
			target.Character.Effects = append(target.Character.Effects, entities.ActiveEffect{
				ID:             o.idGen.Generate(),
				EntityID:       target.ID,
				CasterID:       input.Caster.ID,
				AbilityID:      ability.ID,
				Stat:           mod.Stat,
				Value:          mod.Value,
				Dice:           mod.Dice,
				Type:           mod.Type,
				DurationType:   mod.DurationType,
				Remaining:      mod.Duration,
				AppliedAtRound: input.Round,
				Concentration:  ability.RequiresConcentration,
			})
			out.EffectsApplied++
			touch(target)
		}
	}

	if ability.RequiresConcentration {
		if input.Caster.Character.Resources == nil {
			input.Caster.Character.Resources = &entities.ResourcePool{}
		}
		if input.Caster.Character.Resources.Solo == nil {
			input.Caster.Character.Resources.Solo = &entities.SoloCombatState{}
		}
		input.Caster.Character.Resources.Solo.ConcentratingOn = ability.ID
		out.ConcentrationStarted = true
		touch(input.Caster)
	}

	// The log is ground truth: events land before the entity updates
	for _, evt := range events {
		if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
			return nil, err
		}
		out.EventIDs = append(out.EventIDs, evt.ID)
	}
	for _, e := range modified {
		if err := o.saveEntity(ctx, e); err != nil {
			return nil, err
		}
	}

	slog.Debug("ability effects applied",
		"ability_id", ability.ID,
		"caster_id", input.Caster.ID,
		"targets", len(input.Targets),
		"conditions", len(out.ConditionsApplied),
		"effects", out.EffectsApplied,
	)
	return out, nil
}

func (o *orchestrator) TickCombatRound(ctx context.Context, input *TickInput) (*TickOutput, error) {
	if input == nil || input.Entity == nil {
		return nil, errors.BadInput("entity is required")
	}
	if input.Entity.Character == nil {
		return nil, errors.InvalidTargetf("entity %s has no character stats", input.Entity.ID)
	}

	c := input.Entity.Character
	if c.LastTickedRound >= input.Round {
		return &TickOutput{Ticked: false}, nil
	}
	c.LastTickedRound = input.Round

	out := &TickOutput{Ticked: true}
	var events []*entities.Event

	kept := c.Conditions[:0]
	for i := range c.Conditions {
		cond := c.Conditions[i]

		if cond.DamagePerTick != "" {
			rolled, err := o.roller.RollNotation(cond.DamagePerTick)
			if err != nil {
				return nil, err
			}
			applyDamage(input.Entity, rolled.Total)
			out.DamageOverTime += rolled.Total
		}

		remove := false
		switch cond.DurationType {
		case entities.DurationRounds, entities.DurationMinutes:
			cond.Remaining--
			if cond.Remaining <= 0 {
				remove = true
				out.ConditionsExpired = append(out.ConditionsExpired, cond.Condition)
			}
		case entities.DurationUntilSave:
			save, err := o.skills.Save(ctx, &skills.SaveInput{
				Entity:  input.Entity,
				Ability: cond.SaveAbility,
				DC:      cond.SaveDC,
			})
			if err != nil {
				return nil, err
			}
			if save.Success {
				remove = true
				out.ConditionsSaved = append(out.ConditionsSaved, cond.Condition)
			}
		case entities.DurationUntilRest, entities.DurationPermanent:
			// the tick never removes these
		}

		if remove {
			evt := o.newEvent(input.UniverseID, entities.EventConditionRemoved, input.Entity.ID)
			evt.Payload = map[string]interface{}{"condition": string(cond.Condition)}
			events = append(events, evt)
			continue
		}
		kept = append(kept, cond)
	}
	c.Conditions = kept

	keptEffects := c.Effects[:0]
	for i := range c.Effects {
		eff := c.Effects[i]
		if eff.DurationType == entities.DurationRounds || eff.DurationType == entities.DurationMinutes {
			eff.Remaining--
			if eff.Remaining <= 0 {
				out.EffectsExpired++
				continue
			}
		}
		keptEffects = append(keptEffects, eff)
	}
	c.Effects = keptEffects

	for _, evt := range events {
		if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
			return nil, err
		}
		out.EventIDs = append(out.EventIDs, evt.ID)
	}
	if err := o.saveEntity(ctx, input.Entity); err != nil {
		return nil, err
	}
	return out, nil
}

func (o *orchestrator) CheckConcentration(ctx context.Context, input *ConcentrationInput) (*ConcentrationOutput, error) {
	if input == nil || input.Entity == nil {
		return nil, errors.BadInput("entity is required")
	}
	if input.Entity.Character == nil {
		return nil, errors.InvalidTargetf("entity %s has no character stats", input.Entity.ID)
	}

	var events []*entities.Event
	modified := make(map[string]*entities.Entity)

	eventID, save, abilityID, removed, err := o.checkConcentrationInner(ctx, input.UniverseID, input.Entity, input.Damage, input.Round, input.CausedByEventID, &events, modified)
	if err != nil {
		return nil, err
	}
	if abilityID == "" && save == nil {
		return &ConcentrationOutput{Concentrating: false}, nil
	}

	for _, evt := range events {
		if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
			return nil, err
		}
	}
	for _, e := range modified {
		if err := o.saveEntity(ctx, e); err != nil {
			return nil, err
		}
	}

	return &ConcentrationOutput{
		Concentrating:  true,
		Broken:         eventID != "",
		AbilityID:      abilityID,
		Save:           save,
		EffectsRemoved: removed,
		EventID:        eventID,
	}, nil
}

// breakConcentrationOnDamage runs the concentration save for a damaged
// entity inside a larger pipeline pass. Returns the event id when broken.
func (o *orchestrator) breakConcentrationOnDamage(ctx context.Context, universeID string, entity *entities.Entity, damage, round int, causedBy string, events *[]*entities.Event, modified map[string]*entities.Entity) (string, error) {
	eventID, _, _, _, err := o.checkConcentrationInner(ctx, universeID, entity, damage, round, causedBy, events, modified)
	return eventID, err
}

func (o *orchestrator) checkConcentrationInner(ctx context.Context, universeID string, entity *entities.Entity, damage, round int, causedBy string, events *[]*entities.Event, modified map[string]*entities.Entity) (string, *skills.SaveOutput, string, int, error) {
	c := entity.Character
	if c.Resources == nil || c.Resources.Solo == nil || c.Resources.Solo.ConcentratingOn == "" {
		return "", nil, "", 0, nil
	}
	abilityID := c.Resources.Solo.ConcentratingOn

	dc := damage / 2
	if dc < 10 {
		dc = 10
	}
	save, err := o.skills.Save(ctx, &skills.SaveInput{
		Entity:     entity,
		Ability:    entities.CON,
		DC:         dc,
		Conditions: c.ConditionTypes(),
	})
	if err != nil {
		return "", nil, "", 0, err
	}
	if save.Success {
		return "", save, abilityID, 0, nil
	}

	removed, err := o.dropConcentration(ctx, universeID, entity, nil, events, modified)
	if err != nil {
		return "", nil, "", 0, err
	}

	evt := o.newEvent(universeID, entities.EventConcentrationBroken, entity.ID)
	evt.Roll = save.Roll
	evt.CausedByID = causedBy
	evt.Payload = map[string]interface{}{
		"ability_id": abilityID,
		"dc":         dc,
		"total":      save.Total,
	}
	*events = append(*events, evt)

	slog.Info("concentration broken",
		"entity_id", entity.ID,
		"ability_id", abilityID,
		"dc", dc,
		"total", save.Total,
		"effects_removed", removed,
	)
	return evt.ID, save, abilityID, removed, nil
}

// dropConcentration clears the caster's concentration marker and strips the
// concentration effects it sustains from every entity in the universe.
// inflight entities are stripped through their live pointers so callers'
// in-progress mutations are not overwritten by stale repo copies.
func (o *orchestrator) dropConcentration(ctx context.Context, universeID string, caster *entities.Entity, inflight []*entities.Entity, events *[]*entities.Event, modified map[string]*entities.Entity) (int, error) {
	c := caster.Character
	if c.Resources == nil || c.Resources.Solo == nil || c.Resources.Solo.ConcentratingOn == "" {
		return 0, nil
	}
	c.Resources.Solo.ConcentratingOn = ""
	modified[caster.ID] = caster

	listed, err := o.truthRepo.ListEntities(ctx, &truth.ListEntitiesInput{
		UniverseID: universeID,
		Type:       entities.EntityCharacter,
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	strip := func(e *entities.Entity) {
		kept := e.Character.Effects[:0]
		for i := range e.Character.Effects {
			eff := e.Character.Effects[i]
			if eff.Concentration && eff.CasterID == caster.ID {
				removed++
				modified[e.ID] = e
				continue
			}
			kept = append(kept, eff)
		}
		e.Character.Effects = kept
	}

	strip(caster)
	live := map[string]*entities.Entity{caster.ID: caster}
	for _, e := range inflight {
		if e.Character == nil {
			continue
		}
		if _, ok := live[e.ID]; ok {
			continue
		}
		strip(e)
		live[e.ID] = e
	}
	for _, e := range listed.Entities {
		if e.Character == nil {
			continue
		}
		if _, ok := live[e.ID]; ok {
			continue
		}
		if loaded, ok := modified[e.ID]; ok {
			strip(loaded)
			continue
		}
		strip(e)
	}
	return removed, nil
}
