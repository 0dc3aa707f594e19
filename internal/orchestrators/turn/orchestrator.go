// Package turn routes one player turn: load the world around the actor,
// dispatch the intent to the owning service, apply the consequences, and
// record the events. Turns within a session are serialized by the caller;
// this orchestrator holds no state between calls.
package turn

//go:generate mockgen -destination=mock/mock_service.go -package=turnmock github.com/KirkDiggler/tta-core/internal/orchestrators/turn Service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/effects"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/moves"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/multiverse"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/npc"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/resources"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/skills"
	"github.com/KirkDiggler/tta-core/internal/pkg/clock"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	"github.com/KirkDiggler/tta-core/internal/repositories/graph"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

// recentEventLimit is how far back the context window reaches
const recentEventLimit = 10

// AbilityLibrary resolves ability ids to their definitions
type AbilityLibrary interface {
	Ability(id string) (*entities.Ability, bool)
}

// Service defines the interface for turn execution
type Service interface {
	// ExecuteTurn runs one intent through context, resolution, application,
	// and recording, returning the composed result
	ExecuteTurn(ctx context.Context, input *ExecuteInput) (*ExecuteOutput, error)
}

// Config holds the dependencies for the turn orchestrator
type Config struct {
	TruthRepo  truth.Repository
	GraphRepo  graph.Repository
	Skills     skills.Service
	Effects    effects.Service
	Resources  resources.Service
	Moves      moves.Service
	Multiverse multiverse.Service
	// NPC drives reactions to dialogue; optional
	NPC npc.Service
	// Abilities resolves ability ids; optional, ability intents fail
	// cleanly without it
	Abilities AbilityLibrary
	IDGen     idgen.Generator
	Clock     clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.TruthRepo == nil {
		vb.RequiredField("TruthRepo")
	}
	if c.GraphRepo == nil {
		vb.RequiredField("GraphRepo")
	}
	if c.Skills == nil {
		vb.RequiredField("Skills")
	}
	if c.Effects == nil {
		vb.RequiredField("Effects")
	}
	if c.Resources == nil {
		vb.RequiredField("Resources")
	}
	if c.Moves == nil {
		vb.RequiredField("Moves")
	}
	if c.Multiverse == nil {
		vb.RequiredField("Multiverse")
	}
	if c.IDGen == nil {
		vb.RequiredField("IDGen")
	}
	return vb.Build()
}

type orchestrator struct {
	truthRepo  truth.Repository
	graphRepo  graph.Repository
	skills     skills.Service
	effects    effects.Service
	resources  resources.Service
	moves      moves.Service
	multiverse multiverse.Service
	npc        npc.Service
	abilities  AbilityLibrary
	idGen      idgen.Generator
	clock      clock.Clock
}

// NewOrchestrator creates a new turn orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	return &orchestrator{
		truthRepo:  cfg.TruthRepo,
		graphRepo:  cfg.GraphRepo,
		skills:     cfg.Skills,
		effects:    cfg.Effects,
		resources:  cfg.Resources,
		moves:      cfg.Moves,
		multiverse: cfg.Multiverse,
		npc:        cfg.NPC,
		abilities:  cfg.Abilities,
		idGen:      cfg.IDGen,
		clock:      c,
	}, nil
}

// ExecuteTurn applies the turn error policy: recoverable rule errors become
// a failed result without mutation, a stale-version conflict earns one
// reload-and-retry, and persistence failures abort the turn.
func (o *orchestrator) ExecuteTurn(ctx context.Context, input *ExecuteInput) (*ExecuteOutput, error) {
	if input == nil || input.Session == nil || input.Intent == nil {
		return nil, errors.BadInput("session and intent are required")
	}
	turnID := o.idGen.Generate()

	tctx, err := o.loadContext(ctx, input.Session)
	if err != nil {
		if errors.IsTurnRecoverable(err) {
			return &ExecuteOutput{Result: o.failedResult(turnID, err)}, nil
		}
		return nil, err
	}

	result, err := o.dispatch(ctx, tctx, input)
	if errors.IsConflictState(err) {
		tctx, err = o.loadContext(ctx, input.Session)
		if err == nil {
			result, err = o.dispatch(ctx, tctx, input)
		}
	}
	if err != nil {
		if errors.IsTurnRecoverable(err) {
			return &ExecuteOutput{Result: o.failedResult(turnID, err)}, nil
		}
		return nil, err
	}

	result.TurnID = turnID
	input.Session.TurnCount++
	slog.Info("turn executed",
		"turn_id", turnID,
		"intent", string(input.Intent.Type),
		"actor_id", input.Session.ActiveID,
		"success", result.Skill != nil && result.Skill.Success,
	)
	return &ExecuteOutput{Result: result}, nil
}

func (o *orchestrator) failedResult(turnID string, err error) *entities.TurnResult {
	return &entities.TurnResult{
		TurnID: turnID,
		Skill: &entities.SkillResult{
			Success: false,
			Outcome: entities.OutcomeFail,
			Reason:  errors.GetMessage(err),
		},
	}
}

func (o *orchestrator) loadContext(ctx context.Context, session *entities.Session) (*turnContext, error) {
	uniOut, err := o.truthRepo.GetUniverse(ctx, &truth.GetUniverseInput{UniverseID: session.UniverseID})
	if err != nil {
		return nil, err
	}

	actorOut, err := o.multiverse.GetEntity(ctx, &multiverse.GetEntityInput{
		UniverseID: session.UniverseID,
		EntityID:   session.ActiveID,
	})
	if err != nil {
		return nil, err
	}
	tctx := &turnContext{universe: uniOut.Universe, actor: actorOut.Entity}

	if session.LocationID != "" {
		locOut, err := o.multiverse.GetEntity(ctx, &multiverse.GetEntityInput{
			UniverseID: session.UniverseID,
			EntityID:   session.LocationID,
		})
		if err != nil && !errors.IsNotFound(err) {
			return nil, err
		}
		if err == nil {
			tctx.location = locOut.Entity
		}
	}

	if tctx.location != nil {
		present, err := o.graphRepo.EntitiesAtLocation(ctx, &graph.EntitiesAtLocationInput{
			UniverseID: session.UniverseID,
			LocationID: tctx.location.ID,
		})
		if err != nil {
			return nil, err
		}
		for _, id := range present.EntityIDs {
			if id == tctx.actor.ID {
				continue
			}
			e, err := o.multiverse.GetEntity(ctx, &multiverse.GetEntityInput{
				UniverseID: session.UniverseID,
				EntityID:   id,
			})
			if err != nil {
				if errors.IsNotFound(err) {
					continue
				}
				return nil, err
			}
			tctx.present = append(tctx.present, e.Entity)
		}
	}

	rels, err := o.graphRepo.ListRelationships(ctx, &graph.ListRelationshipsInput{
		UniverseID: session.UniverseID,
		FromID:     tctx.actor.ID,
	})
	if err != nil {
		return nil, err
	}
	tctx.relationships = rels.Relationships
	for _, rel := range rels.Relationships {
		switch rel.Type {
		case entities.RelCarries, entities.RelWields, entities.RelWears:
			item, err := o.multiverse.GetEntity(ctx, &multiverse.GetEntityInput{
				UniverseID: session.UniverseID,
				EntityID:   rel.ToID,
			})
			if err != nil {
				if errors.IsNotFound(err) {
					continue
				}
				return nil, err
			}
			tctx.inventory = append(tctx.inventory, item.Entity)
		}
	}

	events, err := o.truthRepo.ListEvents(ctx, &truth.ListEventsInput{UniverseID: session.UniverseID})
	if err != nil {
		return nil, err
	}
	all := events.Events
	if len(all) > recentEventLimit {
		all = all[len(all)-recentEventLimit:]
	}
	tctx.recentEvents = all

	return tctx, nil
}

// dispatch is the fixed intent table. Intents without mechanical resolution
// fall through to a neutral success; unknown or unclear intents fail without
// consuming anything.
func (o *orchestrator) dispatch(ctx context.Context, tctx *turnContext, input *ExecuteInput) (*entities.TurnResult, error) {
	intent := input.Intent
	switch intent.Type {
	case entities.IntentAttack:
		return o.resolveAttack(ctx, tctx, input)
	case entities.IntentPersuade, entities.IntentIntimidate, entities.IntentDeceive, entities.IntentSearch:
		return o.resolveSkillCheck(ctx, tctx, input)
	case entities.IntentUseAbility, entities.IntentCastSpell:
		return o.resolveAbility(ctx, tctx, input)
	case entities.IntentRest:
		return o.resolveRest(ctx, tctx, input)
	case entities.IntentLook:
		return o.resolveLook(tctx), nil
	case entities.IntentMove:
		return o.resolveMove(ctx, tctx, input)
	case entities.IntentTalk:
		return o.resolveTalk(ctx, tctx, input)
	case entities.IntentPickUp:
		return o.resolvePickUp(ctx, tctx, input)
	case entities.IntentDrop:
		return o.resolveDrop(ctx, tctx, input)
	case entities.IntentGive:
		return o.resolveGive(ctx, tctx, input)
	case entities.IntentUseItem:
		return o.resolveUseItem(tctx, input)
	case entities.IntentFork:
		return o.resolveFork(ctx, tctx, input)
	case entities.IntentWait:
		return o.neutral("You wait and watch."), nil
	case entities.IntentInteract:
		return o.neutral("You take a closer look, but nothing gives."), nil
	case entities.IntentAskQuestion:
		return o.neutral("The question hangs in the air."), nil
	default:
		return &entities.TurnResult{
			Skill: &entities.SkillResult{Success: false, Outcome: entities.OutcomeFail, Reason: "unclear"},
		}, nil
	}
}

func (o *orchestrator) neutral(description string) *entities.TurnResult {
	return &entities.TurnResult{
		Skill: &entities.SkillResult{
			Success:     true,
			Outcome:     entities.OutcomeNeutral,
			Description: description,
		},
	}
}

func (o *orchestrator) newEvent(universeID string, eventType entities.EventType, tctx *turnContext) *entities.Event {
	now := o.clock.Now()
	evt := &entities.Event{
		ID:         o.idGen.Generate(),
		UniverseID: universeID,
		Type:       eventType,
		ActorID:    tctx.actor.ID,
		GameTime:   now,
		RecordedAt: now,
	}
	if tctx.location != nil {
		evt.LocationID = tctx.location.ID
	}
	return evt
}

// findTarget resolves the intent's target among the entities present, by id
// first and then by case-insensitive name match
func (o *orchestrator) findTarget(tctx *turnContext, intent *entities.Intent) (*entities.Entity, error) {
	if intent.TargetID != "" {
		for _, e := range tctx.present {
			if e.ID == intent.TargetID {
				return e, nil
			}
		}
		return nil, errors.InvalidTargetf("no target %s here", intent.TargetID)
	}
	if intent.TargetName != "" {
		want := strings.ToLower(intent.TargetName)
		for _, e := range tctx.present {
			if strings.Contains(strings.ToLower(e.Name), want) {
				return e, nil
			}
		}
		return nil, errors.InvalidTargetf("no %s here", intent.TargetName)
	}
	return nil, errors.InvalidTarget("a target is required")
}

func (o *orchestrator) wieldedWeapon(tctx *turnContext) *entities.Entity {
	for _, rel := range tctx.relationships {
		if rel.Type != entities.RelWields {
			continue
		}
		for _, item := range tctx.inventory {
			if item.ID == rel.ToID {
				return item
			}
		}
	}
	return nil
}

// ensureDiverged registers variants for inherited entities before they are
// written in a forked universe, and swaps the in-hand copies for the
// universe-local records so later saves do not trip on the variant's version
// bump. A no-op in the root universe and for entities already diverged.
func (o *orchestrator) ensureDiverged(ctx context.Context, tctx *turnContext, universeID string, ents ...*entities.Entity) error {
	if tctx.universe == nil || tctx.universe.IsPrime() {
		return nil
	}
	for _, e := range ents {
		if e == nil || e.CanonicalID != "" {
			continue
		}
		out, err := o.multiverse.EnsureVariant(ctx, &multiverse.EnsureVariantInput{
			UniverseID: universeID,
			EntityID:   e.ID,
		})
		if err != nil {
			return err
		}
		if out.Entity != nil {
			*e = *out.Entity
		}
	}
	return nil
}

func conditionTypes(e *entities.Entity) []entities.ConditionType {
	if e.Character == nil {
		return nil
	}
	return e.Character.ConditionTypes()
}

func (o *orchestrator) resolveAttack(ctx context.Context, tctx *turnContext, input *ExecuteInput) (*entities.TurnResult, error) {
	target, err := o.findTarget(tctx, input.Intent)
	if err != nil {
		return nil, err
	}
	if target.Character == nil {
		return nil, errors.InvalidTargetf("%s cannot be attacked", target.Name)
	}

	atk, err := o.skills.Attack(ctx, &skills.AttackInput{
		Attacker:           tctx.actor,
		Target:             target,
		Weapon:             o.wieldedWeapon(tctx),
		AttackerConditions: conditionTypes(tctx.actor),
		TargetConditions:   conditionTypes(target),
	})
	if err != nil {
		return nil, err
	}

	universeID := input.Session.UniverseID
	evt := o.newEvent(universeID, entities.EventCombatRound, tctx)
	evt.TargetID = target.ID
	evt.Outcome = atk.Outcome
	evt.Roll = atk.AttackRoll
	evt.Payload = map[string]interface{}{
		"damage":   atk.Damage,
		"critical": atk.Critical,
		"fumble":   atk.Fumble,
	}
	evt.Description = fmt.Sprintf("%s attacks %s", tctx.actor.Name, target.Name)

	if atk.Hit && atk.Damage > 0 {
		if err := o.ensureDiverged(ctx, tctx, universeID, target); err != nil {
			return nil, err
		}
	}

	tx, err := o.truthRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if err := tx.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
		tx.Discard()
		return nil, err
	}
	if atk.Hit && atk.Damage > 0 {
		c := target.Character
		c.HP -= atk.Damage
		if c.HP < 0 {
			c.HP = 0
		}
		if c.Resources != nil && c.Resources.Pool != nil {
			c.Resources.Pool.ResetMomentum()
		}
		if c.HP == 0 {
			c.Dead = true
		}
		target.Version++
		target.UpdatedAt = o.clock.Now()
		if err := tx.SaveEntity(ctx, &truth.SaveEntityInput{Entity: target}); err != nil {
			tx.Discard()
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	result := &entities.TurnResult{
		Rolls:    atk.Rolls,
		EventIDs: []string{evt.ID},
	}
	skill := &entities.SkillResult{
		Success:    atk.Hit,
		Outcome:    atk.Outcome,
		Roll:       atk.AttackRoll,
		Total:      atk.TotalAttack,
		DC:         atk.TargetAC,
		Critical:   atk.Critical,
		Fumble:     atk.Fumble,
		DamageType: atk.DamageType,
	}
	if atk.Hit {
		skill.Damage = atk.Damage
		skill.Description = fmt.Sprintf("Hit %s for %d damage.", target.Name, atk.Damage)
		skill.EntitiesModified = append(skill.EntitiesModified, target.ID)
		if target.Character.Dead {
			result.StateChanges = append(result.StateChanges, "death:"+target.ID)
		}

		conc, err := o.effects.CheckConcentration(ctx, &effects.ConcentrationInput{
			UniverseID:      universeID,
			Entity:          target,
			Damage:          atk.Damage,
			CausedByEventID: evt.ID,
		})
		if err != nil {
			return nil, err
		}
		if conc.Broken {
			result.EventIDs = append(result.EventIDs, conc.EventID)
			skill.Description += fmt.Sprintf(" %s loses concentration.", target.Name)
		}
	} else {
		skill.Description = fmt.Sprintf("Missed %s. Rolled %d vs AC %d.", target.Name, atk.TotalAttack, atk.TargetAC)
	}
	result.Skill = skill

	if atk.Outcome == entities.OutcomeMiss {
		if err := o.applyGMMove(ctx, tctx, input, result, true, evt.ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (o *orchestrator) resolveSkillCheck(ctx context.Context, tctx *turnContext, input *ExecuteInput) (*entities.TurnResult, error) {
	skillName := map[entities.IntentType]string{
		entities.IntentPersuade:   "persuasion",
		entities.IntentIntimidate: "intimidation",
		entities.IntentDeceive:    "deception",
		entities.IntentSearch:     "investigation",
	}[input.Intent.Type]

	dc := input.DC
	if dc == 0 {
		dc = 10 + tctx.danger()/2
	}

	chk, err := o.skills.Check(ctx, &skills.CheckInput{
		Entity: tctx.actor,
		Skill:  skillName,
		DC:     dc,
	})
	if err != nil {
		return nil, err
	}

	evt := o.newEvent(input.Session.UniverseID, entities.EventSkillCheck, tctx)
	evt.Outcome = chk.Outcome
	evt.Roll = chk.Roll
	evt.Payload = map[string]interface{}{
		"skill":  skillName,
		"dc":     chk.DC,
		"total":  chk.Total,
		"margin": chk.Margin,
	}
	if input.Intent.TargetID != "" {
		evt.TargetID = input.Intent.TargetID
	}
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
		return nil, err
	}

	result := &entities.TurnResult{
		EventIDs: []string{evt.ID},
		Rolls: []entities.RollSummary{{
			Description: skillName,
			Roll:        chk.Roll,
			Modifier:    chk.Total - chk.Roll,
			Total:       chk.Total,
			Success:     &chk.Success,
		}},
	}
	result.Skill = &entities.SkillResult{
		Success: chk.Success,
		Outcome: chk.Outcome,
		Roll:    chk.Roll,
		Total:   chk.Total,
		DC:      chk.DC,
		Margin:  chk.Margin,
		Description: fmt.Sprintf("%s check: %d vs DC %d.",
			capitalize(skillName), chk.Total, chk.DC),
	}

	if chk.Outcome == entities.OutcomeMiss {
		if err := o.applyGMMove(ctx, tctx, input, result, false, evt.ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// countRecentSoftMoves counts the soft moves since the last hard move in the
// recent window; the selector escalates after two warnings
func countRecentSoftMoves(recent []*entities.Event) int {
	soft := make(map[string]bool, len(entities.SoftGMMoves))
	for _, m := range entities.SoftGMMoves {
		soft[string(m)] = true
	}

	count := 0
	for i := len(recent) - 1; i >= 0; i-- {
		evt := recent[i]
		if evt.Type != entities.EventGMMove {
			continue
		}
		move, _ := evt.Payload["move"].(string)
		if !soft[move] {
			break
		}
		count++
	}
	return count
}

func (o *orchestrator) applyGMMove(ctx context.Context, tctx *turnContext, input *ExecuteInput, result *entities.TurnResult, inCombat bool, causedByEventID string) error {
	// GM moves write to the actor most of the time; diverge it up front
	if err := o.ensureDiverged(ctx, tctx, input.Session.UniverseID, tctx.actor); err != nil {
		return err
	}

	sel := moves.SelectMove(&moves.SelectInput{
		DangerLevel:     tctx.danger(),
		InCombat:        inCombat,
		RecentSoftMoves: countRecentSoftMoves(tctx.recentEvents),
	})
	execOut, err := o.moves.Execute(ctx, &moves.ExecuteInput{
		UniverseID:      input.Session.UniverseID,
		Move:            sel.Move,
		Actor:           tctx.actor,
		Location:        tctx.location,
		Present:         tctx.present,
		Inventory:       tctx.inventory,
		DangerLevel:     tctx.danger(),
		CausedByEventID: causedByEventID,
	})
	if err != nil {
		return err
	}

	result.Skill.GMMoveType = sel.Move
	result.Skill.GMMoveDetail = execOut.Narrative
	result.Skill.EntitiesCreated = execOut.EntitiesCreated
	result.Skill.EntitiesModified = append(result.Skill.EntitiesModified, execOut.EntitiesModified...)
	result.EventIDs = append(result.EventIDs, execOut.EventIDs...)
	result.StateChanges = append(result.StateChanges, execOut.StateChanges...)
	if execOut.NewLocationID != "" {
		input.Session.LocationID = execOut.NewLocationID
		result.StateChanges = append(result.StateChanges, "location:"+execOut.NewLocationID)
	}
	return nil
}

func (o *orchestrator) resolveAbility(ctx context.Context, tctx *turnContext, input *ExecuteInput) (*entities.TurnResult, error) {
	abilityID := input.Intent.AbilityID
	if abilityID == "" {
		return nil, errors.BadInput("an ability id is required")
	}
	if o.abilities == nil {
		return nil, errors.NotFoundf("ability %s not found", abilityID)
	}
	ability, ok := o.abilities.Ability(abilityID)
	if !ok {
		return nil, errors.NotFoundf("ability %s not found", abilityID)
	}

	known := false
	for _, id := range tctx.actor.Character.AbilityIDs {
		if id == abilityID {
			known = true
			break
		}
	}
	if !known {
		return nil, errors.RuleViolationf("%s does not know %s", tctx.actor.Name, ability.Name)
	}

	var targets []*entities.Entity
	switch {
	case ability.Targeting.Type == entities.TargetSelf:
		targets = []*entities.Entity{tctx.actor}
	case input.Intent.TargetID != "" || input.Intent.TargetName != "":
		target, err := o.findTarget(tctx, input.Intent)
		if err != nil {
			return nil, err
		}
		targets = []*entities.Entity{target}
	case ability.IsArea() || ability.Targeting.Type == entities.TargetMultiple:
		targets = tctx.present
	default:
		return nil, errors.InvalidTargetf("%s needs a target", ability.Name)
	}
	if len(targets) == 0 {
		return nil, errors.InvalidTargetf("no targets for %s", ability.Name)
	}

	touched := append([]*entities.Entity{tctx.actor}, targets...)
	if err := o.ensureDiverged(ctx, tctx, input.Session.UniverseID, touched...); err != nil {
		return nil, err
	}

	spend, err := o.resources.SpendForAbility(ctx, &resources.SpendInput{
		UniverseID: input.Session.UniverseID,
		Entity:     tctx.actor,
		Ability:    ability,
	})
	if err != nil {
		return nil, err
	}

	causedBy := ""
	if len(spend.EventIDs) > 0 {
		causedBy = spend.EventIDs[len(spend.EventIDs)-1]
	}
	round := 0
	if tctx.actor.Character.Resources != nil && tctx.actor.Character.Resources.Solo != nil {
		round = tctx.actor.Character.Resources.Solo.Round
	}
	apply, err := o.effects.ApplyAbilityEffects(ctx, &effects.ApplyInput{
		UniverseID:      input.Session.UniverseID,
		Ability:         ability,
		Caster:          tctx.actor,
		Targets:         targets,
		Round:           round,
		CausedByEventID: causedBy,
	})
	if err != nil {
		return nil, err
	}

	totalDamage, totalHealing := 0, 0
	for _, d := range apply.Damage {
		totalDamage += d
	}
	for _, h := range apply.Healing {
		totalHealing += h
	}

	result := &entities.TurnResult{
		EventIDs: append(spend.EventIDs, apply.EventIDs...),
	}
	result.Skill = &entities.SkillResult{
		Success:     true,
		Outcome:     entities.OutcomeSuccess,
		Damage:      totalDamage,
		Healing:     totalHealing,
		Description: fmt.Sprintf("%s uses %s (%s). %s", tctx.actor.Name, ability.Name, spend.Detail, apply.Narrative),
	}
	for _, t := range targets {
		result.Skill.EntitiesModified = append(result.Skill.EntitiesModified, t.ID)
	}
	return result, nil
}

func (o *orchestrator) resolveRest(ctx context.Context, tctx *turnContext, input *ExecuteInput) (*entities.TurnResult, error) {
	kind := input.Intent.RestKind
	if kind == "" {
		kind = entities.RestShort
	}
	hitDice := 0
	if kind == entities.RestShort {
		hitDice = 1
	}

	if err := o.ensureDiverged(ctx, tctx, input.Session.UniverseID, tctx.actor); err != nil {
		return nil, err
	}

	rest, err := o.resources.TakeRest(ctx, &resources.RestInput{
		UniverseID: input.Session.UniverseID,
		Entity:     tctx.actor,
		Kind:       kind,
		HitDice:    hitDice,
	})
	if err != nil {
		return nil, err
	}

	return &entities.TurnResult{
		EventIDs: []string{rest.EventID},
		Skill: &entities.SkillResult{
			Success:     true,
			Outcome:     entities.OutcomeSuccess,
			Healing:     rest.HPRecovered,
			Description: fmt.Sprintf("Completed a %s rest. Recovered %d HP.", kind, rest.HPRecovered),
		},
	}, nil
}

func (o *orchestrator) resolveLook(tctx *turnContext) *entities.TurnResult {
	var parts []string
	if tctx.location != nil {
		parts = append(parts, fmt.Sprintf("You are in %s.", tctx.location.Name))
		if tctx.location.Description != "" {
			parts = append(parts, tctx.location.Description)
		}
	}
	if len(tctx.present) > 0 {
		names := make([]string, 0, len(tctx.present))
		for _, e := range tctx.present {
			names = append(names, e.Name)
		}
		parts = append(parts, "You see: "+strings.Join(names, ", ")+".")
	}
	if exits := tctx.exits(); len(exits) > 0 {
		dirs := make([]string, 0, len(exits))
		for dir := range exits {
			dirs = append(dirs, dir)
		}
		// map order is random; keep the output stable
		for i := 0; i < len(dirs); i++ {
			for j := i + 1; j < len(dirs); j++ {
				if dirs[j] < dirs[i] {
					dirs[i], dirs[j] = dirs[j], dirs[i]
				}
			}
		}
		parts = append(parts, "Exits: "+strings.Join(dirs, ", ")+".")
	}
	if len(parts) == 0 {
		parts = append(parts, "You look around but see nothing notable.")
	}
	return o.neutral(strings.Join(parts, " "))
}

func (o *orchestrator) resolveMove(ctx context.Context, tctx *turnContext, input *ExecuteInput) (*entities.TurnResult, error) {
	direction := strings.ToLower(input.Intent.Destination)
	if direction == "" {
		return nil, errors.BadInput("a direction is required")
	}
	if tctx.location == nil {
		return nil, errors.RuleViolation("you are nowhere; there is nowhere to go")
	}

	destID := ""
	for dir, id := range tctx.exits() {
		if strings.ToLower(dir) == direction {
			destID = id
			break
		}
	}
	if destID == "" {
		return nil, errors.BadInputf("you can't go %s from here", direction)
	}

	universeID := input.Session.UniverseID
	evt := o.newEvent(universeID, entities.EventTravel, tctx)
	evt.Outcome = entities.OutcomeSuccess
	evt.Payload = map[string]interface{}{
		"from":      tctx.location.ID,
		"to":        destID,
		"direction": direction,
	}
	evt.Description = fmt.Sprintf("%s heads %s", tctx.actor.Name, direction)
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
		return nil, err
	}

	for _, rel := range tctx.relationships {
		if rel.Type == entities.RelLocatedIn {
			if _, err := o.graphRepo.DeleteRelationship(ctx, &graph.DeleteRelationshipInput{RelationshipID: rel.ID}); err != nil {
				return nil, err
			}
		}
	}
	if _, err := o.graphRepo.CreateRelationship(ctx, &graph.CreateRelationshipInput{Relationship: &entities.Relationship{
		ID:         o.idGen.Generate(),
		UniverseID: universeID,
		FromID:     tctx.actor.ID,
		ToID:       destID,
		Type:       entities.RelLocatedIn,
		CreatedAt:  o.clock.Now(),
	}}); err != nil {
		return nil, err
	}

	input.Session.LocationID = destID
	return &entities.TurnResult{
		EventIDs:     []string{evt.ID},
		StateChanges: []string{"location:" + destID},
		Skill: &entities.SkillResult{
			Success:     true,
			Outcome:     entities.OutcomeSuccess,
			Description: fmt.Sprintf("You move %s.", direction),
		},
	}, nil
}

func (o *orchestrator) resolveTalk(ctx context.Context, tctx *turnContext, input *ExecuteInput) (*entities.TurnResult, error) {
	dialogue := input.Intent.Dialogue
	if dialogue == "" {
		dialogue = "..."
	}

	var target *entities.Entity
	if input.Intent.TargetID != "" || input.Intent.TargetName != "" {
		found, err := o.findTarget(tctx, input.Intent)
		if err != nil {
			return nil, err
		}
		target = found
	}

	evt := o.newEvent(input.Session.UniverseID, entities.EventDialogue, tctx)
	evt.Outcome = entities.OutcomeNeutral
	evt.Payload = map[string]interface{}{"dialogue": dialogue}
	targetName := "no one in particular"
	if target != nil {
		evt.TargetID = target.ID
		targetName = target.Name
	}
	evt.Description = fmt.Sprintf("%s speaks to %s", tctx.actor.Name, targetName)
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
		return nil, err
	}

	description := fmt.Sprintf("You say to %s: %q", targetName, dialogue)
	if target != nil && target.Character != nil && target.Character.NPC != nil && o.npc != nil {
		rels, err := o.graphRepo.ListRelationships(ctx, &graph.ListRelationshipsInput{
			UniverseID: input.Session.UniverseID,
			FromID:     target.ID,
		})
		if err != nil {
			return nil, err
		}
		var standing int
		if fid := target.Character.NPC.FactionID; fid != "" && tctx.actor.Character != nil {
			standing = tctx.actor.Character.Reputation[fid]
		}
		decision, err := o.npc.DecideAction(ctx, &npc.DecideInput{
			UniverseID:       input.Session.UniverseID,
			NPC:              target,
			TargetID:         tctx.actor.ID,
			Relationships:    rels.Relationships,
			TargetReputation: standing,
			DangerLevel:      tctx.danger(),
		})
		if err != nil {
			return nil, err
		}
		description += fmt.Sprintf(" %s seems inclined to %s.", target.Name, decision.Action)

		if _, err := o.npc.FormMemory(ctx, &npc.FormMemoryInput{
			UniverseID: input.Session.UniverseID,
			NPCID:      target.ID,
			Event:      evt,
			Summary:    fmt.Sprintf("%s said: %s", tctx.actor.Name, dialogue),
		}); err != nil {
			return nil, err
		}
	}

	return &entities.TurnResult{
		EventIDs: []string{evt.ID},
		Skill: &entities.SkillResult{
			Success:     true,
			Outcome:     entities.OutcomeNeutral,
			Description: description,
		},
	}, nil
}

func (o *orchestrator) findInventoryItem(tctx *turnContext, intent *entities.Intent) (*entities.Entity, error) {
	want := strings.ToLower(intent.TargetName)
	for _, item := range tctx.inventory {
		if item.ID == intent.ItemID {
			return item, nil
		}
		if want != "" && strings.Contains(strings.ToLower(item.Name), want) {
			return item, nil
		}
	}
	return nil, errors.NotFound("you are not carrying that")
}

func (o *orchestrator) resolvePickUp(ctx context.Context, tctx *turnContext, input *ExecuteInput) (*entities.TurnResult, error) {
	if tctx.location == nil {
		return nil, errors.RuleViolation("there is nothing here to pick up")
	}
	universeID := input.Session.UniverseID

	// Items sit at a location as CONTAINS edges
	contained, err := o.graphRepo.ListRelationships(ctx, &graph.ListRelationshipsInput{
		UniverseID: universeID,
		FromID:     tctx.location.ID,
		Type:       entities.RelContains,
	})
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(input.Intent.TargetName)
	var item *entities.Entity
	var edge *entities.Relationship
	for _, rel := range contained.Relationships {
		e, err := o.multiverse.GetEntity(ctx, &multiverse.GetEntityInput{
			UniverseID: universeID,
			EntityID:   rel.ToID,
		})
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if e.Entity.Type != entities.EntityItem {
			continue
		}
		if e.Entity.ID == input.Intent.ItemID ||
			(want != "" && strings.Contains(strings.ToLower(e.Entity.Name), want)) {
			item = e.Entity
			edge = rel
			break
		}
	}
	if item == nil {
		return nil, errors.NotFoundf("there is no %s here", input.Intent.TargetName)
	}

	evt := o.newEvent(universeID, entities.EventItemTransfer, tctx)
	evt.Outcome = entities.OutcomeSuccess
	evt.TargetID = item.ID
	evt.Payload = map[string]interface{}{"action": "pick_up", "item_id": item.ID}
	evt.Description = fmt.Sprintf("%s picks up %s", tctx.actor.Name, item.Name)
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
		return nil, err
	}

	if _, err := o.graphRepo.DeleteRelationship(ctx, &graph.DeleteRelationshipInput{RelationshipID: edge.ID}); err != nil {
		return nil, err
	}
	if _, err := o.graphRepo.CreateRelationship(ctx, &graph.CreateRelationshipInput{Relationship: &entities.Relationship{
		ID:         o.idGen.Generate(),
		UniverseID: universeID,
		FromID:     tctx.actor.ID,
		ToID:       item.ID,
		Type:       entities.RelCarries,
		CreatedAt:  o.clock.Now(),
	}}); err != nil {
		return nil, err
	}

	return &entities.TurnResult{
		EventIDs:     []string{evt.ID},
		StateChanges: []string{"carries:" + item.ID},
		Skill: &entities.SkillResult{
			Success:     true,
			Outcome:     entities.OutcomeSuccess,
			Description: fmt.Sprintf("You pick up the %s.", item.Name),
		},
	}, nil
}

func (o *orchestrator) resolveDrop(ctx context.Context, tctx *turnContext, input *ExecuteInput) (*entities.TurnResult, error) {
	item, err := o.findInventoryItem(tctx, input.Intent)
	if err != nil {
		return nil, err
	}
	if tctx.location == nil {
		return nil, errors.RuleViolation("there is nowhere to drop it")
	}
	universeID := input.Session.UniverseID

	evt := o.newEvent(universeID, entities.EventItemTransfer, tctx)
	evt.Outcome = entities.OutcomeSuccess
	evt.TargetID = item.ID
	evt.Payload = map[string]interface{}{"action": "drop", "item_id": item.ID}
	evt.Description = fmt.Sprintf("%s drops %s", tctx.actor.Name, item.Name)
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
		return nil, err
	}

	for _, rel := range tctx.relationships {
		if rel.ToID == item.ID {
			switch rel.Type {
			case entities.RelCarries, entities.RelWields, entities.RelWears:
				if _, err := o.graphRepo.DeleteRelationship(ctx, &graph.DeleteRelationshipInput{RelationshipID: rel.ID}); err != nil {
					return nil, err
				}
			}
		}
	}
	if _, err := o.graphRepo.CreateRelationship(ctx, &graph.CreateRelationshipInput{Relationship: &entities.Relationship{
		ID:         o.idGen.Generate(),
		UniverseID: universeID,
		FromID:     tctx.location.ID,
		ToID:       item.ID,
		Type:       entities.RelContains,
		CreatedAt:  o.clock.Now(),
	}}); err != nil {
		return nil, err
	}

	return &entities.TurnResult{
		EventIDs:     []string{evt.ID},
		StateChanges: []string{"dropped:" + item.ID},
		Skill: &entities.SkillResult{
			Success:     true,
			Outcome:     entities.OutcomeSuccess,
			Description: fmt.Sprintf("You drop the %s.", item.Name),
		},
	}, nil
}

func (o *orchestrator) resolveGive(ctx context.Context, tctx *turnContext, input *ExecuteInput) (*entities.TurnResult, error) {
	// ItemID names the item, either its id or what the player called it
	item, err := o.findInventoryItem(tctx, &entities.Intent{
		ItemID:     input.Intent.ItemID,
		TargetName: input.Intent.ItemID,
	})
	if err != nil {
		return nil, err
	}

	// The recipient rides in TargetID/TargetName; the item in ItemID
	recipient, err := o.findTarget(tctx, input.Intent)
	if err != nil {
		return nil, err
	}
	universeID := input.Session.UniverseID

	evt := o.newEvent(universeID, entities.EventItemTransfer, tctx)
	evt.Outcome = entities.OutcomeSuccess
	evt.TargetID = recipient.ID
	evt.Payload = map[string]interface{}{"action": "give", "item_id": item.ID, "recipient_id": recipient.ID}
	evt.Description = fmt.Sprintf("%s gives %s to %s", tctx.actor.Name, item.Name, recipient.Name)
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
		return nil, err
	}

	for _, rel := range tctx.relationships {
		if rel.ToID == item.ID && rel.Type == entities.RelCarries {
			if _, err := o.graphRepo.DeleteRelationship(ctx, &graph.DeleteRelationshipInput{RelationshipID: rel.ID}); err != nil {
				return nil, err
			}
		}
	}
	if _, err := o.graphRepo.CreateRelationship(ctx, &graph.CreateRelationshipInput{Relationship: &entities.Relationship{
		ID:         o.idGen.Generate(),
		UniverseID: universeID,
		FromID:     recipient.ID,
		ToID:       item.ID,
		Type:       entities.RelCarries,
		CreatedAt:  o.clock.Now(),
	}}); err != nil {
		return nil, err
	}

	return &entities.TurnResult{
		EventIDs: []string{evt.ID},
		Skill: &entities.SkillResult{
			Success:     true,
			Outcome:     entities.OutcomeSuccess,
			Description: fmt.Sprintf("You give the %s to %s.", item.Name, recipient.Name),
		},
	}, nil
}

func (o *orchestrator) resolveUseItem(tctx *turnContext, input *ExecuteInput) (*entities.TurnResult, error) {
	item, err := o.findInventoryItem(tctx, input.Intent)
	if err != nil {
		return nil, err
	}
	return o.neutral(fmt.Sprintf("You use the %s.", item.Name)), nil
}

func (o *orchestrator) resolveFork(ctx context.Context, tctx *turnContext, input *ExecuteInput) (*entities.TurnResult, error) {
	name := input.Intent.ForkName
	if name == "" {
		name = "What If"
	}
	reason := input.Intent.ForkReason
	if reason == "" {
		reason = input.Intent.OriginalInput
	}

	forkOut, err := o.multiverse.ForkUniverse(ctx, &multiverse.ForkUniverseInput{
		ParentID: input.Session.UniverseID,
		Name:     name,
		Reason:   reason,
		ActorID:  tctx.actor.ID,
	})
	if err != nil {
		return nil, err
	}

	input.Session.UniverseID = forkOut.Universe.ID
	return &entities.TurnResult{
		EventIDs:     []string{forkOut.ParentEventID, forkOut.ChildEventID},
		StateChanges: []string{"universe:" + forkOut.Universe.ID},
		Skill: &entities.SkillResult{
			Success:     true,
			Outcome:     entities.OutcomeSuccess,
			Description: fmt.Sprintf("The timeline splits. You are now in %q.", forkOut.Universe.Name),
		},
	}, nil
}
