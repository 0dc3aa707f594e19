// Package resources implements the resource system: spell slots, cooldown
// trackers, usage dice, stress and momentum, rests, and the solo-combat
// layer with its fray die and defy-death save.
package resources

//go:generate mockgen -destination=mock/mock_service.go -package=resourcesmock github.com/KirkDiggler/tta-core/internal/orchestrators/resources Service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/KirkDiggler/tta-core/internal/dice"
	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/skills"
	"github.com/KirkDiggler/tta-core/internal/pkg/clock"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

// Heroic action cost modes
const (
	HeroicCostMomentum = "momentum"
	HeroicCostStress   = "stress"
)

// Service defines the interface for resource operations
type Service interface {
	// RollUsageDie rolls a named usage die, degrading it on low results
	RollUsageDie(ctx context.Context, input *UsageDieInput) (*UsageDieOutput, error)

	// UseCooldown consumes one use of a named cooldown tracker
	UseCooldown(ctx context.Context, input *UseCooldownInput) (*UseCooldownOutput, error)

	// TryRecharge rolls the recharge die for a named cooldown tracker
	TryRecharge(ctx context.Context, input *RechargeInput) (*RechargeOutput, error)

	// AddStress raises stress and fires the breaking point exactly once
	AddStress(ctx context.Context, input *AddStressInput) (*AddStressOutput, error)

	// SpendForAbility debits whatever resource an ability costs
	SpendForAbility(ctx context.Context, input *SpendInput) (*SpendOutput, error)

	// TakeRest applies a short or long rest
	TakeRest(ctx context.Context, input *RestInput) (*RestOutput, error)

	// StartSoloRound runs the solo round start: momentum, fray die,
	// recharges, action flags
	StartSoloRound(ctx context.Context, input *SoloRoundInput) (*SoloRoundOutput, error)

	// DefyDeath attempts the limited-use save against dropping to zero HP
	DefyDeath(ctx context.Context, input *DefyDeathInput) (*DefyDeathOutput, error)

	// HeroicAction buys a second action this round
	HeroicAction(ctx context.Context, input *HeroicActionInput) (*HeroicActionOutput, error)
}

// Config holds the dependencies for the resources orchestrator
type Config struct {
	Roller    *dice.Roller
	Skills    skills.Service
	TruthRepo truth.Repository
	IDGen     idgen.Generator
	Clock     clock.Clock
	// HeroicCost selects what a heroic action costs: momentum (default) or
	// stress
	HeroicCost string
	// FraySplittable spreads fray damage across multiple eligible enemies
	FraySplittable bool
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
	if c.HeroicCost != "" && c.HeroicCost != HeroicCostMomentum && c.HeroicCost != HeroicCostStress {
		vb.Fieldf("HeroicCost", "must be %q or %q", HeroicCostMomentum, HeroicCostStress)
	}
	return vb.Build()
}

type orchestrator struct {
	roller         *dice.Roller
	skills         skills.Service
	truthRepo      truth.Repository
	idGen          idgen.Generator
	clock          clock.Clock
	heroicCost     string
	fraySplittable bool
}

// NewOrchestrator creates a new resources orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	heroicCost := cfg.HeroicCost
	if heroicCost == "" {
		heroicCost = HeroicCostMomentum
	}

	return &orchestrator{
		roller:         cfg.Roller,
		skills:         cfg.Skills,
		truthRepo:      cfg.TruthRepo,
		idGen:          cfg.IDGen,
		clock:          c,
		heroicCost:     heroicCost,
		fraySplittable: cfg.FraySplittable,
	}, nil
}

// FrayDie returns the fray die notation for a character level
func FrayDie(level int) string {
	switch {
	case level >= 13:
		return "1d12"
	case level >= 9:
		return "1d10"
	case level >= 5:
		return "1d8"
	default:
		return "1d6"
	}
}

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

func (o *orchestrator) appendAndSave(ctx context.Context, events []*entities.Event, modified ...*entities.Entity) ([]string, error) {
	ids := make([]string, 0, len(events))
	for _, evt := range events {
		if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
			return nil, err
		}
		ids = append(ids, evt.ID)
	}
	seen := make(map[string]bool)
	for _, e := range modified {
		if e == nil || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		e.Version++
		e.UpdatedAt = o.clock.Now()
		if _, err := o.truthRepo.SaveEntity(ctx, &truth.SaveEntityInput{Entity: e}); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func pool(e *entities.Entity) (*entities.ResourcePool, error) {
	if e == nil || e.Character == nil {
		return nil, errors.InvalidTarget("entity has no character stats")
	}
	if e.Character.Resources == nil {
		e.Character.Resources = &entities.ResourcePool{}
	}
	return e.Character.Resources, nil
}

func (o *orchestrator) RollUsageDie(ctx context.Context, input *UsageDieInput) (*UsageDieOutput, error) {
	if input == nil || input.Entity == nil || input.Name == "" {
		return nil, errors.BadInput("entity and usage die name are required")
	}
	res, err := pool(input.Entity)
	if err != nil {
		return nil, err
	}
	die, ok := res.UsageDice[input.Name]
	if !ok {
		return nil, errors.NotFoundf("usage die %q not found", input.Name)
	}
	if die.Depleted() {
		return nil, errors.InsufficientResourcef("%s is depleted", input.Name)
	}

	rolls, err := o.roller.Roll(1, die.Sides())
	if err != nil {
		return nil, err
	}
	out := &UsageDieOutput{Roll: rolls[0], Die: die.Current}
	if die.ShouldDegrade(rolls[0]) {
		out.Degraded = true
		out.Depleted = die.Degrade()
	}

	evt := o.newEvent(input.UniverseID, entities.EventResourceUsed, input.Entity.ID)
	evt.Roll = rolls[0]
	evt.Payload = map[string]interface{}{
		"resource": "usage_die",
		"name":     input.Name,
		"die":      string(out.Die),
		"degraded": out.Degraded,
	}
	if _, err := o.appendAndSave(ctx, []*entities.Event{evt}, input.Entity); err != nil {
		return nil, err
	}
	return out, nil
}

func (o *orchestrator) UseCooldown(ctx context.Context, input *UseCooldownInput) (*UseCooldownOutput, error) {
	if input == nil || input.Entity == nil || input.Name == "" {
		return nil, errors.BadInput("entity and cooldown name are required")
	}
	res, err := pool(input.Entity)
	if err != nil {
		return nil, err
	}
	tracker, ok := res.Cooldowns[input.Name]
	if !ok {
		return nil, errors.NotFoundf("cooldown %q not found", input.Name)
	}
	if !tracker.Use() {
		return nil, errors.InsufficientResourcef("%s has no uses left", input.Name)
	}

	evt := o.newEvent(input.UniverseID, entities.EventResourceUsed, input.Entity.ID)
	evt.Payload = map[string]interface{}{
		"resource":  "cooldown",
		"name":      input.Name,
		"remaining": tracker.CurrentUses,
	}
	if _, err := o.appendAndSave(ctx, []*entities.Event{evt}, input.Entity); err != nil {
		return nil, err
	}
	return &UseCooldownOutput{Remaining: tracker.CurrentUses}, nil
}

func (o *orchestrator) TryRecharge(ctx context.Context, input *RechargeInput) (*RechargeOutput, error) {
	if input == nil || input.Entity == nil || input.Name == "" {
		return nil, errors.BadInput("entity and cooldown name are required")
	}
	res, err := pool(input.Entity)
	if err != nil {
		return nil, err
	}
	tracker, ok := res.Cooldowns[input.Name]
	if !ok {
		return nil, errors.NotFoundf("cooldown %q not found", input.Name)
	}

	out, err := o.rechargeOne(tracker)
	if err != nil {
		return nil, err
	}
	if out.Recharged {
		if _, err := o.appendAndSave(ctx, nil, input.Entity); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (o *orchestrator) rechargeOne(tracker *entities.CooldownTracker) (*RechargeOutput, error) {
	if tracker.CurrentUses >= tracker.MaxUses || len(tracker.RechargeOn) == 0 {
		return &RechargeOutput{Remaining: tracker.CurrentUses}, nil
	}
	rolls, err := o.roller.Roll(1, tracker.RechargeSides())
	if err != nil {
		return nil, err
	}
	out := &RechargeOutput{Roll: rolls[0]}
	if tracker.ShouldRecharge(rolls[0]) {
		tracker.RestoreUses(1)
		out.Recharged = true
	}
	out.Remaining = tracker.CurrentUses
	return out, nil
}

func (o *orchestrator) AddStress(ctx context.Context, input *AddStressInput) (*AddStressOutput, error) {
	if input == nil || input.Entity == nil || input.Amount < 0 {
		return nil, errors.BadInput("entity and a non-negative amount are required")
	}
	res, err := pool(input.Entity)
	if err != nil {
		return nil, err
	}
	if res.Pool == nil {
		return nil, errors.NotFound("entity has no stress pool")
	}

	applied := res.Pool.AddStress(input.Amount)
	out := &AddStressOutput{Applied: applied, Stress: res.Pool.Stress}

	var events []*entities.Event
	if res.Pool.AtBreakingPoint() && !res.Pool.BreakingPointHit {
		res.Pool.BreakingPointHit = true
		out.BreakingPoint = true
		evt := o.newEvent(input.UniverseID, entities.EventBreakingPoint, input.Entity.ID)
		evt.CausedByID = input.CausedByEventID
		evt.Payload = map[string]interface{}{"stress": res.Pool.Stress}
		events = append(events, evt)

		slog.Info("breaking point reached", "entity_id", input.Entity.ID, "stress", res.Pool.Stress)
	}

	ids, err := o.appendAndSave(ctx, events, input.Entity)
	if err != nil {
		return nil, err
	}
	out.EventIDs = ids
	return out, nil
}

func (o *orchestrator) SpendForAbility(ctx context.Context, input *SpendInput) (*SpendOutput, error) {
	if input == nil || input.Entity == nil || input.Ability == nil {
		return nil, errors.BadInput("entity and ability are required")
	}
	res, err := pool(input.Entity)
	if err != nil {
		return nil, err
	}

	ability := input.Ability
	out := &SpendOutput{Mechanism: ability.Mechanism}
	switch ability.Mechanism {
	case entities.MechanismFree:
		return out, nil

	case entities.MechanismSlots:
		level := ability.MechanismDetails.SlotLevel
		if !res.UseSlot(level) {
			return nil, errors.InsufficientResourcef("no level %d slots remaining", level)
		}
		out.Detail = fmt.Sprintf("level %d slot", level)

	case entities.MechanismCooldown:
		used, err := o.UseCooldown(ctx, &UseCooldownInput{
			UniverseID: input.UniverseID,
			Entity:     input.Entity,
			Name:       ability.MechanismDetails.CooldownName,
		})
		if err != nil {
			return nil, err
		}
		out.Detail = fmt.Sprintf("%s (%d left)", ability.MechanismDetails.CooldownName, used.Remaining)
		return out, nil

	case entities.MechanismUsageDie:
		rolled, err := o.RollUsageDie(ctx, &UsageDieInput{
			UniverseID: input.UniverseID,
			Entity:     input.Entity,
			Name:       ability.MechanismDetails.UsageDieName,
		})
		if err != nil {
			return nil, err
		}
		out.Detail = fmt.Sprintf("usage die %s rolled %d", rolled.Die, rolled.Roll)
		return out, nil

	case entities.MechanismStress:
		added, err := o.AddStress(ctx, &AddStressInput{
			UniverseID: input.UniverseID,
			Entity:     input.Entity,
			Amount:     ability.MechanismDetails.StressCost,
		})
		if err != nil {
			return nil, err
		}
		out.Detail = fmt.Sprintf("%d stress", added.Applied)
		out.EventIDs = added.EventIDs
		return out, nil

	case entities.MechanismMomentum:
		if res.Pool == nil || !res.Pool.SpendMomentum(ability.MechanismDetails.MomentumCost) {
			return nil, errors.InsufficientResourcef("not enough momentum for %s", ability.Name)
		}
		out.Detail = fmt.Sprintf("%d momentum", ability.MechanismDetails.MomentumCost)

	default:
		return nil, errors.BadInputf("unknown mechanism %q", ability.Mechanism)
	}

	evt := o.newEvent(input.UniverseID, entities.EventResourceUsed, input.Entity.ID)
	evt.Payload = map[string]interface{}{
		"resource":   string(ability.Mechanism),
		"ability_id": ability.ID,
		"detail":     out.Detail,
	}
	ids, err := o.appendAndSave(ctx, []*entities.Event{evt}, input.Entity)
	if err != nil {
		return nil, err
	}
	out.EventIDs = append(out.EventIDs, ids...)
	return out, nil
}

// hitDieSides parses a hit die label such as "d10"
func hitDieSides(label string) int {
	s := strings.TrimPrefix(strings.ToLower(label), "d")
	sides, err := strconv.Atoi(s)
	if err != nil || sides < 2 {
		return 8
	}
	return sides
}

func (o *orchestrator) TakeRest(ctx context.Context, input *RestInput) (*RestOutput, error) {
	if input == nil || input.Entity == nil {
		return nil, errors.BadInput("entity is required")
	}
	if input.Kind != entities.RestShort && input.Kind != entities.RestLong {
		return nil, errors.BadInputf("unknown rest kind %q", input.Kind)
	}
	res, err := pool(input.Entity)
	if err != nil {
		return nil, err
	}
	c := input.Entity.Character

	out := &RestOutput{SlotsRestored: make(map[int]int)}
	if input.Kind == entities.RestShort {
		toSpend := input.HitDice
		if toSpend > c.HitDiceCurrent {
			toSpend = c.HitDiceCurrent
		}
		conMod := c.AbilityModifier(entities.CON)
		for i := 0; i < toSpend; i++ {
			rolls, err := o.roller.Roll(1, hitDieSides(c.HitDieType))
			if err != nil {
				return nil, err
			}
			healed := rolls[0] + conMod
			if healed < 1 {
				healed = 1
			}
			if c.HP+healed > c.HPMax {
				healed = c.HPMax - c.HP
			}
			c.HP += healed
			c.HitDiceCurrent--
			out.HPRecovered += healed
			out.HitDiceSpent++
		}

		if res.Pool != nil && res.Pool.Stress > 0 {
			rolls, err := o.roller.Roll(1, 4)
			if err != nil {
				return nil, err
			}
			out.StressRelieved = res.Pool.ReduceStress(rolls[0])
		}

		for _, tracker := range res.Cooldowns {
			if tracker.RestoreOn == entities.RestShort {
				tracker.RestoreUses(tracker.MaxUses)
			}
		}
	} else {
		out.HPRecovered = c.HPMax - c.HP
		c.HP = c.HPMax

		regained := c.HitDiceMax / 2
		if regained < 1 {
			regained = 1
		}
		c.HitDiceCurrent += regained
		if c.HitDiceCurrent > c.HitDiceMax {
			c.HitDiceCurrent = c.HitDiceMax
		}

		out.SlotsRestored = res.RestoreAllSlots()
		if res.Pool != nil {
			out.StressRelieved = res.Pool.Stress
			res.Pool.Stress = 0
			res.Pool.BreakingPointHit = false
		}
		for _, die := range res.UsageDice {
			die.RestoreFull()
		}
		for _, tracker := range res.Cooldowns {
			tracker.RestoreUses(tracker.MaxUses)
		}
		if res.DefyDeath != nil {
			res.DefyDeath.UsesThisRest = 0
		}
		if c.Exhaustion > 0 {
			c.Exhaustion--
		}
	}

	evt := o.newEvent(input.UniverseID, entities.EventRest, input.Entity.ID)
	evt.Payload = map[string]interface{}{
		"kind":         string(input.Kind),
		"hp_recovered": out.HPRecovered,
	}
	if _, err := o.appendAndSave(ctx, []*entities.Event{evt}, input.Entity); err != nil {
		return nil, err
	}
	out.EventID = evt.ID

	slog.Info("rest taken",
		"entity_id", input.Entity.ID,
		"kind", input.Kind,
		"hp_recovered", out.HPRecovered,
	)
	return out, nil
}

func (o *orchestrator) StartSoloRound(ctx context.Context, input *SoloRoundInput) (*SoloRoundOutput, error) {
	if input == nil || input.Actor == nil {
		return nil, errors.BadInput("actor is required")
	}
	res, err := pool(input.Actor)
	if err != nil {
		return nil, err
	}
	if res.Solo == nil {
		res.Solo = &entities.SoloCombatState{}
	}
	c := input.Actor.Character

	out := &SoloRoundOutput{}
	res.Solo.Round = input.Round
	res.Solo.ResetTurn()

	if res.Pool != nil {
		out.MomentumGained = res.Pool.AddMomentum(1)
	}

	var events []*entities.Event
	modified := []*entities.Entity{input.Actor}

	// The fray die lands on lower-HD enemies without an attack roll
	out.FrayDie = FrayDie(c.Level)
	frayResult, err := o.roller.RollNotation(out.FrayDie)
	if err != nil {
		return nil, err
	}
	out.FrayRoll = frayResult.Total

	eligible := make([]*entities.Entity, 0, len(input.Enemies))
	for _, enemy := range input.Enemies {
		if enemy.Character == nil || enemy.Character.Dead || enemy.Character.HP <= 0 {
			continue
		}
		if enemy.Character.HitDice <= c.Level {
			eligible = append(eligible, enemy)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Character.HitDice != eligible[j].Character.HitDice {
			return eligible[i].Character.HitDice < eligible[j].Character.HitDice
		}
		return eligible[i].ID < eligible[j].ID
	})

	if len(eligible) > 0 {
		remaining := out.FrayRoll
		for _, enemy := range eligible {
			if remaining <= 0 {
				break
			}
			damage := remaining
			if o.fraySplittable && damage > enemy.Character.HP {
				damage = enemy.Character.HP
			}
			enemy.Character.HP -= damage
			if enemy.Character.HP <= 0 {
				enemy.Character.HP = 0
				enemy.Character.Dead = true
			}
			remaining -= damage

			killed := enemy.Character.Dead
			if out.FrayTargetID == "" {
				out.FrayTargetID = enemy.ID
				out.FrayKill = killed
			}

			evt := o.newEvent(input.UniverseID, entities.EventCombatRound, input.Actor.ID)
			evt.TargetID = enemy.ID
			evt.Outcome = entities.OutcomeHit
			evt.Roll = out.FrayRoll
			evt.Payload = map[string]interface{}{
				"fray":         true,
				"damage":       damage,
				"target_death": killed,
			}
			events = append(events, evt)
			modified = append(modified, enemy)

			if !o.fraySplittable {
				break
			}
		}
	}

	for name, tracker := range res.Cooldowns {
		recharge, err := o.rechargeOne(tracker)
		if err != nil {
			return nil, err
		}
		if recharge.Roll > 0 {
			out.Recharges = append(out.Recharges, *recharge)
			slog.Debug("recharge rolled", "name", name, "roll", recharge.Roll, "recharged", recharge.Recharged)
		}
	}

	ids, err := o.appendAndSave(ctx, events, modified...)
	if err != nil {
		return nil, err
	}
	out.EventIDs = ids
	return out, nil
}

func (o *orchestrator) DefyDeath(ctx context.Context, input *DefyDeathInput) (*DefyDeathOutput, error) {
	if input == nil || input.Entity == nil {
		return nil, errors.BadInput("entity is required")
	}
	res, err := pool(input.Entity)
	if err != nil {
		return nil, err
	}
	if res.DefyDeath == nil {
		res.DefyDeath = &entities.DefyDeathState{}
	}
	c := input.Entity.Character

	// At zero uses the drop proceeds without a roll
	if res.DefyDeath.UsesRemaining() == 0 {
		return &DefyDeathOutput{Attempted: false}, nil
	}

	damageThisRound := input.IncomingDamage
	if res.Solo != nil {
		damageThisRound += res.Solo.DamageThisRound
	}
	dc := 10 + damageThisRound + 5*res.DefyDeath.UsesThisRest

	save, err := o.skills.Save(ctx, &skills.SaveInput{
		Entity:     input.Entity,
		Ability:    entities.CON,
		DC:         dc,
		Conditions: c.ConditionTypes(),
	})
	if err != nil {
		return nil, err
	}
	res.DefyDeath.UsesThisRest++

	out := &DefyDeathOutput{
		Attempted:     true,
		Success:       save.Success,
		DC:            dc,
		Save:          save,
		UsesRemaining: res.DefyDeath.UsesRemaining(),
	}

	evt := o.newEvent(input.UniverseID, entities.EventDefyDeath, input.Entity.ID)
	evt.Roll = save.Roll
	evt.CausedByID = input.CausedByEventID
	evt.Payload = map[string]interface{}{
		"dc":             dc,
		"total":          save.Total,
		"uses_remaining": out.UsesRemaining,
	}
	if save.Success {
		evt.Outcome = entities.OutcomeSuccess
		c.HP = 1
		c.Exhaustion++
	} else {
		evt.Outcome = entities.OutcomeFail
		c.HP = 0
	}

	if _, err := o.appendAndSave(ctx, []*entities.Event{evt}, input.Entity); err != nil {
		return nil, err
	}
	out.EventID = evt.ID

	slog.Info("defy death",
		"entity_id", input.Entity.ID,
		"dc", dc,
		"total", save.Total,
		"success", save.Success,
	)
	return out, nil
}

func (o *orchestrator) HeroicAction(ctx context.Context, input *HeroicActionInput) (*HeroicActionOutput, error) {
	if input == nil || input.Entity == nil {
		return nil, errors.BadInput("entity is required")
	}
	res, err := pool(input.Entity)
	if err != nil {
		return nil, err
	}
	if res.Solo == nil {
		res.Solo = &entities.SoloCombatState{}
	}
	if res.Solo.HeroicUsed {
		return nil, errors.RuleViolation("heroic action already taken this round")
	}

	out := &HeroicActionOutput{Cost: o.heroicCost}
	if o.heroicCost == HeroicCostMomentum {
		if res.Pool == nil || !res.Pool.SpendMomentum(1) {
			return nil, errors.InsufficientResource("not enough momentum for a heroic action")
		}
	} else {
		rolls, err := o.roller.Roll(1, 4)
		if err != nil {
			return nil, err
		}
		added, err := o.AddStress(ctx, &AddStressInput{
			UniverseID: input.UniverseID,
			Entity:     input.Entity,
			Amount:     rolls[0],
		})
		if err != nil {
			return nil, err
		}
		out.StressTaken = added.Applied
		out.EventIDs = added.EventIDs
	}

	res.Solo.HeroicUsed = true
	res.Solo.ActionUsed = false // the bought action is available immediately

	evt := o.newEvent(input.UniverseID, entities.EventResourceUsed, input.Entity.ID)
	evt.Payload = map[string]interface{}{
		"resource": "heroic_action",
		"cost":     out.Cost,
	}
	ids, err := o.appendAndSave(ctx, []*entities.Event{evt}, input.Entity)
	if err != nil {
		return nil, err
	}
	out.EventIDs = append(out.EventIDs, ids...)
	return out, nil
}
