// Package skills implements d20 resolution: skill checks, saving throws,
// attacks, and the outcome-band classifier layered over them.
package skills

//go:generate mockgen -destination=mock/mock_service.go -package=skillsmock github.com/KirkDiggler/tta-core/internal/orchestrators/skills Service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KirkDiggler/tta-core/internal/dice"
	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
)

// skillAbilities maps each of the 18 skills to its governing ability
var skillAbilities = map[string]entities.AbilityScore{
	"athletics":       entities.STR,
	"acrobatics":      entities.DEX,
	"sleight_of_hand": entities.DEX,
	"stealth":         entities.DEX,
	"arcana":          entities.INT,
	"history":         entities.INT,
	"investigation":   entities.INT,
	"nature":          entities.INT,
	"religion":        entities.INT,
	"animal_handling": entities.WIS,
	"insight":         entities.WIS,
	"medicine":        entities.WIS,
	"perception":      entities.WIS,
	"survival":        entities.WIS,
	"deception":       entities.CHA,
	"intimidation":    entities.CHA,
	"performance":     entities.CHA,
	"persuasion":      entities.CHA,
}

// SkillAbility returns the governing ability for a skill
func SkillAbility(skill string) (entities.AbilityScore, bool) {
	ability, ok := skillAbilities[skill]
	return ability, ok
}

// Service defines the interface for d20 resolution
type Service interface {
	// Check resolves a skill check against a DC
	Check(ctx context.Context, input *CheckInput) (*CheckOutput, error)

	// Save resolves a saving throw against a DC
	Save(ctx context.Context, input *SaveInput) (*SaveOutput, error)

	// Attack resolves an attack roll and, on a hit, its damage
	Attack(ctx context.Context, input *AttackInput) (*AttackOutput, error)
}

// Config holds the dependencies for the skills orchestrator
type Config struct {
	Roller *dice.Roller
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Roller == nil {
		vb.RequiredField("Roller")
	}
	return vb.Build()
}

type orchestrator struct {
	roller *dice.Roller
}

// NewOrchestrator creates a new skills orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &orchestrator{roller: cfg.Roller}, nil
}

// ClassifyOutcome maps a total against a DC to an outcome band. Margins of
// five or more are strong hits, non-negative margins are successes, the
// rest are misses.
func ClassifyOutcome(total, dc int) entities.Outcome {
	margin := total - dc
	switch {
	case margin >= 5:
		return entities.OutcomeStrongHit
	case margin >= 0:
		return entities.OutcomeSuccess
	default:
		return entities.OutcomeMiss
	}
}

// ClassifyAttack maps an attack result to an outcome band. Criticals are
// strong hits, ordinary hits are successes, misses are misses.
func ClassifyAttack(hit, critical bool) entities.Outcome {
	switch {
	case critical:
		return entities.OutcomeStrongHit
	case hit:
		return entities.OutcomeSuccess
	default:
		return entities.OutcomeMiss
	}
}

// rollD20 rolls one d20, applying advantage as 2d20kh1 and disadvantage as
// 2d20kl1
func (o *orchestrator) rollD20(state entities.AdvantageState) (int, error) {
	if state == entities.Normal {
		rolls, err := o.roller.Roll(1, 20)
		if err != nil {
			return 0, err
		}
		return rolls[0], nil
	}

	rolls, err := o.roller.Roll(2, 20)
	if err != nil {
		return 0, err
	}
	if state == entities.Advantage {
		if rolls[0] >= rolls[1] {
			return rolls[0], nil
		}
		return rolls[1], nil
	}
	if rolls[0] <= rolls[1] {
		return rolls[0], nil
	}
	return rolls[1], nil
}

// rollBonusDice sums extra dice notations such as bless's 1d4
func (o *orchestrator) rollBonusDice(notations []string) (int, error) {
	total := 0
	for _, notation := range notations {
		result, err := o.roller.RollNotation(notation)
		if err != nil {
			return 0, err
		}
		total += result.Total
	}
	return total, nil
}

func (o *orchestrator) Check(ctx context.Context, input *CheckInput) (*CheckOutput, error) {
	if input == nil || input.Entity == nil {
		return nil, errors.BadInput("entity is required")
	}
	if input.Entity.Character == nil {
		return nil, errors.InvalidTargetf("entity %s has no character stats", input.Entity.ID)
	}
	ability, ok := skillAbilities[input.Skill]
	if !ok {
		return nil, errors.BadInputf("unknown skill %q", input.Skill)
	}

	char := input.Entity.Character
	modifier := char.AbilityModifier(ability) + input.Bonus
	if char.IsProficientSkill(input.Skill) {
		modifier += entities.ProficiencyBonus(char.Level)
	}
	if char.Resources != nil && char.Resources.Pool != nil {
		modifier += char.Resources.Pool.StressPenalty()
	}

	roll, err := o.rollD20(input.Advantage)
	if err != nil {
		return nil, err
	}

	total := roll + modifier
	out := &CheckOutput{
		Success: total >= input.DC,
		Roll:    roll,
		Total:   total,
		DC:      input.DC,
		Margin:  total - input.DC,
		Outcome: ClassifyOutcome(total, input.DC),
	}

	slog.Debug("skill check resolved",
		"entity_id", input.Entity.ID,
		"skill", input.Skill,
		"roll", roll,
		"total", total,
		"dc", input.DC,
		"outcome", out.Outcome,
	)
	return out, nil
}

func (o *orchestrator) Save(ctx context.Context, input *SaveInput) (*SaveOutput, error) {
	if input == nil || input.Entity == nil {
		return nil, errors.BadInput("entity is required")
	}
	if input.Entity.Character == nil {
		return nil, errors.InvalidTargetf("entity %s has no character stats", input.Entity.ID)
	}

	if input.Ability == entities.STR || input.Ability == entities.DEX {
		for _, c := range input.Conditions {
			if entities.AutoFailsStrDexSaves(c) {
				return &SaveOutput{
					Success:  false,
					DC:       input.DC,
					Margin:   -input.DC,
					Outcome:  entities.OutcomeMiss,
					AutoFail: true,
				}, nil
			}
		}
	}

	char := input.Entity.Character
	modifier := char.AbilityModifier(input.Ability) + input.Bonus
	if char.IsProficientSave(input.Ability) {
		modifier += entities.ProficiencyBonus(char.Level)
	}
	if char.Resources != nil && char.Resources.Pool != nil {
		modifier += char.Resources.Pool.StressPenalty()
	}

	roll, err := o.rollD20(input.Advantage)
	if err != nil {
		return nil, err
	}

	total := roll + modifier
	out := &SaveOutput{
		Success: total >= input.DC,
		Roll:    roll,
		Total:   total,
		DC:      input.DC,
		Margin:  total - input.DC,
		Outcome: ClassifyOutcome(total, input.DC),
	}

	slog.Debug("saving throw resolved",
		"entity_id", input.Entity.ID,
		"ability", input.Ability,
		"roll", roll,
		"total", total,
		"dc", input.DC,
	)
	return out, nil
}

// attackAdvantage combines situational advantage with condition math on
// both sides of the attack
func attackAdvantage(input *AttackInput, ranged bool) entities.AdvantageState {
	state := input.Advantage
	for _, c := range input.AttackerConditions {
		state = state.Combine(entities.OwnAttackState(c))
	}
	for _, c := range input.TargetConditions {
		state = state.Combine(entities.IncomingAttackState(c, ranged))
	}
	return state
}

func (o *orchestrator) Attack(ctx context.Context, input *AttackInput) (*AttackOutput, error) {
	if input == nil || input.Attacker == nil || input.Target == nil {
		return nil, errors.BadInput("attacker and target are required")
	}
	if input.Attacker.Character == nil {
		return nil, errors.InvalidTargetf("attacker %s has no character stats", input.Attacker.ID)
	}
	if input.Target.Character == nil {
		return nil, errors.InvalidTargetf("target %s has no character stats", input.Target.ID)
	}

	attacker := input.Attacker.Character

	// Weapon profile: damage dice, type, and which ability drives the attack
	damageDice := "1"
	damageType := "bludgeoning"
	ability := entities.STR
	ranged := false
	proficient := true
	if input.Weapon != nil {
		if input.Weapon.Item == nil {
			return nil, errors.InvalidTargetf("weapon %s has no item stats", input.Weapon.ID)
		}
		item := input.Weapon.Item
		if item.DamageDice != "" {
			damageDice = item.DamageDice
		}
		if item.DamageType != "" {
			damageType = item.DamageType
		}
		ranged = item.Ranged
		if item.Ranged || (item.Finesse && attacker.AbilityModifier(entities.DEX) > attacker.AbilityModifier(entities.STR)) {
			ability = entities.DEX
		}
		proficient = attacker.IsProficientWeapon(input.Weapon.Name)
	}

	modifier := attacker.AbilityModifier(ability)
	if proficient {
		modifier += entities.ProficiencyBonus(attacker.Level)
	}

	roll, err := o.rollD20(attackAdvantage(input, ranged))
	if err != nil {
		return nil, err
	}

	attackBonus, err := o.rollBonusDice(input.AttackBonusDice)
	if err != nil {
		return nil, err
	}

	targetAC := input.Target.Character.AC + input.Cover.ACBonus()
	total := roll + modifier + attackBonus

	out := &AttackOutput{
		AttackRoll:  roll,
		TotalAttack: total,
		TargetAC:    targetAC,
		DamageType:  damageType,
	}

	autoCrit := false
	for _, c := range input.TargetConditions {
		if !ranged && entities.AutoCritOnMelee(c) {
			autoCrit = true
		}
	}

	switch {
	case roll == 1:
		out.Fumble = true
	case roll == 20:
		out.Hit = true
		out.Critical = true
	default:
		out.Hit = total >= targetAC
		out.Critical = out.Hit && autoCrit
	}

	if out.Hit {
		damage, err := o.rollDamage(damageDice, out.Critical, attacker.AbilityModifier(ability), input.DamageBonusDice)
		if err != nil {
			return nil, err
		}
		out.Damage = damage
	}
	out.Outcome = ClassifyAttack(out.Hit, out.Critical)

	hitP := out.Hit
	out.Rolls = append(out.Rolls, entities.RollSummary{
		Description: fmt.Sprintf("attack vs AC %d", targetAC),
		Roll:        roll,
		Modifier:    modifier + attackBonus,
		Total:       total,
		Success:     &hitP,
		Critical:    out.Critical,
		Fumble:      out.Fumble,
	})

	slog.Debug("attack resolved",
		"attacker_id", input.Attacker.ID,
		"target_id", input.Target.ID,
		"roll", roll,
		"total", total,
		"target_ac", targetAC,
		"hit", out.Hit,
		"critical", out.Critical,
		"damage", out.Damage,
	)
	return out, nil
}

// rollDamage rolls weapon damage. On a critical the dice are rolled twice;
// the ability modifier is added once.
func (o *orchestrator) rollDamage(damageDice string, critical bool, modifier int, bonusDice []string) (int, error) {
	result, err := o.roller.RollNotation(damageDice)
	if err != nil {
		return 0, err
	}
	total := result.Total
	if critical {
		again, err := o.roller.RollNotation(damageDice)
		if err != nil {
			return 0, err
		}
		total += again.Total
	}

	bonus, err := o.rollBonusDice(bonusDice)
	if err != nil {
		return 0, err
	}
	total += bonus + modifier

	if total < 1 {
		total = 1
	}
	return total, nil
}
