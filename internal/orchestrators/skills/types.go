package skills

import (
	"github.com/KirkDiggler/tta-core/internal/entities"
)

// CoverLevel is the target's cover against an attack
type CoverLevel int

// Cover levels and their AC bonuses
const (
	CoverNone CoverLevel = iota
	CoverHalf
	CoverThreeQuarters
)

// ACBonus returns the AC bonus granted by the cover level
func (c CoverLevel) ACBonus() int {
	switch c {
	case CoverHalf:
		return 2
	case CoverThreeQuarters:
		return 5
	default:
		return 0
	}
}

// CheckInput carries one skill check
type CheckInput struct {
	Entity    *entities.Entity
	Skill     string
	DC        int
	Advantage entities.AdvantageState
	// Bonus is an extra flat modifier, e.g. an active effect on the skill
	Bonus int
}

// CheckOutput carries the resolved check
type CheckOutput struct {
	Success bool
	Roll    int // the natural d20
	Total   int
	DC      int
	Margin  int
	Outcome entities.Outcome
}

// SaveInput carries one saving throw
type SaveInput struct {
	Entity    *entities.Entity
	Ability   entities.AbilityScore
	DC        int
	Advantage entities.AdvantageState
	Bonus     int
	// Conditions currently on the entity; paralyzed and friends auto-fail
	// STR and DEX saves
	Conditions []entities.ConditionType
}

// SaveOutput carries the resolved save
type SaveOutput struct {
	Success  bool
	Roll     int
	Total    int
	DC       int
	Margin   int
	Outcome  entities.Outcome
	AutoFail bool
}

// AttackInput carries one attack resolution
type AttackInput struct {
	Attacker *entities.Entity
	Target   *entities.Entity
	// Weapon is an item entity with damage dice; nil means unarmed (1 + STR)
	Weapon *entities.Entity
	Cover  CoverLevel
	// AttackerConditions and TargetConditions feed the advantage math
	AttackerConditions []entities.ConditionType
	TargetConditions   []entities.ConditionType
	// Advantage is an extra situational shift combined with condition math
	Advantage entities.AdvantageState
	// DamageBonusDice are extra dice added to damage on a hit, e.g. from an
	// active effect
	DamageBonusDice []string
	// AttackBonusDice are extra dice added to the attack roll, e.g. bless
	AttackBonusDice []string
}

// AttackOutput carries the resolved attack
type AttackOutput struct {
	Hit         bool
	Critical    bool
	Fumble      bool
	AttackRoll  int // the natural d20
	TotalAttack int
	Damage      int
	DamageType  string
	Outcome     entities.Outcome
	TargetAC    int
	Rolls       []entities.RollSummary
}
