package resources

import (
	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/skills"
)

// UsageDieInput rolls one named usage die
type UsageDieInput struct {
	UniverseID string
	Entity     *entities.Entity
	Name       string
}

// UsageDieOutput reports the roll and any degradation
type UsageDieOutput struct {
	Roll     int
	Die      entities.UsageDieStep // the die that was rolled
	Degraded bool
	Depleted bool
}

// UseCooldownInput consumes one use of a named cooldown tracker
type UseCooldownInput struct {
	UniverseID string
	Entity     *entities.Entity
	Name       string
}

// UseCooldownOutput reports remaining uses
type UseCooldownOutput struct {
	Remaining int
}

// RechargeInput rolls the recharge die for a named cooldown tracker
type RechargeInput struct {
	UniverseID string
	Entity     *entities.Entity
	Name       string
}

// RechargeOutput reports the roll and whether a use came back
type RechargeOutput struct {
	Roll      int
	Recharged bool
	Remaining int
}

// AddStressInput raises an entity's stress
type AddStressInput struct {
	UniverseID string
	Entity     *entities.Entity
	Amount     int
	// CausedByEventID threads the causal chain
	CausedByEventID string
}

// AddStressOutput reports the new level and whether the breaking point fired
type AddStressOutput struct {
	Applied       int
	Stress        int
	BreakingPoint bool
	EventIDs      []string
}

// SpendInput debits whatever resource an ability costs
type SpendInput struct {
	UniverseID string
	Entity     *entities.Entity
	Ability    *entities.Ability
}

// SpendOutput reports what was consumed
type SpendOutput struct {
	Mechanism entities.Mechanism
	// Detail is human readable, e.g. "level 1 slot" or "usage die d6 -> d4"
	Detail   string
	EventIDs []string
}

// RestInput takes a short or long rest
type RestInput struct {
	UniverseID string
	Entity     *entities.Entity
	Kind       entities.RestKind
	// HitDice is how many hit dice to spend on a short rest
	HitDice int
}

// RestOutput reports what the rest restored
type RestOutput struct {
	HPRecovered    int
	HitDiceSpent   int
	StressRelieved int
	SlotsRestored  map[int]int
	EventID        string
}

// SoloRoundInput starts one solo combat round
type SoloRoundInput struct {
	UniverseID string
	Actor      *entities.Entity
	// Enemies present this round; the fray die lands on the lowest-HD
	// eligible one
	Enemies []*entities.Entity
	Round   int
}

// SoloRoundOutput reports what the round start did
type SoloRoundOutput struct {
	MomentumGained int
	FrayDie        string
	FrayRoll       int
	FrayTargetID   string
	FrayKill       bool
	Recharges      []RechargeOutput
	EventIDs       []string
}

// DefyDeathInput attempts to prevent a drop to zero HP
type DefyDeathInput struct {
	UniverseID string
	Entity     *entities.Entity
	// IncomingDamage is the hit that would drop the entity
	IncomingDamage  int
	CausedByEventID string
}

// DefyDeathOutput reports the save, or that no attempt was possible
type DefyDeathOutput struct {
	// Attempted is false when no uses remained; the drop proceeds
	Attempted     bool
	Success       bool
	DC            int
	Save          *skills.SaveOutput
	UsesRemaining int
	EventID       string
}

// HeroicActionInput buys a second action this round
type HeroicActionInput struct {
	UniverseID string
	Entity     *entities.Entity
}

// HeroicActionOutput reports the cost paid
type HeroicActionOutput struct {
	// Cost is "momentum" or "stress"
	Cost        string
	StressTaken int
	EventIDs    []string
}
