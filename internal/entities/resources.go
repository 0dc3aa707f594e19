package entities

// UsageDieStep is one die in the usage-die chain
type UsageDieStep string

// The usage-die chain, largest to smallest. A d4 that degrades is depleted.
const (
	UsageD12      UsageDieStep = "d12"
	UsageD10      UsageDieStep = "d10"
	UsageD8       UsageDieStep = "d8"
	UsageD6       UsageDieStep = "d6"
	UsageD4       UsageDieStep = "d4"
	UsageDepleted UsageDieStep = "depleted"
)

var usageChain = []UsageDieStep{UsageD12, UsageD10, UsageD8, UsageD6, UsageD4, UsageDepleted}

var usageSides = map[UsageDieStep]int{
	UsageD12: 12,
	UsageD10: 10,
	UsageD8:  8,
	UsageD6:  6,
	UsageD4:  4,
}

// UsageDie tracks a consumable via the usage-die mechanic
type UsageDie struct {
	Name      string       `json:"name"`
	Current   UsageDieStep `json:"current"`
	Initial   UsageDieStep `json:"initial"`
	DegradeOn []int        `json:"degrade_on,omitempty"` // defaults to {1, 2}
}

// Sides returns the size of the current die, 0 when depleted
func (u *UsageDie) Sides() int {
	return usageSides[u.Current]
}

// Depleted reports whether the die is exhausted
func (u *UsageDie) Depleted() bool {
	return u.Current == UsageDepleted
}

// ShouldDegrade reports whether a roll advances the chain
func (u *UsageDie) ShouldDegrade(roll int) bool {
	degradeOn := u.DegradeOn
	if len(degradeOn) == 0 {
		degradeOn = []int{1, 2}
	}
	for _, v := range degradeOn {
		if roll == v {
			return true
		}
	}
	return false
}

// Degrade advances to the next smaller die. Returns true if now depleted.
func (u *UsageDie) Degrade() bool {
	for i, step := range usageChain {
		if step == u.Current && i < len(usageChain)-1 {
			u.Current = usageChain[i+1]
			break
		}
	}
	return u.Depleted()
}

// Restore upgrades the die by the given number of steps, capped at its
// initial size
func (u *UsageDie) Restore(steps int) {
	idx := len(usageChain) - 1
	for i, step := range usageChain {
		if step == u.Current {
			idx = i
			break
		}
	}
	initialIdx := 0
	for i, step := range usageChain {
		if step == u.Initial {
			initialIdx = i
			break
		}
	}
	idx -= steps
	if idx < initialIdx {
		idx = initialIdx
	}
	u.Current = usageChain[idx]
}

// RestoreFull resets the die to its initial size
func (u *UsageDie) RestoreFull() {
	u.Current = u.Initial
}

// RestKind distinguishes short and long rests
type RestKind string

// Rest kinds
const (
	RestShort RestKind = "short"
	RestLong  RestKind = "long"
)

// CooldownTracker tracks limited-use abilities with optional die recharge
type CooldownTracker struct {
	Name        string   `json:"name"`
	CurrentUses int      `json:"current_uses"`
	MaxUses     int      `json:"max_uses"`
	RechargeOn  []int    `json:"recharge_on,omitempty"`  // e.g. {5, 6} for recharge 5-6
	RechargeDie int      `json:"recharge_die,omitempty"` // sides, defaults to 6
	RestoreOn   RestKind `json:"restore_on,omitempty"`   // rest kind that refills uses
}

// CanUse reports whether a use is available
func (t *CooldownTracker) CanUse() bool {
	return t.CurrentUses > 0
}

// Use consumes one use. Returns false when none remain.
func (t *CooldownTracker) Use() bool {
	if t.CurrentUses <= 0 {
		return false
	}
	t.CurrentUses--
	return true
}

// RestoreUses adds uses up to the maximum, returning how many were restored
func (t *CooldownTracker) RestoreUses(count int) int {
	space := t.MaxUses - t.CurrentUses
	if count > space {
		count = space
	}
	if count < 0 {
		count = 0
	}
	t.CurrentUses += count
	return count
}

// RechargeSides returns the recharge die size, defaulting to d6
func (t *CooldownTracker) RechargeSides() int {
	if t.RechargeDie > 0 {
		return t.RechargeDie
	}
	return 6
}

// ShouldRecharge reports whether a recharge roll restores a use
func (t *CooldownTracker) ShouldRecharge(roll int) bool {
	for _, v := range t.RechargeOn {
		if roll == v {
			return true
		}
	}
	return false
}

// StressMomentumPool tracks the paired stress and momentum meters. Stress at
// or past max is the breaking point; damage zeroes momentum.
type StressMomentumPool struct {
	Stress      int `json:"stress"`
	StressMax   int `json:"stress_max"`
	Momentum    int `json:"momentum"`
	MomentumMax int `json:"momentum_max"`

	// BreakingPointHit latches after the breaking point fires so it is
	// emitted exactly once per rest cycle
	BreakingPointHit bool `json:"breaking_point_hit,omitempty"`
}

// AtBreakingPoint reports whether stress has reached its maximum
func (p *StressMomentumPool) AtBreakingPoint() bool {
	return p.Stress >= p.StressMax
}

// AddStress raises stress, clamped at max. Returns the amount applied.
func (p *StressMomentumPool) AddStress(amount int) int {
	applied := amount
	if p.Stress+applied > p.StressMax {
		applied = p.StressMax - p.Stress
	}
	if applied < 0 {
		applied = 0
	}
	p.Stress += applied
	return applied
}

// ReduceStress lowers stress, clamped at zero. Returns the amount removed.
func (p *StressMomentumPool) ReduceStress(amount int) int {
	if amount > p.Stress {
		amount = p.Stress
	}
	if amount < 0 {
		amount = 0
	}
	p.Stress -= amount
	return amount
}

// AddMomentum raises momentum, clamped at max. Returns the amount applied.
func (p *StressMomentumPool) AddMomentum(amount int) int {
	applied := amount
	if p.Momentum+applied > p.MomentumMax {
		applied = p.MomentumMax - p.Momentum
	}
	if applied < 0 {
		applied = 0
	}
	p.Momentum += applied
	return applied
}

// SpendMomentum consumes momentum. Returns false when insufficient.
func (p *StressMomentumPool) SpendMomentum(amount int) bool {
	if p.Momentum < amount {
		return false
	}
	p.Momentum -= amount
	return true
}

// ResetMomentum zeroes momentum, as happens when the owner takes damage
func (p *StressMomentumPool) ResetMomentum() {
	p.Momentum = 0
}

// StressPenalty returns the save penalty for the current stress level
func (p *StressMomentumPool) StressPenalty() int {
	if p.Stress >= 7 {
		return -2
	}
	if p.Stress >= 4 {
		return -1
	}
	return 0
}

// SpellSlotLevel tracks current and maximum slots at one level
type SpellSlotLevel struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// DefyDeathState tracks the limited-use save against dropping to zero HP.
// Hard cap of three uses per long rest.
type DefyDeathState struct {
	UsesThisRest int `json:"uses_this_rest"`
	MaxUses      int `json:"max_uses"`
}

// UsesRemaining returns how many defy-death attempts are left
func (d *DefyDeathState) UsesRemaining() int {
	max := d.MaxUses
	if max == 0 {
		max = 3
	}
	remaining := max - d.UsesThisRest
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SoloCombatState tracks per-round action economy during solo combat
type SoloCombatState struct {
	Round           int    `json:"round"`
	ActionUsed      bool   `json:"action_used"`
	BonusUsed       bool   `json:"bonus_used"`
	ReactionsUsed   int    `json:"reactions_used"`
	HeroicUsed      bool   `json:"heroic_used"`
	ConcentratingOn string `json:"concentrating_on,omitempty"` // ability id
	DamageThisRound int    `json:"damage_this_round"`
}

// ResetTurn clears the per-round flags at the start of a round
func (s *SoloCombatState) ResetTurn() {
	s.ActionUsed = false
	s.BonusUsed = false
	s.ReactionsUsed = 0
	s.HeroicUsed = false
	s.DamageThisRound = 0
}

// ResourcePool is the per-entity collection of expendable resources
type ResourcePool struct {
	SpellSlots map[int]*SpellSlotLevel     `json:"spell_slots,omitempty"`
	Cooldowns  map[string]*CooldownTracker `json:"cooldowns,omitempty"`
	UsageDice  map[string]*UsageDie        `json:"usage_dice,omitempty"`
	Pool       *StressMomentumPool         `json:"pool,omitempty"`
	DefyDeath  *DefyDeathState             `json:"defy_death,omitempty"`
	Solo       *SoloCombatState            `json:"solo,omitempty"`
}

// UseSlot consumes a spell slot at the given level. Returns false when none
// remain.
func (r *ResourcePool) UseSlot(level int) bool {
	slot, ok := r.SpellSlots[level]
	if !ok || slot.Current <= 0 {
		return false
	}
	slot.Current--
	return true
}

// RestoreAllSlots refills every slot level, returning restored counts
func (r *ResourcePool) RestoreAllSlots() map[int]int {
	restored := make(map[int]int)
	for level, slot := range r.SpellSlots {
		if slot.Current < slot.Max {
			restored[level] = slot.Max - slot.Current
			slot.Current = slot.Max
		}
	}
	return restored
}
