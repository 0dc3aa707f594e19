package entities

// SourceRule is how a universe treats an ability source
type SourceRule string

// Source rules
const (
	SourceNormal     SourceRule = "normal"
	SourceEnhanced   SourceRule = "enhanced"   // damage dice step up
	SourceRestricted SourceRule = "restricted" // save DCs shift against the caster
	SourceForbidden  SourceRule = "forbidden"  // abilities from this source fail
)

// PhysicsOverlay is a per-universe record adjusting how ability sources
// behave. It is configuration applied by the effect pipeline, not a rules
// subclass.
type PhysicsOverlay struct {
	UniverseID string                       `json:"universe_id"`
	Sources    map[AbilitySource]SourceRule `json:"sources,omitempty"`
	// SaveDCShift applies to restricted sources, default -2 for the caster's
	// effect DCs
	SaveDCShift int `json:"save_dc_shift,omitempty"`
	// DamageDieBonus applies to enhanced sources, default +1 die
	DamageDieBonus int `json:"damage_die_bonus,omitempty"`
}

// RuleFor returns the rule for a source, defaulting to normal
func (p *PhysicsOverlay) RuleFor(source AbilitySource) SourceRule {
	if p == nil || p.Sources == nil {
		return SourceNormal
	}
	if rule, ok := p.Sources[source]; ok {
		return rule
	}
	return SourceNormal
}
