package entities

import "time"

// RelationshipType is the closed set of edge types in the graph store
type RelationshipType string

// Relationship types
const (
	RelKnows         RelationshipType = "KNOWS"
	RelFears         RelationshipType = "FEARS"
	RelDesires       RelationshipType = "DESIRES"
	RelLocatedIn     RelationshipType = "LOCATED_IN"
	RelOwns          RelationshipType = "OWNS"
	RelWields        RelationshipType = "WIELDS"
	RelWears         RelationshipType = "WEARS"
	RelCarries       RelationshipType = "CARRIES"
	RelContains      RelationshipType = "CONTAINS"
	RelConnectedTo   RelationshipType = "CONNECTED_TO"
	RelTrappedIn     RelationshipType = "TRAPPED_IN"
	RelVariantOf     RelationshipType = "VARIANT_OF"
	RelHasAtmosphere RelationshipType = "HAS_ATMOSPHERE"
	RelCaused        RelationshipType = "CAUSED"
)

// Relationship is a directed edge between two entities within a universe.
// LOCATED_IN is functional: an entity has exactly one per universe. KNOWS
// carries a trust scalar in [-1, 1].
type Relationship struct {
	ID         string           `json:"id"`
	UniverseID string           `json:"universe_id"`
	FromID     string           `json:"from_id"`
	ToID       string           `json:"to_id"`
	Type       RelationshipType `json:"type"`
	Trust      float64          `json:"trust,omitempty"`
	Strength   float64          `json:"strength,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// PersonalRelationshipTypes are the edges that stay behind on world travel;
// ownership edges move with the character.
var PersonalRelationshipTypes = map[RelationshipType]bool{
	RelKnows:   true,
	RelFears:   true,
	RelDesires: true,
}
