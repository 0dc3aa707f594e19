package moves

import "github.com/KirkDiggler/tta-core/internal/entities"

// SelectInput feeds deterministic move selection
type SelectInput struct {
	// DangerLevel of the current location, 0-20
	DangerLevel int
	InCombat    bool
	// RecentSoftMoves counts soft moves already made this scene; two
	// warnings earn a hard move
	RecentSoftMoves int
}

// SelectOutput names the chosen move and its band
type SelectOutput struct {
	Move   entities.GMMoveType
	IsHard bool
}

// ExecuteInput carries everything a generator needs
type ExecuteInput struct {
	UniverseID string
	Move       entities.GMMoveType

	Actor    *entities.Entity
	Location *entities.Entity
	// Present are the other entities at the location, for SEPARATE_THEM
	Present []*entities.Entity
	// Inventory is the actor's carried items, for TAKE_AWAY
	Inventory []*entities.Entity

	DangerLevel int
	// CausedByEventID threads the miss that triggered this move
	CausedByEventID string
}

// ExecuteOutput reports what the move did to the world
type ExecuteOutput struct {
	Success   bool
	Narrative string

	EntitiesCreated      []string
	EntitiesModified     []string
	RelationshipsCreated []string
	StateChanges         []string

	// NewLocationID is set when the move relocated the actor (CAPTURE)
	NewLocationID string
	// UsedFallback is true when the LLM was skipped or failed and a
	// template filled in
	UsedFallback bool

	EventIDs []string
}

// npcParams is the structured shape the LLM fills in for INTRODUCE_NPC
type npcParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Role        string `json:"role"`
	Traits      struct {
		Openness          int `json:"openness"`
		Conscientiousness int `json:"conscientiousness"`
		Extraversion      int `json:"extraversion"`
		Agreeableness     int `json:"agreeableness"`
		Neuroticism       int `json:"neuroticism"`
	} `json:"traits"`
	Motivations []string `json:"motivations"`
	SpeechStyle string   `json:"speech_style"`
}

// featureParams is the structured shape the LLM fills in for environment
// features
type featureParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FeatureType string `json:"feature_type"`
	IsDangerous bool   `json:"is_dangerous"`
}
