package npc

import "github.com/KirkDiggler/tta-core/internal/entities"

// DecideInput carries everything the NPC knows about the situation
type DecideInput struct {
	UniverseID string
	// NPC must carry character stats with an NPC profile
	NPC *entities.Entity
	// TargetID is who the action would be aimed at, usually the player
	TargetID string
	// Relationships are the NPC's outgoing edges
	Relationships []*entities.Relationship
	// TargetReputation is the target's standing with the NPC's faction.
	// It stands in for trust when the NPC has no direct history with the
	// target.
	TargetReputation int
	DangerLevel      int
}

// ActionScore breaks one candidate's score into its factors
type ActionScore struct {
	Action       entities.NPCAction
	Motivation   float64
	Relationship float64
	Personality  float64
	Risk         float64
	Total        float64
}

// DecideOutput is the chosen action plus every candidate's score
type DecideOutput struct {
	Action    entities.NPCAction
	TargetID  string
	Reasoning string
	Scores    []ActionScore
}

// FormMemoryInput asks whether an event is worth remembering
type FormMemoryInput struct {
	UniverseID string
	NPCID      string
	Event      *entities.Event
	// Summary is the human-readable line stored with the memory
	Summary string
}

// FormMemoryOutput reports whether a memory was formed
type FormMemoryOutput struct {
	Formed   bool
	MemoryID string
	Salience float64
}
