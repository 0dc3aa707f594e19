package entities

// IntentType is the closed set of player intent categories
type IntentType string

// Intent types
const (
	IntentAttack      IntentType = "attack"
	IntentCastSpell   IntentType = "cast_spell"
	IntentUseAbility  IntentType = "use_ability"
	IntentTalk        IntentType = "talk"
	IntentPersuade    IntentType = "persuade"
	IntentIntimidate  IntentType = "intimidate"
	IntentDeceive     IntentType = "deceive"
	IntentMove        IntentType = "move"
	IntentLook        IntentType = "look"
	IntentSearch      IntentType = "search"
	IntentInteract    IntentType = "interact"
	IntentUseItem     IntentType = "use_item"
	IntentPickUp      IntentType = "pick_up"
	IntentDrop        IntentType = "drop"
	IntentGive        IntentType = "give"
	IntentRest        IntentType = "rest"
	IntentWait        IntentType = "wait"
	IntentAskQuestion IntentType = "ask_question"
	IntentFork        IntentType = "fork"
	IntentUnclear     IntentType = "unclear"
)

// Intent is a structured player action. Parsing natural language into this
// shape happens outside the core; the router begins here.
type Intent struct {
	Type       IntentType `json:"type"`
	Confidence float64    `json:"confidence,omitempty"`

	TargetName string `json:"target_name,omitempty"`
	TargetID   string `json:"target_id,omitempty"`

	AbilityID   string   `json:"ability_id,omitempty"`
	ItemID      string   `json:"item_id,omitempty"`
	Method      string   `json:"method,omitempty"`
	Dialogue    string   `json:"dialogue,omitempty"`
	Destination string   `json:"destination,omitempty"` // exit direction for move
	RestKind    RestKind `json:"rest_kind,omitempty"`
	ForkName    string   `json:"fork_name,omitempty"`
	ForkReason  string   `json:"fork_reason,omitempty"`

	OriginalInput string `json:"original_input,omitempty"`
}
