package entities

// GMMoveType is the closed set of moves the system makes on a miss
type GMMoveType string

// GM moves. Soft moves warn; hard moves hurt.
const (
	MoveShowDanger           GMMoveType = "SHOW_DANGER"
	MoveOfferOpportunity     GMMoveType = "OFFER_OPPORTUNITY"
	MoveRevealUnwelcomeTruth GMMoveType = "REVEAL_UNWELCOME_TRUTH"
	MoveDealDamage           GMMoveType = "DEAL_DAMAGE"
	MoveUseMonsterMove       GMMoveType = "USE_MONSTER_MOVE"
	MoveSeparateThem         GMMoveType = "SEPARATE_THEM"
	MoveTakeAway             GMMoveType = "TAKE_AWAY"
	MoveCapture              GMMoveType = "CAPTURE"
	MoveAdvanceTime          GMMoveType = "ADVANCE_TIME"
	MoveIntroduceNPC         GMMoveType = "INTRODUCE_NPC"
	MoveChangeEnvironment    GMMoveType = "CHANGE_ENVIRONMENT"
)

// SoftGMMoves are preferred at low danger
var SoftGMMoves = []GMMoveType{
	MoveShowDanger, MoveOfferOpportunity, MoveRevealUnwelcomeTruth,
	MoveAdvanceTime, MoveIntroduceNPC,
}

// HardGMMoves are preferred at high danger
var HardGMMoves = []GMMoveType{
	MoveDealDamage, MoveUseMonsterMove, MoveSeparateThem,
	MoveTakeAway, MoveCapture, MoveChangeEnvironment,
}

// RollSummary is one dice roll broken out for display
type RollSummary struct {
	Description string `json:"description"`
	Roll        int    `json:"roll"`
	Modifier    int    `json:"modifier"`
	Total       int    `json:"total"`
	Success     *bool  `json:"success,omitempty"`
	Critical    bool   `json:"critical,omitempty"`
	Fumble      bool   `json:"fumble,omitempty"`
}

// SkillResult is the outcome of resolving one skill or action
type SkillResult struct {
	Success bool    `json:"success"`
	Outcome Outcome `json:"outcome,omitempty"`
	Reason  string  `json:"reason,omitempty"` // set on failures, human readable

	Roll   int `json:"roll,omitempty"`
	Total  int `json:"total,omitempty"`
	DC     int `json:"dc,omitempty"`
	Margin int `json:"margin,omitempty"`

	Damage     int             `json:"damage,omitempty"`
	DamageType string          `json:"damage_type,omitempty"`
	Healing    int             `json:"healing,omitempty"`
	Conditions []ConditionType `json:"conditions,omitempty"`

	Critical bool `json:"critical,omitempty"`
	Fumble   bool `json:"fumble,omitempty"`

	GMMoveType   GMMoveType `json:"gm_move_type,omitempty"`
	GMMoveDetail string     `json:"gm_move_detail,omitempty"`

	EntitiesCreated  []string `json:"entities_created,omitempty"`
	EntitiesModified []string `json:"entities_modified,omitempty"`

	Description string `json:"description,omitempty"`
}

// TurnResult is what the router returns for one turn
type TurnResult struct {
	TurnID       string        `json:"turn_id"`
	Skill        *SkillResult  `json:"skill,omitempty"`
	Rolls        []RollSummary `json:"rolls,omitempty"`
	StateChanges []string      `json:"state_changes,omitempty"`
	EventIDs     []string      `json:"event_ids,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Session is an active game: a universe, a location, and one or more
// characters with one active at a time. Turns within a session are
// serialized.
type Session struct {
	ID           string   `json:"id"`
	UniverseID   string   `json:"universe_id"`
	LocationID   string   `json:"location_id"`
	CharacterIDs []string `json:"character_ids"`
	ActiveID     string   `json:"active_id"`
	TurnCount    int      `json:"turn_count"`
}

// AddCharacter adds a character, activating it when none is active
func (s *Session) AddCharacter(characterID string, makeActive bool) {
	for _, id := range s.CharacterIDs {
		if id == characterID {
			if makeActive {
				s.ActiveID = characterID
			}
			return
		}
	}
	s.CharacterIDs = append(s.CharacterIDs, characterID)
	if makeActive || s.ActiveID == "" {
		s.ActiveID = characterID
	}
}

// SwitchCharacter activates a character already in the session
func (s *Session) SwitchCharacter(characterID string) bool {
	for _, id := range s.CharacterIDs {
		if id == characterID {
			s.ActiveID = characterID
			return true
		}
	}
	return false
}
